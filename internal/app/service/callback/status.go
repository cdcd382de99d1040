package callback

import (
	"strings"

	"github.com/angohost/payref/pkg/types"
)

var paidStatuses = map[string]struct{}{
	"paid":      {},
	"success":   {},
	"completed": {},
	"confirmed": {},
	"accepted":  {},
	"1":         {},
	"true":      {},
}

var cancelledStatuses = map[string]struct{}{
	"failed":    {},
	"error":     {},
	"cancelled": {},
	"canceled":  {},
	"0":         {},
	"false":     {},
}

// NormalizeStatus maps provider status vocabulary to the internal
// tri-state. Anything unrecognized stays pending: an unknown status is
// never allowed to move money.
func NormalizeStatus(raw string) types.CallbackOutcome {
	s := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := paidStatuses[s]; ok {
		return types.OutcomePaid
	}
	if _, ok := cancelledStatuses[s]; ok {
		return types.OutcomeCancelled
	}
	return types.OutcomePending
}
