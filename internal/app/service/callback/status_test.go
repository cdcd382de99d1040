package callback

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angohost/payref/pkg/types"
)

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want types.CallbackOutcome
	}{
		{"paid", types.OutcomePaid},
		{"PAID", types.OutcomePaid},
		{"  Success ", types.OutcomePaid},
		{"completed", types.OutcomePaid},
		{"ACCEPTED", types.OutcomePaid},
		{"1", types.OutcomePaid},
		{"true", types.OutcomePaid},
		{"failed", types.OutcomeCancelled},
		{"Cancelled", types.OutcomeCancelled},
		{"canceled", types.OutcomeCancelled},
		{"0", types.OutcomeCancelled},
		{"", types.OutcomePending},
		{"processing", types.OutcomePending},
		{"whatever", types.OutcomePending},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NormalizeStatus(tc.raw), "raw=%q", tc.raw)
	}
}
