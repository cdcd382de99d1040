package callback

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrNoReference means no probe produced a usable reference string.
var ErrNoReference = errors.New("no payment reference in payload")

// Descriptor is the best-effort normalization of a provider callback.
// Providers are not contractually fixed on field names, so each logical
// field is probed against an ordered list of aliases.
type Descriptor struct {
	Reference     string
	RawStatus     string
	TransactionID string
	Amount        int64
	Payload       map[string]any
}

var (
	referenceKeys = []string{"reference", "ref", "payment_reference", "transaction_id", "order_id"}
	statusKeys    = []string{"status", "payment_status", "state"}
	txnKeys       = []string{"transaction_id", "txn_id", "id", "payment_id"}
	amountKeys    = []string{"amount", "total_amount", "value"}
)

// Extract probes the request for a payment descriptor. Query-string
// values are read first and body values (JSON or form) overwrite them;
// providers that POST put the authoritative fields in the body.
func Extract(r *http.Request) (*Descriptor, error) {
	payload := map[string]any{}

	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			payload[k] = vs[0]
		}
	}

	if r.Body != nil && r.Method != http.MethodGet {
		body, err := io.ReadAll(r.Body)
		if err == nil && len(body) > 0 {
			ct := r.Header.Get("Content-Type")
			switch {
			case strings.Contains(ct, "application/json"), len(ct) == 0 && looksLikeJSON(body):
				var m map[string]any
				if err := json.Unmarshal(body, &m); err == nil {
					for k, v := range m {
						payload[k] = v
					}
				} else {
					payload["_raw"] = string(body)
				}
			default:
				// form-encoded or unknown; parse as k=v pairs
				if vals, err := parseForm(string(body)); err == nil {
					for k, v := range vals {
						payload[k] = v
					}
				} else {
					payload["_raw"] = string(body)
				}
			}
		}
	}

	d := &Descriptor{Payload: payload}
	d.Reference = probeString(payload, referenceKeys)
	if d.Reference == "" {
		return d, ErrNoReference
	}
	d.RawStatus = probeString(payload, statusKeys)
	d.TransactionID = probeString(payload, txnKeys)
	d.Amount = probeAmount(payload, amountKeys)
	return d, nil
}

func looksLikeJSON(b []byte) bool {
	s := strings.TrimSpace(string(b))
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

func parseForm(body string) (map[string]string, error) {
	vals, err := url.ParseQuery(body)
	if err != nil {
		return nil, fmt.Errorf("not form data: %w", err)
	}
	out := map[string]string{}
	for k, vs := range vals {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	if len(out) == 0 {
		return nil, errors.New("empty form body")
	}
	return out, nil
}

// probeString returns the first non-empty stringification among keys.
func probeString(payload map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := payload[k]; ok {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case nil:
		return ""
	default:
		return ""
	}
}

func probeAmount(payload map[string]any, keys []string) int64 {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return int64(math.Round(t))
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err == nil {
				return int64(math.Round(f))
			}
		}
	}
	return 0
}
