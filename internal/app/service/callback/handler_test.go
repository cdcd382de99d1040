package callback

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/angohost/payref/internal/app/service/reconcile"
	"github.com/angohost/payref/internal/app/service/resolver"
	"github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/pkg/types"
)

type stubResolver struct {
	resolution *resolver.Resolution
	err        error
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (*resolver.Resolution, error) {
	return s.resolution, s.err
}

type stubReconciler struct {
	outcome    *reconcile.Outcome
	err        error
	confirmed  int
	cancelled  int
	lastAmount int64
}

func (s *stubReconciler) Confirm(_ context.Context, _ *models.PaymentReference, _ types.PaymentProvider, _ string, amount int64) (*reconcile.Outcome, error) {
	s.confirmed++
	s.lastAmount = amount
	return s.outcome, s.err
}

func (s *stubReconciler) Cancel(_ context.Context, _ *models.PaymentReference, _ types.PaymentProvider, _ string) (*reconcile.Outcome, error) {
	s.cancelled++
	return s.outcome, s.err
}

type stubAuditor struct {
	mu      sync.Mutex
	entries []*models.CallbackLog
}

func (s *stubAuditor) Save(_ context.Context, entry *models.CallbackLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *stubAuditor) last(t *testing.T) *models.CallbackLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.entries)
	return s.entries[len(s.entries)-1]
}

func newTestHandler(res *stubResolver, rec *stubReconciler, audit *stubAuditor) *Handler {
	return &Handler{resolver: res, reconciler: rec, audit: audit, log: zap.NewNop().Sugar()}
}

func serve(h *Handler, method, target string, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Handle(method, "/api/v1/payment/callback/:provider", h.Handle)

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandle_PaidCallback(t *testing.T) {
	ref := &models.PaymentReference{ID: "pr-1", OrderID: "ord-1", Reference: "999123456"}
	rec := &stubReconciler{outcome: &reconcile.Outcome{
		OrderID:       "ord-1",
		Reference:     "999123456",
		TransactionID: "TXN-9",
		Result:        types.OutcomePaid,
		InvoiceStatus: models.InvoiceStatusPaid,
	}}
	audit := &stubAuditor{}
	h := newTestHandler(&stubResolver{resolution: &resolver.Resolution{Ref: ref, Strategy: "reference"}}, rec, audit)

	w := serve(h, http.MethodPost, "/api/v1/payment/callback/multicaixa",
		`{"reference":"999123456","status":"ACCEPTED","transaction_id":"TXN-9","amount":5000}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, rec.confirmed)
	require.Equal(t, int64(5000), rec.lastAmount)
	require.Contains(t, w.Body.String(), `"order_id":"ord-1"`)
	require.Contains(t, w.Body.String(), `"status":"paid"`)
	require.Equal(t, models.CallbackLogStatusHandled, audit.last(t).Status)
}

func TestHandle_CancelledCallback(t *testing.T) {
	ref := &models.PaymentReference{ID: "pr-1", OrderID: "ord-1", Reference: "999123456"}
	rec := &stubReconciler{outcome: &reconcile.Outcome{OrderID: "ord-1", Result: types.OutcomeCancelled}}
	h := newTestHandler(&stubResolver{resolution: &resolver.Resolution{Ref: ref, Strategy: "reference"}}, rec, &stubAuditor{})

	w := serve(h, http.MethodPost, "/api/v1/payment/callback/appypay",
		`{"reference":"999123456","status":"failed"}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, rec.cancelled)
	require.Equal(t, 0, rec.confirmed)
}

func TestHandle_UnknownProvider(t *testing.T) {
	h := newTestHandler(&stubResolver{}, &stubReconciler{}, &stubAuditor{})

	w := serve(h, http.MethodPost, "/api/v1/payment/callback/paypal", `{"reference":"x"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandle_NoReference(t *testing.T) {
	audit := &stubAuditor{}
	h := newTestHandler(&stubResolver{}, &stubReconciler{}, audit)

	w := serve(h, http.MethodPost, "/api/v1/payment/callback/multicaixa", `{"status":"paid"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "no payment reference")
	require.Equal(t, models.CallbackLogStatusUnmatched, audit.last(t).Status)
}

func TestHandle_Unresolved(t *testing.T) {
	audit := &stubAuditor{}
	h := newTestHandler(&stubResolver{err: resolver.ErrNotResolved}, &stubReconciler{}, audit)

	w := serve(h, http.MethodGet, "/api/v1/payment/callback/multicaixa?reference=nope", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "strategies_tried")
	require.Equal(t, models.CallbackLogStatusUnmatched, audit.last(t).Status)
}

func TestHandle_PendingStatusIsNoop(t *testing.T) {
	ref := &models.PaymentReference{ID: "pr-1", OrderID: "ord-1", Reference: "999123456"}
	rec := &stubReconciler{}
	audit := &stubAuditor{}
	h := newTestHandler(&stubResolver{resolution: &resolver.Resolution{Ref: ref, Strategy: "reference"}}, rec, audit)

	w := serve(h, http.MethodGet, "/api/v1/payment/callback/multicaixa?reference=999123456&status=processing", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, rec.confirmed)
	require.Equal(t, 0, rec.cancelled)
	require.Contains(t, w.Body.String(), "not terminal")
	require.Equal(t, models.CallbackLogStatusReceived, audit.last(t).Status)
}

func TestHandle_ReconcileError(t *testing.T) {
	ref := &models.PaymentReference{ID: "pr-1", OrderID: "ord-1", Reference: "999123456"}
	rec := &stubReconciler{err: errors.New("db down")}
	audit := &stubAuditor{}
	h := newTestHandler(&stubResolver{resolution: &resolver.Resolution{Ref: ref, Strategy: "reference"}}, rec, audit)

	w := serve(h, http.MethodGet, "/api/v1/payment/callback/multicaixa?reference=999123456&status=paid", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, models.CallbackLogStatusHandleFailed, audit.last(t).Status)
}
