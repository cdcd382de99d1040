package callback

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/angohost/payref/internal/app/service/callbacklog"
	"github.com/angohost/payref/internal/app/service/reconcile"
	"github.com/angohost/payref/internal/app/service/resolver"
	"github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/pkg/logctx"
	"github.com/angohost/payref/pkg/types"
)

// Narrow views of the services, so tests can stub each collaborator.
type referenceResolver interface {
	Resolve(ctx context.Context, reference string) (*resolver.Resolution, error)
}

type paymentReconciler interface {
	Confirm(ctx context.Context, ref *models.PaymentReference, provider types.PaymentProvider, transactionID string, amount int64) (*reconcile.Outcome, error)
	Cancel(ctx context.Context, ref *models.PaymentReference, provider types.PaymentProvider, transactionID string) (*reconcile.Outcome, error)
}

type auditor interface {
	Save(ctx context.Context, entry *models.CallbackLog)
}

type Handler struct {
	resolver   referenceResolver
	reconciler paymentReconciler
	audit      auditor
	log        *zap.SugaredLogger
}

func NewHandler(res *resolver.Service, rec *reconcile.Service, audit *callbacklog.Service, log *zap.SugaredLogger) *Handler {
	return &Handler{resolver: res, reconciler: rec, audit: audit, log: log}
}

// webhookResponse is what providers see. They retry on non-2xx, so the
// body stays flat and status-coded rather than using the API envelope.
type webhookResponse struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message"`
	OrderID       string                `json:"order_id,omitempty"`
	Reference     string                `json:"reference,omitempty"`
	Status        types.CallbackOutcome `json:"status,omitempty"`
	InvoiceStatus models.InvoiceStatus  `json:"invoice_status,omitempty"`
	TransactionID string                `json:"transaction_id,omitempty"`
	Strategies    []string              `json:"strategies_tried,omitempty"`
	Payload       map[string]any        `json:"payload,omitempty"`
}

var providers = map[string]types.PaymentProvider{
	string(types.PaymentProviderMulticaixa): types.PaymentProviderMulticaixa,
	string(types.PaymentProviderAppyPay):    types.PaymentProviderAppyPay,
}

// Handle processes one provider callback end to end: probe the payload,
// resolve the reference, normalize the status, then hand terminal
// statuses to the reconciler. Every callback leaves an audit row, even
// the ones nothing matched.
func (h *Handler) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	log := logctx.FromGin(c, h.log)

	provider, ok := providers[c.Param("provider")]
	if !ok {
		c.JSON(http.StatusBadRequest, &webhookResponse{Message: "unknown provider"})
		return
	}

	d, err := Extract(c.Request)
	if err != nil {
		log.Warnw("callback without reference", "provider", provider, "payload", d.Payload)
		h.saveLog(c, provider, d, models.CallbackLogStatusUnmatched, nil)
		c.JSON(http.StatusBadRequest, &webhookResponse{
			Message: "no payment reference found in callback",
			Payload: d.Payload,
		})
		return
	}

	resolution, err := h.resolver.Resolve(ctx, d.Reference)
	if err != nil {
		h.saveLog(c, provider, d, models.CallbackLogStatusUnmatched, nil)
		if err == resolver.ErrNotResolved {
			log.Warnw("callback reference unmatched", "provider", provider, "reference", d.Reference)
			c.JSON(http.StatusNotFound, &webhookResponse{
				Message:    "reference not found",
				Reference:  d.Reference,
				Strategies: resolver.Strategies,
			})
			return
		}
		log.Errorw("reference resolution failed", "provider", provider, "reference", d.Reference, "error", err.Error())
		c.JSON(http.StatusInternalServerError, &webhookResponse{Message: "internal error"})
		return
	}
	ref := resolution.Ref

	var outcome *reconcile.Outcome
	switch NormalizeStatus(d.RawStatus) {
	case types.OutcomePaid:
		outcome, err = h.reconciler.Confirm(ctx, ref, provider, d.TransactionID, d.Amount)
	case types.OutcomeCancelled:
		outcome, err = h.reconciler.Cancel(ctx, ref, provider, d.TransactionID)
	default:
		// not terminal; acknowledge so the provider stops retrying
		h.saveLog(c, provider, d, models.CallbackLogStatusReceived, nil)
		c.JSON(http.StatusOK, &webhookResponse{
			Success:   true,
			Message:   "status not terminal, nothing to do",
			OrderID:   ref.OrderID,
			Reference: ref.Reference,
			Status:    types.OutcomePending,
		})
		return
	}
	if err != nil {
		h.saveLog(c, provider, d, models.CallbackLogStatusHandleFailed, nil)
		c.JSON(http.StatusInternalServerError, &webhookResponse{
			Message:   "failed to process payment",
			OrderID:   ref.OrderID,
			Reference: ref.Reference,
		})
		return
	}

	h.saveLog(c, provider, d, models.CallbackLogStatusHandled, outcome)

	msg := "payment processed"
	if outcome.AlreadyProcessed {
		msg = "already processed"
	}
	c.JSON(http.StatusOK, &webhookResponse{
		Success:       true,
		Message:       msg,
		OrderID:       outcome.OrderID,
		Reference:     outcome.Reference,
		Status:        outcome.Result,
		InvoiceStatus: outcome.InvoiceStatus,
		TransactionID: outcome.TransactionID,
	})
}

func (h *Handler) saveLog(c *gin.Context, provider types.PaymentProvider, d *Descriptor, status models.CallbackLogStatus, outcome *reconcile.Outcome) {
	entry := &models.CallbackLog{
		Provider: string(provider),
		TraceID:  c.GetString("traceID"),
		Status:   status,
	}
	if d != nil {
		entry.Reference = d.Reference
		entry.TransactionID = d.TransactionID
		if payload, err := json.Marshal(d.Payload); err == nil {
			entry.Payload = datatypes.JSON(payload)
		}
	}
	if outcome != nil {
		if result, err := json.Marshal(outcome); err == nil {
			r := datatypes.JSON(result)
			entry.Result = &r
		}
	}
	h.audit.Save(c.Request.Context(), entry)
}

var Module = fx.Options(
	fx.Provide(NewHandler),
)
