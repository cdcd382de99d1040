package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/internal/repository"
	"github.com/angohost/payref/pkg/config"
	"github.com/angohost/payref/pkg/logctx"
	"github.com/angohost/payref/pkg/metrics"
	"github.com/angohost/payref/pkg/tool"
	"github.com/angohost/payref/pkg/types"
)

type Service struct {
	store repository.Store
	cfg   *config.Config
	log   *zap.SugaredLogger
}

func New(store repository.Store, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{store: store, cfg: cfg, log: log}
}

// Outcome reports what a terminal transition actually did.
type Outcome struct {
	OrderID          string                 `json:"order_id"`
	Reference        string                 `json:"reference"`
	TransactionID    string                 `json:"transaction_id"`
	Result           types.CallbackOutcome  `json:"result"`
	InvoiceStatus    models.InvoiceStatus   `json:"invoice_status,omitempty"`
	PaymentID        string                 `json:"payment_id,omitempty"`
	WalletCredited   bool                   `json:"wallet_credited,omitempty"`
	AlreadyProcessed bool                   `json:"already_processed,omitempty"`
}

// Confirm applies a paid callback. Every write runs in one database
// transaction, gated by a compare-and-swap on the reference status (or
// the order status when the reference was synthesized from an order
// id), so redelivered callbacks become no-ops instead of double
// payments or double wallet credits.
func (s *Service) Confirm(ctx context.Context, ref *models.PaymentReference, provider types.PaymentProvider, transactionID string, callbackAmount int64) (*Outcome, error) {
	out := &Outcome{
		OrderID:       ref.OrderID,
		Reference:     ref.Reference,
		TransactionID: transactionID,
		Result:        types.OutcomePaid,
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if ref.Synthesized() {
			moved, err := tx.MarkOrderPaid(ctx, ref.OrderID)
			if err != nil {
				return err
			}
			if !moved {
				out.AlreadyProcessed = true
				return nil
			}
		} else {
			moved, err := tx.ConfirmReference(ctx, ref.ID)
			if err != nil {
				return err
			}
			if !moved {
				out.AlreadyProcessed = true
				return nil
			}
			if _, err := tx.MarkOrderPaid(ctx, ref.OrderID); err != nil {
				return err
			}
		}

		amountPaid := ref.Amount
		if amountPaid == 0 {
			amountPaid = callbackAmount
		} else if callbackAmount > 0 && callbackAmount != ref.Amount {
			// the stored reference amount is authoritative; providers
			// echo amounts inconsistently
			logctx.FromCtx(ctx, s.log).Warnw("callback amount mismatch",
				"reference", ref.Reference, "stored", ref.Amount, "callback", callbackAmount)
		}

		txnID := transactionID
		if txnID == "" {
			txnID = ref.Reference
		}
		out.TransactionID = txnID

		payment := &models.Payment{
			ID:            tool.GenerateUUIDV7(),
			OrderID:       ref.OrderID,
			Provider:      provider,
			TransactionID: txnID,
			AmountPaid:    amountPaid,
			Method:        types.PaymentMethodReference,
			Status:        models.PaymentStatusConfirmed,
		}
		created, err := tx.CreatePayment(ctx, payment)
		if err != nil {
			return err
		}
		if !created {
			// unique (provider, transaction_id) backstop tripped
			out.AlreadyProcessed = true
			return nil
		}
		out.PaymentID = payment.ID

		invoice, err := s.lookupInvoice(ctx, tx, ref)
		if err != nil {
			return err
		}
		if invoice != nil {
			moved, err := tx.MarkInvoicePaid(ctx, invoice.ID, time.Now())
			if err != nil {
				return err
			}
			out.InvoiceStatus = models.InvoiceStatusPaid
			if moved && invoice.IsWalletDeposit() {
				if err := s.creditDeposit(ctx, tx, invoice); err != nil {
					return err
				}
				out.WalletCredited = true
			}
		}

		return s.enqueueEvent(ctx, tx, "payment_confirmed", ref, out, amountPaid)
	})
	if err != nil {
		metrics.ReconcileOutcomes.WithLabelValues(string(provider), "error").Inc()
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}

	if out.AlreadyProcessed {
		metrics.ReconcileOutcomes.WithLabelValues(string(provider), "duplicate").Inc()
	} else {
		metrics.ReconcileOutcomes.WithLabelValues(string(provider), "paid").Inc()
	}
	return out, nil
}

// Cancel applies a failed/cancelled callback: reference to failed,
// order to cancelled. No payment row, no invoice mutation.
func (s *Service) Cancel(ctx context.Context, ref *models.PaymentReference, provider types.PaymentProvider, transactionID string) (*Outcome, error) {
	out := &Outcome{
		OrderID:       ref.OrderID,
		Reference:     ref.Reference,
		TransactionID: transactionID,
		Result:        types.OutcomeCancelled,
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if !ref.Synthesized() {
			moved, err := tx.FailReference(ctx, ref.ID)
			if err != nil {
				return err
			}
			if !moved {
				out.AlreadyProcessed = true
				return nil
			}
		}
		moved, err := tx.MarkOrderCancelled(ctx, ref.OrderID)
		if err != nil {
			return err
		}
		if ref.Synthesized() && !moved {
			out.AlreadyProcessed = true
		}
		return nil
	})
	if err != nil {
		metrics.ReconcileOutcomes.WithLabelValues(string(provider), "error").Inc()
		return nil, fmt.Errorf("failed to cancel payment: %w", err)
	}

	if out.AlreadyProcessed {
		metrics.ReconcileOutcomes.WithLabelValues(string(provider), "duplicate").Inc()
	} else {
		metrics.ReconcileOutcomes.WithLabelValues(string(provider), "cancelled").Inc()
	}
	return out, nil
}

func (s *Service) lookupInvoice(ctx context.Context, tx repository.Store, ref *models.PaymentReference) (*models.Invoice, error) {
	var invoice *models.Invoice
	var err error
	if ref.InvoiceID != nil && *ref.InvoiceID != "" {
		invoice, err = tx.GetInvoice(ctx, *ref.InvoiceID)
	} else {
		invoice, err = tx.GetInvoiceByOrderID(ctx, ref.OrderID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// wallet deposits always carry an invoice; plain orders may not
			return nil, nil
		}
		return nil, err
	}
	return invoice, nil
}

func (s *Service) creditDeposit(ctx context.Context, tx repository.Store, invoice *models.Invoice) error {
	wallet, err := tx.GetOrCreateWallet(ctx, invoice.UserID, s.cfg.Wallet.Currency)
	if err != nil {
		return err
	}
	wt, err := tx.CreditWallet(ctx, wallet.ID, invoice.DepositAmount(), "deposit", invoice.ID)
	if err != nil {
		return err
	}
	logctx.FromCtx(ctx, s.log).Infow("wallet credited",
		"wallet_id", wallet.ID, "amount", wt.Amount, "balance_after", wt.BalanceAfter)
	return nil
}

func (s *Service) enqueueEvent(ctx context.Context, tx repository.Store, event string, ref *models.PaymentReference, out *Outcome, amount int64) error {
	payload, err := json.Marshal(map[string]any{
		"event":          event,
		"order_id":       ref.OrderID,
		"user_id":        ref.UserID,
		"reference":      ref.Reference,
		"amount":         amount,
		"transaction_id": out.TransactionID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return tx.EnqueueMessage(ctx, &models.OutboxMessage{
		Topic:      s.cfg.Kafka.Topic.PaymentEvents,
		MessageKey: ref.OrderID,
		Payload:    string(payload),
	})
}

var Module = fx.Options(
	fx.Provide(New),
)
