package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/internal/platform/redislock"
	"github.com/angohost/payref/internal/repository"
	"github.com/angohost/payref/pkg/config"
	"github.com/angohost/payref/pkg/logctx"
	"github.com/angohost/payref/pkg/tool"
)

// userLocker serializes wallet work per user.
type userLocker interface {
	Acquire(ctx context.Context, userID string) (release func(), err error)
}

type redisLocker struct {
	client *redis.Client
}

func (r *redisLocker) Acquire(ctx context.Context, userID string) (func(), error) {
	lock := redislock.NewWalletLock(r.client, userID, tool.GenerateUUIDV7())
	if err := lock.Lock(ctx, 100*time.Millisecond, 20); err != nil {
		return nil, err
	}
	return func() { _ = lock.Unlock(context.WithoutCancel(ctx)) }, nil
}

type Service struct {
	store  repository.Store
	locker userLocker
	cfg    *config.Config
	log    *zap.SugaredLogger
}

func New(store repository.Store, client *redis.Client, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{store: store, locker: &redisLocker{client: client}, cfg: cfg, log: log}
}

type CheckPendingResult struct {
	Checked       int   `json:"checked"`
	Credited      int   `json:"credited"`
	TotalCredited int64 `json:"total_credited"`
}

// CheckPending is the manual poll path: it scans the user's issued
// wallet-deposit invoices and settles each one. The per-user lock plus
// the invoice status CAS make it safe against overlapping clicks and
// against the webhook confirming the same invoice concurrently; an
// invoice only ever credits once.
func (s *Service) CheckPending(ctx context.Context, userID string) (*CheckPendingResult, error) {
	release, err := s.locker.Acquire(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("wallet busy, try again: %w", err)
	}
	defer release()

	invoices, err := s.store.ListPendingDepositInvoices(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &CheckPendingResult{Checked: len(invoices)}
	for _, invoice := range invoices {
		credited, err := s.settleDeposit(ctx, invoice)
		if err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("failed to settle deposit invoice",
				"invoice_id", invoice.ID, "error", err.Error())
			continue
		}
		if credited {
			result.Credited++
			result.TotalCredited += invoice.DepositAmount()
		}
	}
	return result, nil
}

// settleDeposit marks one deposit invoice paid and credits the wallet,
// all inside a single transaction. Returns false when the invoice was
// no longer issued (someone else settled it first).
func (s *Service) settleDeposit(ctx context.Context, invoice *models.Invoice) (bool, error) {
	var credited bool
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		moved, err := tx.MarkInvoicePaid(ctx, invoice.ID, time.Now())
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}

		wallet, err := tx.GetOrCreateWallet(ctx, invoice.UserID, s.cfg.Wallet.Currency)
		if err != nil {
			return err
		}
		wt, err := tx.CreditWallet(ctx, wallet.ID, invoice.DepositAmount(), "deposit", invoice.ID)
		if err != nil {
			return err
		}
		credited = true
		logctx.FromCtx(ctx, s.log).Infow("deposit settled via check_pending",
			"invoice_id", invoice.ID, "balance_after", wt.BalanceAfter)

		payload, err := json.Marshal(map[string]any{
			"event":      "wallet_deposit_confirmed",
			"user_id":    invoice.UserID,
			"invoice_id": invoice.ID,
			"amount":     invoice.DepositAmount(),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		return tx.EnqueueMessage(ctx, &models.OutboxMessage{
			Topic:      s.cfg.Kafka.Topic.PaymentEvents,
			MessageKey: invoice.UserID,
			Payload:    string(payload),
		})
	})
	if err != nil {
		return false, err
	}
	return credited, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
