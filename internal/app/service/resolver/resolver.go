package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/internal/repository"
	"github.com/angohost/payref/pkg/logctx"
)

// ErrNotResolved means every lookup strategy missed.
var ErrNotResolved = errors.New("reference not resolved")

// Strategies in the order they are attempted; echoed in 404 responses
// so providers can see what was tried.
var Strategies = []string{"reference", "token", "order_reference", "order_id"}

type Service struct {
	store repository.Store
	log   *zap.SugaredLogger
}

func New(store repository.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: store, log: log}
}

type Resolution struct {
	Ref      *models.PaymentReference
	Strategy string
}

// Resolve maps a raw callback reference to a payment reference row,
// trying each strategy in order and stopping at the first hit. The
// last strategy covers providers that echo the order id instead of an
// opaque reference: it synthesizes an in-memory reference with no
// persisted row (Ref.Synthesized() reports true).
func (s *Service) Resolve(ctx context.Context, reference string) (*Resolution, error) {
	lookups := []struct {
		strategy string
		fn       func(context.Context, string) (*models.PaymentReference, error)
	}{
		{"reference", s.store.GetReferenceByCode},
		{"token", s.store.GetReferenceByToken},
		{"order_reference", s.store.GetReferenceByOrderID},
	}

	for _, l := range lookups {
		ref, err := l.fn(ctx, reference)
		if err == nil {
			logctx.FromCtx(ctx, s.log).Infow("reference resolved", "strategy", l.strategy, "reference", reference)
			return &Resolution{Ref: ref, Strategy: l.strategy}, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lookup %s failed: %w", l.strategy, err)
		}
	}

	order, err := s.store.GetOrder(ctx, reference)
	if err == nil {
		logctx.FromCtx(ctx, s.log).Infow("reference resolved via order id", "order_id", order.ID)
		return &Resolution{
			Ref: &models.PaymentReference{
				OrderID:   order.ID,
				UserID:    order.UserID,
				Reference: reference,
				Amount:    order.TotalAmount,
			},
			Strategy: "order_id",
		}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup order_id failed: %w", err)
	}

	return nil, ErrNotResolved
}

var Module = fx.Options(
	fx.Provide(New),
)
