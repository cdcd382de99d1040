package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angohost/payref/internal/models"
)

func (s *gormStore) getReference(ctx context.Context, query string, arg any) (*models.PaymentReference, error) {
	var ref models.PaymentReference
	err := s.db.WithContext(ctx).Where(query, arg).Order("created_at desc").First(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment reference: %w", err)
	}
	return &ref, nil
}

func (s *gormStore) GetReferenceByCode(ctx context.Context, code string) (*models.PaymentReference, error) {
	return s.getReference(ctx, "reference = ?", code)
}

func (s *gormStore) GetReferenceByToken(ctx context.Context, token string) (*models.PaymentReference, error) {
	return s.getReference(ctx, "token = ?", token)
}

func (s *gormStore) GetReferenceByOrderID(ctx context.Context, orderID string) (*models.PaymentReference, error) {
	return s.getReference(ctx, "order_id = ?", orderID)
}

// ConfirmReference is the idempotency gate of the whole flow: the
// UPDATE only matches while the reference is still pending, so a
// redelivered callback affects zero rows and the caller short-circuits.
func (s *gormStore) ConfirmReference(ctx context.Context, id string) (bool, error) {
	return s.transitionReference(ctx, id, models.PaymentReferenceStatusConfirmed)
}

func (s *gormStore) FailReference(ctx context.Context, id string) (bool, error) {
	return s.transitionReference(ctx, id, models.PaymentReferenceStatusFailed)
}

func (s *gormStore) transitionReference(ctx context.Context, id string, to models.PaymentReferenceStatus) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.PaymentReference{}).
		Where("id = ? AND status = ?", id, models.PaymentReferenceStatusPending).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("failed to transition reference to %s: %w", to, res.Error)
	}
	return res.RowsAffected > 0, nil
}
