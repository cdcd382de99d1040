package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angohost/payref/internal/models"
)

func (s *gormStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// MarkOrderPaid flips a not-yet-final order to paid. Returns false when
// the order was already paid or cancelled.
func (s *gormStore) MarkOrderPaid(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, []models.OrderStatus{models.OrderStatusPending, models.OrderStatusProcessing}).
		Update("status", models.OrderStatusPaid)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) MarkOrderCancelled(ctx context.Context, id string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", id, []models.OrderStatus{models.OrderStatusPending, models.OrderStatusProcessing}).
		Update("status", models.OrderStatusCancelled)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order cancelled: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
