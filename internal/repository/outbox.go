package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/pkg/tool"
)

func (s *gormStore) EnqueueMessage(ctx context.Context, m *models.OutboxMessage) error {
	if m.ID == "" {
		m.ID = tool.GenerateUUIDV7()
	}
	if m.Status == "" {
		m.Status = models.OutboxStatusPending
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to enqueue outbox message: %w", err)
	}
	return nil
}

func (s *gormStore) PendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	var messages []*models.OutboxMessage
	err := s.db.WithContext(ctx).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at asc").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox messages: %w", err)
	}
	return messages, nil
}

func (s *gormStore) MarkMessageSent(ctx context.Context, id string) error {
	return s.updateMessage(ctx, id, map[string]interface{}{"status": models.OutboxStatusSent})
}

func (s *gormStore) BumpMessageRetry(ctx context.Context, id string) error {
	return s.updateMessage(ctx, id, map[string]interface{}{"retry_count": gorm.Expr("retry_count + 1")})
}

func (s *gormStore) MarkMessageFailed(ctx context.Context, id string) error {
	return s.updateMessage(ctx, id, map[string]interface{}{"status": models.OutboxStatusFailed})
}

func (s *gormStore) updateMessage(ctx context.Context, id string, values map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.OutboxMessage{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update outbox message: %w", res.Error)
	}
	return nil
}
