package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angohost/payref/internal/models"
)

func (s *gormStore) CreatePayment(ctx context.Context, p *models.Payment) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "transaction_id"}},
			DoNothing: true,
		}).
		Create(p)
	if res.Error != nil {
		return false, fmt.Errorf("failed to create payment: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &inv, nil
}

func (s *gormStore) GetInvoiceByOrderID(ctx context.Context, orderID string) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at desc").First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice by order: %w", err)
	}
	return &inv, nil
}

// MarkInvoicePaid moves a draft/issued invoice to paid. Returns false
// when the invoice already reached a terminal state, which callers use
// to skip the wallet credit on redelivery.
func (s *gormStore) MarkInvoicePaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND status IN ?", id, []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusIssued}).
		Updates(map[string]interface{}{
			"status":  models.InvoiceStatusPaid,
			"paid_at": paidAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark invoice paid: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) ListPendingDepositInvoices(ctx context.Context, userID string) ([]*models.Invoice, error) {
	var invoices []*models.Invoice
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND invoice_type = ? AND status = ?", userID, models.InvoiceTypeWalletDeposit, models.InvoiceStatusIssued).
		Order("created_at asc").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deposit invoices: %w", err)
	}
	return invoices, nil
}
