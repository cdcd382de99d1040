package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angohost/payref/internal/models"
	"github.com/angohost/payref/pkg/tool"
)

func (s *gormStore) GetOrCreateWallet(ctx context.Context, userID, currency string) (*models.Wallet, error) {
	wallet := &models.Wallet{
		ID:       tool.GenerateUUIDV7(),
		UserID:   userID,
		Currency: currency,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(wallet).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	var existing models.Wallet
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	return &existing, nil
}

// CreditWallet applies an additive balance change under a row lock so
// concurrent credits cannot lose updates, and appends the ledger row
// with the post-increment balance. Must run inside InTx.
func (s *gormStore) CreditWallet(ctx context.Context, walletID string, amount int64, category, referenceID string) (*models.WalletTransaction, error) {
	var wallet models.Wallet
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", walletID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	newBalance := wallet.Balance + amount
	res := s.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to credit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	wt := &models.WalletTransaction{
		ID:           tool.GenerateUUIDV7(),
		WalletID:     walletID,
		Amount:       amount,
		BalanceAfter: newBalance,
		Type:         models.WalletTransactionTypeCredit,
		Category:     category,
		ReferenceID:  referenceID,
		Status:       models.WalletTransactionStatusCompleted,
	}
	if err := s.db.WithContext(ctx).Create(wt).Error; err != nil {
		return nil, fmt.Errorf("failed to append wallet transaction: %w", err)
	}
	return wt, nil
}
