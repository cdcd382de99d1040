package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/angohost/payref/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Store is the persistence surface of the reconciliation flow. All
// terminal transitions are compare-and-swap updates returning whether
// the row actually moved, so callers can distinguish a fresh transition
// from a redelivered one.
type Store interface {
	// InTx runs fn against a transactional view of the store. Methods
	// documented as requiring a transaction must only be called on the
	// Store passed to fn.
	InTx(ctx context.Context, fn func(tx Store) error) error

	GetOrder(ctx context.Context, id string) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, id string) (bool, error)
	MarkOrderCancelled(ctx context.Context, id string) (bool, error)

	GetReferenceByCode(ctx context.Context, code string) (*models.PaymentReference, error)
	GetReferenceByToken(ctx context.Context, token string) (*models.PaymentReference, error)
	GetReferenceByOrderID(ctx context.Context, orderID string) (*models.PaymentReference, error)
	ConfirmReference(ctx context.Context, id string) (bool, error)
	FailReference(ctx context.Context, id string) (bool, error)

	// CreatePayment inserts an audit row; returns false when the
	// (provider, transaction_id) pair already exists.
	CreatePayment(ctx context.Context, p *models.Payment) (bool, error)

	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	GetInvoiceByOrderID(ctx context.Context, orderID string) (*models.Invoice, error)
	MarkInvoicePaid(ctx context.Context, id string, paidAt time.Time) (bool, error)
	ListPendingDepositInvoices(ctx context.Context, userID string) ([]*models.Invoice, error)

	GetOrCreateWallet(ctx context.Context, userID, currency string) (*models.Wallet, error)
	// CreditWallet locks the wallet row, applies the increment and
	// appends the ledger row. Requires a transaction.
	CreditWallet(ctx context.Context, walletID string, amount int64, category, referenceID string) (*models.WalletTransaction, error)

	EnqueueMessage(ctx context.Context, m *models.OutboxMessage) error
	PendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error)
	MarkMessageSent(ctx context.Context, id string) error
	BumpMessageRetry(ctx context.Context, id string) error
	MarkMessageFailed(ctx context.Context, id string) error
}

type gormStore struct {
	db *gorm.DB
}

func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

var Module = fx.Options(
	fx.Provide(New),
)
