package models

import (
	"time"

	"github.com/angohost/payref/pkg/types"
)

type PaymentReferenceStatus string

const (
	PaymentReferenceStatusPending   PaymentReferenceStatus = "pending"
	PaymentReferenceStatusConfirmed PaymentReferenceStatus = "confirmed"
	PaymentReferenceStatusFailed    PaymentReferenceStatus = "failed"
)

// PaymentReference is the Multicaixa/AppyPay entity code handed to the
// customer at checkout. It transitions at most once out of pending; the
// transition is guarded by a compare-and-swap on status, not by a unique
// index on reference (providers reuse reference codes across entities).
type PaymentReference struct {
	ID        string                 `gorm:"column:id;primary_key;type:uuid" json:"id"`
	OrderID   string                 `gorm:"column:order_id;type:varchar(64);not null;index" json:"order_id"`
	InvoiceID *string                `gorm:"column:invoice_id;type:uuid;index" json:"invoice_id"`
	UserID    string                 `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Provider  types.PaymentProvider  `gorm:"column:provider;type:varchar(32);not null" json:"provider"`
	Reference string                 `gorm:"column:reference;type:varchar(64);not null;index" json:"reference"`
	Token     string                 `gorm:"column:token;type:varchar(128);index" json:"token"`
	Amount    int64                  `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Status    PaymentReferenceStatus `gorm:"column:status;type:varchar(32);not null;default:'pending'" json:"status"`
	ExpiresAt *time.Time             `gorm:"column:expires_at;default:null" json:"expires_at"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

func (PaymentReference) TableName() string { return "payment_references" }

// Synthesized reports whether this reference was reconstructed in memory
// from a bare order id (provider echoed the order id, no persisted row).
func (r *PaymentReference) Synthesized() bool {
	return r != nil && r.ID == ""
}
