package models

import (
	"time"

	"github.com/angohost/payref/pkg/types"
)

type PaymentStatus string

const (
	PaymentStatusAwaiting  PaymentStatus = "awaiting"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is the append-only audit row written once per terminal
// transition. The (provider, transaction_id) unique index is the
// backstop against webhook redelivery slipping past the status CAS.
type Payment struct {
	ID            string                `gorm:"column:id;primary_key;type:uuid" json:"id"`
	OrderID       string                `gorm:"column:order_id;type:varchar(64);not null;index" json:"order_id"`
	Provider      types.PaymentProvider `gorm:"column:provider;type:varchar(32);not null;uniqueIndex:unique_provider_transaction,priority:1" json:"provider"`
	TransactionID string                `gorm:"column:transaction_id;type:varchar(128);not null;uniqueIndex:unique_provider_transaction,priority:2" json:"transaction_id"`
	AmountPaid    int64                 `gorm:"column:amount_paid;type:bigint;not null" json:"amount_paid"`
	Method        types.PaymentMethod   `gorm:"column:method;type:varchar(32);not null" json:"method"`
	Status        PaymentStatus         `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }
