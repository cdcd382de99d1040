package models

import (
	"time"

	"gorm.io/datatypes"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type InvoiceType string

const (
	InvoiceTypeOrder         InvoiceType = "order"
	InvoiceTypeWalletDeposit InvoiceType = "wallet_deposit"
)

// InvoiceMetadata carries per-type extras; for wallet top-ups it holds
// the deposit amount to credit.
type InvoiceMetadata struct {
	DepositAmount int64  `json:"amount,omitempty"`
	Note          string `json:"note,omitempty"`
}

type Invoice struct {
	ID        string                                 `gorm:"column:id;primary_key;type:uuid" json:"id"`
	OrderID   *string                                `gorm:"column:order_id;type:varchar(64);index" json:"order_id"`
	UserID    string                                 `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Type      InvoiceType                            `gorm:"column:invoice_type;type:varchar(32);not null;default:'order'" json:"invoice_type"`
	Status    InvoiceStatus                          `gorm:"column:status;type:varchar(32);not null;default:'draft'" json:"status"`
	Amount    int64                                  `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Metadata  datatypes.JSONType[*InvoiceMetadata]   `gorm:"column:metadata;type:jsonb;default:'{}'" json:"metadata"`
	PaidAt    *time.Time                             `gorm:"column:paid_at;default:null" json:"paid_at"`
	CreatedAt time.Time                              `json:"created_at"`
	UpdatedAt time.Time                              `json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

func (i *Invoice) IsWalletDeposit() bool {
	return i != nil && i.Type == InvoiceTypeWalletDeposit
}

// DepositAmount returns the wallet top-up amount, falling back to the
// invoice amount when the metadata omits it.
func (i *Invoice) DepositAmount() int64 {
	if i == nil {
		return 0
	}
	if m := i.Metadata.Data(); m != nil && m.DepositAmount > 0 {
		return m.DepositAmount
	}
	return i.Amount
}
