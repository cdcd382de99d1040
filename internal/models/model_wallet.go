package models

import "time"

// Wallet balances are in minor units and only ever credited by this
// service; debits happen at checkout in the storefront.
type Wallet struct {
	ID        string    `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	Balance   int64     `gorm:"column:balance;type:bigint;not null;default:0" json:"balance"`
	Currency  string    `gorm:"column:currency;type:varchar(8);not null;default:'AOA'" json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

type WalletTransactionType string

const (
	WalletTransactionTypeCredit WalletTransactionType = "credit"
	WalletTransactionTypeDebit  WalletTransactionType = "debit"
)

type WalletTransactionStatus string

const (
	WalletTransactionStatusCompleted WalletTransactionStatus = "completed"
	WalletTransactionStatusReversed  WalletTransactionStatus = "reversed"
)

// WalletTransaction is the append-only ledger row written alongside each
// balance mutation. BalanceAfter is computed under the wallet row lock.
type WalletTransaction struct {
	ID           string                  `gorm:"column:id;primary_key;type:uuid" json:"id"`
	WalletID     string                  `gorm:"column:wallet_id;type:uuid;not null;index" json:"wallet_id"`
	Amount       int64                   `gorm:"column:amount;type:bigint;not null" json:"amount"`
	BalanceAfter int64                   `gorm:"column:balance_after;type:bigint;not null" json:"balance_after"`
	Type         WalletTransactionType   `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Category     string                  `gorm:"column:category;type:varchar(32);not null" json:"category"`
	ReferenceID  string                  `gorm:"column:reference_id;type:varchar(64);index" json:"reference_id"`
	Status       WalletTransactionStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	CreatedAt    time.Time               `json:"created_at"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }
