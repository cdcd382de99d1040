package models

import (
	"time"

	"gorm.io/datatypes"
)

type CallbackLogStatus string

const (
	CallbackLogStatusReceived     CallbackLogStatus = "received"
	CallbackLogStatusHandled      CallbackLogStatus = "handled"
	CallbackLogStatusUnmatched    CallbackLogStatus = "unmatched"
	CallbackLogStatusHandleFailed CallbackLogStatus = "handle_failed"
)

// CallbackLog keeps every inbound provider callback, matched or not.
// Unmatched rows are the manual-review queue for callbacks that never
// resolved to a reference; they are not replayed automatically.
type CallbackLog struct {
	ID            string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Provider      string            `gorm:"column:provider;type:varchar(32);not null" json:"provider"`
	TraceID       string            `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	Reference     string            `gorm:"column:reference;type:varchar(64);index" json:"reference"`
	TransactionID string            `gorm:"column:transaction_id;type:varchar(128)" json:"transaction_id"`
	Payload       datatypes.JSON    `gorm:"column:payload;type:jsonb" json:"payload"`
	Result        *datatypes.JSON   `gorm:"column:result;type:jsonb" json:"result"`
	Status        CallbackLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (CallbackLog) TableName() string { return "callback_log" }
