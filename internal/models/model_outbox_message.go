package models

import "time"

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "pending"
	OutboxStatusSent    OutboxStatus = "sent"
	OutboxStatusFailed  OutboxStatus = "failed"
)

// OutboxMessage is a customer-notification event written in the same
// transaction as the state change it announces. A background sender
// drains pending rows to Kafka; the email worker consumes them there.
type OutboxMessage struct {
	ID         string       `gorm:"column:id;primary_key;type:uuid" json:"id"`
	Topic      string       `gorm:"column:topic;type:varchar(128);not null" json:"topic"`
	MessageKey string       `gorm:"column:message_key;type:varchar(128);not null" json:"message_key"`
	Payload    string       `gorm:"column:payload;type:text;not null" json:"payload"`
	Status     OutboxStatus `gorm:"column:status;type:varchar(16);not null;default:'pending';index" json:"status"`
	RetryCount int          `gorm:"column:retry_count;not null;default:0" json:"retry_count"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (OutboxMessage) TableName() string { return "outbox_messages" }
