package models

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order is created at checkout by the storefront; this service only
// flips its status on payment confirmation or cancellation.
type Order struct {
	ID          string      `gorm:"column:id;primary_key;type:varchar(64)" json:"id"`
	UserID      string      `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	TotalAmount int64       `gorm:"column:total_amount;type:bigint;not null" json:"total_amount"`
	Status      OrderStatus `gorm:"column:status;type:varchar(32);not null;default:'pending'" json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) IsFinal() bool {
	return o != nil && (o.Status == OrderStatusPaid || o.Status == OrderStatusCancelled)
}
