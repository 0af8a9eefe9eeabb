package domain

import "time"

// 事件类型常量，用作 Kafka 消息键
const (
	EventOrderCreated     = "pos.order.created"
	EventPaymentCompleted = "pos.payment.completed"
)

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  string    `json:"customer_id,omitempty"`
	CashierID   string    `json:"cashier_id"`
	Total       int64     `json:"total"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentCompletedEvent 支付完成事件
type PaymentCompletedEvent struct {
	PaymentID  string    `json:"payment_id"`
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	Method     string    `json:"method"`
	Amount     int64     `json:"amount"`
	ChangeDue  int64     `json:"change_due,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
