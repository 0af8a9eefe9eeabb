// Package domain 定义订单聚合、金额计算与仓储接口
package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentCash          PaymentMethod = "cash"
	PaymentCard          PaymentMethod = "card"
	PaymentDigitalWallet PaymentMethod = "digital_wallet"
)

// Valid 判断支付方式是否合法
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentDigitalWallet:
		return true
	}
	return false
}

// PaymentStatus 支付状态
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// taxRate 销售税率 8%
var taxRate = decimal.New(8, -2)

// OrderItem 订单行项目，金额为下单时的快照（单位：分）
type OrderItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	TotalPrice  int64  `json:"total_price"`
}

// Order 订单聚合根；创建后除支付字段外不可变
type Order struct {
	OrderID       string        `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	Items         []OrderItem   `json:"items"`
	CustomerID    string        `json:"customer_id,omitempty"`
	CustomerName  string        `json:"customer_name,omitempty"`
	Subtotal      int64         `json:"subtotal"`
	Tax           int64         `json:"tax"`
	Discount      int64         `json:"discount"`
	Total         int64         `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentRef    string        `json:"payment_ref,omitempty"`
	CashierID     string        `json:"cashier_id"`
	CashierName   string        `json:"cashier_name"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewOrderNumber 生成订单号：ORD-<创建时刻>-<8 位大写十六进制>
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102150405"), suffix)
}

// ComputeTax 按 8% 计税并向下取整到分
func ComputeTax(subtotal int64) int64 {
	return decimal.NewFromInt(subtotal).Mul(taxRate).Floor().IntPart()
}

// ComputeTotals 计算小计、税额与应付总额
func ComputeTotals(items []OrderItem, discount int64) (subtotal, tax, total int64, err error) {
	for _, item := range items {
		subtotal += item.TotalPrice
	}
	tax = ComputeTax(subtotal)
	if discount < 0 || discount > subtotal+tax {
		return 0, 0, 0, apperr.New(apperr.KindValidation, "invalid_discount",
			"discount must be between zero and the order total")
	}
	total = subtotal + tax - discount
	return subtotal, tax, total, nil
}

// ListQuery 订单列表查询条件；时间范围仅在两端都给出时生效
type ListQuery struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
}

// OrderRepository 订单仓储接口
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	List(ctx context.Context, query ListQuery) ([]*Order, error)
	// UpdatePayment 更新支付状态与支付凭证，订单不存在时返回 false
	UpdatePayment(ctx context.Context, orderID string, status PaymentStatus, paymentRef string) (bool, error)
}
