// Package domain 定义支付结果与支付凭证
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Result 支付结算结果
type Result struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	OrderID   string `json:"order_id"`
	ChangeDue *int64 `json:"change_due,omitempty"`
}

// NewPaymentRef 生成支付凭证：pay_ 前缀加 8 位十六进制
func NewPaymentRef() string {
	return "pay_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
