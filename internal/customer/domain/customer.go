// Package domain 定义会员实体与仓储接口
package domain

import (
	"context"
	"time"
)

// Customer 会员实体，TotalSpent 以分为单位累计
type Customer struct {
	CustomerID    string    `json:"customer_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address,omitempty"`
	LoyaltyPoints int64     `json:"loyalty_points"`
	TotalSpent    int64     `json:"total_spent"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LoyaltyPoints 按成交金额换算积分，每满 100 分（1 元）积 1 点
func LoyaltyPoints(amount int64) int64 {
	return amount / 100
}

// CustomerRepository 会员仓储接口
type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error
	Update(ctx context.Context, customer *Customer) (bool, error)
	GetByID(ctx context.Context, customerID string) (*Customer, error)
	GetByPhone(ctx context.Context, phone string) (*Customer, error)
	List(ctx context.Context, search string) ([]*Customer, error)
	// IncrementSpendAndPoints 原子累计消费额与积分，会员不存在时返回 false
	IncrementSpendAndPoints(ctx context.Context, customerID string, amount, points int64) (bool, error)
}
