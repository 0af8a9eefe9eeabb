// Package domain 定义库存流水实体与仓储接口
package domain

import (
	"context"
	"time"

	"github.com/wyfcoding/pointofsale/pkg/apperr"
)

// MovementType 库存变动类型
type MovementType string

const (
	MovementSale       MovementType = "sale"       // 销售出库
	MovementPurchase   MovementType = "purchase"   // 采购入库
	MovementAdjustment MovementType = "adjustment" // 人工调整
	MovementReturn     MovementType = "return"     // 退货入库
)

// Valid 判断变动类型是否合法
func (t MovementType) Valid() bool {
	switch t {
	case MovementSale, MovementPurchase, MovementAdjustment, MovementReturn:
		return true
	}
	return false
}

// Movement 库存流水记录，只追加不修改；Quantity 为带符号增量
type Movement struct {
	MovementID  string       `json:"movement_id"`
	ProductID   string       `json:"product_id"`
	Type        MovementType `json:"movement_type"`
	Quantity    int64        `json:"quantity"`
	ReferenceID string       `json:"reference_id,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	UserID      string       `json:"user_id"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Validate 校验符号约定：销售为负、采购与退货为正、调整非零
func (m *Movement) Validate() error {
	if m.ProductID == "" {
		return apperr.New(apperr.KindValidation, "missing_field", "product_id is required")
	}
	if !m.Type.Valid() {
		return apperr.Newf(apperr.KindValidation, "invalid_movement_type", "unknown movement type %q", m.Type)
	}

	switch m.Type {
	case MovementSale:
		if m.Quantity >= 0 {
			return apperr.New(apperr.KindValidation, "invalid_quantity", "sale movements must have a negative quantity")
		}
	case MovementPurchase, MovementReturn:
		if m.Quantity <= 0 {
			return apperr.Newf(apperr.KindValidation, "invalid_quantity", "%s movements must have a positive quantity", m.Type)
		}
	case MovementAdjustment:
		if m.Quantity == 0 {
			return apperr.New(apperr.KindValidation, "invalid_quantity", "adjustment movements must have a nonzero quantity")
		}
	}
	return nil
}

// MovementRepository 流水仓储接口；刻意不提供更新或删除方法
type MovementRepository interface {
	Append(ctx context.Context, movement *Movement) error
	ListByProduct(ctx context.Context, productID string, limit int) ([]*Movement, error)
	ListRecent(ctx context.Context, limit int) ([]*Movement, error)
}
