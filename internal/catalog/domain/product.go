// Package domain 包含商品目录的领域模型
package domain

import (
	"context"
	"time"
)

// Product 商品实体；价格与成本一律为最小货币单位（分）的整数
type Product struct {
	ProductID   string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// 售价（分），非负
	Price    int64  `json:"price"`
	Category string `json:"category"`
	// SKU 全局唯一
	SKU string `json:"sku"`
	// 条码可选，不保证唯一
	Barcode       string `json:"barcode,omitempty"`
	StockQuantity int64  `json:"stock_quantity"`
	MinStockLevel int64  `json:"min_stock_level"`
	// 成本价（分），可选；0 表示未录入
	CostPrice int64 `json:"cost_price,omitempty"`
	// 软删除标记；商品永不物理删除
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLowStock 判断是否处于低库存
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// ListFilter 商品列表过滤条件
type ListFilter struct {
	// 按品类过滤；为空则不过滤
	Category string
	// 名称/SKU/条码的大小写不敏感子串匹配；为空则不过滤
	Search string
}

// ProductRepository 商品仓储接口
type ProductRepository interface {
	// 保存新商品
	Save(ctx context.Context, product *Product) error
	// 更新商品字段
	Update(ctx context.Context, product *Product) (bool, error)
	// 按 ID 获取商品；不存在时返回 nil
	GetByID(ctx context.Context, productID string) (*Product, error)
	// 按 SKU 获取商品；不存在时返回 nil
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	// 列出在售商品
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	// 列出在售商品的全部品类
	Categories(ctx context.Context) ([]string, error)
	// 列出低库存在售商品（stock_quantity <= min_stock_level）
	LowStock(ctx context.Context) ([]*Product, error)
	// 条件扣减库存：库存充足时原子扣减并返回 true；不足时不改动并返回 false
	DecrementStock(ctx context.Context, productID string, quantity int64) (bool, error)
	// 按增量调整库存：delta 可正可负；调整后库存不为负时原子生效并返回 true，否则不改动并返回 false
	AdjustStock(ctx context.Context, productID string, delta int64) (bool, error)
	// 下架商品（软删除）
	Deactivate(ctx context.Context, productID string) (bool, error)
}
