// Package application 实现商品目录的增删改查与低库存查询
package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/wyfcoding/pointofsale/internal/catalog/domain"
	inventorydomain "github.com/wyfcoding/pointofsale/internal/inventory/domain"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"github.com/wyfcoding/pointofsale/pkg/logger"
	"github.com/wyfcoding/pointofsale/pkg/metrics"
)

// CreateProductCommand 创建/更新商品命令
type CreateProductCommand struct {
	Name          string
	Description   string
	Price         int64
	Category      string
	SKU           string
	Barcode       string
	StockQuantity int64
	MinStockLevel int64
	CostPrice     int64
	// 操作人，用于库存修正流水
	ActorID string
}

// CatalogService 商品目录应用服务
type CatalogService struct {
	repo      domain.ProductRepository
	movements inventorydomain.MovementRepository
	tx        db.TxManager
	metrics   *metrics.Metrics
}

// NewCatalogService 构造函数
func NewCatalogService(
	repo domain.ProductRepository,
	movements inventorydomain.MovementRepository,
	tx db.TxManager,
	m *metrics.Metrics,
) *CatalogService {
	return &CatalogService{repo: repo, movements: movements, tx: tx, metrics: m}
}

func (c CreateProductCommand) validate() error {
	if c.Name == "" || c.SKU == "" || c.Category == "" {
		return apperr.New(apperr.KindValidation, "missing_field", "name, sku and category are required")
	}
	if c.Price < 0 {
		return apperr.New(apperr.KindValidation, "invalid_price", "price must be non-negative")
	}
	if c.StockQuantity < 0 {
		return apperr.New(apperr.KindValidation, "invalid_stock", "stock_quantity must be non-negative")
	}
	if c.CostPrice < 0 {
		return apperr.New(apperr.KindValidation, "invalid_cost_price", "cost_price must be non-negative")
	}
	return nil
}

// CreateProduct 创建商品；SKU 冲突返回 conflict
func (s *CatalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetBySKU(ctx, cmd.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.New(apperr.KindConflict, "sku_exists", "SKU already exists")
	}

	minLevel := cmd.MinStockLevel
	if minLevel <= 0 {
		minLevel = 5
	}

	product := &domain.Product{
		ProductID:     uuid.New().String(),
		Name:          cmd.Name,
		Description:   cmd.Description,
		Price:         cmd.Price,
		Category:      cmd.Category,
		SKU:           cmd.SKU,
		Barcode:       cmd.Barcode,
		StockQuantity: cmd.StockQuantity,
		MinStockLevel: minLevel,
		CostPrice:     cmd.CostPrice,
		IsActive:      true,
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Product created", "product_id", product.ProductID, "sku", product.SKU)
	return product, nil
}

// UpdateProduct 更新商品；商品不存在返回 not_found
func (s *CatalogService) UpdateProduct(ctx context.Context, productID string, cmd CreateProductCommand) (*domain.Product, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.New(apperr.KindNotFound, "product_not_found", "product not found")
	}

	// SKU 变更时仍需保持唯一
	if cmd.SKU != current.SKU {
		other, err := s.repo.GetBySKU(ctx, cmd.SKU)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, apperr.New(apperr.KindConflict, "sku_exists", "SKU already exists")
		}
	}

	minLevel := cmd.MinStockLevel
	if minLevel <= 0 {
		minLevel = 5
	}

	stockDelta := cmd.StockQuantity - current.StockQuantity

	current.Name = cmd.Name
	current.Description = cmd.Description
	current.Price = cmd.Price
	current.Category = cmd.Category
	current.SKU = cmd.SKU
	current.Barcode = cmd.Barcode
	current.StockQuantity = cmd.StockQuantity
	current.MinStockLevel = minLevel
	current.CostPrice = cmd.CostPrice

	// 库存改写必须连同修正流水一起落库，保持账实一致
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		matched, err := s.repo.Update(ctx, current)
		if err != nil {
			return err
		}
		if !matched {
			return apperr.New(apperr.KindNotFound, "product_not_found", "product not found")
		}

		if stockDelta == 0 {
			return nil
		}
		movement := &inventorydomain.Movement{
			MovementID: uuid.New().String(),
			ProductID:  productID,
			Type:       inventorydomain.MovementAdjustment,
			Quantity:   stockDelta,
			Notes:      "manual stock correction",
			UserID:     cmd.ActorID,
		}
		if err := movement.Validate(); err != nil {
			return err
		}
		return s.movements.Append(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, productID)
}

// DeactivateProduct 下架商品
func (s *CatalogService) DeactivateProduct(ctx context.Context, productID string) error {
	matched, err := s.repo.Deactivate(ctx, productID)
	if err != nil {
		return err
	}
	if !matched {
		return apperr.New(apperr.KindNotFound, "product_not_found", "product not found")
	}
	logger.Info(ctx, "Product deactivated", "product_id", productID)
	return nil
}

// GetProduct 按 ID 获取商品
func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperr.New(apperr.KindNotFound, "product_not_found", "product not found")
	}
	return product, nil
}

// ListProducts 列出在售商品，支持品类过滤与子串搜索
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, error) {
	return s.repo.List(ctx, filter)
}

// Categories 列出全部品类
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

// LowStockProducts 列出低库存商品
func (s *CatalogService) LowStockProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.LowStockProducts.Set(float64(len(products)))
	}
	return products, nil
}
