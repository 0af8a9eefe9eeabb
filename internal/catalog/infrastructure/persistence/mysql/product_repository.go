package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/pointofsale/internal/catalog/domain"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"gorm.io/gorm"
)

// ProductModel 商品的 GORM 模型
type ProductModel struct {
	gorm.Model
	ProductID     string `gorm:"type:varchar(36);uniqueIndex;not null"`
	Name          string `gorm:"type:varchar(255);not null;index"`
	Description   string `gorm:"type:text"`
	Price         int64  `gorm:"not null"`
	Category      string `gorm:"type:varchar(100);not null;index"`
	SKU           string `gorm:"type:varchar(100);uniqueIndex;not null"`
	Barcode       string `gorm:"type:varchar(100);index"`
	StockQuantity int64  `gorm:"not null;default:0"`
	MinStockLevel int64  `gorm:"not null;default:5"`
	CostPrice     int64  `gorm:"not null;default:0"`
	IsActive      bool   `gorm:"not null;default:true;index"`
}

// TableName 指定表名
func (ProductModel) TableName() string {
	return "products"
}

type productRepositoryImpl struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储实例
func NewProductRepository(database *gorm.DB) domain.ProductRepository {
	return &productRepositoryImpl{db: database}
}

func (r *productRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *productRepositoryImpl) Save(ctx context.Context, product *domain.Product) error {
	model := toModel(product)
	if err := r.conn(ctx).Create(model).Error; err != nil {
		return err
	}
	product.CreatedAt = model.CreatedAt
	product.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *productRepositoryImpl) Update(ctx context.Context, product *domain.Product) (bool, error) {
	result := r.conn(ctx).Model(&ProductModel{}).
		Where("product_id = ?", product.ProductID).
		Updates(map[string]any{
			"name":            product.Name,
			"description":     product.Description,
			"price":           product.Price,
			"category":        product.Category,
			"sku":             product.SKU,
			"barcode":         product.Barcode,
			"stock_quantity":  product.StockQuantity,
			"min_stock_level": product.MinStockLevel,
			"cost_price":      product.CostPrice,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *productRepositoryImpl) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	var model ProductModel
	err := r.conn(ctx).Where("product_id = ?", productID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&model), nil
}

func (r *productRepositoryImpl) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	var model ProductModel
	err := r.conn(ctx).Where("sku = ?", sku).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&model), nil
}

func (r *productRepositoryImpl) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, error) {
	query := r.conn(ctx).Where("is_active = ?", true)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(sku) LIKE LOWER(?) OR LOWER(barcode) LIKE LOWER(?)",
			pattern, pattern, pattern)
	}

	var models []ProductModel
	if err := query.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainList(models), nil
}

func (r *productRepositoryImpl) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.conn(ctx).Model(&ProductModel{}).
		Where("is_active = ?", true).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *productRepositoryImpl) LowStock(ctx context.Context) ([]*domain.Product, error) {
	var models []ProductModel
	err := r.conn(ctx).
		Where("is_active = ? AND stock_quantity <= min_stock_level", true).
		Order("stock_quantity ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(models), nil
}

// DecrementStock 条件扣减库存，库存不足时不更新任何行
func (r *productRepositoryImpl) DecrementStock(ctx context.Context, productID string, quantity int64) (bool, error) {
	result := r.conn(ctx).Model(&ProductModel{}).
		Where("product_id = ? AND stock_quantity >= ?", productID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AdjustStock 按增量调整库存，调整后为负时不更新任何行
func (r *productRepositoryImpl) AdjustStock(ctx context.Context, productID string, delta int64) (bool, error) {
	result := r.conn(ctx).Model(&ProductModel{}).
		Where("product_id = ? AND stock_quantity + ? >= 0", productID, delta).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *productRepositoryImpl) Deactivate(ctx context.Context, productID string) (bool, error) {
	result := r.conn(ctx).Model(&ProductModel{}).
		Where("product_id = ? AND is_active = ?", productID, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func toModel(p *domain.Product) *ProductModel {
	return &ProductModel{
		ProductID:     p.ProductID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		Category:      p.Category,
		SKU:           p.SKU,
		Barcode:       p.Barcode,
		StockQuantity: p.StockQuantity,
		MinStockLevel: p.MinStockLevel,
		CostPrice:     p.CostPrice,
		IsActive:      p.IsActive,
	}
}

func toDomain(m *ProductModel) *domain.Product {
	return &domain.Product{
		ProductID:     m.ProductID,
		Name:          m.Name,
		Description:   m.Description,
		Price:         m.Price,
		Category:      m.Category,
		SKU:           m.SKU,
		Barcode:       m.Barcode,
		StockQuantity: m.StockQuantity,
		MinStockLevel: m.MinStockLevel,
		CostPrice:     m.CostPrice,
		IsActive:      m.IsActive,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toDomainList(models []ProductModel) []*domain.Product {
	products := make([]*domain.Product, 0, len(models))
	for i := range models {
		products = append(products, toDomain(&models[i]))
	}
	return products
}
