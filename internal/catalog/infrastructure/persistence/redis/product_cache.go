// Package redis 为商品仓储提供旁路缓存装饰器
package redis

import (
	"context"
	"time"

	"github.com/wyfcoding/pointofsale/internal/catalog/domain"
	"github.com/wyfcoding/pointofsale/pkg/cache"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"github.com/wyfcoding/pointofsale/pkg/logger"
)

const (
	productKeyPrefix = "pos:product:"
	productCacheTTL  = 5 * time.Minute
)

// CachedProductRepository 读穿透缓存，写操作直达底层仓储并使缓存失效
type CachedProductRepository struct {
	inner domain.ProductRepository
	cache *cache.RedisCache
}

// NewCachedProductRepository 构造函数
func NewCachedProductRepository(inner domain.ProductRepository, c *cache.RedisCache) domain.ProductRepository {
	return &CachedProductRepository{inner: inner, cache: c}
}

func productKey(productID string) string {
	return productKeyPrefix + productID
}

func (r *CachedProductRepository) GetByID(ctx context.Context, productID string) (*domain.Product, error) {
	// 事务内绕过缓存：读要看到事务内的修改，且未提交数据不能进缓存
	if db.InTx(ctx) {
		return r.inner.GetByID(ctx, productID)
	}

	var cached domain.Product
	hit, err := r.cache.GetJSON(ctx, productKey(productID), &cached)
	if err != nil {
		// 缓存故障降级为直接读库
		logger.Warn(ctx, "Product cache read failed", "product_id", productID, "error", err)
	} else if hit {
		return &cached, nil
	}

	product, err := r.inner.GetByID(ctx, productID)
	if err != nil || product == nil {
		return product, err
	}

	if err := r.cache.SetJSON(ctx, productKey(productID), product, productCacheTTL); err != nil {
		logger.Warn(ctx, "Product cache write failed", "product_id", productID, "error", err)
	}
	return product, nil
}

func (r *CachedProductRepository) Save(ctx context.Context, product *domain.Product) error {
	return r.inner.Save(ctx, product)
}

func (r *CachedProductRepository) Update(ctx context.Context, product *domain.Product) (bool, error) {
	matched, err := r.inner.Update(ctx, product)
	if err == nil && matched {
		r.invalidate(ctx, product.ProductID)
	}
	return matched, err
}

func (r *CachedProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return r.inner.GetBySKU(ctx, sku)
}

func (r *CachedProductRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, error) {
	return r.inner.List(ctx, filter)
}

func (r *CachedProductRepository) Categories(ctx context.Context) ([]string, error) {
	return r.inner.Categories(ctx)
}

func (r *CachedProductRepository) LowStock(ctx context.Context) ([]*domain.Product, error) {
	return r.inner.LowStock(ctx)
}

func (r *CachedProductRepository) DecrementStock(ctx context.Context, productID string, quantity int64) (bool, error) {
	matched, err := r.inner.DecrementStock(ctx, productID, quantity)
	if err == nil && matched {
		r.invalidate(ctx, productID)
	}
	return matched, err
}

func (r *CachedProductRepository) AdjustStock(ctx context.Context, productID string, delta int64) (bool, error) {
	matched, err := r.inner.AdjustStock(ctx, productID, delta)
	if err == nil && matched {
		r.invalidate(ctx, productID)
	}
	return matched, err
}

func (r *CachedProductRepository) Deactivate(ctx context.Context, productID string) (bool, error) {
	matched, err := r.inner.Deactivate(ctx, productID)
	if err == nil && matched {
		r.invalidate(ctx, productID)
	}
	return matched, err
}

// invalidate 在事务提交后删除缓存键，避免并发读把未提交前的旧值重新写回缓存
func (r *CachedProductRepository) invalidate(ctx context.Context, productID string) {
	db.AfterCommit(ctx, func(ctx context.Context) {
		if err := r.cache.Delete(ctx, productKey(productID)); err != nil {
			logger.Warn(ctx, "Product cache invalidation failed", "product_id", productID, "error", err)
		}
	})
}
