// Package application 提供库存流水的追加与查询
package application

import (
	"context"

	"github.com/google/uuid"
	catalogdomain "github.com/wyfcoding/pointofsale/internal/catalog/domain"
	"github.com/wyfcoding/pointofsale/internal/inventory/domain"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"github.com/wyfcoding/pointofsale/pkg/logger"
	"github.com/wyfcoding/pointofsale/pkg/metrics"
)

const defaultListLimit = 100

// AppendMovementCommand 追加流水命令
type AppendMovementCommand struct {
	ProductID   string
	Type        domain.MovementType
	Quantity    int64
	ReferenceID string
	Notes       string
	UserID      string
}

// InventoryService 库存流水应用服务
type InventoryService struct {
	repo     domain.MovementRepository
	products catalogdomain.ProductRepository
	tx       db.TxManager
	metrics  *metrics.Metrics
}

// NewInventoryService 构造函数
func NewInventoryService(
	repo domain.MovementRepository,
	products catalogdomain.ProductRepository,
	tx db.TxManager,
	m *metrics.Metrics,
) *InventoryService {
	return &InventoryService{repo: repo, products: products, tx: tx, metrics: m}
}

// AppendMovement 追加一条流水并在同一事务内把增量应用到商品库存，
// 保证流水与库存数始终一致。符号约定不符返回 validation 错误，
// 扣减超出现有库存返回 conflict
func (s *InventoryService) AppendMovement(ctx context.Context, cmd AppendMovementCommand) (*domain.Movement, error) {
	movement := &domain.Movement{
		MovementID:  uuid.New().String(),
		ProductID:   cmd.ProductID,
		Type:        cmd.Type,
		Quantity:    cmd.Quantity,
		ReferenceID: cmd.ReferenceID,
		Notes:       cmd.Notes,
		UserID:      cmd.UserID,
	}
	if err := movement.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		product, err := s.products.GetByID(ctx, movement.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return apperr.New(apperr.KindNotFound, "product_not_found", "product not found")
		}

		if err := s.repo.Append(ctx, movement); err != nil {
			return err
		}

		adjusted, err := s.products.AdjustStock(ctx, movement.ProductID, movement.Quantity)
		if err != nil {
			return err
		}
		if !adjusted {
			return apperr.Newf(apperr.KindConflict, "insufficient_stock",
				"stock of product %s cannot go below zero", movement.ProductID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StockMovementsTotal.WithLabelValues(string(movement.Type)).Inc()
	}
	logger.Info(ctx, "Inventory movement appended",
		"movement_id", movement.MovementID,
		"product_id", movement.ProductID,
		"type", movement.Type,
		"quantity", movement.Quantity)
	return movement, nil
}

// ListMovements 查询流水，productID 为空时返回最近全量流水
func (s *InventoryService) ListMovements(ctx context.Context, productID string, limit int) ([]*domain.Movement, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	if productID == "" {
		return s.repo.ListRecent(ctx, limit)
	}
	return s.repo.ListByProduct(ctx, productID, limit)
}
