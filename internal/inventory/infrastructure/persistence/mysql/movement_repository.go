package mysql

import (
	"context"
	"time"

	"github.com/wyfcoding/pointofsale/internal/inventory/domain"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"gorm.io/gorm"
)

// MovementModel 库存流水的 GORM 模型；表只追加，无软删除
type MovementModel struct {
	ID           uint      `gorm:"primarykey"`
	MovementID   string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	ProductID    string    `gorm:"type:varchar(36);not null;index"`
	MovementType string    `gorm:"type:varchar(20);not null"`
	Quantity     int64     `gorm:"not null"`
	ReferenceID  string    `gorm:"type:varchar(36);index"`
	Notes        string    `gorm:"type:text"`
	UserID       string    `gorm:"type:varchar(36);not null"`
	CreatedAt    time.Time `gorm:"index"`
}

// TableName 指定表名
func (MovementModel) TableName() string {
	return "inventory_movements"
}

type movementRepositoryImpl struct {
	db *gorm.DB
}

// NewMovementRepository 创建流水仓储实例
func NewMovementRepository(database *gorm.DB) domain.MovementRepository {
	return &movementRepositoryImpl{db: database}
}

func (r *movementRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *movementRepositoryImpl) Append(ctx context.Context, movement *domain.Movement) error {
	model := &MovementModel{
		MovementID:   movement.MovementID,
		ProductID:    movement.ProductID,
		MovementType: string(movement.Type),
		Quantity:     movement.Quantity,
		ReferenceID:  movement.ReferenceID,
		Notes:        movement.Notes,
		UserID:       movement.UserID,
	}
	if err := r.conn(ctx).Create(model).Error; err != nil {
		return err
	}
	movement.CreatedAt = model.CreatedAt
	return nil
}

func (r *movementRepositoryImpl) ListByProduct(ctx context.Context, productID string, limit int) ([]*domain.Movement, error) {
	var models []MovementModel
	err := r.conn(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(models), nil
}

func (r *movementRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]*domain.Movement, error) {
	var models []MovementModel
	err := r.conn(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(models), nil
}

func toDomainList(models []MovementModel) []*domain.Movement {
	movements := make([]*domain.Movement, 0, len(models))
	for i := range models {
		m := &models[i]
		movements = append(movements, &domain.Movement{
			MovementID:  m.MovementID,
			ProductID:   m.ProductID,
			Type:        domain.MovementType(m.MovementType),
			Quantity:    m.Quantity,
			ReferenceID: m.ReferenceID,
			Notes:       m.Notes,
			UserID:      m.UserID,
			CreatedAt:   m.CreatedAt,
		})
	}
	return movements
}
