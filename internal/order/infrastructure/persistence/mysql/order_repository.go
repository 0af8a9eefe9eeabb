package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/pointofsale/internal/order/domain"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"gorm.io/gorm"
)

// OrderModel 订单主表的 GORM 模型
type OrderModel struct {
	ID            uint   `gorm:"primarykey"`
	OrderID       string `gorm:"type:varchar(36);uniqueIndex;not null"`
	OrderNumber   string `gorm:"type:varchar(32);index;not null"`
	CustomerID    string `gorm:"type:varchar(36);index"`
	CustomerName  string `gorm:"type:varchar(255)"`
	Subtotal      int64  `gorm:"not null"`
	Tax           int64  `gorm:"not null"`
	Discount      int64  `gorm:"not null;default:0"`
	Total         int64  `gorm:"not null"`
	PaymentMethod string `gorm:"type:varchar(20);not null"`
	PaymentStatus string `gorm:"type:varchar(20);not null;index"`
	PaymentRef    string `gorm:"type:varchar(64)"`
	CashierID     string `gorm:"type:varchar(36);not null"`
	CashierName   string `gorm:"type:varchar(255)"`
	Notes         string `gorm:"type:text"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []OrderItemModel `gorm:"foreignKey:OrderID;references:OrderID"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 订单行项目表
type OrderItemModel struct {
	ID          uint   `gorm:"primarykey"`
	OrderID     string `gorm:"type:varchar(36);not null;index"`
	ProductID   string `gorm:"type:varchar(36);not null;index"`
	ProductName string `gorm:"type:varchar(255);not null"`
	Quantity    int64  `gorm:"not null"`
	UnitPrice   int64  `gorm:"not null"`
	TotalPrice  int64  `gorm:"not null"`
}

// TableName 指定表名
func (OrderItemModel) TableName() string {
	return "order_items"
}

type orderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(database *gorm.DB) domain.OrderRepository {
	return &orderRepositoryImpl{db: database}
}

func (r *orderRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *orderRepositoryImpl) Save(ctx context.Context, order *domain.Order) error {
	model := toModel(order)
	if err := r.conn(ctx).Create(model).Error; err != nil {
		return err
	}
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *orderRepositoryImpl) GetByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var model OrderModel
	err := r.conn(ctx).Preload("Items").Where("order_id = ?", orderID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&model), nil
}

func (r *orderRepositoryImpl) List(ctx context.Context, query domain.ListQuery) ([]*domain.Order, error) {
	q := r.conn(ctx).Preload("Items").Order("created_at DESC")
	if query.DateFrom != nil && query.DateTo != nil {
		q = q.Where("created_at BETWEEN ? AND ?", *query.DateFrom, *query.DateTo)
	}
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	var models []OrderModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, toDomain(&models[i]))
	}
	return orders, nil
}

func (r *orderRepositoryImpl) UpdatePayment(ctx context.Context, orderID string, status domain.PaymentStatus, paymentRef string) (bool, error) {
	result := r.conn(ctx).Model(&OrderModel{}).
		Where("order_id = ?", orderID).
		Updates(map[string]any{
			"payment_status": string(status),
			"payment_ref":    paymentRef,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func toModel(o *domain.Order) *OrderModel {
	items := make([]OrderItemModel, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemModel{
			OrderID:     o.OrderID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return &OrderModel{
		OrderID:       o.OrderID,
		OrderNumber:   o.OrderNumber,
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		Subtotal:      o.Subtotal,
		Tax:           o.Tax,
		Discount:      o.Discount,
		Total:         o.Total,
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		PaymentRef:    o.PaymentRef,
		CashierID:     o.CashierID,
		CashierName:   o.CashierName,
		Notes:         o.Notes,
		Items:         items,
	}
}

func toDomain(m *OrderModel) *domain.Order {
	items := make([]domain.OrderItem, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, domain.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		})
	}
	return &domain.Order{
		OrderID:       m.OrderID,
		OrderNumber:   m.OrderNumber,
		Items:         items,
		CustomerID:    m.CustomerID,
		CustomerName:  m.CustomerName,
		Subtotal:      m.Subtotal,
		Tax:           m.Tax,
		Discount:      m.Discount,
		Total:         m.Total,
		PaymentMethod: domain.PaymentMethod(m.PaymentMethod),
		PaymentStatus: domain.PaymentStatus(m.PaymentStatus),
		PaymentRef:    m.PaymentRef,
		CashierID:     m.CashierID,
		CashierName:   m.CashierName,
		Notes:         m.Notes,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
