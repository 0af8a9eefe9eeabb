package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/pointofsale/internal/customer/domain"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"gorm.io/gorm"
)

// CustomerModel 会员的 GORM 模型
type CustomerModel struct {
	gorm.Model
	CustomerID    string `gorm:"type:varchar(36);uniqueIndex;not null"`
	Name          string `gorm:"type:varchar(255);not null;index"`
	Email         string `gorm:"type:varchar(255)"`
	Phone         string `gorm:"type:varchar(32);index"`
	Address       string `gorm:"type:varchar(255)"`
	LoyaltyPoints int64  `gorm:"not null;default:0"`
	TotalSpent    int64  `gorm:"not null;default:0"`
}

// TableName 指定表名
func (CustomerModel) TableName() string {
	return "customers"
}

type customerRepositoryImpl struct {
	db *gorm.DB
}

// NewCustomerRepository 创建会员仓储实例
func NewCustomerRepository(database *gorm.DB) domain.CustomerRepository {
	return &customerRepositoryImpl{db: database}
}

func (r *customerRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db).WithContext(ctx)
}

func (r *customerRepositoryImpl) Save(ctx context.Context, customer *domain.Customer) error {
	model := toModel(customer)
	if err := r.conn(ctx).Create(model).Error; err != nil {
		return err
	}
	customer.CreatedAt = model.CreatedAt
	customer.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *customerRepositoryImpl) Update(ctx context.Context, customer *domain.Customer) (bool, error) {
	result := r.conn(ctx).Model(&CustomerModel{}).
		Where("customer_id = ?", customer.CustomerID).
		Updates(map[string]any{
			"name":    customer.Name,
			"email":   customer.Email,
			"phone":   customer.Phone,
			"address": customer.Address,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *customerRepositoryImpl) GetByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	var model CustomerModel
	err := r.conn(ctx).Where("customer_id = ?", customerID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&model), nil
}

func (r *customerRepositoryImpl) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	var model CustomerModel
	err := r.conn(ctx).Where("phone = ?", phone).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&model), nil
}

func (r *customerRepositoryImpl) List(ctx context.Context, search string) ([]*domain.Customer, error) {
	query := r.conn(ctx).Model(&CustomerModel{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?) OR phone LIKE ?", pattern, pattern, pattern)
	}

	var models []CustomerModel
	if err := query.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	customers := make([]*domain.Customer, 0, len(models))
	for i := range models {
		customers = append(customers, toDomain(&models[i]))
	}
	return customers, nil
}

// IncrementSpendAndPoints 单条 UPDATE 原子累计，配合事务用于支付结算
func (r *customerRepositoryImpl) IncrementSpendAndPoints(ctx context.Context, customerID string, amount, points int64) (bool, error) {
	result := r.conn(ctx).Model(&CustomerModel{}).
		Where("customer_id = ?", customerID).
		Updates(map[string]any{
			"total_spent":    gorm.Expr("total_spent + ?", amount),
			"loyalty_points": gorm.Expr("loyalty_points + ?", points),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func toModel(c *domain.Customer) *CustomerModel {
	return &CustomerModel{
		CustomerID:    c.CustomerID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		LoyaltyPoints: c.LoyaltyPoints,
		TotalSpent:    c.TotalSpent,
	}
}

func toDomain(m *CustomerModel) *domain.Customer {
	return &domain.Customer{
		CustomerID:    m.CustomerID,
		Name:          m.Name,
		Email:         m.Email,
		Phone:         m.Phone,
		Address:       m.Address,
		LoyaltyPoints: m.LoyaltyPoints,
		TotalSpent:    m.TotalSpent,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
