// Package application 实现会员档案的维护与查询
package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/wyfcoding/pointofsale/internal/customer/domain"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
	"github.com/wyfcoding/pointofsale/pkg/logger"
)

// CustomerCommand 会员创建/更新命令
type CustomerCommand struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CustomerService 会员应用服务
type CustomerService struct {
	repo domain.CustomerRepository
}

// NewCustomerService 构造函数
func NewCustomerService(repo domain.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

// CreateCustomer 创建会员；手机号冲突返回 conflict
func (s *CustomerService) CreateCustomer(ctx context.Context, cmd CustomerCommand) (*domain.Customer, error) {
	if cmd.Name == "" {
		return nil, apperr.New(apperr.KindValidation, "missing_field", "name is required")
	}

	if cmd.Phone != "" {
		existing, err := s.repo.GetByPhone(ctx, cmd.Phone)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.New(apperr.KindConflict, "phone_exists", "phone number already registered")
		}
	}

	customer := &domain.Customer{
		CustomerID: uuid.New().String(),
		Name:       cmd.Name,
		Email:      cmd.Email,
		Phone:      cmd.Phone,
		Address:    cmd.Address,
	}

	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Customer created", "customer_id", customer.CustomerID)
	return customer, nil
}

// UpdateCustomer 更新会员档案
func (s *CustomerService) UpdateCustomer(ctx context.Context, customerID string, cmd CustomerCommand) (*domain.Customer, error) {
	if cmd.Name == "" {
		return nil, apperr.New(apperr.KindValidation, "missing_field", "name is required")
	}

	current, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.New(apperr.KindNotFound, "customer_not_found", "customer not found")
	}

	if cmd.Phone != "" && cmd.Phone != current.Phone {
		other, err := s.repo.GetByPhone(ctx, cmd.Phone)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, apperr.New(apperr.KindConflict, "phone_exists", "phone number already registered")
		}
	}

	current.Name = cmd.Name
	current.Email = cmd.Email
	current.Phone = cmd.Phone
	current.Address = cmd.Address

	matched, err := s.repo.Update(ctx, current)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, apperr.New(apperr.KindNotFound, "customer_not_found", "customer not found")
	}

	return s.repo.GetByID(ctx, customerID)
}

// GetCustomer 按 ID 获取会员
func (s *CustomerService) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	customer, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, apperr.New(apperr.KindNotFound, "customer_not_found", "customer not found")
	}
	return customer, nil
}

// ListCustomers 列出会员，支持姓名/邮箱/手机号子串搜索
func (s *CustomerService) ListCustomers(ctx context.Context, search string) ([]*domain.Customer, error) {
	return s.repo.List(ctx, search)
}
