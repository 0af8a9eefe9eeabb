// Package mysql 提供账号仓储接口的 MySQL GORM 实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wyfcoding/pointofsale/internal/identity/domain"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"github.com/wyfcoding/pointofsale/pkg/logger"
)

// UserModel 账号数据库模型，直接映射 users 表
type UserModel struct {
	gorm.Model
	UserID     string `gorm:"column:user_id;type:varchar(36);uniqueIndex;not null"`
	Username   string `gorm:"column:username;type:varchar(64);uniqueIndex;not null"`
	PINHash    string `gorm:"column:pin_hash;type:char(64);not null"`
	Role       string `gorm:"column:role;type:varchar(16);not null"`
	FullName   string `gorm:"column:full_name;type:varchar(128);not null"`
	Email      string `gorm:"column:email;type:varchar(128)"`
	Phone      string `gorm:"column:phone;type:varchar(32)"`
	IsApproved bool   `gorm:"column:is_approved;not null;default:false"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

type userRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository 创建账号仓储实例
func NewUserRepository(gdb *gorm.DB) domain.UserRepository {
	return &userRepositoryImpl{db: gdb}
}

func (r *userRepositoryImpl) conn(ctx context.Context) *gorm.DB {
	return db.FromContext(ctx, r.db).WithContext(ctx)
}

// Save 实现 domain.UserRepository.Save
func (r *userRepositoryImpl) Save(ctx context.Context, user *domain.User) error {
	model := &UserModel{
		UserID:     user.UserID,
		Username:   user.Username,
		PINHash:    user.PINHash,
		Role:       string(user.Role),
		FullName:   user.FullName,
		Email:      user.Email,
		Phone:      user.Phone,
		IsApproved: user.IsApproved,
	}

	if err := r.conn(ctx).Create(model).Error; err != nil {
		logger.Error(ctx, "user_repository.save failed", "user_id", user.UserID, "error", err)
		return fmt.Errorf("failed to save user: %w", err)
	}

	user.CreatedAt = model.CreatedAt
	user.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID 实现 domain.UserRepository.GetByID
func (r *userRepositoryImpl) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	var model UserModel
	if err := r.conn(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error(ctx, "user_repository.get_by_id failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return r.toDomain(&model), nil
}

// GetByUsername 实现 domain.UserRepository.GetByUsername
func (r *userRepositoryImpl) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var model UserModel
	if err := r.conn(ctx).Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error(ctx, "user_repository.get_by_username failed", "username", username, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return r.toDomain(&model), nil
}

// ListPending 实现 domain.UserRepository.ListPending
func (r *userRepositoryImpl) ListPending(ctx context.Context) ([]*domain.User, error) {
	var models []UserModel
	if err := r.conn(ctx).Where("is_approved = ?", false).Order("created_at asc").Find(&models).Error; err != nil {
		logger.Error(ctx, "user_repository.list_pending failed", "error", err)
		return nil, fmt.Errorf("failed to list pending users: %w", err)
	}
	return r.toDomainList(models), nil
}

// ListAll 实现 domain.UserRepository.ListAll
func (r *userRepositoryImpl) ListAll(ctx context.Context) ([]*domain.User, error) {
	var models []UserModel
	if err := r.conn(ctx).Order("created_at asc").Find(&models).Error; err != nil {
		logger.Error(ctx, "user_repository.list_all failed", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return r.toDomainList(models), nil
}

// Approve 实现 domain.UserRepository.Approve
func (r *userRepositoryImpl) Approve(ctx context.Context, userID string) (bool, error) {
	res := r.conn(ctx).Model(&UserModel{}).Where("user_id = ?", userID).Update("is_approved", true)
	if res.Error != nil {
		logger.Error(ctx, "user_repository.approve failed", "user_id", userID, "error", res.Error)
		return false, fmt.Errorf("failed to approve user: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *userRepositoryImpl) toDomain(m *UserModel) *domain.User {
	return &domain.User{
		UserID:     m.UserID,
		Username:   m.Username,
		PINHash:    m.PINHash,
		Role:       domain.Role(m.Role),
		FullName:   m.FullName,
		Email:      m.Email,
		Phone:      m.Phone,
		IsApproved: m.IsApproved,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r *userRepositoryImpl) toDomainList(models []UserModel) []*domain.User {
	users := make([]*domain.User, len(models))
	for i, m := range models {
		users[i] = r.toDomain(&m)
	}
	return users
}
