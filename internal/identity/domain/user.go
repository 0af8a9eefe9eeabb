// Package domain 包含员工账号的领域模型与能力权限模型
package domain

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

// Role 账号角色
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid 判断角色是否为已知角色
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// Permission 能力权限；接口守卫校验权限而不是角色名
type Permission string

const (
	PermissionManageCatalog   Permission = "manage_catalog"
	PermissionApproveUsers    Permission = "approve_users"
	PermissionViewUsers       Permission = "view_users"
	PermissionTakeOrders      Permission = "take_orders"
	PermissionSettlePayments  Permission = "settle_payments"
	PermissionViewReports     Permission = "view_reports"
	PermissionManageCustomers Permission = "manage_customers"
	PermissionViewInventory   Permission = "view_inventory"
)

// rolePermissions 角色到权限集合的映射
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionManageCatalog,
		PermissionApproveUsers,
		PermissionViewUsers,
		PermissionTakeOrders,
		PermissionSettlePayments,
		PermissionViewReports,
		PermissionManageCustomers,
		PermissionViewInventory,
	},
	RoleEmployee: {
		PermissionTakeOrders,
		PermissionSettlePayments,
		PermissionViewReports,
		PermissionManageCustomers,
		PermissionViewInventory,
	},
}

// PermissionsFor 返回角色持有的权限集合
func PermissionsFor(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission 判断角色是否持有给定权限
func HasPermission(role Role, permission Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// User 员工账号实体
type User struct {
	UserID string `json:"id"`
	// 登录名，全局唯一
	Username string `json:"username"`
	// PIN 的 sha256 十六进制摘要
	PINHash  string `json:"-"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	// 员工注册后需管理员审批；管理员自动通过
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUser 创建账号；管理员账号自动审批通过
func NewUser(userID, username, pin, fullName, email, phone string, role Role) *User {
	return &User{
		UserID:     userID,
		Username:   username,
		PINHash:    HashPIN(pin),
		Role:       role,
		FullName:   fullName,
		Email:      email,
		Phone:      phone,
		IsApproved: role == RoleAdmin,
	}
}

// HashPIN 计算 PIN 的 sha256 十六进制摘要
func HashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// VerifyPIN 校验明文 PIN 是否匹配
func (u *User) VerifyPIN(pin string) bool {
	return subtle.ConstantTimeCompare([]byte(HashPIN(pin)), []byte(u.PINHash)) == 1
}

// UserRepository 账号仓储接口
type UserRepository interface {
	// 保存账号
	Save(ctx context.Context, user *User) error
	// 按 ID 获取账号；不存在时返回 nil
	GetByID(ctx context.Context, userID string) (*User, error)
	// 按用户名获取账号；不存在时返回 nil
	GetByUsername(ctx context.Context, username string) (*User, error)
	// 列出待审批账号
	ListPending(ctx context.Context) ([]*User, error)
	// 列出全部账号
	ListAll(ctx context.Context) ([]*User, error)
	// 审批通过；返回是否有匹配记录
	Approve(ctx context.Context, userID string) (bool, error)
}
