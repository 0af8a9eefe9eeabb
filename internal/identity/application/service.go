// Package application 实现账号注册、登录、审批与令牌签发
package application

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wyfcoding/pointofsale/internal/identity/domain"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
	"github.com/wyfcoding/pointofsale/pkg/logger"
	"github.com/wyfcoding/pointofsale/pkg/middleware"
)

// RegisterCommand 注册命令
type RegisterCommand struct {
	Username string
	PIN      string
	FullName string
	Email    string
	Phone    string
	Role     string
}

// RegisterResult 注册结果
type RegisterResult struct {
	UserID string `json:"user_id"`
	// 员工账号需要管理员审批后才能登录
	RequiresApproval bool `json:"requires_approval"`
}

// LoginResult 登录结果
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

// IdentityService 账号应用服务
type IdentityService struct {
	repo      domain.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewIdentityService 构造函数
func NewIdentityService(repo domain.UserRepository, jwtSecret []byte, tokenTTL time.Duration) *IdentityService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &IdentityService{
		repo:      repo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register 注册账号；用户名冲突返回 conflict
func (s *IdentityService) Register(ctx context.Context, cmd RegisterCommand) (*RegisterResult, error) {
	if cmd.Username == "" || cmd.PIN == "" || cmd.FullName == "" {
		return nil, apperr.New(apperr.KindValidation, "missing_field", "username, pin and full_name are required")
	}
	role := domain.Role(cmd.Role)
	if cmd.Role == "" {
		role = domain.RoleEmployee
	}
	if !role.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "invalid_role", "unknown role: %s", cmd.Role)
	}

	existing, err := s.repo.GetByUsername(ctx, cmd.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.New(apperr.KindConflict, "username_taken", "username already registered")
	}

	user := domain.NewUser(uuid.New().String(), cmd.Username, cmd.PIN, cmd.FullName, cmd.Email, cmd.Phone, role)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}

	logger.Info(ctx, "User registered", "user_id", user.UserID, "username", user.Username, "role", user.Role)

	return &RegisterResult{
		UserID:           user.UserID,
		RequiresApproval: role == domain.RoleEmployee,
	}, nil
}

// Login 校验用户名与 PIN，签发 HS256 令牌（sub=用户 ID，role 声明，24h 过期）
func (s *IdentityService) Login(ctx context.Context, username, pin string) (*LoginResult, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.VerifyPIN(pin) {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid_credentials", "invalid username or PIN")
	}
	if !user.IsApproved {
		return nil, apperr.New(apperr.KindUnauthorized, "not_approved", "account not approved by admin")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.UserID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to sign token")
	}

	logger.Info(ctx, "User logged in", "user_id", user.UserID, "username", user.Username)

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}

// GetUser 按 ID 获取账号
func (s *IdentityService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.New(apperr.KindNotFound, "user_not_found", "user not found")
	}
	return user, nil
}

// ListPending 列出待审批账号
func (s *IdentityService) ListPending(ctx context.Context) ([]*domain.User, error) {
	return s.repo.ListPending(ctx)
}

// ListAll 列出全部账号
func (s *IdentityService) ListAll(ctx context.Context) ([]*domain.User, error) {
	return s.repo.ListAll(ctx)
}

// Approve 审批通过账号
func (s *IdentityService) Approve(ctx context.Context, userID string) error {
	matched, err := s.repo.Approve(ctx, userID)
	if err != nil {
		return err
	}
	if !matched {
		return apperr.New(apperr.KindNotFound, "user_not_found", "user not found")
	}
	logger.Info(ctx, "User approved", "user_id", userID)
	return nil
}

// LoadPrincipal 实现 middleware.PrincipalLoader，把账号转换为请求操作者
func (s *IdentityService) LoadPrincipal(ctx context.Context, userID string) (*middleware.Principal, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "user_not_found", "user not found")
	}

	perms := domain.PermissionsFor(user.Role)
	permissions := make([]string, len(perms))
	for i, p := range perms {
		permissions[i] = string(p)
	}

	return &middleware.Principal{
		ID:          user.UserID,
		Username:    user.Username,
		FullName:    user.FullName,
		Role:        string(user.Role),
		Permissions: permissions,
	}, nil
}
