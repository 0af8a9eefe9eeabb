// Package http 提供账号相关的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pointofsale/internal/identity/application"
	"github.com/wyfcoding/pointofsale/internal/identity/domain"
	"github.com/wyfcoding/pointofsale/pkg/middleware"
	"github.com/wyfcoding/pointofsale/pkg/response"
)

// IdentityHandler 账号 HTTP 处理器
type IdentityHandler struct {
	svc *application.IdentityService
}

// NewIdentityHandler 创建处理器实例
func NewIdentityHandler(svc *application.IdentityService) *IdentityHandler {
	return &IdentityHandler{svc: svc}
}

// RegisterPublicRoutes 注册无需令牌的路由
func (h *IdentityHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register) // 注册
		auth.POST("/login", h.Login)       // 登录
	}
}

// RegisterRoutes 注册需要令牌的路由
func (h *IdentityHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/auth/me", h.Me)

	users := router.Group("/users")
	{
		users.GET("", middleware.RequirePermission(string(domain.PermissionViewUsers)), h.ListAll)
		users.GET("/pending", middleware.RequirePermission(string(domain.PermissionApproveUsers)), h.ListPending)
		users.PUT("/:id/approve", middleware.RequirePermission(string(domain.PermissionApproveUsers)), h.Approve)
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	PIN      string `json:"pin" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// Register 注册账号
func (h *IdentityHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	res, err := h.svc.Register(c.Request.Context(), application.RegisterCommand{
		Username: req.Username,
		PIN:      req.PIN,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	PIN      string `json:"pin" binding:"required"`
}

// Login 登录
func (h *IdentityHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Username, req.PIN)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, res)
}

// Me 返回当前登录账号
func (h *IdentityHandler) Me(c *gin.Context) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), principal.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, user)
}

// ListPending 列出待审批账号
func (h *IdentityHandler) ListPending(c *gin.Context) {
	users, err := h.svc.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// ListAll 列出全部账号
func (h *IdentityHandler) ListAll(c *gin.Context) {
	users, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// Approve 审批通过账号
func (h *IdentityHandler) Approve(c *gin.Context) {
	userID := c.Param("id")
	if err := h.svc.Approve(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"user_id": userID, "approved": true})
}
