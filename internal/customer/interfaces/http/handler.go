// Package http 提供会员管理的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pointofsale/internal/customer/application"
	identitydomain "github.com/wyfcoding/pointofsale/internal/identity/domain"
	"github.com/wyfcoding/pointofsale/pkg/middleware"
	"github.com/wyfcoding/pointofsale/pkg/response"
)

// CustomerHandler 会员 HTTP 处理器
type CustomerHandler struct {
	svc *application.CustomerService
}

// NewCustomerHandler 创建处理器实例
func NewCustomerHandler(svc *application.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	manage := middleware.RequirePermission(string(identitydomain.PermissionManageCustomers))

	customers := router.Group("/customers", manage)
	{
		customers.GET("", h.List)
		customers.GET("/:id", h.Get)
		customers.POST("", h.Create)
		customers.PUT("/:id", h.Update)
	}
}

// CustomerRequest 会员创建/更新请求
type CustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Create 创建会员
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	customer, err := h.svc.CreateCustomer(c.Request.Context(), application.CustomerCommand{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, customer)
}

// Update 更新会员档案
func (h *CustomerHandler) Update(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	customer, err := h.svc.UpdateCustomer(c.Request.Context(), c.Param("id"), application.CustomerCommand{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, customer)
}

// Get 按 ID 获取会员
func (h *CustomerHandler) Get(c *gin.Context) {
	customer, err := h.svc.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, customer)
}

// List 列出会员
func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.svc.ListCustomers(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, customers)
}
