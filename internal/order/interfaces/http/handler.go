// Package http 提供订单的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/wyfcoding/pointofsale/internal/identity/domain"
	"github.com/wyfcoding/pointofsale/internal/order/application"
	"github.com/wyfcoding/pointofsale/pkg/middleware"
	"github.com/wyfcoding/pointofsale/pkg/response"
)

// OrderHandler 订单 HTTP 处理器
type OrderHandler struct {
	svc *application.OrderService
}

// NewOrderHandler 创建处理器实例
func NewOrderHandler(svc *application.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	takeOrders := middleware.RequirePermission(string(identitydomain.PermissionTakeOrders))

	orders := router.Group("/orders", takeOrders)
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
	}
}

// CartItemRequest 购物车条目
type CartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,min=1"`
	UnitPrice int64  `json:"unit_price" binding:"min=0"`
}

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	Items         []CartItemRequest `json:"items" binding:"required,min=1,dive"`
	CustomerID    string            `json:"customer_id"`
	Discount      int64             `json:"discount" binding:"min=0"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	Notes         string            `json:"notes"`
}

// Create 下单
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	cart := make([]application.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		cart = append(cart, application.CartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), application.CreateOrderCommand{
		Cart:          cart,
		CustomerID:    req.CustomerID,
		Discount:      req.Discount,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		CashierID:     principal.ID,
		CashierName:   principal.FullName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order)
}

// List 查询订单列表
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.svc.ListOrders(c.Request.Context(), c.Query("date_from"), c.Query("date_to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, orders)
}

// Get 按 ID 获取订单
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, order)
}
