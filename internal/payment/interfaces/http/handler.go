// Package http 提供支付结算的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/wyfcoding/pointofsale/internal/identity/domain"
	"github.com/wyfcoding/pointofsale/internal/payment/application"
	"github.com/wyfcoding/pointofsale/pkg/middleware"
	"github.com/wyfcoding/pointofsale/pkg/response"
)

// PaymentHandler 支付 HTTP 处理器
type PaymentHandler struct {
	svc *application.PaymentService
}

// NewPaymentHandler 创建处理器实例
func NewPaymentHandler(svc *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.POST("/process",
			middleware.RequirePermission(string(identitydomain.PermissionSettlePayments)), h.Process)
	}
}

// ProcessRequest 支付结算请求
type ProcessRequest struct {
	OrderID      string `json:"order_id" binding:"required"`
	Method       string `json:"payment_method" binding:"required"`
	Amount       int64  `json:"amount" binding:"required,min=1"`
	CashReceived int64  `json:"cash_received"`
	Token        string `json:"token"`
}

// Process 结算订单
func (h *PaymentHandler) Process(c *gin.Context) {
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	result, err := h.svc.ProcessPayment(c.Request.Context(), application.ProcessPaymentCommand{
		OrderID:      req.OrderID,
		Method:       req.Method,
		Amount:       req.Amount,
		CashReceived: req.CashReceived,
		Token:        req.Token,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
