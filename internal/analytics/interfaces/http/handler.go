// Package http 提供销售报表的 HTTP 接口
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pointofsale/internal/analytics/application"
	identitydomain "github.com/wyfcoding/pointofsale/internal/identity/domain"
	"github.com/wyfcoding/pointofsale/pkg/middleware"
	"github.com/wyfcoding/pointofsale/pkg/response"
)

// AnalyticsHandler 报表 HTTP 处理器
type AnalyticsHandler struct {
	svc *application.AnalyticsService
}

// NewAnalyticsHandler 创建处理器实例
func NewAnalyticsHandler(svc *application.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	analytics := router.Group("/analytics")
	{
		analytics.GET("/sales-summary",
			middleware.RequirePermission(string(identitydomain.PermissionViewReports)), h.SalesSummary)
	}
}

// SalesSummary 查询销售汇总
func (h *AnalyticsHandler) SalesSummary(c *gin.Context) {
	summary, err := h.svc.SalesSummary(c.Request.Context(), c.DefaultQuery("period", "today"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}
