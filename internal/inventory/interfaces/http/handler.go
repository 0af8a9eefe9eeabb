// Package http 提供库存流水的 HTTP 接口
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/wyfcoding/pointofsale/internal/identity/domain"
	"github.com/wyfcoding/pointofsale/internal/inventory/application"
	"github.com/wyfcoding/pointofsale/internal/inventory/domain"
	"github.com/wyfcoding/pointofsale/pkg/middleware"
	"github.com/wyfcoding/pointofsale/pkg/response"
)

// InventoryHandler 库存流水 HTTP 处理器
type InventoryHandler struct {
	svc *application.InventoryService
}

// NewInventoryHandler 创建处理器实例
func NewInventoryHandler(svc *application.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/inventory")
	{
		inventory.GET("/movements",
			middleware.RequirePermission(string(identitydomain.PermissionViewInventory)), h.ListMovements)
		inventory.POST("/movements",
			middleware.RequirePermission(string(identitydomain.PermissionManageCatalog)), h.AppendMovement)
	}
}

// AppendMovementRequest 人工流水请求（采购入库、盘点调整、退货）
type AppendMovementRequest struct {
	ProductID   string `json:"product_id" binding:"required"`
	Type        string `json:"movement_type" binding:"required"`
	Quantity    int64  `json:"quantity" binding:"required"`
	ReferenceID string `json:"reference_id"`
	Notes       string `json:"notes"`
}

// AppendMovement 追加一条人工库存流水
func (h *InventoryHandler) AppendMovement(c *gin.Context) {
	var req AppendMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		response.ErrorWithStatus(c, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	movement, err := h.svc.AppendMovement(c.Request.Context(), application.AppendMovementCommand{
		ProductID:   req.ProductID,
		Type:        domain.MovementType(req.Type),
		Quantity:    req.Quantity,
		ReferenceID: req.ReferenceID,
		Notes:       req.Notes,
		UserID:      principal.ID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, movement)
}

// ListMovements 查询库存流水
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	movements, err := h.svc.ListMovements(c.Request.Context(), c.Query("product_id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, movements)
}
