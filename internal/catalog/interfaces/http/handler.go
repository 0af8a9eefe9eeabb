// Package http 提供商品目录的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pointofsale/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/pointofsale/internal/catalog/domain"
	identitydomain "github.com/wyfcoding/pointofsale/internal/identity/domain"
	"github.com/wyfcoding/pointofsale/pkg/middleware"
	"github.com/wyfcoding/pointofsale/pkg/response"
)

// CatalogHandler 商品目录 HTTP 处理器
type CatalogHandler struct {
	svc *application.CatalogService
}

// NewCatalogHandler 创建处理器实例
func NewCatalogHandler(svc *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	manage := middleware.RequirePermission(string(identitydomain.PermissionManageCatalog))

	products := router.Group("/products")
	{
		products.GET("", h.List)
		products.GET("/categories", h.Categories)
		products.GET("/low-stock", middleware.RequirePermission(string(identitydomain.PermissionViewInventory)), h.LowStock)
		products.GET("/:id", h.Get)
		products.POST("", manage, h.Create)
		products.PUT("/:id", manage, h.Update)
		products.DELETE("/:id", manage, h.Deactivate)
	}
}

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Price         int64  `json:"price" binding:"min=0"`
	Category      string `json:"category" binding:"required"`
	SKU           string `json:"sku" binding:"required"`
	Barcode       string `json:"barcode"`
	StockQuantity int64  `json:"stock_quantity" binding:"min=0"`
	MinStockLevel int64  `json:"min_stock_level"`
	CostPrice     int64  `json:"cost_price" binding:"min=0"`
}

func (r ProductRequest) toCommand() application.CreateProductCommand {
	return application.CreateProductCommand{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		Category:      r.Category,
		SKU:           r.SKU,
		Barcode:       r.Barcode,
		StockQuantity: r.StockQuantity,
		MinStockLevel: r.MinStockLevel,
		CostPrice:     r.CostPrice,
	}
}

// Create 创建商品
func (h *CatalogHandler) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	product, err := h.svc.CreateProduct(c.Request.Context(), req.toCommand())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, product)
}

// Update 更新商品
func (h *CatalogHandler) Update(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	cmd := req.toCommand()
	if principal, ok := middleware.PrincipalFrom(c); ok {
		cmd.ActorID = principal.ID
	}

	product, err := h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, product)
}

// Deactivate 下架商品
func (h *CatalogHandler) Deactivate(c *gin.Context) {
	productID := c.Param("id")
	if err := h.svc.DeactivateProduct(c.Request.Context(), productID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"product_id": productID, "deactivated": true})
}

// Get 按 ID 获取商品
func (h *CatalogHandler) Get(c *gin.Context) {
	product, err := h.svc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, product)
}

// List 列出在售商品
func (h *CatalogHandler) List(c *gin.Context) {
	products, err := h.svc.ListProducts(c.Request.Context(), catalogdomain.ListFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, products)
}

// Categories 列出全部品类
func (h *CatalogHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, categories)
}

// LowStock 列出低库存商品
func (h *CatalogHandler) LowStock(c *gin.Context) {
	products, err := h.svc.LowStockProducts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, products)
}
