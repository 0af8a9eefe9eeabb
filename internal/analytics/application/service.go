// Package application 基于订单只读聚合实现销售报表
package application

import (
	"context"
	"time"

	"github.com/wyfcoding/pointofsale/pkg/apperr"
	"gorm.io/gorm"
)

// TopProduct 销量前列的商品
type TopProduct struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
	Revenue     int64  `json:"revenue"`
}

// MethodBreakdown 按支付方式统计
type MethodBreakdown struct {
	Method string `json:"method"`
	Count  int64  `json:"count"`
	Total  int64  `json:"total"`
}

// HourlySales 按小时统计
type HourlySales struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
	Total int64 `json:"total"`
}

// SalesSummary 销售汇总报表
type SalesSummary struct {
	Period         string            `json:"period"`
	TotalSales     int64             `json:"total_sales"`
	TotalOrders    int64             `json:"total_orders"`
	AvgOrderValue  int64             `json:"avg_order_value"`
	TopProducts    []TopProduct      `json:"top_products"`
	PaymentMethods []MethodBreakdown `json:"payment_methods"`
	SalesByHour    []HourlySales     `json:"sales_by_hour"`
}

// AnalyticsService 报表查询服务，直接对订单表做聚合
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService 构造函数
func NewAnalyticsService(database *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: database}
}

// periodStart 解析统计区间起点；未知区间返回 validation 错误
func periodStart(period string, now time.Time) (time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case "today":
		return midnight, nil
	case "week":
		return midnight.AddDate(0, 0, -7), nil
	case "month":
		return midnight.AddDate(0, -1, 0), nil
	case "year":
		return midnight.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, apperr.Newf(apperr.KindValidation, "invalid_period",
		"period must be one of today, week, month, year; got %q", period)
}

// SalesSummary 汇总指定区间内已完成订单的销售数据
func (s *AnalyticsService) SalesSummary(ctx context.Context, period string) (*SalesSummary, error) {
	since, err := periodStart(period, time.Now())
	if err != nil {
		return nil, err
	}

	summary := &SalesSummary{Period: period}

	type totalsRow struct {
		TotalSales  int64
		TotalOrders int64
	}
	var totals totalsRow
	err = s.db.WithContext(ctx).
		Table("orders").
		Select("COALESCE(SUM(total), 0) AS total_sales, COUNT(*) AS total_orders").
		Where("payment_status = ? AND created_at >= ?", "completed", since).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	summary.TotalSales = totals.TotalSales
	summary.TotalOrders = totals.TotalOrders
	if totals.TotalOrders > 0 {
		summary.AvgOrderValue = totals.TotalSales / totals.TotalOrders
	}

	err = s.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id, MAX(order_items.product_name) AS product_name, SUM(order_items.quantity) AS quantity, SUM(order_items.total_price) AS revenue").
		Joins("JOIN orders ON orders.order_id = order_items.order_id").
		Where("orders.payment_status = ? AND orders.created_at >= ?", "completed", since).
		Group("order_items.product_id").
		Order("quantity DESC").
		Limit(5).
		Scan(&summary.TopProducts).Error
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Table("orders").
		Select("payment_method AS method, COUNT(*) AS count, SUM(total) AS total").
		Where("payment_status = ? AND created_at >= ?", "completed", since).
		Group("payment_method").
		Order("total DESC").
		Scan(&summary.PaymentMethods).Error
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Table("orders").
		Select("HOUR(created_at) AS hour, COUNT(*) AS count, SUM(total) AS total").
		Where("payment_status = ? AND created_at >= ?", "completed", since).
		Group("HOUR(created_at)").
		Order("hour ASC").
		Scan(&summary.SalesByHour).Error
	if err != nil {
		return nil, err
	}

	return summary, nil
}
