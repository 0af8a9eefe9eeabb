// Package metrics 提供 Prometheus helper，包含 HTTP 与门店业务指标
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/pointofsale/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数（按方法/路径/状态码）
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 创建的订单数
	OrdersCreatedTotal prometheus.Counter
	// 已结算的支付数（按支付方式）
	PaymentsSettledTotal *prometheus.CounterVec
	// 被拒绝的支付数
	PaymentsRejectedTotal prometheus.Counter
	// 库存流水追加数（按流水类型）
	StockMovementsTotal *prometheus.CounterVec
	// 低库存商品数
	LowStockProducts prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pos",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		OrdersCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: serviceName,
			Name:      "orders_created_total",
			Help:      "Total orders created",
		}),
		PaymentsSettledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: serviceName,
			Name:      "payments_settled_total",
			Help:      "Total payments settled",
		}, []string{"method"}),
		PaymentsRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: serviceName,
			Name:      "payments_rejected_total",
			Help:      "Total payments rejected",
		}),
		StockMovementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: serviceName,
			Name:      "stock_movements_total",
			Help:      "Total inventory movements appended",
		}, []string{"type"}),
		LowStockProducts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pos",
			Subsystem: serviceName,
			Name:      "low_stock_products",
			Help:      "Number of active products at or below min stock level",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.OrdersCreatedTotal,
		m.PaymentsSettledTotal,
		m.PaymentsRejectedTotal,
		m.StockMovementsTotal,
		m.LowStockProducts,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return nil
}

// StartHTTPServer 启动独立的指标抓取端口
func StartHTTPServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info(context.Background(), "Metrics server listening", "port", port, "path", path)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(context.Background(), "Metrics server error", "error", err)
		}
	}()

	return nil
}

// GinMiddleware 记录每个 HTTP 请求的计数与耗时
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
