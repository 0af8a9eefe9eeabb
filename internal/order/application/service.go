// Package application 实现下单事务与订单查询
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	catalogdomain "github.com/wyfcoding/pointofsale/internal/catalog/domain"
	customerdomain "github.com/wyfcoding/pointofsale/internal/customer/domain"
	inventorydomain "github.com/wyfcoding/pointofsale/internal/inventory/domain"
	"github.com/wyfcoding/pointofsale/internal/order/domain"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"github.com/wyfcoding/pointofsale/pkg/logger"
	"github.com/wyfcoding/pointofsale/pkg/metrics"
)

const listLimit = 100

// EventPublisher 在业务事务内发布领域事件
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// CartItem 购物车条目；单价由服务端按商品当前售价复核
type CartItem struct {
	ProductID string
	Quantity  int64
	UnitPrice int64
}

// CreateOrderCommand 下单命令
type CreateOrderCommand struct {
	Cart          []CartItem
	CustomerID    string
	Discount      int64
	PaymentMethod string
	Notes         string
	CashierID     string
	CashierName   string
}

// OrderService 订单应用服务
type OrderService struct {
	orders    domain.OrderRepository
	products  catalogdomain.ProductRepository
	customers customerdomain.CustomerRepository
	movements inventorydomain.MovementRepository
	publisher EventPublisher
	tx        db.TxManager
	metrics   *metrics.Metrics
}

// NewOrderService 构造函数
func NewOrderService(
	orders domain.OrderRepository,
	products catalogdomain.ProductRepository,
	customers customerdomain.CustomerRepository,
	movements inventorydomain.MovementRepository,
	publisher EventPublisher,
	tx db.TxManager,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		customers: customers,
		movements: movements,
		publisher: publisher,
		tx:        tx,
		metrics:   m,
	}
}

// CreateOrder 在单个事务内完成校验、落单、扣减库存、追加流水与事件发布。
// 任一步失败则整体回滚：要么订单、流水、库存同时生效，要么全部不生效。
func (s *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if len(cmd.Cart) == 0 {
		return nil, apperr.New(apperr.KindValidation, "empty_cart", "cart must contain at least one item")
	}
	method := domain.PaymentMethod(cmd.PaymentMethod)
	if !method.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "invalid_payment_method", "unknown payment method %q", cmd.PaymentMethod)
	}

	var order *domain.Order
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		items, err := s.verifyCart(ctx, cmd.Cart)
		if err != nil {
			return err
		}

		subtotal, tax, total, err := domain.ComputeTotals(items, cmd.Discount)
		if err != nil {
			return err
		}

		customerName := ""
		if cmd.CustomerID != "" {
			customer, err := s.customers.GetByID(ctx, cmd.CustomerID)
			if err != nil {
				return err
			}
			if customer != nil {
				customerName = customer.Name
			}
		}

		now := time.Now()
		order = &domain.Order{
			OrderID:       uuid.New().String(),
			OrderNumber:   domain.NewOrderNumber(now),
			Items:         items,
			CustomerID:    cmd.CustomerID,
			CustomerName:  customerName,
			Subtotal:      subtotal,
			Tax:           tax,
			Discount:      cmd.Discount,
			Total:         total,
			PaymentMethod: method,
			PaymentStatus: domain.PaymentPending,
			CashierID:     cmd.CashierID,
			CashierName:   cmd.CashierName,
			Notes:         cmd.Notes,
		}

		if err := s.orders.Save(ctx, order); err != nil {
			return err
		}

		for _, item := range items {
			decremented, err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !decremented {
				return apperr.Newf(apperr.KindConflict, "insufficient_stock",
					"insufficient stock for product %s", item.ProductID)
			}

			movement := &inventorydomain.Movement{
				MovementID:  uuid.New().String(),
				ProductID:   item.ProductID,
				Type:        inventorydomain.MovementSale,
				Quantity:    -item.Quantity,
				ReferenceID: order.OrderID,
				UserID:      cmd.CashierID,
			}
			if err := movement.Validate(); err != nil {
				return err
			}
			if err := s.movements.Append(ctx, movement); err != nil {
				return err
			}
		}

		return s.publisher.Publish(ctx, domain.EventOrderCreated, domain.OrderCreatedEvent{
			OrderID:     order.OrderID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			CashierID:   order.CashierID,
			Total:       order.Total,
			ItemCount:   len(order.Items),
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCreatedTotal.Inc()
	}
	logger.Info(ctx, "Order created",
		"order_id", order.OrderID,
		"order_number", order.OrderNumber,
		"total", order.Total,
		"items", len(order.Items))
	return order, nil
}

// verifyCart 逐项复核商品在售状态与服务端价格，重建行项目快照
func (s *OrderService) verifyCart(ctx context.Context, cart []CartItem) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(cart))
	for _, entry := range cart {
		if entry.Quantity <= 0 {
			return nil, apperr.New(apperr.KindValidation, "invalid_quantity", "item quantity must be positive")
		}

		product, err := s.products.GetByID(ctx, entry.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, apperr.Newf(apperr.KindValidation, "product_unavailable",
				"product %s is not available", entry.ProductID)
		}
		if entry.UnitPrice != product.Price {
			return nil, apperr.Newf(apperr.KindValidation, "price_mismatch",
				"price for product %s does not match the catalog", entry.ProductID)
		}

		items = append(items, domain.OrderItem{
			ProductID:   product.ProductID,
			ProductName: product.Name,
			Quantity:    entry.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  product.Price * entry.Quantity,
		})
	}
	return items, nil
}

// ListOrders 查询订单列表，时间范围仅在两端都给出时生效
func (s *OrderService) ListOrders(ctx context.Context, dateFrom, dateTo string) ([]*domain.Order, error) {
	query := domain.ListQuery{Limit: listLimit}

	if dateFrom != "" && dateTo != "" {
		from, err := time.Parse(time.RFC3339, dateFrom)
		if err != nil {
			return nil, apperr.New(apperr.KindValidation, "invalid_date", "date_from must be RFC 3339")
		}
		to, err := time.Parse(time.RFC3339, dateTo)
		if err != nil {
			return nil, apperr.New(apperr.KindValidation, "invalid_date", "date_to must be RFC 3339")
		}
		query.DateFrom = &from
		query.DateTo = &to
	}

	return s.orders.List(ctx, query)
}

// GetOrder 按 ID 获取订单
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperr.New(apperr.KindNotFound, "order_not_found", "order not found")
	}
	return order, nil
}
