// Package application 实现支付结算的状态机
package application

import (
	"context"
	"time"

	customerdomain "github.com/wyfcoding/pointofsale/internal/customer/domain"
	orderdomain "github.com/wyfcoding/pointofsale/internal/order/domain"
	"github.com/wyfcoding/pointofsale/internal/payment/domain"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
	"github.com/wyfcoding/pointofsale/pkg/db"
	"github.com/wyfcoding/pointofsale/pkg/logger"
	"github.com/wyfcoding/pointofsale/pkg/metrics"
)

// EventPublisher 在业务事务内发布领域事件
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// ProcessPaymentCommand 支付结算命令
type ProcessPaymentCommand struct {
	OrderID      string
	Method       string
	Amount       int64
	CashReceived int64
	Token        string
}

// PaymentService 支付应用服务
type PaymentService struct {
	orders    orderdomain.OrderRepository
	customers customerdomain.CustomerRepository
	publisher EventPublisher
	tx        db.TxManager
	metrics   *metrics.Metrics
}

// NewPaymentService 构造函数
func NewPaymentService(
	orders orderdomain.OrderRepository,
	customers customerdomain.CustomerRepository,
	publisher EventPublisher,
	tx db.TxManager,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		orders:    orders,
		customers: customers,
		publisher: publisher,
		tx:        tx,
		metrics:   m,
	}
}

// ProcessPayment 在单个事务内结算订单。重复结算返回 conflict；
// 现金实收不足返回 payment_rejected；卡与电子钱包在沙箱环境直接通过。
func (s *PaymentService) ProcessPayment(ctx context.Context, cmd ProcessPaymentCommand) (*domain.Result, error) {
	method := orderdomain.PaymentMethod(cmd.Method)
	if !method.Valid() {
		return nil, apperr.Newf(apperr.KindValidation, "invalid_payment_method", "unknown payment method %q", cmd.Method)
	}
	if cmd.Amount <= 0 {
		return nil, apperr.New(apperr.KindValidation, "invalid_amount", "amount must be positive")
	}

	var result *domain.Result
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperr.New(apperr.KindNotFound, "order_not_found", "order not found")
		}
		if order.PaymentStatus == orderdomain.PaymentCompleted {
			return apperr.New(apperr.KindConflict, "already_paid", "order has already been paid")
		}
		if cmd.Amount != order.Total {
			return apperr.Newf(apperr.KindValidation, "amount_mismatch",
				"amount does not match the order total of %d", order.Total)
		}

		var changeDue *int64
		if method == orderdomain.PaymentCash {
			if cmd.CashReceived < cmd.Amount {
				return apperr.New(apperr.KindPaymentRejected, "insufficient_cash",
					"cash received is less than the amount due")
			}
			change := cmd.CashReceived - cmd.Amount
			changeDue = &change
		}

		paymentRef := domain.NewPaymentRef()
		updated, err := s.orders.UpdatePayment(ctx, order.OrderID, orderdomain.PaymentCompleted, paymentRef)
		if err != nil {
			return err
		}
		if !updated {
			return apperr.New(apperr.KindNotFound, "order_not_found", "order not found")
		}

		if order.CustomerID != "" {
			points := customerdomain.LoyaltyPoints(cmd.Amount)
			if _, err := s.customers.IncrementSpendAndPoints(ctx, order.CustomerID, cmd.Amount, points); err != nil {
				return err
			}
		}

		result = &domain.Result{
			PaymentID: paymentRef,
			Status:    string(orderdomain.PaymentCompleted),
			Amount:    cmd.Amount,
			OrderID:   order.OrderID,
			ChangeDue: changeDue,
		}

		event := orderdomain.PaymentCompletedEvent{
			PaymentID:  paymentRef,
			OrderID:    order.OrderID,
			CustomerID: order.CustomerID,
			Method:     string(method),
			Amount:     cmd.Amount,
			OccurredAt: time.Now(),
		}
		if changeDue != nil {
			event.ChangeDue = *changeDue
		}
		return s.publisher.Publish(ctx, orderdomain.EventPaymentCompleted, event)
	})
	if err != nil {
		if apperr.IsKind(err, apperr.KindPaymentRejected) && s.metrics != nil {
			s.metrics.PaymentsRejectedTotal.Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PaymentsSettledTotal.WithLabelValues(string(method)).Inc()
	}
	logger.Info(ctx, "Payment settled",
		"payment_id", result.PaymentID,
		"order_id", result.OrderID,
		"method", method,
		"amount", result.Amount)
	return result, nil
}
