package application

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	customerdomain "github.com/wyfcoding/pointofsale/internal/customer/domain"
	orderdomain "github.com/wyfcoding/pointofsale/internal/order/domain"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
)

type fakeOrderRepo struct {
	orders map[string]*orderdomain.Order
}

func (f *fakeOrderRepo) Save(_ context.Context, o *orderdomain.Order) error {
	cp := *o
	f.orders[o.OrderID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*orderdomain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) List(_ context.Context, query orderdomain.ListQuery) ([]*orderdomain.Order, error) {
	var out []*orderdomain.Order
	for _, o := range f.orders {
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeOrderRepo) UpdatePayment(_ context.Context, id string, status orderdomain.PaymentStatus, ref string) (bool, error) {
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	o.PaymentStatus = status
	o.PaymentRef = ref
	o.UpdatedAt = time.Now()
	return true, nil
}

type fakeCustomerRepo struct {
	customers map[string]*customerdomain.Customer
}

func (f *fakeCustomerRepo) Save(_ context.Context, c *customerdomain.Customer) error {
	cp := *c
	f.customers[c.CustomerID] = &cp
	return nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, _ *customerdomain.Customer) (bool, error) {
	return false, nil
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id string) (*customerdomain.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomerRepo) GetByPhone(_ context.Context, _ string) (*customerdomain.Customer, error) {
	return nil, nil
}

func (f *fakeCustomerRepo) List(_ context.Context, _ string) ([]*customerdomain.Customer, error) {
	return nil, nil
}

func (f *fakeCustomerRepo) IncrementSpendAndPoints(_ context.Context, id string, amount, points int64) (bool, error) {
	c, ok := f.customers[id]
	if !ok {
		return false, nil
	}
	c.TotalSpent += amount
	c.LoyaltyPoints += points
	return true, nil
}

type fakePublisher struct {
	events []string
}

func (f *fakePublisher) Publish(_ context.Context, eventType string, _ any) error {
	f.events = append(f.events, eventType)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	orders    *fakeOrderRepo
	customers *fakeCustomerRepo
	publisher *fakePublisher
	svc       *PaymentService
}

func newFixture() *fixture {
	f := &fixture{
		orders:    &fakeOrderRepo{orders: make(map[string]*orderdomain.Order)},
		customers: &fakeCustomerRepo{customers: make(map[string]*customerdomain.Customer)},
		publisher: &fakePublisher{},
	}
	f.svc = NewPaymentService(f.orders, f.customers, f.publisher, passthroughTx{}, nil)
	return f
}

func (f *fixture) addOrder(id string, total int64, customerID string) {
	f.orders.orders[id] = &orderdomain.Order{
		OrderID:       id,
		Total:         total,
		CustomerID:    customerID,
		PaymentStatus: orderdomain.PaymentPending,
	}
}

func TestProcessPaymentCashExact(t *testing.T) {
	f := newFixture()
	f.addOrder("o1", 500, "")

	res, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
		OrderID: "o1", Method: "cash", Amount: 500, CashReceived: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", res.Status)
	assert.Regexp(t, `^pay_[0-9a-f]{8}$`, res.PaymentID)
	require.NotNil(t, res.ChangeDue)
	assert.Zero(t, *res.ChangeDue)
	assert.Equal(t, orderdomain.PaymentCompleted, f.orders.orders["o1"].PaymentStatus)
}

func TestProcessPaymentCashWithChange(t *testing.T) {
	f := newFixture()
	f.addOrder("o1", 500, "")

	res, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
		OrderID: "o1", Method: "cash", Amount: 500, CashReceived: 600,
	})
	require.NoError(t, err)
	require.NotNil(t, res.ChangeDue)
	assert.Equal(t, int64(100), *res.ChangeDue)
}

func TestProcessPaymentCashInsufficient(t *testing.T) {
	f := newFixture()
	f.addOrder("o1", 500, "")

	_, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
		OrderID: "o1", Method: "cash", Amount: 500, CashReceived: 400,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPaymentRejected, apperr.KindOf(err))
	assert.Equal(t, orderdomain.PaymentPending, f.orders.orders["o1"].PaymentStatus)
	assert.Empty(t, f.publisher.events)
}

func TestProcessPaymentCard(t *testing.T) {
	f := newFixture()
	f.addOrder("o1", 756, "")

	res, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
		OrderID: "o1", Method: "card", Amount: 756, Token: "tok_test",
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", res.Status)
	assert.Nil(t, res.ChangeDue)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, orderdomain.EventPaymentCompleted, f.publisher.events[0])
}

func TestProcessPaymentAlreadyPaid(t *testing.T) {
	f := newFixture()
	f.addOrder("o1", 500, "")
	f.orders.orders["o1"].PaymentStatus = orderdomain.PaymentCompleted

	_, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
		OrderID: "o1", Method: "card", Amount: 500,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "already_paid", apperr.CodeOf(err))
}

func TestProcessPaymentOrderNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
		OrderID: "missing", Method: "card", Amount: 100,
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestProcessPaymentAmountMismatch(t *testing.T) {
	f := newFixture()
	f.addOrder("o1", 756, "")

	_, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
		OrderID: "o1", Method: "card", Amount: 700,
	})
	assert.Equal(t, "amount_mismatch", apperr.CodeOf(err))
}

func TestProcessPaymentInvalidMethod(t *testing.T) {
	f := newFixture()
	f.addOrder("o1", 500, "")

	_, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
		OrderID: "o1", Method: "check", Amount: 500,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestProcessPaymentAwardsLoyalty(t *testing.T) {
	f := newFixture()
	f.addOrder("o1", 1050, "c1")
	f.customers.customers["c1"] = &customerdomain.Customer{CustomerID: "c1", Name: "Alice"}

	_, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
		OrderID: "o1", Method: "digital_wallet", Amount: 1050,
	})
	require.NoError(t, err)

	customer := f.customers.customers["c1"]
	assert.Equal(t, int64(1050), customer.TotalSpent)
	assert.Equal(t, int64(10), customer.LoyaltyPoints)
}

func TestProcessPaymentWithoutCustomer(t *testing.T) {
	f := newFixture()
	f.addOrder("o1", 500, "")

	_, err := f.svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
		OrderID: "o1", Method: "card", Amount: 500,
	})
	require.NoError(t, err)
	assert.Empty(t, f.customers.customers)
}
