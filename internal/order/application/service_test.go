package application

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogdomain "github.com/wyfcoding/pointofsale/internal/catalog/domain"
	customerdomain "github.com/wyfcoding/pointofsale/internal/customer/domain"
	inventorydomain "github.com/wyfcoding/pointofsale/internal/inventory/domain"
	"github.com/wyfcoding/pointofsale/internal/order/domain"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
)

type fakeOrderRepo struct {
	orders map[string]*domain.Order
}

func (f *fakeOrderRepo) Save(_ context.Context, o *domain.Order) error {
	cp := *o
	cp.CreatedAt = time.Now()
	f.orders[o.OrderID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) List(_ context.Context, query domain.ListQuery) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range f.orders {
		if query.DateFrom != nil && query.DateTo != nil {
			if o.CreatedAt.Before(*query.DateFrom) || o.CreatedAt.After(*query.DateTo) {
				continue
			}
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdatePayment(_ context.Context, id string, status domain.PaymentStatus, ref string) (bool, error) {
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	o.PaymentStatus = status
	o.PaymentRef = ref
	o.UpdatedAt = time.Now()
	return true, nil
}

type fakeProductRepo struct {
	products map[string]*catalogdomain.Product
}

func (f *fakeProductRepo) Save(_ context.Context, p *catalogdomain.Product) error {
	cp := *p
	f.products[p.ProductID] = &cp
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *catalogdomain.Product) (bool, error) {
	if _, ok := f.products[p.ProductID]; !ok {
		return false, nil
	}
	cp := *p
	f.products[p.ProductID] = &cp
	return true, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*catalogdomain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) GetBySKU(_ context.Context, _ string) (*catalogdomain.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) List(_ context.Context, _ catalogdomain.ListFilter) ([]*catalogdomain.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) Categories(_ context.Context) ([]string, error) { return nil, nil }

func (f *fakeProductRepo) LowStock(_ context.Context) ([]*catalogdomain.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, id string, qty int64) (bool, error) {
	p, ok := f.products[id]
	if !ok || p.StockQuantity < qty {
		return false, nil
	}
	p.StockQuantity -= qty
	return true, nil
}

func (f *fakeProductRepo) AdjustStock(_ context.Context, id string, delta int64) (bool, error) {
	p, ok := f.products[id]
	if !ok || p.StockQuantity+delta < 0 {
		return false, nil
	}
	p.StockQuantity += delta
	return true, nil
}

func (f *fakeProductRepo) Deactivate(_ context.Context, _ string) (bool, error) { return false, nil }

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

type fakeMovementRepo struct {
	movements []*inventorydomain.Movement
}

func (f *fakeMovementRepo) Append(_ context.Context, m *inventorydomain.Movement) error {
	cp := *m
	f.movements = append(f.movements, &cp)
	return nil
}

func (f *fakeMovementRepo) ListByProduct(_ context.Context, _ string, _ int) ([]*inventorydomain.Movement, error) {
	return nil, nil
}

func (f *fakeMovementRepo) ListRecent(_ context.Context, _ int) ([]*inventorydomain.Movement, error) {
	return nil, nil
}

type publishedEvent struct {
	eventType string
	payload   any
}

type fakePublisher struct {
	events []publishedEvent
	fail   bool
}

func (f *fakePublisher) Publish(_ context.Context, eventType string, payload any) error {
	if f.fail {
		return errors.New("publish failed")
	}
	f.events = append(f.events, publishedEvent{eventType: eventType, payload: payload})
	return nil
}

// fixture 聚合全部假仓储；fakeTx 在函数失败时恢复快照，模拟数据库回滚
type fixture struct {
	orders    *fakeOrderRepo
	products  *fakeProductRepo
	customers *fakeCustomerRepo
	movements *fakeMovementRepo
	publisher *fakePublisher
	svc       *OrderService
}

type snapshot struct {
	orders    map[string]*domain.Order
	products  map[string]*catalogdomain.Product
	movements []*inventorydomain.Movement
	events    []publishedEvent
}

type fakeTx struct {
	f *fixture
}

func (t *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.f.takeSnapshot()
	if err := fn(ctx); err != nil {
		t.f.restore(snap)
		return err
	}
	return nil
}

func (f *fixture) takeSnapshot() snapshot {
	snap := snapshot{
		orders:    make(map[string]*domain.Order, len(f.orders.orders)),
		products:  make(map[string]*catalogdomain.Product, len(f.products.products)),
		movements: append([]*inventorydomain.Movement(nil), f.movements.movements...),
		events:    append([]publishedEvent(nil), f.publisher.events...),
	}
	for k, v := range f.orders.orders {
		cp := *v
		snap.orders[k] = &cp
	}
	for k, v := range f.products.products {
		cp := *v
		snap.products[k] = &cp
	}
	return snap
}

func (f *fixture) restore(snap snapshot) {
	f.orders.orders = snap.orders
	f.products.products = snap.products
	f.movements.movements = snap.movements
	f.publisher.events = snap.events
}

func newFixture() *fixture {
	f := &fixture{
		orders:    &fakeOrderRepo{orders: make(map[string]*domain.Order)},
		products:  &fakeProductRepo{products: make(map[string]*catalogdomain.Product)},
		customers: &fakeCustomerRepo{customers: make(map[string]*customerdomain.Customer)},
		movements: &fakeMovementRepo{},
		publisher: &fakePublisher{},
	}
	f.svc = NewOrderService(f.orders, f.products, f.customers, f.movements, f.publisher, &fakeTx{f: f}, nil)
	return f
}

func (f *fixture) addProduct(id string, price, stock int64) {
	f.products.products[id] = &catalogdomain.Product{
		ProductID:     id,
		Name:          "Product " + id,
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
}

func cashCommand(cart ...CartItem) CreateOrderCommand {
	return CreateOrderCommand{
		Cart:          cart,
		PaymentMethod: "cash",
		CashierID:     "cashier-1",
		CashierName:   "Cashier One",
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 350, 10)

	order, err := f.svc.CreateOrder(context.Background(), cashCommand(CartItem{ProductID: "p1", Quantity: 2, UnitPrice: 350}))
	require.NoError(t, err)

	assert.Equal(t, int64(700), order.Subtotal)
	assert.Equal(t, int64(56), order.Tax)
	assert.Equal(t, int64(756), order.Total)
	assert.Equal(t, domain.PaymentPending, order.PaymentStatus)
	assert.Regexp(t, `^ORD-\d{14}-[0-9A-F]{8}$`, order.OrderNumber)

	assert.Equal(t, int64(8), f.products.products["p1"].StockQuantity)

	require.Len(t, f.movements.movements, 1)
	movement := f.movements.movements[0]
	assert.Equal(t, inventorydomain.MovementSale, movement.Type)
	assert.Equal(t, int64(-2), movement.Quantity)
	assert.Equal(t, order.OrderID, movement.ReferenceID)
	assert.Equal(t, "cashier-1", movement.UserID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, domain.EventOrderCreated, f.publisher.events[0].eventType)
}

func TestCreateOrderOneMovementPerItem(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 100, 10)
	f.addProduct("p2", 200, 10)
	f.addProduct("p3", 300, 10)

	order, err := f.svc.CreateOrder(context.Background(), cashCommand(
		CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 100},
		CartItem{ProductID: "p2", Quantity: 2, UnitPrice: 200},
		CartItem{ProductID: "p3", Quantity: 3, UnitPrice: 300},
	))
	require.NoError(t, err)
	require.Len(t, f.movements.movements, 3)
	for i, m := range f.movements.movements {
		assert.Equal(t, order.OrderID, m.ReferenceID)
		assert.Equal(t, -order.Items[i].Quantity, m.Quantity)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateOrder(context.Background(), cashCommand())
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateOrderInvalidPaymentMethod(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 100, 10)

	cmd := cashCommand(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 100})
	cmd.PaymentMethod = "check"
	_, err := f.svc.CreateOrder(context.Background(), cmd)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateOrderPriceMismatch(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 350, 10)

	_, err := f.svc.CreateOrder(context.Background(), cashCommand(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 300}))
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "price_mismatch", apperr.CodeOf(err))

	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.movements.movements)
	assert.Equal(t, int64(10), f.products.products["p1"].StockQuantity)
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 350, 10)
	f.products.products["p1"].IsActive = false

	_, err := f.svc.CreateOrder(context.Background(), cashCommand(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 350}))
	assert.Equal(t, "product_unavailable", apperr.CodeOf(err))
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateOrder(context.Background(), cashCommand(CartItem{ProductID: "ghost", Quantity: 1, UnitPrice: 100}))
	assert.Equal(t, "product_unavailable", apperr.CodeOf(err))
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 100, 10)
	f.addProduct("p2", 200, 1)

	_, err := f.svc.CreateOrder(context.Background(), cashCommand(
		CartItem{ProductID: "p1", Quantity: 2, UnitPrice: 100},
		CartItem{ProductID: "p2", Quantity: 5, UnitPrice: 200},
	))
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "insufficient_stock", apperr.CodeOf(err))

	// 整体回滚：没有订单、没有流水、库存原样
	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.movements.movements)
	assert.Equal(t, int64(10), f.products.products["p1"].StockQuantity)
	assert.Equal(t, int64(1), f.products.products["p2"].StockQuantity)
}

func TestCreateOrderPublishFailureRollsBack(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 100, 10)
	f.publisher.fail = true

	_, err := f.svc.CreateOrder(context.Background(), cashCommand(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 100}))
	require.Error(t, err)

	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.movements.movements)
	assert.Equal(t, int64(10), f.products.products["p1"].StockQuantity)
}

func TestCreateOrderDiscount(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 1000, 10)

	cmd := cashCommand(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 1000})
	cmd.Discount = 80
	order, err := f.svc.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), order.Total)

	cmd.Discount = 2000
	_, err = f.svc.CreateOrder(context.Background(), cmd)
	assert.Equal(t, "invalid_discount", apperr.CodeOf(err))
}

func TestCreateOrderCustomerName(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 100, 10)
	f.customers.customers["c1"] = &customerdomain.Customer{CustomerID: "c1", Name: "Alice"}

	cmd := cashCommand(CartItem{ProductID: "p1", Quantity: 1, UnitPrice: 100})
	cmd.CustomerID = "c1"
	order, err := f.svc.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, "Alice", order.CustomerName)

	// 未知会员不阻断下单
	cmd.CustomerID = "missing"
	order, err = f.svc.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)
	assert.Empty(t, order.CustomerName)
}

func TestListOrdersDateFilter(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.orders.orders["o1"] = &domain.Order{OrderID: "o1", CreatedAt: now.Add(-48 * time.Hour)}
	f.orders.orders["o2"] = &domain.Order{OrderID: "o2", CreatedAt: now}

	// 只有一端时不过滤
	all, err := f.svc.ListOrders(context.Background(), now.Add(-time.Hour).Format(time.RFC3339), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := f.svc.ListOrders(context.Background(),
		now.Add(-time.Hour).Format(time.RFC3339), now.Add(time.Hour).Format(time.RFC3339))
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "o2", filtered[0].OrderID)

	_, err = f.svc.ListOrders(context.Background(), "not-a-date", now.Format(time.RFC3339))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetOrder(context.Background(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
