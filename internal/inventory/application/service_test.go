package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	catalogdomain "github.com/wyfcoding/pointofsale/internal/catalog/domain"
	"github.com/wyfcoding/pointofsale/internal/inventory/domain"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
)

type fakeMovementRepo struct {
	movements []*domain.Movement
}

func (f *fakeMovementRepo) Append(_ context.Context, m *domain.Movement) error {
	cp := *m
	f.movements = append(f.movements, &cp)
	return nil
}

func (f *fakeMovementRepo) ListByProduct(_ context.Context, productID string, limit int) ([]*domain.Movement, error) {
	var out []*domain.Movement
	for i := len(f.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if f.movements[i].ProductID == productID {
			out = append(out, f.movements[i])
		}
	}
	return out, nil
}

func (f *fakeMovementRepo) ListRecent(_ context.Context, limit int) ([]*domain.Movement, error) {
	var out []*domain.Movement
	for i := len(f.movements) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.movements[i])
	}
	return out, nil
}

type fakeProductRepo struct {
	products map[string]*catalogdomain.Product
}

func (f *fakeProductRepo) Save(_ context.Context, p *catalogdomain.Product) error {
	cp := *p
	f.products[p.ProductID] = &cp
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, _ *catalogdomain.Product) (bool, error) {
	return false, nil
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
	return f.AdjustStock(nil, id, -qty)
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

// fixture 聚合假仓储；fakeTx 在函数失败时恢复快照，模拟数据库回滚
type fixture struct {
	movements *fakeMovementRepo
	products  *fakeProductRepo
	svc       *InventoryService
}

type snapshot struct {
	movements []*domain.Movement
	products  map[string]*catalogdomain.Product
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
		movements: append([]*domain.Movement(nil), f.movements.movements...),
		products:  make(map[string]*catalogdomain.Product, len(f.products.products)),
	}
	for k, v := range f.products.products {
		cp := *v
		snap.products[k] = &cp
	}
	return snap
}

func (f *fixture) restore(snap snapshot) {
	f.movements.movements = snap.movements
	f.products.products = snap.products
}

func newFixture() *fixture {
	f := &fixture{
		movements: &fakeMovementRepo{},
		products:  &fakeProductRepo{products: make(map[string]*catalogdomain.Product)},
	}
	f.svc = NewInventoryService(f.movements, f.products, &fakeTx{f: f}, nil)
	return f
}

func (f *fixture) addProduct(id string, stock int64) {
	f.products.products[id] = &catalogdomain.Product{
		ProductID:     id,
		Name:          "Product " + id,
		SKU:           "SKU-" + id,
		StockQuantity: stock,
		IsActive:      true,
	}
}

func TestAppendMovementPurchaseIncreasesStock(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 5)

	m, err := f.svc.AppendMovement(context.Background(), AppendMovementCommand{
		ProductID:   "p1",
		Type:        domain.MovementPurchase,
		Quantity:    10,
		ReferenceID: "po-42",
		UserID:      "u1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, m.MovementID)
	require.Len(t, f.movements.movements, 1)
	assert.Equal(t, int64(10), f.movements.movements[0].Quantity)
	assert.Equal(t, int64(15), f.products.products["p1"].StockQuantity)
}

func TestAppendMovementSaleDecreasesStock(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 5)

	_, err := f.svc.AppendMovement(context.Background(), AppendMovementCommand{
		ProductID: "p1",
		Type:      domain.MovementSale,
		Quantity:  -2,
		UserID:    "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.products.products["p1"].StockQuantity)
}

func TestAppendMovementRejectsWrongSign(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 5)

	_, err := f.svc.AppendMovement(context.Background(), AppendMovementCommand{
		ProductID: "p1",
		Type:      domain.MovementSale,
		Quantity:  2,
		UserID:    "u1",
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Empty(t, f.movements.movements)
}

func TestAppendMovementUnknownProduct(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AppendMovement(context.Background(), AppendMovementCommand{
		ProductID: "missing",
		Type:      domain.MovementPurchase,
		Quantity:  10,
		UserID:    "u1",
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Empty(t, f.movements.movements)
}

func TestAppendMovementInsufficientStockRollsBack(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 5)

	_, err := f.svc.AppendMovement(context.Background(), AppendMovementCommand{
		ProductID: "p1",
		Type:      domain.MovementAdjustment,
		Quantity:  -10,
		Notes:     "shrinkage",
		UserID:    "u1",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, "insufficient_stock", apperr.CodeOf(err))

	// 整个事务回滚：流水不落库，库存不变
	assert.Empty(t, f.movements.movements)
	assert.Equal(t, int64(5), f.products.products["p1"].StockQuantity)
}

func TestListMovementsFiltersByProduct(t *testing.T) {
	f := newFixture()
	f.addProduct("p1", 5)
	f.addProduct("p2", 5)

	_, err := f.svc.AppendMovement(context.Background(), AppendMovementCommand{
		ProductID: "p1", Type: domain.MovementPurchase, Quantity: 10, UserID: "u1",
	})
	require.NoError(t, err)
	_, err = f.svc.AppendMovement(context.Background(), AppendMovementCommand{
		ProductID: "p2", Type: domain.MovementSale, Quantity: -1, UserID: "u1",
	})
	require.NoError(t, err)

	forP1, err := f.svc.ListMovements(context.Background(), "p1", 50)
	require.NoError(t, err)
	require.Len(t, forP1, 1)
	assert.Equal(t, "p1", forP1[0].ProductID)

	all, err := f.svc.ListMovements(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
