package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/pointofsale/internal/catalog/domain"
	inventorydomain "github.com/wyfcoding/pointofsale/internal/inventory/domain"
	"github.com/wyfcoding/pointofsale/pkg/apperr"
)

type fakeProductRepo struct {
	products map[string]*domain.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*domain.Product)}
}

func (f *fakeProductRepo) Save(_ context.Context, p *domain.Product) error {
	cp := *p
	f.products[p.ProductID] = &cp
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *domain.Product) (bool, error) {
	if _, ok := f.products[p.ProductID]; !ok {
		return false, nil
	}
	cp := *p
	f.products[p.ProductID] = &cp
	return true, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*domain.Product, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeProductRepo) List(_ context.Context, filter domain.ListFilter) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range f.products {
		if !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(p.Name), needle) &&
				!strings.Contains(strings.ToLower(p.SKU), needle) &&
				!strings.Contains(strings.ToLower(p.Barcode), needle) {
				continue
			}
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeProductRepo) Categories(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range f.products {
		if p.IsActive && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) LowStock(_ context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range f.products {
		if p.IsActive && p.IsLowStock() {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
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

func (f *fakeProductRepo) Deactivate(_ context.Context, id string) (bool, error) {
	p, ok := f.products[id]
	if !ok || !p.IsActive {
		return false, nil
	}
	p.IsActive = false
	return true, nil
}

type fakeMovementRepo struct {
	movements []*inventorydomain.Movement
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{}
}

func (f *fakeMovementRepo) Append(_ context.Context, m *inventorydomain.Movement) error {
	cp := *m
	f.movements = append(f.movements, &cp)
	return nil
}

func (f *fakeMovementRepo) ListByProduct(_ context.Context, productID string, limit int) ([]*inventorydomain.Movement, error) {
	var out []*inventorydomain.Movement
	for _, m := range f.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovementRepo) ListRecent(_ context.Context, limit int) ([]*inventorydomain.Movement, error) {
	return f.movements, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() *CatalogService {
	return NewCatalogService(newFakeProductRepo(), newFakeMovementRepo(), passthroughTx{}, nil)
}

func validCommand() CreateProductCommand {
	return CreateProductCommand{
		Name:          "Espresso",
		Price:         350,
		Category:      "drinks",
		SKU:           "DRK-001",
		StockQuantity: 100,
		MinStockLevel: 10,
	}
}

func TestCreateProduct(t *testing.T) {
	svc := newTestService()

	p, err := svc.CreateProduct(context.Background(), validCommand())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ProductID)
	assert.True(t, p.IsActive)
	assert.Equal(t, int64(350), p.Price)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateProduct(context.Background(), validCommand())
	require.NoError(t, err)

	cmd := validCommand()
	cmd.Name = "Double Espresso"
	_, err = svc.CreateProduct(context.Background(), cmd)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestService()

	cmd := validCommand()
	cmd.Name = ""
	_, err := svc.CreateProduct(context.Background(), cmd)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	cmd = validCommand()
	cmd.Price = -1
	_, err = svc.CreateProduct(context.Background(), cmd)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateProductDefaultMinStockLevel(t *testing.T) {
	svc := newTestService()

	cmd := validCommand()
	cmd.MinStockLevel = 0
	p, err := svc.CreateProduct(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.MinStockLevel)
}

func TestUpdateProduct(t *testing.T) {
	svc := newTestService()

	p, err := svc.CreateProduct(context.Background(), validCommand())
	require.NoError(t, err)

	cmd := validCommand()
	cmd.Price = 400
	updated, err := svc.UpdateProduct(context.Background(), p.ProductID, cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(400), updated.Price)
}

func TestUpdateProductNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.UpdateProduct(context.Background(), "missing", validCommand())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateProductSKUConflict(t *testing.T) {
	svc := newTestService()

	first, err := svc.CreateProduct(context.Background(), validCommand())
	require.NoError(t, err)

	second := validCommand()
	second.SKU = "DRK-002"
	p2, err := svc.CreateProduct(context.Background(), second)
	require.NoError(t, err)

	cmd := validCommand()
	cmd.SKU = first.SKU
	_, err = svc.UpdateProduct(context.Background(), p2.ProductID, cmd)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestDeactivateProduct(t *testing.T) {
	repo := newFakeProductRepo()
	svc := NewCatalogService(repo, newFakeMovementRepo(), passthroughTx{}, nil)

	p, err := svc.CreateProduct(context.Background(), validCommand())
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateProduct(context.Background(), p.ProductID))

	list, err := svc.ListProducts(context.Background(), domain.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	err = svc.DeactivateProduct(context.Background(), p.ProductID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestListProductsSearch(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateProduct(context.Background(), validCommand())
	require.NoError(t, err)

	cmd := validCommand()
	cmd.Name = "Croissant"
	cmd.Category = "food"
	cmd.SKU = "FOOD-001"
	_, err = svc.CreateProduct(context.Background(), cmd)
	require.NoError(t, err)

	byName, err := svc.ListProducts(context.Background(), domain.ListFilter{Search: "crois"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Croissant", byName[0].Name)

	byCategory, err := svc.ListProducts(context.Background(), domain.ListFilter{Category: "drinks"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Espresso", byCategory[0].Name)
}

func TestLowStockProducts(t *testing.T) {
	svc := newTestService()

	cmd := validCommand()
	cmd.StockQuantity = 3
	cmd.MinStockLevel = 5
	_, err := svc.CreateProduct(context.Background(), cmd)
	require.NoError(t, err)

	healthy := validCommand()
	healthy.SKU = "DRK-002"
	healthy.StockQuantity = 50
	_, err = svc.CreateProduct(context.Background(), healthy)
	require.NoError(t, err)

	low, err := svc.LowStockProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "DRK-001", low[0].SKU)
}

func TestUpdateProductStockChangeRecordsAdjustment(t *testing.T) {
	movements := newFakeMovementRepo()
	svc := NewCatalogService(newFakeProductRepo(), movements, passthroughTx{}, nil)

	p, err := svc.CreateProduct(context.Background(), validCommand())
	require.NoError(t, err)

	cmd := validCommand()
	cmd.StockQuantity = 120
	cmd.ActorID = "admin-1"
	updated, err := svc.UpdateProduct(context.Background(), p.ProductID, cmd)
	require.NoError(t, err)
	assert.Equal(t, int64(120), updated.StockQuantity)

	require.Len(t, movements.movements, 1)
	m := movements.movements[0]
	assert.Equal(t, inventorydomain.MovementAdjustment, m.Type)
	assert.Equal(t, int64(20), m.Quantity)
	assert.Equal(t, p.ProductID, m.ProductID)
	assert.Equal(t, "admin-1", m.UserID)
}

func TestUpdateProductWithoutStockChangeRecordsNothing(t *testing.T) {
	movements := newFakeMovementRepo()
	svc := NewCatalogService(newFakeProductRepo(), movements, passthroughTx{}, nil)

	p, err := svc.CreateProduct(context.Background(), validCommand())
	require.NoError(t, err)

	cmd := validCommand()
	cmd.Price = 420
	_, err = svc.UpdateProduct(context.Background(), p.ProductID, cmd)
	require.NoError(t, err)

	assert.Empty(t, movements.movements)
}
