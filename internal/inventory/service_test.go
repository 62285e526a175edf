package inventory

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	products map[int64]*Product
	onOrders map[int64]bool
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		products: make(map[int64]*Product),
		onOrders: make(map[int64]bool),
		nextID:   1,
	}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepository) GetByCode(ctx context.Context, code string) (*Product, error) {
	for _, p := range m.products {
		if p.Code == code {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Product, int, error) {
	var result []Product
	for _, p := range m.products {
		if req.Animal != nil && p.Animal != *req.Animal {
			continue
		}
		result = append(result, *p)
	}
	return result, len(result), nil
}

func (m *mockRepository) LowStock(ctx context.Context, threshold, limit int) ([]Product, error) {
	var result []Product
	for _, p := range m.products {
		if p.Stock <= threshold {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Stock < result[j].Stock })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockRepository) Create(ctx context.Context, p Product) (int64, error) {
	p.ID = m.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.nextID++
	m.products[p.ID] = &p
	return p.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	p, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["stock"]; ok {
		p.Stock = v.(int)
	}
	if v, ok := updates["selling_price"]; ok {
		p.SellingPrice = v.(float64)
	}
	if v, ok := updates["weight_kg"]; ok {
		p.WeightKG = v.(float64)
	}
	if v, ok := updates["animal_type"]; ok {
		p.Animal = v.(AnimalType)
	}
	if v, ok := updates["meat_cut"]; ok {
		p.Cut = v.(MeatCut)
	}
	if v, ok := updates["cost_price"]; ok {
		p.CostPrice = v.(float64)
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	if m.onOrders[id] {
		return &pgconn.PgError{Code: "23503", ConstraintName: "purchase_order_items_product_id_fkey"}
	}
	delete(m.products, id)
	return nil
}

func TestCreateProductDefaults(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	product, err := svc.Create(context.Background(), CreateInput{
		Animal:       AnimalCow,
		Cut:          CutBeef,
		WeightKG:     180,
		CostPrice:    38.50,
		SellingPrice: 55.00,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, product.Stock, "stock should default to a single carcass")
	assert.NotEmpty(t, product.Code)
	assert.Len(t, product.Code, 36, "code should be a UUID")
}

func TestCreateProductUniqueCodes(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	first, err := svc.Create(context.Background(), CreateInput{Animal: AnimalGoat, Cut: CutGoatMeat, WeightKG: 14})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateInput{Animal: AnimalGoat, Cut: CutGoatMeat, WeightKG: 14})
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)
}

func TestCreateProductRejectsUnknownAnimal(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{Animal: "Buffalo", Cut: CutBeef, WeightKG: 100})
	assert.ErrorIs(t, err, ErrInvalidAnimal)
}

func TestCreateProductRejectsUnknownCut(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{Animal: AnimalPig, Cut: "Bacon", WeightKG: 60})
	assert.ErrorIs(t, err, ErrInvalidCut)
}

func TestCreateProductRejectsZeroWeight(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{Animal: AnimalPig, Cut: CutPork, WeightKG: 0})
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	p := Product{Animal: AnimalCow, Cut: CutBeef, WeightKG: 12.5}
	assert.Equal(t, "Cow - Beef (12.5 kg)", p.DisplayName())

	whole := Product{Animal: AnimalChicken, Cut: CutWhole, WeightKG: 2}
	assert.Equal(t, "Chicken - Whole (2 kg)", whole.DisplayName())
}

func TestPackTotals(t *testing.T) {
	p := Product{WeightKG: 12.5, CostPrice: 40, SellingPrice: 65}
	assert.Equal(t, 500.0, p.TotalCost())
	assert.Equal(t, 812.5, p.TotalSellingPrice())
}

func TestLabelFields(t *testing.T) {
	printed := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	p := Product{
		Code:         "7b0c8f3e-9f2a-4a8f-9d11-0a4f5b6c7d8e",
		Animal:       AnimalSheep,
		Cut:          CutMutton,
		WeightKG:     18,
		SellingPrice: 72.00,
	}
	label := p.Label(printed)
	assert.Equal(t, "7B0C8F3E", label.Code)
	assert.Equal(t, "Sheep - Mutton (18 kg)", label.Name)
	assert.Equal(t, "Sheep", label.Animal)
	assert.Equal(t, "Mutton", label.Cut)
	assert.Equal(t, 72.00, label.SellingPrice)
	assert.Equal(t, printed, label.PrintedAt)
}

func TestDeleteProductOnOrdersBlocked(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	product, err := svc.Create(context.Background(), CreateInput{Animal: AnimalCow, Cut: CutBeef, WeightKG: 10})
	require.NoError(t, err)
	repo.onOrders[product.ID] = true

	assert.ErrorIs(t, svc.Delete(context.Background(), product.ID), ErrInUse)

	repo.onOrders[product.ID] = false
	require.NoError(t, svc.Delete(context.Background(), product.ID))
}

func TestLowStockOrdering(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	for _, stock := range []int{7, 2, 5, 0, 3} {
		s := stock
		_, err := svc.Create(context.Background(), CreateInput{Animal: AnimalCow, Cut: CutBeef, WeightKG: 10, Stock: &s})
		require.NoError(t, err)
	}

	low, err := svc.LowStock(context.Background(), 5, 3)
	require.NoError(t, err)
	require.Len(t, low, 3)
	assert.Equal(t, 0, low[0].Stock)
	assert.Equal(t, 2, low[1].Stock)
	assert.Equal(t, 3, low[2].Stock)
}
