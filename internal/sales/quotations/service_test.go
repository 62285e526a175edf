package quotations

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgomo-bms/kgomo-bms/internal/crm/customers"
	"github.com/kgomo-bms/kgomo-bms/internal/shared"
)

type mockRepository struct {
	quotations map[int64]*Quotation
	items      map[int64][]QuotationItem
	seq        int64
	nextID     int64
	nextItemID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quotations: make(map[int64]*Quotation),
		items:      make(map[int64][]QuotationItem),
		nextID:     1,
		nextItemID: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &mockTxRepository{m})
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Quotation, error) {
	q, ok := m.quotations[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *q
	copied.Items = append([]QuotationItem(nil), m.items[id]...)
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Quotation, int, error) {
	var result []Quotation
	for _, q := range m.quotations {
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		result = append(result, *q)
	}
	return result, len(result), nil
}

type mockTxRepository struct {
	m *mockRepository
}

func (t *mockTxRepository) NextNumber(ctx context.Context) (string, error) {
	t.m.seq++
	return shared.QuotationNumbers.Format(t.m.seq), nil
}

func (t *mockTxRepository) Insert(ctx context.Context, q Quotation) (int64, error) {
	q.ID = t.m.nextID
	t.m.nextID++
	t.m.quotations[q.ID] = &q
	return q.ID, nil
}

func (t *mockTxRepository) InsertItem(ctx context.Context, item QuotationItem) (int64, error) {
	item.ID = t.m.nextItemID
	t.m.nextItemID++
	t.m.items[item.QuotationID] = append(t.m.items[item.QuotationID], item)
	return item.ID, nil
}

func (t *mockTxRepository) DeleteItem(ctx context.Context, quotationID, itemID int64) error {
	items := t.m.items[quotationID]
	for i, item := range items {
		if item.ID == itemID {
			t.m.items[quotationID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (t *mockTxRepository) GetForUpdate(ctx context.Context, id int64) (*Quotation, error) {
	q, ok := t.m.quotations[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (t *mockTxRepository) SetStatus(ctx context.Context, id int64, status QuotationStatus) error {
	t.m.quotations[id].Status = status
	return nil
}

func (t *mockTxRepository) RecalcTotal(ctx context.Context, id int64) error {
	total := 0.0
	for _, item := range t.m.items[id] {
		total += shared.LineTotal(item.Quantity, item.UnitPrice)
	}
	t.m.quotations[id].TotalAmount = total
	return nil
}

func (t *mockTxRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := t.m.quotations[id]; !ok {
		return ErrNotFound
	}
	delete(t.m.quotations, id)
	delete(t.m.items, id)
	return nil
}

type mockCustomerRepo struct {
	known map[int64]bool
}

func (m *mockCustomerRepo) Get(ctx context.Context, id int64) (*customers.Customer, error) {
	if !m.known[id] {
		return nil, customers.ErrNotFound
	}
	return &customers.Customer{ID: id, Name: "Customer"}, nil
}

func (m *mockCustomerRepo) List(ctx context.Context, req customers.ListRequest) ([]customers.Customer, int, error) {
	return nil, 0, nil
}

func (m *mockCustomerRepo) Create(ctx context.Context, c customers.Customer) (int64, error) {
	return 0, nil
}

func (m *mockCustomerRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	return nil
}

func (m *mockCustomerRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	return NewService(repo, &mockCustomerRepo{known: map[int64]bool{1: true}}), repo
}

func TestCreateQuotation(t *testing.T) {
	svc, _ := newTestService()

	quotation, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items: []ItemInput{
			{ProductID: 10, Quantity: 3, UnitPrice: 55},
			{ProductID: 11, Quantity: 1, UnitPrice: 800},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, quotation.Status)
	assert.Equal(t, "Q-0001", quotation.Number)
	assert.Equal(t, 3*55.0+800.0, quotation.TotalAmount)
}

func TestCreateQuotationNumbersIncrease(t *testing.T) {
	svc, _ := newTestService()

	seen := make(map[string]bool)
	for i := 0; i < 4; i++ {
		q, err := svc.Create(context.Background(), CreateInput{
			CustomerID: 1,
			Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 10}},
		})
		require.NoError(t, err)
		assert.False(t, seen[q.Number], "number %s repeated", q.Number)
		seen[q.Number] = true
		assert.Equal(t, fmt.Sprintf("Q-%04d", i+1), q.Number)
	}
}

func TestCreateQuotationUnknownCustomer(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 7,
		Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 10}},
	})
	assert.ErrorIs(t, err, customers.ErrNotFound)
}

func TestCreateQuotationWithoutItems(t *testing.T) {
	svc, _ := newTestService()

	q, err := svc.Create(context.Background(), CreateInput{CustomerID: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, q.Status)
	assert.Equal(t, "Q-0001", q.Number)
	assert.Zero(t, q.TotalAmount)
	assert.Empty(t, q.Items)

	after, err := svc.AddItem(context.Background(), q.ID, ItemInput{ProductID: 10, Quantity: 2, UnitPrice: 60})
	require.NoError(t, err)
	assert.Equal(t, 120.0, after.TotalAmount)
}

func TestAddItemOnDraft(t *testing.T) {
	svc, _ := newTestService()

	q, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	after, err := svc.AddItem(context.Background(), q.ID, ItemInput{ProductID: 11, Quantity: 2, UnitPrice: 50})
	require.NoError(t, err)
	assert.Equal(t, 200.0, after.TotalAmount)
}

func TestItemEditsAllowedAfterSend(t *testing.T) {
	svc, _ := newTestService()

	q, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), q.ID, StatusSent)
	require.NoError(t, err)

	after, err := svc.AddItem(context.Background(), q.ID, ItemInput{ProductID: 11, Quantity: 1, UnitPrice: 10})
	require.NoError(t, err)
	assert.Equal(t, 110.0, after.TotalAmount)

	after, err = svc.RemoveItem(context.Background(), q.ID, after.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, after.TotalAmount)
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := newTestService()

	q, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	sent, err := svc.SetStatus(context.Background(), q.ID, StatusSent)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, sent.Status)

	accepted, err := svc.SetStatus(context.Background(), q.ID, StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)

	_, err = svc.SetStatus(context.Background(), q.ID, StatusRejected)
	assert.ErrorIs(t, err, ErrInvalidTransition, "accepted is terminal")
}

func TestDraftMustBeSentFirst(t *testing.T) {
	svc, _ := newTestService()

	q, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), q.ID, StatusAccepted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.SetStatus(context.Background(), q.ID, StatusRejected)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestItemSurvivesProductDeletion(t *testing.T) {
	svc, repo := newTestService()

	q, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items:      []ItemInput{{ProductID: 10, Quantity: 3, UnitPrice: 55}},
	})
	require.NoError(t, err)

	// Deleting a product nulls the reference and keeps the line.
	for i := range repo.items[q.ID] {
		repo.items[q.ID][i].ProductID = nil
	}

	after, err := svc.Get(context.Background(), q.ID)
	require.NoError(t, err)
	require.Len(t, after.Items, 1)
	assert.Nil(t, after.Items[0].ProductID)
	assert.Equal(t, 165.0, after.Items[0].LineTotal())
	assert.Equal(t, 165.0, after.TotalAmount)
}

func TestDeleteAcceptedQuotationBlocked(t *testing.T) {
	svc, _ := newTestService()

	q, err := svc.Create(context.Background(), CreateInput{
		CustomerID: 1,
		Items:      []ItemInput{{ProductID: 10, Quantity: 1, UnitPrice: 100}},
	})
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), q.ID, StatusSent)
	require.NoError(t, err)
	_, err = svc.SetStatus(context.Background(), q.ID, StatusAccepted)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), q.ID), ErrAccepted)
}
