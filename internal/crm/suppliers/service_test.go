package suppliers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	suppliers map[int64]*Supplier
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{suppliers: make(map[int64]*Supplier), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Supplier, int, error) {
	var result []Supplier
	for _, s := range m.suppliers {
		result = append(result, *s)
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(ctx context.Context, s Supplier) (int64, error) {
	s.ID = m.nextID
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	m.nextID++
	m.suppliers[s.ID] = &s
	return s.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	s, ok := m.suppliers[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		s.Name = v.(string)
	}
	if v, ok := updates["contact_person"]; ok {
		val := v.(string)
		s.ContactPerson = &val
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.suppliers[id]; !ok {
		return ErrNotFound
	}
	delete(m.suppliers, id)
	return nil
}

func TestCreateSupplier(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	contact := "Thabo"
	supplier, err := svc.Create(context.Background(), CreateInput{Name: "Lobatse Feedlot", ContactPerson: &contact})
	require.NoError(t, err)
	assert.Equal(t, "Lobatse Feedlot", supplier.Name)
	require.NotNil(t, supplier.ContactPerson)
	assert.Equal(t, "Thabo", *supplier.ContactPerson)
}

func TestCreateSupplierRequiresName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{})
	assert.Error(t, err)
	assert.Empty(t, repo.suppliers)
}

func TestUpdateSupplierContact(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Name: "Lobatse Feedlot"})
	require.NoError(t, err)

	contact := "Kabo"
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{ContactPerson: &contact})
	require.NoError(t, err)
	require.NotNil(t, updated.ContactPerson)
	assert.Equal(t, "Kabo", *updated.ContactPerson)
}

func TestDeleteSupplier(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Name: "One Off"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), created.ID), ErrNotFound)
}
