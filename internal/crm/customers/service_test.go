package customers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	customers map[int64]*Customer
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{customers: make(map[int64]*Customer), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Customer, int, error) {
	var result []Customer
	for _, c := range m.customers {
		if req.Search != nil && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(*req.Search)) {
			continue
		}
		result = append(result, *c)
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(ctx context.Context, c Customer) (int64, error) {
	c.ID = m.nextID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.nextID++
	m.customers[c.ID] = &c
	return c.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	c, ok := m.customers[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := updates["phone"]; ok {
		s := v.(string)
		c.Phone = &s
	}
	if v, ok := updates["email"]; ok {
		s := v.(string)
		c.Email = &s
	}
	if v, ok := updates["address"]; ok {
		s := v.(string)
		c.Address = &s
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.customers[id]; !ok {
		return ErrNotFound
	}
	delete(m.customers, id)
	return nil
}

func TestCreateCustomer(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	phone := "+267 71 234 567"
	customer, err := svc.Create(context.Background(), CreateInput{Name: "Mma Dithaba", Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Mma Dithaba", customer.Name)
	require.NotNil(t, customer.Phone)
	assert.Equal(t, phone, *customer.Phone)
}

func TestCreateCustomerRequiresName(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{})
	assert.Error(t, err)
	assert.Empty(t, repo.customers)
}

func TestCreateCustomerRejectsBadEmail(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	bad := "not-an-email"
	_, err := svc.Create(context.Background(), CreateInput{Name: "Rra Kwena", Email: &bad})
	assert.Error(t, err)
}

func TestUpdateCustomer(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Name: "Old Name"})
	require.NoError(t, err)

	newName := "New Name"
	updated, err := svc.Update(context.Background(), created.ID, UpdateInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
}

func TestUpdateMissingCustomer(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	name := "Ghost"
	_, err := svc.Update(context.Background(), 99, UpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCustomer(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{Name: "Short Lived"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	_, err = svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
