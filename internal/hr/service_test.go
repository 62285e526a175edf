package hr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	employees map[int64]*Employee
	nextID    int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{employees: make(map[int64]*Employee), nextID: 1}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListRequest) ([]Employee, int, error) {
	var result []Employee
	for _, e := range m.employees {
		if req.IsActive != nil && e.IsActive != *req.IsActive {
			continue
		}
		result = append(result, *e)
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(ctx context.Context, e Employee) (int64, error) {
	e.ID = m.nextID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.nextID++
	m.employees[e.ID] = &e
	return e.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	e, ok := m.employees[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["role"]; ok {
		e.Role = v.(string)
	}
	if v, ok := updates["is_active"]; ok {
		e.IsActive = v.(bool)
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.employees[id]; !ok {
		return ErrNotFound
	}
	delete(m.employees, id)
	return nil
}

func TestCreateEmployeeDefaults(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	employee, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Naledi",
		LastName:  "Mokgosi",
		Role:      "Butcher",
	})
	require.NoError(t, err)
	assert.True(t, employee.IsActive, "new staff should start active")
	assert.False(t, employee.DateJoined.IsZero(), "joining date should default to today")
	assert.Equal(t, "Naledi Mokgosi", employee.FullName())
}

func TestCreateEmployeeRequiresRole(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{FirstName: "No", LastName: "Role"})
	assert.Error(t, err)
}

func TestDeactivateEmployee(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{FirstName: "Kago", LastName: "Tau", Role: "Cashier"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	after, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, after.IsActive)
}

func TestListActiveEmployeesOnly(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	a, err := svc.Create(context.Background(), CreateInput{FirstName: "A", LastName: "One", Role: "Butcher"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{FirstName: "B", LastName: "Two", Role: "Driver"})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), a.ID))

	active := true
	list, total, err := svc.List(context.Background(), ListRequest{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].FirstName)
	assert.Equal(t, "Two", list[0].LastName)
}
