package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kgomo-bms/kgomo-bms/internal/shared"
)

type mockRepository struct {
	users    map[string]*User
	sessions map[string]int64
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:    make(map[string]*User),
		sessions: make(map[string]int64),
		nextID:   1,
	}
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) Create(ctx context.Context, user User) (int64, error) {
	user.ID = m.nextID
	m.nextID++
	m.users[user.Email] = &user
	return user.ID, nil
}

func (m *mockRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	m.sessions[id] = userID
	return nil
}

func (m *mockRepository) DeleteSession(ctx context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func seedUser(t *testing.T, repo *mockRepository, email, password string, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &User{ID: repo.nextID, Email: email, FullName: "Test User", PasswordHash: string(hash), IsActive: active}
	repo.nextID++
	repo.users[email] = user
	return user
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "owner@kgomo.local", "butchery-pass", true)

	svc := NewService(repo)
	user, err := svc.Authenticate(context.Background(), "owner@kgomo.local", "butchery-pass")
	require.NoError(t, err)
	assert.Equal(t, "owner@kgomo.local", user.Email)
}

func TestAuthenticateNormalisesEmail(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "owner@kgomo.local", "butchery-pass", true)

	svc := NewService(repo)
	_, err := svc.Authenticate(context.Background(), "  Owner@Kgomo.local ", "butchery-pass")
	assert.NoError(t, err)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "owner@kgomo.local", "butchery-pass", true)

	svc := NewService(repo)
	_, err := svc.Authenticate(context.Background(), "owner@kgomo.local", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "former@kgomo.local", "butchery-pass", false)

	svc := NewService(repo)
	_, err := svc.Authenticate(context.Background(), "former@kgomo.local", "butchery-pass")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	repo := newMockRepository()

	svc := NewService(repo)
	_, err := svc.Authenticate(context.Background(), "nobody@kgomo.local", "whatever")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMockRepository()

	svc := NewService(repo)
	id, err := svc.CreateUser(context.Background(), "New@Kgomo.local", " Naledi M ", "butchery-pass")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	stored := repo.users["new@kgomo.local"]
	require.NotNil(t, stored)
	assert.Equal(t, "Naledi M", stored.FullName)
	assert.NotEqual(t, "butchery-pass", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("butchery-pass")))
}
