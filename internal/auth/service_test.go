package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaignly/campaignly/internal/models"
	"github.com/campaignly/campaignly/internal/repository"
)

// memUserStore is an in-memory UserStore for tests.
type memUserStore struct {
	byEmail map[string]*models.User
	nextID  int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byEmail: make(map[string]*models.User)}
}

func (m *memUserStore) FindByEmail(email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (m *memUserStore) Create(u *models.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return repository.ErrDuplicateUser
	}
	m.nextID++
	u.ID = fmt.Sprintf("user-%d", m.nextID)
	u.CreatedAt = time.Now().UTC()
	copy := *u
	m.byEmail[u.Email] = &copy
	return nil
}

func (m *memUserStore) UpdateLastLogin(id string, at time.Time) error {
	for _, u := range m.byEmail {
		if u.ID == id {
			u.LastLogin = &at
			return nil
		}
	}
	return nil
}

func newTestService() (*Service, *memUserStore) {
	store := newMemUserStore()
	tokens := NewTokenService([]byte("test-secret-key"), 30*time.Minute)
	return NewService(store, tokens), store
}

func TestService_RegisterThenLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	err := svc.Register(ctx, "alice@example.com", "s3cret", "Alice")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "Alice", session.Name)

	// The verified token carries the same subject the login reported
	subject, err := svc.CheckSession(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, subject)
}

func TestService_RegisterDuplicate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice@example.com", "s3cret", "Alice"))

	err := svc.Register(ctx, "alice@example.com", "different", "Other Alice")
	assert.ErrorIs(t, err, repository.ErrDuplicateUser)
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	assert.Error(t, svc.Register(ctx, "not-an-email", "s3cret", "Alice"))
	assert.Error(t, svc.Register(ctx, "alice@example.com", "", "Alice"))
	assert.Error(t, svc.Register(ctx, "alice@example.com", "s3cret", ""))
}

func TestService_LoginWrongPassword(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice@example.com", "s3cret", "Alice"))

	_, err := svc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// A failed login must not stamp last_login
	u, err := store.FindByEmail("alice@example.com")
	require.NoError(t, err)
	assert.Nil(t, u.LastLogin)
}

func TestService_LoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Login(context.Background(), "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_LoginStampsLastLogin(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "alice@example.com", "s3cret", "Alice"))
	_, err := svc.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)

	u, err := store.FindByEmail("alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u.LastLogin)
	assert.WithinDuration(t, time.Now().UTC(), *u.LastLogin, time.Minute)
}

func TestService_CheckSessionInvalid(t *testing.T) {
	svc, _ := newTestService()

	for _, token := range []string{"", "garbage"} {
		_, err := svc.CheckSession(token)
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "first.last+tag@sub.example.com", "x_y-z@host.org"}
	invalid := []string{"", "plain", "@host.com", "user@", "user@host", "user @host.com"}

	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}
