package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), 30*time.Minute)

	token, err := svc.Issue("user-1", "alice@example.com", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)
}

func TestTokenService_VerifyExpired(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), 30*time.Minute)

	token, err := svc.Issue("user-1", "alice@example.com", "Alice")
	require.NoError(t, err)

	// Move the clock past the expiry
	svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_VerifyBeforeExpiry(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), 30*time.Minute)

	token, err := svc.Issue("user-1", "alice@example.com", "Alice")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(29 * time.Minute) }

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestTokenService_VerifyTampered(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), 30*time.Minute)
	other := NewTokenService([]byte("different-secret"), 30*time.Minute)

	token, err := other.Issue("user-1", "alice@example.com", "Alice")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenBadSignature)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_VerifyMalformed(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), 30*time.Minute)

	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_VerifyMissing(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), 30*time.Minute)

	for _, token := range []string{"", "   "} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMissing)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}

func TestTokenService_CausesAreDistinguishable(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), time.Minute)

	_, err := svc.Verify("")
	assert.False(t, errors.Is(err, ErrTokenExpired))
	assert.False(t, errors.Is(err, ErrTokenMalformed))
	assert.True(t, errors.Is(err, ErrTokenMissing))
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("s3cret")
	require.NoError(t, err)
	h2, err := HashPassword("s3cret")
	require.NoError(t, err)

	// Same password, different salt, different hash
	assert.NotEqual(t, h1, h2)
	assert.True(t, VerifyPassword("s3cret", h1))
	assert.True(t, VerifyPassword("s3cret", h2))
}

func TestVerifyPassword_BadEncoding(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"wrong scheme", "bcrypt$10$abc$def"},
		{"missing parts", "pbkdf2-sha256$29000$onlysalt"},
		{"bad iterations", "pbkdf2-sha256$zero$c2FsdA$a2V5"},
		{"bad salt encoding", "pbkdf2-sha256$29000$!!!$a2V5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, VerifyPassword("s3cret", tt.encoded))
		})
	}
}
