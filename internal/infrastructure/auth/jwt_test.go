package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wishup-shore/booking-system-backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "booking-test",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()

	token, expiresAt, err := svc.GenerateToken("42", "alice", RoleStaff)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.IsStaff())
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_GenerateToken_Rejects(t *testing.T) {
	svc := newTestJWTService()

	_, _, err := svc.GenerateToken("", "alice", RoleStaff)
	assert.ErrorIs(t, err, ErrMissingUserID)

	_, _, err = svc.GenerateToken("1", "alice", Role("admin"))
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestJWTService_ValidateToken(t *testing.T) {
	svc := newTestJWTService()
	viewer, _, err := svc.GenerateToken("7", "bob", RoleViewer)
	require.NoError(t, err)

	t.Run("viewer is not staff", func(t *testing.T) {
		claims, err := svc.ValidateToken(viewer)
		require.NoError(t, err)
		assert.False(t, claims.IsStaff())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret", Issuer: "booking-test", AccessTokenExpiration: time.Minute})
		_, err := other.ValidateToken(viewer)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else", AccessTokenExpiration: time.Minute})
		_, err := other.ValidateToken(viewer)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := newTestJWTService()
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := past.GenerateToken("7", "bob", RoleViewer)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		future := newTestJWTService()
		future.now = func() time.Time { return time.Now().Add(time.Hour) }
		token, _, err := future.GenerateToken("7", "bob", RoleViewer)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("other signing method", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: "1", Role: RoleStaff}).
			SignedString([]byte("test-secret-key-at-least-32-chars"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing role", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "booking-test", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
			UserID:           "1",
		}).SignedString([]byte("test-secret-key-at-least-32-chars"))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidRole)
	})
}
