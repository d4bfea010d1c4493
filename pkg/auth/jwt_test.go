package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestPair(t *testing.T, expiry time.Duration) (*JWTGenerator, *JWTValidator) {
	t.Helper()

	gen, err := NewJWTGenerator(JWTGeneratorConfig{
		SecretKey:  testSecret,
		Issuer:     "keepwise",
		Audience:   []string{"keepwise-api"},
		ExpiryTime: expiry,
	})
	require.NoError(t, err)

	val, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "keepwise",
		Audience:      []string{"keepwise-api"},
	})
	require.NoError(t, err)

	return gen, val
}

func TestJWT_RoundTrip(t *testing.T) {
	gen, val := newTestPair(t, time.Hour)

	token, err := gen.GenerateToken("user-1", "u1@example.com", []string{"member"})
	require.NoError(t, err)

	claims, err := val.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
}

func TestJWT_Rejections(t *testing.T) {
	gen, val := newTestPair(t, time.Hour)

	t.Run("empty token", func(t *testing.T) {
		_, err := val.ValidateToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTGenerator(JWTGeneratorConfig{SecretKey: "other", Issuer: "keepwise", Audience: []string{"keepwise-api"}})
		require.NoError(t, err)
		token, err := other.GenerateToken("user-1", "", nil)
		require.NoError(t, err)

		_, err = val.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, _ := newTestPair(t, -time.Minute)
		token, err := expired.GenerateToken("user-1", "", nil)
		require.NoError(t, err)

		_, err = val.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, err := NewJWTGenerator(JWTGeneratorConfig{SecretKey: testSecret, Issuer: "keepwise", Audience: []string{"elsewhere"}})
		require.NoError(t, err)
		token, err := other.GenerateToken("user-1", "", nil)
		require.NoError(t, err)

		_, err = val.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("missing subject", func(t *testing.T) {
		_, err := gen.GenerateToken("", "", nil)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "user-1"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.UserID)
}

func TestSlidingWindowLimiter(t *testing.T) {
	limiter := NewSlidingWindowLimiter(2, time.Minute)
	now := time.Now()
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, _ := limiter.Allow(ctx, "k")
	assert.False(t, ok)

	now = now.Add(61 * time.Second)
	ok, _ = limiter.Allow(ctx, "k")
	assert.True(t, ok)
}
