package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmatters/mindmatters-api/internal/models"
)

var testUser = models.User{ID: 42, Email: "ann@example.com", Role: models.RoleAdmin}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "issuer", time.Hour)

	raw, err := tm.Generate(testUser)
	require.NoError(t, err)

	claims, err := tm.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.True(t, claims.IsAdmin())
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", "issuer", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := tm.Generate(testUser)
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Verify(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenManager_RejectsWrongSecretAndIssuer(t *testing.T) {
	raw, err := NewTokenManager("secret", "issuer", time.Hour).Generate(testUser)
	require.NoError(t, err)

	_, err = NewTokenManager("other-secret", "issuer", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = NewTokenManager("secret", "other-issuer", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenManager_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID: 42,
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "issuer", time.Hour).Verify(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	_, err := NewTokenManager("secret", "issuer", time.Hour).Verify("not.a.token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
