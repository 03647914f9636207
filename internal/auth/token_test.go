package auth

import (
	"testing"
	"time"

	"github.com/blues/catalyst/internal/config"
	"github.com/blues/catalyst/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(config.AuthConfig{JWTSecret: "s3cret", Issuer: "catalyst", TokenTTL: time.Hour})
	require.NoError(t, err)
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := newManager(t)

	token, err := m.Issue(42, model.RoleQC)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserId)
	assert.Equal(t, model.RoleQC, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	m := newManager(t)
	token, err := m.Issue(7, model.RoleDeveloper)
	require.NoError(t, err)

	other, err := NewTokenManager(config.AuthConfig{JWTSecret: "different", Issuer: "catalyst"})
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// 过期
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	m := newManager(t)
	claims := Claims{
		UserId: 1,
		Role:   model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "catalyst",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager(config.AuthConfig{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}
