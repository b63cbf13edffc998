package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)
	seller, shop := uuid.New(), uuid.New()

	token, err := m.GenerateToken(seller, shop, "Ana", RoleSeller)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, seller, claims.SellerID)
	assert.Equal(t, shop, claims.ShopID)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, RoleSeller, claims.Role)
	assert.Equal(t, issuer, claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestManager_RejectsBadTokens(t *testing.T) {
	m := NewManager("secret", time.Hour)

	other, err := NewManager("another-secret", time.Hour).GenerateToken(uuid.New(), uuid.New(), "Eve", RoleAdmin)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SellerID: uuid.New(),
		Role:     RoleSeller,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong secret": other,
		"expired":      expired,
		"alg none":     unsigned,
		"garbage":      "abc.def.ghi",
		"empty":        "",
	} {
		_, err := m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}

func TestNewManager_DefaultTTL(t *testing.T) {
	m := NewManager("secret", 0)
	assert.Equal(t, 24*time.Hour, m.ttl)
}
