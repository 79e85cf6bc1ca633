package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessClaims_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	signed, err := SignAccess(AccessClaims{
		Role:  RoleAdmin,
		Email: "bubba@cafeteria.mx",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(signed, secret)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "bubba@cafeteria.mx", claims.Email)

	_, err = AccessClaimsFromToken(signed, []byte("other"))
	assert.Error(t, err)
}

func TestAccessClaims_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	signed, err := SignAccess(AccessClaims{
		Role: RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(signed, secret)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestRefreshClaims_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-refresh-secret")
	signed, err := SignRefresh(RefreshClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ID:        "jti-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}, secret)
	require.NoError(t, err)

	claims, err := RefreshClaimsFromToken(signed, secret)
	require.NoError(t, err)
	assert.Equal(t, "jti-1", claims.ID)
}
