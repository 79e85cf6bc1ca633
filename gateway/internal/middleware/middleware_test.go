package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bubba_express/pkg/tokens"
)

var secret = []byte("screen-secret")

func TestScreen_SetsIdentity(t *testing.T) {
	t.Parallel()

	tok, err := tokens.SignAccess(tokens.AccessClaims{
		Role: tokens.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "staff-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}, secret)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: tok})
	c := e.NewContext(req, httptest.NewRecorder())

	var uid, role any
	err = Screen(secret)(func(c echo.Context) error {
		uid, role = c.Get(CtxUserID), c.Get(CtxRole)
		return nil
	})(c)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", uid)
	assert.Equal(t, tokens.RoleAdmin, role)
}

func TestScreen_MissingSubject(t *testing.T) {
	t.Parallel()

	tok, err := tokens.SignAccess(tokens.AccessClaims{
		Role:             tokens.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}, secret)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: tok})
	c := e.NewContext(req, httptest.NewRecorder())

	err = Screen(secret)(func(echo.Context) error { return nil })(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	t.Parallel()

	e := echo.New()
	h := RateLimit(0, 0)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_PerClient(t *testing.T) {
	t.Parallel()

	e := echo.New()
	h := RateLimit(1, 1)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	call := func(ip string) error {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.RemoteAddr = ip + ":5000"
		return h(e.NewContext(req, httptest.NewRecorder()))
	}

	require.NoError(t, call("10.0.0.1"))
	err := call("10.0.0.1")
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusTooManyRequests, he.Code)

	assert.NoError(t, call("10.0.0.2"))
}
