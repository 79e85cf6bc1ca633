package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Skotchmaster/bubba_express/pkg/authclient"
	jwthelp "github.com/Skotchmaster/bubba_express/pkg/jwt"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/tokens"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Refresher is satisfied by *authclient.Client.
type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken, accessToken string) (*authclient.RefreshResponse, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret  []byte
	AuthClient Refresher
}

func NewAutoRefreshMiddleware(secret []byte, authClient Refresher) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret:  secret,
		AuthClient: authClient,
	}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

// RequireAdmin admits staff only.
func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if !claims.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessCookie, err := c.Cookie(jwthelp.AccessCookie)
		if err != nil || accessCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(accessCookie.Value, m.JWTSecret)
		if err == nil && claims != nil {
			if validator != nil {
				if vErr := validator(claims); vErr != nil {
					return vErr
				}
			}
			setUserContext(c, claims, accessCookie.Value)
			return next(c)
		}

		if !errors.Is(err, jwt.ErrTokenExpired) || m.AuthClient == nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		refreshCookie, rErr := c.Cookie(jwthelp.RefreshCookie)
		if rErr != nil || refreshCookie.Value == "" {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		refreshResp, refErr := m.AuthClient.RefreshTokens(c.Request().Context(), refreshCookie.Value, accessCookie.Value)
		if errors.Is(refErr, authclient.ErrUnavailable) {
			logging.FromContext(c.Request().Context()).Error("token_refresh_error", "status", 503, "error", refErr)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "auth service unavailable")
		}
		if refErr != nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
		}

		c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, refreshResp.AccessToken, "/", time.Unix(refreshResp.AccessExp, 0)))
		c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, refreshResp.RefreshToken, "/", time.Unix(refreshResp.RefreshExp, 0)))

		newClaims, pErr := tokens.AccessClaimsFromToken(refreshResp.AccessToken, m.JWTSecret)
		if pErr != nil || newClaims == nil {
			clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}

		if validator != nil {
			if vErr := validator(newClaims); vErr != nil {
				return vErr
			}
		}

		setUserContext(c, newClaims, refreshResp.AccessToken)
		return next(c)
	}
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims, accessToken string) {
	c.Set("user_id", claims.Subject)
	c.Set("role", claims.Role)
	c.Set("email", claims.Email)
	c.Set("access_token", accessToken)
}
