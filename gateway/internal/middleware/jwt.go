package middleware

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/bubba_express/pkg/jwt"
	"github.com/Skotchmaster/bubba_express/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// Screen turns away requests that carry no session or a forged access token.
// Expired tokens pass so the upstream service can rotate them with the refresh cookie.
func Screen(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			access := cookieValue(c, jwthelp.AccessCookie)
			if access == "" {
				if cookieValue(c, jwthelp.RefreshCookie) == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
				}
				return next(c)
			}

			claims, err := tokens.AccessClaimsFromToken(access, secret)
			switch {
			case err == nil && claims != nil:
				if claims.Subject == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
				}
				c.Set(CtxUserID, claims.Subject)
				c.Set(CtxRole, claims.Role)
			case errors.Is(err, jwt.ErrTokenExpired):
			default:
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
			return next(c)
		}
	}
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
