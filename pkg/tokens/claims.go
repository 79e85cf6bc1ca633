package tokens

import "github.com/golang-jwt/jwt/v5"

// AccessClaims carry the identity facts every service needs to authorize a request.
type AccessClaims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

func (c *AccessClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
