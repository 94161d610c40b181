package jwt

import (
	"drive-hub/internal/domain/user"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Issuer stamped into every token this service mints; validated on parse.
const Issuer = "drive-hub"

// Claims is the canonical JWT payload. Subject carries the user ID, Role
// drives RBAC on both HTTP routes and stream auth frames.
type Claims struct {
	Role user.Role `json:"role"` // PASSENGER / DRIVER / ADMIN
	jwtlib.RegisteredClaims
}

var _ jwtlib.Claims = (*Claims)(nil)

// NewUserClaims constructs end-user claims for the given role and TTL.
func NewUserClaims(userID string, role user.Role, ttl time.Duration) *Claims {
	now := time.Now().UTC()
	return &Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
}
