// Package identity carries the caller identity between the gateway and upstream services:
// JWT claims issued by auth-service and the X-User-* headers forwarded by the gateway.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles known to the console.
const (
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
)

// Forwarded identity headers.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

var (
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrMissingIdentity is returned when a request carries no identity headers.
	ErrMissingIdentity = errors.New("identity: missing identity")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller manages a fleet.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// IsDeveloper reports whether the caller is an assigned developer.
func (i Identity) IsDeveloper() bool { return i.Role == RoleDeveloper }

// ValidRole reports whether role is one of the console roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleDeveloper
}

// Claims represents JWT payload used across services.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity converts claims into the caller identity.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Role: c.Role}
}

// IssueToken signs an HS256 token for the given identity.
func IssueToken(secret []byte, id Identity, ttl time.Duration, now time.Time) (string, error) {
	if id.UserID == "" {
		return "", errors.New("identity: user id is required")
	}
	if !ValidRole(id.Role) {
		return "", errors.New("identity: unknown role")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now = now.UTC()
	claims := Claims{
		UserID: id.UserID,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("identity: unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || !ValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// FromHeaders reads the identity forwarded by the gateway.
func FromHeaders(h http.Header) (Identity, error) {
	id := Identity{
		UserID: strings.TrimSpace(h.Get(HeaderUserID)),
		Role:   strings.TrimSpace(h.Get(HeaderUserRole)),
	}
	if id.UserID == "" || !ValidRole(id.Role) {
		return Identity{}, ErrMissingIdentity
	}
	return id, nil
}

// SetHeaders writes the identity for an upstream request.
func SetHeaders(h http.Header, id Identity) {
	h.Set(HeaderUserID, id.UserID)
	h.Set(HeaderUserRole, id.Role)
}

type contextKey struct{}

// WithIdentity stores identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext retrieves identity from the context.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
