package service

import (
	"time"

	"fleetconsole/backend/libs/identity"
)

// TokenService issues console JWTs.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewTokenService returns configured token service.
func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return &TokenService{secret: []byte(secret), expiresIn: expiresIn, now: time.Now}
}

// GenerateToken issues JWT for given account.
func (t *TokenService) GenerateToken(id identity.Identity) (string, error) {
	return identity.IssueToken(t.secret, id, t.expiresIn, t.now())
}

// ValidateToken verifies and decodes JWT.
func (t *TokenService) ValidateToken(tokenString string) (*identity.Claims, error) {
	return identity.ParseToken(t.secret, tokenString)
}
