package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims are the claims carried by a session bearer token.
type SessionClaims struct {
	AccountID uuid.UUID `json:"-"`
	Roles     []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// SessionIssuer mints and verifies bearer tokens without a store round trip.
type SessionIssuer interface {
	// Issue signs a token for the account that expires after the configured session TTL.
	Issue(accountID uuid.UUID, roles []string) (token string, expiresAt time.Time, err error)

	// Verify returns the claims of a valid token, or domain ErrSessionInvalid / ErrSessionExpired.
	Verify(token string) (*SessionClaims, error)
}
