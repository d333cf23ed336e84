// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"storefront/config"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost   int
	policy config.PasswordStrengthConfig
}

// NewBcryptHasher builds the hasher from the auth and password strength sections.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost := bcrypt.DefaultCost
	if cfg.Auth != nil && cfg.Auth.BcryptCost > 0 {
		cost = cfg.Auth.BcryptCost
	}

	var policy config.PasswordStrengthConfig
	if cfg.PasswordStrength != nil {
		policy = *cfg.PasswordStrength
	}

	return NewBcryptHasherWithPolicy(cost, policy)
}

// NewBcryptHasherWithPolicy is used by tests and tools that need an explicit cost.
func NewBcryptHasherWithPolicy(cost int, policy config.PasswordStrengthConfig) service.PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &bcryptHasher{cost: cost, policy: policy}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt hash failed")
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength applies the configured policy. A zero policy only
// rejects empty passwords and passwords bcrypt cannot hash.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	minLength := max(h.policy.MinLength, 1)
	if utf8.RuneCountInString(password) < minLength {
		return strengthError(fmt.Sprintf("password must be at least %d characters long", minLength))
	}

	maxLength := h.policy.MaxLength
	if maxLength <= 0 || maxLength > 72 {
		maxLength = 72
	}
	if len(password) > maxLength {
		return strengthError(fmt.Sprintf("password must be at most %d bytes long", maxLength))
	}

	if h.policy.RequireLowercase && !hasRune(password, unicode.IsLower) {
		return strengthError("password must contain at least one lowercase letter")
	}
	if h.policy.RequireUppercase && !hasRune(password, unicode.IsUpper) {
		return strengthError("password must contain at least one uppercase letter")
	}
	if h.policy.RequireNumbers && !hasRune(password, unicode.IsDigit) {
		return strengthError("password must contain at least one number")
	}
	if h.policy.RequireSpecial && !hasSpecialChars(password) {
		return strengthError("password must contain at least one special character")
	}

	return nil
}

func strengthError(details string) error {
	return domainerrors.ErrPasswordStrength.WithDetails(details)
}

func hasRune(s string, fn func(rune) bool) bool {
	return strings.IndexFunc(s, fn) >= 0
}

func hasSpecialChars(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}) >= 0
}
