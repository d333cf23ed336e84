package postgres

import (
	"strings"

	"storefront/internal/errors"

	"gorm.io/gorm"
)

// isUniqueConstraintViolation recognizes unique violations whether or not the
// dialector translates them into gorm.ErrDuplicatedKey.
func isUniqueConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "sqlstate 23505")
}

func isCheckConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "check constraint") ||
		strings.Contains(errMsg, "sqlstate 23514")
}

// violatesTokenKey reports whether a unique violation came from one of the token indexes.
// Translated errors carry no constraint name and are attributed to the email index.
func violatesTokenKey(err error) bool {
	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "email_verification_token") ||
		strings.Contains(errMsg, "password_reset_token")
}
