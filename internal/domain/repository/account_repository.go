// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/errors"

	"github.com/google/uuid"
)

var (
	// ErrAccountNotFound is returned when no account matches a lookup, including expired reset tokens.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateEmail is returned when a write would give two accounts the same email.
	ErrDuplicateEmail = errors.New("email already exists")
)

// AccountRepository persists accounts. Every write touches a single account and is atomic.
// Email arguments are expected to be normalized with entity.NormalizeEmail.
type AccountRepository interface {
	// Create persists a new account. CreatedAt and UpdatedAt are set by the store.
	Create(ctx context.Context, account *entity.Account) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	FindByVerificationToken(ctx context.Context, token string) (*entity.Account, error)

	// FindByResetToken only matches while the reset expiry is strictly after the current time.
	FindByResetToken(ctx context.Context, token string) (*entity.Account, error)

	// List returns every account ordered by creation time.
	List(ctx context.Context) ([]*entity.Account, error)

	// Update applies a partial update and returns the stored result.
	Update(ctx context.Context, id uuid.UUID, update AccountUpdate) (*entity.Account, error)

	// Delete reports whether an account existed and was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// PurgeExpiredResetTokens clears reset token pairs that expired before now and returns how many were cleared.
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}
