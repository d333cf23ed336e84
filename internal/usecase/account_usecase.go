// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput defines the data required for an account to log in.
type LoginInput struct {
	Email    string
	Password string
}

// CompletePasswordResetInput carries the reset token and the new password.
type CompletePasswordResetInput struct {
	Token    string
	Password string
}

// --- Output DTOs ---

// LoginOutput is the session token and the public view of the logged in account.
type LoginOutput struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.PublicAccount
}

// AccountUsecase drives the account lifecycle: registration, email
// verification, login and password reset.
type AccountUsecase interface {
	Register(ctx context.Context, input *RegisterInput) error
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CompletePasswordReset(ctx context.Context, input *CompletePasswordResetInput) error

	// PurgeExpiredResetTokens clears reset tokens whose expiry has passed.
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
}
