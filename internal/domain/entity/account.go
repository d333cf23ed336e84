package entity

import (
	"strings"
	"sync"
	"time"

	"storefront/internal/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// AccountState is the position of an account in the verification and reset lifecycle.
type AccountState string

const (
	StateUnverified   AccountState = "unverified"
	StateVerified     AccountState = "verified"
	StateResetPending AccountState = "verified_reset_pending"
)

// ErrResetPairMismatch is returned by Validate when only one half of the reset token pair is present.
var ErrResetPairMismatch = errors.New("password reset token and expiry must be set together")

// Account is a registered customer identity together with its pending verification and reset state.
type Account struct {
	ID                     uuid.UUID `validate:"required"`
	Email                  string    `validate:"required,email,max=255"`
	Name                   string    `validate:"max=100"`
	Role                   Role      `validate:"required,oneof=user admin"`
	CredentialHash         string    `validate:"required"`
	EmailVerified          bool
	EmailVerificationToken *string
	PasswordResetToken     *string
	PasswordResetExpires   *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// PublicAccount is the outward view of an account. It never carries the credential hash or tokens.
type PublicAccount struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

//nolint:gochecknoglobals
var (
	accountValidatorOnce sync.Once
	accountValidator     *validator.Validate
)

func getValidator() *validator.Validate {
	accountValidatorOnce.Do(func() {
		accountValidator = validator.New(validator.WithRequiredStructEnabled())
	})

	return accountValidator
}

// NormalizeEmail is the single case policy for emails: surrounding space is
// trimmed and the address is lower-cased before any lookup or write.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail reports whether email is a syntactically valid address.
func ValidateEmail(email string) error {
	return errors.WithStack(getValidator().Var(email, "required,email,max=255"))
}

// Validate enforces the persisted account schema and must pass before every store write.
func (a *Account) Validate() error {
	if err := getValidator().Struct(a); err != nil {
		return errors.WithStack(err)
	}

	if a.Email != NormalizeEmail(a.Email) {
		return errors.Errorf("email %q is not normalized", a.Email)
	}

	if (a.PasswordResetToken == nil) != (a.PasswordResetExpires == nil) {
		return ErrResetPairMismatch
	}

	if a.EmailVerificationToken != nil && *a.EmailVerificationToken == "" {
		return errors.New("verification token must not be empty")
	}

	if a.PasswordResetToken != nil && *a.PasswordResetToken == "" {
		return errors.New("password reset token must not be empty")
	}

	return nil
}

// State derives the lifecycle state from the verification and reset fields.
func (a *Account) State() AccountState {
	switch {
	case !a.EmailVerified:
		return StateUnverified
	case a.PasswordResetToken != nil:
		return StateResetPending
	default:
		return StateVerified
	}
}

// Roles returns the roles encoded into the account's session token.
func (a *Account) Roles() Roles {
	return Roles{a.Role}
}

// Public returns the outward view of the account.
func (a *Account) Public() *PublicAccount {
	return &PublicAccount{
		ID:            a.ID,
		Email:         a.Email,
		Name:          a.Name,
		Role:          a.Role,
		EmailVerified: a.EmailVerified,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// Clone returns a deep copy so stores can hand out accounts without sharing pointers.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}

	cloned := *a
	if a.EmailVerificationToken != nil {
		token := *a.EmailVerificationToken
		cloned.EmailVerificationToken = &token
	}
	if a.PasswordResetToken != nil {
		token := *a.PasswordResetToken
		cloned.PasswordResetToken = &token
	}
	if a.PasswordResetExpires != nil {
		expires := *a.PasswordResetExpires
		cloned.PasswordResetExpires = &expires
	}

	return &cloned
}
