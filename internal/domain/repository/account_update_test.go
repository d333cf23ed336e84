package repository

import (
	"testing"
	"time"

	"storefront/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	var untouched Optional[string]
	assert.False(t, untouched.IsSet())
	_, ok := untouched.Value()
	assert.False(t, ok)

	cleared := Clear[string]()
	assert.True(t, cleared.IsSet())
	assert.True(t, cleared.IsClear())

	set := Set("value")
	v, ok := set.Value()
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	assert.False(t, set.IsClear())
}

func TestAccountUpdate_Apply(t *testing.T) {
	verifyToken := "verify"
	resetToken := "reset"
	expires := time.Now().Add(time.Hour)
	account := &entity.Account{
		ID:                     uuid.New(),
		Email:                  "a@x.com",
		Name:                   "Ann",
		Role:                   entity.RoleUser,
		CredentialHash:         "old-hash",
		EmailVerificationToken: &verifyToken,
		PasswordResetToken:     &resetToken,
		PasswordResetExpires:   &expires,
	}

	update := AccountUpdate{
		CredentialHash:         Set("new-hash"),
		EmailVerified:          Set(true),
		EmailVerificationToken: Clear[string](),
		PasswordResetToken:     Clear[string](),
		PasswordResetExpires:   Clear[time.Time](),
	}
	update.Apply(account)

	assert.Equal(t, "new-hash", account.CredentialHash)
	assert.True(t, account.EmailVerified)
	assert.Nil(t, account.EmailVerificationToken)
	assert.Nil(t, account.PasswordResetToken)
	assert.Nil(t, account.PasswordResetExpires)
	assert.Equal(t, "Ann", account.Name, "untouched fields keep their value")
	assert.Equal(t, "a@x.com", account.Email)
}

func TestAccountUpdate_ApplyCopiesValues(t *testing.T) {
	token := "fresh"
	update := AccountUpdate{EmailVerificationToken: Set(token)}

	account := &entity.Account{}
	update.Apply(account)
	require.NotNil(t, account.EmailVerificationToken)

	other := &entity.Account{}
	update.Apply(other)
	assert.NotSame(t, account.EmailVerificationToken, other.EmailVerificationToken)
}

func TestAccountUpdate_IsEmpty(t *testing.T) {
	assert.True(t, AccountUpdate{}.IsEmpty())
	assert.False(t, AccountUpdate{Name: Clear[string]()}.IsEmpty())
}
