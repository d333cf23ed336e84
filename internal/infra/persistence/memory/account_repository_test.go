package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAccount(email string) *entity.Account {
	token := uuid.NewString()

	return &entity.Account{
		ID:                     uuid.New(),
		Email:                  email,
		Role:                   entity.RoleUser,
		CredentialHash:         "hash",
		EmailVerificationToken: &token,
	}
}

func TestAccountRepository_CreateAndFind(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	account := newTestAccount("a@x.com")
	require.NoError(t, repo.Create(ctx, account))

	found, err := repo.FindByEmail(ctx, "A@x.COM")
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	found, err = repo.FindByVerificationToken(ctx, *account.EmailVerificationToken)
	require.NoError(t, err)
	assert.Equal(t, account.ID, found.ID)

	_, err = repo.FindByVerificationToken(ctx, "")
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)

	assert.ErrorIs(t, repo.Create(ctx, newTestAccount("a@x.com")), repository.ErrDuplicateEmail)
}

func TestAccountRepository_ReturnsCopies(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	account := newTestAccount("a@x.com")
	require.NoError(t, repo.Create(ctx, account))

	found, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	found.Email = "mutated@x.com"
	*found.EmailVerificationToken = "mutated"

	again, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", again.Email)
	assert.Equal(t, *account.EmailVerificationToken, *again.EmailVerificationToken)
}

func TestAccountRepository_ResetTokenExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := newAccountRepository(func() time.Time { return now })
	ctx := context.Background()

	account := newTestAccount("a@x.com")
	require.NoError(t, repo.Create(ctx, account))

	_, err := repo.Update(ctx, account.ID, repository.AccountUpdate{
		PasswordResetToken:   repository.Set("reset"),
		PasswordResetExpires: repository.Set(now.Add(time.Hour)),
	})
	require.NoError(t, err)

	_, err = repo.FindByResetToken(ctx, "reset")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = repo.FindByResetToken(ctx, "reset")
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)

	purged, err := repo.PurgeExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	stored, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpires)
}

func TestAccountRepository_UpdateEmail(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	first := newTestAccount("a@x.com")
	second := newTestAccount("b@x.com")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	_, err := repo.Update(ctx, second.ID, repository.AccountUpdate{Email: repository.Set("a@x.com")})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	updated, err := repo.Update(ctx, second.ID, repository.AccountUpdate{Email: repository.Set("c@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", updated.Email)

	_, err = repo.FindByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)

	require.NoError(t, repo.Create(ctx, newTestAccount("b@x.com")), "old email is free again")
}

func TestAccountRepository_UpdateValidation(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	account := newTestAccount("a@x.com")
	require.NoError(t, repo.Create(ctx, account))

	_, err := repo.Update(ctx, account.ID, repository.AccountUpdate{CredentialHash: repository.Clear[string]()})
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))

	_, err = repo.Update(ctx, uuid.New(), repository.AccountUpdate{})
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
}

func TestAccountRepository_DeleteAndList(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	first := newTestAccount("a@x.com")
	second := newTestAccount("b@x.com")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	deleted, err := repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	accounts, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, second.ID, accounts[0].ID)
}

func TestAccountRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, newTestAccount("race@x.com"))
		}()
	}
	wg.Wait()
	close(errs)

	var created int
	for err := range errs {
		if err == nil {
			created++

			continue
		}
		assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	}
	assert.Equal(t, 1, created)
}
