// Package memory keeps accounts in process memory for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"

	"github.com/google/uuid"
)

type accountRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*entity.Account
	byEmail  map[string]uuid.UUID
	now      func() time.Time
}

// NewAccountRepository returns an empty in-memory account store.
func NewAccountRepository() repository.AccountRepository {
	return newAccountRepository(time.Now)
}

func newAccountRepository(now func() time.Time) *accountRepository {
	return &accountRepository{
		accounts: make(map[uuid.UUID]*entity.Account),
		byEmail:  make(map[string]uuid.UUID),
		now:      now,
	}
}

func (repo *accountRepository) Create(_ context.Context, account *entity.Account) error {
	if err := account.Validate(); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, taken := repo.byEmail[account.Email]; taken {
		return repository.ErrDuplicateEmail
	}
	if _, exists := repo.accounts[account.ID]; exists {
		return domainerrors.ErrInternalError.WithDetails("account id already exists")
	}

	now := repo.now()
	account.CreatedAt = now
	account.UpdatedAt = now

	repo.accounts[account.ID] = account.Clone()
	repo.byEmail[account.Email] = account.ID

	return nil
}

func (repo *accountRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	account, ok := repo.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return account.Clone(), nil
}

func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	repo.mu.RLock()
	id, ok := repo.byEmail[entity.NormalizeEmail(email)]
	repo.mu.RUnlock()

	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	return repo.FindByID(ctx, id)
}

func (repo *accountRepository) FindByVerificationToken(_ context.Context, token string) (*entity.Account, error) {
	return repo.findFirst(func(a *entity.Account) bool {
		return token != "" && a.EmailVerificationToken != nil && *a.EmailVerificationToken == token
	})
}

func (repo *accountRepository) FindByResetToken(_ context.Context, token string) (*entity.Account, error) {
	now := repo.now()

	return repo.findFirst(func(a *entity.Account) bool {
		return token != "" &&
			a.PasswordResetToken != nil &&
			*a.PasswordResetToken == token &&
			a.PasswordResetExpires != nil &&
			a.PasswordResetExpires.After(now)
	})
}

func (repo *accountRepository) List(_ context.Context) ([]*entity.Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	accounts := make([]*entity.Account, 0, len(repo.accounts))
	for _, account := range repo.accounts {
		accounts = append(accounts, account.Clone())
	}

	slices.SortFunc(accounts, func(a, b *entity.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}

		return slices.Compare(a.ID[:], b.ID[:])
	})

	return accounts, nil
}

func (repo *accountRepository) Update(_ context.Context, id uuid.UUID, update repository.AccountUpdate) (*entity.Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	current, ok := repo.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}

	next := current.Clone()
	update.Apply(next)
	if err := next.Validate(); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	if next.Email != current.Email {
		if _, taken := repo.byEmail[next.Email]; taken {
			return nil, repository.ErrDuplicateEmail
		}
		delete(repo.byEmail, current.Email)
		repo.byEmail[next.Email] = id
	}

	next.UpdatedAt = repo.now()
	repo.accounts[id] = next

	return next.Clone(), nil
}

func (repo *accountRepository) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	account, ok := repo.accounts[id]
	if !ok {
		return false, nil
	}

	delete(repo.byEmail, account.Email)
	delete(repo.accounts, id)

	return true, nil
}

func (repo *accountRepository) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var purged int64
	for _, account := range repo.accounts {
		if account.PasswordResetExpires == nil || account.PasswordResetExpires.After(now) {
			continue
		}

		account.PasswordResetToken = nil
		account.PasswordResetExpires = nil
		account.UpdatedAt = repo.now()
		purged++
	}

	return purged, nil
}

func (repo *accountRepository) findFirst(match func(*entity.Account) bool) (*entity.Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, account := range repo.accounts {
		if match(account) {
			return account.Clone(), nil
		}
	}

	return nil, repository.ErrAccountNotFound
}
