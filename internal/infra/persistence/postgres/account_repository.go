// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// accountRepository implements the repository.AccountRepository interface using GORM.
type accountRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAccountRepository is the constructor for accountRepository.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{
		db:  db,
		now: time.Now,
	}
}

// Create validates and inserts a new account.
func (repo *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if err := account.Validate(); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	now := repo.now().UTC()
	accountM := fromAccountDomain(account)
	accountM.CreatedAt = now
	accountM.UpdatedAt = now

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		return translateWriteError(err, "failed to create account")
	}

	account.CreatedAt = accountM.CreatedAt
	account.UpdatedAt = accountM.UpdatedAt

	return nil
}

// FindByID retrieves a single account by its unique ID.
func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return repo.findOne(ctx, "id = ?", id)
}

// FindByEmail retrieves a single account by its normalized email.
func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return repo.findOne(ctx, "email = ?", entity.NormalizeEmail(email))
}

// FindByVerificationToken retrieves the account waiting on the given verification token.
func (repo *accountRepository) FindByVerificationToken(ctx context.Context, token string) (*entity.Account, error) {
	if token == "" {
		return nil, repository.ErrAccountNotFound
	}

	return repo.findOne(ctx, "email_verification_token = ?", token)
}

// FindByResetToken retrieves the account owning a reset token that has not expired yet.
func (repo *accountRepository) FindByResetToken(ctx context.Context, token string) (*entity.Account, error) {
	if token == "" {
		return nil, repository.ErrAccountNotFound
	}

	account, err := repo.findOne(ctx, "password_reset_token = ?", token)
	if err != nil {
		return nil, err
	}

	if account.PasswordResetExpires == nil || !account.PasswordResetExpires.After(repo.now()) {
		return nil, repository.ErrAccountNotFound
	}

	return account, nil
}

// List returns all accounts, oldest first.
func (repo *accountRepository) List(ctx context.Context) ([]*entity.Account, error) {
	var accountModels []*model.AccountModel
	if err := repo.db.WithContext(ctx).Order("created_at ASC").Find(&accountModels).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list accounts")
	}

	accounts := make([]*entity.Account, 0, len(accountModels))
	for _, accountM := range accountModels {
		accounts = append(accounts, toAccountDomain(accountM))
	}

	return accounts, nil
}

// Update loads the account, applies the partial update, validates the result and
// writes only the touched columns inside one transaction.
func (repo *accountRepository) Update(ctx context.Context, id uuid.UUID, update repository.AccountUpdate) (*entity.Account, error) {
	var updated *entity.Account

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var accountM model.AccountModel
		if err := tx.Where("id = ?", id).First(&accountM).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrAccountNotFound
			}

			return domainerrors.NewDatabaseExecuteError(err, "failed to load account for update")
		}

		account := toAccountDomain(&accountM)
		update.Apply(account)
		if err := account.Validate(); err != nil {
			return domainerrors.ErrValidationFailed.WithDetails(err.Error())
		}

		account.UpdatedAt = repo.now().UTC()
		columns := updateColumns(update, account)

		if err := tx.Model(&model.AccountModel{}).Where("id = ?", id).Updates(columns).Error; err != nil {
			return translateWriteError(err, "failed to update account")
		}

		updated = account

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes an account and reports whether it existed.
func (repo *accountRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.AccountModel{})
	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete account")
	}

	return result.RowsAffected > 0, nil
}

// PurgeExpiredResetTokens clears every reset token pair whose expiry is not after now.
func (repo *accountRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("password_reset_expires IS NOT NULL AND password_reset_expires <= ?", now.UTC()).
		Updates(map[string]any{
			"password_reset_token":   nil,
			"password_reset_expires": nil,
			"updated_at":             repo.now().UTC(),
		})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to purge expired reset tokens")
	}

	return result.RowsAffected, nil
}

func (repo *accountRepository) findOne(ctx context.Context, query string, args ...any) (*entity.Account, error) {
	var accountM model.AccountModel
	if err := repo.db.WithContext(ctx).Where(query, args...).First(&accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find account")
	}

	return toAccountDomain(&accountM), nil
}

func translateWriteError(err error, details string) error {
	if isUniqueConstraintViolation(err) {
		if violatesTokenKey(err) {
			return domainerrors.ErrTokenGenerationFailed.WrapMessage("token collision")
		}

		return repository.ErrDuplicateEmail
	}
	if isCheckConstraintViolation(err) {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return domainerrors.NewDatabaseExecuteError(err, details)
}

// updateColumns maps the touched fields of an update to their column values after Apply.
func updateColumns(update repository.AccountUpdate, account *entity.Account) map[string]any {
	columns := map[string]any{"updated_at": account.UpdatedAt}

	if update.Email.IsSet() {
		columns["email"] = account.Email
	}
	if update.Name.IsSet() {
		columns["name"] = account.Name
	}
	if update.Role.IsSet() {
		columns["role"] = string(account.Role)
	}
	if update.CredentialHash.IsSet() {
		columns["credential_hash"] = account.CredentialHash
	}
	if update.EmailVerified.IsSet() {
		columns["email_verified"] = account.EmailVerified
	}
	if update.EmailVerificationToken.IsSet() {
		columns["email_verification_token"] = account.EmailVerificationToken
	}
	if update.PasswordResetToken.IsSet() {
		columns["password_reset_token"] = account.PasswordResetToken
	}
	if update.PasswordResetExpires.IsSet() {
		columns["password_reset_expires"] = utcPtr(account.PasswordResetExpires)
	}

	return columns
}

// --- Mapper Functions ---

func toAccountDomain(data *model.AccountModel) *entity.Account {
	if data == nil {
		return nil
	}

	return &entity.Account{
		ID:                     data.ID,
		Email:                  data.Email,
		Name:                   data.Name,
		Role:                   entity.Role(data.Role),
		CredentialHash:         data.CredentialHash,
		EmailVerified:          data.EmailVerified,
		EmailVerificationToken: data.EmailVerificationToken,
		PasswordResetToken:     data.PasswordResetToken,
		PasswordResetExpires:   data.PasswordResetExpires,
		CreatedAt:              data.CreatedAt,
		UpdatedAt:              data.UpdatedAt,
	}
}

func fromAccountDomain(data *entity.Account) *model.AccountModel {
	if data == nil {
		return nil
	}

	return &model.AccountModel{
		ID:                     data.ID,
		Email:                  data.Email,
		Name:                   data.Name,
		Role:                   string(data.Role),
		CredentialHash:         data.CredentialHash,
		EmailVerified:          data.EmailVerified,
		EmailVerificationToken: data.EmailVerificationToken,
		PasswordResetToken:     data.PasswordResetToken,
		PasswordResetExpires:   utcPtr(data.PasswordResetExpires),
		CreatedAt:              data.CreatedAt,
		UpdatedAt:              data.UpdatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	utc := t.UTC()

	return &utc
}
