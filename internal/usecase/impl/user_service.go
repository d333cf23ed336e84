package impl

import (
	"context"
	"log/slog"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	accountRepo repository.AccountRepository
	hasher      service.PasswordHasher
	tokens      service.TokenGenerator
	notifier    service.Notifier
	logger      *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	AccountRepo repository.AccountRepository
	Hasher      service.PasswordHasher
	Tokens      service.TokenGenerator
	Notifier    service.Notifier
	Logger      *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		accountRepo: params.AccountRepo,
		hasher:      params.Hasher,
		tokens:      params.Tokens,
		notifier:    params.Notifier,
		logger:      params.Logger,
	}
}

func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListUsers returns every account. Admin only.
func (srv *userService) ListUsers(ctx context.Context, caller usecase.Caller) ([]*entity.PublicAccount, error) {
	if !caller.IsAdmin() {
		return nil, domainerrors.ErrForbidden
	}

	accounts, err := srv.accountRepo.List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list accounts")
	}

	users := make([]*entity.PublicAccount, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, account.Public())
	}

	return users, nil
}

func (srv *userService) GetUser(ctx context.Context, caller usecase.Caller, id uuid.UUID) (*entity.PublicAccount, error) {
	if err := authorize(caller, id); err != nil {
		return nil, err
	}

	account, err := srv.accountRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, storeError(err, "failed to find account")
	}

	return account.Public(), nil
}

// UpdateUser changes name, email or password. A new email puts the account
// back into the unverified state and sends a fresh verification email.
func (srv *userService) UpdateUser(ctx context.Context, caller usecase.Caller, id uuid.UUID, input *usecase.UpdateUserInput) (*entity.PublicAccount, error) {
	if err := authorize(caller, id); err != nil {
		return nil, err
	}

	current, err := srv.accountRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, storeError(err, "failed to find account")
	}

	var update repository.AccountUpdate
	var verificationToken string

	if input.Name != nil {
		update.Name = repository.Set(*input.Name)
	}

	if input.Email != nil {
		email := entity.NormalizeEmail(*input.Email)
		if err := entity.ValidateEmail(email); err != nil {
			return nil, domainerrors.ErrValidationFailed.WithDetails("email is not a valid address")
		}

		if email != current.Email {
			verificationToken, err = srv.tokens.Generate()
			if err != nil {
				srv.log(ctx).Error("Failed to generate token", slog.Any("error", err))

				return nil, domainerrors.ErrTokenGenerationFailed
			}

			update.Email = repository.Set(email)
			update.EmailVerified = repository.Set(false)
			update.EmailVerificationToken = repository.Set(verificationToken)
		}
	}

	if input.Password != nil {
		if err := srv.hasher.ValidatePasswordStrength(*input.Password); err != nil {
			return nil, err
		}

		hash, err := srv.hasher.Hash(*input.Password)
		if err != nil {
			srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

			return nil, domainerrors.ErrPasswordHashFailed
		}
		update.CredentialHash = repository.Set(hash)
	}

	if update.IsEmpty() {
		return current.Public(), nil
	}

	updated, err := srv.accountRepo.Update(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			return nil, domainerrors.ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, domainerrors.ErrEmailAlreadyExists
		default:
			return nil, storeError(err, "failed to update account")
		}
	}

	srv.log(ctx).Info("Account updated",
		slog.String("account_id", id.String()),
		slog.String("by", caller.AccountID.String()),
	)

	if verificationToken != "" {
		if err := srv.notifier.SendVerification(ctx, updated.Email, verificationToken); err != nil {
			srv.log(ctx).Error("Failed to send verification email", slog.String("email", updated.Email), slog.Any("error", err))
		}
	}

	return updated.Public(), nil
}

func (srv *userService) DeleteUser(ctx context.Context, caller usecase.Caller, id uuid.UUID) error {
	if err := authorize(caller, id); err != nil {
		return err
	}

	deleted, err := srv.accountRepo.Delete(ctx, id)
	if err != nil {
		return storeError(err, "failed to delete account")
	}
	if !deleted {
		return domainerrors.ErrUserNotFound
	}

	srv.log(ctx).Info("Account deleted",
		slog.String("account_id", id.String()),
		slog.String("by", caller.AccountID.String()),
	)

	return nil
}

// authorize lets the account act on itself and admins act on anyone.
func authorize(caller usecase.Caller, id uuid.UUID) error {
	if caller.AccountID == id || caller.IsAdmin() {
		return nil
	}

	return domainerrors.ErrForbidden
}
