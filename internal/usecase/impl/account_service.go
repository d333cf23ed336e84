// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	"storefront/config"
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

// accountService implements the AccountUsecase interface.
type accountService struct {
	accountRepo repository.AccountRepository
	hasher      service.PasswordHasher
	tokens      service.TokenGenerator
	sessions    service.SessionIssuer
	notifier    service.Notifier

	resetTokenTTL            time.Duration
	adminEmails              map[string]struct{}
	concealUnknownResetEmail bool

	now    func() time.Time
	logger *slog.Logger
}

// AccountServiceParams holds dependencies for AccountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	AccountRepo repository.AccountRepository
	Hasher      service.PasswordHasher
	Tokens      service.TokenGenerator
	Sessions    service.SessionIssuer
	Notifier    service.Notifier
	Config      *config.Config
	Logger      *slog.Logger
}

// NewAccountService is the constructor for accountService.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	return newAccountService(params)
}

func newAccountService(params AccountServiceParams) *accountService {
	srv := &accountService{
		accountRepo:   params.AccountRepo,
		hasher:        params.Hasher,
		tokens:        params.Tokens,
		sessions:      params.Sessions,
		notifier:      params.Notifier,
		resetTokenTTL: time.Hour,
		adminEmails:   make(map[string]struct{}),
		now:           time.Now,
		logger:        params.Logger,
	}

	if auth := params.Config.Auth; auth != nil {
		if auth.ResetTokenTTL > 0 {
			srv.resetTokenTTL = auth.ResetTokenTTL
		}
		for _, email := range auth.AdminEmails {
			srv.adminEmails[entity.NormalizeEmail(email)] = struct{}{}
		}
		srv.concealUnknownResetEmail = auth.ConcealUnknownResetEmail
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates an unverified account and sends the verification email.
// A failed send is logged and never undoes the registration.
func (srv *accountService) Register(ctx context.Context, input *usecase.RegisterInput) error {
	email := entity.NormalizeEmail(input.Email)
	if err := entity.ValidateEmail(email); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("email is not a valid address")
	}
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return err
	}

	if _, err := srv.accountRepo.FindByEmail(ctx, email); err == nil {
		return domainerrors.ErrEmailAlreadyExists
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return storeError(err, "failed to look up email")
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

		return domainerrors.ErrPasswordHashFailed
	}

	token, err := srv.generateToken(ctx)
	if err != nil {
		return err
	}

	account := &entity.Account{
		ID:                     uuid.New(),
		Email:                  email,
		Name:                   input.Name,
		Role:                   srv.roleFor(email),
		CredentialHash:         hash,
		EmailVerificationToken: &token,
	}

	if err := srv.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domainerrors.ErrEmailAlreadyExists
		}

		return storeError(err, "failed to create account")
	}

	srv.log(ctx).Info("Account registered",
		slog.String("account_id", account.ID.String()),
		slog.String("email", email),
		slog.String("role", account.Role.String()),
	)

	if err := srv.notifier.SendVerification(ctx, email, token); err != nil {
		srv.log(ctx).Error("Failed to send verification email", slog.String("email", email), slog.Any("error", err))
	}

	return nil
}

// VerifyEmail marks the account owning token as verified and consumes the token.
func (srv *accountService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return domainerrors.ErrInvalidToken
	}

	account, err := srv.accountRepo.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domainerrors.ErrInvalidToken
		}

		return storeError(err, "failed to look up verification token")
	}

	_, err = srv.accountRepo.Update(ctx, account.ID, repository.AccountUpdate{
		EmailVerified:          repository.Set(true),
		EmailVerificationToken: repository.Clear[string](),
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domainerrors.ErrInvalidToken
		}

		return storeError(err, "failed to verify email")
	}

	srv.log(ctx).Info("Email verified", slog.String("account_id", account.ID.String()))

	return nil
}

// Login checks credentials before the verification state, so a wrong password
// on an unverified account is still reported as invalid credentials.
func (srv *accountService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	account, err := srv.accountRepo.FindByEmail(ctx, entity.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}

		return nil, storeError(err, "failed to look up account")
	}

	if !srv.hasher.Check(input.Password, account.CredentialHash) {
		srv.log(ctx).Info("Login rejected", slog.String("account_id", account.ID.String()))

		return nil, domainerrors.ErrInvalidCredentials
	}

	if !account.EmailVerified {
		return nil, domainerrors.ErrEmailNotVerified
	}

	token, expiresAt, err := srv.sessions.Issue(account.ID, account.Roles().ToStrings())
	if err != nil {
		srv.log(ctx).Error("Failed to issue session token", slog.Any("error", err))

		return nil, domainerrors.ErrTokenGenerationFailed
	}

	srv.log(ctx).Info("Login succeeded", slog.String("account_id", account.ID.String()))

	return &usecase.LoginOutput{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      account.Public(),
	}, nil
}

// RequestPasswordReset issues a reset token valid for the configured TTL and emails it.
func (srv *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = entity.NormalizeEmail(email)

	account, err := srv.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrAccountNotFound) {
			return storeError(err, "failed to look up account")
		}
		if srv.concealUnknownResetEmail {
			srv.log(ctx).Info("Password reset requested for unknown email")

			return nil
		}

		return domainerrors.ErrUserNotFound
	}

	token, err := srv.generateToken(ctx)
	if err != nil {
		return err
	}

	expires := srv.now().Add(srv.resetTokenTTL)
	_, err = srv.accountRepo.Update(ctx, account.ID, repository.AccountUpdate{
		PasswordResetToken:   repository.Set(token),
		PasswordResetExpires: repository.Set(expires),
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domainerrors.ErrUserNotFound
		}

		return storeError(err, "failed to store password reset token")
	}

	srv.log(ctx).Info("Password reset requested",
		slog.String("account_id", account.ID.String()),
		slog.Time("expires", expires),
	)

	if err := srv.notifier.SendPasswordReset(ctx, account.Email, token); err != nil {
		srv.log(ctx).Error("Failed to send password reset email", slog.String("email", account.Email), slog.Any("error", err))
	}

	return nil
}

// CompletePasswordReset replaces the credential and clears the reset pair in one update.
func (srv *accountService) CompletePasswordReset(ctx context.Context, input *usecase.CompletePasswordResetInput) error {
	if input.Token == "" {
		return domainerrors.ErrInvalidOrExpiredToken
	}

	account, err := srv.accountRepo.FindByResetToken(ctx, input.Token)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domainerrors.ErrInvalidOrExpiredToken
		}

		return storeError(err, "failed to look up reset token")
	}

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return err
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

		return domainerrors.ErrPasswordHashFailed
	}

	_, err = srv.accountRepo.Update(ctx, account.ID, repository.AccountUpdate{
		CredentialHash:       repository.Set(hash),
		PasswordResetToken:   repository.Clear[string](),
		PasswordResetExpires: repository.Clear[time.Time](),
	})
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return domainerrors.ErrInvalidOrExpiredToken
		}

		return storeError(err, "failed to reset password")
	}

	srv.log(ctx).Info("Password reset completed", slog.String("account_id", account.ID.String()))

	return nil
}

// PurgeExpiredResetTokens clears every reset pair that expired before now.
func (srv *accountService) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	purged, err := srv.accountRepo.PurgeExpiredResetTokens(ctx, srv.now())
	if err != nil {
		return 0, storeError(err, "failed to purge expired reset tokens")
	}

	if purged > 0 {
		srv.log(ctx).Info("Expired password reset tokens purged", slog.Int64("count", purged))
	}

	return purged, nil
}

func (srv *accountService) generateToken(ctx context.Context) (string, error) {
	token, err := srv.tokens.Generate()
	if err != nil {
		srv.log(ctx).Error("Failed to generate token", slog.Any("error", err))

		return "", domainerrors.ErrTokenGenerationFailed
	}

	return token, nil
}

func (srv *accountService) roleFor(email string) entity.Role {
	if _, ok := srv.adminEmails[email]; ok {
		return entity.RoleAdmin
	}

	return entity.RoleUser
}

// storeError keeps domain errors raised by the store and turns anything else
// into a generic internal error.
func storeError(err error, message string) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	return errors.Wrapf(domainerrors.ErrInternalError, "%s: %v", message, err)
}
