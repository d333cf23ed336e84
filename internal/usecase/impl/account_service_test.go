package impl

import (
	"context"
	"testing"
	"time"

	"storefront/config"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/errors"
	mockRepo "storefront/internal/mocks/repository"
	mockSvc "storefront/internal/mocks/service"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// expectVerification captures the token handed to the Notifier.
func (fx lifecycleFixtures) expectVerification(email string) *string {
	var token string
	fx.notifier.EXPECT().
		SendVerification(mock.Anything, email, mock.AnythingOfType("string")).
		Run(func(_ context.Context, _ string, tok string) { token = tok }).
		Return(nil).
		Once()

	return &token
}

func (fx lifecycleFixtures) expectPasswordReset(email string) *string {
	var token string
	fx.notifier.EXPECT().
		SendPasswordReset(mock.Anything, email, mock.AnythingOfType("string")).
		Run(func(_ context.Context, _ string, tok string) { token = tok }).
		Return(nil).
		Once()

	return &token
}

func (fx lifecycleFixtures) registerVerified(t *testing.T, email, password string) {
	t.Helper()
	ctx := context.Background()

	token := fx.expectVerification(entity.NormalizeEmail(email))
	require.NoError(t, fx.accounts.Register(ctx, &usecase.RegisterInput{Email: email, Password: password}))
	require.NoError(t, fx.accounts.VerifyEmail(ctx, *token))
}

func TestAccountService_Register(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	token := fx.expectVerification("a@x.com")
	require.NoError(t, fx.accounts.Register(ctx, &usecase.RegisterInput{Name: "Ann", Email: " A@X.com ", Password: "secret123"}))

	account, err := fx.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, entity.StateUnverified, account.State())
	assert.Equal(t, "Ann", account.Name)
	assert.Equal(t, entity.RoleUser, account.Role)
	require.NotNil(t, account.EmailVerificationToken)
	assert.Equal(t, *token, *account.EmailVerificationToken)
	assert.NotEqual(t, "secret123", account.CredentialHash)
}

func TestAccountService_Register_AdminEmail(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	fx.expectVerification("admin@shop.test")
	require.NoError(t, fx.accounts.Register(ctx, &usecase.RegisterInput{Email: "admin@shop.test", Password: "secret123"}))

	account, err := fx.repo.FindByEmail(ctx, "admin@shop.test")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, account.Role)
}

func TestAccountService_Register_Duplicate(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	fx.expectVerification("a@x.com")
	require.NoError(t, fx.accounts.Register(ctx, &usecase.RegisterInput{Email: "a@x.com", Password: "secret123"}))

	err := fx.accounts.Register(ctx, &usecase.RegisterInput{Email: "A@x.com", Password: "other123"})
	assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyExists)

	accounts, err := fx.repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestAccountService_Register_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.RegisterInput
		wantErr error
	}{
		{
			name:    "malformed email",
			input:   usecase.RegisterInput{Email: "not-an-email", Password: "secret123"},
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "empty email",
			input:   usecase.RegisterInput{Password: "secret123"},
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "short password",
			input:   usecase.RegisterInput{Email: "a@x.com", Password: "abc"},
			wantErr: domainerrors.ErrPasswordStrength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newLifecycleFixtures(t)

			err := fx.accounts.Register(context.Background(), &tt.input)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			accounts, listErr := fx.repo.List(context.Background())
			require.NoError(t, listErr)
			assert.Empty(t, accounts)
		})
	}
}

func TestAccountService_Register_NotifierFailureKeepsAccount(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	fx.notifier.EXPECT().
		SendVerification(mock.Anything, "a@x.com", mock.Anything).
		Return(errors.New("smtp down")).
		Once()

	require.NoError(t, fx.accounts.Register(ctx, &usecase.RegisterInput{Email: "a@x.com", Password: "secret123"}))

	_, err := fx.repo.FindByEmail(ctx, "a@x.com")
	assert.NoError(t, err)
}

func TestAccountService_VerifyEmail(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	assert.ErrorIs(t, fx.accounts.VerifyEmail(ctx, "unknown"), domainerrors.ErrInvalidToken)
	assert.ErrorIs(t, fx.accounts.VerifyEmail(ctx, ""), domainerrors.ErrInvalidToken)

	token := fx.expectVerification("a@x.com")
	require.NoError(t, fx.accounts.Register(ctx, &usecase.RegisterInput{Email: "a@x.com", Password: "secret123"}))

	require.NoError(t, fx.accounts.VerifyEmail(ctx, *token))

	account, err := fx.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, account.EmailVerified)
	assert.Nil(t, account.EmailVerificationToken)

	assert.ErrorIs(t, fx.accounts.VerifyEmail(ctx, *token), domainerrors.ErrInvalidToken, "token is single use")
}

func TestAccountService_Login(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	token := fx.expectVerification("a@x.com")
	require.NoError(t, fx.accounts.Register(ctx, &usecase.RegisterInput{Email: "a@x.com", Password: "secret123"}))

	_, err := fx.accounts.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, domainerrors.ErrEmailNotVerified)

	_, err = fx.accounts.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials, "credentials are checked before verification")

	_, err = fx.accounts.Login(ctx, &usecase.LoginInput{Email: "nobody@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	require.NoError(t, fx.accounts.VerifyEmail(ctx, *token))

	out, err := fx.accounts.Login(ctx, &usecase.LoginInput{Email: "A@X.COM", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "a@x.com", out.User.Email)
	assert.True(t, out.User.EmailVerified)

	claims, err := fx.sessions.Verify(out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, claims.AccountID)
	assert.Equal(t, []string{"user"}, claims.Roles)
}

func TestAccountService_PasswordReset(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	fx.registerVerified(t, "a@x.com", "secret123")

	resetToken := fx.expectPasswordReset("a@x.com")
	before := time.Now()
	require.NoError(t, fx.accounts.RequestPasswordReset(ctx, "a@x.com"))

	account, err := fx.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, entity.StateResetPending, account.State())
	require.NotNil(t, account.PasswordResetExpires)
	assert.WithinDuration(t, before.Add(time.Hour), *account.PasswordResetExpires, 5*time.Second)
	assert.Equal(t, *resetToken, *account.PasswordResetToken)

	require.NoError(t, fx.accounts.CompletePasswordReset(ctx, &usecase.CompletePasswordResetInput{Token: *resetToken, Password: "newpass"}))

	account, err = fx.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, entity.StateVerified, account.State())
	assert.Nil(t, account.PasswordResetToken)
	assert.Nil(t, account.PasswordResetExpires)

	_, err = fx.accounts.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "newpass"})
	require.NoError(t, err)

	_, err = fx.accounts.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	err = fx.accounts.CompletePasswordReset(ctx, &usecase.CompletePasswordResetInput{Token: *resetToken, Password: "again123"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrExpiredToken, "token is single use")
}

func TestAccountService_PasswordReset_Expired(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	fx.registerVerified(t, "a@x.com", "secret123")

	// issued two hours ago with a one hour TTL
	fx.accounts.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	resetToken := fx.expectPasswordReset("a@x.com")
	require.NoError(t, fx.accounts.RequestPasswordReset(ctx, "a@x.com"))

	err := fx.accounts.CompletePasswordReset(ctx, &usecase.CompletePasswordResetInput{Token: *resetToken, Password: "newpass"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrExpiredToken)

	_, err = fx.accounts.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret123"})
	assert.NoError(t, err, "old password still works")

	fx.accounts.now = time.Now
	purged, err := fx.accounts.PurgeExpiredResetTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	account, err := fx.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, entity.StateVerified, account.State())
}

func TestAccountService_CompletePasswordReset_WeakPassword(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	fx.registerVerified(t, "a@x.com", "secret123")
	resetToken := fx.expectPasswordReset("a@x.com")
	require.NoError(t, fx.accounts.RequestPasswordReset(ctx, "a@x.com"))

	err := fx.accounts.CompletePasswordReset(ctx, &usecase.CompletePasswordResetInput{Token: *resetToken, Password: "abc"})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)

	account, err := fx.repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, entity.StateResetPending, account.State(), "failed reset keeps the token")
}

func TestAccountService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	t.Run("reported by default", func(t *testing.T) {
		fx := newLifecycleFixtures(t)

		err := fx.accounts.RequestPasswordReset(context.Background(), "nobody@x.com")
		assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
	})

	t.Run("concealed when configured", func(t *testing.T) {
		fx := newLifecycleFixtures(t, func(cfg *config.Config) { cfg.Auth.ConcealUnknownResetEmail = true })

		assert.NoError(t, fx.accounts.RequestPasswordReset(context.Background(), "nobody@x.com"))
	})
}

func TestAccountService_RequestPasswordReset_NotifierFailure(t *testing.T) {
	fx := newLifecycleFixtures(t)
	ctx := context.Background()

	fx.registerVerified(t, "a@x.com", "secret123")
	fx.notifier.EXPECT().SendPasswordReset(mock.Anything, "a@x.com", mock.Anything).Return(errors.New("smtp down")).Once()

	assert.NoError(t, fx.accounts.RequestPasswordReset(ctx, "a@x.com"))
}

func TestAccountService_StoreFailuresAreInternal(t *testing.T) {
	repo := mockRepo.NewMockAccountRepository(t)
	cfg := newTestConfig()

	srv := newAccountService(AccountServiceParams{
		AccountRepo: repo,
		Hasher:      mockSvc.NewMockPasswordHasher(t),
		Tokens:      mockSvc.NewMockTokenGenerator(t),
		Sessions:    mockSvc.NewMockSessionIssuer(t),
		Notifier:    mockSvc.NewMockNotifier(t),
		Config:      cfg,
		Logger:      newDiscardLogger(),
	})
	ctx := context.Background()

	repo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, errors.New("connection reset"))
	_, err := srv.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, domainerrors.ErrInternalError)

	dbErr := domainerrors.NewDatabaseExecuteError(errors.New("timeout"), "failed to find account")
	repo.EXPECT().FindByVerificationToken(ctx, "tok").Return(nil, dbErr)
	err = srv.VerifyEmail(ctx, "tok")
	assert.Equal(t, dbErr, err)

	repo.EXPECT().PurgeExpiredResetTokens(ctx, mock.AnythingOfType("time.Time")).Return(0, errors.New("boom"))
	_, err = srv.PurgeExpiredResetTokens(ctx)
	assert.ErrorIs(t, err, domainerrors.ErrInternalError)
}

func TestAccountService_Login_IssueFailure(t *testing.T) {
	repo := mockRepo.NewMockAccountRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	sessions := mockSvc.NewMockSessionIssuer(t)

	srv := newAccountService(AccountServiceParams{
		AccountRepo: repo,
		Hasher:      hasher,
		Tokens:      mockSvc.NewMockTokenGenerator(t),
		Sessions:    sessions,
		Notifier:    mockSvc.NewMockNotifier(t),
		Config:      newTestConfig(),
		Logger:      newDiscardLogger(),
	})
	ctx := context.Background()

	account := &entity.Account{Email: "a@x.com", Role: entity.RoleUser, CredentialHash: "hash", EmailVerified: true}
	repo.EXPECT().FindByEmail(ctx, "a@x.com").Return(account, nil)
	hasher.EXPECT().Check("secret123", "hash").Return(true)
	sessions.EXPECT().Issue(account.ID, []string{"user"}).Return("", time.Time{}, errors.New("sign failed"))

	_, err := srv.Login(ctx, &usecase.LoginInput{Email: "a@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, domainerrors.ErrTokenGenerationFailed)
}

var _ repository.AccountRepository = (*mockRepo.MockAccountRepository)(nil)
