package impl

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"storefront/config"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/infra/auth"
	"storefront/internal/infra/persistence/memory"
	mockSvc "storefront/internal/mocks/service"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:    bcrypt.MinCost,
			SessionTTL:    time.Hour,
			ResetTokenTTL: time.Hour,
			AdminEmails:   []string{"Admin@Shop.test"},
		},
		PasswordStrength: &config.PasswordStrengthConfig{MinLength: 6, MaxLength: 72},
	}
	cfg.SecretKey.Session = "test-session-secret"

	return cfg
}

// lifecycleFixtures wires the services to the in-memory store, real bcrypt,
// real tokens and a real session issuer. Only the Notifier is mocked.
type lifecycleFixtures struct {
	accounts *accountService
	users    *userService
	repo     repository.AccountRepository
	notifier *mockSvc.MockNotifier
	sessions service.SessionIssuer
}

func newLifecycleFixtures(t *testing.T, mutate ...func(*config.Config)) lifecycleFixtures {
	t.Helper()

	cfg := newTestConfig()
	for _, fn := range mutate {
		fn(cfg)
	}

	repo := memory.NewAccountRepository()
	hasher := auth.NewBcryptHasher(cfg)
	tokens := auth.NewTokenGenerator()
	notifier := mockSvc.NewMockNotifier(t)
	sessions, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	accounts := newAccountService(AccountServiceParams{
		AccountRepo: repo,
		Hasher:      hasher,
		Tokens:      tokens,
		Sessions:    sessions,
		Notifier:    notifier,
		Config:      cfg,
		Logger:      newDiscardLogger(),
	})

	users := NewUserService(UserServiceParams{
		AccountRepo: repo,
		Hasher:      hasher,
		Tokens:      tokens,
		Notifier:    notifier,
		Logger:      newDiscardLogger(),
	}).(*userService)

	return lifecycleFixtures{
		accounts: accounts,
		users:    users,
		repo:     repo,
		notifier: notifier,
		sessions: sessions,
	}
}
