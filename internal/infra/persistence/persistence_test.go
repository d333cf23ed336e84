package persistence

import (
	"io"
	"log/slog"
	"testing"

	"storefront/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func newParams(t *testing.T, cfg *config.Config) Params {
	return Params{
		Lifecycle: fxtest.NewLifecycle(t),
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNewAccountRepository(t *testing.T) {
	t.Run("memory driver", func(t *testing.T) {
		repo, err := NewAccountRepository(newParams(t, &config.Config{Storage: &config.StorageConfig{Driver: "memory"}}))
		require.NoError(t, err)
		assert.NotNil(t, repo)
	})

	t.Run("postgres without configuration", func(t *testing.T) {
		_, err := NewAccountRepository(newParams(t, &config.Config{Storage: &config.StorageConfig{Driver: "postgres"}}))
		assert.Error(t, err)
	})

	t.Run("mongo without uri", func(t *testing.T) {
		_, err := NewAccountRepository(newParams(t, &config.Config{Storage: &config.StorageConfig{Driver: "mongo"}}))
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewAccountRepository(newParams(t, &config.Config{Storage: &config.StorageConfig{Driver: "cassandra"}}))
		assert.ErrorContains(t, err, "cassandra")
	})
}
