// Package persistence selects the account store configured by storage.driver.
package persistence

import (
	"log/slog"

	"storefront/config"
	"storefront/internal/domain/constants"
	"storefront/internal/domain/repository"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/memory"
	"storefront/internal/infra/persistence/mongodb"
	"storefront/internal/infra/persistence/postgres"

	"go.uber.org/fx"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// NewAccountRepository opens the configured backend and returns its account store.
// Only the selected backend is connected.
func NewAccountRepository(params Params) (repository.AccountRepository, error) {
	driver := constants.StorageDriverPostgres
	if params.Config.Storage != nil && params.Config.Storage.Driver != "" {
		driver = params.Config.Storage.Driver
	}

	params.Logger.Info("Opening account store", slog.String("driver", driver))

	switch driver {
	case constants.StorageDriverPostgres:
		if params.Config.Postgres == nil {
			return nil, errors.New("postgres configuration is required for the postgres storage driver")
		}

		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return nil, err
		}

		return postgres.NewAccountRepository(db), nil
	case constants.StorageDriverMongo:
		db, err := mongodb.New(mongodb.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return nil, err
		}

		return mongodb.NewAccountRepository(db), nil
	case constants.StorageDriverMemory:
		return memory.NewAccountRepository(), nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", driver)
	}
}
