// Package scheduler runs periodic account maintenance on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"strings"

	"storefront/config"
	"storefront/internal/delivery"
	"storefront/internal/domain/lifecycle"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
)

type maintenanceScheduler struct {
	cron      *cron.Cron
	accountUC usecase.AccountUsecase
	logger    *slog.Logger
	done      chan struct{}
}

// SchedulerParams holds dependencies for the maintenance scheduler
type SchedulerParams struct {
	fx.In

	Lc        fx.Lifecycle
	Cfg       *config.Config
	Logger    *slog.Logger
	AccountUC usecase.AccountUsecase
}

// NewScheduler registers the expired reset token purge. An empty schedule
// yields a delivery that does nothing.
func NewScheduler(params SchedulerParams) (delivery.Delivery, error) {
	s := &maintenanceScheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		accountUC: params.AccountUC,
		logger:    params.Logger,
		done:      make(chan struct{}),
	}

	schedule := strings.TrimSpace(params.Cfg.Maintenance.PurgeSchedule)
	if schedule != "" {
		if _, err := s.cron.AddFunc(schedule, s.purgeExpiredResetTokens); err != nil {
			return nil, errors.Wrapf(err, "invalid purge schedule %q", schedule)
		}
	}

	params.Lc.Append(fx.Hook{
		OnStop: s.stop,
	})

	return s, nil
}

// Serve runs the cron loop until the application stops.
func (s *maintenanceScheduler) Serve(ctx context.Context) error {
	if len(s.cron.Entries()) == 0 {
		s.logger.Info("Maintenance scheduler has no jobs")

		return nil
	}

	s.logger.Info("Starting maintenance scheduler", slog.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()

	select {
	case <-ctx.Done():
	case <-s.done:
	}

	return nil
}

func (s *maintenanceScheduler) purgeExpiredResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()

	purged, err := s.accountUC.PurgeExpiredResetTokens(ctx)
	if err != nil {
		s.logger.Error("Failed to purge expired reset tokens", slog.Any("error", err))

		return
	}

	if purged > 0 {
		s.logger.Info("Purged expired reset tokens", slog.Int64("count", purged))
	}
}

func (s *maintenanceScheduler) stop(ctx context.Context) error {
	close(s.done)

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}
