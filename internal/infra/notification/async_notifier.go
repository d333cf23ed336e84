// Package notification provides the Notifier implementations used by the account lifecycle.
package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/service"

	"golang.org/x/sync/semaphore"
)

// AsyncNotifier sends in the background so callers never wait on delivery.
// Sends run with a context detached from the caller, bounded by timeout, and
// at most maxInFlight at once. Sends over the cap are dropped and logged.
type AsyncNotifier struct {
	next    service.Notifier
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncNotifier wraps next with the background delivery contract.
func NewAsyncNotifier(next service.Notifier, timeout time.Duration, maxInFlight int64, logger *slog.Logger) *AsyncNotifier {
	return &AsyncNotifier{
		next:    next,
		sem:     semaphore.NewWeighted(maxInFlight),
		timeout: timeout,
		logger:  logger,
	}
}

// SendVerification schedules the verification email and returns immediately.
func (n *AsyncNotifier) SendVerification(ctx context.Context, email, token string) error {
	n.dispatch(ctx, service.MailKindVerification, func(sendCtx context.Context) error {
		return n.next.SendVerification(sendCtx, email, token)
	})

	return nil
}

// SendPasswordReset schedules the password reset email and returns immediately.
func (n *AsyncNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	n.dispatch(ctx, service.MailKindPasswordReset, func(sendCtx context.Context) error {
		return n.next.SendPasswordReset(sendCtx, email, token)
	})

	return nil
}

// Close stops accepting sends and waits for in-flight ones until ctx is done.
func (n *AsyncNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *AsyncNotifier) dispatch(ctx context.Context, kind service.MailKind, send func(context.Context) error) {
	logger := deliverycontext.GetLoggerOrDefault(ctx, n.logger).With(slog.String("kind", string(kind)))

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		logger.WarnContext(ctx, "Notifier closed, dropping send")

		return
	}
	if !n.sem.TryAcquire(1) {
		n.mu.Unlock()
		logger.WarnContext(ctx, "Too many sends in flight, dropping send")

		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	sendCtx := context.WithoutCancel(ctx)

	go func() {
		defer n.wg.Done()
		defer n.sem.Release(1)

		sendCtx, cancel := context.WithTimeout(sendCtx, n.timeout)
		defer cancel()

		if err := send(sendCtx); err != nil {
			logger.ErrorContext(sendCtx, "Failed to send account email", slog.Any("error", err))

			return
		}

		logger.DebugContext(sendCtx, "Account email dispatched")
	}()
}
