package notification

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"storefront/config"
	mockSvc "storefront/internal/mocks/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAsyncNotifier_ReturnsBeforeDelivery(t *testing.T) {
	next := mockSvc.NewMockNotifier(t)
	release := make(chan struct{})
	next.EXPECT().
		SendVerification(mock.Anything, "a@x.com", "tok").
		Run(func(_ context.Context, _, _ string) { <-release }).
		Return(nil)

	notifier := NewAsyncNotifier(next, time.Second, 4, newDiscardLogger())

	done := make(chan error, 1)
	go func() { done <- notifier.SendVerification(context.Background(), "a@x.com", "tok") }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("SendVerification blocked on delivery")
	}

	close(release)
	require.NoError(t, notifier.Close(context.Background()))
}

func TestAsyncNotifier_DetachedFromCallerContext(t *testing.T) {
	next := mockSvc.NewMockNotifier(t)
	var sendErr atomic.Value
	next.EXPECT().
		SendPasswordReset(mock.Anything, "a@x.com", "tok").
		Run(func(ctx context.Context, _, _ string) {
			if err := ctx.Err(); err != nil {
				sendErr.Store(err)
			}
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
		}).
		Return(nil)

	notifier := NewAsyncNotifier(next, time.Second, 4, newDiscardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, notifier.SendPasswordReset(ctx, "a@x.com", "tok"))
	require.NoError(t, notifier.Close(context.Background()))

	assert.Nil(t, sendErr.Load())
}

func TestAsyncNotifier_FailureIsSwallowed(t *testing.T) {
	next := mockSvc.NewMockNotifier(t)
	next.EXPECT().SendVerification(mock.Anything, "a@x.com", "tok").Return(assert.AnError)

	notifier := NewAsyncNotifier(next, time.Second, 1, newDiscardLogger())

	assert.NoError(t, notifier.SendVerification(context.Background(), "a@x.com", "tok"))
	require.NoError(t, notifier.Close(context.Background()))
}

func TestAsyncNotifier_DropsOverCapacity(t *testing.T) {
	next := mockSvc.NewMockNotifier(t)
	release := make(chan struct{})
	next.EXPECT().
		SendVerification(mock.Anything, "first@x.com", "tok").
		Run(func(_ context.Context, _, _ string) { <-release }).
		Return(nil).
		Once()

	notifier := NewAsyncNotifier(next, time.Second, 1, newDiscardLogger())

	require.NoError(t, notifier.SendVerification(context.Background(), "first@x.com", "tok"))
	require.NoError(t, notifier.SendVerification(context.Background(), "second@x.com", "tok"))

	close(release)
	require.NoError(t, notifier.Close(context.Background()))
}

func TestAsyncNotifier_CloseWaitsAndRejects(t *testing.T) {
	next := mockSvc.NewMockNotifier(t)
	var delivered atomic.Bool
	next.EXPECT().
		SendVerification(mock.Anything, "a@x.com", "tok").
		Run(func(_ context.Context, _, _ string) {
			time.Sleep(20 * time.Millisecond)
			delivered.Store(true)
		}).
		Return(nil).
		Once()

	notifier := NewAsyncNotifier(next, time.Second, 4, newDiscardLogger())

	require.NoError(t, notifier.SendVerification(context.Background(), "a@x.com", "tok"))
	require.NoError(t, notifier.Close(context.Background()))
	assert.True(t, delivered.Load())

	// dropped after close, the mock would fail on an unexpected call
	require.NoError(t, notifier.SendVerification(context.Background(), "late@x.com", "tok"))
}

func TestAsyncNotifier_CloseHonorsContext(t *testing.T) {
	next := mockSvc.NewMockNotifier(t)
	release := make(chan struct{})
	next.EXPECT().
		SendVerification(mock.Anything, "a@x.com", "tok").
		Run(func(_ context.Context, _, _ string) { <-release }).
		Return(nil)

	notifier := NewAsyncNotifier(next, time.Second, 4, newDiscardLogger())
	require.NoError(t, notifier.SendVerification(context.Background(), "a@x.com", "tok"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, notifier.Close(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, notifier.Close(context.Background()))
}

func TestNewNotifier_Selection(t *testing.T) {
	newConfig := func() *config.Config {
		return &config.Config{Notifier: &config.NotifierConfig{Timeout: time.Second, MaxInFlight: 2}}
	}

	tests := []struct {
		name     string
		mutate   func(*config.Config)
		wantType any
	}{
		{
			name:     "log only",
			mutate:   func(*config.Config) {},
			wantType: &LogNotifier{},
		},
		{
			name: "smtp",
			mutate: func(cfg *config.Config) {
				cfg.Mail = &config.MailConfig{Host: "smtp.example.com", From: "no-reply@example.com"}
			},
			wantType: nil,
		},
		{
			name: "pubsub wins over smtp",
			mutate: func(cfg *config.Config) {
				cfg.Mail = &config.MailConfig{Host: "smtp.example.com", From: "no-reply@example.com"}
				cfg.PubSub = &config.PubSubConfig{Provider: "local", LocalEndpoint: "http://localhost:8081/push"}
			},
			wantType: &EventNotifier{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig()
			tt.mutate(cfg)

			lc := fxtest.NewLifecycle(t)
			notifier, err := NewNotifier(Params{
				Lc:        lc,
				Config:    cfg,
				Logger:    newDiscardLogger(),
				Publisher: mockSvc.NewMockEventPublisher(t),
			})
			require.NoError(t, err)

			async, ok := notifier.(*AsyncNotifier)
			require.True(t, ok)
			if tt.wantType != nil {
				assert.IsType(t, tt.wantType, async.next)
			}

			lc.RequireStart().RequireStop()
		})
	}
}
