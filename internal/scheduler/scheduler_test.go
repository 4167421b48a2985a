package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendNotification(ctx context.Context, n domain.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func newTestScheduler(notifier *MockNotifier, jobs ...Job) *Scheduler {
	s := New(time.Hour, notifier, slog.New(slog.NewTextHandler(io.Discard, nil)), jobs...)
	s.now = func() time.Time { return time.Date(2026, 6, 30, 17, 45, 0, 0, time.UTC) }
	return s
}

func TestRunOnce_NotifiesOnItemFailures(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("SendNotification", mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
		return n.Severity == "warning" && n.Subject == "Batch job recurring_entries: 1 of 3 items failed"
	})).Return(nil).Once()

	var gotAsOf time.Time
	s := newTestScheduler(notifier, Job{
		Name: "recurring_entries",
		Run: func(ctx context.Context, asOf time.Time) (domain.BatchResult, error) {
			gotAsOf = asOf
			return domain.BatchResult{Processed: 3, Succeeded: 2, Failed: 1,
				Failures: []domain.BatchFailure{{ID: "re-1", Reason: "template missing"}}}, nil
		},
	})

	s.RunOnce(context.Background())

	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), gotAsOf)
	notifier.AssertExpectations(t)
}

func TestRunOnce_UsesUTCCalendarDate(t *testing.T) {
	var gotAsOf time.Time
	s := newTestScheduler(new(MockNotifier), Job{
		Name: "scheduled_payments",
		Run: func(ctx context.Context, asOf time.Time) (domain.BatchResult, error) {
			gotAsOf = asOf
			return domain.BatchResult{}, nil
		},
	})
	// 05:00 on July 1st in UTC+10 is still June 30th in UTC.
	s.now = func() time.Time { return time.Date(2026, 7, 1, 5, 0, 0, 0, time.FixedZone("AEST", 10*60*60)) }

	s.RunOnce(context.Background())

	assert.Equal(t, time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC), gotAsOf)
}

func TestNew_ClockIsUTC(t *testing.T) {
	s := New(time.Hour, new(MockNotifier), nil)
	assert.Equal(t, time.UTC, s.now().Location())
}

func TestRunOnce_JobErrorDoesNotStopLaterJobs(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("SendNotification", mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
		return n.Severity == "error"
	})).Return(errors.New("broker down")).Once()

	secondRan := false
	s := newTestScheduler(notifier,
		Job{Name: "scheduled_payments", Run: func(context.Context, time.Time) (domain.BatchResult, error) {
			return domain.BatchResult{}, errors.New("db unavailable")
		}},
		Job{Name: "recurring_entries", Run: func(context.Context, time.Time) (domain.BatchResult, error) {
			secondRan = true
			return domain.BatchResult{Processed: 1, Succeeded: 1}, nil
		}},
	)

	s.RunOnce(context.Background())

	assert.True(t, secondRan)
	notifier.AssertExpectations(t)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runs := 0
	s := newTestScheduler(new(MockNotifier), Job{Name: "noop", Run: func(context.Context, time.Time) (domain.BatchResult, error) {
		runs++
		cancel()
		return domain.BatchResult{}, nil
	}})

	require.NoError(t, s.Run(ctx))
	assert.Equal(t, 1, runs)
}
