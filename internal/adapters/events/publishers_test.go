package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/adapters/events"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, messages ...events.Message) error {
	args := m.Called(ctx, topic, messages)
	return args.Error(0)
}

func TestAuditPublisher_KeysByOrganization(t *testing.T) {
	pub := new(MockPublisher)
	ctx := context.Background()
	entry := domain.AuditEntry{
		EntityType:     "journal_entry",
		EntityID:       "je-1",
		Action:         domain.AuditPost,
		OrganizationID: "org-1",
		UserID:         "user-1",
		OccurredAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	pub.On("Publish", ctx, "ledger.audit", mock.MatchedBy(func(msgs []events.Message) bool {
		if len(msgs) != 1 || string(msgs[0].Key) != "org-1" || msgs[0].Headers["event-type"] != "journal_entry.POST" {
			return false
		}
		var decoded domain.AuditEntry
		return json.Unmarshal(msgs[0].Value, &decoded) == nil && decoded.EntityID == "je-1"
	})).Return(nil).Once()

	err := events.NewAuditPublisher(pub, "ledger.audit").LogAudit(ctx, entry)

	require.NoError(t, err)
	pub.AssertExpectations(t)
}

func TestNotificationPublisher_PropagatesBrokerError(t *testing.T) {
	pub := new(MockPublisher)
	ctx := context.Background()
	pub.On("Publish", ctx, "ledger.notifications", mock.Anything).Return(errors.New("broker down")).Once()

	err := events.NewNotificationPublisher(pub, "ledger.notifications").SendNotification(ctx, domain.Notification{
		OrganizationID: "org-1",
		Subject:        "Scheduled payments failed",
		Severity:       "warning",
	})

	assert.EqualError(t, err, "broker down")
}
