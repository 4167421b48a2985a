package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
)

const (
	headerEventType = "event-type"
	headerSeverity  = "severity"
)

// AuditPublisher publishes audit entries keyed by organization, so every
// organization's history stays ordered within one partition.
type AuditPublisher struct {
	publisher Publisher
	topic     string
}

var _ portssvc.AuditService = (*AuditPublisher)(nil)

func NewAuditPublisher(publisher Publisher, topic string) *AuditPublisher {
	return &AuditPublisher{publisher: publisher, topic: topic}
}

func (a *AuditPublisher) LogAudit(ctx context.Context, entry domain.AuditEntry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry for %s %s: %w", entry.EntityType, entry.EntityID, err)
	}
	return a.publisher.Publish(ctx, a.topic, Message{
		Key:   []byte(entry.OrganizationID),
		Value: value,
		Headers: map[string]string{
			headerEventType: entry.EntityType + "." + string(entry.Action),
		},
	})
}

// NotificationPublisher publishes notifications for delivery by a downstream service.
type NotificationPublisher struct {
	publisher Publisher
	topic     string
}

var _ portssvc.NotificationService = (*NotificationPublisher)(nil)

func NewNotificationPublisher(publisher Publisher, topic string) *NotificationPublisher {
	return &NotificationPublisher{publisher: publisher, topic: topic}
}

func (n *NotificationPublisher) SendNotification(ctx context.Context, notification domain.Notification) error {
	value, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification %q: %w", notification.Subject, err)
	}
	return n.publisher.Publish(ctx, n.topic, Message{
		Key:   []byte(notification.OrganizationID),
		Value: value,
		Headers: map[string]string{
			headerEventType: "notification",
			headerSeverity:  notification.Severity,
		},
	})
}
