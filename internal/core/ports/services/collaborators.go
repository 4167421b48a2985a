package services

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// AuditService receives one entry per state change. Failures are logged by
// callers and never fail the business operation.
type AuditService interface {
	LogAudit(ctx context.Context, entry domain.AuditEntry) error
}

// NotificationService delivers messages to an organization's users.
type NotificationService interface {
	SendNotification(ctx context.Context, notification domain.Notification) error
}

// SettlementGateway moves money for a vendor payment.
type SettlementGateway interface {
	Settle(ctx context.Context, payment domain.VendorPayment) error
}
