// Package logsink implements the audit and notification collaborators on top
// of the structured logger. It is the default when no broker is configured.
package logsink

import (
	"context"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/middleware"
)

type Auditor struct{}

var _ portssvc.AuditService = Auditor{}

func (Auditor) LogAudit(ctx context.Context, entry domain.AuditEntry) error {
	middleware.GetLoggerFromCtx(ctx).Info("Audit",
		slog.String("entity_type", entry.EntityType),
		slog.String("entity_id", entry.EntityID),
		slog.String("action", string(entry.Action)),
		slog.String("organization_id", entry.OrganizationID),
		slog.String("user_id", entry.UserID),
		slog.Any("new_values", entry.NewValues),
	)
	return nil
}

type Notifier struct{}

var _ portssvc.NotificationService = Notifier{}

func (Notifier) SendNotification(ctx context.Context, n domain.Notification) error {
	level := slog.LevelInfo
	if n.Severity == "warning" || n.Severity == "error" {
		level = slog.LevelWarn
	}
	middleware.GetLoggerFromCtx(ctx).Log(ctx, level, n.Subject,
		slog.String("organization_id", n.OrganizationID),
		slog.String("body", n.Body),
		slog.Any("data", n.Data),
	)
	return nil
}
