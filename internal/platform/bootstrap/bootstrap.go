// Package bootstrap wires the database, collaborators and services shared by
// the API server and the batch CLI.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/adapters/events"
	"github.com/SscSPs/ledger_core/internal/adapters/logsink"
	"github.com/SscSPs/ledger_core/internal/adapters/settlement"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/core/services"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/SscSPs/ledger_core/internal/platform/database"
	"github.com/SscSPs/ledger_core/internal/repositories/database/pgsql"
	"github.com/SscSPs/ledger_core/internal/statement"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds the wired dependencies of a process.
type App struct {
	Pool     *pgxpool.Pool
	Services *portssvc.ServiceContainer
	Notifier portssvc.NotificationService

	producer *events.Producer
	logger   *slog.Logger
}

// New connects to the database and builds the service container. Audit and
// notification records go to Kafka when brokers are configured and to the
// structured log otherwise.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection pool established.")

	app := &App{Pool: pool, logger: logger}

	var auditor portssvc.AuditService = logsink.Auditor{}
	app.Notifier = logsink.Notifier{}
	if len(cfg.KafkaBrokers) > 0 {
		app.producer = events.NewProducer(cfg.KafkaBrokers)
		auditor = events.NewAuditPublisher(app.producer, cfg.KafkaAuditTopic)
		app.Notifier = events.NewNotificationPublisher(app.producer, cfg.KafkaNotificationTopic)
		logger.Info("Publishing audit and notifications to Kafka",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("audit_topic", cfg.KafkaAuditTopic),
			slog.String("notification_topic", cfg.KafkaNotificationTopic))
	}

	app.Services = services.NewServiceContainer(cfg, pgsql.NewTxManager(pool), services.Collaborators{
		Auditor:    auditor,
		Settlement: settlement.LedgerOnlyGateway{},
		Parsers:    statement.DefaultRegistry(),
	})
	return app, nil
}

// Close releases the Kafka writers and the pool.
func (a *App) Close() error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.Pool.Close()
	a.logger.Info("PostgreSQL connection pool closed.")
	return errors.Join(errs...)
}
