package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/SscSPs/ledger_core/internal/platform/bootstrap"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Batch and maintenance commands for the ledger",
		Long: `ledgerctl runs the ledger's batch jobs and maintenance tasks against the
database configured through the same environment variables as the API server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(logger),
		newProcessPaymentsCmd(logger),
		newProcessRecurringCmd(logger),
		newImportStatementCmd(logger),
	)
	return root
}

// withApp loads configuration, wires the services and runs fn with a
// command-scoped logger in ctx.
func withApp(cmd *cobra.Command, logger *slog.Logger, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	ctx := middleware.WithLogger(cmd.Context(), logger.With(slog.String("command", cmd.Name())))

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Error("Error closing application", slog.String("error", cerr.Error()))
		}
	}()
	return fn(ctx, app)
}

// parseAsOf parses an optional YYYY-MM-DD flag, defaulting to today.
func parseAsOf(value string, now time.Time) (time.Time, error) {
	today := domain.DateOnly(now.UTC())
	if value == "" {
		return today, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format. Use YYYY-MM-DD: %w", err)
	}
	if t.After(today) {
		return time.Time{}, fmt.Errorf("as-of date %s is after today", value)
	}
	return t, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
