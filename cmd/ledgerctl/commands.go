package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/platform/bootstrap"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/SscSPs/ledger_core/internal/platform/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			return database.MigrateUp(cfg.DatabaseURL, cfg.MigrationsPath, logger)
		},
	}
}

func newProcessPaymentsCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process-payments",
		Short: "Execute scheduled vendor payments that are due",
		Example: `  ledgerctl process-payments
  ledgerctl process-payments --as-of 2026-06-30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOfStr, _ := cmd.Flags().GetString("as-of")
			asOf, err := parseAsOf(asOfStr, time.Now())
			if err != nil {
				return err
			}
			return withApp(cmd, logger, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.Services.Payments.ProcessScheduledPayments(ctx, asOf)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().String("as-of", "", "Process payments scheduled on or before this date (YYYY-MM-DD, default: today)")
	return cmd
}

func newProcessRecurringCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process-recurring",
		Short: "Post recurring journal entries that are due",
		Example: `  ledgerctl process-recurring
  ledgerctl process-recurring --org 6f1c... --as-of 2026-06-30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			asOfStr, _ := cmd.Flags().GetString("as-of")
			orgID, _ := cmd.Flags().GetString("org")
			asOf, err := parseAsOf(asOfStr, time.Now())
			if err != nil {
				return err
			}
			return withApp(cmd, logger, func(ctx context.Context, app *bootstrap.App) error {
				var result domain.BatchResult
				if orgID != "" {
					result, err = app.Services.Recurring.ProcessRecurringEntries(ctx, orgID, asOf)
				} else {
					result, err = app.Services.Recurring.ProcessAllRecurringEntries(ctx, asOf)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().String("as-of", "", "Post entries due on or before this date (YYYY-MM-DD, default: today)")
	cmd.Flags().String("org", "", "Only process this organization")
	return cmd
}

func newImportStatementCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-statement",
		Short: "Import a bank statement file into a bank account",
		Example: `  ledgerctl import-statement --org 6f1c... --bank-account 9a2d... --file june.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, _ := cmd.Flags().GetString("org")
			bankAccountID, _ := cmd.Flags().GetString("bank-account")
			path, _ := cmd.Flags().GetString("file")
			format, _ := cmd.Flags().GetString("format")
			userID, _ := cmd.Flags().GetString("user")
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(path), ".")
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open statement file: %w", err)
			}
			defer f.Close()

			return withApp(cmd, logger, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.Services.Banking.ImportStatementFile(ctx, orgID, bankAccountID, format, f, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().String("org", "", "Organization ID")
	cmd.Flags().String("bank-account", "", "Bank account ID")
	cmd.Flags().String("file", "", "Path to the statement file")
	cmd.Flags().String("format", "", "Statement format (default: file extension)")
	cmd.Flags().String("user", domain.SystemUserID, "User recorded as the importer")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("bank-account")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
