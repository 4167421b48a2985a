package services

import (
	"context"
	"io"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// BankingSvcFacade manages bank accounts, statement imports and reconciliation.
type BankingSvcFacade interface {
	CreateBankAccount(ctx context.Context, organizationID string, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error)
	GetBankAccount(ctx context.Context, organizationID, bankAccountID string) (*domain.BankAccount, error)
	ImportStatement(ctx context.Context, organizationID, bankAccountID string, rows []domain.NormalizedTransaction, userID string) (*domain.ImportResult, error)
	ImportStatementFile(ctx context.Context, organizationID, bankAccountID, format string, r io.Reader, userID string) (*domain.ImportResult, error)
	Reconcile(ctx context.Context, organizationID, bankAccountID string, req dto.ReconcileRequest, userID string) (*domain.BankReconciliation, error)
	ReconciliationSummary(ctx context.Context, organizationID, bankAccountID string) (*domain.ReconciliationSummary, error)
	CreateCashFlowForecast(ctx context.Context, organizationID string, req dto.CreateForecastRequest, userID string) (*domain.CashFlowForecast, error)
}
