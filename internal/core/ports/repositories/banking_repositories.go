package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BankAccountRepository persists bank accounts.
type BankAccountRepository interface {
	SaveBankAccount(ctx context.Context, account domain.BankAccount) error
	FindBankAccountByID(ctx context.Context, organizationID, bankAccountID string) (*domain.BankAccount, error)
	FindBankAccountForUpdate(ctx context.Context, organizationID, bankAccountID string) (*domain.BankAccount, error)
	ListBankAccounts(ctx context.Context, organizationID string) ([]domain.BankAccount, error)
	UpdateReconciledState(ctx context.Context, account domain.BankAccount) error
}

// BankTransactionRepository persists imported statement lines.
type BankTransactionRepository interface {
	// InsertBankTransaction returns false when an identical line already exists.
	InsertBankTransaction(ctx context.Context, txn domain.BankTransaction) (bool, error)
	MarkBankTransactionsCleared(ctx context.Context, organizationID, bankAccountID string, ids []string, at time.Time) (int64, error)
	UnreconciledSummary(ctx context.Context, organizationID, bankAccountID string) (int, decimal.Decimal, error)
}

// ReconciliationRepository persists reconciliation snapshots.
type ReconciliationRepository interface {
	SaveReconciliation(ctx context.Context, rec domain.BankReconciliation) error
	FindLatestReconciliation(ctx context.Context, organizationID, bankAccountID string) (*domain.BankReconciliation, error)
}

// BankingRepositoryFacade combines all banking repository interfaces
type BankingRepositoryFacade interface {
	BankAccountRepository
	BankTransactionRepository
	ReconciliationRepository
}

// ForecastWriter persists cash-flow forecasts.
type ForecastWriter interface {
	SaveForecast(ctx context.Context, forecast domain.CashFlowForecast) error
}
