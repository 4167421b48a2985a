package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account of an organization.
	FindAccountByID(ctx context.Context, organizationID, accountID string) (*domain.Account, error)

	// FindAccountByCode retrieves an account by its chart-of-accounts code.
	FindAccountByCode(ctx context.Context, organizationID, code string) (*domain.Account, error)

	// ListAccounts retrieves a page of accounts ordered by code.
	ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.Account, error)

	// BalanceAsOf sums posted GL lines of the account dated on or before asOf,
	// signed by the account type.
	BalanceAsOf(ctx context.Context, organizationID, accountID string, asOf time.Time) (decimal.Decimal, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error
}

// AccountBalanceSupport defines the locking and balance updates used while posting.
type AccountBalanceSupport interface {
	// FindAccountsByIDsForUpdate selects accounts and locks them (SELECT ... FOR UPDATE).
	// A missing account yields apperrors.ErrNotFound.
	FindAccountsByIDsForUpdate(ctx context.Context, organizationID string, accountIDs []string) (map[string]domain.Account, error)

	// UpdateAccountBalances adds each signed change to the stored balance.
	UpdateAccountBalances(ctx context.Context, organizationID string, changes map[string]decimal.Decimal, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountBalanceSupport
}
