package repositories

import (
	"context"
)

// TransactionManager runs a unit of work. The RepositoryProvider handed to fn
// is bound to a single database transaction that is committed when fn returns
// nil and rolled back otherwise. Services pass the provider down the call
// chain so nested operations join the caller's transaction.
type TransactionManager interface {
	// Repositories returns a provider bound to the connection pool (no transaction).
	Repositories() RepositoryProvider

	// WithinTx executes fn inside a transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryProvider) error) error
}
