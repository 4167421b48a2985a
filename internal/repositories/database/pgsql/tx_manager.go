package pgsql

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxManager hands out pool-bound repositories and runs units of work in a
// single database transaction.
type TxManager struct {
	pool  *pgxpool.Pool
	repos portsrepo.RepositoryProvider
}

var _ portsrepo.TransactionManager = (*TxManager)(nil)

// NewTxManager creates the transaction manager for pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool, repos: newRepositoryProvider(pool)}
}

// Repositories returns repositories bound to the pool.
func (m *TxManager) Repositories() portsrepo.RepositoryProvider {
	return m.repos
}

// WithinTx runs fn in a read-committed transaction. Row locks taken with
// SELECT ... FOR UPDATE inside fn are held until commit or rollback.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}

	if err := fn(ctx, newRepositoryProvider(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback transaction", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}
