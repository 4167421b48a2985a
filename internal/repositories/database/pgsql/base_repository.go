package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier abstracts pgxpool.Pool and pgx.Tx so that repository methods run
// unchanged whether the provider is pool-bound or bound to a transaction.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db Querier
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapError translates driver errors into application errors. what names the
// operation for the wrapped message.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %s: %w", what, pgErr.ConstraintName, apperrors.ErrDuplicate)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", what, pgErr.ConstraintName, apperrors.ErrValidation)
		case pgCheckViolation:
			return fmt.Errorf("%s: %s: %w", what, pgErr.ConstraintName, apperrors.ErrIntegrity)
		}
	}
	return apperrors.NewAppError(500, "failed to "+what, err)
}

// execBatch sends b and checks every queued statement. expectRows requires
// each statement to touch at least one row.
func (r *BaseRepository) execBatch(ctx context.Context, b *pgx.Batch, what string, expectRows bool) error {
	if b.Len() == 0 {
		return nil
	}
	br := r.db.SendBatch(ctx, b)
	var batchErr error
	for i := 0; i < b.Len(); i++ {
		ct, err := br.Exec()
		if batchErr != nil {
			continue
		}
		if err != nil {
			batchErr = mapError(err, what)
		} else if expectRows && ct.RowsAffected() == 0 {
			batchErr = fmt.Errorf("%s (statement %d): %w", what, i+1, apperrors.ErrNotFound)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = mapError(err, what)
	}
	return batchErr
}

func nullString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
