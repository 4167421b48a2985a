package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxBankingRepository struct {
	BaseRepository
}

// newPgxBankingRepository creates a new repository for bank accounts, statement lines and reconciliations.
func newPgxBankingRepository(db Querier) portsrepo.BankingRepositoryFacade {
	return &PgxBankingRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.BankingRepositoryFacade = (*PgxBankingRepository)(nil)

const bankAccountColumns = `bank_account_id, organization_id, name, bank_name, account_number, gl_account_id, currency_code,
		last_reconciled_at, reconciled_balance, created_at, created_by, last_updated_at, last_updated_by`

func scanBankAccount(row pgx.Row) (domain.BankAccount, error) {
	var a domain.BankAccount
	err := row.Scan(&a.BankAccountID, &a.OrganizationID, &a.Name, &a.BankName, &a.AccountNumber, &a.GLAccountID,
		&a.CurrencyCode, &a.LastReconciledAt, &a.ReconciledBalance, &a.CreatedAt, &a.CreatedBy, &a.LastUpdatedAt, &a.LastUpdatedBy)
	return a, err
}

func (r *PgxBankingRepository) SaveBankAccount(ctx context.Context, account domain.BankAccount) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bank_accounts (`+bankAccountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`,
		account.BankAccountID, account.OrganizationID, account.Name, account.BankName, account.AccountNumber,
		account.GLAccountID, account.CurrencyCode, account.LastReconciledAt, account.ReconciledBalance,
		account.CreatedAt, account.CreatedBy, account.LastUpdatedAt, account.LastUpdatedBy)
	return mapError(err, "save bank account "+account.Name)
}

func (r *PgxBankingRepository) findBankAccount(ctx context.Context, organizationID, bankAccountID string, lock bool) (*domain.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE organization_id = $1 AND bank_account_id = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	a, err := scanBankAccount(r.db.QueryRow(ctx, query, organizationID, bankAccountID))
	if err != nil {
		return nil, mapError(err, "find bank account "+bankAccountID)
	}
	return &a, nil
}

func (r *PgxBankingRepository) FindBankAccountByID(ctx context.Context, organizationID, bankAccountID string) (*domain.BankAccount, error) {
	return r.findBankAccount(ctx, organizationID, bankAccountID, false)
}

func (r *PgxBankingRepository) FindBankAccountForUpdate(ctx context.Context, organizationID, bankAccountID string) (*domain.BankAccount, error) {
	return r.findBankAccount(ctx, organizationID, bankAccountID, true)
}

func (r *PgxBankingRepository) ListBankAccounts(ctx context.Context, organizationID string) ([]domain.BankAccount, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bankAccountColumns+` FROM bank_accounts WHERE organization_id = $1 ORDER BY name;`, organizationID)
	if err != nil {
		return nil, mapError(err, "list bank accounts")
	}
	defer rows.Close()

	accounts := []domain.BankAccount{}
	for rows.Next() {
		a, err := scanBankAccount(rows)
		if err != nil {
			return nil, mapError(err, "scan bank account")
		}
		accounts = append(accounts, a)
	}
	return accounts, mapError(rows.Err(), "iterate bank accounts")
}

func (r *PgxBankingRepository) UpdateReconciledState(ctx context.Context, account domain.BankAccount) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE bank_accounts
		SET last_reconciled_at = $3, reconciled_balance = $4, last_updated_at = $5, last_updated_by = $6
		WHERE organization_id = $1 AND bank_account_id = $2;`,
		account.OrganizationID, account.BankAccountID, account.LastReconciledAt, account.ReconciledBalance,
		account.LastUpdatedAt, account.LastUpdatedBy)
	if err != nil {
		return mapError(err, "update reconciled state of "+account.BankAccountID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("bank account %s: %w", account.BankAccountID, apperrors.ErrNotFound)
	}
	return nil
}

// InsertBankTransaction returns false when a line with the same date, amount and
// description is already stored for the bank account.
func (r *PgxBankingRepository) InsertBankTransaction(ctx context.Context, txn domain.BankTransaction) (bool, error) {
	ct, err := r.db.Exec(ctx, `
		INSERT INTO bank_transactions (bank_transaction_id, organization_id, bank_account_id, transaction_date, amount,
			description, reference, reconciliation_status, cleared_at, imported_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT uq_bank_transactions_line DO NOTHING;`,
		txn.BankTransactionID, txn.OrganizationID, txn.BankAccountID, txn.TransactionDate, txn.Amount,
		txn.Description, txn.Reference, txn.ReconciliationStatus, txn.ClearedAt, txn.ImportedAt)
	if err != nil {
		return false, mapError(err, "insert bank transaction")
	}
	return ct.RowsAffected() == 1, nil
}

func (r *PgxBankingRepository) MarkBankTransactionsCleared(ctx context.Context, organizationID, bankAccountID string, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ct, err := r.db.Exec(ctx, `
		UPDATE bank_transactions
		SET reconciliation_status = $4, cleared_at = $5
		WHERE organization_id = $1 AND bank_account_id = $2 AND bank_transaction_id = ANY($3) AND reconciliation_status = $6;`,
		organizationID, bankAccountID, ids, domain.BankTxnCleared, at, domain.BankTxnUnreconciled)
	if err != nil {
		return 0, mapError(err, "clear bank transactions")
	}
	return ct.RowsAffected(), nil
}

func (r *PgxBankingRepository) UnreconciledSummary(ctx context.Context, organizationID, bankAccountID string) (int, decimal.Decimal, error) {
	var count int
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0)
		FROM bank_transactions
		WHERE organization_id = $1 AND bank_account_id = $2 AND reconciliation_status = $3;`,
		organizationID, bankAccountID, domain.BankTxnUnreconciled).Scan(&count, &total)
	if err != nil {
		return 0, decimal.Zero, mapError(err, "summarize unreconciled transactions")
	}
	return count, total, nil
}

// SaveReconciliation stores the snapshot with its items.
func (r *PgxBankingRepository) SaveReconciliation(ctx context.Context, rec domain.BankReconciliation) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO bank_reconciliations (reconciliation_id, organization_id, bank_account_id, statement_date,
			statement_balance, book_balance, deposits_in_transit, outstanding_checks, bank_adjustments, book_adjustments,
			adjusted_book_balance, adjusted_bank_balance, variance, is_balanced,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);`,
		rec.ReconciliationID, rec.OrganizationID, rec.BankAccountID, rec.StatementDate,
		rec.StatementBalance, rec.BookBalance, rec.DepositsInTransit, rec.OutstandingChecks, rec.BankAdjustments, rec.BookAdjustments,
		rec.AdjustedBookBalance, rec.AdjustedBankBalance, rec.Variance, rec.IsBalanced,
		rec.CreatedAt, rec.CreatedBy, rec.LastUpdatedAt, rec.LastUpdatedBy)
	for _, item := range rec.Items {
		batch.Queue(`
			INSERT INTO reconciliation_items (item_id, reconciliation_id, item_type, amount, description, bank_transaction_id, gl_entry_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			item.ItemID, rec.ReconciliationID, item.ItemType, item.Amount, item.Description,
			nullString(item.BankTransactionID), nullString(item.GLEntryID))
	}
	return r.execBatch(ctx, batch, "save reconciliation", true)
}

// FindLatestReconciliation returns the most recent snapshot by statement date.
func (r *PgxBankingRepository) FindLatestReconciliation(ctx context.Context, organizationID, bankAccountID string) (*domain.BankReconciliation, error) {
	var rec domain.BankReconciliation
	err := r.db.QueryRow(ctx, `
		SELECT reconciliation_id, organization_id, bank_account_id, statement_date, statement_balance, book_balance,
		       deposits_in_transit, outstanding_checks, bank_adjustments, book_adjustments,
		       adjusted_book_balance, adjusted_bank_balance, variance, is_balanced,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM bank_reconciliations
		WHERE organization_id = $1 AND bank_account_id = $2
		ORDER BY statement_date DESC, created_at DESC
		LIMIT 1;`, organizationID, bankAccountID,
	).Scan(&rec.ReconciliationID, &rec.OrganizationID, &rec.BankAccountID, &rec.StatementDate, &rec.StatementBalance, &rec.BookBalance,
		&rec.DepositsInTransit, &rec.OutstandingChecks, &rec.BankAdjustments, &rec.BookAdjustments,
		&rec.AdjustedBookBalance, &rec.AdjustedBankBalance, &rec.Variance, &rec.IsBalanced,
		&rec.CreatedAt, &rec.CreatedBy, &rec.LastUpdatedAt, &rec.LastUpdatedBy)
	if err != nil {
		return nil, mapError(err, "find latest reconciliation of "+bankAccountID)
	}

	rows, err := r.db.Query(ctx, `
		SELECT item_id, reconciliation_id, item_type, amount, description, bank_transaction_id, gl_entry_id
		FROM reconciliation_items WHERE reconciliation_id = $1 ORDER BY item_id;`, rec.ReconciliationID)
	if err != nil {
		return nil, mapError(err, "query reconciliation items")
	}
	defer rows.Close()
	rec.Items = []domain.ReconciliationItem{}
	for rows.Next() {
		var item domain.ReconciliationItem
		if err := rows.Scan(&item.ItemID, &item.ReconciliationID, &item.ItemType, &item.Amount, &item.Description,
			&item.BankTransactionID, &item.GLEntryID); err != nil {
			return nil, mapError(err, "scan reconciliation item")
		}
		rec.Items = append(rec.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate reconciliation items")
	}
	return &rec, nil
}
