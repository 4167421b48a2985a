package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and GL lines.
func newPgxJournalRepository(db Querier) portsrepo.JournalRepositoryFacade {
	return &PgxJournalRepository{BaseRepository: BaseRepository{db: db}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const journalColumns = `journal_entry_id, organization_id, entry_number, posting_date, reference, description, source,
		total_debit, total_credit, is_posted, reversal_of_id, reversed_by_id,
		created_at, created_by, last_updated_at, last_updated_by`

func scanJournalEntry(row pgx.Row) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	err := row.Scan(
		&e.JournalEntryID,
		&e.OrganizationID,
		&e.EntryNumber,
		&e.PostingDate,
		&e.Reference,
		&e.Description,
		&e.Source,
		&e.TotalDebit,
		&e.TotalCredit,
		&e.IsPosted,
		&e.ReversalOfID,
		&e.ReversedByID,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	return e, err
}

// SaveJournalEntry inserts the header and all its lines in one batch.
func (r *PgxJournalRepository) SaveJournalEntry(ctx context.Context, entry domain.JournalEntry) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO journal_entries (`+journalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);`,
		entry.JournalEntryID,
		entry.OrganizationID,
		entry.EntryNumber,
		entry.PostingDate,
		entry.Reference,
		entry.Description,
		entry.Source,
		entry.TotalDebit,
		entry.TotalCredit,
		entry.IsPosted,
		entry.ReversalOfID,
		entry.ReversedByID,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)

	lineQuery := `
		INSERT INTO gl_entries (gl_entry_id, journal_entry_id, organization_id, account_id, debit, credit, description, posting_date, is_cleared, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9);
	`
	for _, l := range entry.Lines {
		batch.Queue(lineQuery,
			l.GLEntryID,
			entry.JournalEntryID,
			entry.OrganizationID,
			l.AccountID,
			l.Debit,
			l.Credit,
			l.Description,
			l.PostingDate,
			l.CreatedAt,
		)
	}
	return r.execBatch(ctx, batch, "save journal entry "+entry.EntryNumber, true)
}

func (r *PgxJournalRepository) findJournalEntry(ctx context.Context, organizationID, journalEntryID string, lock bool) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE organization_id = $1 AND journal_entry_id = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	entry, err := scanJournalEntry(r.db.QueryRow(ctx, query, organizationID, journalEntryID))
	if err != nil {
		return nil, mapError(err, "find journal entry "+journalEntryID)
	}

	lines, err := r.findLines(ctx, journalEntryID)
	if err != nil {
		return nil, err
	}
	entry.Lines = lines
	return &entry, nil
}

func (r *PgxJournalRepository) findLines(ctx context.Context, journalEntryID string) ([]domain.GLEntry, error) {
	query := `
		SELECT gl_entry_id, journal_entry_id, organization_id, account_id, debit, credit, description, posting_date, is_cleared, cleared_at, created_at
		FROM gl_entries
		WHERE journal_entry_id = $1
		ORDER BY created_at, gl_entry_id;
	`
	rows, err := r.db.Query(ctx, query, journalEntryID)
	if err != nil {
		return nil, mapError(err, "query GL lines of "+journalEntryID)
	}
	defer rows.Close()

	var lines []domain.GLEntry
	for rows.Next() {
		var l domain.GLEntry
		if err := rows.Scan(&l.GLEntryID, &l.JournalEntryID, &l.OrganizationID, &l.AccountID, &l.Debit, &l.Credit,
			&l.Description, &l.PostingDate, &l.IsCleared, &l.ClearedAt, &l.CreatedAt); err != nil {
			return nil, mapError(err, "scan GL line")
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate GL lines")
	}
	return lines, nil
}

// FindJournalEntryByID loads the header and lines.
func (r *PgxJournalRepository) FindJournalEntryByID(ctx context.Context, organizationID, journalEntryID string) (*domain.JournalEntry, error) {
	return r.findJournalEntry(ctx, organizationID, journalEntryID, false)
}

// FindJournalEntryForUpdate loads and locks the header, with lines.
func (r *PgxJournalRepository) FindJournalEntryForUpdate(ctx context.Context, organizationID, journalEntryID string) (*domain.JournalEntry, error) {
	return r.findJournalEntry(ctx, organizationID, journalEntryID, true)
}

// CountUnpostedInRange counts draft entries with a posting date in [from, to].
func (r *PgxJournalRepository) CountUnpostedInRange(ctx context.Context, organizationID string, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM journal_entries
		WHERE organization_id = $1 AND is_posted = FALSE AND posting_date BETWEEN $2 AND $3;
	`
	var n int
	if err := r.db.QueryRow(ctx, query, organizationID, from, to).Scan(&n); err != nil {
		return 0, mapError(err, "count unposted journal entries")
	}
	return n, nil
}

// MarkPosted flips a draft to posted.
func (r *PgxJournalRepository) MarkPosted(ctx context.Context, organizationID, journalEntryID, userID string, now time.Time) error {
	query := `
		UPDATE journal_entries
		SET is_posted = TRUE, last_updated_at = $3, last_updated_by = $4
		WHERE organization_id = $1 AND journal_entry_id = $2 AND is_posted = FALSE;
	`
	ct, err := r.db.Exec(ctx, query, organizationID, journalEntryID, now, userID)
	if err != nil {
		return mapError(err, "post journal entry "+journalEntryID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("journal entry %s: %w", journalEntryID, domain.ErrJournalAlreadyPosted)
	}
	return nil
}

// SetReversedBy links an entry to the entry that reversed it. Only the first
// reversal wins.
func (r *PgxJournalRepository) SetReversedBy(ctx context.Context, organizationID, journalEntryID, reversalID, userID string, now time.Time) error {
	query := `
		UPDATE journal_entries
		SET reversed_by_id = $3, last_updated_at = $4, last_updated_by = $5
		WHERE organization_id = $1 AND journal_entry_id = $2 AND reversed_by_id IS NULL;
	`
	ct, err := r.db.Exec(ctx, query, organizationID, journalEntryID, reversalID, now, userID)
	if err != nil {
		return mapError(err, "link reversal of "+journalEntryID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("journal entry %s: %w", journalEntryID, domain.ErrJournalAlreadyReverse)
	}
	return nil
}

// MarkGLEntriesCleared flags posted lines of accountID as cleared by a reconciliation.
func (r *PgxJournalRepository) MarkGLEntriesCleared(ctx context.Context, organizationID, accountID string, glEntryIDs []string, at time.Time) (int64, error) {
	if len(glEntryIDs) == 0 {
		return 0, nil
	}
	query := `
		UPDATE gl_entries g
		SET is_cleared = TRUE, cleared_at = $4
		FROM journal_entries j
		WHERE j.journal_entry_id = g.journal_entry_id AND j.is_posted
		  AND g.organization_id = $1 AND g.account_id = $2 AND g.gl_entry_id = ANY($3) AND g.is_cleared = FALSE;
	`
	ct, err := r.db.Exec(ctx, query, organizationID, accountID, glEntryIDs, at)
	if err != nil {
		return 0, mapError(err, "clear GL lines")
	}
	return ct.RowsAffected(), nil
}

// ListLedgerLines returns posted lines matching filter in chronological order.
func (r *PgxJournalRepository) ListLedgerLines(ctx context.Context, organizationID string, filter domain.LedgerFilter) ([]domain.LedgerLine, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT g.gl_entry_id, g.journal_entry_id, j.entry_number, g.posting_date, g.account_id, a.code, a.name, a.account_type,
		       j.reference, g.description, g.debit, g.credit
		FROM gl_entries g
		JOIN journal_entries j ON j.journal_entry_id = g.journal_entry_id
		JOIN accounts a ON a.account_id = g.account_id
		WHERE g.organization_id = $1 AND j.is_posted`)
	args := []any{organizationID}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		fmt.Fprintf(&sb, " AND g.account_id = $%d", len(args))
	}
	if filter.FromDate != nil {
		args = append(args, domain.DateOnly(*filter.FromDate))
		fmt.Fprintf(&sb, " AND g.posting_date >= $%d", len(args))
	}
	if filter.ToDate != nil {
		args = append(args, domain.DateOnly(*filter.ToDate))
		fmt.Fprintf(&sb, " AND g.posting_date <= $%d", len(args))
	}
	sb.WriteString(" ORDER BY g.posting_date, j.entry_number, g.created_at, g.gl_entry_id;")

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapError(err, "list ledger lines")
	}
	defer rows.Close()

	lines := []domain.LedgerLine{}
	for rows.Next() {
		var l domain.LedgerLine
		if err := rows.Scan(&l.GLEntryID, &l.JournalEntryID, &l.EntryNumber, &l.PostingDate, &l.AccountID, &l.AccountCode,
			&l.AccountName, &l.AccountType, &l.Reference, &l.Description, &l.Debit, &l.Credit); err != nil {
			return nil, mapError(err, "scan ledger line")
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate ledger lines")
	}
	return lines, nil
}

// OpeningBalances sums posted lines dated before the given date per account.
func (r *PgxJournalRepository) OpeningBalances(ctx context.Context, organizationID string, accountID *string, before time.Time) (map[string]decimal.Decimal, error) {
	query := `
		SELECT g.account_id, a.account_type, SUM(g.debit), SUM(g.credit)
		FROM gl_entries g
		JOIN journal_entries j ON j.journal_entry_id = g.journal_entry_id
		JOIN accounts a ON a.account_id = g.account_id
		WHERE g.organization_id = $1 AND j.is_posted AND g.posting_date < $2
		  AND ($3::varchar IS NULL OR g.account_id = $3)
		GROUP BY g.account_id, a.account_type;
	`
	rows, err := r.db.Query(ctx, query, organizationID, before, accountID)
	if err != nil {
		return nil, mapError(err, "compute opening balances")
	}
	defer rows.Close()

	balances := make(map[string]decimal.Decimal)
	for rows.Next() {
		var id string
		var accountType domain.AccountType
		var debit, credit decimal.Decimal
		if err := rows.Scan(&id, &accountType, &debit, &credit); err != nil {
			return nil, mapError(err, "scan opening balance")
		}
		signed, err := domain.SignedAmount(accountType, debit, credit)
		if err != nil {
			return nil, fmt.Errorf("opening balance of %s: %w", id, apperrors.ErrIntegrity)
		}
		balances[id] = signed
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate opening balances")
	}
	return balances, nil
}
