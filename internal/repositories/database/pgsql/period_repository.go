package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxPeriodRepository struct {
	BaseRepository
}

// newPgxPeriodRepository creates a new repository for fiscal years and periods.
func newPgxPeriodRepository(db Querier) portsrepo.PeriodRepositoryFacade {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

const periodColumns = `fiscal_period_id, organization_id, fiscal_year_id, name, period_number, start_date, end_date,
		is_closed, closed_at, closed_by, closing_entry_id`

func scanPeriod(row pgx.Row) (domain.FiscalPeriod, error) {
	var p domain.FiscalPeriod
	err := row.Scan(&p.FiscalPeriodID, &p.OrganizationID, &p.FiscalYearID, &p.Name, &p.PeriodNumber, &p.StartDate, &p.EndDate,
		&p.IsClosed, &p.ClosedAt, &p.ClosedBy, &p.ClosingEntryID)
	return p, err
}

// SaveFiscalYear inserts the year and its periods.
func (r *PgxPeriodRepository) SaveFiscalYear(ctx context.Context, year domain.FiscalYear) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO fiscal_years (fiscal_year_id, organization_id, name, start_date, end_date, period_type,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
		year.FiscalYearID, year.OrganizationID, year.Name, year.StartDate, year.EndDate, year.PeriodType,
		year.CreatedAt, year.CreatedBy, year.LastUpdatedAt, year.LastUpdatedBy)
	for _, p := range year.Periods {
		batch.Queue(`
			INSERT INTO fiscal_periods (`+periodColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
			p.FiscalPeriodID, year.OrganizationID, year.FiscalYearID, p.Name, p.PeriodNumber, p.StartDate, p.EndDate,
			p.IsClosed, p.ClosedAt, p.ClosedBy, p.ClosingEntryID)
	}
	return r.execBatch(ctx, batch, "save fiscal year "+year.Name, true)
}

// CountOverlappingFiscalYears counts years intersecting [start, end].
func (r *PgxPeriodRepository) CountOverlappingFiscalYears(ctx context.Context, organizationID string, start, end time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM fiscal_years
		WHERE organization_id = $1 AND start_date <= $3 AND end_date >= $2;`,
		organizationID, start, end).Scan(&n)
	if err != nil {
		return 0, mapError(err, "count overlapping fiscal years")
	}
	return n, nil
}

func (r *PgxPeriodRepository) FindPeriodForUpdate(ctx context.Context, organizationID, periodID string) (*domain.FiscalPeriod, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `
		SELECT `+periodColumns+` FROM fiscal_periods
		WHERE organization_id = $1 AND fiscal_period_id = $2
		FOR UPDATE;`, organizationID, periodID))
	if err != nil {
		return nil, mapError(err, "find fiscal period "+periodID)
	}
	return &p, nil
}

// FindPeriodByDate takes a shared lock so a concurrent close waits for the posting.
func (r *PgxPeriodRepository) FindPeriodByDate(ctx context.Context, organizationID string, date time.Time) (*domain.FiscalPeriod, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `
		SELECT `+periodColumns+` FROM fiscal_periods
		WHERE organization_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date
		LIMIT 1
		FOR SHARE;`, organizationID, domain.DateOnly(date)))
	if err != nil {
		return nil, mapError(err, "find fiscal period for "+date.Format(time.DateOnly))
	}
	return &p, nil
}

// ClosePeriod stores the closed flag, closing entry and closer.
func (r *PgxPeriodRepository) ClosePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE fiscal_periods
		SET is_closed = TRUE, closed_at = $3, closed_by = $4, closing_entry_id = $5
		WHERE organization_id = $1 AND fiscal_period_id = $2 AND is_closed = FALSE;`,
		period.OrganizationID, period.FiscalPeriodID, period.ClosedAt, period.ClosedBy, period.ClosingEntryID)
	if err != nil {
		return mapError(err, "close fiscal period "+period.Name)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("fiscal period %s: %w", period.FiscalPeriodID, apperrors.ErrConflict)
	}
	return nil
}
