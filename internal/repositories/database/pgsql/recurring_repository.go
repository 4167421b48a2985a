package pgsql

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxRecurringRepository struct {
	BaseRepository
}

// newPgxRecurringRepository creates a new repository for journal templates and recurring entries.
func newPgxRecurringRepository(db Querier) portsrepo.RecurringRepositoryFacade {
	return &PgxRecurringRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.RecurringRepositoryFacade = (*PgxRecurringRepository)(nil)

const recurringColumns = `recurring_entry_id, organization_id, template_id, name, frequency, start_date, end_date,
		next_run_date, last_run_date, is_active, created_at, created_by, last_updated_at, last_updated_by`

func scanRecurringEntry(row pgx.Row) (domain.RecurringEntry, error) {
	var e domain.RecurringEntry
	err := row.Scan(&e.RecurringEntryID, &e.OrganizationID, &e.TemplateID, &e.Name, &e.Frequency, &e.StartDate, &e.EndDate,
		&e.NextRunDate, &e.LastRunDate, &e.IsActive, &e.CreatedAt, &e.CreatedBy, &e.LastUpdatedAt, &e.LastUpdatedBy)
	return e, err
}

// SaveTemplate stores the template; its lines are kept as a JSONB document.
func (r *PgxRecurringRepository) SaveTemplate(ctx context.Context, template domain.JournalTemplate) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO journal_templates (template_id, organization_id, name, description, lines,
			created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		template.TemplateID, template.OrganizationID, template.Name, template.Description, template.Lines,
		template.CreatedAt, template.CreatedBy, template.LastUpdatedAt, template.LastUpdatedBy)
	return mapError(err, "save journal template "+template.Name)
}

func (r *PgxRecurringRepository) FindTemplateByID(ctx context.Context, organizationID, templateID string) (*domain.JournalTemplate, error) {
	var t domain.JournalTemplate
	err := r.db.QueryRow(ctx, `
		SELECT template_id, organization_id, name, description, lines, created_at, created_by, last_updated_at, last_updated_by
		FROM journal_templates WHERE organization_id = $1 AND template_id = $2;`, organizationID, templateID,
	).Scan(&t.TemplateID, &t.OrganizationID, &t.Name, &t.Description, &t.Lines,
		&t.CreatedAt, &t.CreatedBy, &t.LastUpdatedAt, &t.LastUpdatedBy)
	if err != nil {
		return nil, mapError(err, "find journal template "+templateID)
	}
	return &t, nil
}

func (r *PgxRecurringRepository) SaveRecurringEntry(ctx context.Context, entry domain.RecurringEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO recurring_entries (`+recurringColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);`,
		entry.RecurringEntryID, entry.OrganizationID, entry.TemplateID, entry.Name, entry.Frequency, entry.StartDate, entry.EndDate,
		entry.NextRunDate, entry.LastRunDate, entry.IsActive, entry.CreatedAt, entry.CreatedBy, entry.LastUpdatedAt, entry.LastUpdatedBy)
	return mapError(err, "save recurring entry "+entry.Name)
}

// ListDueRecurringEntries returns active entries with next run on or before asOf.
func (r *PgxRecurringRepository) ListDueRecurringEntries(ctx context.Context, organizationID string, asOf time.Time) ([]domain.RecurringEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+recurringColumns+`
		FROM recurring_entries
		WHERE organization_id = $1 AND is_active AND next_run_date <= $2
		ORDER BY next_run_date, recurring_entry_id;`, organizationID, domain.DateOnly(asOf))
	if err != nil {
		return nil, mapError(err, "list due recurring entries")
	}
	defer rows.Close()

	entries := []domain.RecurringEntry{}
	for rows.Next() {
		e, err := scanRecurringEntry(rows)
		if err != nil {
			return nil, mapError(err, "scan recurring entry")
		}
		entries = append(entries, e)
	}
	return entries, mapError(rows.Err(), "iterate recurring entries")
}

func (r *PgxRecurringRepository) FindRecurringEntryForUpdate(ctx context.Context, organizationID, recurringEntryID string) (*domain.RecurringEntry, error) {
	e, err := scanRecurringEntry(r.db.QueryRow(ctx, `
		SELECT `+recurringColumns+` FROM recurring_entries
		WHERE organization_id = $1 AND recurring_entry_id = $2
		FOR UPDATE;`, organizationID, recurringEntryID))
	if err != nil {
		return nil, mapError(err, "find recurring entry "+recurringEntryID)
	}
	return &e, nil
}

func (r *PgxRecurringRepository) UpdateRecurringSchedule(ctx context.Context, entry domain.RecurringEntry) error {
	_, err := r.db.Exec(ctx, `
		UPDATE recurring_entries
		SET next_run_date = $3, last_run_date = $4, is_active = $5, last_updated_at = $6, last_updated_by = $7
		WHERE organization_id = $1 AND recurring_entry_id = $2;`,
		entry.OrganizationID, entry.RecurringEntryID, entry.NextRunDate, entry.LastRunDate, entry.IsActive,
		entry.LastUpdatedAt, entry.LastUpdatedBy)
	return mapError(err, "update schedule of "+entry.Name)
}

// ListOrganizationsWithDueEntries returns organizations with recurring work due by asOf.
func (r *PgxRecurringRepository) ListOrganizationsWithDueEntries(ctx context.Context, asOf time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT organization_id FROM recurring_entries
		WHERE is_active AND next_run_date <= $1
		ORDER BY organization_id;`, domain.DateOnly(asOf))
	if err != nil {
		return nil, mapError(err, "list organizations with due recurring entries")
	}
	defer rows.Close()

	var orgs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err, "scan organization id")
		}
		orgs = append(orgs, id)
	}
	return orgs, mapError(rows.Err(), "iterate organizations")
}
