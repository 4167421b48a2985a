package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// PeriodRepositoryFacade persists fiscal years and periods.
type PeriodRepositoryFacade interface {
	// SaveFiscalYear inserts the year and its periods.
	SaveFiscalYear(ctx context.Context, year domain.FiscalYear) error

	// CountOverlappingFiscalYears counts years intersecting [start, end].
	CountOverlappingFiscalYears(ctx context.Context, organizationID string, start, end time.Time) (int, error)

	// FindPeriodForUpdate loads and locks a period.
	FindPeriodForUpdate(ctx context.Context, organizationID, periodID string) (*domain.FiscalPeriod, error)

	// FindPeriodByDate returns the period containing date, or apperrors.ErrNotFound.
	FindPeriodByDate(ctx context.Context, organizationID string, date time.Time) (*domain.FiscalPeriod, error)

	// ClosePeriod stores the closed flag, closing entry and closer.
	ClosePeriod(ctx context.Context, period domain.FiscalPeriod) error
}

// RecurringRepositoryFacade persists journal templates and recurring entries.
type RecurringRepositoryFacade interface {
	SaveTemplate(ctx context.Context, template domain.JournalTemplate) error
	FindTemplateByID(ctx context.Context, organizationID, templateID string) (*domain.JournalTemplate, error)
	SaveRecurringEntry(ctx context.Context, entry domain.RecurringEntry) error

	// ListDueRecurringEntries returns active entries with next run on or before asOf.
	ListDueRecurringEntries(ctx context.Context, organizationID string, asOf time.Time) ([]domain.RecurringEntry, error)

	// FindRecurringEntryForUpdate loads and locks an entry.
	FindRecurringEntryForUpdate(ctx context.Context, organizationID, recurringEntryID string) (*domain.RecurringEntry, error)
	UpdateRecurringSchedule(ctx context.Context, entry domain.RecurringEntry) error

	// ListOrganizationsWithDueEntries returns organizations with recurring work due by asOf.
	ListOrganizationsWithDueEntries(ctx context.Context, asOf time.Time) ([]string, error)
}
