package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// PeriodSvcFacade manages fiscal years and period closing.
type PeriodSvcFacade interface {
	CreateFiscalYear(ctx context.Context, organizationID string, req dto.CreateFiscalYearRequest, userID string) (*domain.FiscalYear, error)
	ClosePeriod(ctx context.Context, organizationID, periodID string, req dto.ClosePeriodRequest, userID string) (*domain.FiscalPeriod, error)
}

// RecurringSvcFacade manages journal templates and recurring postings.
type RecurringSvcFacade interface {
	CreateJournalTemplate(ctx context.Context, organizationID string, req dto.CreateJournalTemplateRequest, userID string) (*domain.JournalTemplate, error)
	CreateRecurringEntry(ctx context.Context, organizationID string, req dto.CreateRecurringEntryRequest, userID string) (*domain.RecurringEntry, error)
	ProcessRecurringEntries(ctx context.Context, organizationID string, asOf time.Time) (domain.BatchResult, error)
	ProcessAllRecurringEntries(ctx context.Context, asOf time.Time) (domain.BatchResult, error)
}
