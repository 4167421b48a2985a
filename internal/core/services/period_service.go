package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type periodService struct {
	BaseService
	txm    portsrepo.TransactionManager
	poster portssvc.JournalPoster
}

// NewPeriodService creates the fiscal year and period closing service.
func NewPeriodService(txm portsrepo.TransactionManager, poster portssvc.JournalPoster, options ...ServiceOption) portssvc.PeriodSvcFacade {
	return &periodService{BaseService: newBaseService(options), txm: txm, poster: poster}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) CreateFiscalYear(ctx context.Context, organizationID string, req dto.CreateFiscalYearRequest, userID string) (*domain.FiscalYear, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("fiscal year name is required: %w", apperrors.ErrValidation)
	}
	periods, err := domain.GeneratePeriods(name, req.StartDate, req.EndDate, req.PeriodType)
	if err != nil {
		return nil, err
	}

	year := domain.FiscalYear{
		FiscalYearID:   uuid.NewString(),
		OrganizationID: organizationID,
		Name:           name,
		StartDate:      domain.DateOnly(req.StartDate),
		EndDate:        domain.DateOnly(req.EndDate),
		PeriodType:     req.PeriodType,
		AuditFields:    domain.NewAuditFields(userID, s.Now()),
	}
	for i := range periods {
		periods[i].FiscalPeriodID = uuid.NewString()
		periods[i].OrganizationID = organizationID
		periods[i].FiscalYearID = year.FiscalYearID
	}
	year.Periods = periods

	err = s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		overlapping, err := repos.Periods.CountOverlappingFiscalYears(ctx, organizationID, year.StartDate, year.EndDate)
		if err != nil {
			return fmt.Errorf("failed to check fiscal year overlap: %w", err)
		}
		if overlapping > 0 {
			return fmt.Errorf("fiscal year %s: %w", name, domain.ErrFiscalYearOverlap)
		}
		return repos.Periods.SaveFiscalYear(ctx, year)
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Fiscal year created",
		slog.String("fiscal_year_id", year.FiscalYearID),
		slog.Int("periods", len(year.Periods)))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "fiscal_year",
		EntityID:       year.FiscalYearID,
		Action:         domain.AuditCreate,
		NewValues:      year,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return &year, nil
}

// ClosePeriod closes a period once. Optional closing lines are posted as one
// entry dated at the period end before the period is flagged closed.
func (s *periodService) ClosePeriod(ctx context.Context, organizationID, periodID string, req dto.ClosePeriodRequest, userID string) (*domain.FiscalPeriod, error) {
	closingLines := dto.ToDomainLines(req.ClosingLines)
	for i := range closingLines {
		closingLines[i].Debit = domain.RoundMoney(closingLines[i].Debit)
		closingLines[i].Credit = domain.RoundMoney(closingLines[i].Credit)
	}
	if len(closingLines) > 0 {
		debit, credit := decimal.Zero, decimal.Zero
		for _, l := range closingLines {
			debit = debit.Add(l.Debit)
			credit = credit.Add(l.Credit)
		}
		if !domain.Within(debit, credit, domain.BalanceTolerance) {
			return nil, fmt.Errorf("%w (debit %s, credit %s)", domain.ErrClosingEntriesUnbalanced, debit.String(), credit.String())
		}
	}

	var period *domain.FiscalPeriod
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		period, err = repos.Periods.FindPeriodForUpdate(ctx, organizationID, periodID)
		if err != nil {
			return err
		}
		if period.IsClosed {
			return fmt.Errorf("period %s: %w", period.Name, domain.ErrPeriodAlreadyClosed)
		}
		unposted, err := repos.Journals.CountUnpostedInRange(ctx, organizationID, period.StartDate, period.EndDate)
		if err != nil {
			return fmt.Errorf("failed to count unposted entries: %w", err)
		}
		if unposted > 0 {
			return fmt.Errorf("period %s (%d entries): %w", period.Name, unposted, domain.ErrUnpostedEntries)
		}

		if len(closingLines) > 0 {
			entry, err := s.poster.PostInTx(ctx, repos, portssvc.PostingRequest{
				OrganizationID: organizationID,
				PostingDate:    period.EndDate,
				Reference:      "CLOSING-" + period.Name,
				Description:    "Closing entries for " + period.Name,
				Source:         domain.SourceClosing,
				Series:         domain.SeriesClosing,
				Lines:          closingLines,
				UserID:         userID,
			})
			if err != nil {
				return fmt.Errorf("post closing entries: %w", err)
			}
			period.ClosingEntryID = &entry.JournalEntryID
		}

		now := s.Now()
		closedBy := userID
		period.IsClosed = true
		period.ClosedAt = &now
		period.ClosedBy = &closedBy
		return repos.Periods.ClosePeriod(ctx, *period)
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Fiscal period closed",
		slog.String("fiscal_period_id", periodID),
		slog.String("name", period.Name))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "fiscal_period",
		EntityID:       periodID,
		Action:         domain.AuditClose,
		OldValues:      map[string]any{"isClosed": false},
		NewValues:      period,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return period, nil
}
