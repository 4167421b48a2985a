package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// GeneralLedgerReport lists posted GL lines with per-account running balances.
// Running balances are always accumulated in posting order; the requested sort
// is applied afterwards.
func (s *journalService) GeneralLedgerReport(ctx context.Context, organizationID string, filter domain.LedgerFilter) (*domain.GeneralLedgerReport, error) {
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return nil, fmt.Errorf("toDate is before fromDate: %w", apperrors.ErrValidation)
	}
	switch filter.SortBy {
	case "":
		filter.SortBy = domain.SortByPostingDate
	case domain.SortByPostingDate, domain.SortByEntryNumber, domain.SortByAccount:
	default:
		return nil, fmt.Errorf("unknown sort field %q: %w", filter.SortBy, apperrors.ErrValidation)
	}

	repos := s.txm.Repositories()
	lines, err := repos.Journals.ListLedgerLines(ctx, organizationID, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list ledger lines", slog.String("organization_id", organizationID))
		return nil, fmt.Errorf("failed to build general ledger: %w", err)
	}

	opening := map[string]decimal.Decimal{}
	if filter.FromDate != nil {
		opening, err = repos.Journals.OpeningBalances(ctx, organizationID, filter.AccountID, domain.DateOnly(*filter.FromDate))
		if err != nil {
			s.LogError(ctx, err, "Failed to compute opening balances", slog.String("organization_id", organizationID))
			return nil, fmt.Errorf("failed to build general ledger: %w", err)
		}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return chronological(lines[i], lines[j])
	})
	totalDebit, totalCredit := domain.ApplyRunningBalances(lines, opening)
	sortLedgerLines(lines, filter.SortBy, filter.SortDesc)

	return &domain.GeneralLedgerReport{
		Filter:          filter,
		OpeningBalances: opening,
		Lines:           lines,
		TotalDebit:      totalDebit,
		TotalCredit:     totalCredit,
	}, nil
}

func chronological(a, b domain.LedgerLine) bool {
	if !a.PostingDate.Equal(b.PostingDate) {
		return a.PostingDate.Before(b.PostingDate)
	}
	return a.EntryNumber < b.EntryNumber
}

func sortLedgerLines(lines []domain.LedgerLine, field domain.LedgerSortField, desc bool) {
	less := func(a, b domain.LedgerLine) bool {
		switch field {
		case domain.SortByEntryNumber:
			if a.EntryNumber != b.EntryNumber {
				return a.EntryNumber < b.EntryNumber
			}
		case domain.SortByAccount:
			if a.AccountCode != b.AccountCode {
				return a.AccountCode < b.AccountCode
			}
		}
		return chronological(a, b)
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if desc {
			return less(lines[j], lines[i])
		}
		return less(lines[i], lines[j])
	})
}
