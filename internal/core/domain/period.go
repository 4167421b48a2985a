package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
)

// PeriodType is how a fiscal year is split into periods.
type PeriodType string

const (
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
)

var (
	ErrPeriodAlreadyClosed      = fmt.Errorf("fiscal period is already closed: %w", apperrors.ErrConflict)
	ErrUnpostedEntries          = fmt.Errorf("fiscal period has unposted journal entries: %w", apperrors.ErrConflict)
	ErrClosingEntriesUnbalanced = fmt.Errorf("closing entries do not balance: %w", apperrors.ErrIntegrity)
	ErrFiscalYearOverlap        = fmt.Errorf("fiscal year overlaps an existing fiscal year: %w", apperrors.ErrConflict)
)

// FiscalYear groups contiguous fiscal periods.
type FiscalYear struct {
	FiscalYearID   string         `json:"fiscalYearID"`
	OrganizationID string         `json:"organizationID"`
	Name           string         `json:"name"`
	StartDate      time.Time      `json:"startDate"`
	EndDate        time.Time      `json:"endDate"`
	PeriodType     PeriodType     `json:"periodType"`
	Periods        []FiscalPeriod `json:"periods,omitempty"`
	AuditFields
}

// FiscalPeriod is a date range that is closed once and never reopened.
type FiscalPeriod struct {
	FiscalPeriodID string     `json:"fiscalPeriodID"`
	OrganizationID string     `json:"organizationID"`
	FiscalYearID   string     `json:"fiscalYearID"`
	Name           string     `json:"name"`
	PeriodNumber   int        `json:"periodNumber"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        time.Time  `json:"endDate"`
	IsClosed       bool       `json:"isClosed"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	ClosedBy       *string    `json:"closedBy,omitempty"`
	ClosingEntryID *string    `json:"closingEntryID,omitempty"`
}

// Contains reports whether date falls inside the period, inclusive of both ends.
func (p FiscalPeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}

// GeneratePeriods splits [start, end] into monthly or quarterly periods. Period
// boundaries stay on the start day of month, clamped to shorter months. The last
// period is cut short at end.
func GeneratePeriods(yearName string, start, end time.Time, periodType PeriodType) ([]FiscalPeriod, error) {
	start, end = DateOnly(start), DateOnly(end)
	if !end.After(start) {
		return nil, fmt.Errorf("fiscal year end must be after start: %w", apperrors.ErrValidation)
	}
	months := 0
	label := ""
	switch periodType {
	case PeriodMonthly:
		months, label = 1, "P"
	case PeriodQuarterly:
		months, label = 3, "Q"
	default:
		return nil, fmt.Errorf("unknown period type %q: %w", periodType, apperrors.ErrValidation)
	}

	var periods []FiscalPeriod
	cursor := start
	for n := 1; !cursor.After(end); n++ {
		periodEnd := AddMonths(start, n*months, start.Day()).AddDate(0, 0, -1)
		if periodEnd.After(end) {
			periodEnd = end
		}
		periods = append(periods, FiscalPeriod{
			Name:         fmt.Sprintf("%s-%s%02d", yearName, label, n),
			PeriodNumber: n,
			StartDate:    cursor,
			EndDate:      periodEnd,
		})
		cursor = periodEnd.AddDate(0, 0, 1)
	}
	return periods, nil
}
