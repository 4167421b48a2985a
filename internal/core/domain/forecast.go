package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/shopspring/decimal"
)

// ForecastGranularity is the length of each forecast period.
type ForecastGranularity string

const (
	ForecastWeekly  ForecastGranularity = "weekly"
	ForecastMonthly ForecastGranularity = "monthly"
)

// CashFlowForecast projects cash balance over consecutive periods.
type CashFlowForecast struct {
	ForecastID     string              `json:"forecastID"`
	OrganizationID string              `json:"organizationID"`
	StartDate      time.Time           `json:"startDate"`
	EndDate        time.Time           `json:"endDate"`
	Granularity    ForecastGranularity `json:"granularity"`
	BankAccountIDs []string            `json:"bankAccountIDs"`
	OpeningBalance decimal.Decimal     `json:"openingBalance"`
	ClosingBalance decimal.Decimal     `json:"closingBalance"`
	Periods        []ForecastPeriod    `json:"periods"`
	AuditFields
}

// ForecastPeriod is one [StartDate, EndDate] slice of a forecast.
type ForecastPeriod struct {
	PeriodIndex    int             `json:"periodIndex"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Inflows        decimal.Decimal `json:"inflows"`
	Outflows       decimal.Decimal `json:"outflows"`
	NetCashFlow    decimal.Decimal `json:"netCashFlow"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}

// CashMovement is an expected inflow (positive) or outflow (negative) on a date.
type CashMovement struct {
	Date   time.Time
	Amount decimal.Decimal
}

// NewForecastPeriods lays out count contiguous periods from start.
func NewForecastPeriods(start time.Time, count int, granularity ForecastGranularity) ([]ForecastPeriod, error) {
	if count <= 0 {
		return nil, fmt.Errorf("forecast needs at least one period: %w", apperrors.ErrValidation)
	}
	periods := make([]ForecastPeriod, 0, count)
	first := DateOnly(start)
	cursor := first
	for i := 0; i < count; i++ {
		var next time.Time
		switch granularity {
		case ForecastWeekly:
			next = cursor.AddDate(0, 0, 7)
		case ForecastMonthly:
			next = AddMonths(first, i+1, first.Day())
		default:
			return nil, fmt.Errorf("unknown granularity %q: %w", granularity, apperrors.ErrValidation)
		}
		periods = append(periods, ForecastPeriod{
			PeriodIndex: i,
			StartDate:   cursor,
			EndDate:     next.AddDate(0, 0, -1),
			Inflows:     decimal.Zero,
			Outflows:    decimal.Zero,
		})
		cursor = next
	}
	return periods, nil
}

// ApplyMovements buckets movements into periods and rolls balances forward from
// opening. Movements dated before the first period land in the first period;
// movements after the last period are ignored.
func ApplyMovements(periods []ForecastPeriod, opening decimal.Decimal, movements []CashMovement) decimal.Decimal {
	if len(periods) == 0 {
		return opening
	}
	for _, m := range movements {
		idx := -1
		d := DateOnly(m.Date)
		for i := range periods {
			if !d.After(periods[i].EndDate) {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		if m.Amount.IsNegative() {
			periods[idx].Outflows = periods[idx].Outflows.Add(m.Amount.Neg())
		} else {
			periods[idx].Inflows = periods[idx].Inflows.Add(m.Amount)
		}
	}
	balance := opening
	for i := range periods {
		periods[i].OpeningBalance = balance
		periods[i].NetCashFlow = periods[i].Inflows.Sub(periods[i].Outflows)
		balance = balance.Add(periods[i].NetCashFlow)
		periods[i].ClosingBalance = balance
	}
	return balance
}
