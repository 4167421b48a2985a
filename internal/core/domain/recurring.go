package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Frequency is how often a recurring entry posts.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Months is the number of calendar months in one interval.
func (f Frequency) Months() (int, error) {
	switch f {
	case FrequencyMonthly:
		return 1, nil
	case FrequencyQuarterly:
		return 3, nil
	case FrequencyYearly:
		return 12, nil
	}
	return 0, fmt.Errorf("unknown frequency %q: %w", f, apperrors.ErrValidation)
}

// Advance returns date moved forward by one interval, kept on anchorDay of the
// month where the month is long enough.
func (f Frequency) Advance(date time.Time, anchorDay int) (time.Time, error) {
	months, err := f.Months()
	if err != nil {
		return time.Time{}, err
	}
	return AddMonths(date, months, anchorDay), nil
}

// JournalTemplate is a reusable set of lines for recurring postings.
type JournalTemplate struct {
	TemplateID     string         `json:"templateID"`
	OrganizationID string         `json:"organizationID"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Lines          []TemplateLine `json:"lines"`
	AuditFields
}

// TemplateLine carries debit and credit formulas. A formula is a literal
// decimal amount; a blank formula means zero.
type TemplateLine struct {
	AccountID     string `json:"accountID"`
	DebitFormula  string `json:"debitFormula"`
	CreditFormula string `json:"creditFormula"`
	Description   string `json:"description"`
}

// EvaluateFormula resolves a template formula to an amount.
func EvaluateFormula(formula string) (decimal.Decimal, error) {
	f := strings.TrimSpace(formula)
	if f == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(f)
	if err != nil {
		return decimal.Zero, fmt.Errorf("formula %q is not a decimal amount: %w", formula, apperrors.ErrValidation)
	}
	return d, nil
}

// Evaluate turns the template into journal lines.
func (t JournalTemplate) Evaluate() ([]JournalLine, error) {
	lines := make([]JournalLine, 0, len(t.Lines))
	for i, tl := range t.Lines {
		debit, err := EvaluateFormula(tl.DebitFormula)
		if err != nil {
			return nil, fmt.Errorf("template %s line %d: %w", t.Name, i+1, err)
		}
		credit, err := EvaluateFormula(tl.CreditFormula)
		if err != nil {
			return nil, fmt.Errorf("template %s line %d: %w", t.Name, i+1, err)
		}
		lines = append(lines, JournalLine{AccountID: tl.AccountID, Debit: debit, Credit: credit, Description: tl.Description})
	}
	return lines, nil
}

// RecurringEntry schedules a template to post on a fixed frequency.
type RecurringEntry struct {
	RecurringEntryID string     `json:"recurringEntryID"`
	OrganizationID   string     `json:"organizationID"`
	TemplateID       string     `json:"templateID"`
	Name             string     `json:"name"`
	Frequency        Frequency  `json:"frequency"`
	StartDate        time.Time  `json:"startDate"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	NextRunDate      time.Time  `json:"nextRunDate"`
	LastRunDate      *time.Time `json:"lastRunDate,omitempty"`
	IsActive         bool       `json:"isActive"`
	AuditFields
}

// MarkRun records a posting on NextRunDate, advances the schedule on the
// StartDate day of month and deactivates the entry once the next run would fall after EndDate.
func (r *RecurringEntry) MarkRun() error {
	ran := r.NextRunDate
	anchor := r.StartDate
	if anchor.IsZero() {
		anchor = ran
	}
	next, err := r.Frequency.Advance(ran, anchor.Day())
	if err != nil {
		return err
	}
	r.LastRunDate = &ran
	r.NextRunDate = next
	if r.EndDate != nil && next.After(*r.EndDate) {
		r.IsActive = false
	}
	return nil
}
