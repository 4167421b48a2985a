package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// CreateFiscalYearRequest defines a fiscal year and how to split it.
type CreateFiscalYearRequest struct {
	Name       string            `json:"name" binding:"required"`
	StartDate  time.Time         `json:"startDate" binding:"required"`
	EndDate    time.Time         `json:"endDate" binding:"required"`
	PeriodType domain.PeriodType `json:"periodType" binding:"required,oneof=monthly quarterly"`
}

// ClosePeriodRequest optionally carries closing entries to post at period end.
type ClosePeriodRequest struct {
	ClosingLines []JournalLineRequest `json:"closingLines" binding:"omitempty,dive"`
}

// TemplateLineRequest is one line of a journal template.
type TemplateLineRequest struct {
	AccountID     string `json:"accountID" binding:"required"`
	DebitFormula  string `json:"debitFormula"`
	CreditFormula string `json:"creditFormula"`
	Description   string `json:"description"`
}

// CreateJournalTemplateRequest defines a reusable journal template.
type CreateJournalTemplateRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Lines       []TemplateLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CreateRecurringEntryRequest schedules a template.
type CreateRecurringEntryRequest struct {
	TemplateID string           `json:"templateID" binding:"required"`
	Name       string           `json:"name" binding:"required"`
	Frequency  domain.Frequency `json:"frequency" binding:"required,oneof=monthly quarterly yearly"`
	StartDate  time.Time        `json:"startDate" binding:"required"`
	EndDate    *time.Time       `json:"endDate"`
}
