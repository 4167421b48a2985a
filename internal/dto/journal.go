package dto

import (
	"fmt"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format of query parameters.
const DateLayout = "2006-01-02"

// JournalLineRequest is one debit or credit line of a posting request.
type JournalLineRequest struct {
	AccountID   string          `json:"accountID" binding:"required"`
	Debit       decimal.Decimal `json:"debit" binding:"dgte0"`
	Credit      decimal.Decimal `json:"credit" binding:"dgte0"`
	Description string          `json:"description"`
}

// PostJournalRequest defines the data needed to post or draft a journal entry.
type PostJournalRequest struct {
	PostingDate time.Time            `json:"postingDate" binding:"required"`
	Reference   string               `json:"reference"`
	Description string               `json:"description"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ReverseJournalRequest defines the data needed to reverse a posted entry.
type ReverseJournalRequest struct {
	ReverseDate time.Time `json:"reverseDate" binding:"required"`
	Reason      string    `json:"reason"`
}

// LedgerReportParams defines the query parameters of the general ledger report.
type LedgerReportParams struct {
	AccountID string `form:"accountId"`
	FromDate  string `form:"fromDate" binding:"omitempty,datetime=2006-01-02"`
	ToDate    string `form:"toDate" binding:"omitempty,datetime=2006-01-02"`
	SortBy    string `form:"sortBy,default=posting_date" binding:"omitempty,oneof=posting_date entry_number account"`
	SortDir   string `form:"sortDir,default=asc" binding:"omitempty,oneof=asc desc"`
}

// ToDomainLines converts request lines to domain journal lines.
func ToDomainLines(lines []JournalLineRequest) []domain.JournalLine {
	out := make([]domain.JournalLine, len(lines))
	for i, l := range lines {
		out[i] = domain.JournalLine{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Description: l.Description}
	}
	return out
}

// GLEntryResponse defines the data returned for a journal line.
type GLEntryResponse struct {
	GLEntryID   string          `json:"glEntryID"`
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	IsCleared   bool            `json:"isCleared"`
}

// JournalEntryResponse defines the data returned for a journal entry.
type JournalEntryResponse struct {
	JournalEntryID string               `json:"journalEntryID"`
	EntryNumber    string               `json:"entryNumber"`
	PostingDate    time.Time            `json:"postingDate"`
	Reference      string               `json:"reference"`
	Description    string               `json:"description"`
	Source         domain.JournalSource `json:"source"`
	TotalDebit     decimal.Decimal      `json:"totalDebit"`
	TotalCredit    decimal.Decimal      `json:"totalCredit"`
	IsPosted       bool                 `json:"isPosted"`
	ReversalOfID   *string              `json:"reversalOfID,omitempty"`
	ReversedByID   *string              `json:"reversedByID,omitempty"`
	Lines          []GLEntryResponse    `json:"lines"`
	CreatedAt      time.Time            `json:"createdAt"`
	CreatedBy      string               `json:"createdBy"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to its response DTO.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	lines := make([]GLEntryResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = GLEntryResponse{
			GLEntryID:   l.GLEntryID,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
			IsCleared:   l.IsCleared,
		}
	}
	return JournalEntryResponse{
		JournalEntryID: e.JournalEntryID,
		EntryNumber:    e.EntryNumber,
		PostingDate:    e.PostingDate,
		Reference:      e.Reference,
		Description:    e.Description,
		Source:         e.Source,
		TotalDebit:     e.TotalDebit,
		TotalCredit:    e.TotalCredit,
		IsPosted:       e.IsPosted,
		ReversalOfID:   e.ReversalOfID,
		ReversedByID:   e.ReversedByID,
		Lines:          lines,
		CreatedAt:      e.CreatedAt,
		CreatedBy:      e.CreatedBy,
	}
}

// ToFilter converts query parameters to a domain.LedgerFilter.
func (p LedgerReportParams) ToFilter() (domain.LedgerFilter, error) {
	filter := domain.LedgerFilter{
		SortBy:   domain.LedgerSortField(p.SortBy),
		SortDesc: p.SortDir == "desc",
	}
	if p.AccountID != "" {
		accountID := p.AccountID
		filter.AccountID = &accountID
	}
	var err error
	if filter.FromDate, err = parseDate(p.FromDate); err != nil {
		return filter, err
	}
	if filter.ToDate, err = parseDate(p.ToDate); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseDate parses an optional YYYY-MM-DD value.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", value, apperrors.ErrValidation)
	}
	return &t, nil
}
