package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/shopspring/decimal"
)

// JournalSource records which workflow produced a journal entry.
type JournalSource string

const (
	SourceManual    JournalSource = "MANUAL"
	SourceBill      JournalSource = "BILL"
	SourcePayment   JournalSource = "PAYMENT"
	SourceReversal  JournalSource = "REVERSAL"
	SourceClosing   JournalSource = "CLOSING"
	SourceRecurring JournalSource = "RECURRING"
)

var (
	ErrEmptyJournal          = fmt.Errorf("journal entry must have at least one line: %w", apperrors.ErrValidation)
	ErrInvalidLine           = fmt.Errorf("journal line must carry exactly one positive debit or credit: %w", apperrors.ErrValidation)
	ErrBalanceMismatch       = fmt.Errorf("total debits do not equal total credits: %w", apperrors.ErrIntegrity)
	ErrAccountInactive       = fmt.Errorf("account is inactive: %w", apperrors.ErrValidation)
	ErrPeriodClosed          = fmt.Errorf("posting date falls in a closed fiscal period: %w", apperrors.ErrConflict)
	ErrJournalNotPosted      = fmt.Errorf("journal entry is not posted: %w", apperrors.ErrConflict)
	ErrJournalAlreadyPosted  = fmt.Errorf("journal entry is already posted: %w", apperrors.ErrConflict)
	ErrJournalAlreadyReverse = fmt.Errorf("journal entry has already been reversed: %w", apperrors.ErrConflict)
	ErrReverseReversal       = fmt.Errorf("a reversal entry cannot itself be reversed: %w", apperrors.ErrConflict)
)

// JournalEntry is the header of a balanced set of GL lines.
type JournalEntry struct {
	JournalEntryID string          `json:"journalEntryID"`
	OrganizationID string          `json:"organizationID"`
	EntryNumber    string          `json:"entryNumber"`
	PostingDate    time.Time       `json:"postingDate"`
	Reference      string          `json:"reference"`
	Description    string          `json:"description"`
	Source         JournalSource   `json:"source"`
	TotalDebit     decimal.Decimal `json:"totalDebit"`
	TotalCredit    decimal.Decimal `json:"totalCredit"`
	IsPosted       bool            `json:"isPosted"`
	ReversalOfID   *string         `json:"reversalOfID,omitempty"`
	ReversedByID   *string         `json:"reversedByID,omitempty"`
	Lines          []GLEntry       `json:"lines,omitempty"`
	AuditFields
}

// GLEntry is one debit or credit line of a journal entry.
type GLEntry struct {
	GLEntryID      string          `json:"glEntryID"`
	JournalEntryID string          `json:"journalEntryID"`
	OrganizationID string          `json:"organizationID"`
	AccountID      string          `json:"accountID"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	Description    string          `json:"description"`
	PostingDate    time.Time       `json:"postingDate"`
	IsCleared      bool            `json:"isCleared"`
	ClearedAt      *time.Time      `json:"clearedAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// JournalLine is a caller-supplied line before it is persisted.
type JournalLine struct {
	AccountID   string          `json:"accountID"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
}

// DebitLine builds a line debiting accountID.
func DebitLine(accountID string, amount decimal.Decimal, description string) JournalLine {
	return JournalLine{AccountID: accountID, Debit: amount, Credit: decimal.Zero, Description: description}
}

// CreditLine builds a line crediting accountID.
func CreditLine(accountID string, amount decimal.Decimal, description string) JournalLine {
	return JournalLine{AccountID: accountID, Debit: decimal.Zero, Credit: amount, Description: description}
}

// ValidateLines checks every line carries exactly one positive side and that
// the debit and credit totals are exactly equal. It never adjusts amounts.
func ValidateLines(lines []JournalLine) (totalDebit, totalCredit decimal.Decimal, err error) {
	if len(lines) == 0 {
		return decimal.Zero, decimal.Zero, ErrEmptyJournal
	}
	totalDebit, totalCredit = decimal.Zero, decimal.Zero
	for i, l := range lines {
		if l.AccountID == "" {
			return decimal.Zero, decimal.Zero, fmt.Errorf("line %d: account is required: %w", i+1, ErrInvalidLine)
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return decimal.Zero, decimal.Zero, fmt.Errorf("line %d: negative amount: %w", i+1, ErrInvalidLine)
		}
		if l.Debit.IsPositive() == l.Credit.IsPositive() {
			return decimal.Zero, decimal.Zero, fmt.Errorf("line %d: %w", i+1, ErrInvalidLine)
		}
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)
	}
	if !totalDebit.Equal(totalCredit) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w (debit %s, credit %s)", ErrBalanceMismatch, totalDebit.String(), totalCredit.String())
	}
	return totalDebit, totalCredit, nil
}

// BalanceChanges nets the signed effect of lines per account.
func BalanceChanges(lines []GLEntry, accounts map[string]Account) (map[string]decimal.Decimal, error) {
	changes := make(map[string]decimal.Decimal, len(accounts))
	for _, l := range lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			return nil, fmt.Errorf("account %s: %w", l.AccountID, apperrors.ErrNotFound)
		}
		signed, err := SignedAmount(acc.AccountType, l.Debit, l.Credit)
		if err != nil {
			return nil, err
		}
		changes[l.AccountID] = changes[l.AccountID].Add(signed)
	}
	return changes, nil
}

// ReverseLines swaps debit and credit on every line.
func ReverseLines(lines []GLEntry) []JournalLine {
	reversed := make([]JournalLine, 0, len(lines))
	for _, l := range lines {
		reversed = append(reversed, JournalLine{
			AccountID:   l.AccountID,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
		})
	}
	return reversed
}

// CanReverse reports whether e may be reversed.
func (e JournalEntry) CanReverse() error {
	switch {
	case !e.IsPosted:
		return ErrJournalNotPosted
	case e.ReversedByID != nil:
		return ErrJournalAlreadyReverse
	case e.ReversalOfID != nil:
		return ErrReverseReversal
	}
	return nil
}
