package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerSortField is a column the general ledger report can be ordered by.
type LedgerSortField string

const (
	SortByPostingDate LedgerSortField = "posting_date"
	SortByEntryNumber LedgerSortField = "entry_number"
	SortByAccount     LedgerSortField = "account"
)

// LedgerFilter narrows the general ledger report.
type LedgerFilter struct {
	AccountID *string         `json:"accountID,omitempty"`
	FromDate  *time.Time      `json:"fromDate,omitempty"`
	ToDate    *time.Time      `json:"toDate,omitempty"`
	SortBy    LedgerSortField `json:"sortBy"`
	SortDesc  bool            `json:"sortDesc"`
}

// LedgerLine is a posted GL line joined with its entry and account.
type LedgerLine struct {
	GLEntryID      string          `json:"glEntryID"`
	JournalEntryID string          `json:"journalEntryID"`
	EntryNumber    string          `json:"entryNumber"`
	PostingDate    time.Time       `json:"postingDate"`
	AccountID      string          `json:"accountID"`
	AccountCode    string          `json:"accountCode"`
	AccountName    string          `json:"accountName"`
	AccountType    AccountType     `json:"accountType"`
	Reference      string          `json:"reference"`
	Description    string          `json:"description"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// GeneralLedgerReport lists posted lines with per-account running balances.
type GeneralLedgerReport struct {
	Filter          LedgerFilter               `json:"filter"`
	OpeningBalances map[string]decimal.Decimal `json:"openingBalances"`
	Lines           []LedgerLine               `json:"lines"`
	TotalDebit      decimal.Decimal            `json:"totalDebit"`
	TotalCredit     decimal.Decimal            `json:"totalCredit"`
}

// ApplyRunningBalances fills RunningBalance on lines, which must be in
// chronological order, starting from each account's opening balance.
func ApplyRunningBalances(lines []LedgerLine, opening map[string]decimal.Decimal) (totalDebit, totalCredit decimal.Decimal) {
	running := make(map[string]decimal.Decimal, len(opening))
	for id, bal := range opening {
		running[id] = bal
	}
	totalDebit, totalCredit = decimal.Zero, decimal.Zero
	for i := range lines {
		l := &lines[i]
		signed, err := SignedAmount(l.AccountType, l.Debit, l.Credit)
		if err != nil {
			signed = l.Debit.Sub(l.Credit)
		}
		running[l.AccountID] = running[l.AccountID].Add(signed)
		l.RunningBalance = running[l.AccountID]
		totalDebit = totalDebit.Add(l.Debit)
		totalCredit = totalCredit.Add(l.Credit)
	}
	return totalDebit, totalCredit
}
