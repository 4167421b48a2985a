package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/shopspring/decimal"
)

// BankTxnStatus is the reconciliation state of a bank statement line.
type BankTxnStatus string

const (
	BankTxnUnreconciled BankTxnStatus = "unreconciled"
	BankTxnCleared      BankTxnStatus = "cleared"
)

// ReconciliationItemType classifies a reconciling difference.
type ReconciliationItemType string

const (
	ItemDepositInTransit ReconciliationItemType = "DEPOSIT_IN_TRANSIT"
	ItemOutstandingCheck ReconciliationItemType = "OUTSTANDING_CHECK"
	ItemBankAdjustment   ReconciliationItemType = "BANK_ADJUSTMENT"
	ItemBookAdjustment   ReconciliationItemType = "BOOK_ADJUSTMENT"
)

// Valid reports whether t is a known item type.
func (t ReconciliationItemType) Valid() bool {
	switch t {
	case ItemDepositInTransit, ItemOutstandingCheck, ItemBankAdjustment, ItemBookAdjustment:
		return true
	}
	return false
}

var ErrBankAccountNotAsset = fmt.Errorf("bank account must be linked to an ASSET account: %w", apperrors.ErrValidation)

// BankAccount is an external bank account tied to one GL asset account.
type BankAccount struct {
	BankAccountID     string          `json:"bankAccountID"`
	OrganizationID    string          `json:"organizationID"`
	Name              string          `json:"name"`
	BankName          string          `json:"bankName"`
	AccountNumber     string          `json:"accountNumber"`
	GLAccountID       string          `json:"glAccountID"`
	CurrencyCode      string          `json:"currencyCode"`
	LastReconciledAt  *time.Time      `json:"lastReconciledAt,omitempty"`
	ReconciledBalance decimal.Decimal `json:"reconciledBalance"`
	AuditFields
}

// BankTransaction is one imported statement line. Amount is positive for
// deposits and negative for withdrawals.
type BankTransaction struct {
	BankTransactionID    string          `json:"bankTransactionID"`
	OrganizationID       string          `json:"organizationID"`
	BankAccountID        string          `json:"bankAccountID"`
	TransactionDate      time.Time       `json:"transactionDate"`
	Amount               decimal.Decimal `json:"amount"`
	Description          string          `json:"description"`
	Reference            string          `json:"reference"`
	ReconciliationStatus BankTxnStatus   `json:"reconciliationStatus"`
	ClearedAt            *time.Time      `json:"clearedAt,omitempty"`
	ImportedAt           time.Time       `json:"importedAt"`
}

// NormalizedTransaction is the parser-independent shape of a statement line.
type NormalizedTransaction struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

// Validate reports data-quality problems that keep a row from being imported.
func (t NormalizedTransaction) Validate() error {
	var problems []string
	if t.Date.IsZero() {
		problems = append(problems, "missing date")
	}
	if t.Amount.IsZero() {
		problems = append(problems, "zero amount")
	}
	if strings.TrimSpace(t.Description) == "" {
		problems = append(problems, "missing description")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(problems, ", "), apperrors.ErrValidation)
	}
	return nil
}

// ImportError describes one statement row that was not imported.
type ImportError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a statement import.
type ImportResult struct {
	Imported   int           `json:"imported"`
	Duplicates int           `json:"duplicates"`
	Errors     []ImportError `json:"errors"`
}

// ReconciliationItem is one reconciling difference recorded with a reconciliation.
type ReconciliationItem struct {
	ItemID            string                 `json:"itemID"`
	ReconciliationID  string                 `json:"reconciliationID"`
	ItemType          ReconciliationItemType `json:"itemType"`
	Amount            decimal.Decimal        `json:"amount"`
	Description       string                 `json:"description"`
	BankTransactionID *string                `json:"bankTransactionID,omitempty"`
	GLEntryID         *string                `json:"glEntryID,omitempty"`
}

// BankReconciliation is an immutable snapshot of one reconciliation attempt.
type BankReconciliation struct {
	ReconciliationID    string               `json:"reconciliationID"`
	OrganizationID      string               `json:"organizationID"`
	BankAccountID       string               `json:"bankAccountID"`
	StatementDate       time.Time            `json:"statementDate"`
	StatementBalance    decimal.Decimal      `json:"statementBalance"`
	BookBalance         decimal.Decimal      `json:"bookBalance"`
	DepositsInTransit   decimal.Decimal      `json:"depositsInTransit"`
	OutstandingChecks   decimal.Decimal      `json:"outstandingChecks"`
	BankAdjustments     decimal.Decimal      `json:"bankAdjustments"`
	BookAdjustments     decimal.Decimal      `json:"bookAdjustments"`
	AdjustedBookBalance decimal.Decimal      `json:"adjustedBookBalance"`
	AdjustedBankBalance decimal.Decimal      `json:"adjustedBankBalance"`
	Variance            decimal.Decimal      `json:"variance"`
	IsBalanced          bool                 `json:"isBalanced"`
	Items               []ReconciliationItem `json:"items"`
	AuditFields
}

// ComputeReconciliation partitions items by type and derives the adjusted
// balances. It is balanced when the two adjusted balances differ by less than
// BalanceTolerance.
func ComputeReconciliation(bookBalance, statementBalance decimal.Decimal, items []ReconciliationItem) (BankReconciliation, error) {
	rec := BankReconciliation{
		StatementBalance:  statementBalance,
		BookBalance:       bookBalance,
		DepositsInTransit: decimal.Zero,
		OutstandingChecks: decimal.Zero,
		BankAdjustments:   decimal.Zero,
		BookAdjustments:   decimal.Zero,
		Items:             items,
	}
	for i, item := range items {
		switch item.ItemType {
		case ItemDepositInTransit:
			rec.DepositsInTransit = rec.DepositsInTransit.Add(item.Amount)
		case ItemOutstandingCheck:
			rec.OutstandingChecks = rec.OutstandingChecks.Add(item.Amount)
		case ItemBankAdjustment:
			rec.BankAdjustments = rec.BankAdjustments.Add(item.Amount)
		case ItemBookAdjustment:
			rec.BookAdjustments = rec.BookAdjustments.Add(item.Amount)
		default:
			return BankReconciliation{}, fmt.Errorf("item %d: unknown type %q: %w", i+1, item.ItemType, apperrors.ErrValidation)
		}
	}
	rec.AdjustedBookBalance = bookBalance.Add(rec.BookAdjustments)
	rec.AdjustedBankBalance = statementBalance.
		Add(rec.DepositsInTransit).
		Sub(rec.OutstandingChecks).
		Add(rec.BankAdjustments)
	rec.Variance = rec.AdjustedBookBalance.Sub(rec.AdjustedBankBalance)
	rec.IsBalanced = rec.Variance.Abs().LessThan(BalanceTolerance)
	return rec, nil
}

// ReconciliationSummary is the current reconciliation state of a bank account.
type ReconciliationSummary struct {
	BankAccount          BankAccount         `json:"bankAccount"`
	BookBalance          decimal.Decimal     `json:"bookBalance"`
	LatestReconciliation *BankReconciliation `json:"latestReconciliation,omitempty"`
	UnreconciledCount    int                 `json:"unreconciledCount"`
	UnreconciledAmount   decimal.Decimal     `json:"unreconciledAmount"`
}
