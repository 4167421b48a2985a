package domain

import (
	"fmt"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// IsDebitNormal reports whether the balance of this type grows with debits.
func (t AccountType) IsDebitNormal() bool {
	return t == Asset || t == Expense
}

// Account represents a ledger account in an organization's chart of accounts.
type Account struct {
	AccountID      string          `json:"accountID"`
	OrganizationID string          `json:"organizationID"`
	Code           string          `json:"code"` // unique per organization
	Name           string          `json:"name"`
	AccountType    AccountType     `json:"accountType"`
	Description    string          `json:"description"`
	IsActive       bool            `json:"isActive"`
	Balance        decimal.Decimal `json:"balance"`
	AuditFields
}

// SignedAmount returns the change a debit/credit pair makes to a balance of
// the given account type. DEBIT to ASSET/EXPENSE and CREDIT to
// LIABILITY/EQUITY/INCOME are positive.
func SignedAmount(accountType AccountType, debit, credit decimal.Decimal) (decimal.Decimal, error) {
	switch accountType {
	case Asset, Expense:
		return debit.Sub(credit), nil
	case Liability, Equity, Income:
		return credit.Sub(debit), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account type %q: %w", accountType, apperrors.ErrValidation)
	}
}
