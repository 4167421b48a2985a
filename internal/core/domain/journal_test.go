package domain_test

import (
	"testing"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

func TestValidateLines(t *testing.T) {
	tests := []struct {
		name    string
		lines   []domain.JournalLine
		wantErr error
		total   string
	}{
		{
			name:    "no lines",
			lines:   nil,
			wantErr: domain.ErrEmptyJournal,
		},
		{
			name: "balanced",
			lines: []domain.JournalLine{
				domain.DebitLine("cash", dec("100.00"), ""),
				domain.CreditLine("revenue", dec("60.00"), ""),
				domain.CreditLine("tax", dec("40.00"), ""),
			},
			total: "100",
		},
		{
			name: "unbalanced by a cent",
			lines: []domain.JournalLine{
				domain.DebitLine("cash", dec("100.00"), ""),
				domain.CreditLine("revenue", dec("99.99"), ""),
			},
			wantErr: domain.ErrBalanceMismatch,
		},
		{
			name: "line with both sides",
			lines: []domain.JournalLine{
				{AccountID: "cash", Debit: dec("10"), Credit: dec("10")},
			},
			wantErr: domain.ErrInvalidLine,
		},
		{
			name: "all zero line",
			lines: []domain.JournalLine{
				{AccountID: "cash", Debit: decimal.Zero, Credit: decimal.Zero},
			},
			wantErr: domain.ErrInvalidLine,
		},
		{
			name: "negative debit",
			lines: []domain.JournalLine{
				{AccountID: "cash", Debit: dec("-5"), Credit: decimal.Zero},
				domain.CreditLine("revenue", dec("-5"), ""),
			},
			wantErr: domain.ErrInvalidLine,
		},
		{
			name: "missing account",
			lines: []domain.JournalLine{
				domain.DebitLine("", dec("5"), ""),
			},
			wantErr: domain.ErrInvalidLine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debit, credit, err := domain.ValidateLines(tt.lines)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, debit.Equal(dec(tt.total)))
			assert.True(t, credit.Equal(debit))
		})
	}
}

func TestBalanceMismatchIsIntegrityError(t *testing.T) {
	_, _, err := domain.ValidateLines([]domain.JournalLine{
		domain.DebitLine("a", dec("1"), ""),
		domain.CreditLine("b", dec("2"), ""),
	})
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)
}

func TestBalanceChanges_SignConvention(t *testing.T) {
	accounts := map[string]domain.Account{
		"cash":    {AccountID: "cash", AccountType: domain.Asset},
		"ap":      {AccountID: "ap", AccountType: domain.Liability},
		"expense": {AccountID: "expense", AccountType: domain.Expense},
		"sales":   {AccountID: "sales", AccountType: domain.Income},
	}
	lines := []domain.GLEntry{
		{AccountID: "expense", Debit: dec("300"), Credit: decimal.Zero},
		{AccountID: "ap", Debit: decimal.Zero, Credit: dec("300")},
		{AccountID: "ap", Debit: dec("100"), Credit: decimal.Zero},
		{AccountID: "cash", Debit: decimal.Zero, Credit: dec("100")},
		{AccountID: "cash", Debit: dec("50"), Credit: decimal.Zero},
		{AccountID: "sales", Debit: decimal.Zero, Credit: dec("50")},
	}

	changes, err := domain.BalanceChanges(lines, accounts)
	require.NoError(t, err)
	assert.True(t, changes["expense"].Equal(dec("300")))
	assert.True(t, changes["ap"].Equal(dec("200")))
	assert.True(t, changes["cash"].Equal(dec("-50")))
	assert.True(t, changes["sales"].Equal(dec("50")))
}

func TestBalanceChanges_UnknownAccount(t *testing.T) {
	_, err := domain.BalanceChanges([]domain.GLEntry{{AccountID: "ghost", Debit: dec("1")}}, map[string]domain.Account{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReverseLines_NetsToZero(t *testing.T) {
	accounts := map[string]domain.Account{
		"cash": {AccountID: "cash", AccountType: domain.Asset},
		"ap":   {AccountID: "ap", AccountType: domain.Liability},
	}
	original := []domain.GLEntry{
		{AccountID: "ap", Debit: dec("250.50"), Credit: decimal.Zero},
		{AccountID: "cash", Debit: decimal.Zero, Credit: dec("250.50")},
	}
	reversed := domain.ReverseLines(original)

	_, _, err := domain.ValidateLines(reversed)
	require.NoError(t, err)
	assert.True(t, reversed[0].Credit.Equal(dec("250.50")))
	assert.True(t, reversed[1].Debit.Equal(dec("250.50")))

	forward, err := domain.BalanceChanges(original, accounts)
	require.NoError(t, err)
	var back []domain.GLEntry
	for _, l := range reversed {
		back = append(back, domain.GLEntry{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit})
	}
	backward, err := domain.BalanceChanges(back, accounts)
	require.NoError(t, err)
	for id, delta := range forward {
		assert.True(t, delta.Add(backward[id]).IsZero(), "account %s should net to zero", id)
	}
}

func TestJournalEntry_CanReverse(t *testing.T) {
	assert.ErrorIs(t, domain.JournalEntry{IsPosted: false}.CanReverse(), domain.ErrJournalNotPosted)
	assert.ErrorIs(t, domain.JournalEntry{IsPosted: true, ReversedByID: strPtr("x")}.CanReverse(), domain.ErrJournalAlreadyReverse)
	assert.ErrorIs(t, domain.JournalEntry{IsPosted: true, ReversalOfID: strPtr("x")}.CanReverse(), domain.ErrReverseReversal)
	assert.NoError(t, domain.JournalEntry{IsPosted: true}.CanReverse())
}

func TestNumberingSeries_Format(t *testing.T) {
	s := domain.DefaultSeries("org", domain.SeriesBill)
	assert.Equal(t, "BILL-000042", s.Format(42))

	s.Suffix = "/26"
	s.PadLength = 3
	assert.Equal(t, "BILL-1234/26", s.Format(1234))
}
