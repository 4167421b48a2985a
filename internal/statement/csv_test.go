package statement_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/statement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVParser_AmountColumn(t *testing.T) {
	input := "Date,Description,Amount,Reference\n" +
		"2026-03-01,Opening deposit,1500.00,DEP-1\n" +
		"02-03-2026,Office rent,(450.25),CHK-881\n"

	result, err := statement.NewCSVParser().Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Records, 2)

	first := result.Records[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), first.Transaction.Date)
	assert.True(t, decimal.RequireFromString("1500").Equal(first.Transaction.Amount))
	assert.Equal(t, "Opening deposit", first.Transaction.Description)
	assert.Equal(t, "DEP-1", first.Transaction.Reference)

	second := result.Records[1]
	assert.Equal(t, 3, second.Row)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), second.Transaction.Date)
	assert.True(t, decimal.RequireFromString("-450.25").Equal(second.Transaction.Amount))
}

func TestCSVParser_DebitCreditColumns(t *testing.T) {
	input := "date,details,debit,credit\n" +
		"2026-04-10,Card fee,12.00,\n" +
		"2026-04-11,Customer transfer,,300\n"

	result, err := statement.NewCSVParser().Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.True(t, decimal.RequireFromString("-12").Equal(result.Records[0].Transaction.Amount))
	assert.True(t, decimal.RequireFromString("300").Equal(result.Records[1].Transaction.Amount))
}

func TestCSVParser_RowErrorsDoNotAbort(t *testing.T) {
	input := "date,description,amount\n" +
		"not-a-date,Broken,10\n" +
		"2026-05-01,Bad amount,ten\n" +
		"2026-05-02,Good row,25.50\n"

	result, err := statement.NewCSVParser().Parse(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 4, result.Records[0].Row)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Reason, "unrecognised date")
	assert.Equal(t, 3, result.Errors[1].Row)
	assert.Contains(t, result.Errors[1].Reason, "invalid amount")
}

func TestCSVParser_MissingColumns(t *testing.T) {
	_, err := statement.NewCSVParser().Parse(context.Background(), strings.NewReader("description,amount\nx,1\n"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = statement.NewCSVParser().Parse(context.Background(), strings.NewReader("date,description\n2026-01-01,x\n"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = statement.NewCSVParser().Parse(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRegistry(t *testing.T) {
	registry := statement.DefaultRegistry()

	p, err := registry.Get("CSV")
	require.NoError(t, err)
	assert.Equal(t, "csv", p.Format())
	assert.Equal(t, []string{"csv"}, registry.Formats())

	_, err = registry.Get("ofx")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
