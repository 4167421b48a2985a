package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeReconciliation_Balanced(t *testing.T) {
	items := []domain.ReconciliationItem{
		{ItemType: domain.ItemDepositInTransit, Amount: dec("50")},
		{ItemType: domain.ItemOutstandingCheck, Amount: dec("20")},
	}
	rec, err := domain.ComputeReconciliation(dec("1000"), dec("970"), items)
	require.NoError(t, err)

	assert.True(t, rec.AdjustedBookBalance.Equal(dec("1000")))
	assert.True(t, rec.AdjustedBankBalance.Equal(dec("1000")))
	assert.True(t, rec.Variance.IsZero())
	assert.True(t, rec.IsBalanced)
}

func TestComputeReconciliation_Tolerance(t *testing.T) {
	tests := []struct {
		name      string
		statement string
		balanced  bool
	}{
		{"within a cent", "999.995", true},
		{"exactly a cent off", "999.99", false},
		{"far off", "900", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := domain.ComputeReconciliation(dec("1000"), dec(tt.statement), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.balanced, rec.IsBalanced)
		})
	}
}

func TestComputeReconciliation_Adjustments(t *testing.T) {
	items := []domain.ReconciliationItem{
		{ItemType: domain.ItemBankAdjustment, Amount: dec("-15")},
		{ItemType: domain.ItemBookAdjustment, Amount: dec("-15")},
	}
	rec, err := domain.ComputeReconciliation(dec("500"), dec("500"), items)
	require.NoError(t, err)
	assert.True(t, rec.AdjustedBookBalance.Equal(dec("485")))
	assert.True(t, rec.AdjustedBankBalance.Equal(dec("485")))
	assert.True(t, rec.IsBalanced)
}

func TestComputeReconciliation_UnknownItemType(t *testing.T) {
	_, err := domain.ComputeReconciliation(decimal.Zero, decimal.Zero, []domain.ReconciliationItem{{ItemType: "FEE", Amount: dec("1")}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestNormalizedTransaction_Validate(t *testing.T) {
	good := domain.NormalizedTransaction{Date: time.Now(), Amount: dec("-12.50"), Description: "Card payment"}
	assert.NoError(t, good.Validate())

	bad := domain.NormalizedTransaction{Amount: decimal.Zero, Description: " "}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing date")
	assert.Contains(t, err.Error(), "zero amount")
	assert.Contains(t, err.Error(), "missing description")
}
