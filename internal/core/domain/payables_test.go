package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillLineItem_Compute(t *testing.T) {
	line := domain.BillLineItem{
		ItemCode:        "WIDGET",
		Quantity:        dec("10"),
		UnitPrice:       dec("100"),
		DiscountPercent: dec("5"),
		TaxPercent:      dec("10"),
	}
	require.NoError(t, line.Compute())

	assert.True(t, line.Gross().Equal(dec("1000")))
	assert.True(t, line.DiscountAmount.Equal(dec("50")))
	assert.True(t, line.TaxAmount.Equal(dec("95")))
	assert.True(t, line.LineTotal.Equal(dec("1045")))
}

func TestBillLineItem_ComputeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		line domain.BillLineItem
	}{
		{"zero quantity", domain.BillLineItem{Quantity: decimal.Zero, UnitPrice: dec("1")}},
		{"negative price", domain.BillLineItem{Quantity: dec("1"), UnitPrice: dec("-1")}},
		{"discount over 100", domain.BillLineItem{Quantity: dec("1"), UnitPrice: dec("1"), DiscountPercent: dec("101")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.line.Compute())
		})
	}
}

func TestVendorBill_ComputeTotals(t *testing.T) {
	bill := domain.VendorBill{Lines: []domain.BillLineItem{
		{ItemCode: "A", Quantity: dec("10"), UnitPrice: dec("100"), DiscountPercent: dec("5"), TaxPercent: dec("10")},
		{ItemCode: "B", Quantity: dec("3"), UnitPrice: dec("33.33")},
	}}
	require.NoError(t, bill.ComputeTotals())

	assert.True(t, bill.Subtotal.Equal(dec("1099.99")))
	assert.True(t, bill.DiscountAmount.Equal(dec("50")))
	assert.True(t, bill.TaxAmount.Equal(dec("95")))
	assert.True(t, bill.TotalAmount.Equal(dec("1144.99")))
	assert.True(t, bill.OutstandingAmount.Equal(bill.TotalAmount))
	assert.True(t, bill.PaidAmount.IsZero())
}

func TestVendorBill_InitialMatchingStatus(t *testing.T) {
	assert.Equal(t, domain.MatchFullyMatched, domain.VendorBill{}.InitialMatchingStatus())
	assert.Equal(t, domain.MatchFullyMatched, domain.VendorBill{PurchaseOrderID: strPtr("po")}.InitialMatchingStatus())
	assert.Equal(t, domain.MatchUnmatched, domain.VendorBill{PurchaseOrderID: strPtr("po"), ReceiptID: strPtr("gr")}.InitialMatchingStatus())
}

func approvedBill(id string, total string, due time.Time) domain.VendorBill {
	return domain.VendorBill{
		BillID:            id,
		BillNumber:        "BILL-" + id,
		TotalAmount:       dec(total),
		OutstandingAmount: dec(total),
		PaidAmount:        decimal.Zero,
		DueDate:           due,
		Status:            domain.BillSubmitted,
		ApprovalStatus:    domain.ApprovalApproved,
	}
}

func TestVendorBill_ApplyPayment(t *testing.T) {
	bill := approvedBill("1", "400", time.Now())

	require.NoError(t, bill.ApplyPayment(dec("150")))
	assert.Equal(t, domain.BillPartiallyPaid, bill.Status)
	assert.True(t, bill.OutstandingAmount.Equal(dec("250")))
	assert.True(t, bill.PaidAmount.Equal(dec("150")))

	err := bill.ApplyPayment(dec("250.01"))
	assert.ErrorIs(t, err, domain.ErrAllocationExceedsOutstanding)
	assert.True(t, bill.OutstandingAmount.Equal(dec("250")), "failed allocation must not change the bill")

	require.NoError(t, bill.ApplyPayment(dec("250")))
	assert.Equal(t, domain.BillPaid, bill.Status)
	assert.True(t, bill.OutstandingAmount.IsZero())
	assert.True(t, bill.OutstandingAmount.Equal(bill.TotalAmount.Sub(bill.PaidAmount)))
}

func TestVendorBill_ApplyPaymentRequiresApproval(t *testing.T) {
	bill := approvedBill("1", "100", time.Now())
	bill.ApprovalStatus = domain.ApprovalPending
	assert.ErrorIs(t, bill.ApplyPayment(dec("10")), domain.ErrBillNotApproved)
}

func TestVendorPayment_Allocate(t *testing.T) {
	p := domain.VendorPayment{Amount: dec("500"), AllocatedAmount: decimal.Zero, UnallocatedAmount: dec("500")}
	require.NoError(t, p.Allocate(dec("300")))
	assert.ErrorIs(t, p.Allocate(dec("200.01")), domain.ErrAllocationExceedsPayment)
	require.NoError(t, p.Allocate(dec("200")))
	assert.True(t, p.AllocatedAmount.Add(p.UnallocatedAmount).Equal(p.Amount))
	assert.True(t, p.UnallocatedAmount.IsZero())
}

func TestPlanAutoAllocation_DueDateOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	later := approvedBill("later", "400", base.AddDate(0, 0, 20))
	earlier := approvedBill("earlier", "300", base)

	plan := domain.PlanAutoAllocation(dec("500"), []domain.VendorBill{later, earlier})

	require.Len(t, plan, 2)
	assert.Equal(t, "earlier", plan[0].BillID)
	assert.True(t, plan[0].Amount.Equal(dec("300")))
	assert.Equal(t, "later", plan[1].BillID)
	assert.True(t, plan[1].Amount.Equal(dec("200")))
}

func TestPlanAutoAllocation_SkipsUnapprovedAndLeavesRemainder(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pending := approvedBill("pending", "100", base)
	pending.ApprovalStatus = domain.ApprovalPending
	open := approvedBill("open", "100", base.AddDate(0, 0, 1))

	plan := domain.PlanAutoAllocation(dec("250"), []domain.VendorBill{pending, open})

	require.Len(t, plan, 1)
	assert.Equal(t, "open", plan[0].BillID)
	assert.True(t, plan[0].Amount.Equal(dec("100")))
}
