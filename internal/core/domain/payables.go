package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/shopspring/decimal"
)

// BillStatus tracks payment progress of a vendor bill.
type BillStatus string

const (
	BillSubmitted     BillStatus = "submitted"
	BillPartiallyPaid BillStatus = "partially_paid"
	BillPaid          BillStatus = "paid"
)

// ApprovalStatus tracks whether a bill may be paid.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
)

// MatchingStatus is the outcome of three-way matching on a bill.
type MatchingStatus string

const (
	MatchUnmatched    MatchingStatus = "unmatched"
	MatchFullyMatched MatchingStatus = "fully_matched"
	MatchVariance     MatchingStatus = "variance"
)

// PaymentStatus tracks a vendor payment through settlement.
type PaymentStatus string

const (
	PaymentScheduled  PaymentStatus = "scheduled"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
)

var (
	ErrAllocationExceedsOutstanding = fmt.Errorf("allocation exceeds bill outstanding amount: %w", apperrors.ErrValidation)
	ErrAllocationExceedsPayment     = fmt.Errorf("allocations exceed payment unallocated amount: %w", apperrors.ErrValidation)
	ErrBillNotApproved              = fmt.Errorf("bill is not approved: %w", apperrors.ErrConflict)
	ErrBillAlreadyApproved          = fmt.Errorf("bill is already approved: %w", apperrors.ErrConflict)
	ErrVendorMismatch               = fmt.Errorf("bill belongs to a different vendor: %w", apperrors.ErrValidation)
	ErrPaymentNotCompleted          = fmt.Errorf("payment is not completed: %w", apperrors.ErrConflict)
)

// Vendor is a supplier that bills the organization.
type Vendor struct {
	VendorID         string `json:"vendorID"`
	OrganizationID   string `json:"organizationID"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	PaymentTermsDays int    `json:"paymentTermsDays"`
	IsActive         bool   `json:"isActive"`
	AuditFields
}

// BillLineItem is one priced line on a vendor bill.
type BillLineItem struct {
	LineID          string          `json:"lineID"`
	BillID          string          `json:"billID"`
	ItemCode        string          `json:"itemCode"`
	AccountID       string          `json:"accountID"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	TaxPercent      decimal.Decimal `json:"taxPercent"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	LineTotal       decimal.Decimal `json:"lineTotal"`
}

var hundred = decimal.NewFromInt(100)

// Compute derives the discount, tax and line total from quantity, price and percents.
// Tax applies to the discounted amount.
func (l *BillLineItem) Compute() error {
	if !l.Quantity.IsPositive() {
		return fmt.Errorf("line %s: quantity must be positive: %w", l.ItemCode, apperrors.ErrValidation)
	}
	if l.UnitPrice.IsNegative() || l.DiscountPercent.IsNegative() || l.TaxPercent.IsNegative() {
		return fmt.Errorf("line %s: price and percents must not be negative: %w", l.ItemCode, apperrors.ErrValidation)
	}
	if l.DiscountPercent.GreaterThan(hundred) {
		return fmt.Errorf("line %s: discount above 100%%: %w", l.ItemCode, apperrors.ErrValidation)
	}
	gross := l.Quantity.Mul(l.UnitPrice)
	l.DiscountAmount = RoundMoney(gross.Mul(l.DiscountPercent).Div(hundred))
	net := gross.Sub(l.DiscountAmount)
	l.TaxAmount = RoundMoney(net.Mul(l.TaxPercent).Div(hundred))
	l.LineTotal = RoundMoney(net.Add(l.TaxAmount))
	return nil
}

// Gross is quantity times unit price before discount.
func (l BillLineItem) Gross() decimal.Decimal {
	return RoundMoney(l.Quantity.Mul(l.UnitPrice))
}

// VendorBill is a payable owed to a vendor.
type VendorBill struct {
	BillID            string          `json:"billID"`
	OrganizationID    string          `json:"organizationID"`
	BillNumber        string          `json:"billNumber"`
	VendorID          string          `json:"vendorID"`
	Reference         string          `json:"reference"`
	BillDate          time.Time       `json:"billDate"`
	DueDate           time.Time       `json:"dueDate"`
	PurchaseOrderID   *string         `json:"purchaseOrderID,omitempty"`
	ReceiptID         *string         `json:"receiptID,omitempty"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DiscountAmount    decimal.Decimal `json:"discountAmount"`
	TaxAmount         decimal.Decimal `json:"taxAmount"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	PaidAmount        decimal.Decimal `json:"paidAmount"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	Status            BillStatus      `json:"status"`
	ApprovalStatus    ApprovalStatus  `json:"approvalStatus"`
	MatchingStatus    MatchingStatus  `json:"matchingStatus"`
	PayableAccountID  string          `json:"payableAccountID"`
	JournalEntryID    *string         `json:"journalEntryID,omitempty"`
	Lines             []BillLineItem  `json:"lines,omitempty"`
	AuditFields
}

// ComputeTotals computes every line and sums them into the bill totals.
// Outstanding starts at the full total.
func (b *VendorBill) ComputeTotals() error {
	if len(b.Lines) == 0 {
		return fmt.Errorf("bill must have at least one line: %w", apperrors.ErrValidation)
	}
	b.Subtotal, b.DiscountAmount, b.TaxAmount, b.TotalAmount = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for i := range b.Lines {
		if err := b.Lines[i].Compute(); err != nil {
			return err
		}
		b.Subtotal = b.Subtotal.Add(b.Lines[i].Gross())
		b.DiscountAmount = b.DiscountAmount.Add(b.Lines[i].DiscountAmount)
		b.TaxAmount = b.TaxAmount.Add(b.Lines[i].TaxAmount)
		b.TotalAmount = b.TotalAmount.Add(b.Lines[i].LineTotal)
	}
	b.PaidAmount = decimal.Zero
	b.OutstandingAmount = b.TotalAmount
	return nil
}

// InitialMatchingStatus is unmatched when both a purchase order and a receipt
// are referenced, so the bill awaits a three-way match.
func (b VendorBill) InitialMatchingStatus() MatchingStatus {
	if b.PurchaseOrderID != nil && b.ReceiptID != nil {
		return MatchUnmatched
	}
	return MatchFullyMatched
}

// ApplyPayment moves amount from outstanding to paid and updates the status.
func (b *VendorBill) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("allocation amount must be positive: %w", apperrors.ErrValidation)
	}
	if b.ApprovalStatus != ApprovalApproved {
		return fmt.Errorf("bill %s: %w", b.BillNumber, ErrBillNotApproved)
	}
	if amount.GreaterThan(b.OutstandingAmount) {
		return fmt.Errorf("bill %s outstanding %s, requested %s: %w", b.BillNumber, b.OutstandingAmount.String(), amount.String(), ErrAllocationExceedsOutstanding)
	}
	b.OutstandingAmount = b.OutstandingAmount.Sub(amount)
	b.PaidAmount = b.PaidAmount.Add(amount)
	if b.OutstandingAmount.IsZero() {
		b.Status = BillPaid
	} else {
		b.Status = BillPartiallyPaid
	}
	return nil
}

// VendorPayment is money sent to a vendor, possibly spread over several bills.
type VendorPayment struct {
	PaymentID         string          `json:"paymentID"`
	OrganizationID    string          `json:"organizationID"`
	PaymentNumber     string          `json:"paymentNumber"`
	VendorID          string          `json:"vendorID"`
	BankAccountID     string          `json:"bankAccountID"`
	PaymentDate       time.Time       `json:"paymentDate"`
	ScheduledDate     *time.Time      `json:"scheduledDate,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	AllocatedAmount   decimal.Decimal `json:"allocatedAmount"`
	UnallocatedAmount decimal.Decimal `json:"unallocatedAmount"`
	Method            string          `json:"method"`
	Reference         string          `json:"reference"`
	Status            PaymentStatus   `json:"status"`
	FailureReason     string          `json:"failureReason,omitempty"`
	JournalEntryID    *string         `json:"journalEntryID,omitempty"`
	AuditFields
}

// Allocate records amount against the payment's unallocated balance.
func (p *VendorPayment) Allocate(amount decimal.Decimal) error {
	if amount.GreaterThan(p.UnallocatedAmount) {
		return fmt.Errorf("payment %s unallocated %s, requested %s: %w", p.PaymentNumber, p.UnallocatedAmount.String(), amount.String(), ErrAllocationExceedsPayment)
	}
	p.AllocatedAmount = p.AllocatedAmount.Add(amount)
	p.UnallocatedAmount = p.UnallocatedAmount.Sub(amount)
	return nil
}

// VendorPaymentAllocation links part of a payment to a bill.
type VendorPaymentAllocation struct {
	AllocationID    string          `json:"allocationID"`
	OrganizationID  string          `json:"organizationID"`
	PaymentID       string          `json:"paymentID"`
	BillID          string          `json:"billID"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
}

// AllocationRequest asks for amount of a payment to be applied to a bill.
type AllocationRequest struct {
	BillID string          `json:"billID"`
	Amount decimal.Decimal `json:"amount"`
}

// PlanAutoAllocation spreads available over bills by due date ascending,
// taking min(remaining, outstanding) from each. Bill number breaks due-date ties.
func PlanAutoAllocation(available decimal.Decimal, bills []VendorBill) []AllocationRequest {
	ordered := make([]VendorBill, len(bills))
	copy(ordered, bills)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].DueDate.Equal(ordered[j].DueDate) {
			return ordered[i].DueDate.Before(ordered[j].DueDate)
		}
		return ordered[i].BillNumber < ordered[j].BillNumber
	})

	remaining := available
	var plan []AllocationRequest
	for _, b := range ordered {
		if !remaining.IsPositive() {
			break
		}
		if !b.OutstandingAmount.IsPositive() || b.ApprovalStatus != ApprovalApproved {
			continue
		}
		amount := decimal.Min(remaining, b.OutstandingAmount)
		plan = append(plan, AllocationRequest{BillID: b.BillID, Amount: amount})
		remaining = remaining.Sub(amount)
	}
	return plan
}
