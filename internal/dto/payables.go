package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateVendorRequest defines the data needed to create a vendor.
type CreateVendorRequest struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"omitempty,email"`
	PaymentTermsDays int    `json:"paymentTermsDays" binding:"min=0,max=365"`
}

// BillLineRequest is one line of a new bill.
type BillLineRequest struct {
	ItemCode        string          `json:"itemCode"`
	AccountID       string          `json:"accountID" binding:"required"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity" binding:"dgt0"`
	UnitPrice       decimal.Decimal `json:"unitPrice" binding:"dgte0"`
	DiscountPercent decimal.Decimal `json:"discountPercent" binding:"dgte0"`
	TaxPercent      decimal.Decimal `json:"taxPercent" binding:"dgte0"`
}

// CreateBillRequest defines the data needed to record a vendor bill.
type CreateBillRequest struct {
	VendorID        string            `json:"vendorID" binding:"required"`
	Reference       string            `json:"reference"`
	BillDate        time.Time         `json:"billDate" binding:"required"`
	DueDate         *time.Time        `json:"dueDate"` // defaults to bill date plus vendor terms
	PurchaseOrderID *string           `json:"purchaseOrderID"`
	ReceiptID       *string           `json:"receiptID"`
	Lines           []BillLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// AllocationLine is part of a payment applied to a bill.
type AllocationLine struct {
	BillID string          `json:"billID" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"dgt0"`
}

// RecordPaymentRequest defines the data needed to record a vendor payment.
type RecordPaymentRequest struct {
	VendorID      string           `json:"vendorID" binding:"required"`
	BankAccountID string           `json:"bankAccountID" binding:"required"`
	Amount        decimal.Decimal  `json:"amount" binding:"dgt0"`
	PaymentDate   time.Time        `json:"paymentDate" binding:"required"`
	ScheduledDate *time.Time       `json:"scheduledDate"`
	Method        string           `json:"method" binding:"omitempty,oneof=ach wire check card"`
	Reference     string           `json:"reference"`
	Allocations   []AllocationLine `json:"allocations" binding:"omitempty,dive"`
	AutoAllocate  bool             `json:"autoAllocate"`
}

// AllocatePaymentRequest applies an existing payment to bills.
type AllocatePaymentRequest struct {
	Allocations []AllocationLine `json:"allocations" binding:"required,min=1,dive"`
}

// ThreeWayMatchRequest names the order and receipt to match a bill against.
type ThreeWayMatchRequest struct {
	PurchaseOrderID string `json:"purchaseOrderID" binding:"required"`
	ReceiptID       string `json:"receiptID" binding:"required"`
}

// AgingReportParams defines the query parameters of the aging report.
type AgingReportParams struct {
	VendorID string `form:"vendorId"`
	AsOfDate string `form:"asOfDate" binding:"omitempty,datetime=2006-01-02"`
}

// BatchRunRequest optionally overrides the as-of date of a batch job.
type BatchRunRequest struct {
	AsOfDate *time.Time `json:"asOfDate"`
}

// PaymentResponse returns a payment with the allocations made by the request.
type PaymentResponse struct {
	Payment     domain.VendorPayment             `json:"payment"`
	Allocations []domain.VendorPaymentAllocation `json:"allocations"`
}

// ToAllocationRequests converts request lines to domain allocation requests.
func ToAllocationRequests(lines []AllocationLine) []domain.AllocationRequest {
	out := make([]domain.AllocationRequest, len(lines))
	for i, l := range lines {
		out[i] = domain.AllocationRequest{BillID: l.BillID, Amount: l.Amount}
	}
	return out
}

// Resolve returns the optional vendor filter and the as-of date, defaulting to today.
func (p AgingReportParams) Resolve(today time.Time) (*string, time.Time, error) {
	var vendorID *string
	if p.VendorID != "" {
		v := p.VendorID
		vendorID = &v
	}
	asOf, err := parseDate(p.AsOfDate)
	if err != nil {
		return nil, time.Time{}, err
	}
	if asOf == nil {
		return vendorID, domain.DateOnly(today), nil
	}
	return vendorID, *asOf, nil
}
