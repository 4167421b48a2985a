package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// VendorRepositoryFacade persists vendors.
type VendorRepositoryFacade interface {
	SaveVendor(ctx context.Context, vendor domain.Vendor) error
	FindVendorByID(ctx context.Context, organizationID, vendorID string) (*domain.Vendor, error)
	FindVendorsByIDs(ctx context.Context, organizationID string, vendorIDs []string) (map[string]domain.Vendor, error)
}

// BillReader defines read operations for vendor bills
type BillReader interface {
	// FindBillByID loads a bill with its lines.
	FindBillByID(ctx context.Context, organizationID, billID string) (*domain.VendorBill, error)

	// ListOutstandingBills returns bills with a positive outstanding amount,
	// optionally for one vendor, ordered by due date.
	ListOutstandingBills(ctx context.Context, organizationID string, vendorID *string) ([]domain.VendorBill, error)
}

// BillWriter defines write operations for vendor bills
type BillWriter interface {
	SaveBill(ctx context.Context, bill domain.VendorBill) error
	UpdateBillPayment(ctx context.Context, bill domain.VendorBill) error
	UpdateBillApproval(ctx context.Context, bill domain.VendorBill) error
	UpdateBillMatching(ctx context.Context, organizationID, billID string, status domain.MatchingStatus, userID string, now time.Time) error
	SaveThreeWayMatch(ctx context.Context, match domain.ThreeWayMatch) error
}

// BillLocking locks bill rows for allocation.
type BillLocking interface {
	// FindBillsForUpdate locks the given bills. A missing bill yields apperrors.ErrNotFound.
	FindBillsForUpdate(ctx context.Context, organizationID string, billIDs []string) (map[string]domain.VendorBill, error)

	// FindOpenBillsByVendorForUpdate locks the vendor's approved bills that still have an outstanding amount.
	FindOpenBillsByVendorForUpdate(ctx context.Context, organizationID, vendorID string) ([]domain.VendorBill, error)
}

// BillRepositoryFacade combines all bill-related repository interfaces
type BillRepositoryFacade interface {
	BillReader
	BillWriter
	BillLocking
}

// PaymentRepositoryFacade persists vendor payments and allocations.
type PaymentRepositoryFacade interface {
	SavePayment(ctx context.Context, payment domain.VendorPayment) error
	FindPaymentByID(ctx context.Context, organizationID, paymentID string) (*domain.VendorPayment, error)
	FindPaymentForUpdate(ctx context.Context, organizationID, paymentID string) (*domain.VendorPayment, error)
	UpdatePayment(ctx context.Context, payment domain.VendorPayment) error
	SaveAllocations(ctx context.Context, allocations []domain.VendorPaymentAllocation) error
	ListAllocations(ctx context.Context, organizationID, paymentID string) ([]domain.VendorPaymentAllocation, error)

	// ListDueScheduledPayments returns scheduled payments of every organization
	// with a scheduled date on or before asOf.
	ListDueScheduledPayments(ctx context.Context, asOf time.Time) ([]domain.VendorPayment, error)

	// ListScheduledPayments returns scheduled payments due on or before until,
	// restricted to bankAccountIDs when non-empty.
	ListScheduledPayments(ctx context.Context, organizationID string, bankAccountIDs []string, until time.Time) ([]domain.VendorPayment, error)
}

// ProcurementReader reads purchase orders and goods receipts.
type ProcurementReader interface {
	FindPurchaseOrderByID(ctx context.Context, organizationID, purchaseOrderID string) (*domain.PurchaseOrder, error)
	FindGoodsReceiptByID(ctx context.Context, organizationID, receiptID string) (*domain.GoodsReceipt, error)
}
