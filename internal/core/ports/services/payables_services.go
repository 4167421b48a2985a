package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// PayablesSvcFacade manages vendors and their bills.
type PayablesSvcFacade interface {
	CreateVendor(ctx context.Context, organizationID string, req dto.CreateVendorRequest, userID string) (*domain.Vendor, error)
	GetVendor(ctx context.Context, organizationID, vendorID string) (*domain.Vendor, error)
	CreateBill(ctx context.Context, organizationID string, req dto.CreateBillRequest, userID string) (*domain.VendorBill, error)
	GetBill(ctx context.Context, organizationID, billID string) (*domain.VendorBill, error)
	ApproveBill(ctx context.Context, organizationID, billID, userID string) (*domain.VendorBill, error)
	ThreeWayMatch(ctx context.Context, organizationID, billID string, req dto.ThreeWayMatchRequest, userID string) (*domain.ThreeWayMatch, error)
	AgingReport(ctx context.Context, organizationID string, vendorID *string, asOf time.Time) (*domain.AgingReport, error)
}

// PaymentSvcFacade records vendor payments and applies them to bills.
type PaymentSvcFacade interface {
	RecordPayment(ctx context.Context, organizationID string, req dto.RecordPaymentRequest, userID string) (*dto.PaymentResponse, error)
	AllocatePayment(ctx context.Context, organizationID, paymentID string, req dto.AllocatePaymentRequest, userID string) ([]domain.VendorPaymentAllocation, error)
	AutoAllocatePayment(ctx context.Context, organizationID, paymentID, userID string) ([]domain.VendorPaymentAllocation, error)
	ProcessScheduledPayments(ctx context.Context, asOf time.Time) (domain.BatchResult, error)
}
