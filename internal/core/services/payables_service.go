package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayablesConfig holds the accounts-payable settings.
type PayablesConfig struct {
	// PayableAccountCode is the chart-of-accounts code of the AP control account.
	PayableAccountCode    string
	AutoApproveBills      bool
	MatchTolerancePercent decimal.Decimal
}

type payablesService struct {
	BaseService
	txm       portsrepo.TransactionManager
	numbering portssvc.NumberingSvc
	poster    portssvc.JournalPoster
	cfg       PayablesConfig
}

// NewPayablesService creates the vendor and bill service.
func NewPayablesService(txm portsrepo.TransactionManager, numbering portssvc.NumberingSvc, poster portssvc.JournalPoster, cfg PayablesConfig, options ...ServiceOption) portssvc.PayablesSvcFacade {
	return &payablesService{
		BaseService: newBaseService(options),
		txm:         txm,
		numbering:   numbering,
		poster:      poster,
		cfg:         cfg,
	}
}

var _ portssvc.PayablesSvcFacade = (*payablesService)(nil)

func (s *payablesService) CreateVendor(ctx context.Context, organizationID string, req dto.CreateVendorRequest, userID string) (*domain.Vendor, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("vendor name is required: %w", apperrors.ErrValidation)
	}
	if req.PaymentTermsDays < 0 {
		return nil, fmt.Errorf("payment terms must not be negative: %w", apperrors.ErrValidation)
	}
	vendor := domain.Vendor{
		VendorID:         uuid.NewString(),
		OrganizationID:   organizationID,
		Name:             name,
		Email:            req.Email,
		PaymentTermsDays: req.PaymentTermsDays,
		IsActive:         true,
		AuditFields:      domain.NewAuditFields(userID, s.Now()),
	}
	if err := s.txm.Repositories().Vendors.SaveVendor(ctx, vendor); err != nil {
		s.LogError(ctx, err, "Failed to save vendor", slog.String("vendor_name", name))
		return nil, fmt.Errorf("failed to create vendor: %w", err)
	}
	s.LogInfo(ctx, "Vendor created", slog.String("vendor_id", vendor.VendorID))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "vendor",
		EntityID:       vendor.VendorID,
		Action:         domain.AuditCreate,
		NewValues:      vendor,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return &vendor, nil
}

func (s *payablesService) GetVendor(ctx context.Context, organizationID, vendorID string) (*domain.Vendor, error) {
	vendor, err := s.txm.Repositories().Vendors.FindVendorByID(ctx, organizationID, vendorID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get vendor", slog.String("vendor_id", vendorID))
		}
		return nil, err
	}
	return vendor, nil
}

func (s *payablesService) CreateBill(ctx context.Context, organizationID string, req dto.CreateBillRequest, userID string) (*domain.VendorBill, error) {
	var bill domain.VendorBill
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		vendor, err := repos.Vendors.FindVendorByID(ctx, organizationID, req.VendorID)
		if err != nil {
			return err
		}
		if !vendor.IsActive {
			return fmt.Errorf("vendor %s is inactive: %w", vendor.Name, apperrors.ErrValidation)
		}
		payable, err := s.payableAccount(ctx, repos, organizationID)
		if err != nil {
			return err
		}

		now := s.Now()
		bill = domain.VendorBill{
			BillID:           uuid.NewString(),
			OrganizationID:   organizationID,
			VendorID:         vendor.VendorID,
			Reference:        req.Reference,
			BillDate:         domain.DateOnly(req.BillDate),
			PurchaseOrderID:  req.PurchaseOrderID,
			ReceiptID:        req.ReceiptID,
			Status:           domain.BillSubmitted,
			ApprovalStatus:   domain.ApprovalPending,
			PayableAccountID: payable.AccountID,
			AuditFields:      domain.NewAuditFields(userID, now),
		}
		if req.DueDate != nil {
			bill.DueDate = domain.DateOnly(*req.DueDate)
		} else {
			bill.DueDate = bill.BillDate.AddDate(0, 0, vendor.PaymentTermsDays)
		}
		if bill.DueDate.Before(bill.BillDate) {
			return fmt.Errorf("due date is before bill date: %w", apperrors.ErrValidation)
		}
		for _, l := range req.Lines {
			bill.Lines = append(bill.Lines, domain.BillLineItem{
				LineID:          uuid.NewString(),
				BillID:          bill.BillID,
				ItemCode:        l.ItemCode,
				AccountID:       l.AccountID,
				Description:     l.Description,
				Quantity:        l.Quantity,
				UnitPrice:       l.UnitPrice,
				DiscountPercent: l.DiscountPercent,
				TaxPercent:      l.TaxPercent,
			})
		}
		if err := bill.ComputeTotals(); err != nil {
			return err
		}
		bill.MatchingStatus = bill.InitialMatchingStatus()

		if bill.BillNumber, err = s.numbering.NextInTx(ctx, repos, organizationID, domain.SeriesBill); err != nil {
			return err
		}
		if err := repos.Bills.SaveBill(ctx, bill); err != nil {
			s.LogError(ctx, err, "Failed to save bill", slog.String("bill_number", bill.BillNumber))
			return fmt.Errorf("failed to save bill: %w", err)
		}
		if s.cfg.AutoApproveBills {
			return s.approveInTx(ctx, repos, &bill, userID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Bill recorded",
		slog.String("bill_id", bill.BillID),
		slog.String("bill_number", bill.BillNumber),
		slog.String("total", bill.TotalAmount.String()))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "vendor_bill",
		EntityID:       bill.BillID,
		Action:         domain.AuditCreate,
		NewValues:      bill,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return &bill, nil
}

func (s *payablesService) payableAccount(ctx context.Context, repos portsrepo.RepositoryProvider, organizationID string) (*domain.Account, error) {
	account, err := repos.Accounts.FindAccountByCode(ctx, organizationID, s.cfg.PayableAccountCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("accounts payable account %s: %w", s.cfg.PayableAccountCode, err)
		}
		return nil, err
	}
	if account.AccountType != domain.Liability {
		return nil, fmt.Errorf("accounts payable account %s must be a LIABILITY account: %w", account.Code, apperrors.ErrValidation)
	}
	return account, nil
}

func (s *payablesService) GetBill(ctx context.Context, organizationID, billID string) (*domain.VendorBill, error) {
	bill, err := s.txm.Repositories().Bills.FindBillByID(ctx, organizationID, billID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get bill", slog.String("bill_id", billID))
		}
		return nil, err
	}
	return bill, nil
}

func (s *payablesService) ApproveBill(ctx context.Context, organizationID, billID, userID string) (*domain.VendorBill, error) {
	var bill domain.VendorBill
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		locked, err := repos.Bills.FindBillsForUpdate(ctx, organizationID, []string{billID})
		if err != nil {
			return err
		}
		b, ok := locked[billID]
		if !ok {
			return fmt.Errorf("bill %s: %w", billID, apperrors.ErrNotFound)
		}
		bill = b
		return s.approveInTx(ctx, repos, &bill, userID)
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Bill approved", slog.String("bill_id", billID), slog.String("bill_number", bill.BillNumber))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "vendor_bill",
		EntityID:       billID,
		Action:         domain.AuditApprove,
		OldValues:      map[string]any{"approvalStatus": domain.ApprovalPending},
		NewValues:      bill,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return &bill, nil
}

// approveInTx posts the bill journal (debit each line account, credit AP) and
// flips the approval status.
func (s *payablesService) approveInTx(ctx context.Context, repos portsrepo.RepositoryProvider, bill *domain.VendorBill, userID string) error {
	if bill.ApprovalStatus == domain.ApprovalApproved {
		return fmt.Errorf("bill %s: %w", bill.BillNumber, domain.ErrBillAlreadyApproved)
	}

	if bill.TotalAmount.IsPositive() {
		lines := make([]domain.JournalLine, 0, len(bill.Lines)+1)
		for _, l := range bill.Lines {
			if !l.LineTotal.IsPositive() {
				continue
			}
			lines = append(lines, domain.DebitLine(l.AccountID, l.LineTotal, l.Description))
		}
		lines = append(lines, domain.CreditLine(bill.PayableAccountID, bill.TotalAmount, "Bill "+bill.BillNumber))

		entry, err := s.poster.PostInTx(ctx, repos, portssvc.PostingRequest{
			OrganizationID: bill.OrganizationID,
			PostingDate:    bill.BillDate,
			Reference:      bill.BillNumber,
			Description:    "Vendor bill " + bill.BillNumber,
			Source:         domain.SourceBill,
			Lines:          lines,
			UserID:         userID,
		})
		if err != nil {
			return fmt.Errorf("post bill %s: %w", bill.BillNumber, err)
		}
		bill.JournalEntryID = &entry.JournalEntryID
	}

	bill.ApprovalStatus = domain.ApprovalApproved
	bill.Touch(userID, s.Now())
	if err := repos.Bills.UpdateBillApproval(ctx, *bill); err != nil {
		s.LogError(ctx, err, "Failed to update bill approval", slog.String("bill_id", bill.BillID))
		return fmt.Errorf("failed to approve bill: %w", err)
	}
	return nil
}

func (s *payablesService) ThreeWayMatch(ctx context.Context, organizationID, billID string, req dto.ThreeWayMatchRequest, userID string) (*domain.ThreeWayMatch, error) {
	var match domain.ThreeWayMatch
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		locked, err := repos.Bills.FindBillsForUpdate(ctx, organizationID, []string{billID})
		if err != nil {
			return err
		}
		bill, ok := locked[billID]
		if !ok {
			return fmt.Errorf("bill %s: %w", billID, apperrors.ErrNotFound)
		}
		po, err := repos.Procurement.FindPurchaseOrderByID(ctx, organizationID, req.PurchaseOrderID)
		if err != nil {
			return fmt.Errorf("purchase order %s: %w", req.PurchaseOrderID, err)
		}
		if po.VendorID != bill.VendorID {
			return fmt.Errorf("purchase order %s: %w", po.OrderNumber, domain.ErrVendorMismatch)
		}
		receipt, err := repos.Procurement.FindGoodsReceiptByID(ctx, organizationID, req.ReceiptID)
		if err != nil {
			return fmt.Errorf("goods receipt %s: %w", req.ReceiptID, err)
		}

		now := s.Now()
		match = domain.MatchBill(bill, *po, *receipt, s.cfg.MatchTolerancePercent)
		match.MatchID = uuid.NewString()
		match.MatchedAt = now
		if err := repos.Bills.SaveThreeWayMatch(ctx, match); err != nil {
			s.LogError(ctx, err, "Failed to save three-way match", slog.String("bill_id", billID))
			return fmt.Errorf("failed to save match: %w", err)
		}
		return repos.Bills.UpdateBillMatching(ctx, organizationID, billID, match.Status(), userID, now)
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Three-way match completed",
		slog.String("bill_id", billID),
		slog.String("status", string(match.Status())),
		slog.Int("exceptions", len(match.Exceptions)))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "vendor_bill",
		EntityID:       billID,
		Action:         domain.AuditUpdate,
		NewValues:      match,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return &match, nil
}

func (s *payablesService) AgingReport(ctx context.Context, organizationID string, vendorID *string, asOf time.Time) (*domain.AgingReport, error) {
	repos := s.txm.Repositories()
	bills, err := repos.Bills.ListOutstandingBills(ctx, organizationID, vendorID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list outstanding bills", slog.String("organization_id", organizationID))
		return nil, fmt.Errorf("failed to build aging report: %w", err)
	}

	seen := make(map[string]struct{})
	var vendorIDs []string
	for _, b := range bills {
		if _, ok := seen[b.VendorID]; !ok {
			seen[b.VendorID] = struct{}{}
			vendorIDs = append(vendorIDs, b.VendorID)
		}
	}
	names := make(map[string]string, len(vendorIDs))
	if len(vendorIDs) > 0 {
		vendors, err := repos.Vendors.FindVendorsByIDs(ctx, organizationID, vendorIDs)
		if err != nil {
			s.LogError(ctx, err, "Failed to load vendors for aging", slog.String("organization_id", organizationID))
			return nil, fmt.Errorf("failed to build aging report: %w", err)
		}
		for id, v := range vendors {
			names[id] = v.Name
		}
	}

	report := domain.BuildAgingReport(asOf, bills, names)
	return &report, nil
}
