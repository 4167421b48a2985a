package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const jobScheduledPayments = "scheduled_payments"

// errPaymentClaimed means another run already moved the payment out of scheduled.
var errPaymentClaimed = fmt.Errorf("payment is no longer scheduled: %w", apperrors.ErrConflict)

type paymentService struct {
	BaseService
	txm       portsrepo.TransactionManager
	numbering portssvc.NumberingSvc
	poster    portssvc.JournalPoster
	gateway   portssvc.SettlementGateway
	cfg       PayablesConfig
}

// NewPaymentService creates the vendor payment service.
func NewPaymentService(txm portsrepo.TransactionManager, numbering portssvc.NumberingSvc, poster portssvc.JournalPoster, gateway portssvc.SettlementGateway, cfg PayablesConfig, options ...ServiceOption) portssvc.PaymentSvcFacade {
	return &paymentService{
		BaseService: newBaseService(options),
		txm:         txm,
		numbering:   numbering,
		poster:      poster,
		gateway:     gateway,
		cfg:         cfg,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

func (s *paymentService) RecordPayment(ctx context.Context, organizationID string, req dto.RecordPaymentRequest, userID string) (*dto.PaymentResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive: %w", apperrors.ErrValidation)
	}

	resp := &dto.PaymentResponse{Allocations: []domain.VendorPaymentAllocation{}}
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		vendor, err := repos.Vendors.FindVendorByID(ctx, organizationID, req.VendorID)
		if err != nil {
			return err
		}
		bank, err := repos.Banking.FindBankAccountByID(ctx, organizationID, req.BankAccountID)
		if err != nil {
			return err
		}

		now := s.Now()
		payment := domain.VendorPayment{
			PaymentID:         uuid.NewString(),
			OrganizationID:    organizationID,
			VendorID:          vendor.VendorID,
			BankAccountID:     bank.BankAccountID,
			PaymentDate:       domain.DateOnly(req.PaymentDate),
			Amount:            req.Amount,
			AllocatedAmount:   decimal.Zero,
			UnallocatedAmount: req.Amount,
			Method:            req.Method,
			Reference:         req.Reference,
			Status:            domain.PaymentCompleted,
			AuditFields:       domain.NewAuditFields(userID, now),
		}
		if req.ScheduledDate != nil && domain.DateOnly(*req.ScheduledDate).After(domain.DateOnly(now)) {
			if len(req.Allocations) > 0 {
				return fmt.Errorf("scheduled payments cannot be allocated before they complete: %w", domain.ErrPaymentNotCompleted)
			}
			scheduled := domain.DateOnly(*req.ScheduledDate)
			payment.ScheduledDate = &scheduled
			payment.PaymentDate = scheduled
			payment.Status = domain.PaymentScheduled
		}

		if payment.PaymentNumber, err = s.numbering.NextInTx(ctx, repos, organizationID, domain.SeriesPayment); err != nil {
			return err
		}

		if payment.Status == domain.PaymentCompleted {
			if err := s.postPayment(ctx, repos, &payment, bank.GLAccountID, userID); err != nil {
				return err
			}
		}
		if err := repos.Payments.SavePayment(ctx, payment); err != nil {
			s.LogError(ctx, err, "Failed to save payment", slog.String("payment_number", payment.PaymentNumber))
			return fmt.Errorf("failed to save payment: %w", err)
		}

		if payment.Status == domain.PaymentCompleted {
			var allocations []domain.VendorPaymentAllocation
			switch {
			case len(req.Allocations) > 0:
				allocations, err = s.allocateExplicit(ctx, repos, &payment, dto.ToAllocationRequests(req.Allocations), userID)
			case req.AutoAllocate:
				allocations, err = s.allocateAutomatic(ctx, repos, &payment, userID)
			}
			if err != nil {
				return err
			}
			resp.Allocations = append(resp.Allocations, allocations...)
		}
		resp.Payment = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Vendor payment recorded",
		slog.String("payment_id", resp.Payment.PaymentID),
		slog.String("payment_number", resp.Payment.PaymentNumber),
		slog.String("status", string(resp.Payment.Status)),
		slog.Int("allocations", len(resp.Allocations)))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "vendor_payment",
		EntityID:       resp.Payment.PaymentID,
		Action:         domain.AuditCreate,
		NewValues:      resp,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return resp, nil
}

// postPayment posts debit AP / credit bank for the full payment amount.
func (s *paymentService) postPayment(ctx context.Context, repos portsrepo.RepositoryProvider, payment *domain.VendorPayment, bankGLAccountID, userID string) error {
	payable, err := repos.Accounts.FindAccountByCode(ctx, payment.OrganizationID, s.cfg.PayableAccountCode)
	if err != nil {
		return fmt.Errorf("accounts payable account %s: %w", s.cfg.PayableAccountCode, err)
	}
	description := "Vendor payment"
	if payment.PaymentNumber != "" {
		description = "Vendor payment " + payment.PaymentNumber
	}
	entry, err := s.poster.PostInTx(ctx, repos, portssvc.PostingRequest{
		OrganizationID: payment.OrganizationID,
		PostingDate:    payment.PaymentDate,
		Reference:      payment.PaymentNumber,
		Description:    description,
		Source:         domain.SourcePayment,
		Lines: []domain.JournalLine{
			domain.DebitLine(payable.AccountID, payment.Amount, description),
			domain.CreditLine(bankGLAccountID, payment.Amount, description),
		},
		UserID: userID,
	})
	if err != nil {
		return fmt.Errorf("post payment %s: %w", payment.PaymentNumber, err)
	}
	payment.JournalEntryID = &entry.JournalEntryID
	return nil
}

func (s *paymentService) AllocatePayment(ctx context.Context, organizationID, paymentID string, req dto.AllocatePaymentRequest, userID string) ([]domain.VendorPaymentAllocation, error) {
	if len(req.Allocations) == 0 {
		return nil, fmt.Errorf("at least one allocation is required: %w", apperrors.ErrValidation)
	}
	var allocations []domain.VendorPaymentAllocation
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		payment, err := repos.Payments.FindPaymentForUpdate(ctx, organizationID, paymentID)
		if err != nil {
			return err
		}
		allocations, err = s.allocateExplicit(ctx, repos, payment, dto.ToAllocationRequests(req.Allocations), userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.auditAllocations(ctx, organizationID, paymentID, userID, allocations)
	return allocations, nil
}

func (s *paymentService) AutoAllocatePayment(ctx context.Context, organizationID, paymentID, userID string) ([]domain.VendorPaymentAllocation, error) {
	var allocations []domain.VendorPaymentAllocation
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		payment, err := repos.Payments.FindPaymentForUpdate(ctx, organizationID, paymentID)
		if err != nil {
			return err
		}
		allocations, err = s.allocateAutomatic(ctx, repos, payment, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.auditAllocations(ctx, organizationID, paymentID, userID, allocations)
	return allocations, nil
}

func (s *paymentService) auditAllocations(ctx context.Context, organizationID, paymentID, userID string, allocations []domain.VendorPaymentAllocation) {
	s.LogInfo(ctx, "Payment allocated",
		slog.String("payment_id", paymentID),
		slog.Int("allocations", len(allocations)))
	if len(allocations) == 0 {
		return
	}
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "vendor_payment",
		EntityID:       paymentID,
		Action:         domain.AuditAllocate,
		NewValues:      allocations,
		OrganizationID: organizationID,
		UserID:         userID,
	})
}

// allocateExplicit locks the requested bills and applies the requests.
func (s *paymentService) allocateExplicit(ctx context.Context, repos portsrepo.RepositoryProvider, payment *domain.VendorPayment, requests []domain.AllocationRequest, userID string) ([]domain.VendorPaymentAllocation, error) {
	if err := precheckAllocations(payment, requests); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(requests))
	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		if _, ok := seen[r.BillID]; !ok {
			seen[r.BillID] = struct{}{}
			ids = append(ids, r.BillID)
		}
	}
	sort.Strings(ids)
	bills, err := repos.Bills.FindBillsForUpdate(ctx, payment.OrganizationID, ids)
	if err != nil {
		return nil, err
	}
	return s.applyAllocations(ctx, repos, payment, bills, requests, userID)
}

// allocateAutomatic spreads the unallocated amount over the vendor's open bills,
// oldest due date first.
func (s *paymentService) allocateAutomatic(ctx context.Context, repos portsrepo.RepositoryProvider, payment *domain.VendorPayment, userID string) ([]domain.VendorPaymentAllocation, error) {
	if payment.Status != domain.PaymentCompleted {
		return nil, fmt.Errorf("payment %s: %w", payment.PaymentNumber, domain.ErrPaymentNotCompleted)
	}
	open, err := repos.Bills.FindOpenBillsByVendorForUpdate(ctx, payment.OrganizationID, payment.VendorID)
	if err != nil {
		return nil, err
	}
	plan := domain.PlanAutoAllocation(payment.UnallocatedAmount, open)
	if len(plan) == 0 {
		return []domain.VendorPaymentAllocation{}, nil
	}
	bills := make(map[string]domain.VendorBill, len(open))
	for _, b := range open {
		bills[b.BillID] = b
	}
	return s.applyAllocations(ctx, repos, payment, bills, plan, userID)
}

func precheckAllocations(payment *domain.VendorPayment, requests []domain.AllocationRequest) error {
	if payment.Status != domain.PaymentCompleted {
		return fmt.Errorf("payment %s: %w", payment.PaymentNumber, domain.ErrPaymentNotCompleted)
	}
	total := decimal.Zero
	for _, r := range requests {
		if !r.Amount.IsPositive() {
			return fmt.Errorf("allocation to bill %s must be positive: %w", r.BillID, apperrors.ErrValidation)
		}
		total = total.Add(r.Amount)
	}
	if total.GreaterThan(payment.UnallocatedAmount) {
		return fmt.Errorf("payment %s unallocated %s, requested %s: %w",
			payment.PaymentNumber, payment.UnallocatedAmount.String(), total.String(), domain.ErrAllocationExceedsPayment)
	}
	return nil
}

// applyAllocations mutates the locked bills and the payment, then writes them.
// Any failure leaves the caller's transaction to roll back every write.
func (s *paymentService) applyAllocations(ctx context.Context, repos portsrepo.RepositoryProvider, payment *domain.VendorPayment, bills map[string]domain.VendorBill, requests []domain.AllocationRequest, userID string) ([]domain.VendorPaymentAllocation, error) {
	now := s.Now()
	touched := make([]string, 0, len(requests))
	allocations := make([]domain.VendorPaymentAllocation, 0, len(requests))
	for _, r := range requests {
		bill, ok := bills[r.BillID]
		if !ok {
			return nil, fmt.Errorf("bill %s: %w", r.BillID, apperrors.ErrNotFound)
		}
		if bill.VendorID != payment.VendorID {
			return nil, fmt.Errorf("bill %s: %w", bill.BillNumber, domain.ErrVendorMismatch)
		}
		if err := bill.ApplyPayment(r.Amount); err != nil {
			return nil, err
		}
		if err := payment.Allocate(r.Amount); err != nil {
			return nil, err
		}
		bill.Touch(userID, now)
		if _, seen := findString(touched, bill.BillID); !seen {
			touched = append(touched, bill.BillID)
		}
		bills[r.BillID] = bill
		allocations = append(allocations, domain.VendorPaymentAllocation{
			AllocationID:    uuid.NewString(),
			OrganizationID:  payment.OrganizationID,
			PaymentID:       payment.PaymentID,
			BillID:          bill.BillID,
			AllocatedAmount: r.Amount,
			CreatedAt:       now,
			CreatedBy:       userID,
		})
	}

	for _, id := range touched {
		if err := repos.Bills.UpdateBillPayment(ctx, bills[id]); err != nil {
			s.LogError(ctx, err, "Failed to update bill payment state", slog.String("bill_id", id))
			return nil, fmt.Errorf("failed to update bill: %w", err)
		}
	}
	if err := repos.Payments.SaveAllocations(ctx, allocations); err != nil {
		s.LogError(ctx, err, "Failed to save allocations", slog.String("payment_id", payment.PaymentID))
		return nil, fmt.Errorf("failed to save allocations: %w", err)
	}
	payment.Touch(userID, now)
	if err := repos.Payments.UpdatePayment(ctx, *payment); err != nil {
		s.LogError(ctx, err, "Failed to update payment", slog.String("payment_id", payment.PaymentID))
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	return allocations, nil
}

func findString(values []string, target string) (int, bool) {
	for i, v := range values {
		if v == target {
			return i, true
		}
	}
	return -1, false
}

// ProcessScheduledPayments settles every scheduled payment due by asOf. Each
// payment is handled on its own; a failure marks that payment failed and the
// batch moves on.
func (s *paymentService) ProcessScheduledPayments(ctx context.Context, asOf time.Time) (domain.BatchResult, error) {
	start := time.Now()
	defer func() {
		metrics.BatchDuration.WithLabelValues(jobScheduledPayments).Observe(time.Since(start).Seconds())
	}()

	var result domain.BatchResult
	due, err := s.txm.Repositories().Payments.ListDueScheduledPayments(ctx, domain.DateOnly(asOf))
	if err != nil {
		s.LogError(ctx, err, "Failed to list scheduled payments")
		return result, fmt.Errorf("failed to list scheduled payments: %w", err)
	}
	s.LogInfo(ctx, "Processing scheduled payments", slog.Int("count", len(due)), slog.Time("as_of", asOf))

	for _, p := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		err := s.processScheduledPayment(ctx, p)
		if errors.Is(err, errPaymentClaimed) {
			s.LogInfo(ctx, "Scheduled payment already picked up, skipping",
				slog.String("payment_id", p.PaymentID),
				slog.String("organization_id", p.OrganizationID))
			metrics.BatchItems.WithLabelValues(jobScheduledPayments, "skipped").Inc()
			result.Skip()
			continue
		}
		if err != nil {
			s.LogError(ctx, err, "Scheduled payment failed",
				slog.String("payment_id", p.PaymentID),
				slog.String("organization_id", p.OrganizationID))
			if markErr := s.markPaymentFailed(ctx, p, err); markErr != nil {
				s.LogError(ctx, markErr, "Failed to mark payment failed", slog.String("payment_id", p.PaymentID))
			}
			metrics.BatchItems.WithLabelValues(jobScheduledPayments, "failed").Inc()
			result.Failure(p.PaymentID, err)
			continue
		}
		metrics.BatchItems.WithLabelValues(jobScheduledPayments, "succeeded").Inc()
		result.Success()
	}

	s.LogInfo(ctx, "Scheduled payments processed",
		slog.Int("processed", result.Processed),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

func (s *paymentService) processScheduledPayment(ctx context.Context, p domain.VendorPayment) error {
	var claimed domain.VendorPayment
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		payment, err := repos.Payments.FindPaymentForUpdate(ctx, p.OrganizationID, p.PaymentID)
		if err != nil {
			return err
		}
		if payment.Status != domain.PaymentScheduled {
			return fmt.Errorf("payment %s is %s: %w", payment.PaymentNumber, payment.Status, errPaymentClaimed)
		}
		payment.Status = domain.PaymentProcessing
		payment.Touch(domain.SystemUserID, s.Now())
		claimed = *payment
		return repos.Payments.UpdatePayment(ctx, *payment)
	})
	if err != nil {
		return err
	}

	if err := s.gateway.Settle(ctx, claimed); err != nil {
		return fmt.Errorf("settlement: %w", err)
	}

	var allocations []domain.VendorPaymentAllocation
	err = s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		payment, err := repos.Payments.FindPaymentForUpdate(ctx, p.OrganizationID, p.PaymentID)
		if err != nil {
			return err
		}
		bank, err := repos.Banking.FindBankAccountByID(ctx, p.OrganizationID, payment.BankAccountID)
		if err != nil {
			return err
		}
		if err := s.postPayment(ctx, repos, payment, bank.GLAccountID, domain.SystemUserID); err != nil {
			return err
		}
		payment.Status = domain.PaymentCompleted
		payment.FailureReason = ""
		if err := repos.Payments.UpdatePayment(ctx, *payment); err != nil {
			return err
		}
		allocations, err = s.allocateAutomatic(ctx, repos, payment, domain.SystemUserID)
		return err
	})
	if err != nil {
		return err
	}

	s.LogInfo(ctx, "Scheduled payment completed",
		slog.String("payment_id", p.PaymentID),
		slog.Int("allocations", len(allocations)))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "vendor_payment",
		EntityID:       p.PaymentID,
		Action:         domain.AuditUpdate,
		OldValues:      map[string]any{"status": domain.PaymentScheduled},
		NewValues:      map[string]any{"status": domain.PaymentCompleted, "allocations": allocations},
		OrganizationID: p.OrganizationID,
		UserID:         domain.SystemUserID,
	})
	return nil
}

func (s *paymentService) markPaymentFailed(ctx context.Context, p domain.VendorPayment, cause error) error {
	return s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		payment, err := repos.Payments.FindPaymentForUpdate(ctx, p.OrganizationID, p.PaymentID)
		if err != nil {
			return err
		}
		if payment.Status == domain.PaymentCompleted {
			return nil
		}
		payment.Status = domain.PaymentFailed
		payment.FailureReason = cause.Error()
		payment.Touch(domain.SystemUserID, s.Now())
		return repos.Payments.UpdatePayment(ctx, *payment)
	})
}
