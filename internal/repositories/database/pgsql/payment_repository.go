package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for vendor payments and allocations.
func newPgxPaymentRepository(db Querier) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, organization_id, payment_number, vendor_id, bank_account_id, payment_date, scheduled_date,
		amount, allocated_amount, unallocated_amount, method, reference, status, failure_reason, journal_entry_id,
		created_at, created_by, last_updated_at, last_updated_by`

func scanPayment(row pgx.Row) (domain.VendorPayment, error) {
	var p domain.VendorPayment
	err := row.Scan(
		&p.PaymentID,
		&p.OrganizationID,
		&p.PaymentNumber,
		&p.VendorID,
		&p.BankAccountID,
		&p.PaymentDate,
		&p.ScheduledDate,
		&p.Amount,
		&p.AllocatedAmount,
		&p.UnallocatedAmount,
		&p.Method,
		&p.Reference,
		&p.Status,
		&p.FailureReason,
		&p.JournalEntryID,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	return p, err
}

func (r *PgxPaymentRepository) queryPayments(ctx context.Context, what, query string, args ...any) ([]domain.VendorPayment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, what)
	}
	defer rows.Close()

	payments := []domain.VendorPayment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, mapError(err, "scan payment")
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate payments")
	}
	return payments, nil
}

func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.VendorPayment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO vendor_payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);`,
		payment.PaymentID,
		payment.OrganizationID,
		payment.PaymentNumber,
		payment.VendorID,
		payment.BankAccountID,
		payment.PaymentDate,
		payment.ScheduledDate,
		payment.Amount,
		payment.AllocatedAmount,
		payment.UnallocatedAmount,
		payment.Method,
		payment.Reference,
		payment.Status,
		payment.FailureReason,
		payment.JournalEntryID,
		payment.CreatedAt,
		payment.CreatedBy,
		payment.LastUpdatedAt,
		payment.LastUpdatedBy,
	)
	return mapError(err, "save payment "+payment.PaymentNumber)
}

func (r *PgxPaymentRepository) findPayment(ctx context.Context, organizationID, paymentID string, lock bool) (*domain.VendorPayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM vendor_payments WHERE organization_id = $1 AND payment_id = $2`
	if lock {
		query += ` FOR UPDATE`
	}
	p, err := scanPayment(r.db.QueryRow(ctx, query, organizationID, paymentID))
	if err != nil {
		return nil, mapError(err, "find payment "+paymentID)
	}
	return &p, nil
}

func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, organizationID, paymentID string) (*domain.VendorPayment, error) {
	return r.findPayment(ctx, organizationID, paymentID, false)
}

func (r *PgxPaymentRepository) FindPaymentForUpdate(ctx context.Context, organizationID, paymentID string) (*domain.VendorPayment, error) {
	return r.findPayment(ctx, organizationID, paymentID, true)
}

// UpdatePayment stores the mutable state of a payment.
func (r *PgxPaymentRepository) UpdatePayment(ctx context.Context, payment domain.VendorPayment) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE vendor_payments
		SET payment_date = $3, allocated_amount = $4, unallocated_amount = $5, status = $6, failure_reason = $7,
		    journal_entry_id = $8, last_updated_at = $9, last_updated_by = $10
		WHERE organization_id = $1 AND payment_id = $2;`,
		payment.OrganizationID, payment.PaymentID, payment.PaymentDate, payment.AllocatedAmount, payment.UnallocatedAmount,
		payment.Status, payment.FailureReason, payment.JournalEntryID, payment.LastUpdatedAt, payment.LastUpdatedBy)
	if err != nil {
		return mapError(err, "update payment "+payment.PaymentNumber)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("payment %s: %w", payment.PaymentID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxPaymentRepository) SaveAllocations(ctx context.Context, allocations []domain.VendorPaymentAllocation) error {
	batch := &pgx.Batch{}
	for _, a := range allocations {
		batch.Queue(`
			INSERT INTO vendor_payment_allocations (allocation_id, organization_id, payment_id, bill_id, allocated_amount, created_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			a.AllocationID, a.OrganizationID, a.PaymentID, a.BillID, a.AllocatedAmount, a.CreatedAt, a.CreatedBy)
	}
	return r.execBatch(ctx, batch, "save allocations", true)
}

func (r *PgxPaymentRepository) ListAllocations(ctx context.Context, organizationID, paymentID string) ([]domain.VendorPaymentAllocation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT allocation_id, organization_id, payment_id, bill_id, allocated_amount, created_at, created_by
		FROM vendor_payment_allocations
		WHERE organization_id = $1 AND payment_id = $2
		ORDER BY created_at, allocation_id;`, organizationID, paymentID)
	if err != nil {
		return nil, mapError(err, "list allocations")
	}
	defer rows.Close()

	allocations := []domain.VendorPaymentAllocation{}
	for rows.Next() {
		var a domain.VendorPaymentAllocation
		if err := rows.Scan(&a.AllocationID, &a.OrganizationID, &a.PaymentID, &a.BillID, &a.AllocatedAmount, &a.CreatedAt, &a.CreatedBy); err != nil {
			return nil, mapError(err, "scan allocation")
		}
		allocations = append(allocations, a)
	}
	return allocations, mapError(rows.Err(), "iterate allocations")
}

// ListDueScheduledPayments returns scheduled payments of every organization due by asOf.
func (r *PgxPaymentRepository) ListDueScheduledPayments(ctx context.Context, asOf time.Time) ([]domain.VendorPayment, error) {
	return r.queryPayments(ctx, "list due scheduled payments", `
		SELECT `+paymentColumns+`
		FROM vendor_payments
		WHERE status = $1 AND scheduled_date <= $2
		ORDER BY organization_id, scheduled_date, payment_number;`, domain.PaymentScheduled, asOf)
}

// ListScheduledPayments returns scheduled payments due by until, optionally for some bank accounts.
func (r *PgxPaymentRepository) ListScheduledPayments(ctx context.Context, organizationID string, bankAccountIDs []string, until time.Time) ([]domain.VendorPayment, error) {
	if bankAccountIDs == nil {
		bankAccountIDs = []string{}
	}
	return r.queryPayments(ctx, "list scheduled payments", `
		SELECT `+paymentColumns+`
		FROM vendor_payments
		WHERE organization_id = $1 AND status = $2 AND scheduled_date <= $3
		  AND (cardinality($4::varchar[]) = 0 OR bank_account_id = ANY($4))
		ORDER BY scheduled_date, payment_number;`, organizationID, domain.PaymentScheduled, until, bankAccountIDs)
}
