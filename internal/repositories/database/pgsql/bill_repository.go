package pgsql

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
)

type PgxBillRepository struct {
	BaseRepository
}

// newPgxBillRepository creates a new repository for vendor bills.
func newPgxBillRepository(db Querier) portsrepo.BillRepositoryFacade {
	return &PgxBillRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.BillRepositoryFacade = (*PgxBillRepository)(nil)

const billColumns = `bill_id, organization_id, bill_number, vendor_id, reference, bill_date, due_date,
		purchase_order_id, receipt_id, subtotal, discount_amount, tax_amount, total_amount, paid_amount,
		outstanding_amount, status, approval_status, matching_status, payable_account_id, journal_entry_id,
		created_at, created_by, last_updated_at, last_updated_by`

func scanBill(row pgx.Row) (domain.VendorBill, error) {
	var b domain.VendorBill
	err := row.Scan(
		&b.BillID,
		&b.OrganizationID,
		&b.BillNumber,
		&b.VendorID,
		&b.Reference,
		&b.BillDate,
		&b.DueDate,
		&b.PurchaseOrderID,
		&b.ReceiptID,
		&b.Subtotal,
		&b.DiscountAmount,
		&b.TaxAmount,
		&b.TotalAmount,
		&b.PaidAmount,
		&b.OutstandingAmount,
		&b.Status,
		&b.ApprovalStatus,
		&b.MatchingStatus,
		&b.PayableAccountID,
		&b.JournalEntryID,
		&b.CreatedAt,
		&b.CreatedBy,
		&b.LastUpdatedAt,
		&b.LastUpdatedBy,
	)
	return b, err
}

func (r *PgxBillRepository) queryBills(ctx context.Context, what, query string, args ...any) ([]domain.VendorBill, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, what)
	}
	defer rows.Close()

	bills := []domain.VendorBill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, mapError(err, "scan bill")
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate bills")
	}
	return bills, nil
}

// attachLines loads the line items of every bill in one query.
func (r *PgxBillRepository) attachLines(ctx context.Context, bills []domain.VendorBill) error {
	if len(bills) == 0 {
		return nil
	}
	ids := make([]string, len(bills))
	index := make(map[string]int, len(bills))
	for i, b := range bills {
		ids[i] = b.BillID
		index[b.BillID] = i
	}

	rows, err := r.db.Query(ctx, `
		SELECT line_id, bill_id, item_code, account_id, description, quantity, unit_price,
		       discount_percent, tax_percent, discount_amount, tax_amount, line_total
		FROM bill_line_items
		WHERE bill_id = ANY($1)
		ORDER BY bill_id, line_no;`, ids)
	if err != nil {
		return mapError(err, "query bill lines")
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.BillLineItem
		if err := rows.Scan(&l.LineID, &l.BillID, &l.ItemCode, &l.AccountID, &l.Description, &l.Quantity, &l.UnitPrice,
			&l.DiscountPercent, &l.TaxPercent, &l.DiscountAmount, &l.TaxAmount, &l.LineTotal); err != nil {
			return mapError(err, "scan bill line")
		}
		i := index[l.BillID]
		bills[i].Lines = append(bills[i].Lines, l)
	}
	return mapError(rows.Err(), "iterate bill lines")
}

// SaveBill inserts the bill header and its line items.
func (r *PgxBillRepository) SaveBill(ctx context.Context, bill domain.VendorBill) error {
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO vendor_bills (`+billColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24);`,
		bill.BillID,
		bill.OrganizationID,
		bill.BillNumber,
		bill.VendorID,
		bill.Reference,
		bill.BillDate,
		bill.DueDate,
		nullString(bill.PurchaseOrderID),
		nullString(bill.ReceiptID),
		bill.Subtotal,
		bill.DiscountAmount,
		bill.TaxAmount,
		bill.TotalAmount,
		bill.PaidAmount,
		bill.OutstandingAmount,
		bill.Status,
		bill.ApprovalStatus,
		bill.MatchingStatus,
		bill.PayableAccountID,
		bill.JournalEntryID,
		bill.CreatedAt,
		bill.CreatedBy,
		bill.LastUpdatedAt,
		bill.LastUpdatedBy,
	)
	lineQuery := `
		INSERT INTO bill_line_items (line_id, bill_id, line_no, item_code, account_id, description, quantity, unit_price,
			discount_percent, tax_percent, discount_amount, tax_amount, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	for i, l := range bill.Lines {
		batch.Queue(lineQuery, l.LineID, bill.BillID, i+1, l.ItemCode, l.AccountID, l.Description, l.Quantity, l.UnitPrice,
			l.DiscountPercent, l.TaxPercent, l.DiscountAmount, l.TaxAmount, l.LineTotal)
	}
	return r.execBatch(ctx, batch, "save bill "+bill.BillNumber, true)
}

// FindBillByID loads a bill with its lines.
func (r *PgxBillRepository) FindBillByID(ctx context.Context, organizationID, billID string) (*domain.VendorBill, error) {
	bills, err := r.queryBills(ctx, "find bill "+billID,
		`SELECT `+billColumns+` FROM vendor_bills WHERE organization_id = $1 AND bill_id = $2;`, organizationID, billID)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, fmt.Errorf("bill %s: %w", billID, apperrors.ErrNotFound)
	}
	if err := r.attachLines(ctx, bills); err != nil {
		return nil, err
	}
	return &bills[0], nil
}

// ListOutstandingBills returns bills with a positive outstanding amount ordered by due date.
func (r *PgxBillRepository) ListOutstandingBills(ctx context.Context, organizationID string, vendorID *string) ([]domain.VendorBill, error) {
	return r.queryBills(ctx, "list outstanding bills", `
		SELECT `+billColumns+`
		FROM vendor_bills
		WHERE organization_id = $1 AND outstanding_amount > 0 AND ($2::varchar IS NULL OR vendor_id = $2)
		ORDER BY due_date, bill_number;`, organizationID, vendorID)
}

// UpdateBillPayment stores the paid and outstanding amounts after an allocation.
func (r *PgxBillRepository) UpdateBillPayment(ctx context.Context, bill domain.VendorBill) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE vendor_bills
		SET paid_amount = $3, outstanding_amount = $4, status = $5, last_updated_at = $6, last_updated_by = $7
		WHERE organization_id = $1 AND bill_id = $2;`,
		bill.OrganizationID, bill.BillID, bill.PaidAmount, bill.OutstandingAmount, bill.Status, bill.LastUpdatedAt, bill.LastUpdatedBy)
	if err != nil {
		return mapError(err, "update payment of bill "+bill.BillNumber)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("bill %s: %w", bill.BillID, apperrors.ErrNotFound)
	}
	return nil
}

// UpdateBillApproval stores the approval status and the AP journal entry.
func (r *PgxBillRepository) UpdateBillApproval(ctx context.Context, bill domain.VendorBill) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE vendor_bills
		SET approval_status = $3, journal_entry_id = $4, last_updated_at = $5, last_updated_by = $6
		WHERE organization_id = $1 AND bill_id = $2;`,
		bill.OrganizationID, bill.BillID, bill.ApprovalStatus, bill.JournalEntryID, bill.LastUpdatedAt, bill.LastUpdatedBy)
	if err != nil {
		return mapError(err, "update approval of bill "+bill.BillNumber)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("bill %s: %w", bill.BillID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxBillRepository) UpdateBillMatching(ctx context.Context, organizationID, billID string, status domain.MatchingStatus, userID string, now time.Time) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE vendor_bills
		SET matching_status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE organization_id = $1 AND bill_id = $2;`,
		organizationID, billID, status, now, userID)
	if err != nil {
		return mapError(err, "update matching of bill "+billID)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("bill %s: %w", billID, apperrors.ErrNotFound)
	}
	return nil
}

// SaveThreeWayMatch stores the match result; exceptions and line variances go to JSONB columns.
func (r *PgxBillRepository) SaveThreeWayMatch(ctx context.Context, match domain.ThreeWayMatch) error {
	exceptions := match.Exceptions
	if exceptions == nil {
		exceptions = []string{}
	}
	lines := match.Lines
	if lines == nil {
		lines = []domain.LineVariance{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO three_way_matches (match_id, organization_id, bill_id, purchase_order_id, receipt_id,
			quantity_variance, price_variance, tolerance_exceeded, exceptions, lines, matched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
		match.MatchID, match.OrganizationID, match.BillID, match.PurchaseOrderID, match.ReceiptID,
		match.QuantityVariance, match.PriceVariance, match.ToleranceExceeded, exceptions, lines, match.MatchedAt)
	return mapError(err, "save three-way match of bill "+match.BillID)
}

// FindBillsForUpdate locks the given bills in ID order and loads their lines.
func (r *PgxBillRepository) FindBillsForUpdate(ctx context.Context, organizationID string, billIDs []string) (map[string]domain.VendorBill, error) {
	result := make(map[string]domain.VendorBill, len(billIDs))
	if len(billIDs) == 0 {
		return result, nil
	}
	ids := append([]string(nil), billIDs...)
	sort.Strings(ids)

	bills, err := r.queryBills(ctx, "lock bills", `
		SELECT `+billColumns+`
		FROM vendor_bills
		WHERE organization_id = $1 AND bill_id = ANY($2)
		ORDER BY bill_id
		FOR UPDATE;`, organizationID, ids)
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, bills); err != nil {
		return nil, err
	}
	for _, b := range bills {
		result[b.BillID] = b
	}
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			return nil, fmt.Errorf("bill %s: %w", id, apperrors.ErrNotFound)
		}
	}
	return result, nil
}

// FindOpenBillsByVendorForUpdate locks the vendor's approved bills that still have an outstanding amount.
func (r *PgxBillRepository) FindOpenBillsByVendorForUpdate(ctx context.Context, organizationID, vendorID string) ([]domain.VendorBill, error) {
	return r.queryBills(ctx, "lock open bills of vendor "+vendorID, `
		SELECT `+billColumns+`
		FROM vendor_bills
		WHERE organization_id = $1 AND vendor_id = $2 AND approval_status = $3 AND outstanding_amount > 0
		ORDER BY bill_id
		FOR UPDATE;`, organizationID, vendorID, domain.ApprovalApproved)
}
