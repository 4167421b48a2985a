package pgsql

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

// PgxProcurementRepository reads purchase orders and goods receipts written
// by the purchasing system.
type PgxProcurementRepository struct {
	BaseRepository
}

func newPgxProcurementRepository(db Querier) portsrepo.ProcurementReader {
	return &PgxProcurementRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.ProcurementReader = (*PgxProcurementRepository)(nil)

func (r *PgxProcurementRepository) FindPurchaseOrderByID(ctx context.Context, organizationID, purchaseOrderID string) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	err := r.db.QueryRow(ctx, `
		SELECT purchase_order_id, organization_id, vendor_id, order_number, order_date
		FROM purchase_orders WHERE organization_id = $1 AND purchase_order_id = $2;`,
		organizationID, purchaseOrderID,
	).Scan(&po.PurchaseOrderID, &po.OrganizationID, &po.VendorID, &po.OrderNumber, &po.OrderDate)
	if err != nil {
		return nil, mapError(err, "find purchase order "+purchaseOrderID)
	}

	rows, err := r.db.Query(ctx, `
		SELECT item_code, description, ordered_quantity, unit_price
		FROM purchase_order_lines WHERE purchase_order_id = $1 ORDER BY line_no;`, purchaseOrderID)
	if err != nil {
		return nil, mapError(err, "query purchase order lines")
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.PurchaseOrderLine
		if err := rows.Scan(&l.ItemCode, &l.Description, &l.OrderedQuantity, &l.UnitPrice); err != nil {
			return nil, mapError(err, "scan purchase order line")
		}
		po.Lines = append(po.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate purchase order lines")
	}
	return &po, nil
}

func (r *PgxProcurementRepository) FindGoodsReceiptByID(ctx context.Context, organizationID, receiptID string) (*domain.GoodsReceipt, error) {
	var gr domain.GoodsReceipt
	err := r.db.QueryRow(ctx, `
		SELECT receipt_id, organization_id, purchase_order_id, receipt_number, received_date
		FROM goods_receipts WHERE organization_id = $1 AND receipt_id = $2;`,
		organizationID, receiptID,
	).Scan(&gr.ReceiptID, &gr.OrganizationID, &gr.PurchaseOrderID, &gr.ReceiptNumber, &gr.ReceivedDate)
	if err != nil {
		return nil, mapError(err, "find goods receipt "+receiptID)
	}

	rows, err := r.db.Query(ctx, `
		SELECT item_code, received_quantity
		FROM goods_receipt_lines WHERE receipt_id = $1 ORDER BY line_no;`, receiptID)
	if err != nil {
		return nil, mapError(err, "query goods receipt lines")
	}
	defer rows.Close()
	for rows.Next() {
		var l domain.GoodsReceiptLine
		if err := rows.Scan(&l.ItemCode, &l.ReceivedQuantity); err != nil {
			return nil, mapError(err, "scan goods receipt line")
		}
		gr.Lines = append(gr.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate goods receipt lines")
	}
	return &gr, nil
}
