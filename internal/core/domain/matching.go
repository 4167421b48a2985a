package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder is an approved order placed with a vendor.
type PurchaseOrder struct {
	PurchaseOrderID string              `json:"purchaseOrderID"`
	OrganizationID  string              `json:"organizationID"`
	VendorID        string              `json:"vendorID"`
	OrderNumber     string              `json:"orderNumber"`
	OrderDate       time.Time           `json:"orderDate"`
	Lines           []PurchaseOrderLine `json:"lines"`
}

// PurchaseOrderLine is the ordered quantity and agreed price of one item.
type PurchaseOrderLine struct {
	ItemCode        string          `json:"itemCode"`
	Description     string          `json:"description"`
	OrderedQuantity decimal.Decimal `json:"orderedQuantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
}

// GoodsReceipt records what actually arrived against a purchase order.
type GoodsReceipt struct {
	ReceiptID       string             `json:"receiptID"`
	OrganizationID  string             `json:"organizationID"`
	PurchaseOrderID string             `json:"purchaseOrderID"`
	ReceiptNumber   string             `json:"receiptNumber"`
	ReceivedDate    time.Time          `json:"receivedDate"`
	Lines           []GoodsReceiptLine `json:"lines"`
}

// GoodsReceiptLine is the received quantity of one item.
type GoodsReceiptLine struct {
	ItemCode         string          `json:"itemCode"`
	ReceivedQuantity decimal.Decimal `json:"receivedQuantity"`
}

// LineVariance is the comparison of one bill line against its order and receipt.
type LineVariance struct {
	ItemCode          string          `json:"itemCode"`
	BilledQuantity    decimal.Decimal `json:"billedQuantity"`
	ReceivedQuantity  decimal.Decimal `json:"receivedQuantity"`
	OrderedQuantity   decimal.Decimal `json:"orderedQuantity"`
	BilledPrice       decimal.Decimal `json:"billedPrice"`
	OrderedPrice      decimal.Decimal `json:"orderedPrice"`
	QuantityVariance  decimal.Decimal `json:"quantityVariance"`
	PriceVariance     decimal.Decimal `json:"priceVariance"`
	ToleranceExceeded bool            `json:"toleranceExceeded"`
}

// ThreeWayMatch is the stored outcome of matching a bill to its order and receipt.
// QuantityVariance and PriceVariance are monetary amounts summed over lines.
type ThreeWayMatch struct {
	MatchID           string          `json:"matchID"`
	OrganizationID    string          `json:"organizationID"`
	BillID            string          `json:"billID"`
	PurchaseOrderID   string          `json:"purchaseOrderID"`
	ReceiptID         string          `json:"receiptID"`
	QuantityVariance  decimal.Decimal `json:"quantityVariance"`
	PriceVariance     decimal.Decimal `json:"priceVariance"`
	ToleranceExceeded bool            `json:"toleranceExceeded"`
	Exceptions        []string        `json:"exceptions"`
	Lines             []LineVariance  `json:"lines"`
	MatchedAt         time.Time       `json:"matchedAt"`
}

// Status is the bill matching status implied by the result.
func (m ThreeWayMatch) Status() MatchingStatus {
	if m.ToleranceExceeded || len(m.Exceptions) > 0 {
		return MatchVariance
	}
	return MatchFullyMatched
}

// MatchBill compares each bill line (by item code) with the ordered line and the
// received quantity. A line exceeds tolerance when the value of its quantity
// variance or of its price variance is more than tolerancePercent of the
// ordered line value.
func MatchBill(bill VendorBill, po PurchaseOrder, receipt GoodsReceipt, tolerancePercent decimal.Decimal) ThreeWayMatch {
	result := ThreeWayMatch{
		OrganizationID:   bill.OrganizationID,
		BillID:           bill.BillID,
		PurchaseOrderID:  po.PurchaseOrderID,
		ReceiptID:        receipt.ReceiptID,
		QuantityVariance: decimal.Zero,
		PriceVariance:    decimal.Zero,
		Exceptions:       []string{},
	}
	if receipt.PurchaseOrderID != "" && receipt.PurchaseOrderID != po.PurchaseOrderID {
		result.Exceptions = append(result.Exceptions, fmt.Sprintf("receipt %s is not for purchase order %s", receipt.ReceiptNumber, po.OrderNumber))
	}

	ordered := make(map[string]PurchaseOrderLine, len(po.Lines))
	for _, l := range po.Lines {
		if existing, ok := ordered[l.ItemCode]; ok {
			existing.OrderedQuantity = existing.OrderedQuantity.Add(l.OrderedQuantity)
			ordered[l.ItemCode] = existing
			continue
		}
		ordered[l.ItemCode] = l
	}
	received := make(map[string]decimal.Decimal, len(receipt.Lines))
	for _, l := range receipt.Lines {
		received[l.ItemCode] = received[l.ItemCode].Add(l.ReceivedQuantity)
	}

	for _, bl := range bill.Lines {
		poLine, hasPO := ordered[bl.ItemCode]
		if !hasPO {
			result.Exceptions = append(result.Exceptions, fmt.Sprintf("item %s is not on purchase order %s", bl.ItemCode, po.OrderNumber))
			continue
		}
		recvQty, hasReceipt := received[bl.ItemCode]
		if !hasReceipt {
			result.Exceptions = append(result.Exceptions, fmt.Sprintf("item %s has no goods receipt", bl.ItemCode))
		}

		lv := LineVariance{
			ItemCode:         bl.ItemCode,
			BilledQuantity:   bl.Quantity,
			ReceivedQuantity: recvQty,
			OrderedQuantity:  poLine.OrderedQuantity,
			BilledPrice:      bl.UnitPrice,
			OrderedPrice:     poLine.UnitPrice,
			QuantityVariance: bl.Quantity.Sub(recvQty),
			PriceVariance:    bl.UnitPrice.Sub(poLine.UnitPrice),
		}
		qtyValue := lv.QuantityVariance.Abs().Mul(poLine.UnitPrice)
		priceValue := lv.PriceVariance.Abs().Mul(bl.Quantity)
		allowed := poLine.OrderedQuantity.Mul(poLine.UnitPrice).Mul(tolerancePercent).Div(hundred)
		lv.ToleranceExceeded = qtyValue.GreaterThan(allowed) || priceValue.GreaterThan(allowed)

		result.QuantityVariance = result.QuantityVariance.Add(RoundMoney(lv.QuantityVariance.Mul(poLine.UnitPrice)))
		result.PriceVariance = result.PriceVariance.Add(RoundMoney(lv.PriceVariance.Mul(bl.Quantity)))
		if lv.ToleranceExceeded {
			result.ToleranceExceeded = true
		}
		result.Lines = append(result.Lines, lv)
	}
	return result
}
