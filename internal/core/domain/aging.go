package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AgingBucket is a days-overdue band for outstanding payables.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "current"
	BucketDays30  AgingBucket = "days30"
	BucketDays60  AgingBucket = "days60"
	BucketDays90  AgingBucket = "days90"
	BucketOver90  AgingBucket = "over90"
)

const day = 24 * time.Hour

// DaysOverdue is the whole number of calendar days asOf lies past due, floored at zero.
func DaysOverdue(due, asOf time.Time) int {
	days := int(DateOnly(asOf).Sub(DateOnly(due)) / day)
	if days < 0 {
		return 0
	}
	return days
}

// BucketFor maps days overdue to its aging bucket.
func BucketFor(daysOverdue int) AgingBucket {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return BucketDays30
	case daysOverdue <= 60:
		return BucketDays60
	case daysOverdue <= 90:
		return BucketDays90
	default:
		return BucketOver90
	}
}

// AgingTotals holds outstanding amounts per bucket.
type AgingTotals struct {
	Current decimal.Decimal `json:"current"`
	Days30  decimal.Decimal `json:"days30"`
	Days60  decimal.Decimal `json:"days60"`
	Days90  decimal.Decimal `json:"days90"`
	Over90  decimal.Decimal `json:"over90"`
	Total   decimal.Decimal `json:"total"`
}

func (t *AgingTotals) add(bucket AgingBucket, amount decimal.Decimal) {
	switch bucket {
	case BucketCurrent:
		t.Current = t.Current.Add(amount)
	case BucketDays30:
		t.Days30 = t.Days30.Add(amount)
	case BucketDays60:
		t.Days60 = t.Days60.Add(amount)
	case BucketDays90:
		t.Days90 = t.Days90.Add(amount)
	case BucketOver90:
		t.Over90 = t.Over90.Add(amount)
	}
	t.Total = t.Total.Add(amount)
}

// AgingBill is one outstanding bill placed in its bucket.
type AgingBill struct {
	BillID            string          `json:"billID"`
	BillNumber        string          `json:"billNumber"`
	DueDate           time.Time       `json:"dueDate"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount"`
	DaysOverdue       int             `json:"daysOverdue"`
	Bucket            AgingBucket     `json:"bucket"`
}

// VendorAging groups a vendor's outstanding bills.
type VendorAging struct {
	VendorID   string      `json:"vendorID"`
	VendorName string      `json:"vendorName"`
	Totals     AgingTotals `json:"totals"`
	Bills      []AgingBill `json:"bills"`
}

// AgingReport is the AP aging as of a date.
type AgingReport struct {
	AsOfDate time.Time     `json:"asOfDate"`
	Vendors  []VendorAging `json:"vendors"`
	Totals   AgingTotals   `json:"totals"`
}

// BuildAgingReport places every bill with a positive outstanding amount into a
// bucket, grouped per vendor. Vendors are ordered by name.
func BuildAgingReport(asOf time.Time, bills []VendorBill, vendorNames map[string]string) AgingReport {
	report := AgingReport{AsOfDate: DateOnly(asOf)}
	byVendor := make(map[string]*VendorAging)
	for _, b := range bills {
		if !b.OutstandingAmount.IsPositive() {
			continue
		}
		days := DaysOverdue(b.DueDate, asOf)
		bucket := BucketFor(days)
		va, ok := byVendor[b.VendorID]
		if !ok {
			va = &VendorAging{VendorID: b.VendorID, VendorName: vendorNames[b.VendorID]}
			byVendor[b.VendorID] = va
		}
		va.Bills = append(va.Bills, AgingBill{
			BillID:            b.BillID,
			BillNumber:        b.BillNumber,
			DueDate:           b.DueDate,
			OutstandingAmount: b.OutstandingAmount,
			DaysOverdue:       days,
			Bucket:            bucket,
		})
		va.Totals.add(bucket, b.OutstandingAmount)
		report.Totals.add(bucket, b.OutstandingAmount)
	}
	for _, va := range byVendor {
		report.Vendors = append(report.Vendors, *va)
	}
	sort.Slice(report.Vendors, func(i, j int) bool {
		if report.Vendors[i].VendorName != report.Vendors[j].VendorName {
			return report.Vendors[i].VendorName < report.Vendors[j].VendorName
		}
		return report.Vendors[i].VendorID < report.Vendors[j].VendorID
	})
	return report
}
