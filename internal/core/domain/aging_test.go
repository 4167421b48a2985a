package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketFor(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 15, 4, 0, 0, time.UTC)
	tests := []struct {
		daysAgo int
		want    domain.AgingBucket
	}{
		{-10, domain.BucketCurrent},
		{0, domain.BucketCurrent},
		{1, domain.BucketDays30},
		{30, domain.BucketDays30},
		{31, domain.BucketDays60},
		{45, domain.BucketDays60},
		{60, domain.BucketDays60},
		{61, domain.BucketDays90},
		{90, domain.BucketDays90},
		{91, domain.BucketOver90},
	}
	for _, tt := range tests {
		due := asOf.AddDate(0, 0, -tt.daysAgo)
		days := domain.DaysOverdue(due, asOf)
		assert.Equal(t, tt.want, domain.BucketFor(days), "due %d days before as-of", tt.daysAgo)
	}
}

func TestDaysOverdue_IgnoresTimeOfDay(t *testing.T) {
	due := time.Date(2026, 6, 1, 23, 59, 0, 0, time.UTC)
	asOf := time.Date(2026, 6, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, domain.DaysOverdue(due, asOf))
	assert.Equal(t, 0, domain.DaysOverdue(asOf, due))
}

func TestBuildAgingReport(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	b1 := approvedBill("1", "100", asOf.AddDate(0, 0, 5))
	b1.VendorID = "v-acme"
	b2 := approvedBill("2", "200", asOf.AddDate(0, 0, -45))
	b2.VendorID = "v-acme"
	b3 := approvedBill("3", "50", asOf.AddDate(0, 0, -120))
	b3.VendorID = "v-zeta"
	paid := approvedBill("4", "999", asOf.AddDate(0, 0, -200))
	paid.VendorID = "v-zeta"
	paid.OutstandingAmount = dec("0")

	report := domain.BuildAgingReport(asOf, []domain.VendorBill{b1, b2, b3, paid}, map[string]string{
		"v-acme": "Acme",
		"v-zeta": "Zeta",
	})

	require.Len(t, report.Vendors, 2)
	acme := report.Vendors[0]
	assert.Equal(t, "Acme", acme.VendorName)
	assert.True(t, acme.Totals.Current.Equal(dec("100")))
	assert.True(t, acme.Totals.Days60.Equal(dec("200")))
	assert.True(t, acme.Totals.Total.Equal(dec("300")))

	zeta := report.Vendors[1]
	require.Len(t, zeta.Bills, 1, "fully paid bills are excluded")
	assert.True(t, zeta.Totals.Over90.Equal(dec("50")))

	assert.True(t, report.Totals.Total.Equal(dec("350")))
}
