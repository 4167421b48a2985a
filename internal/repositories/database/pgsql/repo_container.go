package pgsql

import (
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

// newRepositoryProvider binds every repository to db, which is either the
// pool or an open transaction.
func newRepositoryProvider(db Querier) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Accounts:    newPgxAccountRepository(db),
		Journals:    newPgxJournalRepository(db),
		Numbering:   newPgxNumberingRepository(db),
		Vendors:     newPgxVendorRepository(db),
		Bills:       newPgxBillRepository(db),
		Payments:    newPgxPaymentRepository(db),
		Procurement: newPgxProcurementRepository(db),
		Banking:     newPgxBankingRepository(db),
		Periods:     newPgxPeriodRepository(db),
		Recurring:   newPgxRecurringRepository(db),
		Forecasts:   newPgxForecastRepository(db),
	}
}
