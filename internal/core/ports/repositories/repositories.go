package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// A provider is either pool-bound or bound to one transaction.
type RepositoryProvider struct {
	Accounts    AccountRepositoryFacade
	Journals    JournalRepositoryFacade
	Numbering   NumberingRepository
	Vendors     VendorRepositoryFacade
	Bills       BillRepositoryFacade
	Payments    PaymentRepositoryFacade
	Procurement ProcurementReader
	Banking     BankingRepositoryFacade
	Periods     PeriodRepositoryFacade
	Recurring   RecurringRepositoryFacade
	Forecasts   ForecastWriter
}
