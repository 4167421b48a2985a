package services

// ServiceContainer holds instances of all the application services.
// It is the main entry point for handlers, the scheduler and the CLI.
type ServiceContainer struct {
	Account   AccountSvcFacade
	Numbering NumberingSvc
	Journal   JournalSvcFacade
	Payables  PayablesSvcFacade
	Payments  PaymentSvcFacade
	Banking   BankingSvcFacade
	Periods   PeriodSvcFacade
	Recurring RecurringSvcFacade
}
