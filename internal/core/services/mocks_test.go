package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// fakeTxManager runs fn directly against the mocked repositories.
type fakeTxManager struct {
	repos   portsrepo.RepositoryProvider
	txCount int
}

func (f *fakeTxManager) Repositories() portsrepo.RepositoryProvider { return f.repos }

func (f *fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	f.txCount++
	return fn(ctx, f.repos)
}

// mocks bundles one mock per repository port.
type mocks struct {
	accounts    *MockAccountRepository
	journals    *MockJournalRepository
	numbering   *MockNumberingRepository
	vendors     *MockVendorRepository
	bills       *MockBillRepository
	payments    *MockPaymentRepository
	procurement *MockProcurementReader
	banking     *MockBankingRepository
	periods     *MockPeriodRepository
	recurring   *MockRecurringRepository
	forecasts   *MockForecastWriter
	txm         *fakeTxManager
}

func newMocks() *mocks {
	m := &mocks{
		accounts:    new(MockAccountRepository),
		journals:    new(MockJournalRepository),
		numbering:   new(MockNumberingRepository),
		vendors:     new(MockVendorRepository),
		bills:       new(MockBillRepository),
		payments:    new(MockPaymentRepository),
		procurement: new(MockProcurementReader),
		banking:     new(MockBankingRepository),
		periods:     new(MockPeriodRepository),
		recurring:   new(MockRecurringRepository),
		forecasts:   new(MockForecastWriter),
	}
	m.txm = &fakeTxManager{repos: portsrepo.RepositoryProvider{
		Accounts:    m.accounts,
		Journals:    m.journals,
		Numbering:   m.numbering,
		Vendors:     m.vendors,
		Bills:       m.bills,
		Payments:    m.payments,
		Procurement: m.procurement,
		Banking:     m.banking,
		Periods:     m.periods,
		Recurring:   m.recurring,
		Forecasts:   m.forecasts,
	}}
	return m
}

type asserter interface {
	AssertExpectations(t mock.TestingT) bool
}

func (m *mocks) assertAll(t mock.TestingT) {
	for _, a := range []asserter{m.accounts, m.journals, m.numbering, m.vendors, m.bills, m.payments,
		m.procurement, m.banking, m.periods, m.recurring, m.forecasts} {
		a.AssertExpectations(t)
	}
}

// --- Accounts ---

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, organizationID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, organizationID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, organizationID, code string) (*domain.Account, error) {
	args := m.Called(ctx, organizationID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, organizationID string, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, organizationID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) BalanceAsOf(ctx context.Context, organizationID, accountID string, asOf time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, organizationID, accountID, asOf)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, organizationID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, organizationID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateAccountBalances(ctx context.Context, organizationID string, changes map[string]decimal.Decimal, userID string, now time.Time) error {
	return m.Called(ctx, organizationID, changes, userID, now).Error(0)
}

// --- Journals ---

type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) FindJournalEntryByID(ctx context.Context, organizationID, journalEntryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, organizationID, journalEntryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindJournalEntryForUpdate(ctx context.Context, organizationID, journalEntryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, organizationID, journalEntryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) CountUnpostedInRange(ctx context.Context, organizationID string, from, to time.Time) (int, error) {
	args := m.Called(ctx, organizationID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockJournalRepository) SaveJournalEntry(ctx context.Context, entry domain.JournalEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockJournalRepository) MarkPosted(ctx context.Context, organizationID, journalEntryID, userID string, now time.Time) error {
	return m.Called(ctx, organizationID, journalEntryID, userID, now).Error(0)
}

func (m *MockJournalRepository) SetReversedBy(ctx context.Context, organizationID, journalEntryID, reversalID, userID string, now time.Time) error {
	return m.Called(ctx, organizationID, journalEntryID, reversalID, userID, now).Error(0)
}

func (m *MockJournalRepository) MarkGLEntriesCleared(ctx context.Context, organizationID, accountID string, glEntryIDs []string, at time.Time) (int64, error) {
	args := m.Called(ctx, organizationID, accountID, glEntryIDs, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepository) ListLedgerLines(ctx context.Context, organizationID string, filter domain.LedgerFilter) ([]domain.LedgerLine, error) {
	args := m.Called(ctx, organizationID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerLine), args.Error(1)
}

func (m *MockJournalRepository) OpeningBalances(ctx context.Context, organizationID string, accountID *string, before time.Time) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, organizationID, accountID, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

// --- Numbering ---

type MockNumberingRepository struct {
	mock.Mock
}

func (m *MockNumberingRepository) NextNumber(ctx context.Context, defaults domain.NumberingSeries) (domain.NumberingSeries, int64, error) {
	args := m.Called(ctx, defaults)
	return args.Get(0).(domain.NumberingSeries), args.Get(1).(int64), args.Error(2)
}

// --- Vendors, bills, payments ---

type MockVendorRepository struct {
	mock.Mock
}

func (m *MockVendorRepository) SaveVendor(ctx context.Context, vendor domain.Vendor) error {
	return m.Called(ctx, vendor).Error(0)
}

func (m *MockVendorRepository) FindVendorByID(ctx context.Context, organizationID, vendorID string) (*domain.Vendor, error) {
	args := m.Called(ctx, organizationID, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vendor), args.Error(1)
}

func (m *MockVendorRepository) FindVendorsByIDs(ctx context.Context, organizationID string, vendorIDs []string) (map[string]domain.Vendor, error) {
	args := m.Called(ctx, organizationID, vendorIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Vendor), args.Error(1)
}

type MockBillRepository struct {
	mock.Mock
}

func (m *MockBillRepository) FindBillByID(ctx context.Context, organizationID, billID string) (*domain.VendorBill, error) {
	args := m.Called(ctx, organizationID, billID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VendorBill), args.Error(1)
}

func (m *MockBillRepository) ListOutstandingBills(ctx context.Context, organizationID string, vendorID *string) ([]domain.VendorBill, error) {
	args := m.Called(ctx, organizationID, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorBill), args.Error(1)
}

func (m *MockBillRepository) SaveBill(ctx context.Context, bill domain.VendorBill) error {
	return m.Called(ctx, bill).Error(0)
}

func (m *MockBillRepository) UpdateBillPayment(ctx context.Context, bill domain.VendorBill) error {
	return m.Called(ctx, bill).Error(0)
}

func (m *MockBillRepository) UpdateBillApproval(ctx context.Context, bill domain.VendorBill) error {
	return m.Called(ctx, bill).Error(0)
}

func (m *MockBillRepository) UpdateBillMatching(ctx context.Context, organizationID, billID string, status domain.MatchingStatus, userID string, now time.Time) error {
	return m.Called(ctx, organizationID, billID, status, userID, now).Error(0)
}

func (m *MockBillRepository) SaveThreeWayMatch(ctx context.Context, match domain.ThreeWayMatch) error {
	return m.Called(ctx, match).Error(0)
}

func (m *MockBillRepository) FindBillsForUpdate(ctx context.Context, organizationID string, billIDs []string) (map[string]domain.VendorBill, error) {
	args := m.Called(ctx, organizationID, billIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.VendorBill), args.Error(1)
}

func (m *MockBillRepository) FindOpenBillsByVendorForUpdate(ctx context.Context, organizationID, vendorID string) ([]domain.VendorBill, error) {
	args := m.Called(ctx, organizationID, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorBill), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, payment domain.VendorPayment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, organizationID, paymentID string) (*domain.VendorPayment, error) {
	args := m.Called(ctx, organizationID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VendorPayment), args.Error(1)
}

func (m *MockPaymentRepository) FindPaymentForUpdate(ctx context.Context, organizationID, paymentID string) (*domain.VendorPayment, error) {
	args := m.Called(ctx, organizationID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Each lock returns a fresh copy, like a new SELECT would.
	p := *args.Get(0).(*domain.VendorPayment)
	return &p, args.Error(1)
}

func (m *MockPaymentRepository) UpdatePayment(ctx context.Context, payment domain.VendorPayment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *MockPaymentRepository) SaveAllocations(ctx context.Context, allocations []domain.VendorPaymentAllocation) error {
	return m.Called(ctx, allocations).Error(0)
}

func (m *MockPaymentRepository) ListAllocations(ctx context.Context, organizationID, paymentID string) ([]domain.VendorPaymentAllocation, error) {
	args := m.Called(ctx, organizationID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorPaymentAllocation), args.Error(1)
}

func (m *MockPaymentRepository) ListDueScheduledPayments(ctx context.Context, asOf time.Time) ([]domain.VendorPayment, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorPayment), args.Error(1)
}

func (m *MockPaymentRepository) ListScheduledPayments(ctx context.Context, organizationID string, bankAccountIDs []string, until time.Time) ([]domain.VendorPayment, error) {
	args := m.Called(ctx, organizationID, bankAccountIDs, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorPayment), args.Error(1)
}

type MockProcurementReader struct {
	mock.Mock
}

func (m *MockProcurementReader) FindPurchaseOrderByID(ctx context.Context, organizationID, purchaseOrderID string) (*domain.PurchaseOrder, error) {
	args := m.Called(ctx, organizationID, purchaseOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PurchaseOrder), args.Error(1)
}

func (m *MockProcurementReader) FindGoodsReceiptByID(ctx context.Context, organizationID, receiptID string) (*domain.GoodsReceipt, error) {
	args := m.Called(ctx, organizationID, receiptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GoodsReceipt), args.Error(1)
}

// --- Banking ---

type MockBankingRepository struct {
	mock.Mock
}

func (m *MockBankingRepository) SaveBankAccount(ctx context.Context, account domain.BankAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockBankingRepository) FindBankAccountByID(ctx context.Context, organizationID, bankAccountID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, organizationID, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankingRepository) FindBankAccountForUpdate(ctx context.Context, organizationID, bankAccountID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, organizationID, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankingRepository) ListBankAccounts(ctx context.Context, organizationID string) ([]domain.BankAccount, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BankAccount), args.Error(1)
}

func (m *MockBankingRepository) UpdateReconciledState(ctx context.Context, account domain.BankAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockBankingRepository) InsertBankTransaction(ctx context.Context, txn domain.BankTransaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}

func (m *MockBankingRepository) MarkBankTransactionsCleared(ctx context.Context, organizationID, bankAccountID string, ids []string, at time.Time) (int64, error) {
	args := m.Called(ctx, organizationID, bankAccountID, ids, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBankingRepository) UnreconciledSummary(ctx context.Context, organizationID, bankAccountID string) (int, decimal.Decimal, error) {
	args := m.Called(ctx, organizationID, bankAccountID)
	return args.Int(0), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockBankingRepository) SaveReconciliation(ctx context.Context, rec domain.BankReconciliation) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *MockBankingRepository) FindLatestReconciliation(ctx context.Context, organizationID, bankAccountID string) (*domain.BankReconciliation, error) {
	args := m.Called(ctx, organizationID, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankReconciliation), args.Error(1)
}

type MockForecastWriter struct {
	mock.Mock
}

func (m *MockForecastWriter) SaveForecast(ctx context.Context, forecast domain.CashFlowForecast) error {
	return m.Called(ctx, forecast).Error(0)
}

// --- Periods and recurrence ---

type MockPeriodRepository struct {
	mock.Mock
}

func (m *MockPeriodRepository) SaveFiscalYear(ctx context.Context, year domain.FiscalYear) error {
	return m.Called(ctx, year).Error(0)
}

func (m *MockPeriodRepository) CountOverlappingFiscalYears(ctx context.Context, organizationID string, start, end time.Time) (int, error) {
	args := m.Called(ctx, organizationID, start, end)
	return args.Int(0), args.Error(1)
}

func (m *MockPeriodRepository) FindPeriodForUpdate(ctx context.Context, organizationID, periodID string) (*domain.FiscalPeriod, error) {
	args := m.Called(ctx, organizationID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindPeriodByDate(ctx context.Context, organizationID string, date time.Time) (*domain.FiscalPeriod, error) {
	args := m.Called(ctx, organizationID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalPeriod), args.Error(1)
}

func (m *MockPeriodRepository) ClosePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	return m.Called(ctx, period).Error(0)
}

type MockRecurringRepository struct {
	mock.Mock
}

func (m *MockRecurringRepository) SaveTemplate(ctx context.Context, template domain.JournalTemplate) error {
	return m.Called(ctx, template).Error(0)
}

func (m *MockRecurringRepository) FindTemplateByID(ctx context.Context, organizationID, templateID string) (*domain.JournalTemplate, error) {
	args := m.Called(ctx, organizationID, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalTemplate), args.Error(1)
}

func (m *MockRecurringRepository) SaveRecurringEntry(ctx context.Context, entry domain.RecurringEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockRecurringRepository) ListDueRecurringEntries(ctx context.Context, organizationID string, asOf time.Time) ([]domain.RecurringEntry, error) {
	args := m.Called(ctx, organizationID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RecurringEntry), args.Error(1)
}

func (m *MockRecurringRepository) FindRecurringEntryForUpdate(ctx context.Context, organizationID, recurringEntryID string) (*domain.RecurringEntry, error) {
	args := m.Called(ctx, organizationID, recurringEntryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	e := *args.Get(0).(*domain.RecurringEntry)
	return &e, args.Error(1)
}

func (m *MockRecurringRepository) UpdateRecurringSchedule(ctx context.Context, entry domain.RecurringEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockRecurringRepository) ListOrganizationsWithDueEntries(ctx context.Context, asOf time.Time) ([]string, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- Service collaborators ---

type MockJournalPoster struct {
	mock.Mock
}

func (m *MockJournalPoster) PostInTx(ctx context.Context, repos portsrepo.RepositoryProvider, req portssvc.PostingRequest) (*domain.JournalEntry, error) {
	args := m.Called(ctx, repos, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

type MockNumberingSvc struct {
	mock.Mock
}

func (m *MockNumberingSvc) Next(ctx context.Context, organizationID string, kind domain.SeriesKind) (string, error) {
	args := m.Called(ctx, organizationID, kind)
	return args.String(0), args.Error(1)
}

func (m *MockNumberingSvc) NextInTx(ctx context.Context, repos portsrepo.RepositoryProvider, organizationID string, kind domain.SeriesKind) (string, error) {
	args := m.Called(ctx, repos, organizationID, kind)
	return args.String(0), args.Error(1)
}

type MockAuditor struct {
	mock.Mock
}

func (m *MockAuditor) LogAudit(ctx context.Context, entry domain.AuditEntry) error {
	return m.Called(ctx, entry).Error(0)
}

type MockSettlementGateway struct {
	mock.Mock
}

func (m *MockSettlementGateway) Settle(ctx context.Context, payment domain.VendorPayment) error {
	return m.Called(ctx, payment).Error(0)
}

var (
	_ portsrepo.AccountRepositoryFacade   = (*MockAccountRepository)(nil)
	_ portsrepo.JournalRepositoryFacade   = (*MockJournalRepository)(nil)
	_ portsrepo.NumberingRepository       = (*MockNumberingRepository)(nil)
	_ portsrepo.VendorRepositoryFacade    = (*MockVendorRepository)(nil)
	_ portsrepo.BillRepositoryFacade      = (*MockBillRepository)(nil)
	_ portsrepo.PaymentRepositoryFacade   = (*MockPaymentRepository)(nil)
	_ portsrepo.ProcurementReader         = (*MockProcurementReader)(nil)
	_ portsrepo.BankingRepositoryFacade   = (*MockBankingRepository)(nil)
	_ portsrepo.ForecastWriter            = (*MockForecastWriter)(nil)
	_ portsrepo.PeriodRepositoryFacade    = (*MockPeriodRepository)(nil)
	_ portsrepo.RecurringRepositoryFacade = (*MockRecurringRepository)(nil)
	_ portsrepo.TransactionManager        = (*fakeTxManager)(nil)
	_ portssvc.JournalPoster              = (*MockJournalPoster)(nil)
	_ portssvc.NumberingSvc               = (*MockNumberingSvc)(nil)
	_ portssvc.AuditService               = (*MockAuditor)(nil)
	_ portssvc.SettlementGateway          = (*MockSettlementGateway)(nil)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fixedNow = time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
