package handlers_test

import (
	"context"
	"io"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountService ---
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, organizationID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, organizationID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, organizationID string, params dto.ListAccountsParams) ([]domain.Account, error) {
	args := m.Called(ctx, organizationID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) CreateAccount(ctx context.Context, organizationID string, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, organizationID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

// --- Mock JournalService ---
type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) entry(args mock.Arguments) (*domain.JournalEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalService) PostInTx(ctx context.Context, repos portsrepo.RepositoryProvider, req portssvc.PostingRequest) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, repos, req))
}

func (m *MockJournalService) GetJournalEntry(ctx context.Context, organizationID, journalEntryID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, organizationID, journalEntryID))
}

func (m *MockJournalService) GeneralLedgerReport(ctx context.Context, organizationID string, filter domain.LedgerFilter) (*domain.GeneralLedgerReport, error) {
	args := m.Called(ctx, organizationID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeneralLedgerReport), args.Error(1)
}

func (m *MockJournalService) PostJournal(ctx context.Context, organizationID string, req dto.PostJournalRequest, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, organizationID, req, userID))
}

func (m *MockJournalService) DraftJournal(ctx context.Context, organizationID string, req dto.PostJournalRequest, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, organizationID, req, userID))
}

func (m *MockJournalService) PostDraft(ctx context.Context, organizationID, journalEntryID, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, organizationID, journalEntryID, userID))
}

func (m *MockJournalService) ReverseJournal(ctx context.Context, organizationID, journalEntryID string, req dto.ReverseJournalRequest, userID string) (*domain.JournalEntry, error) {
	return m.entry(m.Called(ctx, organizationID, journalEntryID, req, userID))
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

// --- Mock PaymentService ---
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) RecordPayment(ctx context.Context, organizationID string, req dto.RecordPaymentRequest, userID string) (*dto.PaymentResponse, error) {
	args := m.Called(ctx, organizationID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaymentResponse), args.Error(1)
}

func (m *MockPaymentService) AllocatePayment(ctx context.Context, organizationID, paymentID string, req dto.AllocatePaymentRequest, userID string) ([]domain.VendorPaymentAllocation, error) {
	args := m.Called(ctx, organizationID, paymentID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorPaymentAllocation), args.Error(1)
}

func (m *MockPaymentService) AutoAllocatePayment(ctx context.Context, organizationID, paymentID, userID string) ([]domain.VendorPaymentAllocation, error) {
	args := m.Called(ctx, organizationID, paymentID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorPaymentAllocation), args.Error(1)
}

func (m *MockPaymentService) ProcessScheduledPayments(ctx context.Context, asOf time.Time) (domain.BatchResult, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(domain.BatchResult), args.Error(1)
}

var _ portssvc.PaymentSvcFacade = (*MockPaymentService)(nil)

// --- Mock BankingService ---
type MockBankingService struct {
	mock.Mock
}

func (m *MockBankingService) CreateBankAccount(ctx context.Context, organizationID string, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, organizationID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankingService) GetBankAccount(ctx context.Context, organizationID, bankAccountID string) (*domain.BankAccount, error) {
	args := m.Called(ctx, organizationID, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankAccount), args.Error(1)
}

func (m *MockBankingService) ImportStatement(ctx context.Context, organizationID, bankAccountID string, rows []domain.NormalizedTransaction, userID string) (*domain.ImportResult, error) {
	args := m.Called(ctx, organizationID, bankAccountID, rows, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportResult), args.Error(1)
}

func (m *MockBankingService) ImportStatementFile(ctx context.Context, organizationID, bankAccountID, format string, r io.Reader, userID string) (*domain.ImportResult, error) {
	args := m.Called(ctx, organizationID, bankAccountID, format, r, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ImportResult), args.Error(1)
}

func (m *MockBankingService) Reconcile(ctx context.Context, organizationID, bankAccountID string, req dto.ReconcileRequest, userID string) (*domain.BankReconciliation, error) {
	args := m.Called(ctx, organizationID, bankAccountID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BankReconciliation), args.Error(1)
}

func (m *MockBankingService) ReconciliationSummary(ctx context.Context, organizationID, bankAccountID string) (*domain.ReconciliationSummary, error) {
	args := m.Called(ctx, organizationID, bankAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationSummary), args.Error(1)
}

func (m *MockBankingService) CreateCashFlowForecast(ctx context.Context, organizationID string, req dto.CreateForecastRequest, userID string) (*domain.CashFlowForecast, error) {
	args := m.Called(ctx, organizationID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashFlowForecast), args.Error(1)
}

var _ portssvc.BankingSvcFacade = (*MockBankingService)(nil)
