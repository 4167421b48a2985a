package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/handlers"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	accounts  *MockAccountService
	journals  *MockJournalService
	payments  *MockPaymentService
	banking   *MockBankingService
	jwtSecret string
}

// generateTestToken creates a signed JWT for userID.
func (suite *HandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "ledger-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.accounts = new(MockAccountService)
	suite.journals = new(MockJournalService)
	suite.payments = new(MockPaymentService)
	suite.banking = new(MockBankingService)

	cfg := &config.Config{JWTSecret: suite.jwtSecret, IsProduction: true}
	handlers.RegisterRoutes(suite.router, cfg, &portssvc.ServiceContainer{
		Account:  suite.accounts,
		Journal:  suite.journals,
		Payments: suite.payments,
		Banking:  suite.banking,
	})
}

func (suite *HandlerTestSuite) do(method, url, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken("user-1"))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) doJSON(method, url, body string) *httptest.ResponseRecorder {
	return suite.do(method, url, "application/json", bytes.NewBufferString(body))
}

func (suite *HandlerTestSuite) errorMessage(w *httptest.ResponseRecorder) string {
	var body map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func (suite *HandlerTestSuite) TestMissingToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/organizations/org-1/accounts", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.accounts.AssertNotCalled(suite.T(), "ListAccounts", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestCreateAccount_Success() {
	suite.accounts.On("CreateAccount", mock.Anything, "org-1", mock.MatchedBy(func(r dto.CreateAccountRequest) bool {
		return r.Code == "1000" && r.AccountType == domain.Asset
	}), "user-1").Return(&domain.Account{AccountID: "acc-1", Code: "1000", Name: "Cash", AccountType: domain.Asset, IsActive: true}, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/organizations/org-1/accounts", `{"code":"1000","name":"Cash","accountType":"ASSET"}`)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("acc-1", resp.AccountID)
	suite.accounts.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestCreateAccount_InvalidType() {
	w := suite.doJSON(http.MethodPost, "/api/v1/organizations/org-1/accounts", `{"code":"1000","name":"Cash","accountType":"CASH"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.accounts.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestCreateAccount_DuplicateCode() {
	suite.accounts.On("CreateAccount", mock.Anything, "org-1", mock.Anything, "user-1").
		Return(nil, apperrors.ErrDuplicate).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/organizations/org-1/accounts", `{"code":"1000","name":"Cash","accountType":"ASSET"}`)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestGetAccount_NotFound() {
	suite.accounts.On("GetAccountByID", mock.Anything, "org-1", "missing").Return(nil, apperrors.ErrNotFound).Once()

	w := suite.do(http.MethodGet, "/api/v1/organizations/org-1/accounts/missing", "", nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *HandlerTestSuite) TestGetAccount_InternalErrorHidesCause() {
	suite.accounts.On("GetAccountByID", mock.Anything, "org-1", "acc-1").
		Return(nil, apperrors.NewAppError(500, "query failed", errors.New("conn reset by peer"))).Once()

	w := suite.do(http.MethodGet, "/api/v1/organizations/org-1/accounts/acc-1", "", nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.Equal("Failed to retrieve account", suite.errorMessage(w))
}

func (suite *HandlerTestSuite) TestListAccounts_DefaultPaging() {
	suite.accounts.On("ListAccounts", mock.Anything, "org-1", dto.ListAccountsParams{Limit: 50, Offset: 0}).
		Return([]domain.Account{{AccountID: "acc-1"}, {AccountID: "acc-2"}}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/organizations/org-1/accounts", "", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp []dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp, 2)
}

func (suite *HandlerTestSuite) TestPostJournal_NegativeAmountRejectedByBinding() {
	body := `{"postingDate":"2026-06-01T00:00:00Z","lines":[{"accountID":"cash","debit":"-5","credit":"0"},{"accountID":"rev","debit":"0","credit":"-5"}]}`

	w := suite.doJSON(http.MethodPost, "/api/v1/organizations/org-1/journal-entries", body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.journals.AssertNotCalled(suite.T(), "PostJournal", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestPostJournal_Unbalanced() {
	suite.journals.On("PostJournal", mock.Anything, "org-1", mock.MatchedBy(func(r dto.PostJournalRequest) bool {
		return len(r.Lines) == 2 && r.Lines[0].Debit.Equal(decimal.NewFromInt(100))
	}), "user-1").Return(nil, domain.ErrBalanceMismatch).Once()
	body := `{"postingDate":"2026-06-01T00:00:00Z","lines":[{"accountID":"cash","debit":"100","credit":"0"},{"accountID":"rev","debit":"0","credit":"90"}]}`

	w := suite.doJSON(http.MethodPost, "/api/v1/organizations/org-1/journal-entries", body)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Contains(suite.errorMessage(w), "total debits do not equal total credits")
	suite.journals.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestPostJournal_Success() {
	suite.journals.On("PostJournal", mock.Anything, "org-1", mock.AnythingOfType("dto.PostJournalRequest"), "user-1").
		Return(&domain.JournalEntry{JournalEntryID: "je-1", EntryNumber: "JE-000001", IsPosted: true}, nil).Once()
	body := `{"postingDate":"2026-06-01T00:00:00Z","lines":[{"accountID":"cash","debit":"100","credit":"0"},{"accountID":"rev","debit":"0","credit":"100"}]}`

	w := suite.doJSON(http.MethodPost, "/api/v1/organizations/org-1/journal-entries", body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.JournalEntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("JE-000001", resp.EntryNumber)
	suite.True(resp.IsPosted)
}

func (suite *HandlerTestSuite) TestReverseJournal_AlreadyReversed() {
	suite.journals.On("ReverseJournal", mock.Anything, "org-1", "je-1", mock.AnythingOfType("dto.ReverseJournalRequest"), "user-1").
		Return(nil, domain.ErrJournalAlreadyReverse).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/organizations/org-1/journal-entries/je-1/reverse", `{"reverseDate":"2026-06-02T00:00:00Z"}`)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestGeneralLedger_InvalidDate() {
	w := suite.do(http.MethodGet, "/api/v1/organizations/org-1/reports/general-ledger?fromDate=06/01/2026", "", nil)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.journals.AssertNotCalled(suite.T(), "GeneralLedgerReport", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestRecordPayment_ZeroAmountRejected() {
	body := `{"vendorID":"v-1","bankAccountID":"bank-1","amount":"0","paymentDate":"2026-06-01T00:00:00Z"}`

	w := suite.doJSON(http.MethodPost, "/api/v1/organizations/org-1/payments", body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.payments.AssertNotCalled(suite.T(), "RecordPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestAllocatePayment_ExceedsOutstanding() {
	suite.payments.On("AllocatePayment", mock.Anything, "org-1", "pay-1", mock.AnythingOfType("dto.AllocatePaymentRequest"), "user-1").
		Return(nil, domain.ErrAllocationExceedsOutstanding).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/organizations/org-1/payments/pay-1/allocations", `{"allocations":[{"billID":"b-1","amount":"500"}]}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(suite.errorMessage(w), "allocation exceeds bill outstanding amount")
}

func (suite *HandlerTestSuite) TestUploadStatement_CSV() {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "june.csv")
	suite.Require().NoError(err)
	_, err = part.Write([]byte("date,amount,description,reference\n2026-06-01,-42.50,Coffee,R1\n"))
	suite.Require().NoError(err)
	suite.Require().NoError(writer.WriteField("format", "csv"))
	suite.Require().NoError(writer.Close())

	suite.banking.On("ImportStatementFile", mock.Anything, "org-1", "bank-1", "csv", mock.Anything, "user-1").
		Return(&domain.ImportResult{Imported: 1}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/organizations/org-1/bank-accounts/bank-1/statements/upload", writer.FormDataContentType(), &body)

	suite.Equal(http.StatusOK, w.Code)
	var resp domain.ImportResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(1, resp.Imported)
	suite.banking.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestUploadStatement_MissingFile() {
	w := suite.do(http.MethodPost, "/api/v1/organizations/org-1/bank-accounts/bank-1/statements/upload", "multipart/form-data; boundary=x", bytes.NewBufferString("--x--\r\n"))

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.True(strings.Contains(suite.errorMessage(w), "Statement file is required"))
}

func (suite *HandlerTestSuite) TestProcessScheduledPayments_UsesRequestedDate() {
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	suite.payments.On("ProcessScheduledPayments", mock.Anything, asOf).
		Return(domain.BatchResult{Processed: 2, Succeeded: 2}, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/batch/scheduled-payments", `{"asOfDate":"2026-06-30T15:04:05Z"}`)

	suite.Equal(http.StatusOK, w.Code)
	var resp domain.BatchResult
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(2, resp.Succeeded)
	suite.payments.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestBatchRuns_RejectFutureAsOfDate() {
	future := time.Now().UTC().AddDate(0, 0, 2).Format(time.RFC3339)
	body := `{"asOfDate":"` + future + `"}`

	urls := []string{
		"/api/v1/batch/scheduled-payments",
		"/api/v1/batch/recurring-entries",
		"/api/v1/organizations/org-1/recurring-entries/run",
	}
	for _, url := range urls {
		w := suite.doJSON(http.MethodPost, url, body)

		suite.Equal(http.StatusBadRequest, w.Code, url)
		suite.Contains(suite.errorMessage(w), "after today", url)
	}
	suite.payments.AssertNotCalled(suite.T(), "ProcessScheduledPayments", mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestProcessScheduledPayments_DefaultsToTodayUTC() {
	today := domain.DateOnly(time.Now().UTC())
	suite.payments.On("ProcessScheduledPayments", mock.Anything, mock.MatchedBy(func(asOf time.Time) bool {
		// tolerate a run that crosses midnight
		return asOf.Equal(today) || asOf.Equal(today.AddDate(0, 0, 1))
	})).Return(domain.BatchResult{}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/batch/scheduled-payments", "application/json", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.payments.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestHealth() {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
