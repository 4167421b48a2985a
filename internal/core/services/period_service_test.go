package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/core/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type PeriodServiceTestSuite struct {
	suite.Suite
	mocks   *mocks
	poster  *MockJournalPoster
	service portssvc.PeriodSvcFacade
	ctx     context.Context
	period  *domain.FiscalPeriod
}

func (suite *PeriodServiceTestSuite) SetupTest() {
	suite.mocks = newMocks()
	suite.poster = new(MockJournalPoster)
	suite.service = services.NewPeriodService(suite.mocks.txm, suite.poster, services.WithClock(fixedClock))
	suite.ctx = context.Background()
	suite.period = &domain.FiscalPeriod{
		FiscalPeriodID: "fp-5",
		OrganizationID: "org-1",
		Name:           "FY26-P05",
		StartDate:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *PeriodServiceTestSuite) TestCreateFiscalYear_GeneratesPeriods() {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	suite.mocks.periods.On("CountOverlappingFiscalYears", suite.ctx, "org-1", start, end).Return(0, nil).Once()
	suite.mocks.periods.On("SaveFiscalYear", suite.ctx, mock.MatchedBy(func(y domain.FiscalYear) bool {
		return len(y.Periods) == 4 && y.Periods[3].FiscalYearID == y.FiscalYearID
	})).Return(nil).Once()

	year, err := suite.service.CreateFiscalYear(suite.ctx, "org-1", dto.CreateFiscalYearRequest{
		Name: "FY26", StartDate: start, EndDate: end, PeriodType: domain.PeriodQuarterly,
	}, "user-1")

	suite.Require().NoError(err)
	suite.Require().Len(year.Periods, 4)
	suite.Equal("FY26-Q01", year.Periods[0].Name)
	suite.Equal(end, year.Periods[3].EndDate)
	suite.mocks.assertAll(suite.T())
}

func (suite *PeriodServiceTestSuite) TestCreateFiscalYear_Overlap() {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	suite.mocks.periods.On("CountOverlappingFiscalYears", suite.ctx, "org-1", start, end).Return(1, nil).Once()

	_, err := suite.service.CreateFiscalYear(suite.ctx, "org-1", dto.CreateFiscalYearRequest{
		Name: "FY26", StartDate: start, EndDate: end, PeriodType: domain.PeriodMonthly,
	}, "user-1")

	suite.ErrorIs(err, domain.ErrFiscalYearOverlap)
	suite.mocks.periods.AssertNotCalled(suite.T(), "SaveFiscalYear", mock.Anything, mock.Anything)
}

func (suite *PeriodServiceTestSuite) TestClosePeriod_BlockedByUnpostedEntries() {
	suite.mocks.periods.On("FindPeriodForUpdate", suite.ctx, "org-1", "fp-5").Return(suite.period, nil).Once()
	suite.mocks.journals.On("CountUnpostedInRange", suite.ctx, "org-1", suite.period.StartDate, suite.period.EndDate).Return(2, nil).Once()

	_, err := suite.service.ClosePeriod(suite.ctx, "org-1", "fp-5", dto.ClosePeriodRequest{}, "user-1")

	suite.ErrorIs(err, domain.ErrUnpostedEntries)
	suite.False(suite.period.IsClosed)
	suite.mocks.periods.AssertNotCalled(suite.T(), "ClosePeriod", mock.Anything, mock.Anything)
}

func (suite *PeriodServiceTestSuite) TestClosePeriod_AlreadyClosed() {
	closed := *suite.period
	closed.IsClosed = true
	suite.mocks.periods.On("FindPeriodForUpdate", suite.ctx, "org-1", "fp-5").Return(&closed, nil).Once()

	_, err := suite.service.ClosePeriod(suite.ctx, "org-1", "fp-5", dto.ClosePeriodRequest{}, "user-1")

	suite.ErrorIs(err, domain.ErrPeriodAlreadyClosed)
}

func (suite *PeriodServiceTestSuite) TestClosePeriod_PostsClosingEntries() {
	suite.mocks.periods.On("FindPeriodForUpdate", suite.ctx, "org-1", "fp-5").Return(suite.period, nil).Once()
	suite.mocks.journals.On("CountUnpostedInRange", suite.ctx, "org-1", suite.period.StartDate, suite.period.EndDate).Return(0, nil).Once()
	suite.poster.On("PostInTx", suite.ctx, mock.Anything, mock.MatchedBy(func(req portssvc.PostingRequest) bool {
		return req.Source == domain.SourceClosing && req.Series == domain.SeriesClosing &&
			req.PostingDate.Equal(suite.period.EndDate) && req.Reference == "CLOSING-FY26-P05"
	})).Return(&domain.JournalEntry{JournalEntryID: "je-close"}, nil).Once()
	suite.mocks.periods.On("ClosePeriod", suite.ctx, mock.MatchedBy(func(p domain.FiscalPeriod) bool {
		return p.IsClosed && p.ClosingEntryID != nil && *p.ClosingEntryID == "je-close" && *p.ClosedBy == "user-1"
	})).Return(nil).Once()

	period, err := suite.service.ClosePeriod(suite.ctx, "org-1", "fp-5", dto.ClosePeriodRequest{
		ClosingLines: []dto.JournalLineRequest{
			{AccountID: "revenue", Debit: dec("900"), Credit: decimal.Zero},
			{AccountID: "retained", Debit: decimal.Zero, Credit: dec("900")},
		},
	}, "user-1")

	suite.Require().NoError(err)
	suite.True(period.IsClosed)
	suite.Equal(fixedNow, *period.ClosedAt)
	suite.mocks.assertAll(suite.T())
	suite.poster.AssertExpectations(suite.T())
}

func (suite *PeriodServiceTestSuite) TestClosePeriod_UnbalancedClosingLines() {
	_, err := suite.service.ClosePeriod(suite.ctx, "org-1", "fp-5", dto.ClosePeriodRequest{
		ClosingLines: []dto.JournalLineRequest{
			{AccountID: "revenue", Debit: dec("900"), Credit: decimal.Zero},
			{AccountID: "retained", Debit: decimal.Zero, Credit: dec("899.5")},
		},
	}, "user-1")

	suite.ErrorIs(err, domain.ErrClosingEntriesUnbalanced)
	suite.mocks.periods.AssertNotCalled(suite.T(), "FindPeriodForUpdate", mock.Anything, mock.Anything, mock.Anything)
}

func TestPeriodServiceSuite(t *testing.T) {
	suite.Run(t, new(PeriodServiceTestSuite))
}
