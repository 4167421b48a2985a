package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/core/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type RecurringServiceTestSuite struct {
	suite.Suite
	mocks    *mocks
	poster   *MockJournalPoster
	service  portssvc.RecurringSvcFacade
	ctx      context.Context
	template *domain.JournalTemplate
	asOf     time.Time
}

func (suite *RecurringServiceTestSuite) SetupTest() {
	suite.mocks = newMocks()
	suite.poster = new(MockJournalPoster)
	suite.service = services.NewRecurringService(suite.mocks.txm, suite.poster, services.WithClock(fixedClock))
	suite.ctx = context.Background()
	suite.asOf = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	suite.template = &domain.JournalTemplate{
		TemplateID: "tpl-1",
		Name:       "Rent",
		Lines: []domain.TemplateLine{
			{AccountID: "rent", DebitFormula: "1500.00"},
			{AccountID: "cash", CreditFormula: "1500.00"},
		},
	}
}

func (suite *RecurringServiceTestSuite) TestCreateJournalTemplate_RejectsUnbalanced() {
	_, err := suite.service.CreateJournalTemplate(suite.ctx, "org-1", dto.CreateJournalTemplateRequest{
		Name: "Rent",
		Lines: []dto.TemplateLineRequest{
			{AccountID: "rent", DebitFormula: "1500"},
			{AccountID: "cash", CreditFormula: "1400"},
		},
	}, "user-1")

	suite.ErrorIs(err, domain.ErrBalanceMismatch)
	suite.mocks.recurring.AssertNotCalled(suite.T(), "SaveTemplate", mock.Anything, mock.Anything)
}

func (suite *RecurringServiceTestSuite) TestCreateJournalTemplate_RejectsBadFormula() {
	_, err := suite.service.CreateJournalTemplate(suite.ctx, "org-1", dto.CreateJournalTemplateRequest{
		Name:  "Rent",
		Lines: []dto.TemplateLineRequest{{AccountID: "rent", DebitFormula: "rate * 2"}},
	}, "user-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RecurringServiceTestSuite) TestCreateRecurringEntry_StartsAtStartDate() {
	start := time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)
	suite.mocks.recurring.On("FindTemplateByID", suite.ctx, "org-1", "tpl-1").Return(suite.template, nil).Once()
	suite.mocks.recurring.On("SaveRecurringEntry", suite.ctx, mock.AnythingOfType("domain.RecurringEntry")).Return(nil).Once()

	entry, err := suite.service.CreateRecurringEntry(suite.ctx, "org-1", dto.CreateRecurringEntryRequest{
		TemplateID: "tpl-1", Name: "Monthly rent", Frequency: domain.FrequencyMonthly, StartDate: start,
	}, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.DateOnly(start), entry.NextRunDate)
	suite.True(entry.IsActive)
}

func (suite *RecurringServiceTestSuite) TestCreateRecurringEntry_EndBeforeStart() {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)

	_, err := suite.service.CreateRecurringEntry(suite.ctx, "org-1", dto.CreateRecurringEntryRequest{
		TemplateID: "tpl-1", Name: "Monthly rent", Frequency: domain.FrequencyMonthly, StartDate: start, EndDate: &end,
	}, "user-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *RecurringServiceTestSuite) TestProcessRecurringEntries_AdvancesSchedule() {
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	due := domain.RecurringEntry{
		RecurringEntryID: "re-1",
		OrganizationID:   "org-1",
		TemplateID:       "tpl-1",
		Name:             "Monthly rent",
		Frequency:        domain.FrequencyMonthly,
		NextRunDate:      time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          &end,
		IsActive:         true,
	}
	suite.mocks.recurring.On("ListDueRecurringEntries", suite.ctx, "org-1", suite.asOf).Return([]domain.RecurringEntry{due}, nil).Once()
	suite.mocks.recurring.On("FindRecurringEntryForUpdate", suite.ctx, "org-1", "re-1").Return(&due, nil).Once()
	suite.mocks.recurring.On("FindTemplateByID", suite.ctx, "org-1", "tpl-1").Return(suite.template, nil).Once()
	suite.poster.On("PostInTx", suite.ctx, mock.Anything, mock.MatchedBy(func(req portssvc.PostingRequest) bool {
		return req.Source == domain.SourceRecurring && req.UserID == domain.SystemUserID &&
			req.PostingDate.Equal(due.NextRunDate) && len(req.Lines) == 2
	})).Return(&domain.JournalEntry{JournalEntryID: "je-rent"}, nil).Once()
	suite.mocks.recurring.On("UpdateRecurringSchedule", suite.ctx, mock.MatchedBy(func(e domain.RecurringEntry) bool {
		return e.NextRunDate.Equal(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)) &&
			e.LastRunDate != nil && !e.IsActive
	})).Return(nil).Once()

	result, err := suite.service.ProcessRecurringEntries(suite.ctx, "org-1", suite.asOf)

	suite.Require().NoError(err)
	suite.Equal(1, result.Succeeded)
	suite.Equal(0, result.Failed)
	suite.mocks.assertAll(suite.T())
	suite.poster.AssertExpectations(suite.T())
}

func (suite *RecurringServiceTestSuite) TestProcessRecurringEntries_FailureDoesNotStopBatch() {
	first := domain.RecurringEntry{RecurringEntryID: "re-1", TemplateID: "tpl-missing", Frequency: domain.FrequencyMonthly,
		NextRunDate: suite.asOf, IsActive: true}
	second := domain.RecurringEntry{RecurringEntryID: "re-2", TemplateID: "tpl-1", Name: "Rent", Frequency: domain.FrequencyMonthly,
		NextRunDate: suite.asOf, IsActive: true}
	suite.mocks.recurring.On("ListDueRecurringEntries", suite.ctx, "org-1", suite.asOf).Return([]domain.RecurringEntry{first, second}, nil).Once()
	suite.mocks.recurring.On("FindRecurringEntryForUpdate", suite.ctx, "org-1", "re-1").Return(&first, nil).Once()
	suite.mocks.recurring.On("FindTemplateByID", suite.ctx, "org-1", "tpl-missing").Return(nil, apperrors.ErrNotFound).Once()
	suite.mocks.recurring.On("FindRecurringEntryForUpdate", suite.ctx, "org-1", "re-2").Return(&second, nil).Once()
	suite.mocks.recurring.On("FindTemplateByID", suite.ctx, "org-1", "tpl-1").Return(suite.template, nil).Once()
	suite.poster.On("PostInTx", suite.ctx, mock.Anything, mock.AnythingOfType("services.PostingRequest")).
		Return(&domain.JournalEntry{JournalEntryID: "je-2"}, nil).Once()
	suite.mocks.recurring.On("UpdateRecurringSchedule", suite.ctx, mock.AnythingOfType("domain.RecurringEntry")).Return(nil).Once()

	result, err := suite.service.ProcessRecurringEntries(suite.ctx, "org-1", suite.asOf)

	suite.Require().NoError(err)
	suite.Equal(2, result.Processed)
	suite.Equal(1, result.Succeeded)
	suite.Equal(1, result.Failed)
	suite.Equal("re-1", result.Failures[0].ID)
}

func (suite *RecurringServiceTestSuite) TestProcessAllRecurringEntries_ListFailure() {
	suite.mocks.recurring.On("ListOrganizationsWithDueEntries", suite.ctx, suite.asOf).Return(nil, errors.New("timeout")).Once()

	_, err := suite.service.ProcessAllRecurringEntries(suite.ctx, suite.asOf)

	suite.Error(err)
}

func TestRecurringServiceSuite(t *testing.T) {
	suite.Run(t, new(RecurringServiceTestSuite))
}
