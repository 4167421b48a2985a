package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// periodHandler handles fiscal years, period closing and recurring entries.
type periodHandler struct {
	periodService    portssvc.PeriodSvcFacade
	recurringService portssvc.RecurringSvcFacade
	now              func() time.Time
}

func registerPeriodRoutes(rg *gin.RouterGroup, periodService portssvc.PeriodSvcFacade, recurringService portssvc.RecurringSvcFacade) {
	h := &periodHandler{periodService: periodService, recurringService: recurringService, now: utcNow}

	rg.POST("/fiscal-years", h.createFiscalYear)
	rg.POST("/fiscal-periods/:periodID/close", h.closePeriod)
	rg.POST("/journal-templates", h.createTemplate)

	recurring := rg.Group("/recurring-entries")
	{
		recurring.POST("", h.createRecurringEntry)
		recurring.POST("/run", h.processRecurringEntries)
	}
}

// asOfOrToday resolves a batch run date. Dates after today are rejected so
// nothing is settled or posted before it is due.
func asOfOrToday(req dto.BatchRunRequest, now time.Time) (time.Time, error) {
	today := domain.DateOnly(now.UTC())
	if req.AsOfDate == nil {
		return today, nil
	}
	asOf := domain.DateOnly(*req.AsOfDate)
	if asOf.After(today) {
		return time.Time{}, fmt.Errorf("as-of date %s is after today: %w", asOf.Format(time.DateOnly), apperrors.ErrValidation)
	}
	return asOf, nil
}

// createFiscalYear godoc
// @Summary Create a fiscal year
// @Description Creates the year and its contiguous monthly or quarterly periods
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   year body dto.CreateFiscalYearRequest true "Fiscal year"
// @Success 201 {object} domain.FiscalYear
// @Failure 400 {object} map[string]string "Invalid dates or overlapping year"
// @Security BearerAuth
// @Router /organizations/{orgID}/fiscal-years [post]
func (h *periodHandler) createFiscalYear(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateFiscalYearRequest
	if !bindJSON(c, logger, &req, "CreateFiscalYear") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	year, err := h.periodService.CreateFiscalYear(c.Request.Context(), c.Param(orgIDParam), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create fiscal year")
		return
	}
	c.JSON(http.StatusCreated, year)
}

// closePeriod godoc
// @Summary Close a fiscal period
// @Description Posts optional closing entries and closes the period; closed periods reject postings
// @Tags periods
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   periodID path string true "Fiscal period ID"
// @Param   closing body dto.ClosePeriodRequest false "Closing entries"
// @Success 200 {object} domain.FiscalPeriod
// @Failure 409 {object} map[string]string "Already closed or unposted entries in the period"
// @Failure 422 {object} map[string]string "Closing entries do not balance"
// @Security BearerAuth
// @Router /organizations/{orgID}/fiscal-periods/{periodID}/close [post]
func (h *periodHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ClosePeriodRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, logger, &req, "ClosePeriod") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	period, err := h.periodService.ClosePeriod(c.Request.Context(), c.Param(orgIDParam), c.Param("periodID"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to close fiscal period")
		return
	}
	logger.Info("Fiscal period closed", slog.String("period_id", period.FiscalPeriodID))
	c.JSON(http.StatusOK, period)
}

// createTemplate godoc
// @Summary Create a journal template
// @Tags recurring
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   template body dto.CreateJournalTemplateRequest true "Template"
// @Success 201 {object} domain.JournalTemplate
// @Failure 400 {object} map[string]string "Invalid formula"
// @Failure 422 {object} map[string]string "Template lines do not balance"
// @Security BearerAuth
// @Router /organizations/{orgID}/journal-templates [post]
func (h *periodHandler) createTemplate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateJournalTemplateRequest
	if !bindJSON(c, logger, &req, "CreateJournalTemplate") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	tpl, err := h.recurringService.CreateJournalTemplate(c.Request.Context(), c.Param(orgIDParam), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create journal template")
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

// createRecurringEntry godoc
// @Summary Schedule a journal template
// @Tags recurring
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   entry body dto.CreateRecurringEntryRequest true "Schedule"
// @Success 201 {object} domain.RecurringEntry
// @Failure 404 {object} map[string]string "Template not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/recurring-entries [post]
func (h *periodHandler) createRecurringEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateRecurringEntryRequest
	if !bindJSON(c, logger, &req, "CreateRecurringEntry") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	entry, err := h.recurringService.CreateRecurringEntry(c.Request.Context(), c.Param(orgIDParam), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create recurring entry")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// processRecurringEntries godoc
// @Summary Post due recurring entries
// @Tags recurring
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   run body dto.BatchRunRequest false "As-of date, defaults to today"
// @Success 200 {object} domain.BatchResult
// @Security BearerAuth
// @Router /organizations/{orgID}/recurring-entries/run [post]
func (h *periodHandler) processRecurringEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BatchRunRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, logger, &req, "ProcessRecurringEntries") {
		return
	}
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	asOf, err := asOfOrToday(req, h.now())
	if err != nil {
		respondError(c, logger, err, "Invalid as-of date")
		return
	}

	result, err := h.recurringService.ProcessRecurringEntries(c.Request.Context(), c.Param(orgIDParam), asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to process recurring entries")
		return
	}
	c.JSON(http.StatusOK, result)
}
