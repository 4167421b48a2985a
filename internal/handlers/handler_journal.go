package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journal entries and the
// general ledger report.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

func newJournalHandler(journalService portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: journalService}
}

// registerJournalRoutes registers journal entry routes.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	entries := rg.Group("/journal-entries")
	{
		entries.POST("", h.postJournal)
		entries.POST("/drafts", h.draftJournal)
		entries.GET("/:entryID", h.getJournal)
		entries.POST("/:entryID/post", h.postDraft)
		entries.POST("/:entryID/reverse", h.reverseJournal)
	}
	rg.GET("/reports/general-ledger", h.generalLedger)
}

// postJournal godoc
// @Summary Post a journal entry
// @Description Validates, numbers and posts a balanced journal entry, updating account balances
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   entry body dto.PostJournalRequest true "Journal entry"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 400 {object} map[string]string "Invalid request or closed period"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Debits and credits do not balance"
// @Failure 500 {object} map[string]string "Failed to post journal entry"
// @Security BearerAuth
// @Router /organizations/{orgID}/journal-entries [post]
func (h *journalHandler) postJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PostJournalRequest
	if !bindJSON(c, logger, &req, "PostJournal") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.PostJournal(c.Request.Context(), c.Param(orgIDParam), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post journal entry")
		return
	}

	logger.Info("Journal entry posted", slog.String("journal_entry_id", entry.JournalEntryID), slog.String("entry_number", entry.EntryNumber))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

// draftJournal godoc
// @Summary Save a draft journal entry
// @Description Stores a balanced entry without touching balances; post it later
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   entry body dto.PostJournalRequest true "Journal entry"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 422 {object} map[string]string "Debits and credits do not balance"
// @Security BearerAuth
// @Router /organizations/{orgID}/journal-entries/drafts [post]
func (h *journalHandler) draftJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PostJournalRequest
	if !bindJSON(c, logger, &req, "DraftJournal") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.DraftJournal(c.Request.Context(), c.Param(orgIDParam), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to save draft journal entry")
		return
	}
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

// postDraft godoc
// @Summary Post a draft journal entry
// @Tags journals
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   entryID path string true "Journal entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry already posted"
// @Security BearerAuth
// @Router /organizations/{orgID}/journal-entries/{entryID}/post [post]
func (h *journalHandler) postDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.PostDraft(c.Request.Context(), c.Param(orgIDParam), c.Param("entryID"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post draft journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// getJournal godoc
// @Summary Get a journal entry with its lines
// @Tags journals
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   entryID path string true "Journal entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/journal-entries/{entryID} [get]
func (h *journalHandler) getJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	entry, err := h.journalService.GetJournalEntry(c.Request.Context(), c.Param(orgIDParam), c.Param("entryID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// reverseJournal godoc
// @Summary Reverse a posted journal entry
// @Description Posts a mirror entry with debits and credits swapped and links both entries
// @Tags journals
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   entryID path string true "Journal entry ID"
// @Param   reversal body dto.ReverseJournalRequest true "Reversal details"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry already reversed or not posted"
// @Security BearerAuth
// @Router /organizations/{orgID}/journal-entries/{entryID}/reverse [post]
func (h *journalHandler) reverseJournal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReverseJournalRequest
	if !bindJSON(c, logger, &req, "ReverseJournal") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.ReverseJournal(c.Request.Context(), c.Param(orgIDParam), c.Param("entryID"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to reverse journal entry")
		return
	}
	logger.Info("Journal entry reversed", slog.String("original_id", c.Param("entryID")), slog.String("reversal_id", entry.JournalEntryID))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

// generalLedger godoc
// @Summary General ledger report
// @Description Posted lines with running balances per account and opening balances before fromDate
// @Tags reports
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   accountId query string false "Account filter"
// @Param   fromDate query string false "From date (YYYY-MM-DD)"
// @Param   toDate query string false "To date (YYYY-MM-DD)"
// @Param   sortBy query string false "posting_date, entry_number or account"
// @Param   sortDir query string false "asc or desc"
// @Success 200 {object} domain.GeneralLedgerReport
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /organizations/{orgID}/reports/general-ledger [get]
func (h *journalHandler) generalLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	var params dto.LedgerReportParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for GeneralLedger", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	filter, err := params.ToFilter()
	if err != nil {
		respondError(c, logger, err, "Failed to build general ledger report")
		return
	}

	report, err := h.journalService.GeneralLedgerReport(c.Request.Context(), c.Param(orgIDParam), filter)
	if err != nil {
		respondError(c, logger, err, "Failed to build general ledger report")
		return
	}
	c.JSON(http.StatusOK, report)
}
