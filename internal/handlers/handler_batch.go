package handlers

import (
	"net/http"
	"time"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// batchHandler triggers cross-organization batch jobs on demand.
type batchHandler struct {
	paymentService   portssvc.PaymentSvcFacade
	recurringService portssvc.RecurringSvcFacade
	now              func() time.Time
}

func registerBatchRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade, recurringService portssvc.RecurringSvcFacade) {
	h := &batchHandler{paymentService: paymentService, recurringService: recurringService, now: utcNow}

	batch := rg.Group("/batch")
	{
		batch.POST("/scheduled-payments", h.processScheduledPayments)
		batch.POST("/recurring-entries", h.processAllRecurringEntries)
	}
}

// processScheduledPayments godoc
// @Summary Execute scheduled vendor payments that are due
// @Tags batch
// @Accept  json
// @Produce  json
// @Param   run body dto.BatchRunRequest false "As-of date, defaults to today"
// @Success 200 {object} domain.BatchResult
// @Security BearerAuth
// @Router /batch/scheduled-payments [post]
func (h *batchHandler) processScheduledPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BatchRunRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, logger, &req, "ProcessScheduledPayments") {
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

	result, err := h.paymentService.ProcessScheduledPayments(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to process scheduled payments")
		return
	}
	c.JSON(http.StatusOK, result)
}

// processAllRecurringEntries godoc
// @Summary Post due recurring entries for every organization
// @Tags batch
// @Accept  json
// @Produce  json
// @Param   run body dto.BatchRunRequest false "As-of date, defaults to today"
// @Success 200 {object} domain.BatchResult
// @Security BearerAuth
// @Router /batch/recurring-entries [post]
func (h *batchHandler) processAllRecurringEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BatchRunRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, logger, &req, "ProcessAllRecurringEntries") {
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

	result, err := h.recurringService.ProcessAllRecurringEntries(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to process recurring entries")
		return
	}
	c.JSON(http.StatusOK, result)
}
