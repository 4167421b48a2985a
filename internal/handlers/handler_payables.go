package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// payablesHandler handles vendors, bills and the aging report.
type payablesHandler struct {
	payablesService portssvc.PayablesSvcFacade
	now             func() time.Time
}

func registerPayablesRoutes(rg *gin.RouterGroup, payablesService portssvc.PayablesSvcFacade) {
	h := &payablesHandler{payablesService: payablesService, now: utcNow}

	vendors := rg.Group("/vendors")
	{
		vendors.POST("", h.createVendor)
		vendors.GET("/:vendorID", h.getVendor)
	}

	bills := rg.Group("/bills")
	{
		bills.POST("", h.createBill)
		bills.GET("/:billID", h.getBill)
		bills.POST("/:billID/approve", h.approveBill)
		bills.POST("/:billID/match", h.threeWayMatch)
	}
	rg.GET("/reports/ap-aging", h.agingReport)
}

// createVendor godoc
// @Summary Create a vendor
// @Tags payables
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   vendor body dto.CreateVendorRequest true "Vendor details"
// @Success 201 {object} domain.Vendor
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /organizations/{orgID}/vendors [post]
func (h *payablesHandler) createVendor(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateVendorRequest
	if !bindJSON(c, logger, &req, "CreateVendor") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	vendor, err := h.payablesService.CreateVendor(c.Request.Context(), c.Param(orgIDParam), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create vendor")
		return
	}
	c.JSON(http.StatusCreated, vendor)
}

// getVendor godoc
// @Summary Get a vendor
// @Tags payables
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   vendorID path string true "Vendor ID"
// @Success 200 {object} domain.Vendor
// @Failure 404 {object} map[string]string "Vendor not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/vendors/{vendorID} [get]
func (h *payablesHandler) getVendor(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	vendor, err := h.payablesService.GetVendor(c.Request.Context(), c.Param(orgIDParam), c.Param("vendorID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve vendor")
		return
	}
	c.JSON(http.StatusOK, vendor)
}

// createBill godoc
// @Summary Record a vendor bill
// @Description Computes line and bill totals, numbers the bill and stores it as a draft (or approves it when auto-approval is on)
// @Tags payables
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   bill body dto.CreateBillRequest true "Bill details"
// @Success 201 {object} domain.VendorBill
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Vendor not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/bills [post]
func (h *payablesHandler) createBill(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateBillRequest
	if !bindJSON(c, logger, &req, "CreateBill") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	bill, err := h.payablesService.CreateBill(c.Request.Context(), c.Param(orgIDParam), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create bill")
		return
	}
	logger.Info("Bill created", slog.String("bill_id", bill.BillID), slog.String("bill_number", bill.BillNumber))
	c.JSON(http.StatusCreated, bill)
}

// getBill godoc
// @Summary Get a vendor bill with its lines
// @Tags payables
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   billID path string true "Bill ID"
// @Success 200 {object} domain.VendorBill
// @Failure 404 {object} map[string]string "Bill not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/bills/{billID} [get]
func (h *payablesHandler) getBill(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	bill, err := h.payablesService.GetBill(c.Request.Context(), c.Param(orgIDParam), c.Param("billID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve bill")
		return
	}
	c.JSON(http.StatusOK, bill)
}

// approveBill godoc
// @Summary Approve a draft bill
// @Description Approves the bill and posts it to the general ledger
// @Tags payables
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   billID path string true "Bill ID"
// @Success 200 {object} domain.VendorBill
// @Failure 404 {object} map[string]string "Bill not found"
// @Failure 409 {object} map[string]string "Bill is not a draft"
// @Security BearerAuth
// @Router /organizations/{orgID}/bills/{billID}/approve [post]
func (h *payablesHandler) approveBill(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	bill, err := h.payablesService.ApproveBill(c.Request.Context(), c.Param(orgIDParam), c.Param("billID"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to approve bill")
		return
	}
	c.JSON(http.StatusOK, bill)
}

// threeWayMatch godoc
// @Summary Match a bill against its purchase order and goods receipt
// @Tags payables
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   billID path string true "Bill ID"
// @Param   match body dto.ThreeWayMatchRequest true "Order and receipt"
// @Success 200 {object} domain.ThreeWayMatch
// @Failure 404 {object} map[string]string "Bill, order or receipt not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/bills/{billID}/match [post]
func (h *payablesHandler) threeWayMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ThreeWayMatchRequest
	if !bindJSON(c, logger, &req, "ThreeWayMatch") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	match, err := h.payablesService.ThreeWayMatch(c.Request.Context(), c.Param(orgIDParam), c.Param("billID"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to match bill")
		return
	}
	c.JSON(http.StatusOK, match)
}

// agingReport godoc
// @Summary Accounts payable aging report
// @Tags reports
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   vendorId query string false "Vendor filter"
// @Param   asOfDate query string false "As-of date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} domain.AgingReport
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /organizations/{orgID}/reports/ap-aging [get]
func (h *payablesHandler) agingReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	var params dto.AgingReportParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for AgingReport", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	vendorID, asOf, err := params.Resolve(h.now())
	if err != nil {
		respondError(c, logger, err, "Failed to build aging report")
		return
	}

	report, err := h.payablesService.AgingReport(c.Request.Context(), c.Param(orgIDParam), vendorID, asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to build aging report")
		return
	}
	c.JSON(http.StatusOK, report)
}
