package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles vendor payments and their allocation to bills.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

func registerPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	h := &paymentHandler{paymentService: paymentService}

	payments := rg.Group("/payments")
	{
		payments.POST("", h.recordPayment)
		payments.POST("/:paymentID/allocations", h.allocatePayment)
		payments.POST("/:paymentID/auto-allocate", h.autoAllocatePayment)
	}
}

// recordPayment godoc
// @Summary Record a vendor payment
// @Description Settles and posts the payment now, or schedules it when scheduledDate is in the future
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   payment body dto.RecordPaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Invalid input or allocation exceeds outstanding"
// @Failure 404 {object} map[string]string "Vendor, bank account or bill not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/payments [post]
func (h *paymentHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordPaymentRequest
	if !bindJSON(c, logger, &req, "RecordPayment") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	resp, err := h.paymentService.RecordPayment(c.Request.Context(), c.Param(orgIDParam), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to record payment")
		return
	}
	logger.Info("Payment recorded", slog.String("payment_id", resp.Payment.PaymentID), slog.String("status", string(resp.Payment.Status)))
	c.JSON(http.StatusCreated, resp)
}

// allocatePayment godoc
// @Summary Allocate a payment to bills
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   paymentID path string true "Payment ID"
// @Param   allocations body dto.AllocatePaymentRequest true "Allocations"
// @Success 200 {array} domain.VendorPaymentAllocation
// @Failure 400 {object} map[string]string "Allocation exceeds outstanding or unallocated amount"
// @Failure 404 {object} map[string]string "Payment or bill not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/payments/{paymentID}/allocations [post]
func (h *paymentHandler) allocatePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AllocatePaymentRequest
	if !bindJSON(c, logger, &req, "AllocatePayment") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	allocations, err := h.paymentService.AllocatePayment(c.Request.Context(), c.Param(orgIDParam), c.Param("paymentID"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to allocate payment")
		return
	}
	c.JSON(http.StatusOK, allocations)
}

// autoAllocatePayment godoc
// @Summary Allocate a payment to the vendor's oldest open bills
// @Tags payments
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   paymentID path string true "Payment ID"
// @Success 200 {array} domain.VendorPaymentAllocation
// @Failure 404 {object} map[string]string "Payment not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/payments/{paymentID}/auto-allocate [post]
func (h *paymentHandler) autoAllocatePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	allocations, err := h.paymentService.AutoAllocatePayment(c.Request.Context(), c.Param(orgIDParam), c.Param("paymentID"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to allocate payment")
		return
	}
	c.JSON(http.StatusOK, allocations)
}
