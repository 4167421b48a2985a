package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/gin-gonic/gin"
)

// maxStatementUpload bounds multipart statement uploads.
const maxStatementUpload = 10 << 20

// bankingHandler handles bank accounts, statement imports, reconciliation
// and cash-flow forecasts.
type bankingHandler struct {
	bankingService portssvc.BankingSvcFacade
}

func registerBankingRoutes(rg *gin.RouterGroup, bankingService portssvc.BankingSvcFacade) {
	h := &bankingHandler{bankingService: bankingService}

	accounts := rg.Group("/bank-accounts")
	{
		accounts.POST("", h.createBankAccount)
		accounts.GET("/:bankAccountID", h.getBankAccount)
		accounts.POST("/:bankAccountID/statements", h.importStatement)
		accounts.POST("/:bankAccountID/statements/upload", h.uploadStatement)
		accounts.POST("/:bankAccountID/reconciliations", h.reconcile)
		accounts.GET("/:bankAccountID/reconciliation-summary", h.reconciliationSummary)
	}
	rg.POST("/cash-flow-forecasts", h.createForecast)
}

// createBankAccount godoc
// @Summary Register a bank account
// @Tags banking
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   bankAccount body dto.CreateBankAccountRequest true "Bank account details"
// @Success 201 {object} domain.BankAccount
// @Failure 400 {object} map[string]string "Invalid input or GL account is not an asset"
// @Security BearerAuth
// @Router /organizations/{orgID}/bank-accounts [post]
func (h *bankingHandler) createBankAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateBankAccountRequest
	if !bindJSON(c, logger, &req, "CreateBankAccount") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	account, err := h.bankingService.CreateBankAccount(c.Request.Context(), c.Param(orgIDParam), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create bank account")
		return
	}
	c.JSON(http.StatusCreated, account)
}

// getBankAccount godoc
// @Summary Get a bank account
// @Tags banking
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   bankAccountID path string true "Bank account ID"
// @Success 200 {object} domain.BankAccount
// @Failure 404 {object} map[string]string "Bank account not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/bank-accounts/{bankAccountID} [get]
func (h *bankingHandler) getBankAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	account, err := h.bankingService.GetBankAccount(c.Request.Context(), c.Param(orgIDParam), c.Param("bankAccountID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve bank account")
		return
	}
	c.JSON(http.StatusOK, account)
}

// importStatement godoc
// @Summary Import normalized statement lines
// @Description Stores new lines, skips duplicates and reports invalid rows
// @Tags banking
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   bankAccountID path string true "Bank account ID"
// @Param   statement body dto.ImportStatementRequest true "Statement lines"
// @Success 200 {object} domain.ImportResult
// @Failure 404 {object} map[string]string "Bank account not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/bank-accounts/{bankAccountID}/statements [post]
func (h *bankingHandler) importStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ImportStatementRequest
	if !bindJSON(c, logger, &req, "ImportStatement") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	result, err := h.bankingService.ImportStatement(c.Request.Context(), c.Param(orgIDParam), c.Param("bankAccountID"), req.ToNormalized(), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to import statement")
		return
	}
	logger.Info("Statement imported", slog.Int("imported", result.Imported), slog.Int("duplicates", result.Duplicates), slog.Int("errors", len(result.Errors)))
	c.JSON(http.StatusOK, result)
}

// uploadStatement godoc
// @Summary Upload a statement file
// @Tags banking
// @Accept  multipart/form-data
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   bankAccountID path string true "Bank account ID"
// @Param   file formData file true "Statement file"
// @Param   format formData string false "File format" default(csv)
// @Success 200 {object} domain.ImportResult
// @Failure 400 {object} map[string]string "Missing file or unsupported format"
// @Security BearerAuth
// @Router /organizations/{orgID}/bank-accounts/{bankAccountID}/statements/upload [post]
func (h *bankingHandler) uploadStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxStatementUpload)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		logger.Warn("Statement file missing from upload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statement file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded statement", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read statement file"})
		return
	}
	defer file.Close()

	format := c.DefaultPostForm("format", "csv")
	logger = logger.With(slog.String("file_name", fileHeader.Filename), slog.String("format", format))

	result, err := h.bankingService.ImportStatementFile(c.Request.Context(), c.Param(orgIDParam), c.Param("bankAccountID"), format, file, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to import statement")
		return
	}
	logger.Info("Statement file imported", slog.Int("imported", result.Imported), slog.Int("duplicates", result.Duplicates), slog.Int("errors", len(result.Errors)))
	c.JSON(http.StatusOK, result)
}

// reconcile godoc
// @Summary Reconcile a bank account against a statement
// @Tags banking
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   bankAccountID path string true "Bank account ID"
// @Param   reconciliation body dto.ReconcileRequest true "Statement balance and reconciling items"
// @Success 201 {object} domain.BankReconciliation
// @Failure 404 {object} map[string]string "Bank account not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/bank-accounts/{bankAccountID}/reconciliations [post]
func (h *bankingHandler) reconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ReconcileRequest
	if !bindJSON(c, logger, &req, "Reconcile") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	rec, err := h.bankingService.Reconcile(c.Request.Context(), c.Param(orgIDParam), c.Param("bankAccountID"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile bank account")
		return
	}
	logger.Info("Reconciliation recorded", slog.String("reconciliation_id", rec.ReconciliationID), slog.Bool("is_balanced", rec.IsBalanced))
	c.JSON(http.StatusCreated, rec)
}

// reconciliationSummary godoc
// @Summary Reconciliation summary for a bank account
// @Tags banking
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   bankAccountID path string true "Bank account ID"
// @Success 200 {object} domain.ReconciliationSummary
// @Failure 404 {object} map[string]string "Bank account not found"
// @Security BearerAuth
// @Router /organizations/{orgID}/bank-accounts/{bankAccountID}/reconciliation-summary [get]
func (h *bankingHandler) reconciliationSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if _, ok := requireUser(c, logger); !ok {
		return
	}

	summary, err := h.bankingService.ReconciliationSummary(c.Request.Context(), c.Param(orgIDParam), c.Param("bankAccountID"))
	if err != nil {
		respondError(c, logger, err, "Failed to build reconciliation summary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// createForecast godoc
// @Summary Build a cash-flow forecast
// @Tags banking
// @Accept  json
// @Produce  json
// @Param   orgID path string true "Organization ID"
// @Param   forecast body dto.CreateForecastRequest true "Forecast parameters"
// @Success 201 {object} domain.CashFlowForecast
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /organizations/{orgID}/cash-flow-forecasts [post]
func (h *bankingHandler) createForecast(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateForecastRequest
	if !bindJSON(c, logger, &req, "CreateForecast") {
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	forecast, err := h.bankingService.CreateCashFlowForecast(c.Request.Context(), c.Param(orgIDParam), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to build cash-flow forecast")
		return
	}
	c.JSON(http.StatusCreated, forecast)
}
