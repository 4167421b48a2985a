package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/metrics"
	"github.com/SscSPs/ledger_core/internal/statement"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type bankingService struct {
	BaseService
	txm     portsrepo.TransactionManager
	parsers *statement.Registry
}

// NewBankingService creates the bank account, import and reconciliation service.
func NewBankingService(txm portsrepo.TransactionManager, parsers *statement.Registry, options ...ServiceOption) portssvc.BankingSvcFacade {
	if parsers == nil {
		parsers = statement.DefaultRegistry()
	}
	return &bankingService{BaseService: newBaseService(options), txm: txm, parsers: parsers}
}

var _ portssvc.BankingSvcFacade = (*bankingService)(nil)

func (s *bankingService) CreateBankAccount(ctx context.Context, organizationID string, req dto.CreateBankAccountRequest, userID string) (*domain.BankAccount, error) {
	repos := s.txm.Repositories()
	gl, err := repos.Accounts.FindAccountByID(ctx, organizationID, req.GLAccountID)
	if err != nil {
		return nil, fmt.Errorf("GL account %s: %w", req.GLAccountID, err)
	}
	if gl.AccountType != domain.Asset {
		return nil, fmt.Errorf("account %s is %s: %w", gl.Code, gl.AccountType, domain.ErrBankAccountNotAsset)
	}
	if !gl.IsActive {
		return nil, fmt.Errorf("account %s: %w", gl.Code, domain.ErrAccountInactive)
	}

	account := domain.BankAccount{
		BankAccountID:     uuid.NewString(),
		OrganizationID:    organizationID,
		Name:              req.Name,
		BankName:          req.BankName,
		AccountNumber:     req.AccountNumber,
		GLAccountID:       gl.AccountID,
		CurrencyCode:      strings.ToUpper(req.CurrencyCode),
		ReconciledBalance: decimal.Zero,
		AuditFields:       domain.NewAuditFields(userID, s.Now()),
	}
	if err := repos.Banking.SaveBankAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("bank account %s already exists: %w", req.AccountNumber, err)
		}
		s.LogError(ctx, err, "Failed to save bank account", slog.String("gl_account_id", gl.AccountID))
		return nil, fmt.Errorf("failed to create bank account: %w", err)
	}

	s.LogInfo(ctx, "Bank account created", slog.String("bank_account_id", account.BankAccountID))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "bank_account",
		EntityID:       account.BankAccountID,
		Action:         domain.AuditCreate,
		NewValues:      account,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return &account, nil
}

func (s *bankingService) GetBankAccount(ctx context.Context, organizationID, bankAccountID string) (*domain.BankAccount, error) {
	account, err := s.txm.Repositories().Banking.FindBankAccountByID(ctx, organizationID, bankAccountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get bank account", slog.String("bank_account_id", bankAccountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *bankingService) ImportStatement(ctx context.Context, organizationID, bankAccountID string, rows []domain.NormalizedTransaction, userID string) (*domain.ImportResult, error) {
	records := make([]statement.Record, len(rows))
	for i, r := range rows {
		records[i] = statement.Record{Row: i + 1, Transaction: r}
	}
	return s.importRecords(ctx, organizationID, bankAccountID, statement.Result{Records: records}, userID)
}

func (s *bankingService) ImportStatementFile(ctx context.Context, organizationID, bankAccountID, format string, r io.Reader, userID string) (*domain.ImportResult, error) {
	parser, err := s.parsers.Get(format)
	if err != nil {
		return nil, err
	}
	parsed, err := parser.Parse(ctx, r)
	if err != nil {
		return nil, err
	}
	return s.importRecords(ctx, organizationID, bankAccountID, parsed, userID)
}

// importRecords stores each valid row on its own. Invalid rows are reported,
// and duplicates of already imported lines are counted and skipped.
func (s *bankingService) importRecords(ctx context.Context, organizationID, bankAccountID string, parsed statement.Result, userID string) (*domain.ImportResult, error) {
	repos := s.txm.Repositories()
	account, err := repos.Banking.FindBankAccountByID(ctx, organizationID, bankAccountID)
	if err != nil {
		return nil, err
	}

	result := &domain.ImportResult{Errors: []domain.ImportError{}}
	for _, e := range parsed.Errors {
		result.Errors = append(result.Errors, e)
		metrics.StatementRows.WithLabelValues("invalid").Inc()
	}

	now := s.Now()
	for _, rec := range parsed.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := rec.Transaction
		if err := t.Validate(); err != nil {
			result.Errors = append(result.Errors, domain.ImportError{Row: rec.Row, Reason: err.Error()})
			metrics.StatementRows.WithLabelValues("invalid").Inc()
			continue
		}
		inserted, err := repos.Banking.InsertBankTransaction(ctx, domain.BankTransaction{
			BankTransactionID:    uuid.NewString(),
			OrganizationID:       organizationID,
			BankAccountID:        account.BankAccountID,
			TransactionDate:      domain.DateOnly(t.Date),
			Amount:               t.Amount,
			Description:          strings.TrimSpace(t.Description),
			Reference:            strings.TrimSpace(t.Reference),
			ReconciliationStatus: domain.BankTxnUnreconciled,
			ImportedAt:           now,
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to store statement line",
				slog.String("bank_account_id", bankAccountID),
				slog.Int("row", rec.Row))
			return nil, fmt.Errorf("failed to import statement row %d: %w", rec.Row, err)
		}
		if !inserted {
			result.Duplicates++
			metrics.StatementRows.WithLabelValues("duplicate").Inc()
			continue
		}
		result.Imported++
		metrics.StatementRows.WithLabelValues("imported").Inc()
	}

	s.LogInfo(ctx, "Statement imported",
		slog.String("bank_account_id", bankAccountID),
		slog.Int("imported", result.Imported),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("errors", len(result.Errors)))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "bank_account",
		EntityID:       bankAccountID,
		Action:         domain.AuditImport,
		NewValues:      result,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return result, nil
}

func (s *bankingService) Reconcile(ctx context.Context, organizationID, bankAccountID string, req dto.ReconcileRequest, userID string) (*domain.BankReconciliation, error) {
	items := req.ToDomainItems()
	for i, item := range items {
		if !item.ItemType.Valid() {
			return nil, fmt.Errorf("item %d: unknown type %q: %w", i+1, item.ItemType, apperrors.ErrValidation)
		}
		// Adjustments are signed; transit items are sizes.
		if (item.ItemType == domain.ItemDepositInTransit || item.ItemType == domain.ItemOutstandingCheck) && item.Amount.IsNegative() {
			return nil, fmt.Errorf("item %d: %s amount must not be negative: %w", i+1, item.ItemType, apperrors.ErrValidation)
		}
	}

	var rec domain.BankReconciliation
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		account, err := repos.Banking.FindBankAccountForUpdate(ctx, organizationID, bankAccountID)
		if err != nil {
			return err
		}
		statementDate := domain.DateOnly(req.StatementDate)
		book, err := repos.Accounts.BalanceAsOf(ctx, organizationID, account.GLAccountID, statementDate)
		if err != nil {
			s.LogError(ctx, err, "Failed to compute book balance", slog.String("bank_account_id", bankAccountID))
			return fmt.Errorf("failed to compute book balance: %w", err)
		}

		rec, err = domain.ComputeReconciliation(book, req.StatementBalance, items)
		if err != nil {
			return err
		}
		now := s.Now()
		rec.ReconciliationID = uuid.NewString()
		rec.OrganizationID = organizationID
		rec.BankAccountID = bankAccountID
		rec.StatementDate = statementDate
		rec.AuditFields = domain.NewAuditFields(userID, now)
		for i := range rec.Items {
			rec.Items[i].ItemID = uuid.NewString()
			rec.Items[i].ReconciliationID = rec.ReconciliationID
		}
		if err := repos.Banking.SaveReconciliation(ctx, rec); err != nil {
			s.LogError(ctx, err, "Failed to save reconciliation", slog.String("bank_account_id", bankAccountID))
			return fmt.Errorf("failed to save reconciliation: %w", err)
		}
		if !rec.IsBalanced {
			return nil
		}

		if len(req.ClearedTransactionIDs) > 0 {
			n, err := repos.Banking.MarkBankTransactionsCleared(ctx, organizationID, bankAccountID, req.ClearedTransactionIDs, now)
			if err != nil {
				return fmt.Errorf("failed to clear bank transactions: %w", err)
			}
			if int(n) != len(req.ClearedTransactionIDs) {
				s.GetLogger(ctx).Warn("Some bank transactions were not cleared",
					slog.Int("requested", len(req.ClearedTransactionIDs)),
					slog.Int64("cleared", n))
			}
		}
		if len(req.ClearedGLEntryIDs) > 0 {
			n, err := repos.Journals.MarkGLEntriesCleared(ctx, organizationID, account.GLAccountID, req.ClearedGLEntryIDs, now)
			if err != nil {
				return fmt.Errorf("failed to clear GL entries: %w", err)
			}
			if int(n) != len(req.ClearedGLEntryIDs) {
				s.GetLogger(ctx).Warn("Some GL entries were not cleared",
					slog.Int("requested", len(req.ClearedGLEntryIDs)),
					slog.Int64("cleared", n))
			}
		}

		account.LastReconciledAt = &statementDate
		account.ReconciledBalance = req.StatementBalance
		account.Touch(userID, now)
		return repos.Banking.UpdateReconciledState(ctx, *account)
	})
	if err != nil {
		return nil, err
	}

	metrics.Reconciliations.WithLabelValues(fmt.Sprintf("%t", rec.IsBalanced)).Inc()
	s.LogInfo(ctx, "Bank reconciliation recorded",
		slog.String("reconciliation_id", rec.ReconciliationID),
		slog.Bool("balanced", rec.IsBalanced),
		slog.String("variance", rec.Variance.String()))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "bank_reconciliation",
		EntityID:       rec.ReconciliationID,
		Action:         domain.AuditReconcile,
		NewValues:      rec,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return &rec, nil
}

func (s *bankingService) ReconciliationSummary(ctx context.Context, organizationID, bankAccountID string) (*domain.ReconciliationSummary, error) {
	repos := s.txm.Repositories()
	account, err := repos.Banking.FindBankAccountByID(ctx, organizationID, bankAccountID)
	if err != nil {
		return nil, err
	}
	book, err := repos.Accounts.BalanceAsOf(ctx, organizationID, account.GLAccountID, domain.DateOnly(s.Now()))
	if err != nil {
		s.LogError(ctx, err, "Failed to compute book balance", slog.String("bank_account_id", bankAccountID))
		return nil, fmt.Errorf("failed to compute book balance: %w", err)
	}

	summary := &domain.ReconciliationSummary{BankAccount: *account, BookBalance: book}
	latest, err := repos.Banking.FindLatestReconciliation(ctx, organizationID, bankAccountID)
	switch {
	case err == nil:
		summary.LatestReconciliation = latest
	case !errors.Is(err, apperrors.ErrNotFound):
		s.LogError(ctx, err, "Failed to load latest reconciliation", slog.String("bank_account_id", bankAccountID))
		return nil, fmt.Errorf("failed to load latest reconciliation: %w", err)
	}

	summary.UnreconciledCount, summary.UnreconciledAmount, err = repos.Banking.UnreconciledSummary(ctx, organizationID, bankAccountID)
	if err != nil {
		s.LogError(ctx, err, "Failed to summarize unreconciled transactions", slog.String("bank_account_id", bankAccountID))
		return nil, fmt.Errorf("failed to summarize unreconciled transactions: %w", err)
	}
	return summary, nil
}
