package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/metrics"
	"github.com/google/uuid"
)

// journalService is the only writer of account balances.
type journalService struct {
	BaseService
	txm       portsrepo.TransactionManager
	numbering portssvc.NumberingSvc
}

// NewJournalService creates a new JournalService.
func NewJournalService(txm portsrepo.TransactionManager, numbering portssvc.NumberingSvc, options ...ServiceOption) portssvc.JournalSvcFacade {
	return &journalService{
		BaseService: newBaseService(options),
		txm:         txm,
		numbering:   numbering,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// PostInTx validates req and writes the entry inside the caller's unit of work.
// Posted entries lock every touched account and apply the signed balance changes.
func (s *journalService) PostInTx(ctx context.Context, repos portsrepo.RepositoryProvider, req portssvc.PostingRequest) (*domain.JournalEntry, error) {
	totalDebit, totalCredit, err := domain.ValidateLines(req.Lines)
	if err != nil {
		metrics.PostingRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	postingDate := domain.DateOnly(req.PostingDate)
	if err := s.checkPeriodOpen(ctx, repos, req.OrganizationID, postingDate); err != nil {
		metrics.PostingRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	accounts, err := s.lockAccounts(ctx, repos, req.OrganizationID, req.Lines)
	if err != nil {
		metrics.PostingRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	series := req.Series
	if series == "" {
		series = domain.SeriesJournal
	}
	entryNumber, err := s.numbering.NextInTx(ctx, repos, req.OrganizationID, series)
	if err != nil {
		return nil, err
	}

	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}
	now := s.Now()
	entry := domain.JournalEntry{
		JournalEntryID: uuid.NewString(),
		OrganizationID: req.OrganizationID,
		EntryNumber:    entryNumber,
		PostingDate:    postingDate,
		Reference:      req.Reference,
		Description:    req.Description,
		Source:         source,
		TotalDebit:     totalDebit,
		TotalCredit:    totalCredit,
		IsPosted:       !req.Draft,
		ReversalOfID:   req.ReversalOfID,
		AuditFields:    domain.NewAuditFields(req.UserID, now),
	}
	entry.Lines = make([]domain.GLEntry, 0, len(req.Lines))
	for _, l := range req.Lines {
		entry.Lines = append(entry.Lines, domain.GLEntry{
			GLEntryID:      uuid.NewString(),
			JournalEntryID: entry.JournalEntryID,
			OrganizationID: req.OrganizationID,
			AccountID:      l.AccountID,
			Debit:          l.Debit,
			Credit:         l.Credit,
			Description:    l.Description,
			PostingDate:    postingDate,
			CreatedAt:      now,
		})
	}

	if err := repos.Journals.SaveJournalEntry(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to save journal entry", slog.String("entry_number", entryNumber))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	if !req.Draft {
		if err := s.applyBalances(ctx, repos, entry, accounts, req.UserID, now); err != nil {
			return nil, err
		}
		metrics.JournalEntriesPosted.WithLabelValues(string(source)).Inc()
	}

	s.LogDebug(ctx, "Journal entry written",
		slog.String("journal_entry_id", entry.JournalEntryID),
		slog.String("entry_number", entry.EntryNumber),
		slog.Bool("posted", entry.IsPosted))
	return &entry, nil
}

func (s *journalService) checkPeriodOpen(ctx context.Context, repos portsrepo.RepositoryProvider, organizationID string, postingDate time.Time) error {
	period, err := repos.Periods.FindPeriodByDate(ctx, organizationID, postingDate)
	if err != nil {
		// Dates outside every fiscal year are open.
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		s.LogError(ctx, err, "Failed to look up fiscal period", slog.Time("posting_date", postingDate))
		return fmt.Errorf("failed to check fiscal period: %w", err)
	}
	if period.IsClosed {
		return fmt.Errorf("period %s: %w", period.Name, domain.ErrPeriodClosed)
	}
	return nil
}

func (s *journalService) lockAccounts(ctx context.Context, repos portsrepo.RepositoryProvider, organizationID string, lines []domain.JournalLine) (map[string]domain.Account, error) {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	// Lock in a stable order so concurrent postings cannot deadlock.
	sort.Strings(ids)

	accounts, err := repos.Accounts.FindAccountsByIDsForUpdate(ctx, organizationID, ids)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to lock accounts for posting")
		}
		return nil, err
	}
	for _, id := range ids {
		acc, ok := accounts[id]
		if !ok {
			return nil, fmt.Errorf("account %s: %w", id, apperrors.ErrNotFound)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("account %s: %w", acc.Code, domain.ErrAccountInactive)
		}
	}
	return accounts, nil
}

func (s *journalService) applyBalances(ctx context.Context, repos portsrepo.RepositoryProvider, entry domain.JournalEntry, accounts map[string]domain.Account, userID string, now time.Time) error {
	changes, err := domain.BalanceChanges(entry.Lines, accounts)
	if err != nil {
		return err
	}
	if err := repos.Accounts.UpdateAccountBalances(ctx, entry.OrganizationID, changes, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to update account balances", slog.String("journal_entry_id", entry.JournalEntryID))
		return fmt.Errorf("failed to update account balances: %w", err)
	}
	return nil
}

func (s *journalService) PostJournal(ctx context.Context, organizationID string, req dto.PostJournalRequest, userID string) (*domain.JournalEntry, error) {
	return s.writeJournal(ctx, organizationID, req, userID, false)
}

func (s *journalService) DraftJournal(ctx context.Context, organizationID string, req dto.PostJournalRequest, userID string) (*domain.JournalEntry, error) {
	return s.writeJournal(ctx, organizationID, req, userID, true)
}

func (s *journalService) writeJournal(ctx context.Context, organizationID string, req dto.PostJournalRequest, userID string, draft bool) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		entry, err = s.PostInTx(ctx, repos, portssvc.PostingRequest{
			OrganizationID: organizationID,
			PostingDate:    req.PostingDate,
			Reference:      req.Reference,
			Description:    req.Description,
			Source:         domain.SourceManual,
			Lines:          dto.ToDomainLines(req.Lines),
			Draft:          draft,
			UserID:         userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	action := domain.AuditPost
	if draft {
		action = domain.AuditCreate
	}
	s.LogInfo(ctx, "Journal entry recorded",
		slog.String("journal_entry_id", entry.JournalEntryID),
		slog.String("entry_number", entry.EntryNumber),
		slog.Bool("draft", draft))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "journal_entry",
		EntityID:       entry.JournalEntryID,
		Action:         action,
		NewValues:      entry,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return entry, nil
}

func (s *journalService) PostDraft(ctx context.Context, organizationID, journalEntryID, userID string) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		entry, err = repos.Journals.FindJournalEntryForUpdate(ctx, organizationID, journalEntryID)
		if err != nil {
			return err
		}
		if entry.IsPosted {
			return domain.ErrJournalAlreadyPosted
		}
		if err := s.checkPeriodOpen(ctx, repos, organizationID, entry.PostingDate); err != nil {
			return err
		}

		lines := make([]domain.JournalLine, len(entry.Lines))
		for i, l := range entry.Lines {
			lines[i] = domain.JournalLine{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit}
		}
		if _, _, err := domain.ValidateLines(lines); err != nil {
			return err
		}
		accounts, err := s.lockAccounts(ctx, repos, organizationID, lines)
		if err != nil {
			return err
		}

		now := s.Now()
		if err := repos.Journals.MarkPosted(ctx, organizationID, journalEntryID, userID, now); err != nil {
			s.LogError(ctx, err, "Failed to mark journal entry posted", slog.String("journal_entry_id", journalEntryID))
			return fmt.Errorf("failed to post draft: %w", err)
		}
		if err := s.applyBalances(ctx, repos, *entry, accounts, userID, now); err != nil {
			return err
		}
		entry.IsPosted = true
		entry.Touch(userID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.JournalEntriesPosted.WithLabelValues(string(entry.Source)).Inc()
	s.LogInfo(ctx, "Draft journal entry posted", slog.String("journal_entry_id", journalEntryID))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "journal_entry",
		EntityID:       journalEntryID,
		Action:         domain.AuditPost,
		OldValues:      map[string]any{"isPosted": false},
		NewValues:      entry,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return entry, nil
}

func (s *journalService) ReverseJournal(ctx context.Context, organizationID, journalEntryID string, req dto.ReverseJournalRequest, userID string) (*domain.JournalEntry, error) {
	var reversal *domain.JournalEntry
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		original, err := repos.Journals.FindJournalEntryForUpdate(ctx, organizationID, journalEntryID)
		if err != nil {
			return err
		}
		if err := original.CanReverse(); err != nil {
			return fmt.Errorf("entry %s: %w", original.EntryNumber, err)
		}

		reference := original.Reference
		if reference == "" {
			reference = original.EntryNumber
		}
		description := req.Reason
		if description == "" {
			description = "Reversal of " + original.EntryNumber
		}
		originalID := original.JournalEntryID
		reversal, err = s.PostInTx(ctx, repos, portssvc.PostingRequest{
			OrganizationID: organizationID,
			PostingDate:    req.ReverseDate,
			Reference:      "REV-" + reference,
			Description:    description,
			Source:         domain.SourceReversal,
			Series:         domain.SeriesReversal,
			Lines:          domain.ReverseLines(original.Lines),
			ReversalOfID:   &originalID,
			UserID:         userID,
		})
		if err != nil {
			return err
		}
		return repos.Journals.SetReversedBy(ctx, organizationID, originalID, reversal.JournalEntryID, userID, s.Now())
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("journal_entry_id", journalEntryID),
		slog.String("reversal_id", reversal.JournalEntryID))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "journal_entry",
		EntityID:       journalEntryID,
		Action:         domain.AuditReverse,
		NewValues:      reversal,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return reversal, nil
}

func (s *journalService) GetJournalEntry(ctx context.Context, organizationID, journalEntryID string) (*domain.JournalEntry, error) {
	entry, err := s.txm.Repositories().Journals.FindJournalEntryByID(ctx, organizationID, journalEntryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get journal entry", slog.String("journal_entry_id", journalEntryID))
		}
		return nil, err
	}
	return entry, nil
}

// rejectionReason labels a failed posting for metrics.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrBalanceMismatch):
		return "unbalanced"
	case errors.Is(err, domain.ErrPeriodClosed):
		return "period_closed"
	case errors.Is(err, domain.ErrAccountInactive):
		return "inactive_account"
	case errors.Is(err, apperrors.ErrNotFound):
		return "unknown_account"
	case errors.Is(err, apperrors.ErrValidation):
		return "invalid_line"
	}
	return "other"
}
