package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/metrics"
	"github.com/google/uuid"
)

const jobRecurringEntries = "recurring_entries"

type recurringService struct {
	BaseService
	txm    portsrepo.TransactionManager
	poster portssvc.JournalPoster
}

// NewRecurringService creates the journal template and recurring posting service.
func NewRecurringService(txm portsrepo.TransactionManager, poster portssvc.JournalPoster, options ...ServiceOption) portssvc.RecurringSvcFacade {
	return &recurringService{BaseService: newBaseService(options), txm: txm, poster: poster}
}

var _ portssvc.RecurringSvcFacade = (*recurringService)(nil)

func (s *recurringService) CreateJournalTemplate(ctx context.Context, organizationID string, req dto.CreateJournalTemplateRequest, userID string) (*domain.JournalTemplate, error) {
	template := domain.JournalTemplate{
		TemplateID:     uuid.NewString(),
		OrganizationID: organizationID,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		AuditFields:    domain.NewAuditFields(userID, s.Now()),
	}
	for _, l := range req.Lines {
		template.Lines = append(template.Lines, domain.TemplateLine{
			AccountID:     l.AccountID,
			DebitFormula:  strings.TrimSpace(l.DebitFormula),
			CreditFormula: strings.TrimSpace(l.CreditFormula),
			Description:   l.Description,
		})
	}
	if template.Name == "" {
		return nil, fmt.Errorf("template name is required: %w", apperrors.ErrValidation)
	}
	// A template that cannot post today will not post on schedule either.
	lines, err := template.Evaluate()
	if err != nil {
		return nil, err
	}
	if _, _, err := domain.ValidateLines(lines); err != nil {
		return nil, fmt.Errorf("template %s: %w", template.Name, err)
	}

	if err := s.txm.Repositories().Recurring.SaveTemplate(ctx, template); err != nil {
		s.LogError(ctx, err, "Failed to save journal template", slog.String("name", template.Name))
		return nil, fmt.Errorf("failed to create journal template: %w", err)
	}
	s.LogInfo(ctx, "Journal template created", slog.String("template_id", template.TemplateID))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "journal_template",
		EntityID:       template.TemplateID,
		Action:         domain.AuditCreate,
		NewValues:      template,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return &template, nil
}

func (s *recurringService) CreateRecurringEntry(ctx context.Context, organizationID string, req dto.CreateRecurringEntryRequest, userID string) (*domain.RecurringEntry, error) {
	if _, err := req.Frequency.Months(); err != nil {
		return nil, err
	}
	start := domain.DateOnly(req.StartDate)
	var end *time.Time
	if req.EndDate != nil {
		e := domain.DateOnly(*req.EndDate)
		if e.Before(start) {
			return nil, fmt.Errorf("end date is before start date: %w", apperrors.ErrValidation)
		}
		end = &e
	}

	repos := s.txm.Repositories()
	if _, err := repos.Recurring.FindTemplateByID(ctx, organizationID, req.TemplateID); err != nil {
		return nil, fmt.Errorf("template %s: %w", req.TemplateID, err)
	}

	entry := domain.RecurringEntry{
		RecurringEntryID: uuid.NewString(),
		OrganizationID:   organizationID,
		TemplateID:       req.TemplateID,
		Name:             strings.TrimSpace(req.Name),
		Frequency:        req.Frequency,
		StartDate:        start,
		EndDate:          end,
		NextRunDate:      start,
		IsActive:         true,
		AuditFields:      domain.NewAuditFields(userID, s.Now()),
	}
	if err := repos.Recurring.SaveRecurringEntry(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to save recurring entry", slog.String("name", entry.Name))
		return nil, fmt.Errorf("failed to create recurring entry: %w", err)
	}
	s.LogInfo(ctx, "Recurring entry created",
		slog.String("recurring_entry_id", entry.RecurringEntryID),
		slog.Time("next_run_date", entry.NextRunDate))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "recurring_entry",
		EntityID:       entry.RecurringEntryID,
		Action:         domain.AuditCreate,
		NewValues:      entry,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return &entry, nil
}

// ProcessRecurringEntries posts one occurrence of every entry due by asOf.
// Each entry commits on its own; failures are counted and the batch continues.
func (s *recurringService) ProcessRecurringEntries(ctx context.Context, organizationID string, asOf time.Time) (domain.BatchResult, error) {
	start := time.Now()
	defer func() {
		metrics.BatchDuration.WithLabelValues(jobRecurringEntries).Observe(time.Since(start).Seconds())
	}()

	var result domain.BatchResult
	asOf = domain.DateOnly(asOf)
	due, err := s.txm.Repositories().Recurring.ListDueRecurringEntries(ctx, organizationID, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to list due recurring entries", slog.String("organization_id", organizationID))
		return result, fmt.Errorf("failed to list recurring entries: %w", err)
	}

	for _, e := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		posted, err := s.runRecurringEntry(ctx, organizationID, e.RecurringEntryID, asOf)
		if err != nil {
			s.LogError(ctx, err, "Recurring entry failed",
				slog.String("recurring_entry_id", e.RecurringEntryID),
				slog.String("organization_id", organizationID))
			metrics.BatchItems.WithLabelValues(jobRecurringEntries, "failed").Inc()
			result.Failure(e.RecurringEntryID, err)
			continue
		}
		if !posted {
			continue
		}
		metrics.BatchItems.WithLabelValues(jobRecurringEntries, "succeeded").Inc()
		result.Success()
	}

	s.LogInfo(ctx, "Recurring entries processed",
		slog.String("organization_id", organizationID),
		slog.Int("processed", result.Processed),
		slog.Int("failed", result.Failed))
	return result, nil
}

// runRecurringEntry reports false when the entry was no longer due once locked.
func (s *recurringService) runRecurringEntry(ctx context.Context, organizationID, recurringEntryID string, asOf time.Time) (bool, error) {
	posted := false
	var journal *domain.JournalEntry
	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		entry, err := repos.Recurring.FindRecurringEntryForUpdate(ctx, organizationID, recurringEntryID)
		if err != nil {
			return err
		}
		if !entry.IsActive || entry.NextRunDate.After(asOf) {
			return nil
		}
		template, err := repos.Recurring.FindTemplateByID(ctx, organizationID, entry.TemplateID)
		if err != nil {
			return fmt.Errorf("template %s: %w", entry.TemplateID, err)
		}
		lines, err := template.Evaluate()
		if err != nil {
			return err
		}

		description := template.Description
		if description == "" {
			description = template.Name
		}
		journal, err = s.poster.PostInTx(ctx, repos, portssvc.PostingRequest{
			OrganizationID: organizationID,
			PostingDate:    entry.NextRunDate,
			Reference:      entry.Name,
			Description:    description,
			Source:         domain.SourceRecurring,
			Lines:          lines,
			UserID:         domain.SystemUserID,
		})
		if err != nil {
			return err
		}

		if err := entry.MarkRun(); err != nil {
			return err
		}
		entry.Touch(domain.SystemUserID, s.Now())
		if err := repos.Recurring.UpdateRecurringSchedule(ctx, *entry); err != nil {
			return fmt.Errorf("failed to advance schedule: %w", err)
		}
		posted = true
		return nil
	})
	if err != nil || !posted {
		return false, err
	}

	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "recurring_entry",
		EntityID:       recurringEntryID,
		Action:         domain.AuditPost,
		NewValues:      journal,
		OrganizationID: organizationID,
		UserID:         domain.SystemUserID,
	})
	return true, nil
}

func (s *recurringService) ProcessAllRecurringEntries(ctx context.Context, asOf time.Time) (domain.BatchResult, error) {
	var total domain.BatchResult
	orgs, err := s.txm.Repositories().Recurring.ListOrganizationsWithDueEntries(ctx, domain.DateOnly(asOf))
	if err != nil {
		s.LogError(ctx, err, "Failed to list organizations with due recurring entries")
		return total, fmt.Errorf("failed to list organizations: %w", err)
	}
	for _, org := range orgs {
		result, err := s.ProcessRecurringEntries(ctx, org, asOf)
		total.Merge(result)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
