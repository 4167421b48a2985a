package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/metrics"
)

type numberingService struct {
	BaseService
	txm portsrepo.TransactionManager
}

// NewNumberingService creates the document numbering service.
func NewNumberingService(txm portsrepo.TransactionManager, options ...ServiceOption) portssvc.NumberingSvc {
	return &numberingService{BaseService: newBaseService(options), txm: txm}
}

var _ portssvc.NumberingSvc = (*numberingService)(nil)

func (s *numberingService) Next(ctx context.Context, organizationID string, kind domain.SeriesKind) (string, error) {
	return s.NextInTx(ctx, s.txm.Repositories(), organizationID, kind)
}

func (s *numberingService) NextInTx(ctx context.Context, repos portsrepo.RepositoryProvider, organizationID string, kind domain.SeriesKind) (string, error) {
	if organizationID == "" || kind == "" {
		return "", fmt.Errorf("organization and series kind are required: %w", apperrors.ErrValidation)
	}
	series, number, err := repos.Numbering.NextNumber(ctx, domain.DefaultSeries(organizationID, kind))
	if err != nil {
		s.LogError(ctx, err, "Failed to issue document number",
			slog.String("organization_id", organizationID),
			slog.String("kind", string(kind)))
		return "", fmt.Errorf("issue %s number: %w", kind, err)
	}
	metrics.NumbersIssued.WithLabelValues(string(kind)).Inc()
	return series.Format(number), nil
}
