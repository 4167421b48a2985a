package repositories

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// NumberingRepository issues document numbers.
type NumberingRepository interface {
	// NextNumber atomically returns the series (creating it from defaults when
	// missing) together with the number just issued, and advances the series.
	NextNumber(ctx context.Context, defaults domain.NumberingSeries) (domain.NumberingSeries, int64, error)
}
