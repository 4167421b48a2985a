package pgsql

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

type PgxNumberingRepository struct {
	BaseRepository
}

func newPgxNumberingRepository(db Querier) portsrepo.NumberingRepository {
	return &PgxNumberingRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.NumberingRepository = (*PgxNumberingRepository)(nil)

// NextNumber issues a number with a single upsert. The row lock taken by
// ON CONFLICT DO UPDATE serializes concurrent callers, so every caller sees a
// distinct current_number. On first use the series is stored already advanced
// past defaults.CurrentNumber.
func (r *PgxNumberingRepository) NextNumber(ctx context.Context, defaults domain.NumberingSeries) (domain.NumberingSeries, int64, error) {
	query := `
		INSERT INTO numbering_series (organization_id, kind, prefix, current_number, pad_length, suffix)
		VALUES ($1, $2, $3, $4 + 1, $5, $6)
		ON CONFLICT (organization_id, kind)
		DO UPDATE SET current_number = numbering_series.current_number + 1
		RETURNING prefix, current_number, pad_length, suffix;
	`
	series := domain.NumberingSeries{OrganizationID: defaults.OrganizationID, Kind: defaults.Kind}
	err := r.db.QueryRow(ctx, query,
		defaults.OrganizationID,
		defaults.Kind,
		defaults.Prefix,
		defaults.CurrentNumber,
		defaults.PadLength,
		defaults.Suffix,
	).Scan(&series.Prefix, &series.CurrentNumber, &series.PadLength, &series.Suffix)
	if err != nil {
		return domain.NumberingSeries{}, 0, mapError(err, "advance "+string(defaults.Kind)+" series")
	}
	return series, series.CurrentNumber - 1, nil
}
