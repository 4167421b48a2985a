package pgsql

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

type PgxForecastRepository struct {
	BaseRepository
}

func newPgxForecastRepository(db Querier) portsrepo.ForecastWriter {
	return &PgxForecastRepository{BaseRepository: BaseRepository{db: db}}
}

var _ portsrepo.ForecastWriter = (*PgxForecastRepository)(nil)

// SaveForecast stores the forecast; its periods are kept as a JSONB document.
func (r *PgxForecastRepository) SaveForecast(ctx context.Context, forecast domain.CashFlowForecast) error {
	bankAccountIDs := forecast.BankAccountIDs
	if bankAccountIDs == nil {
		bankAccountIDs = []string{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO cash_flow_forecasts (forecast_id, organization_id, start_date, end_date, granularity, bank_account_ids,
			opening_balance, closing_balance, periods, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`,
		forecast.ForecastID, forecast.OrganizationID, forecast.StartDate, forecast.EndDate, forecast.Granularity, bankAccountIDs,
		forecast.OpeningBalance, forecast.ClosingBalance, forecast.Periods,
		forecast.CreatedAt, forecast.CreatedBy, forecast.LastUpdatedAt, forecast.LastUpdatedBy)
	return mapError(err, "save forecast")
}
