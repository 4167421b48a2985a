package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCashFlowForecast projects the cash position of the selected bank
// accounts. Outflows are scheduled vendor payments plus approved bills coming
// due; receivables are not modelled so inflows stay zero.
func (s *bankingService) CreateCashFlowForecast(ctx context.Context, organizationID string, req dto.CreateForecastRequest, userID string) (*domain.CashFlowForecast, error) {
	periods, err := domain.NewForecastPeriods(req.StartDate, req.Periods, req.Granularity)
	if err != nil {
		return nil, err
	}
	start := periods[0].StartDate
	end := periods[len(periods)-1].EndDate

	var forecast domain.CashFlowForecast
	err = s.txm.WithinTx(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		accounts, err := s.forecastAccounts(ctx, repos, organizationID, req.BankAccountIDs)
		if err != nil {
			return err
		}

		opening := decimal.Zero
		seenGL := make(map[string]struct{}, len(accounts))
		bankIDs := make([]string, 0, len(accounts))
		for _, a := range accounts {
			bankIDs = append(bankIDs, a.BankAccountID)
			if _, ok := seenGL[a.GLAccountID]; ok {
				continue
			}
			seenGL[a.GLAccountID] = struct{}{}
			gl, err := repos.Accounts.FindAccountByID(ctx, organizationID, a.GLAccountID)
			if err != nil {
				return fmt.Errorf("GL account of bank account %s: %w", a.Name, err)
			}
			opening = opening.Add(gl.Balance)
		}

		var movements []domain.CashMovement
		scheduled, err := repos.Payments.ListScheduledPayments(ctx, organizationID, bankIDs, end)
		if err != nil {
			return fmt.Errorf("failed to list scheduled payments: %w", err)
		}
		for _, p := range scheduled {
			date := p.PaymentDate
			if p.ScheduledDate != nil {
				date = *p.ScheduledDate
			}
			movements = append(movements, domain.CashMovement{Date: date, Amount: p.Amount.Neg()})
		}

		bills, err := repos.Bills.ListOutstandingBills(ctx, organizationID, nil)
		if err != nil {
			return fmt.Errorf("failed to list outstanding bills: %w", err)
		}
		for _, b := range bills {
			if b.ApprovalStatus != domain.ApprovalApproved || b.DueDate.After(end) {
				continue
			}
			movements = append(movements, domain.CashMovement{Date: b.DueDate, Amount: b.OutstandingAmount.Neg()})
		}

		closing := domain.ApplyMovements(periods, opening, movements)
		forecast = domain.CashFlowForecast{
			ForecastID:     uuid.NewString(),
			OrganizationID: organizationID,
			StartDate:      start,
			EndDate:        end,
			Granularity:    req.Granularity,
			BankAccountIDs: bankIDs,
			OpeningBalance: opening,
			ClosingBalance: closing,
			Periods:        periods,
			AuditFields:    domain.NewAuditFields(userID, s.Now()),
		}
		if err := repos.Forecasts.SaveForecast(ctx, forecast); err != nil {
			s.LogError(ctx, err, "Failed to save forecast", slog.String("organization_id", organizationID))
			return fmt.Errorf("failed to save forecast: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Cash flow forecast created",
		slog.String("forecast_id", forecast.ForecastID),
		slog.Int("periods", len(forecast.Periods)),
		slog.String("closing_balance", forecast.ClosingBalance.String()))
	s.Audit(ctx, domain.AuditEntry{
		EntityType:     "cash_flow_forecast",
		EntityID:       forecast.ForecastID,
		Action:         domain.AuditCreate,
		NewValues:      forecast,
		OrganizationID: organizationID,
		UserID:         userID,
	})
	return &forecast, nil
}

func (s *bankingService) forecastAccounts(ctx context.Context, repos portsrepo.RepositoryProvider, organizationID string, ids []string) ([]domain.BankAccount, error) {
	if len(ids) == 0 {
		accounts, err := repos.Banking.ListBankAccounts(ctx, organizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to list bank accounts: %w", err)
		}
		return accounts, nil
	}
	accounts := make([]domain.BankAccount, 0, len(ids))
	for _, id := range ids {
		a, err := repos.Banking.FindBankAccountByID(ctx, organizationID, id)
		if err != nil {
			return nil, fmt.Errorf("bank account %s: %w", id, err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, nil
}
