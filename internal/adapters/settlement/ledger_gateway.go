// Package settlement holds SettlementGateway implementations.
package settlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/middleware"
)

// LedgerOnlyGateway records the settlement in the ledger without moving
// money through a bank. Payments are assumed settled out of band.
type LedgerOnlyGateway struct{}

var _ portssvc.SettlementGateway = LedgerOnlyGateway{}

func (LedgerOnlyGateway) Settle(ctx context.Context, payment domain.VendorPayment) error {
	if !payment.Amount.IsPositive() {
		return fmt.Errorf("payment %s has no amount to settle: %w", payment.PaymentNumber, apperrors.ErrValidation)
	}
	middleware.GetLoggerFromCtx(ctx).Info("Payment settled in ledger only",
		slog.String("payment_id", payment.PaymentID),
		slog.String("payment_number", payment.PaymentNumber),
		slog.String("amount", payment.Amount.String()),
	)
	return nil
}
