package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBankAccountRequest defines the data needed to register a bank account.
type CreateBankAccountRequest struct {
	Name          string `json:"name" binding:"required"`
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber" binding:"required"`
	GLAccountID   string `json:"glAccountID" binding:"required"`
	CurrencyCode  string `json:"currencyCode" binding:"required,len=3,uppercase"`
}

// StatementLine is one statement row supplied as JSON.
type StatementLine struct {
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

// ImportStatementRequest carries already-normalized statement rows.
// Rows are validated individually by the import, not by binding.
type ImportStatementRequest struct {
	Transactions []StatementLine `json:"transactions" binding:"required,min=1"`
}

// ToNormalized converts request rows to domain statement rows.
func (r ImportStatementRequest) ToNormalized() []domain.NormalizedTransaction {
	out := make([]domain.NormalizedTransaction, len(r.Transactions))
	for i, t := range r.Transactions {
		out[i] = domain.NormalizedTransaction{Date: t.Date, Amount: t.Amount, Description: t.Description, Reference: t.Reference}
	}
	return out
}

// ReconciliationItemRequest is one reconciling item.
type ReconciliationItemRequest struct {
	ItemType          domain.ReconciliationItemType `json:"itemType" binding:"required,oneof=DEPOSIT_IN_TRANSIT OUTSTANDING_CHECK BANK_ADJUSTMENT BOOK_ADJUSTMENT"`
	Amount            decimal.Decimal               `json:"amount"`
	Description       string                        `json:"description"`
	BankTransactionID *string                       `json:"bankTransactionID"`
	GLEntryID         *string                       `json:"glEntryID"`
}

// ReconcileRequest defines a reconciliation attempt against a statement.
type ReconcileRequest struct {
	StatementDate         time.Time                   `json:"statementDate" binding:"required"`
	StatementBalance      decimal.Decimal             `json:"statementBalance"`
	Items                 []ReconciliationItemRequest `json:"items" binding:"omitempty,dive"`
	ClearedTransactionIDs []string                    `json:"clearedTransactionIDs"`
	ClearedGLEntryIDs     []string                    `json:"clearedGLEntryIDs"`
}

// ToDomainItems converts request items to domain reconciliation items.
func (r ReconcileRequest) ToDomainItems() []domain.ReconciliationItem {
	out := make([]domain.ReconciliationItem, len(r.Items))
	for i, it := range r.Items {
		out[i] = domain.ReconciliationItem{
			ItemType:          it.ItemType,
			Amount:            it.Amount,
			Description:       it.Description,
			BankTransactionID: it.BankTransactionID,
			GLEntryID:         it.GLEntryID,
		}
	}
	return out
}

// CreateForecastRequest defines a cash-flow forecast to build.
type CreateForecastRequest struct {
	BankAccountIDs []string                   `json:"bankAccountIDs"` // all bank accounts when empty
	StartDate      time.Time                  `json:"startDate" binding:"required"`
	Periods        int                        `json:"periods" binding:"required,min=1,max=104"`
	Granularity    domain.ForecastGranularity `json:"granularity" binding:"required,oneof=weekly monthly"`
}
