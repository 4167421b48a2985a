package services

import (
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/SscSPs/ledger_core/internal/statement"
)

// Collaborators are the external systems the services call out to.
type Collaborators struct {
	Auditor    portssvc.AuditService
	Settlement portssvc.SettlementGateway
	Parsers    *statement.Registry
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, txm portsrepo.TransactionManager, collab Collaborators) *portssvc.ServiceContainer {
	options := []ServiceOption{WithAuditor(collab.Auditor)}
	payablesCfg := PayablesConfig{
		PayableAccountCode:    cfg.APAccountCode,
		AutoApproveBills:      cfg.APAutoApproveBills,
		MatchTolerancePercent: cfg.APMatchTolerancePercent,
	}

	container := &portssvc.ServiceContainer{}

	// Numbering and journal first; every other workflow posts through them.
	container.Numbering = NewNumberingService(txm, options...)
	container.Journal = NewJournalService(txm, container.Numbering, options...)

	container.Account = NewAccountService(txm, options...)
	container.Payables = NewPayablesService(txm, container.Numbering, container.Journal, payablesCfg, options...)
	container.Payments = NewPaymentService(txm, container.Numbering, container.Journal, collab.Settlement, payablesCfg, options...)
	container.Banking = NewBankingService(txm, collab.Parsers, options...)
	container.Periods = NewPeriodService(txm, container.Journal, options...)
	container.Recurring = NewRecurringService(txm, container.Journal, options...)

	return container
}
