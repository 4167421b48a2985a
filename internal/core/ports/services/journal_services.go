package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// NumberingSvc issues formatted document numbers.
type NumberingSvc interface {
	// Next issues a number in its own statement.
	Next(ctx context.Context, organizationID string, kind domain.SeriesKind) (string, error)

	// NextInTx issues a number inside the caller's unit of work.
	NextInTx(ctx context.Context, repos portsrepo.RepositoryProvider, organizationID string, kind domain.SeriesKind) (string, error)
}

// PostingRequest is what other workflows hand to the journal engine.
type PostingRequest struct {
	OrganizationID string
	PostingDate    time.Time
	Reference      string
	Description    string
	Source         domain.JournalSource
	Series         domain.SeriesKind // defaults to JE
	Lines          []domain.JournalLine
	ReversalOfID   *string
	Draft          bool
	UserID         string
}

// JournalPoster is the single writer of account balances. Other services post
// through it inside their own transaction.
type JournalPoster interface {
	PostInTx(ctx context.Context, repos portsrepo.RepositoryProvider, req PostingRequest) (*domain.JournalEntry, error)
}

// JournalReaderSvc defines read operations for journal entries
type JournalReaderSvc interface {
	GetJournalEntry(ctx context.Context, organizationID, journalEntryID string) (*domain.JournalEntry, error)
	GeneralLedgerReport(ctx context.Context, organizationID string, filter domain.LedgerFilter) (*domain.GeneralLedgerReport, error)
}

// JournalWriterSvc defines write operations for journal entries
type JournalWriterSvc interface {
	PostJournal(ctx context.Context, organizationID string, req dto.PostJournalRequest, userID string) (*domain.JournalEntry, error)
	DraftJournal(ctx context.Context, organizationID string, req dto.PostJournalRequest, userID string) (*domain.JournalEntry, error)
	PostDraft(ctx context.Context, organizationID, journalEntryID, userID string) (*domain.JournalEntry, error)
	ReverseJournal(ctx context.Context, organizationID, journalEntryID string, req dto.ReverseJournalRequest, userID string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalPoster
	JournalReaderSvc
	JournalWriterSvc
}
