package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalReader defines read operations for journal entries
type JournalReader interface {
	// FindJournalEntryByID loads the header and lines.
	FindJournalEntryByID(ctx context.Context, organizationID, journalEntryID string) (*domain.JournalEntry, error)

	// FindJournalEntryForUpdate loads and locks the header, with lines.
	FindJournalEntryForUpdate(ctx context.Context, organizationID, journalEntryID string) (*domain.JournalEntry, error)

	// CountUnpostedInRange counts draft entries with a posting date in [from, to].
	CountUnpostedInRange(ctx context.Context, organizationID string, from, to time.Time) (int, error)
}

// JournalWriter defines write operations for journal entries
type JournalWriter interface {
	// SaveJournalEntry inserts the header and all its lines.
	SaveJournalEntry(ctx context.Context, entry domain.JournalEntry) error

	// MarkPosted flips a draft to posted.
	MarkPosted(ctx context.Context, organizationID, journalEntryID, userID string, now time.Time) error

	// SetReversedBy links an entry to the entry that reversed it.
	SetReversedBy(ctx context.Context, organizationID, journalEntryID, reversalID, userID string, now time.Time) error

	// MarkGLEntriesCleared flags posted lines of accountID as cleared by a reconciliation.
	MarkGLEntriesCleared(ctx context.Context, organizationID, accountID string, glEntryIDs []string, at time.Time) (int64, error)
}

// LedgerReportReader supports the general ledger report.
type LedgerReportReader interface {
	// ListLedgerLines returns posted lines matching filter in chronological order.
	ListLedgerLines(ctx context.Context, organizationID string, filter domain.LedgerFilter) ([]domain.LedgerLine, error)

	// OpeningBalances sums posted lines dated before the given date per account.
	OpeningBalances(ctx context.Context, organizationID string, accountID *string, before time.Time) (map[string]decimal.Decimal, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	LedgerReportReader
}
