// Package statement turns bank statement files into normalized transactions.
package statement

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// Record is one parsed statement line and the 1-based row it came from.
type Record struct {
	Row         int
	Transaction domain.NormalizedTransaction
}

// Result holds what a parser could read and the rows it could not.
type Result struct {
	Records []Record
	Errors  []domain.ImportError
}

// Parser reads one statement file format. Row-level problems go into
// Result.Errors; an error return means the file as a whole is unreadable.
type Parser interface {
	Format() string
	Parse(ctx context.Context, r io.Reader) (Result, error)
}

// Registry looks parsers up by format name.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry creates a registry holding the given parsers.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[string]Parser, len(parsers))}
	for _, p := range parsers {
		r.Register(p)
	}
	return r
}

// DefaultRegistry has every built-in parser registered.
func DefaultRegistry() *Registry {
	return NewRegistry(NewCSVParser())
}

// Register adds p, replacing any parser with the same format.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[strings.ToLower(p.Format())] = p
}

// Get returns the parser for format.
func (r *Registry) Get(format string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("unsupported statement format %q (supported: %s): %w",
			format, strings.Join(r.formatsLocked(), ", "), apperrors.ErrValidation)
	}
	return p, nil
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.formatsLocked()
}

func (r *Registry) formatsLocked() []string {
	formats := make([]string, 0, len(r.parsers))
	for f := range r.parsers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
