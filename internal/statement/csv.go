package statement

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{"2006-01-02", "02-01-2006", "2006/01/02", "02/01/2006"}

// CSVParser reads statements with a header row. Columns are matched by name,
// case-insensitively: date, description, reference, and either amount or a
// debit/credit pair (amount = credit - debit).
type CSVParser struct {
	Comma rune
}

// NewCSVParser creates a comma-separated parser.
func NewCSVParser() *CSVParser {
	return &CSVParser{Comma: ','}
}

func (p *CSVParser) Format() string { return "csv" }

type csvColumns struct {
	date, amount, debit, credit, description, reference int
}

func (p *CSVParser) Parse(ctx context.Context, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if p.Comma != 0 {
		reader.Comma = p.Comma
	}

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, fmt.Errorf("statement is empty: %w", apperrors.ErrValidation)
		}
		return Result{}, fmt.Errorf("read statement header: %w", apperrors.ErrValidation)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return Result{}, err
	}

	var result Result
	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Errors = append(result.Errors, domain.ImportError{Row: parseErr.StartLine, Reason: parseErr.Err.Error()})
				continue
			}
			return Result{}, fmt.Errorf("read statement: %w", err)
		}
		row, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}
		txn, err := cols.parse(record)
		if err != nil {
			result.Errors = append(result.Errors, domain.ImportError{Row: row, Reason: err.Error()})
			continue
		}
		result.Records = append(result.Records, Record{Row: row, Transaction: txn})
	}
	return result, nil
}

func mapColumns(header []string) (csvColumns, error) {
	cols := csvColumns{date: -1, amount: -1, debit: -1, credit: -1, description: -1, reference: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "date", "transaction_date", "transaction date":
			cols.date = i
		case "amount":
			cols.amount = i
		case "debit", "withdrawal":
			cols.debit = i
		case "credit", "deposit":
			cols.credit = i
		case "description", "narrative", "details":
			cols.description = i
		case "reference", "ref":
			cols.reference = i
		}
	}
	if cols.date < 0 {
		return cols, fmt.Errorf("statement header has no date column: %w", apperrors.ErrValidation)
	}
	if cols.amount < 0 && cols.debit < 0 && cols.credit < 0 {
		return cols, fmt.Errorf("statement header has no amount or debit/credit columns: %w", apperrors.ErrValidation)
	}
	return cols, nil
}

func (c csvColumns) parse(record []string) (domain.NormalizedTransaction, error) {
	var txn domain.NormalizedTransaction

	dateValue := field(record, c.date)
	if dateValue != "" {
		d, err := parseDate(dateValue)
		if err != nil {
			return txn, err
		}
		txn.Date = d
	}

	if c.amount >= 0 {
		amount, err := parseAmount(field(record, c.amount))
		if err != nil {
			return txn, err
		}
		txn.Amount = amount
	} else {
		debit, err := parseAmount(field(record, c.debit))
		if err != nil {
			return txn, err
		}
		credit, err := parseAmount(field(record, c.credit))
		if err != nil {
			return txn, err
		}
		txn.Amount = credit.Sub(debit.Abs())
	}

	txn.Description = field(record, c.description)
	txn.Reference = field(record, c.reference)
	return txn, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

func parseAmount(value string) (decimal.Decimal, error) {
	v := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if v == "" {
		return decimal.Zero, nil
	}
	// Accounting notation: (12.50) is -12.50.
	if strings.HasPrefix(v, "(") && strings.HasSuffix(v, ")") {
		v = "-" + strings.TrimSuffix(strings.TrimPrefix(v, "("), ")")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", value)
	}
	return d, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
