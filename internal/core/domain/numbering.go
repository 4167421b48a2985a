package domain

import (
	"fmt"
	"strings"
)

// SeriesKind identifies an independent document numbering sequence.
type SeriesKind string

const (
	SeriesJournal  SeriesKind = "JE"
	SeriesReversal SeriesKind = "REV"
	SeriesClosing  SeriesKind = "CLOSING"
	SeriesBill     SeriesKind = "BILL"
	SeriesPayment  SeriesKind = "PAY"
)

// DefaultPadLength is the zero-padded width of a lazily created series.
const DefaultPadLength = 6

// NumberingSeries holds the formatting and the next number to issue for one
// (organization, kind) pair. CurrentNumber only ever increases.
type NumberingSeries struct {
	OrganizationID string     `json:"organizationID"`
	Kind           SeriesKind `json:"kind"`
	Prefix         string     `json:"prefix"`
	CurrentNumber  int64      `json:"currentNumber"`
	PadLength      int        `json:"padLength"`
	Suffix         string     `json:"suffix"`
}

// DefaultSeries is the series created on first use of kind.
func DefaultSeries(organizationID string, kind SeriesKind) NumberingSeries {
	return NumberingSeries{
		OrganizationID: organizationID,
		Kind:           kind,
		Prefix:         string(kind) + "-",
		CurrentNumber:  1,
		PadLength:      DefaultPadLength,
	}
}

// Format renders number using the series prefix, padding and suffix.
func (s NumberingSeries) Format(number int64) string {
	var b strings.Builder
	b.WriteString(s.Prefix)
	b.WriteString(fmt.Sprintf("%0*d", s.PadLength, number))
	b.WriteString(s.Suffix)
	return b.String()
}
