// src/parsers/sbi/classifier.go
package sbi

import "strings"

// Column positions in an SBI statement table row.
const (
	ColTxnDate = iota
	ColValueDate
	ColDescription
	ColChequeNo
	ColDebit
	ColCredit
	ColBalance

	MinCols = 7
)

// RowKind is the classifier verdict for one raw table row.
type RowKind int

const (
	// RowSkip rows are structurally not transactions: empty, too few cells,
	// or no parseable date in the first column.
	RowSkip RowKind = iota

	// RowSummary rows are row-shaped ("Statement Summary", "Brought
	// Forward") but carry no transaction semantics and are never emitted.
	RowSummary

	// RowTransaction rows move on to field normalization. The extractor
	// still drops them when debit, credit and balance all come back absent.
	RowTransaction
)

var summaryMarkers = []string{"Statement Summary", "Brought Forward"}

// Classify decides what a raw table row is. Pure function of the row.
func Classify(row []string) RowKind {
	if len(row) == 0 {
		return RowSkip
	}
	for _, marker := range summaryMarkers {
		if strings.Contains(row[0], marker) {
			return RowSummary
		}
	}
	if len(row) < MinCols {
		return RowSkip
	}
	if !IsStatementDate(row[ColTxnDate]) {
		return RowSkip
	}
	return RowTransaction
}
