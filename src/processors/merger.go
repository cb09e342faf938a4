// src/processors/merger.go
package processors

import (
	"sort"

	"github.com/username/sbiledger/src/models"
	"github.com/username/sbiledger/src/parsers/sbi"
)

// MergeResult is the outcome of folding one extraction into the ledger.
type MergeResult struct {
	// Merged is the full ledger after the merge: sorted, renumbered 1..N.
	Merged []models.Transaction
	// Accepted holds only the newly added records, for reporting.
	Accepted []models.Transaction
	// Duplicates counts extracted records skipped because their fingerprint
	// was already in the ledger.
	Duplicates int
}

// Merge folds freshly extracted transactions into an existing ledger.
//
// Each extracted record is fingerprinted; known fingerprints are counted as
// duplicates and dropped. Accepted records get importedAt stamped and their
// ParseSeq shifted by seqOffset (the existing ledger's size), so same-date
// records from different imports keep their import order. The combined list
// is then sorted by post date ascending with unparseable dates last, ParseSeq
// breaking ties, and TxnID reassigned densely from 1.
//
// Merging a document into a ledger that already contains it accepts nothing
// and leaves the order unchanged. knownHashes is extended in place with the
// accepted fingerprints.
func Merge(existing []models.Transaction, knownHashes map[string]struct{}, extracted []models.Transaction, seqOffset int, importedAt string) MergeResult {
	result := MergeResult{}

	for _, txn := range extracted {
		h := Fingerprint(txn)
		if _, dup := knownHashes[h]; dup {
			result.Duplicates++
			continue
		}
		txn.Hash = h
		txn.ImportedAt = importedAt
		txn.ParseSeq += seqOffset
		knownHashes[h] = struct{}{}
		result.Accepted = append(result.Accepted, txn)
	}

	merged := make([]models.Transaction, 0, len(existing)+len(result.Accepted))
	merged = append(merged, existing...)
	merged = append(merged, result.Accepted...)
	SortLedger(merged)

	for i := range merged {
		merged[i].TxnID = i + 1
	}
	result.Merged = merged
	return result
}

// SortLedger orders records by post date ascending, then by ParseSeq. The
// key is total, so re-sorting the same records always yields the same order.
func SortLedger(txns []models.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		di, iok := sbi.ParseStatementDate(txns[i].PostDate)
		dj, jok := sbi.ParseStatementDate(txns[j].PostDate)
		switch {
		case iok && !jok:
			return true
		case !iok && jok:
			return false
		case iok && jok && !di.Equal(dj):
			return di.Before(dj)
		default:
			return txns[i].ParseSeq < txns[j].ParseSeq
		}
	})
}
