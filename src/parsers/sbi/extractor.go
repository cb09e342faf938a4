// src/parsers/sbi/extractor.go
package sbi

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/username/sbiledger/src/logger"
	"github.com/username/sbiledger/src/models"
	"github.com/username/sbiledger/src/parsers"
)

var (
	issuerMarkerRe = regexp.MustCompile(`(?i)State Bank|SBI|Account\s*Number`)
	periodRe       = regexp.MustCompile(`(?i)Statement\s+From\s*:\s*(\d{2}-\d{2}-\d{4})\s+to\s+(\d{2}-\d{2}-\d{4})`)
)

// Extractor walks a decrypted SBI statement and emits transactions in the
// document's natural reading order: pages, then tables within a page, then
// rows within a table. That order is load-bearing; the merger uses it to
// break ties between same-date records.
type Extractor struct {
	opener parsers.DocumentOpener
}

func NewExtractor(opener parsers.DocumentOpener) *Extractor {
	return &Extractor{opener: opener}
}

// Parse extracts all transaction rows from the statement at path.
//
// Failure order matters: a rejected credential surfaces as
// parsers.ErrAuthentication before any content validation runs, an empty
// document as parsers.ErrEmptyDocument, and a first page without an SBI
// header as parsers.ErrFormatMismatch. A missing statement period is
// tolerated and logged, never fatal.
func (e *Extractor) Parse(path, password string) (*parsers.Result, error) {
	doc, err := e.opener.Open(path, password)
	if err != nil {
		if isAuthenticationFailure(err) {
			return nil, fmt.Errorf("%w: %s", parsers.ErrAuthentication, path)
		}
		return nil, fmt.Errorf("opening statement %s: %w", path, err)
	}
	defer doc.Close()

	pageCount := doc.PageCount()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: %s", parsers.ErrEmptyDocument, path)
	}

	firstPageText, err := doc.PageText(0)
	if err != nil {
		logger.L.Warn("Failed to extract first page text", "path", path, "error", err)
		firstPageText = ""
	}
	if !issuerMarkerRe.MatchString(firstPageText) {
		return nil, fmt.Errorf("%w: %s", parsers.ErrFormatMismatch, path)
	}

	period := extractStatementPeriod(firstPageText)
	if period.From == "" {
		logger.L.Warn("Statement period label not found on first page", "path", path)
	}

	result := &parsers.Result{
		Period:    period,
		PageCount: pageCount,
	}

	seq := 0
	for page := 0; page < pageCount; page++ {
		tables, err := doc.PageTables(page)
		if err != nil {
			logger.L.Warn("Failed to extract tables from page", "path", path, "page", page, "error", err)
			continue
		}
		for _, table := range tables {
			for _, row := range table {
				txn, ok := normalizeRow(row)
				if !ok {
					continue
				}
				txn.ParseSeq = seq
				seq++
				result.Transactions = append(result.Transactions, txn)
			}
		}
	}

	return result, nil
}

// normalizeRow classifies a raw row and, for transaction rows, normalizes
// every field. A row whose debit, credit and balance all normalize to absent
// carries no monetary information and is dropped here.
func normalizeRow(row []string) (models.Transaction, bool) {
	if Classify(row) != RowTransaction {
		return models.Transaction{}, false
	}

	debit := NormalizeAmount(row[ColDebit])
	credit := NormalizeAmount(row[ColCredit])
	balance := NormalizeAmount(row[ColBalance])
	if debit == "" && credit == "" && balance == "" {
		return models.Transaction{}, false
	}

	rawDesc := row[ColDescription]
	return models.Transaction{
		PostDate:      strings.TrimSpace(row[ColTxnDate]),
		ValueDate:     strings.TrimSpace(row[ColValueDate]),
		Details:       CleanDescription(rawDesc),
		RefNo:         ExtractRefNumber(rawDesc),
		Debit:         debit,
		Credit:        credit,
		Balance:       balance,
		TxnType:       models.DeriveTxnType(debit, credit),
		AccountSource: models.AccountSource,
	}, true
}

func extractStatementPeriod(firstPageText string) models.Period {
	if m := periodRe.FindStringSubmatch(firstPageText); m != nil {
		return models.Period{From: m[1], To: m[2]}
	}
	return models.Period{}
}

// isAuthenticationFailure recognizes decryption failures from the document
// layer, either the typed sentinel or the error strings PDF readers emit.
func isAuthenticationFailure(err error) bool {
	if errors.Is(err, parsers.ErrAuthentication) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") ||
		strings.Contains(msg, "decrypt") ||
		strings.Contains(msg, "encrypted")
}
