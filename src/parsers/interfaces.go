package parsers

import "github.com/username/sbiledger/src/models"

// StatementDocument is a decrypted, page-addressable document. The sbi
// extractor walks it in natural reading order; src/pdfdoc provides the real
// implementation, tests provide fakes.
type StatementDocument interface {
	// PageCount reports the number of pages in the document.
	PageCount() int

	// PageText extracts the plain text of a page (0-based). Used only for
	// the first-page header check and the statement period.
	PageText(page int) (string, error)

	// PageTables extracts the tables of a page (0-based) as rows of cell
	// strings. Cell text keeps original line breaks: the ref-number scan
	// works on the pre-flattened lines of the description cell.
	PageTables(page int) ([][][]string, error)

	// Close releases the underlying file handle.
	Close() error
}

// DocumentOpener opens a statement at path with a decryption credential.
// A rejected credential must surface as ErrAuthentication.
type DocumentOpener interface {
	Open(path, password string) (StatementDocument, error)
}

// StatementParser extracts transactions from a statement file. Implemented
// by sbi.Extractor; services depend on this interface so tests can fake it.
type StatementParser interface {
	Parse(path, password string) (*Result, error)
}

// Result is one extraction run: transactions in document order with ParseSeq
// assigned from 0, the best-effort statement period, and the page count.
type Result struct {
	Transactions []models.Transaction
	Period       models.Period
	PageCount    int
}
