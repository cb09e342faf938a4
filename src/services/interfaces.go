package services

import (
	"errors"
	"io"

	"github.com/username/sbiledger/src/models"
)

// ErrStaging means the uploaded bytes could not be written to a temp file
// before extraction. Purely an I/O problem, never the caller's fault.
var ErrStaging = errors.New("staging uploaded statement failed")

// ParseReport is the outcome of a parse-only run: every extracted
// transaction with fingerprint and import timestamp stamped, plus the
// statement metadata. Nothing is persisted.
type ParseReport struct {
	Filename     string               `json:"filename"`
	Pages        int                  `json:"pages"`
	Period       models.Period        `json:"period"`
	Transactions []models.Transaction `json:"transactions"`
}

// ImportReport is the outcome of a parse-and-save run. NewTransactions holds
// only the records added by this run.
type ImportReport struct {
	ImportID          string               `json:"import_id"`
	Filename          string               `json:"filename"`
	Pages             int                  `json:"pages"`
	Period            models.Period        `json:"period"`
	Parsed            int                  `json:"parsed"`
	New               int                  `json:"new"`
	DuplicatesSkipped int                  `json:"duplicates_skipped"`
	TotalInLedger     int                  `json:"total_in_csv"`
	NewTransactions   []models.Transaction `json:"new_transactions"`
}

// TransactionFilter narrows a ledger listing. Date bounds are inclusive and
// already validated as DD/MM/YYYY by the caller; zero Limit means no limit.
type TransactionFilter struct {
	From    string
	To      string
	TxnType string
	Offset  int
	Limit   int
}

// LedgerStatus feeds the health endpoint.
type LedgerStatus struct {
	LedgerExists     bool `json:"csv_exists"`
	TransactionCount int  `json:"transaction_count"`
}

// ImportService is the core pipeline surface consumed by the HTTP handlers
// and the CLI.
type ImportService interface {
	// ParseUpload stages the uploaded bytes to a temp file, extracts, and
	// returns the transactions without touching the ledger.
	ParseUpload(fileReader io.Reader, filename string) (*ParseReport, error)

	// ImportUpload stages the uploaded bytes and merges the extraction into
	// the ledger under the process-wide lock.
	ImportUpload(fileReader io.Reader, filename string) (*ImportReport, error)

	// ImportFile merges the statement at path into the ledger.
	ImportFile(path string) (*ImportReport, error)

	// ListTransactions returns ledger records matching the filter, in
	// ledger order.
	ListTransactions(filter TransactionFilter) ([]models.Transaction, error)

	// Status reports ledger existence and record count.
	Status() (LedgerStatus, error)
}
