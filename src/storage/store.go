// src/storage/store.go
//
// The ledger persists as a single flat CSV, read in full before every merge
// and rewritten in full after. Writes stage into a temp file in the target
// directory and rename over the old ledger, so a crash or a concurrent
// reader never sees a half-written file.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/username/sbiledger/src/models"
)

// ErrSchema means the persisted ledger is missing required columns. There is
// no auto-migration: silently rewriting an incompatible ledger risks losing
// data, so the operator is told to delete and regenerate instead.
var ErrSchema = errors.New("ledger CSV is missing required columns: delete the CSV and re-run to regenerate")

// Store reads and writes the ledger at a fixed path. It holds no lock
// itself; the caller of load+merge+save owns the exclusion (see services).
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Exists reports whether a ledger file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the full ledger and its fingerprint set. A missing file is an
// empty ledger, not an error. Columns are keyed by header name, so extra
// columns are ignored; a missing required column is ErrSchema.
func (s *Store) Load() ([]models.Transaction, map[string]struct{}, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, map[string]struct{}{}, nil
	}

	header := records[0]
	if len(header) > 0 {
		// Sheets and Excel exports prepend a UTF-8 BOM.
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range models.CSVFields {
		if _, ok := col[required]; !ok {
			return nil, nil, fmt.Errorf("%w (missing %q)", ErrSchema, required)
		}
	}

	cell := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	txns := make([]models.Transaction, 0, len(records)-1)
	hashes := make(map[string]struct{}, len(records)-1)
	for i, row := range records[1:] {
		id, err := strconv.Atoi(cell(row, "txn_id"))
		if err != nil {
			return nil, nil, fmt.Errorf("ledger row %d: bad txn_id %q", i+2, cell(row, "txn_id"))
		}
		txn := models.Transaction{
			TxnID:         id,
			ValueDate:     cell(row, "value_date"),
			PostDate:      cell(row, "post_date"),
			Details:       cell(row, "details"),
			RefNo:         cell(row, "ref_no"),
			Debit:         cell(row, "debit"),
			Credit:        cell(row, "credit"),
			Balance:       cell(row, "balance"),
			TxnType:       cell(row, "txn_type"),
			AccountSource: cell(row, "account_source"),
			ImportedAt:    cell(row, "imported_at"),
			Hash:          cell(row, "hash"),
			// Persisted order stands in for parse order on re-merges.
			ParseSeq: id,
		}
		txns = append(txns, txn)
		if txn.Hash != "" {
			hashes[txn.Hash] = struct{}{}
		}
	}
	return txns, hashes, nil
}

// Save writes the full ledger atomically. The records are written exactly as
// given; sorting and renumbering belong to the merger. On any failure the
// temp file is removed and the previous ledger is untouched.
func (s *Store) Save(txns []models.Transaction) (err error) {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp")
	if err != nil {
		return fmt.Errorf("creating temp ledger: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(models.CSVFields); err != nil {
		return fmt.Errorf("writing ledger header: %w", err)
	}
	for i, txn := range txns {
		if err = w.Write(marshalRow(txn)); err != nil {
			return fmt.Errorf("writing ledger row %d: %w", i+2, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("flushing ledger CSV: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp ledger: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}
	return nil
}

func marshalRow(txn models.Transaction) []string {
	return []string{
		strconv.Itoa(txn.TxnID),
		txn.ValueDate,
		txn.PostDate,
		txn.Details,
		txn.RefNo,
		txn.Debit,
		txn.Credit,
		txn.Balance,
		txn.TxnType,
		txn.AccountSource,
		txn.ImportedAt,
		txn.Hash,
	}
}
