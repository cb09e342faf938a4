// src/services/import_service.go
package services

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/username/sbiledger/src/logger"
	"github.com/username/sbiledger/src/models"
	"github.com/username/sbiledger/src/parsers"
	"github.com/username/sbiledger/src/parsers/sbi"
	"github.com/username/sbiledger/src/processors"
	"github.com/username/sbiledger/src/storage"
)

const (
	ckLedgerTransactions = "ledger_transactions"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	// importedAtLayout matches the timestamps already present in ledgers
	// written by earlier versions of this tool.
	importedAtLayout = "2006-01-02T15:04:05.000Z"
)

type importServiceImpl struct {
	parser      parsers.StatementParser
	store       *storage.Store
	password    string
	ledgerCache *cache.Cache
	now         func() time.Time

	// mu serializes the full load+merge+save cycle. Two concurrent merges
	// reading the same snapshot would each write their own view and silently
	// drop the other's records. Extraction runs outside the lock.
	mu sync.Mutex
}

// NewImportService wires the pipeline. The clock is injectable so merge
// output can be made deterministic in tests; pass nil for wall time.
func NewImportService(parser parsers.StatementParser, store *storage.Store, password string, ledgerCache *cache.Cache, now func() time.Time) ImportService {
	if now == nil {
		now = time.Now
	}
	return &importServiceImpl{
		parser:      parser,
		store:       store,
		password:    password,
		ledgerCache: ledgerCache,
		now:         now,
	}
}

func (s *importServiceImpl) importedAt() string {
	return s.now().UTC().Format(importedAtLayout)
}

// stageUpload copies uploaded bytes to a temp file so the extractor can work
// on a path. The caller removes the file when done.
func (s *importServiceImpl) stageUpload(fileReader io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStaging, err)
	}
	if _, err := io.Copy(tmp, fileReader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrStaging, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: %v", ErrStaging, err)
	}
	return tmp.Name(), nil
}

func (s *importServiceImpl) ParseUpload(fileReader io.Reader, filename string) (*ParseReport, error) {
	tmpPath, err := s.stageUpload(fileReader)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	result, err := s.parser.Parse(tmpPath, s.password)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filename, err)
	}

	now := s.importedAt()
	for i := range result.Transactions {
		result.Transactions[i].Hash = processors.Fingerprint(result.Transactions[i])
		result.Transactions[i].ImportedAt = now
	}

	return &ParseReport{
		Filename:     filename,
		Pages:        result.PageCount,
		Period:       result.Period,
		Transactions: result.Transactions,
	}, nil
}

func (s *importServiceImpl) ImportUpload(fileReader io.Reader, filename string) (*ImportReport, error) {
	tmpPath, err := s.stageUpload(fileReader)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmpPath)

	report, err := s.importPath(tmpPath, filename)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *importServiceImpl) ImportFile(path string) (*ImportReport, error) {
	name := path
	if i := strings.LastIndexByte(path, os.PathSeparator); i >= 0 {
		name = path[i+1:]
	}
	return s.importPath(path, name)
}

func (s *importServiceImpl) importPath(path, filename string) (*ImportReport, error) {
	importID := uuid.NewString()
	start := s.now()
	logger.L.Info("Import START", "importID", importID, "filename", filename)

	// Extraction holds no shared state, so it runs before the lock.
	result, err := s.parser.Parse(path, s.password)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", filename, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, knownHashes, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}

	merged := processors.Merge(existing, knownHashes, result.Transactions, len(existing), s.importedAt())

	total := len(existing)
	if len(merged.Accepted) > 0 {
		if err := s.store.Save(merged.Merged); err != nil {
			return nil, fmt.Errorf("saving ledger: %w", err)
		}
		total = len(merged.Merged)
		s.ledgerCache.Delete(ckLedgerTransactions)
	}

	logger.L.Info("Import DONE",
		"importID", importID,
		"filename", filename,
		"parsed", len(result.Transactions),
		"new", len(merged.Accepted),
		"duplicates", merged.Duplicates,
		"total", total,
		"durationMs", s.now().Sub(start).Milliseconds())

	newTxns := merged.Accepted
	if newTxns == nil {
		newTxns = []models.Transaction{}
	}
	return &ImportReport{
		ImportID:          importID,
		Filename:          filename,
		Pages:             result.PageCount,
		Period:            result.Period,
		Parsed:            len(result.Transactions),
		New:               len(merged.Accepted),
		DuplicatesSkipped: merged.Duplicates,
		TotalInLedger:     total,
		NewTransactions:   newTxns,
	}, nil
}

func (s *importServiceImpl) ListTransactions(filter TransactionFilter) ([]models.Transaction, error) {
	all, err := s.cachedTransactions()
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Transaction, 0, len(all))
	for _, txn := range all {
		if !matchesFilter(txn, filter) {
			continue
		}
		filtered = append(filtered, txn)
	}

	if filter.Offset >= len(filtered) {
		return []models.Transaction{}, nil
	}
	filtered = filtered[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(filtered) {
		filtered = filtered[:filter.Limit]
	}
	return filtered, nil
}

func (s *importServiceImpl) cachedTransactions() ([]models.Transaction, error) {
	if cached, found := s.ledgerCache.Get(ckLedgerTransactions); found {
		if txns, ok := cached.([]models.Transaction); ok {
			return txns, nil
		}
	}

	s.mu.Lock()
	txns, _, err := s.store.Load()
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}
	s.ledgerCache.Set(ckLedgerTransactions, txns, cache.DefaultExpiration)
	return txns, nil
}

func matchesFilter(txn models.Transaction, filter TransactionFilter) bool {
	if filter.From != "" || filter.To != "" {
		d, ok := sbi.ParseStatementDate(txn.PostDate)
		if !ok {
			return false
		}
		if filter.From != "" {
			if from, ok := sbi.ParseStatementDate(filter.From); ok && d.Before(from) {
				return false
			}
		}
		if filter.To != "" {
			if to, ok := sbi.ParseStatementDate(filter.To); ok && d.After(to) {
				return false
			}
		}
	}
	if filter.TxnType != "" && !strings.EqualFold(txn.TxnType, filter.TxnType) {
		return false
	}
	return true
}

func (s *importServiceImpl) Status() (LedgerStatus, error) {
	status := LedgerStatus{LedgerExists: s.store.Exists()}
	if !status.LedgerExists {
		return status, nil
	}
	txns, _, err := s.store.Load()
	if err != nil {
		return status, fmt.Errorf("loading ledger: %w", err)
	}
	status.TransactionCount = len(txns)
	return status, nil
}
