package services

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/sbiledger/src/models"
	"github.com/username/sbiledger/src/parsers"
	"github.com/username/sbiledger/src/storage"
)

var fixedNow = func() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

// fakeParser serves canned extraction results. Results keyed by the base
// name of the parsed path; the key "" matches any path.
type fakeParser struct {
	mu      sync.Mutex
	results map[string]*parsers.Result
	errs    map[string]error
	calls   int
}

func (p *fakeParser) Parse(path, password string) (*parsers.Result, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	key := filepath.Base(path)
	if err, ok := p.errs[key]; ok {
		return nil, err
	}
	result, ok := p.results[key]
	if !ok {
		result, ok = p.results[""]
	}
	if !ok {
		return nil, errors.New("no canned result for " + key)
	}
	// Copy so the service cannot mutate the canned data across calls.
	out := &parsers.Result{Period: result.Period, PageCount: result.PageCount}
	out.Transactions = append([]models.Transaction(nil), result.Transactions...)
	return out, nil
}

func txn(postDate, debit, credit, balance string, seq int) models.Transaction {
	return models.Transaction{
		PostDate:      postDate,
		ValueDate:     postDate,
		Details:       "row " + balance,
		Debit:         debit,
		Credit:        credit,
		Balance:       balance,
		TxnType:       models.DeriveTxnType(debit, credit),
		AccountSource: models.AccountSource,
		ParseSeq:      seq,
	}
}

func statementResult(txns ...models.Transaction) *parsers.Result {
	return &parsers.Result{
		Transactions: txns,
		Period:       models.Period{From: "01-04-2024", To: "30-04-2024"},
		PageCount:    2,
	}
}

func newTestService(t *testing.T, parser parsers.StatementParser) (ImportService, *storage.Store) {
	t.Helper()
	store := storage.NewStore(filepath.Join(t.TempDir(), "ledger.csv"))
	svc := NewImportService(parser, store, "pw", cache.New(time.Minute, time.Minute), fixedNow)
	return svc, store
}

func TestParseUploadStampsWithoutPersisting(t *testing.T) {
	parser := &fakeParser{results: map[string]*parsers.Result{
		"": statementResult(txn("01/04/2024", "100.00", "", "900.00", 0)),
	}}
	svc, store := newTestService(t, parser)

	report, err := svc.ParseUpload(bytes.NewReader([]byte("%PDF-1.7 fake")), "apr.pdf")
	require.NoError(t, err)

	assert.Equal(t, "apr.pdf", report.Filename)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, "01-04-2024", report.Period.From)
	require.Len(t, report.Transactions, 1)
	assert.Len(t, report.Transactions[0].Hash, 32)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", report.Transactions[0].ImportedAt)

	assert.False(t, store.Exists(), "parse-only must not create a ledger")
}

func TestImportIntoEmptyLedger(t *testing.T) {
	parser := &fakeParser{results: map[string]*parsers.Result{
		"": statementResult(
			txn("01/04/2024", "100.00", "", "900.00", 0),
			txn("01/04/2024", "", "50.00", "950.00", 1),
			txn("02/04/2024", "200.00", "", "750.00", 2),
		),
	}}
	svc, store := newTestService(t, parser)

	report, err := svc.ImportUpload(bytes.NewReader([]byte("%PDF-1.7 fake")), "apr.pdf")
	require.NoError(t, err)

	assert.Equal(t, 3, report.Parsed)
	assert.Equal(t, 3, report.New)
	assert.Equal(t, 0, report.DuplicatesSkipped)
	assert.Equal(t, 3, report.TotalInLedger)
	assert.NotEmpty(t, report.ImportID)

	txns, _, err := store.Load()
	require.NoError(t, err)
	require.Len(t, txns, 3)
	for i, tx := range txns {
		assert.Equal(t, i+1, tx.TxnID)
	}
	// Document order held for the same-date pair.
	assert.Equal(t, "900.00", txns[0].Balance)
	assert.Equal(t, "950.00", txns[1].Balance)
}

func TestImportSkipsDuplicatesAcrossStatements(t *testing.T) {
	a := txn("01/04/2024", "100.00", "", "900.00", 0)
	b := txn("02/04/2024", "", "50.00", "950.00", 1)
	c := txn("03/04/2024", "25.00", "", "925.00", 1)

	parser := &fakeParser{results: map[string]*parsers.Result{
		"apr.pdf":     statementResult(a, b),
		"overlap.pdf": statementResult(a, c),
	}}
	svc, store := newTestService(t, parser)

	first, err := svc.ImportFile("apr.pdf")
	require.NoError(t, err)
	assert.Equal(t, 2, first.New)

	second, err := svc.ImportFile("overlap.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, second.New)
	assert.Equal(t, 1, second.DuplicatesSkipped)
	assert.Equal(t, second.Parsed, second.New+second.DuplicatesSkipped)
	assert.Equal(t, 3, second.TotalInLedger)

	txns, _, err := store.Load()
	require.NoError(t, err)
	require.Len(t, txns, 3)
}

func TestReimportIsIdempotent(t *testing.T) {
	parser := &fakeParser{results: map[string]*parsers.Result{
		"": statementResult(
			txn("01/04/2024", "100.00", "", "900.00", 0),
			txn("02/04/2024", "", "50.00", "950.00", 1),
		),
	}}
	svc, store := newTestService(t, parser)

	_, err := svc.ImportFile("apr.pdf")
	require.NoError(t, err)
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	report, err := svc.ImportFile("apr.pdf")
	require.NoError(t, err)
	assert.Equal(t, 0, report.New)
	assert.Equal(t, 2, report.DuplicatesSkipped)
	assert.Empty(t, report.NewTransactions)

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after, "re-import must leave the ledger byte-identical")
}

func TestImportIsDeterministic(t *testing.T) {
	result := statementResult(
		txn("01/04/2024", "100.00", "", "900.00", 0),
		txn("02/04/2024", "", "50.00", "950.00", 1),
	)

	var files [2][]byte
	for i := range files {
		parser := &fakeParser{results: map[string]*parsers.Result{"": result}}
		svc, store := newTestService(t, parser)
		_, err := svc.ImportFile("apr.pdf")
		require.NoError(t, err)
		content, err := os.ReadFile(store.Path())
		require.NoError(t, err)
		files[i] = content
	}
	assert.Equal(t, files[0], files[1])
}

func TestExtractionFailureLeavesLedgerUntouched(t *testing.T) {
	parser := &fakeParser{
		results: map[string]*parsers.Result{
			"good.pdf": statementResult(txn("01/04/2024", "100.00", "", "900.00", 0)),
		},
		errs: map[string]error{"bad.pdf": parsers.ErrAuthentication},
	}
	svc, store := newTestService(t, parser)

	_, err := svc.ImportFile("good.pdf")
	require.NoError(t, err)
	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	_, err = svc.ImportFile("bad.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, parsers.ErrAuthentication)

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestConcurrentImportsLoseNothing(t *testing.T) {
	parser := &fakeParser{results: map[string]*parsers.Result{
		"a.pdf": statementResult(txn("01/04/2024", "100.00", "", "900.00", 0)),
		"b.pdf": statementResult(txn("02/04/2024", "", "50.00", "950.00", 0)),
	}}
	svc, store := newTestService(t, parser)

	var wg sync.WaitGroup
	for _, path := range []string{"a.pdf", "b.pdf"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			_, err := svc.ImportFile(p)
			assert.NoError(t, err)
		}(path)
	}
	wg.Wait()

	txns, _, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, txns, 2, "a concurrent merge must not drop the other side's records")
}

func TestListTransactionsFilters(t *testing.T) {
	parser := &fakeParser{results: map[string]*parsers.Result{
		"": statementResult(
			txn("01/04/2024", "100.00", "", "900.00", 0),
			txn("02/04/2024", "", "50.00", "950.00", 1),
			txn("03/04/2024", "25.00", "", "925.00", 2),
		),
	}}
	svc, _ := newTestService(t, parser)
	_, err := svc.ImportFile("apr.pdf")
	require.NoError(t, err)

	all, err := svc.ListTransactions(TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	debits, err := svc.ListTransactions(TransactionFilter{TxnType: "DEBIT"})
	require.NoError(t, err)
	assert.Len(t, debits, 2)

	ranged, err := svc.ListTransactions(TransactionFilter{From: "02/04/2024", To: "02/04/2024"})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "950.00", ranged[0].Balance)

	paged, err := svc.ListTransactions(TransactionFilter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "950.00", paged[0].Balance)

	empty, err := svc.ListTransactions(TransactionFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListTransactionsSeesNewImports(t *testing.T) {
	a := txn("01/04/2024", "100.00", "", "900.00", 0)
	b := txn("02/04/2024", "", "50.00", "950.00", 0)
	parser := &fakeParser{results: map[string]*parsers.Result{
		"a.pdf": statementResult(a),
		"b.pdf": statementResult(b),
	}}
	svc, _ := newTestService(t, parser)

	_, err := svc.ImportFile("a.pdf")
	require.NoError(t, err)
	first, err := svc.ListTransactions(TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, first, 1)

	// The cached listing must be invalidated by the second merge.
	_, err = svc.ImportFile("b.pdf")
	require.NoError(t, err)
	second, err := svc.ListTransactions(TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestStatus(t *testing.T) {
	parser := &fakeParser{results: map[string]*parsers.Result{
		"": statementResult(txn("01/04/2024", "100.00", "", "900.00", 0)),
	}}
	svc, _ := newTestService(t, parser)

	status, err := svc.Status()
	require.NoError(t, err)
	assert.False(t, status.LedgerExists)
	assert.Equal(t, 0, status.TransactionCount)

	_, err = svc.ImportFile("apr.pdf")
	require.NoError(t, err)

	status, err = svc.Status()
	require.NoError(t, err)
	assert.True(t, status.LedgerExists)
	assert.Equal(t, 1, status.TransactionCount)
}
