package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/sbiledger/src/models"
)

func sampleLedger() []models.Transaction {
	return []models.Transaction{
		{
			TxnID: 1, ValueDate: "01/04/2024", PostDate: "01/04/2024",
			Details: "TO TRANSFER | 4099123456789/PAYTM", RefNo: "4099123456789",
			Debit: "1234.50", Balance: "10000.00", TxnType: models.TxnTypeDebit,
			AccountSource: models.AccountSource,
			ImportedAt:    "2024-05-01T12:00:00.000Z", Hash: "aaaa1111",
		},
		{
			TxnID: 2, ValueDate: "02/04/2024", PostDate: "02/04/2024",
			Details: "BY TRANSFER", Credit: "500.00", Balance: "10500.00",
			TxnType:       models.TxnTypeCredit,
			AccountSource: models.AccountSource,
			ImportedAt:    "2024-05-01T12:00:00.000Z", Hash: "bbbb2222",
		},
	}
}

func TestLoadMissingFileIsEmptyLedger(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "ledger.csv"))

	txns, hashSet, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, txns)
	assert.NotNil(t, hashSet)
	assert.Empty(t, hashSet)
	assert.False(t, store.Exists())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "ledger.csv"))
	require.NoError(t, store.Save(sampleLedger()))
	assert.True(t, store.Exists())

	txns, hashSet, err := store.Load()
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, 1, txns[0].TxnID)
	assert.Equal(t, "TO TRANSFER | 4099123456789/PAYTM", txns[0].Details)
	assert.Equal(t, "1234.50", txns[0].Debit)
	assert.Equal(t, "", txns[0].Credit)
	assert.Equal(t, "aaaa1111", txns[0].Hash)
	// Persisted row order is the tie-break order on re-merge.
	assert.Equal(t, 1, txns[0].ParseSeq)
	assert.Equal(t, 2, txns[1].ParseSeq)

	assert.Contains(t, hashSet, "aaaa1111")
	assert.Contains(t, hashSet, "bbbb2222")
}

func TestSaveIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := NewStore(filepath.Join(dir, "a.csv"))
	b := NewStore(filepath.Join(dir, "b.csv"))

	require.NoError(t, a.Save(sampleLedger()))
	require.NoError(t, b.Save(sampleLedger()))

	bytesA, err := os.ReadFile(a.Path())
	require.NoError(t, err)
	bytesB, err := os.ReadFile(b.Path())
	require.NoError(t, err)
	assert.Equal(t, bytesA, bytesB)
}

func TestLoadRejectsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	// An old-format ledger without the hash column.
	content := "txn_id,value_date,post_date,details\n1,01/04/2024,01/04/2024,whatever\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, _, err := NewStore(path).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), "regenerate")
}

func TestLoadIgnoresExtraColumnsAndBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	header := "\uFEFFextra_note," + strings.Join(models.CSVFields, ",")
	row := "n/a,1,01/04/2024,01/04/2024,desc,,100.00,,900.00,debit,sbi_email,2024-05-01T12:00:00.000Z,cafe0123"
	require.NoError(t, os.WriteFile(path, []byte(header+"\n"+row+"\n"), 0o644))

	txns, hashSet, err := NewStore(path).Load()
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "100.00", txns[0].Debit)
	assert.Contains(t, hashSet, "cafe0123")
}

func TestLoadRejectsBadTxnID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	header := strings.Join(models.CSVFields, ",")
	row := "one,01/04/2024,01/04/2024,desc,,100.00,,900.00,debit,sbi_email,2024-05-01T12:00:00.000Z,cafe0123"
	require.NoError(t, os.WriteFile(path, []byte(header+"\n"+row+"\n"), 0o644))

	_, _, err := NewStore(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "txn_id")
}

func TestSaveFailureLeavesPreviousLedgerIntact(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions do not bind for root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.csv")
	store := NewStore(path)
	require.NoError(t, store.Save(sampleLedger()))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A read-only directory makes temp-file creation fail mid-save.
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	err = store.Save(append(sampleLedger(), models.Transaction{TxnID: 3}))
	require.Error(t, err)

	require.NoError(t, os.Chmod(dir, 0o755))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed save must not touch the previous ledger")

	// No stray temp files either.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ledger.csv", entries[0].Name())
}

func TestSavedHeaderMatchesContract(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "ledger.csv"))
	require.NoError(t, store.Save(nil))

	content, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t,
		"txn_id,value_date,post_date,details,ref_no,debit,credit,balance,txn_type,account_source,imported_at,hash\n",
		string(content))
}
