// src/processors/fingerprint.go
package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/username/sbiledger/src/models"
)

// fingerprintLen is the hex prefix length kept from the sha256 digest. The
// truncation length and field order below are part of the dedup contract:
// changing either orphans every hash already persisted in a ledger.
const fingerprintLen = 32

// Fingerprint hashes the five financial fields of a transaction. Balance is
// a running total, so even two same-amount transactions on the same day
// almost always differ in balance and therefore in fingerprint. Description
// text and import time never participate: identical financial facts yield
// identical fingerprints.
func Fingerprint(txn models.Transaction) string {
	raw := strings.Join([]string{
		txn.PostDate, txn.ValueDate,
		txn.Debit, txn.Credit, txn.Balance,
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
