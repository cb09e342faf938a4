package models

// Transaction direction, derived from which amount column is populated.
const (
	TxnTypeDebit   = "debit"
	TxnTypeCredit  = "credit"
	TxnTypeUnknown = ""
)

// AccountSource tags every record with the statement channel it came from.
const AccountSource = "sbi_email"

// CSVFields is the exact ledger header, order significant when writing.
// Readers key by name, so extra columns in a row are tolerated.
var CSVFields = []string{
	"txn_id", "value_date", "post_date", "details", "ref_no",
	"debit", "credit", "balance", "txn_type", "account_source",
	"imported_at", "hash",
}

// Transaction is one ledger record. All monetary fields are canonical
// decimal strings; an empty string means the column was absent in the
// statement. TxnID is recomputed on every write and is not a stable key;
// only Hash is stable across imports.
type Transaction struct {
	TxnID         int    `json:"txn_id"`
	ValueDate     string `json:"value_date"`
	PostDate      string `json:"post_date"`
	Details       string `json:"details"`
	RefNo         string `json:"ref_no"`
	Debit         string `json:"debit"`
	Credit        string `json:"credit"`
	Balance       string `json:"balance"`
	TxnType       string `json:"txn_type"`
	AccountSource string `json:"account_source"`
	ImportedAt    string `json:"imported_at"`
	Hash          string `json:"hash"`

	// ParseSeq orders rows within one extraction (offset by the ledger size
	// at merge time). It breaks ties between same-date records and is never
	// persisted.
	ParseSeq int `json:"-"`
}

// DeriveTxnType returns the direction implied by the populated amount column.
func DeriveTxnType(debit, credit string) string {
	switch {
	case debit != "":
		return TxnTypeDebit
	case credit != "":
		return TxnTypeCredit
	default:
		return TxnTypeUnknown
	}
}

// Period is the optional statement period read from the first page. Both
// fields are empty when the label line was not found.
type Period struct {
	From string `json:"from"`
	To   string `json:"to"`
}
