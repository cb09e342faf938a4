// src/handlers/transaction_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/sbiledger/src/logger"
	"github.com/username/sbiledger/src/models"
	"github.com/username/sbiledger/src/parsers/sbi"
	"github.com/username/sbiledger/src/services"
	"github.com/username/sbiledger/src/utils"
)

type TransactionHandler struct {
	importService services.ImportService
}

func NewTransactionHandler(service services.ImportService) *TransactionHandler {
	return &TransactionHandler{importService: service}
}

// transactionDTO is the wire shape of a ledger record. txn_id is the hash
// prefix rather than the ledger row number: row numbers shift on every
// merge, the hash prefix does not.
type transactionDTO struct {
	TxnID         string `json:"txn_id"`
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
}

func toTransactionDTO(txn models.Transaction) transactionDTO {
	id := txn.Hash
	if len(id) > 16 {
		id = id[:16]
	}
	return transactionDTO{
		TxnID:         id,
		ValueDate:     txn.ValueDate,
		PostDate:      txn.PostDate,
		Details:       txn.Details,
		RefNo:         txn.RefNo,
		Debit:         txn.Debit,
		Credit:        txn.Credit,
		Balance:       txn.Balance,
		TxnType:       txn.TxnType,
		AccountSource: txn.AccountSource,
		ImportedAt:    txn.ImportedAt,
		Hash:          txn.Hash,
	}
}

func toTransactionDTOs(txns []models.Transaction) []transactionDTO {
	dtos := make([]transactionDTO, 0, len(txns))
	for _, txn := range txns {
		dtos = append(dtos, toTransactionDTO(txn))
	}
	return dtos
}

// HandleGetTransactions lists ledger records with optional filters:
// from_date / to_date (DD/MM/YYYY, inclusive), txn_type (debit|credit,
// case-insensitive), offset, limit. Sends an ETag so unchanged ledgers cost
// clients nothing.
func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := services.TransactionFilter{
		From:    query.Get("from_date"),
		To:      query.Get("to_date"),
		TxnType: strings.TrimSpace(query.Get("txn_type")),
	}
	if filter.From != "" {
		if _, ok := sbi.ParseStatementDate(filter.From); !ok {
			utils.SendJSONError(w, "from_date must be DD/MM/YYYY", http.StatusBadRequest)
			return
		}
	}
	if filter.To != "" {
		if _, ok := sbi.ParseStatementDate(filter.To); !ok {
			utils.SendJSONError(w, "to_date must be DD/MM/YYYY", http.StatusBadRequest)
			return
		}
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			utils.SendJSONError(w, "offset must be a non-negative integer", http.StatusBadRequest)
			return
		}
		filter.Offset = offset
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			utils.SendJSONError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	txns, err := h.importService.ListTransactions(filter)
	if err != nil {
		logger.L.Error("Error retrieving transactions", "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving transactions: %v", err), http.StatusInternalServerError)
		return
	}

	dtos := toTransactionDTOs(txns)

	w.Header().Set("Cache-Control", "no-cache, private")
	if currentETag, etagErr := utils.GenerateETag(dtos); etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else if etagErr != nil {
		logger.L.Warn("Proceeding without ETag check due to ETag generation error", "error", etagErr)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		logger.L.Error("Error generating JSON response for transactions", "error", err)
	}
}
