package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/sbiledger/src/logger"
	"github.com/username/sbiledger/src/services"
	"github.com/username/sbiledger/src/utils"
)

type HealthHandler struct {
	importService services.ImportService
}

func NewHealthHandler(service services.ImportService) *HealthHandler {
	return &HealthHandler{importService: service}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status, err := h.importService.Status()
	if err != nil {
		logger.L.Error("Health check failed to read ledger", "error", err)
		utils.SendJSONError(w, "ledger unreadable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":            "ok",
		"csv_exists":        status.LedgerExists,
		"transaction_count": status.TransactionCount,
	})
}
