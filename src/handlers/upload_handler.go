// src/handlers/upload_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/username/sbiledger/src/config"
	"github.com/username/sbiledger/src/logger"
	"github.com/username/sbiledger/src/parsers"
	"github.com/username/sbiledger/src/security/validation"
	"github.com/username/sbiledger/src/services"
	"github.com/username/sbiledger/src/utils"
)

type UploadHandler struct {
	importService services.ImportService
}

func NewUploadHandler(service services.ImportService) *UploadHandler {
	return &UploadHandler{
		importService: service,
	}
}

// HandleParse uploads a statement and returns the parsed transactions
// without touching the ledger.
func (h *UploadHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	file, filename, ok := h.validatedUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	logger.L.Info("Processing parse request", "filename", filename)
	report, err := h.importService.ParseUpload(file, filename)
	if err != nil {
		h.sendExtractionError(w, filename, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toTransactionDTOs(report.Transactions)); err != nil {
		logger.L.Error("Error encoding JSON response for parse result", "filename", filename, "error", err)
	}
}

// HandleParseAndSave uploads a statement, merges it into the ledger, and
// returns only the newly added transactions.
func (h *UploadHandler) HandleParseAndSave(w http.ResponseWriter, r *http.Request) {
	file, filename, ok := h.validatedUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	logger.L.Info("Processing parse-and-save request", "filename", filename)
	report, err := h.importService.ImportUpload(file, filename)
	if err != nil {
		h.sendExtractionError(w, filename, err)
		return
	}

	response := map[string]interface{}{
		"import_id":          report.ImportID,
		"filename":           report.Filename,
		"pages":              report.Pages,
		"period":             report.Period,
		"parsed":             report.Parsed,
		"new":                report.New,
		"duplicates_skipped": report.DuplicatesSkipped,
		"total_in_csv":       report.TotalInLedger,
		"new_transactions":   toTransactionDTOs(report.NewTransactions),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.L.Error("Error encoding JSON response for import result", "filename", filename, "error", err)
	}
}

// validatedUpload parses the multipart form and runs all upload validation.
// On failure it writes the error response and returns ok=false.
func (h *UploadHandler) validatedUpload(w http.ResponseWriter, r *http.Request) (multipart.File, string, bool) {
	maxBytes := config.Cfg.MaxUploadSizeBytes
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", maxBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", maxBytes/(1024*1024)), http.StatusBadRequest)
		return nil, "", false
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return nil, "", false
	}

	if fileHeader.Size > maxBytes {
		file.Close()
		logger.L.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", maxBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large. Maximum size is %d MB", maxBytes/(1024*1024)), http.StatusBadRequest)
		return nil, "", false
	}

	if err := validation.ValidateFilename(fileHeader.Filename); err != nil {
		file.Close()
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, "", false
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		file.Close()
		logger.L.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, "", false
	}

	if err := validation.ValidatePDFMagicBytes(file); err != nil {
		file.Close()
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, "", false
	}

	return file, fileHeader.Filename, true
}

// sendExtractionError maps pipeline failures to HTTP statuses. Statement
// rejections (bad credential, empty or foreign document) are the client's
// problem and surface verbatim with 422; everything else is a 500.
func (h *UploadHandler) sendExtractionError(w http.ResponseWriter, filename string, err error) {
	switch {
	case errors.Is(err, parsers.ErrAuthentication),
		errors.Is(err, parsers.ErrEmptyDocument),
		errors.Is(err, parsers.ErrFormatMismatch):
		logger.L.Warn("Statement rejected", "filename", filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, validation.ErrValidationFailed):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		logger.L.Error("Internal error processing upload", "filename", filename, "error", err)
		utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
	}
}
