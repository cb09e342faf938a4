package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/username/sbiledger/src/logger"
)

// ErrValidationFailed wraps every upload validation failure so handlers can
// map the whole family to one HTTP status.
var ErrValidationFailed = errors.New("upload validation failed")

// pdfMagic is the signature every PDF starts with.
var pdfMagic = []byte("%PDF-")

// AllowedClientContentTypes is a map for quick lookup of allowed
// client-declared MIME types for statement uploads.
var AllowedClientContentTypes = map[string]bool{
	"application/pdf":          true,
	"application/x-pdf":        true,
	"application/octet-stream": true, // generic fallback, magic bytes decide
}

// ValidateClientContentType checks the Content-Type header provided by the client.
// An empty header is tolerated; the magic-byte check is authoritative.
func ValidateClientContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !AllowedClientContentTypes[normalized] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed for PDF upload", ErrValidationFailed, contentType)
	}
	return nil
}

// ValidateFilename checks the uploaded filename carries a .pdf extension.
func ValidateFilename(filename string) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return fmt.Errorf("%w: file must be a PDF", ErrValidationFailed)
	}
	return nil
}

// ValidatePDFMagicBytes checks the actual file content signature. The read
// pointer is reset so the parser can read the full file afterwards.
func ValidatePDFMagicBytes(file io.ReadSeeker) error {
	if file == nil {
		return fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, len(pdfMagic))
	n, err := io.ReadFull(file, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read file for content checking: %w", err)
	}

	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if !bytes.Equal(buffer[:n], pdfMagic) {
		logger.L.Warn("Uploaded file lacks PDF magic bytes")
		return fmt.Errorf("%w: file does not appear to be a valid PDF", ErrValidationFailed)
	}
	return nil
}
