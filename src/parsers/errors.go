package parsers

import "errors"

// Extraction failures are terminal for the document they occurred on. The
// caller decides whether other documents keep processing; nothing here is
// retried.
var (
	// ErrAuthentication means the decryption credential was rejected.
	ErrAuthentication = errors.New("wrong password or encrypted PDF: check PDF_PASSWORD in your .env file")

	// ErrEmptyDocument means the document opened but has zero pages.
	ErrEmptyDocument = errors.New("PDF has no pages")

	// ErrFormatMismatch means the first page has no SBI/State Bank header,
	// so this is not a statement this parser understands.
	ErrFormatMismatch = errors.New("this doesn't look like an SBI statement: first page has no SBI/State Bank header")
)
