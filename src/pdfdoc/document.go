// Package pdfdoc adapts ledongthuc/pdf to the parsers.StatementDocument
// interface: encrypted open, per-page plain text, and table reconstruction
// from positioned text runs.
package pdfdoc

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/username/sbiledger/src/parsers"
)

// Opener opens statement PDFs from disk.
type Opener struct{}

func NewOpener() Opener { return Opener{} }

// Open opens the PDF at path, decrypting with password when the file is
// encrypted. A rejected password surfaces as parsers.ErrAuthentication.
func (Opener) Open(path, password string) (parsers.StatementDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	// The reader retries the password callback until it returns "", so hand
	// the password over exactly once to avoid looping on a bad credential.
	attempted := false
	pw := func() string {
		if attempted {
			return ""
		}
		attempted = true
		return password
	}

	reader, err := pdf.NewReaderEncrypted(f, info.Size(), pw)
	if err != nil {
		f.Close()
		if errors.Is(err, pdf.ErrInvalidPassword) || strings.Contains(strings.ToLower(err.Error()), "password") {
			return nil, fmt.Errorf("%w: %s", parsers.ErrAuthentication, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return &document{file: f, reader: reader}, nil
}

type document struct {
	file   *os.File
	reader *pdf.Reader
}

func (d *document) PageCount() int {
	return d.reader.NumPage()
}

func (d *document) PageText(page int) (string, error) {
	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d not found", page)
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("extracting text from page %d: %w", page, err)
	}
	return text, nil
}

func (d *document) PageTables(page int) ([][][]string, error) {
	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d not found", page)
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("extracting rows from page %d: %w", page, err)
	}

	lines := make([]line, 0, len(rows))
	for _, row := range rows {
		l := line{}
		for _, text := range row.Content {
			l.runs = append(l.runs, run{x: text.X, s: text.S})
		}
		if len(l.runs) > 0 {
			lines = append(lines, l)
		}
	}

	table := buildTable(lines)
	if len(table) == 0 {
		return nil, nil
	}
	return [][][]string{table}, nil
}

func (d *document) Close() error {
	return d.file.Close()
}
