// src/parsers/sbi/normalize.go
package sbi

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const statementDateLayout = "02/01/2006"

var (
	refNumberRe  = regexp.MustCompile(`^(\d{10,13})\b`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeAmount canonicalizes one amount cell. A lone "-" or an empty cell
// means the column is absent; thousands separators are stripped; anything
// that still fails to parse as a decimal normalizes to absent. Never errors,
// so a mangled cell can only exclude a row, not abort the extraction.
func NormalizeAmount(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == "-" {
		return ""
	}
	cleaned := strings.ReplaceAll(trimmed, ",", "")
	if _, err := decimal.NewFromString(cleaned); err != nil {
		return ""
	}
	return cleaned
}

// IsStatementDate reports whether text is a strict DD/MM/YYYY date. Any
// other format is not a transaction date, whatever reporting layers accept.
func IsStatementDate(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	_, err := time.Parse(statementDateLayout, trimmed)
	return err == nil
}

// ParseStatementDate parses a DD/MM/YYYY date for sorting. Unparseable dates
// return ok=false and sort after every real date.
func ParseStatementDate(text string) (time.Time, bool) {
	t, err := time.Parse(statementDateLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// CleanDescription flattens a multi-line description to one line. Line
// breaks become " | " so the original line order stays visible, then runs of
// whitespace collapse to a single space.
func CleanDescription(desc string) string {
	if desc == "" {
		return ""
	}
	cleaned := strings.ReplaceAll(desc, "\n", " | ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
}

// ExtractRefNumber scans the description's original lines for the first one
// beginning with a 10-13 digit token and returns that token. First line
// wins; later or longer matches are ignored.
func ExtractRefNumber(desc string) string {
	if desc == "" {
		return ""
	}
	for _, line := range strings.Split(desc, "\n") {
		if m := refNumberRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return m[1]
		}
	}
	return ""
}
