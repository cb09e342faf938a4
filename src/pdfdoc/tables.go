// src/pdfdoc/tables.go
//
// PDFs carry no table structure, only positioned text runs. SBI statements
// print their transaction table with a fixed header line, so columns are
// recovered by anchoring on the header's x positions and binning every later
// run into the nearest column. A line whose first column holds a DD/MM/YYYY
// date starts a logical row; description-only lines are wrapped continuation
// text and join the open row's description cell with a newline, which keeps
// the original line boundaries visible for reference-number extraction.
package pdfdoc

import (
	"regexp"
	"strings"
)

type run struct {
	x float64
	s string
}

type line struct {
	runs []run
}

func (l line) joined() string {
	parts := make([]string, 0, len(l.runs))
	for _, r := range l.runs {
		parts = append(parts, r.s)
	}
	return strings.Join(parts, " ")
}

// Header tokens of the SBI transaction table, leftmost first. Matching is
// lenient on spacing because text runs split unpredictably.
var headerTokens = []string{"Txn Date", "Value Date", "Description", "Cheque", "Debit", "Credit", "Balance"}

const numCols = 7

var dateCellRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// columnEdges locates the table header in the page's lines and returns the
// x position where each column starts plus the header's line index, or nil
// when the page has no header.
func columnEdges(lines []line) ([]float64, int) {
	for idx, l := range lines {
		joined := l.joined()
		matched := true
		for _, token := range headerTokens {
			if !strings.Contains(joined, strings.Fields(token)[0]) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}

		edges := make([]float64, 0, numCols)
		for i, token := range headerTokens {
			first := strings.Fields(token)[0]
			for _, r := range l.runs {
				if strings.Contains(r.s, first) && (len(edges) == i) {
					edges = append(edges, r.x)
					break
				}
			}
		}
		if len(edges) == numCols {
			return edges, idx
		}
	}
	return nil, -1
}

// binColumn assigns a run to the rightmost column starting at or left of x.
// A small tolerance absorbs runs that start slightly before their column.
func binColumn(edges []float64, x float64) int {
	const tolerance = 4.0
	col := 0
	for i, edge := range edges {
		if x >= edge-tolerance {
			col = i
		}
	}
	return col
}

// buildTable turns a page's visual lines into logical table rows.
func buildTable(lines []line) [][]string {
	edges, headerIdx := columnEdges(lines)
	if edges == nil {
		return nil
	}

	var (
		table   [][]string
		open    []string
		started bool
	)

	flush := func() {
		if open != nil {
			table = append(table, open)
			open = nil
		}
	}

	// Page furniture above the header (bank name, account details) is not
	// table content; binning starts on the line after the header.
	for _, l := range lines[headerIdx+1:] {
		cells := make([]string, numCols)
		for _, r := range l.runs {
			col := binColumn(edges, r.x)
			if cells[col] == "" {
				cells[col] = strings.TrimSpace(r.s)
			} else {
				cells[col] += " " + strings.TrimSpace(r.s)
			}
		}

		switch {
		case dateCellRe.MatchString(strings.TrimSpace(cells[0])):
			// New transaction row.
			flush()
			open = cells
			started = true
		case started && isContinuation(cells):
			// Wrapped description text under the open row. Keep the line
			// break so ref-no extraction sees the original lines.
			open[2] = strings.TrimSpace(open[2] + "\n" + cells[2])
		default:
			// Anything else (summary lines, totals, page furniture) ends
			// the open row and stands alone for the classifier to reject.
			flush()
			if strings.TrimSpace(l.joined()) != "" {
				table = append(table, cells)
			}
		}
	}
	flush()
	return table
}

// isContinuation reports whether a binned line holds only description text.
func isContinuation(cells []string) bool {
	if strings.TrimSpace(cells[2]) == "" {
		return false
	}
	for i, cell := range cells {
		if i != 2 && strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
