// Package markdown turns the pipe tables a model writes into typed records.
//
// The input is treated as untrusted prose: the table may be surrounded by other
// text, the header wording may drift, and rows may be short. Parsing never
// fails; unusable input yields fewer (or zero) records.
package markdown

import (
	"regexp"
	"strings"

	"github.com/shpitdev/leadfinder/internal/lead"
)

var linkURLRe = regexp.MustCompile(`\((https?://[^)]+)\)`)

// tableShape describes one fixed-width table layout.
type tableShape[T any] struct {
	// headerTerms must all appear (case-insensitively) in the header line.
	headerTerms []string
	// minCols is the minimum number of cells a data row needs.
	minCols int
	// row builds a record from the cleaned cells of a data row. Rows it
	// reports as unusable are skipped.
	row func(cells []string) (T, bool)
}

// parseTable runs the shared header-detect, skip-separator, fixed-width-row scan.
func parseTable[T any](text string, shape tableShape[T]) []T {
	lines := nonBlankLines(text)

	header := -1
	for i, line := range lines {
		if isHeader(line, shape.headerTerms) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil
	}

	var out []T
	// header+1 is the |---| separator; it is skipped without inspection.
	for _, line := range lines[min(header+2, len(lines)):] {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := splitRow(line)
		if len(cells) < shape.minCols {
			continue
		}
		for i := range cells {
			cells[i] = cleanCell(cells[i])
		}
		if rec, ok := shape.row(cells); ok {
			out = append(out, rec)
		}
	}
	return out
}

func nonBlankLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func isHeader(line string, terms []string) bool {
	if !strings.Contains(line, "|") {
		return false
	}
	lower := strings.ToLower(line)
	for _, term := range terms {
		if !strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

// splitRow splits a pipe row and drops the segments outside the outer pipes.
func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return nil
	}
	cells := parts[1 : len(parts)-1]
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// cleanCell strips bold markers and surrounding whitespace.
func cleanCell(cell string) string {
	return strings.TrimSpace(strings.ReplaceAll(cell, "**", ""))
}

// unwrapLink returns the URL from an inline [label](url) link, or cell as-is.
func unwrapLink(cell string) string {
	if m := linkURLRe.FindStringSubmatch(cell); len(m) == 2 && m[1] != "" {
		return m[1]
	}
	return cell
}

// orEmpty maps the "unknown" sentinels to the empty string.
func orEmpty(cell string) string {
	if lead.Sentinel(cell) {
		return ""
	}
	return cell
}
