package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// normalizeHeaders trims header cells and makes them unique. Blank headers are
// named after their spreadsheet column letter.
func normalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			letter, err := excelize.ColumnNumberToName(i + 1)
			if err != nil {
				letter = fmt.Sprint(i + 1)
			}
			h = "Column " + letter
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		out[i] = h
	}
	return out
}

// isBlank reports whether every cell is empty or whitespace.
func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
