package reconcile

import (
	"strings"

	"sheet-reconciler/core/apperror"
)

// ParseMapping parses "file1col=file2col" with an optional ":exact" suffix.
// A mapping without "=" uses the same column name on both sides.
func ParseMapping(s string) (ColumnMapping, error) {
	expr := strings.TrimSpace(s)
	var m ColumnMapping

	if idx := strings.LastIndex(expr, ":"); idx >= 0 {
		switch strings.ToLower(strings.TrimSpace(expr[idx+1:])) {
		case "exact":
			m.IsExactMatch = true
			expr = expr[:idx]
		case "fuzzy", "loose":
			expr = expr[:idx]
		}
	}

	left, right, found := strings.Cut(expr, "=")
	if !found {
		right = left
	}
	m.File1Column = strings.TrimSpace(left)
	m.File2Column = strings.TrimSpace(right)

	if m.File1Column == "" || m.File2Column == "" {
		return ColumnMapping{}, apperror.Validation("invalid column mapping %q: expected file1col=file2col[:exact]", s)
	}
	return m, nil
}

// ParseMappings parses every entry with ParseMapping.
func ParseMappings(exprs []string) ([]ColumnMapping, error) {
	mappings := make([]ColumnMapping, 0, len(exprs))
	for _, s := range exprs {
		m, err := ParseMapping(s)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}

// ValidateMappings checks that mappings is non-empty and that every referenced
// column exists in the respective header set.
func ValidateMappings(mappings []ColumnMapping, headers1, headers2 []string) error {
	if len(mappings) == 0 {
		return apperror.Validation("at least one column mapping is required")
	}

	set1 := toSet(headers1)
	set2 := toSet(headers2)

	var missing []string
	for i, m := range mappings {
		if m.File1Column == "" || m.File2Column == "" {
			return apperror.Validation("column mapping %d is incomplete", i+1)
		}
		if _, ok := set1[m.File1Column]; !ok {
			missing = append(missing, "file 1: "+m.File1Column)
		}
		if _, ok := set2[m.File2Column]; !ok {
			missing = append(missing, "file 2: "+m.File2Column)
		}
	}

	if len(missing) > 0 {
		return apperror.Validation("mapped columns not found in headers (%s)", strings.Join(missing, ", "))
	}
	return nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
