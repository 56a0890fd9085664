package reconcile

import (
	"sort"
	"strings"

	"sheet-reconciler/core/record"

	"golang.org/x/text/cases"
)

const (
	keySeparator   = "|"
	fieldSeparator = ":"
)

// KeyOptions controls how values are normalized into a composite key.
type KeyOptions struct {
	// CaseSensitive disables case folding.
	CaseSensitive bool `json:"caseSensitive"`

	// TrimWhitespace trims leading and trailing whitespace.
	TrimWhitespace bool `json:"trimWhitespace"`

	// IgnoreEmptyValues drops null or missing columns from the key entirely.
	IgnoreEmptyValues bool `json:"ignoreEmptyValues"`

	// SortColumns orders columns by name so the key does not depend on the
	// order in which columns were inserted.
	SortColumns bool `json:"-"`
}

// DefaultKeyOptions returns case-insensitive, trimmed, empty-ignoring options.
func DefaultKeyOptions() KeyOptions {
	return KeyOptions{
		CaseSensitive:     false,
		TrimWhitespace:    true,
		IgnoreEmptyValues: true,
	}
}

// Side selects which column of a mapping applies to a row.
type Side int

const (
	Side1 Side = iota + 1
	Side2
)

// KeyBuilder derives composite keys from rows.
// A KeyBuilder holds a stateful case folder and must not be shared between
// goroutines; each run constructs its own.
type KeyBuilder struct {
	fold cases.Caser
	sb   strings.Builder
}

// NewKeyBuilder creates a key builder.
func NewKeyBuilder() *KeyBuilder {
	return &KeyBuilder{fold: cases.Fold()}
}

// Build returns the composite key of row over columns. With no columns, all of
// the row's columns are used. An empty string means the row contributed no
// columns and must not be grouped.
func (b *KeyBuilder) Build(row *record.Row, columns []string, opts KeyOptions) string {
	if row == nil {
		return ""
	}
	if len(columns) == 0 {
		columns = row.Columns()
	} else if opts.SortColumns {
		columns = append([]string(nil), columns...)
	}
	if opts.SortColumns {
		sort.Strings(columns)
	}

	b.sb.Reset()
	for _, col := range columns {
		v, ok := row.Get(col)
		if (!ok || v.IsNull()) && opts.IgnoreEmptyValues {
			continue
		}

		s := v.String()
		if !opts.CaseSensitive {
			s = b.fold.String(s)
		}
		if opts.TrimWhitespace {
			s = strings.TrimSpace(s)
		}
		b.appendPart(col, s)
	}
	return b.sb.String()
}

// MatchKey returns the key used to pair rows across datasets. Each mapping
// contributes one part labelled with its File1Column, so rows from both sides
// produce comparable keys. Exact mappings use the raw value; other mappings
// are trimmed and case-folded. Null, missing and empty values are skipped, so a
// row whose mapped columns are all empty yields an empty key.
func (b *KeyBuilder) MatchKey(row *record.Row, mappings []ColumnMapping, side Side) string {
	if row == nil {
		return ""
	}

	b.sb.Reset()
	for _, m := range mappings {
		col := m.File1Column
		if side == Side2 {
			col = m.File2Column
		}

		v, ok := row.Get(col)
		if !ok || v.IsNull() {
			continue
		}

		s := v.String()
		if !m.IsExactMatch {
			s = b.fold.String(strings.TrimSpace(s))
		}
		if s == "" {
			continue
		}
		b.appendPart(m.File1Column, s)
	}
	return b.sb.String()
}

func (b *KeyBuilder) appendPart(col, value string) {
	if b.sb.Len() > 0 {
		b.sb.WriteString(keySeparator)
	}
	writeEscaped(&b.sb, col)
	b.sb.WriteString(fieldSeparator)
	writeEscaped(&b.sb, value)
}

// writeEscaped escapes separator characters so distinct column/value
// sequences never produce the same key.
func writeEscaped(sb *strings.Builder, s string) {
	if !strings.ContainsAny(s, `\|:`) {
		sb.WriteString(s)
		return
	}
	for _, r := range s {
		switch r {
		case '\\', '|', ':':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
}
