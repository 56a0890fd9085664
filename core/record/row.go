package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Row is an insertion-ordered set of named values.
type Row struct {
	cols []string
	vals map[string]Value
}

// New returns an empty row with room for capacity columns.
func New(capacity int) *Row {
	return &Row{
		cols: make([]string, 0, capacity),
		vals: make(map[string]Value, capacity),
	}
}

// FromMap builds a row from a plain map. Columns listed in order come first in
// that order; remaining keys are appended in the map's iteration order, so pass
// the full order when determinism matters.
func FromMap(m map[string]any, order []string) *Row {
	r := New(len(m))
	for _, col := range order {
		if v, ok := m[col]; ok {
			r.Set(col, FromAny(v))
		}
	}
	for col, v := range m {
		if !r.Has(col) {
			r.Set(col, FromAny(v))
		}
	}
	return r
}

// Set assigns a value to a column, appending the column if it is new.
func (r *Row) Set(col string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if _, ok := r.vals[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.vals[col] = v
}

// Get returns the value of a column and whether the column is present.
func (r *Row) Get(col string) (Value, bool) {
	if r == nil {
		return Null(), false
	}
	v, ok := r.vals[col]
	return v, ok
}

// Value returns the value of a column, or Null when absent.
func (r *Row) Value(col string) Value {
	v, _ := r.Get(col)
	return v
}

// Has reports whether the column is present.
func (r *Row) Has(col string) bool {
	_, ok := r.Get(col)
	return ok
}

// Columns returns a copy of the column names in insertion order.
func (r *Row) Columns() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

// Len returns the number of columns.
func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.cols)
}

// Each calls fn for every column in insertion order until fn returns false.
func (r *Row) Each(fn func(col string, v Value) bool) {
	if r == nil {
		return
	}
	for _, col := range r.cols {
		if !fn(col, r.vals[col]) {
			return
		}
	}
}

// Clone returns a shallow copy; values are immutable so this is a full copy.
func (r *Row) Clone() *Row {
	if r == nil {
		return nil
	}
	c := New(len(r.cols))
	for _, col := range r.cols {
		c.Set(col, r.vals[col])
	}
	return c
}

// EstimatedSize approximates the serialized size of the row in bytes.
func (r *Row) EstimatedSize() int {
	size := 2
	r.Each(func(col string, v Value) bool {
		// quotes, colon, comma
		size += len(col) + len(v.String()) + 6
		return true
	})
	return size
}

// MarshalJSON encodes the row as a JSON object preserving column order.
func (r *Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		val, err := json.Marshal(r.vals[col].jsonValue())
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a flat JSON object, keeping key order. Nested objects
// and arrays are stored as their JSON text.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("row must be a JSON object")
	}

	*r = Row{vals: make(map[string]Value)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		col, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("column %q: %w", col, err)
		}
		v, err := decodeScalar(raw)
		if err != nil {
			return fmt.Errorf("column %q: %w", col, err)
		}
		r.Set(col, v)
	}
	_, err = dec.Token()
	return err
}

func (v Value) jsonValue() any {
	switch v.kind {
	case KindDate:
		return v.String()
	default:
		return v.Interface()
	}
}

func decodeScalar(raw json.RawMessage) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Null(), nil
	}
	switch trimmed[0] {
	case '{', '[':
		return String(string(trimmed)), nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return Null(), err
	}
	switch t := x.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String()), nil
		}
		// Integers beyond float64 precision keep their digits.
		if text := t.String(); !strings.ContainsAny(text, ".eE") && strconv.FormatFloat(f, 'f', -1, 64) != text {
			return String(text), nil
		}
		return Number(f), nil
	case bool:
		if t {
			return String("true"), nil
		}
		return String("false"), nil
	default:
		return FromAny(t), nil
	}
}

// Headers returns the union of columns across rows in first-seen order.
func Headers(rows []*Row) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		r.Each(func(col string, _ Value) bool {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				out = append(out, col)
			}
			return true
		})
	}
	return out
}
