package reconcile

import (
	"sheet-reconciler/core/record"
)

// rowOf builds a row from alternating column/value pairs.
func rowOf(kv ...any) *record.Row {
	r := record.New(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), record.FromAny(kv[i+1]))
	}
	return r
}

func values(rows []*record.Row, col string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Value(col).String())
	}
	return out
}
