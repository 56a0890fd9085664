package export

import (
	"sheet-reconciler/core/reconcile"
	"sheet-reconciler/core/record"
)

const (
	// MatchedPrefix namespaces dataset 2 columns on flattened matched rows.
	MatchedPrefix = "File2_"

	groupColumn     = "Group"
	groupSizeColumn = "Group Size"
)

// table is one category of a result prepared for writing. Rows are
// materialized on demand so flattened copies never exist all at once.
type table struct {
	category reconcile.Category
	count    int
	row      func(i int) *record.Row
	size     func(i int) int
}

func tableFor(res *reconcile.Result, c reconcile.Category) table {
	switch c {
	case reconcile.CategoryMatched:
		pairs := res.Matched
		return table{
			category: c,
			count:    len(pairs),
			row:      func(i int) *record.Row { return FlattenPair(pairs[i]) },
			size: func(i int) int {
				// Prefixed names add len(MatchedPrefix) per dataset 2 column.
				return pairs[i].File1.EstimatedSize() + pairs[i].File2.EstimatedSize() + len(MatchedPrefix)*pairs[i].File2.Len()
			},
		}
	case reconcile.CategoryInFile1Only:
		return rowsTable(c, res.InFile1Only)
	case reconcile.CategoryInFile2Only:
		return rowsTable(c, res.InFile2Only)
	case reconcile.CategoryDuplicatesInFile1:
		return rowsTable(c, res.DuplicatesInFile1)
	case reconcile.CategoryDuplicatesInFile2:
		return rowsTable(c, res.DuplicatesInFile2)
	case reconcile.CategoryDuplicateGroupsFile1:
		return groupsTable(c, res.DuplicateGroupsInFile1)
	case reconcile.CategoryDuplicateGroupsFile2:
		return groupsTable(c, res.DuplicateGroupsInFile2)
	default:
		return table{category: c, row: func(int) *record.Row { return nil }, size: func(int) int { return 0 }}
	}
}

func rowsTable(c reconcile.Category, rows []*record.Row) table {
	return table{
		category: c,
		count:    len(rows),
		row:      func(i int) *record.Row { return rows[i] },
		size:     func(i int) int { return rows[i].EstimatedSize() },
	}
}

type groupItem struct {
	group int
	size  int
	row   *record.Row
}

func groupsTable(c reconcile.Category, groups []reconcile.DuplicateGroup) table {
	var items []groupItem
	for g, group := range groups {
		for _, r := range group.Items {
			items = append(items, groupItem{group: g + 1, size: len(group.Items), row: r})
		}
	}
	return table{
		category: c,
		count:    len(items),
		row: func(i int) *record.Row {
			it := items[i]
			out := record.New(it.row.Len() + 2)
			out.Set(groupColumn, record.Number(float64(it.group)))
			out.Set(groupSizeColumn, record.Number(float64(it.size)))
			it.row.Each(func(col string, v record.Value) bool {
				if !out.Has(col) {
					out.Set(col, v)
				}
				return true
			})
			return out
		},
		size: func(i int) int { return items[i].row.EstimatedSize() + 32 },
	}
}

// FlattenPair merges the dataset 2 row into a copy of the dataset 1 row under
// MatchedPrefix. When a prefixed name already exists the dataset 2 value is
// dropped, so the first writer wins.
func FlattenPair(p reconcile.MatchedPair) *record.Row {
	out := p.File1.Clone()
	if out == nil {
		out = record.New(p.File2.Len())
	}
	p.File2.Each(func(col string, v record.Value) bool {
		name := MatchedPrefix + col
		if !out.Has(name) {
			out.Set(name, v)
		}
		return true
	})
	return out
}

// headers returns the union of columns of rows [start, end) in first-seen order.
func (t table) headers(start, end int) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := start; i < end; i++ {
		t.row(i).Each(func(col string, _ record.Value) bool {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				out = append(out, col)
			}
			return true
		})
	}
	return out
}

// estimate sums the estimated size of rows [start, end).
func (t table) estimate(start, end int) int64 {
	var n int64
	for i := start; i < end; i++ {
		n += int64(t.size(i))
	}
	return n
}

// sample materializes up to n rows from start for chunk sizing.
func (t table) sample(start, end, n int) []*record.Row {
	end = min(end, start+n)
	out := make([]*record.Row, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		out = append(out, t.row(i))
	}
	return out
}
