// Package hygiene detects duplicate and left-prefix redundant indexes over a
// table's existing index definitions. Both detectors are pure and
// table-scoped; they operate on the reduced form of raw catalog rows.
package hygiene

import (
	"sort"
	"strings"
)

// primaryKeyName is never reported as redundant, even when duplicated.
const primaryKeyName = "PRIMARY"

// RawIndexRow is one catalog row describing a single column of an index.
type RawIndexRow struct {
	Table      string
	KeyName    string
	ColumnName string
	SeqInIndex int
	NonUnique  bool
	IndexType  string
}

// ExistingIndex is the reduced form: one entry per key with its ordered
// column list.
type ExistingIndex struct {
	KeyName string
	Columns []string
}

// Redundancy reports one index superseded by another.
type Redundancy struct {
	Redundant    string
	SupersededBy string
	Columns      []string
}

// Report is the combined result of both detectors for one table.
type Report struct {
	Duplicates []Redundancy
	Redundant  []Redundancy
}

// Reduce groups raw catalog rows by key name, ordering columns by sequence
// position within each key. Keys keep their catalog appearance order.
func Reduce(rows []RawIndexRow) []ExistingIndex {
	byKey := make(map[string][]RawIndexRow)
	var order []string
	for _, row := range rows {
		if _, seen := byKey[row.KeyName]; !seen {
			order = append(order, row.KeyName)
		}
		byKey[row.KeyName] = append(byKey[row.KeyName], row)
	}

	out := make([]ExistingIndex, 0, len(order))
	for _, key := range order {
		cols := byKey[key]
		sort.SliceStable(cols, func(i, j int) bool {
			return cols[i].SeqInIndex < cols[j].SeqInIndex
		})
		idx := ExistingIndex{KeyName: key}
		for _, c := range cols {
			idx.Columns = append(idx.Columns, c.ColumnName)
		}
		out = append(out, idx)
	}
	return out
}

// FindDuplicates groups indexes by exact column-sequence equality and
// reports every member after the first (in catalog order) as superseded by
// the first. The primary key is never reported.
func FindDuplicates(indexes []ExistingIndex) []Redundancy {
	groups := make(map[string][]ExistingIndex)
	var order []string
	for _, idx := range indexes {
		sig := strings.Join(idx.Columns, "\x00")
		if _, seen := groups[sig]; !seen {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], idx)
	}

	var out []Redundancy
	for _, sig := range order {
		group := groups[sig]
		if len(group) < 2 {
			continue
		}
		keeper := group[0]
		for _, dup := range group[1:] {
			if dup.KeyName == primaryKeyName {
				continue
			}
			out = append(out, Redundancy{
				Redundant:    dup.KeyName,
				SupersededBy: keeper.KeyName,
				Columns:      dup.Columns,
			})
		}
	}
	return out
}

// FindRedundant reports indexes whose full column list is a left prefix of a
// strictly longer index. Scanning is longest-first and stops at the first
// superseder, so each index is reported at most once. The primary key is
// never reported.
func FindRedundant(indexes []ExistingIndex) []Redundancy {
	sorted := make([]ExistingIndex, len(indexes))
	copy(sorted, indexes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Columns) > len(sorted[j].Columns)
	})

	var out []Redundancy
	for _, idx := range indexes {
		if idx.KeyName == primaryKeyName || len(idx.Columns) == 0 {
			continue
		}
		for _, longer := range sorted {
			if longer.KeyName == idx.KeyName {
				continue
			}
			if len(longer.Columns) <= len(idx.Columns) {
				// sorted longest-first: nothing further can be a superseder
				break
			}
			if isPrefix(idx.Columns, longer.Columns) {
				out = append(out, Redundancy{
					Redundant:    idx.KeyName,
					SupersededBy: longer.KeyName,
					Columns:      idx.Columns,
				})
				break
			}
		}
	}
	return out
}

// AnalyzeTable runs both detectors over one table's reduced indexes.
func AnalyzeTable(indexes []ExistingIndex) Report {
	return Report{
		Duplicates: FindDuplicates(indexes),
		Redundant:  FindRedundant(indexes),
	}
}

// ColumnLists strips key names, for consumers that only compare sequences.
func ColumnLists(indexes []ExistingIndex) [][]string {
	out := make([][]string, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, idx.Columns)
	}
	return out
}

func isPrefix(short, long []string) bool {
	if len(short) > len(long) {
		return false
	}
	for i := range short {
		if short[i] != long[i] {
			return false
		}
	}
	return true
}
