// Package pkmon monitors auto-incrementing primary keys for integer
// exhaustion and classifies how close each table is to its type's ceiling.
package pkmon

import (
	"regexp"
	"sort"
	"strings"
)

// Severity thresholds: below 50% is green, 80% and above is red.
const (
	SeverityGreen  = "green"
	SeverityYellow = "yellow"
	SeverityRed    = "red"

	yellowThreshold = 50.0
	redThreshold    = 80.0
)

// maxValues maps a normalized integer type to its maximum representable
// value. Covers the MariaDB signed/unsigned 8/16/24/32/64-bit kinds plus the
// PostgreSQL sequence type names.
var maxValues = map[string]uint64{
	"tinyint":            127,
	"tinyint unsigned":   255,
	"smallint":           32_767,
	"smallint unsigned":  65_535,
	"mediumint":          8_388_607,
	"mediumint unsigned": 16_777_215,
	"int":                2_147_483_647,
	"int unsigned":       4_294_967_295,
	"bigint":             9_223_372_036_854_775_807,
	"bigint unsigned":    18_446_744_073_709_551_615,
	"integer":            2_147_483_647,
}

var displayWidthPattern = regexp.MustCompile(`\(\d+\)`)

// AutoIncColumn is one catalog row: a table's auto-increment counter and the
// declared type of its primary key column. HasValue is false when the
// catalog reported no current value; such tables are excluded from reports.
type AutoIncColumn struct {
	Table      string
	Value      uint64
	HasValue   bool
	ColumnType string
}

// Entry is one report line.
type Entry struct {
	Table    string
	Current  uint64
	Max      uint64
	UsagePct float64
	Severity string
}

// NormalizeType strips display-width annotations from a declared column
// type, e.g. "int(11) unsigned" becomes "int unsigned".
func NormalizeType(columnType string) string {
	out := displayWidthPattern.ReplaceAllString(columnType, "")
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// MaxForType returns the maximum value for a declared integer type. The
// second result is false for unknown or non-integer types.
func MaxForType(columnType string) (uint64, bool) {
	max, ok := maxValues[NormalizeType(columnType)]
	return max, ok
}

// Usage returns current/max as a percentage.
func Usage(current, max uint64) float64 {
	return float64(current) / float64(max) * 100
}

// ClassifySeverity buckets a usage percentage; thresholds are inclusive on
// the high side.
func ClassifySeverity(usagePct float64) string {
	switch {
	case usagePct >= redThreshold:
		return SeverityRed
	case usagePct >= yellowThreshold:
		return SeverityYellow
	default:
		return SeverityGreen
	}
}

// BuildReport classifies every auto-increment column, keeps entries at or
// above minUsagePct, and sorts them by usage descending. Unknown types and
// rows without a current value produce no entry.
func BuildReport(columns []AutoIncColumn, minUsagePct float64) []Entry {
	var report []Entry
	for _, col := range columns {
		if !col.HasValue {
			continue
		}
		max, ok := MaxForType(col.ColumnType)
		if !ok {
			continue
		}
		usage := Usage(col.Value, max)
		if usage < minUsagePct {
			continue
		}
		report = append(report, Entry{
			Table:    col.Table,
			Current:  col.Value,
			Max:      max,
			UsagePct: usage,
			Severity: ClassifySeverity(usage),
		})
	}
	sort.SliceStable(report, func(i, j int) bool {
		return report[i].UsagePct > report[j].UsagePct
	})
	return report
}
