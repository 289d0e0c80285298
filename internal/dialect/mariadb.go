package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/idxadvisor/idxadvisor/internal/bench"
)

// MariaDB implements Dialect for MariaDB and MySQL-compatible servers.
//
// Plan analysis uses ANALYZE, which executes the statement and reports
// per-plan-node runtime rows (r_rows) and post-filter selectivity
// (r_filtered) alongside the optimizer's annotations in Extra. Statement
// capture reads the performance_schema digest summary.
type MariaDB struct{}

// Name implements Dialect.
func (MariaDB) Name() string { return "mariadb" }

// DriverName implements Dialect.
func (MariaDB) DriverName() string { return "mysql" }

// QuoteIdent implements Dialect. Embedded backticks are doubled.
func (MariaDB) QuoteIdent(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// TableExistsSQL implements Dialect. Only BASE TABLEs count: views and
// temporary tables cannot take secondary indexes.
func (MariaDB) TableExistsSQL() string {
	return `SELECT 1
FROM information_schema.TABLES
WHERE TABLE_SCHEMA = DATABASE()
  AND TABLE_NAME = ?
  AND TABLE_TYPE = 'BASE TABLE'`
}

// IndexRowsSQL implements Dialect.
func (MariaDB) IndexRowsSQL() string {
	return `SELECT TABLE_NAME, INDEX_NAME, COLUMN_NAME, SEQ_IN_INDEX, NON_UNIQUE, INDEX_TYPE
FROM information_schema.STATISTICS
WHERE TABLE_SCHEMA = DATABASE()
  AND TABLE_NAME = ?
ORDER BY INDEX_NAME, SEQ_IN_INDEX`
}

// AutoIncrementSQL implements Dialect.
func (MariaDB) AutoIncrementSQL() string {
	return `SELECT t.TABLE_NAME, t.AUTO_INCREMENT, c.COLUMN_TYPE
FROM information_schema.TABLES t
JOIN information_schema.COLUMNS c
  ON c.TABLE_SCHEMA = t.TABLE_SCHEMA
 AND c.TABLE_NAME = t.TABLE_NAME
WHERE t.TABLE_SCHEMA = DATABASE()
  AND c.EXTRA LIKE '%auto_increment%'`
}

// CaptureSQL implements Dialect. The digest summary already aggregates
// statements by parameterized form, with literals replaced by "?".
func (MariaDB) CaptureSQL() string {
	return `SELECT DIGEST_TEXT, COUNT_STAR
FROM performance_schema.events_statements_summary_by_digest
WHERE SCHEMA_NAME = DATABASE()
  AND DIGEST_TEXT LIKE 'SELECT%'
ORDER BY COUNT_STAR DESC`
}

// AnalyzeSQL implements Dialect.
func (MariaDB) AnalyzeSQL(sample string) string {
	return "ANALYZE " + sample
}

// ParsePlan implements Dialect. ANALYZE output is already tabular; each
// row maps straight to one record. Rows without runtime statistics (for
// example const-table lookups) keep empty strings and zero selectivity.
func (MariaDB) ParsePlan(rows []map[string]string) ([]bench.Record, error) {
	records := make([]bench.Record, 0, len(rows))
	for _, row := range rows {
		rec := bench.Record{RowsExamined: row["r_rows"], Annotation: row["Extra"]}
		if v := row["r_filtered"]; v != "" {
			pct, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("parse r_filtered %q: %w", v, err)
			}
			rec.SelectivityPct = pct
		}
		records = append(records, rec)
	}
	return records, nil
}

// CreateIndexSQL implements Dialect.
func (d MariaDB) CreateIndexSQL(table, index string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
	}
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		d.QuoteIdent(index), d.QuoteIdent(table), strings.Join(quoted, ", "))
}

// DropIndexSQL implements Dialect.
func (d MariaDB) DropIndexSQL(table, index string) string {
	return fmt.Sprintf("DROP INDEX IF EXISTS %s ON %s",
		d.QuoteIdent(index), d.QuoteIdent(table))
}
