// Package dialect abstracts the engine-specific SQL surface of the
// supported database servers.
//
// The advisor pipeline itself is engine-neutral: it works on captured
// statement text, catalog rows, and normalized plan records. Everything
// that differs between MariaDB and PostgreSQL — identifier quoting, the
// plan-analysis statement, catalog queries, DDL templates, and the shape
// of the plan output — lives behind the Dialect interface.
package dialect

import (
	"github.com/idxadvisor/idxadvisor/internal/bench"
	"github.com/idxadvisor/idxadvisor/internal/errors"
)

// Dialect describes the SQL surface of one supported database engine.
//
// All *SQL methods return statements using the engine's native bind
// placeholder style ("?" for MariaDB, "$1" for PostgreSQL); callers pass
// arguments positionally through database/sql.
type Dialect interface {
	// Name returns the dialect's registered name ("mariadb" or "postgres").
	Name() string

	// DriverName returns the database/sql driver name to open
	// connections with.
	DriverName() string

	// QuoteIdent quotes a single identifier for interpolation into DDL.
	QuoteIdent(ident string) string

	// TableExistsSQL returns a query taking one table-name argument and
	// yielding at least one row iff the table exists as a real table in
	// the current schema.
	TableExistsSQL() string

	// IndexRowsSQL returns a query taking one table-name argument and
	// yielding one row per (index, column) pair: table name, key name,
	// column name, sequence-in-index, non-unique flag, index type.
	// Primary-key indexes are reported under the key name "PRIMARY".
	IndexRowsSQL() string

	// AutoIncrementSQL returns a query yielding one row per
	// auto-incrementing column in the current schema: table name,
	// current counter value (nullable), and the column's type.
	AutoIncrementSQL() string

	// CaptureSQL returns a query yielding captured read statements with
	// their observed occurrence counts, most frequent first.
	CaptureSQL() string

	// AnalyzeSQL wraps a statement sample in the engine's empirical
	// plan-analysis form. The statement is executed, not just planned.
	AnalyzeSQL(sample string) string

	// ParsePlan normalizes the raw result rows of an AnalyzeSQL
	// execution into benchmark records.
	ParsePlan(rows []map[string]string) ([]bench.Record, error)

	// CreateIndexSQL returns the DDL creating a plain secondary index.
	CreateIndexSQL(table, index string, columns []string) string

	// DropIndexSQL returns the DDL dropping an index if it exists.
	DropIndexSQL(table, index string) string
}

// For returns the dialect registered under name.
func For(name string) (Dialect, error) {
	switch name {
	case "mariadb", "mysql":
		return MariaDB{}, nil
	case "postgres", "postgresql":
		return Postgres{}, nil
	default:
		return nil, errors.ErrUnknownDialect
	}
}
