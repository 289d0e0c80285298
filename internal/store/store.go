// Package store executes the advisor's database operations: catalog
// reads, statement capture, plan analysis, and index DDL.
//
// All engine-specific SQL comes from a dialect.Dialect; the store itself
// only drives database/sql and converts rows into the domain types the
// rest of the pipeline consumes.
package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/idxadvisor/idxadvisor/internal/advisor"
	"github.com/idxadvisor/idxadvisor/internal/bench"
	"github.com/idxadvisor/idxadvisor/internal/dialect"
	"github.com/idxadvisor/idxadvisor/internal/errors"
	"github.com/idxadvisor/idxadvisor/internal/hygiene"
	"github.com/idxadvisor/idxadvisor/internal/pkmon"
)

// IndexPrefix marks indexes created by the advisor. Only indexes bearing
// this prefix are ever dropped automatically.
const IndexPrefix = "idxadv_"

// Captured is one parameterized statement read from the server's
// statement capture view, with its observed occurrence count.
type Captured struct {
	Text  string
	Count uint64
}

// Store wraps one database connection pool and the dialect that shaped it.
type Store struct {
	db *sql.DB
	d  dialect.Dialect
}

// Connect opens a connection pool for the dialect's driver and verifies
// it with a ping before returning.
func Connect(ctx context.Context, d dialect.Dialect, dsn string) (*Store, error) {
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, d: d}, nil
}

// New wraps an existing pool. The caller keeps ownership of db.
func New(db *sql.DB, d dialect.Dialect) *Store {
	return &Store{db: db, d: d}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect returns the dialect the store was opened with.
func (s *Store) Dialect() dialect.Dialect {
	return s.d
}

// IndexName derives the managed name for a candidate's index:
// the advisor prefix followed by the column names joined with "_".
func IndexName(c *advisor.Candidate) string {
	return IndexPrefix + strings.Join(c.Columns, "_")
}

// TableExists reports whether table exists as a real table in the
// current schema. Views, derived tables, and temporaries do not count.
func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, s.d.TableExistsSQL(), table)
	if err != nil {
		return false, errors.NewCatalogError(table, "table exists", err)
	}
	defer rows.Close()
	exists := rows.Next()
	return exists, rows.Err()
}

// IndexRows reads the raw per-column index catalog rows for table.
func (s *Store) IndexRows(ctx context.Context, table string) ([]hygiene.RawIndexRow, error) {
	rows, err := s.db.QueryContext(ctx, s.d.IndexRowsSQL(), table)
	if err != nil {
		return nil, errors.NewCatalogError(table, "list indexes", err)
	}
	defer rows.Close()

	var raw []hygiene.RawIndexRow
	for rows.Next() {
		var r hygiene.RawIndexRow
		if err := rows.Scan(&r.Table, &r.KeyName, &r.ColumnName, &r.SeqInIndex, &r.NonUnique, &r.IndexType); err != nil {
			return nil, errors.NewCatalogError(table, "scan index row", err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogError(table, "list indexes", err)
	}
	return raw, nil
}

// Indexes reads table's indexes reduced to ordered column lists.
func (s *Store) Indexes(ctx context.Context, table string) ([]hygiene.ExistingIndex, error) {
	raw, err := s.IndexRows(ctx, table)
	if err != nil {
		return nil, err
	}
	return hygiene.Reduce(raw), nil
}

// ManagedIndexes returns the names of advisor-created indexes on table.
func (s *Store) ManagedIndexes(ctx context.Context, table string) ([]string, error) {
	existing, err := s.Indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	var managed []string
	for _, ix := range existing {
		if strings.HasPrefix(ix.KeyName, IndexPrefix) {
			managed = append(managed, ix.KeyName)
		}
	}
	return managed, nil
}

// DropManaged drops every advisor-created index on table and returns the
// names it removed.
func (s *Store) DropManaged(ctx context.Context, table string) ([]string, error) {
	managed, err := s.ManagedIndexes(ctx, table)
	if err != nil {
		return nil, err
	}
	var dropped []string
	for _, name := range managed {
		if err := s.DropIndex(ctx, table, name); err != nil {
			return dropped, err
		}
		dropped = append(dropped, name)
	}
	return dropped, nil
}

// Analyze implements bench.Analyzer: it runs the dialect's empirical
// plan analysis over sample and normalizes the output.
func (s *Store) Analyze(ctx context.Context, sample string) ([]bench.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.d.AnalyzeSQL(sample))
	if err != nil {
		return nil, errors.NewAnalyzeError(sample, err)
	}
	defer rows.Close()

	raw, err := scanMaps(rows)
	if err != nil {
		return nil, errors.NewAnalyzeError(sample, err)
	}
	records, err := s.d.ParsePlan(raw)
	if err != nil {
		return nil, errors.NewAnalyzeError(sample, err)
	}
	return records, nil
}

// CreateIndex creates the managed index for one candidate and returns
// its name.
func (s *Store) CreateIndex(ctx context.Context, table string, c *advisor.Candidate) (string, error) {
	name := IndexName(c)
	if _, err := s.db.ExecContext(ctx, s.d.CreateIndexSQL(table, name, c.Columns)); err != nil {
		return name, errors.NewDDLError(table, name, err)
	}
	return name, nil
}

// DropIndex drops an index by name. Dropping a missing index is not an
// error.
func (s *Store) DropIndex(ctx context.Context, table, index string) error {
	if _, err := s.db.ExecContext(ctx, s.d.DropIndexSQL(table, index)); err != nil {
		return errors.NewDDLError(table, index, err)
	}
	return nil
}

// AutoIncColumns reads every auto-incrementing column in the current
// schema with its counter value and column type.
func (s *Store) AutoIncColumns(ctx context.Context) ([]pkmon.AutoIncColumn, error) {
	rows, err := s.db.QueryContext(ctx, s.d.AutoIncrementSQL())
	if err != nil {
		return nil, errors.NewCatalogError("", "auto-increment columns", err)
	}
	defer rows.Close()

	var cols []pkmon.AutoIncColumn
	for rows.Next() {
		var (
			c     pkmon.AutoIncColumn
			value sql.NullString
		)
		if err := rows.Scan(&c.Table, &value, &c.ColumnType); err != nil {
			return nil, errors.NewCatalogError("", "scan auto-increment row", err)
		}
		if value.Valid {
			// AUTO_INCREMENT is an unsigned 64-bit counter, which
			// sql.NullInt64 cannot hold in its upper half.
			v, err := strconv.ParseUint(value.String, 10, 64)
			if err != nil {
				return nil, errors.NewCatalogError(c.Table, "parse auto-increment value", err)
			}
			c.Value = v
			c.HasValue = true
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogError("", "auto-increment columns", err)
	}
	return cols, nil
}

// CapturedStatements reads the server's captured read statements, most
// frequent first. An empty capture view yields ErrNoData.
func (s *Store) CapturedStatements(ctx context.Context) ([]Captured, error) {
	rows, err := s.db.QueryContext(ctx, s.d.CaptureSQL())
	if err != nil {
		return nil, errors.NewCatalogError("", "statement capture", err)
	}
	defer rows.Close()

	var captured []Captured
	for rows.Next() {
		var (
			c    Captured
			text sql.NullString
		)
		if err := rows.Scan(&text, &c.Count); err != nil {
			return nil, errors.NewCatalogError("", "scan captured statement", err)
		}
		if !text.Valid || text.String == "" {
			continue
		}
		c.Text = text.String
		captured = append(captured, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewCatalogError("", "statement capture", err)
	}
	if len(captured) == 0 {
		return nil, errors.ErrNoData
	}
	return captured, nil
}

// scanMaps reads every remaining row into column-name keyed string maps.
// NULLs become empty strings.
func scanMaps(rows *sql.Rows) ([]map[string]string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]string
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]string, len(cols))
		for i, col := range cols {
			row[col] = values[i].String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
