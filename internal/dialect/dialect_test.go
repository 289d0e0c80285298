package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idxadvisor/idxadvisor/internal/bench"
	"github.com/idxadvisor/idxadvisor/internal/errors"
)

// TestForNames verifies registry lookup, aliases included.
func TestForNames(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"mariadb", "mariadb", false},
		{"mysql", "mariadb", false},
		{"postgres", "postgres", false},
		{"postgresql", "postgres", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := For(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, errors.ErrUnknownDialect)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

// TestQuoteIdent verifies quoting and embedded-delimiter escaping.
func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "`tabNote`", MariaDB{}.QuoteIdent("tabNote"))
	assert.Equal(t, "`a``b`", MariaDB{}.QuoteIdent("a`b"))
	assert.Equal(t, `"tabNote"`, Postgres{}.QuoteIdent("tabNote"))
	assert.Equal(t, `"a""b"`, Postgres{}.QuoteIdent(`a"b`))
}

// TestMariaDBDDL verifies create and drop statement shapes.
func TestMariaDBDDL(t *testing.T) {
	d := MariaDB{}
	assert.Equal(t,
		"CREATE INDEX `idxadv_owner_status` ON `tabNote` (`owner`, `status`)",
		d.CreateIndexSQL("tabNote", "idxadv_owner_status", []string{"owner", "status"}))
	assert.Equal(t,
		"DROP INDEX IF EXISTS `idxadv_owner` ON `tabNote`",
		d.DropIndexSQL("tabNote", "idxadv_owner"))
}

// TestPostgresDDL verifies create and drop statement shapes.
func TestPostgresDDL(t *testing.T) {
	d := Postgres{}
	assert.Equal(t,
		`CREATE INDEX "idxadv_owner" ON "notes" ("owner")`,
		d.CreateIndexSQL("notes", "idxadv_owner", []string{"owner"}))
	assert.Equal(t,
		`DROP INDEX IF EXISTS "idxadv_owner"`,
		d.DropIndexSQL("notes", "idxadv_owner"))
}

// TestAnalyzeSQL verifies the empirical analysis wrappers.
func TestAnalyzeSQL(t *testing.T) {
	assert.Equal(t, "ANALYZE SELECT 1", MariaDB{}.AnalyzeSQL("SELECT 1"))
	assert.Equal(t, "EXPLAIN (ANALYZE, FORMAT JSON) SELECT 1", Postgres{}.AnalyzeSQL("SELECT 1"))
}

// TestMariaDBParsePlan verifies tabular ANALYZE rows map straight onto
// records, including rows without runtime statistics.
func TestMariaDBParsePlan(t *testing.T) {
	rows := []map[string]string{
		{"r_rows": "120.00", "r_filtered": "8.50", "Extra": "Using where"},
		{"r_rows": "", "r_filtered": "", "Extra": ""},
	}

	records, err := MariaDB{}.ParsePlan(rows)
	require.NoError(t, err)
	assert.Equal(t, []bench.Record{
		{RowsExamined: "120.00", SelectivityPct: 8.5, Annotation: "Using where"},
		{RowsExamined: "", SelectivityPct: 0, Annotation: ""},
	}, records)
}

// TestMariaDBParsePlanBadFilter verifies malformed selectivity fails.
func TestMariaDBParsePlanBadFilter(t *testing.T) {
	_, err := MariaDB{}.ParsePlan([]map[string]string{{"r_filtered": "lots"}})
	assert.Error(t, err)
}

// TestPostgresParsePlan verifies the plan tree flattens depth-first with
// synthesized annotations and capped selectivity.
func TestPostgresParsePlan(t *testing.T) {
	doc := `[{"Plan": {
		"Node Type": "Sort",
		"Plan Rows": 10,
		"Actual Rows": 50,
		"Plans": [{
			"Node Type": "Index Scan",
			"Index Name": "notes_owner_idx",
			"Filter": "(status = 1)",
			"Plan Rows": 100,
			"Actual Rows": 50
		}]
	}}]`

	records, err := Postgres{}.ParsePlan([]map[string]string{{"QUERY PLAN": doc}})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "50.00", records[0].RowsExamined)
	assert.Equal(t, 100.0, records[0].SelectivityPct) // capped
	assert.Equal(t, "Using filesort", records[0].Annotation)

	assert.Equal(t, 50.0, records[1].SelectivityPct)
	assert.Equal(t, "Using where; Using index (notes_owner_idx)", records[1].Annotation)
}

// TestPostgresParsePlanEmpty verifies no rows yield no records.
func TestPostgresParsePlanEmpty(t *testing.T) {
	records, err := Postgres{}.ParsePlan(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}
