package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idxadvisor/idxadvisor/internal/advisor"
	"github.com/idxadvisor/idxadvisor/internal/bench"
	"github.com/idxadvisor/idxadvisor/internal/errors"
	"github.com/idxadvisor/idxadvisor/internal/hygiene"
	"github.com/idxadvisor/idxadvisor/internal/pkmon"
	"github.com/idxadvisor/idxadvisor/internal/store"
)

// fakeStorage scripts the database surface for pipeline tests.
type fakeStorage struct {
	captured    []store.Captured
	capturedErr error

	tables  map[string]bool
	indexes map[string][]hygiene.ExistingIndex
	autoInc []pkmon.AutoIncColumn

	// samples marked improved return a better plan on the second call
	improved map[string]bool

	analyzeCalls map[string]int
	failCreate   map[string]bool // keyed by index name
	created      []string
	dropped      []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		tables:       map[string]bool{},
		indexes:      map[string][]hygiene.ExistingIndex{},
		improved:     map[string]bool{},
		analyzeCalls: map[string]int{},
		failCreate:   map[string]bool{},
	}
}

func (f *fakeStorage) TableExists(_ context.Context, table string) (bool, error) {
	return f.tables[table], nil
}

func (f *fakeStorage) Indexes(_ context.Context, table string) ([]hygiene.ExistingIndex, error) {
	return f.indexes[table], nil
}

func (f *fakeStorage) Analyze(_ context.Context, sample string) ([]bench.Record, error) {
	f.analyzeCalls[sample]++
	if f.improved[sample] && f.analyzeCalls[sample] > 1 {
		return []bench.Record{{RowsExamined: "1.00", SelectivityPct: 100}}, nil
	}
	return []bench.Record{{RowsExamined: "500.00", SelectivityPct: 10}}, nil
}

func (f *fakeStorage) CreateIndex(_ context.Context, table string, c *advisor.Candidate) (string, error) {
	name := store.IndexName(c)
	if f.failCreate[name] {
		return name, errors.NewDDLError(table, name, errors.ErrNoData)
	}
	f.created = append(f.created, name)
	return name, nil
}

func (f *fakeStorage) DropIndex(_ context.Context, _, index string) error {
	f.dropped = append(f.dropped, index)
	return nil
}

func (f *fakeStorage) DropManaged(_ context.Context, table string) ([]string, error) {
	var dropped []string
	for _, ix := range f.indexes[table] {
		if strings.HasPrefix(ix.KeyName, store.IndexPrefix) {
			dropped = append(dropped, ix.KeyName)
		}
	}
	f.dropped = append(f.dropped, dropped...)
	return dropped, nil
}

func (f *fakeStorage) CapturedStatements(_ context.Context) ([]store.Captured, error) {
	if f.capturedErr != nil {
		return nil, f.capturedErr
	}
	return f.captured, nil
}

func (f *fakeStorage) AutoIncColumns(_ context.Context) ([]pkmon.AutoIncColumn, error) {
	return f.autoInc, nil
}

func testEngine(t *testing.T, st Storage) *Engine {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, log, filepath.Join(t.TempDir(), "test.lock"))
}

// TestOptimizeKeepsImprovedIndex verifies the full pipeline for a
// candidate whose backtest shows improvement.
func TestOptimizeKeepsImprovedIndex(t *testing.T) {
	st := newFakeStorage()
	st.tables["tabNote"] = true
	st.captured = []store.Captured{
		{Text: "SELECT name FROM tabNote WHERE owner = ?", Count: 40},
	}
	st.improved["SELECT name FROM tabNote WHERE owner = 1"] = true

	summary, err := testEngine(t, st).Optimize(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"idxadv_owner"}, summary.Created)
	assert.Empty(t, summary.Dropped)
	assert.NotEmpty(t, summary.RunID)
}

// TestOptimizeDropsUnchangedIndex verifies an index with identical
// before/after plans is removed again.
func TestOptimizeDropsUnchangedIndex(t *testing.T) {
	st := newFakeStorage()
	st.tables["tabNote"] = true
	st.captured = []store.Captured{
		{Text: "SELECT name FROM tabNote WHERE owner = ?", Count: 40},
	}

	summary, err := testEngine(t, st).Optimize(context.Background(), Options{})
	require.NoError(t, err)

	assert.Empty(t, summary.Created)
	assert.Equal(t, []string{"idxadv_owner"}, summary.Dropped)
	assert.Equal(t, []string{"idxadv_owner"}, st.dropped)
}

// TestOptimizeSkipBacktest verifies created indexes are kept without
// measuring when the backtest is disabled.
func TestOptimizeSkipBacktest(t *testing.T) {
	st := newFakeStorage()
	st.tables["tabNote"] = true
	st.captured = []store.Captured{
		{Text: "SELECT name FROM tabNote WHERE owner = ?", Count: 40},
	}

	summary, err := testEngine(t, st).Optimize(context.Background(), Options{SkipBacktest: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"idxadv_owner"}, summary.Created)
	assert.Empty(t, st.analyzeCalls)
}

// TestOptimizeFailedCreationExcluded verifies a failed creation lands in
// Failed and is never dropped.
func TestOptimizeFailedCreationExcluded(t *testing.T) {
	st := newFakeStorage()
	st.tables["tabNote"] = true
	st.captured = []store.Captured{
		{Text: "SELECT name FROM tabNote WHERE owner = ?", Count: 40},
	}
	st.failCreate["idxadv_owner"] = true

	summary, err := testEngine(t, st).Optimize(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"idxadv_owner"}, summary.Failed)
	assert.Empty(t, summary.Created)
	assert.Empty(t, st.dropped)
}

// TestOptimizeSkipsMissingTable verifies statements against absent
// tables skip the table without failing the run.
func TestOptimizeSkipsMissingTable(t *testing.T) {
	st := newFakeStorage()
	st.captured = []store.Captured{
		{Text: "SELECT name FROM tabGone WHERE owner = ?", Count: 40},
	}

	summary, err := testEngine(t, st).Optimize(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"tabGone"}, summary.TablesSkipped)
}

// TestOptimizeNoData verifies an empty capture is a clean no-op.
func TestOptimizeNoData(t *testing.T) {
	st := newFakeStorage()
	st.capturedErr = errors.ErrNoData

	summary, err := testEngine(t, st).Optimize(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, summary.Created)
}

// TestOptimizeLockHeld verifies a concurrent invocation aborts instead
// of queuing.
func TestOptimizeLockHeld(t *testing.T) {
	st := newFakeStorage()
	lockPath := filepath.Join(t.TempDir(), "test.lock")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := New(st, log, lockPath)

	held := flock.New(lockPath)
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	_, err = e.Optimize(context.Background(), Options{})
	assert.ErrorIs(t, err, errors.ErrLockHeld)
}

// TestOptimizeTableFilter verifies the run only touches named tables.
func TestOptimizeTableFilter(t *testing.T) {
	st := newFakeStorage()
	st.tables["tabNote"] = true
	st.tables["tabUser"] = true
	st.captured = []store.Captured{
		{Text: "SELECT name FROM tabNote WHERE owner = ?", Count: 40},
		{Text: "SELECT name FROM tabUser WHERE enabled = ?", Count: 40},
	}
	st.improved["SELECT name FROM tabNote WHERE owner = 1"] = true
	st.improved["SELECT name FROM tabUser WHERE enabled = 1"] = true

	summary, err := testEngine(t, st).Optimize(context.Background(), Options{Tables: []string{"tabUser"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"idxadv_enabled"}, summary.Created)
}

// TestOptimizeMergesDuplicateCaptures verifies duplicate parameterized
// texts fold into one statement before extraction.
func TestOptimizeMergesDuplicateCaptures(t *testing.T) {
	st := newFakeStorage()
	st.tables["tabNote"] = true
	st.captured = []store.Captured{
		{Text: "SELECT name FROM tabNote WHERE owner = ?", Count: 3},
		{Text: "SELECT name FROM tabNote WHERE owner = ?", Count: 4},
	}
	st.improved["SELECT name FROM tabNote WHERE owner = 1"] = true

	// merged weight 7 clears the threshold a single capture would not
	summary, err := testEngine(t, st).Optimize(context.Background(), Options{MinOccurrence: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"idxadv_owner"}, summary.Created)
	assert.Len(t, st.created, 1)
}

// TestIndexesMissingTable verifies the hygiene operation rejects absent
// tables.
func TestIndexesMissingTable(t *testing.T) {
	st := newFakeStorage()
	_, _, err := testEngine(t, st).Indexes(context.Background(), "tabGone")
	assert.ErrorIs(t, err, errors.ErrTableNotFound)
}

// TestIndexesReportsHygiene verifies the combined hygiene report.
func TestIndexesReportsHygiene(t *testing.T) {
	st := newFakeStorage()
	st.tables["tabNote"] = true
	st.indexes["tabNote"] = []hygiene.ExistingIndex{
		{KeyName: "idx_a", Columns: []string{"owner"}},
		{KeyName: "idx_b", Columns: []string{"owner"}},
	}

	existing, rep, err := testEngine(t, st).Indexes(context.Background(), "tabNote")
	require.NoError(t, err)
	assert.Len(t, existing, 2)
	require.Len(t, rep.Duplicates, 1)
	assert.Equal(t, "idx_b", rep.Duplicates[0].Redundant)
}

// TestDropManaged verifies only advisor-created indexes are removed.
func TestDropManaged(t *testing.T) {
	st := newFakeStorage()
	st.tables["tabNote"] = true
	st.indexes["tabNote"] = []hygiene.ExistingIndex{
		{KeyName: "PRIMARY", Columns: []string{"name"}},
		{KeyName: "idxadv_owner", Columns: []string{"owner"}},
		{KeyName: "idx_status", Columns: []string{"status"}},
	}

	dropped, err := testEngine(t, st).DropManaged(context.Background(), "tabNote")
	require.NoError(t, err)
	assert.Equal(t, []string{"idxadv_owner"}, dropped)
	assert.Equal(t, []string{"idxadv_owner"}, st.dropped)
}

// TestDropManagedMissingTable verifies the not-found sentinel is returned.
func TestDropManagedMissingTable(t *testing.T) {
	_, err := testEngine(t, newFakeStorage()).DropManaged(context.Background(), "tabGone")
	assert.ErrorIs(t, err, errors.ErrTableNotFound)
}

// TestPKExhaustion verifies the monitor pass-through.
func TestPKExhaustion(t *testing.T) {
	st := newFakeStorage()
	st.autoInc = []pkmon.AutoIncColumn{
		{Table: "tabNote", Value: 120, HasValue: true, ColumnType: "tinyint"},
	}

	entries, err := testEngine(t, st).PKExhaustion(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, pkmon.SeverityRed, entries[0].Severity)
}
