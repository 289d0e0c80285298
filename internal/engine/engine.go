// Package engine drives the full advisor pipeline: capture, candidate
// extraction, qualification, index creation, backtest, and cleanup.
package engine

import (
	"context"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/idxadvisor/idxadvisor/internal/advisor"
	"github.com/idxadvisor/idxadvisor/internal/bench"
	"github.com/idxadvisor/idxadvisor/internal/errors"
	"github.com/idxadvisor/idxadvisor/internal/hygiene"
	"github.com/idxadvisor/idxadvisor/internal/pkmon"
	"github.com/idxadvisor/idxadvisor/internal/store"
)

// prepChunk is the number of statements each pre-parse worker takes.
const prepChunk = 64

// Storage is the database surface the engine drives. *store.Store
// implements it; tests substitute fakes.
type Storage interface {
	TableExists(ctx context.Context, table string) (bool, error)
	Indexes(ctx context.Context, table string) ([]hygiene.ExistingIndex, error)
	Analyze(ctx context.Context, sample string) ([]bench.Record, error)
	CreateIndex(ctx context.Context, table string, c *advisor.Candidate) (string, error)
	DropIndex(ctx context.Context, table, index string) error
	DropManaged(ctx context.Context, table string) ([]string, error)
	CapturedStatements(ctx context.Context) ([]store.Captured, error)
	AutoIncColumns(ctx context.Context) ([]pkmon.AutoIncColumn, error)
}

// Options controls one Optimize run.
type Options struct {
	// Tables restricts the run to the named tables. Empty means every
	// table seen in the capture.
	Tables []string

	// MinOccurrence drops statements observed this many times or fewer.
	MinOccurrence uint64

	// SkipBacktest creates qualified indexes without the before/after
	// measurement, keeping everything that builds.
	SkipBacktest bool
}

// Summary reports what one Optimize run did.
type Summary struct {
	// RunID identifies the run across log streams.
	RunID string

	// Created lists indexes created and kept.
	Created []string

	// Dropped lists indexes created but removed again because the
	// backtest showed no improvement.
	Dropped []string

	// Failed lists index names whose creation failed.
	Failed []string

	// TablesSkipped lists tables dropped from the run because they do
	// not exist as real tables.
	TablesSkipped []string
}

// Engine runs advisor operations against one database.
type Engine struct {
	st       Storage
	log      *slog.Logger
	lockPath string
}

// New creates an Engine. The lock path guards against concurrent
// Optimize runs on the same host.
func New(st Storage, log *slog.Logger, lockPath string) *Engine {
	return &Engine{st: st, log: log, lockPath: lockPath}
}

// Optimize runs the full pipeline once. If another run holds the lock
// the whole invocation aborts with ErrLockHeld rather than queuing.
// Per-table catalog failures are collected and do not stop the run.
func (e *Engine) Optimize(ctx context.Context, opts Options) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	log := e.log.With("run", summary.RunID)

	lock := flock.New(e.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return summary, err
	}
	if !locked {
		return summary, errors.ErrLockHeld
	}
	defer lock.Unlock()

	captured, err := e.st.CapturedStatements(ctx)
	if err != nil {
		if errors.Is(err, errors.ErrNoData) {
			log.Info("no captured statements, nothing to do")
			return summary, nil
		}
		return summary, err
	}
	log.Info("capture read", "statements", len(captured))

	byTable := e.groupByTable(ctx, mergeCaptured(captured), opts.Tables)
	log.Info("statements grouped", "tables", len(byTable))

	var failures errors.MultiError
	for table, statements := range byTable {
		// no mid-table cancellation; the context only stops between tables
		if ctx.Err() != nil {
			failures.Add(ctx.Err())
			break
		}
		if err := e.optimizeTable(ctx, log, table, statements, opts, &summary); err != nil {
			if errors.Is(err, errors.ErrTableNotFound) {
				summary.TablesSkipped = append(summary.TablesSkipped, table)
				log.Debug("table skipped", "table", table)
				continue
			}
			log.Error("table pass failed", "table", table, "error", err)
			failures.Add(err)
		}
	}

	log.Info("run finished",
		"created", len(summary.Created),
		"dropped", len(summary.Dropped),
		"failed", len(summary.Failed),
		"skipped", len(summary.TablesSkipped))
	return summary, failures.ErrorOrNil()
}

// mergeCaptured collapses captured statements with identical
// parameterized text, summing their occurrence counts.
func mergeCaptured(captured []store.Captured) []store.Captured {
	index := make(map[string]int, len(captured))
	merged := make([]store.Captured, 0, len(captured))
	for _, c := range captured {
		if i, ok := index[c.Text]; ok {
			merged[i].Count += c.Count
			continue
		}
		index[c.Text] = len(merged)
		merged = append(merged, c)
	}
	return merged
}

// groupByTable parses the captured statements and buckets them by the
// table they read from. Parsing is memoized on the statement, so the
// chunked pre-parse pass pays the cost up front across workers; the
// grouping itself then only reads cached results. Statements that do
// not parse or have no resolvable table are dropped.
func (e *Engine) groupByTable(ctx context.Context, captured []store.Captured, only []string) map[string][]*advisor.Statement {
	statements := make([]*advisor.Statement, len(captured))
	for i, c := range captured {
		statements[i] = advisor.NewStatement(c.Text, c.Count, nil)
	}

	g, _ := errgroup.WithContext(ctx)
	for start := 0; start < len(statements); start += prepChunk {
		chunk := statements[start:min(start+prepChunk, len(statements))]
		g.Go(func() error {
			for _, s := range chunk {
				s.Scanned()
			}
			return nil
		})
	}
	g.Wait()

	wanted := make(map[string]struct{}, len(only))
	for _, t := range only {
		wanted[t] = struct{}{}
	}

	tables := make(map[string]*advisor.Table)
	byTable := make(map[string][]*advisor.Statement)
	for _, s := range statements {
		scanned, err := s.Scanned()
		if err != nil {
			continue
		}
		name := scanned.PrimaryTable()
		if name == "" {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[name]; !ok {
				continue
			}
		}
		t, ok := tables[name]
		if !ok {
			t = &advisor.Table{Name: name}
			tables[name] = t
		}
		s.Table = t
		byTable[name] = append(byTable[name], s)
	}
	return byTable
}

// optimizeTable runs extraction, qualification, and the backtest
// bracket for one table.
func (e *Engine) optimizeTable(ctx context.Context, log *slog.Logger, table string, statements []*advisor.Statement, opts Options, summary *Summary) error {
	exists, err := e.st.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return errors.ErrTableNotFound
	}

	existing, err := e.st.Indexes(ctx, table)
	if err != nil {
		return err
	}

	tableRef := statements[0].Table
	raw := advisor.Extract(tableRef, statements, advisor.MinWeight(opts.MinOccurrence))
	qualified := advisor.Qualify(raw, hygiene.ColumnLists(existing))
	log.Debug("candidates qualified", "table", table, "raw", len(raw), "qualified", len(qualified))
	if len(qualified) == 0 {
		return nil
	}

	if opts.SkipBacktest {
		for _, c := range qualified {
			name, err := e.st.CreateIndex(ctx, table, c)
			if err != nil {
				log.Warn("index creation failed", "table", table, "index", name, "error", err)
				summary.Failed = append(summary.Failed, name)
				continue
			}
			summary.Created = append(summary.Created, name)
		}
		return nil
	}

	session := bench.NewSession(e.st, qualified)
	session.Begin(ctx)

	var failed []*advisor.Candidate
	created := make(map[*advisor.Candidate]string, len(qualified))
	for _, c := range qualified {
		name, err := e.st.CreateIndex(ctx, table, c)
		if err != nil {
			log.Warn("index creation failed", "table", table, "index", name, "error", err)
			summary.Failed = append(summary.Failed, name)
			failed = append(failed, c)
			continue
		}
		created[c] = name
	}

	session.End(ctx)

	dropped := make(map[*advisor.Candidate]bool)
	for _, cmp := range session.Unchanged(failed) {
		name, ok := created[cmp.Candidate]
		if !ok {
			continue
		}
		if err := e.st.DropIndex(ctx, table, name); err != nil {
			log.Warn("drop of unimproving index failed", "table", table, "index", name, "error", err)
			continue
		}
		dropped[cmp.Candidate] = true
		summary.Dropped = append(summary.Dropped, name)
		log.Info("index dropped, no measurable improvement", "table", table, "index", name)
	}

	for c, name := range created {
		if !dropped[c] {
			summary.Created = append(summary.Created, name)
			log.Info("index kept", "table", table, "index", name)
		}
	}
	return nil
}

// Indexes reads a table's indexes and runs the duplicate and redundancy
// checks over them.
func (e *Engine) Indexes(ctx context.Context, table string) ([]hygiene.ExistingIndex, hygiene.Report, error) {
	exists, err := e.st.TableExists(ctx, table)
	if err != nil {
		return nil, hygiene.Report{}, err
	}
	if !exists {
		return nil, hygiene.Report{}, errors.ErrTableNotFound
	}
	existing, err := e.st.Indexes(ctx, table)
	if err != nil {
		return nil, hygiene.Report{}, err
	}
	return existing, hygiene.AnalyzeTable(existing), nil
}

// DropManaged removes every advisor-created index on table and returns
// the names dropped.
func (e *Engine) DropManaged(ctx context.Context, table string) ([]string, error) {
	exists, err := e.st.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.ErrTableNotFound
	}
	return e.st.DropManaged(ctx, table)
}

// PKExhaustion reads every auto-increment counter and reports usage at
// or above minUsagePct, worst first.
func (e *Engine) PKExhaustion(ctx context.Context, minUsagePct float64) ([]pkmon.Entry, error) {
	columns, err := e.st.AutoIncColumns(ctx)
	if err != nil {
		return nil, err
	}
	return pkmon.BuildReport(columns, minUsagePct), nil
}
