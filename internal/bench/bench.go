// Package bench brackets index creation with before/after planner
// measurements and classifies each candidate as improved or unchanged.
package bench

import (
	"context"

	"github.com/idxadvisor/idxadvisor/internal/advisor"
)

// Record is one normalized plan row from the schema's analyze facility.
type Record struct {
	RowsExamined   string
	SelectivityPct float64
	Annotation     string
}

// Sentinel is recorded for a statement the planner could not analyze; it
// compares equal to itself, so an un-analyzable statement never counts as
// improved.
var Sentinel = Record{RowsExamined: "0.00", SelectivityPct: -1, Annotation: ""}

// Analyzer runs a literal-substituted SQL sample through the planner.
type Analyzer interface {
	Analyze(ctx context.Context, sample string) ([]Record, error)
}

// Comparison pairs the before and after rows of one candidate.
type Comparison struct {
	Candidate *advisor.Candidate
	Before    []Record
	After     []Record
}

// Session measures a batch of candidates around the caller's index-creation
// side effect. The contract is strict: Begin, then create indexes, then End;
// Unchanged is only meaningful after End.
type Session struct {
	analyzer   Analyzer
	candidates []*advisor.Candidate
	samples    []string
	before     [][]Record
	after      [][]Record
}

// NewSession prepares a session over the qualified candidates. Each
// candidate's sample SQL is fixed here so both measurements run identical
// statement text.
func NewSession(analyzer Analyzer, candidates []*advisor.Candidate) *Session {
	samples := make([]string, len(candidates))
	for i, c := range candidates {
		if c.Origin != nil {
			samples[i] = c.Origin.Sample()
		}
	}
	return &Session{analyzer: analyzer, candidates: candidates, samples: samples}
}

// Begin captures the "before" snapshot.
func (s *Session) Begin(ctx context.Context) {
	s.before = s.measure(ctx)
}

// End captures the "after" snapshot.
func (s *Session) End(ctx context.Context) {
	s.after = s.measure(ctx)
}

func (s *Session) measure(ctx context.Context) [][]Record {
	results := make([][]Record, len(s.candidates))
	for i, sample := range s.samples {
		records, err := s.analyzer.Analyze(ctx, sample)
		if err != nil || len(records) == 0 {
			records = []Record{Sentinel}
		}
		results[i] = records
	}
	return results
}

// Unchanged yields the candidates whose index made no measurable difference,
// paired with their before/after rows. A candidate is unchanged when every
// plan row either kept identical rows-examined and selectivity, or got
// strictly worse selectivity. Candidates in failed are excluded entirely:
// the effect of an index that was never created cannot be judged.
func (s *Session) Unchanged(failed []*advisor.Candidate) []Comparison {
	var out []Comparison

	for i, c := range s.candidates {
		if containsCandidate(failed, c) {
			continue
		}
		before, after := s.before[i], s.after[i]

		n := len(before)
		if len(after) < n {
			n = len(after)
		}
		changed := false
		for j := 0; j < n; j++ {
			rowsSame := before[j].RowsExamined == after[j].RowsExamined
			selSame := before[j].SelectivityPct == after[j].SelectivityPct
			switch {
			case rowsSame && selSame:
				// no movement
			case !selSame && before[j].SelectivityPct > after[j].SelectivityPct:
				// selectivity got worse; not helping
			default:
				changed = true
			}
		}
		if !changed {
			out = append(out, Comparison{Candidate: c, Before: before, After: after})
		}
	}
	return out
}

func containsCandidate(list []*advisor.Candidate, c *advisor.Candidate) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}
