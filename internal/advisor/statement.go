// Package advisor infers index candidates from captured SQL statements and
// qualifies them down to the minimal set worth creating for one table.
package advisor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/idxadvisor/idxadvisor/internal/sqlscan"
)

// Table is the unit of grouping for extraction and qualification. Name is
// the physical table name, resolved once by the caller.
type Table struct {
	ID   string
	Name string
}

func (t *Table) String() string {
	if t == nil {
		return "unspecified"
	}
	return t.Name
}

// Statement is one captured SQL statement with its occurrence weight.
// Statements are built by the capture side and never mutated here; the
// scanned form is computed at most once, on first access.
type Statement struct {
	Text   string
	Weight uint64
	Table  *Table

	scanned  *sqlscan.Statement
	scanErr  error
	scanDone bool
}

// NewStatement trims the statement text and clamps the weight to at least 1.
func NewStatement(text string, weight uint64, table *Table) *Statement {
	if weight < 1 {
		weight = 1
	}
	return &Statement{Text: strings.TrimSpace(text), Weight: weight, Table: table}
}

func (s *Statement) String() string {
	text := s.Text
	if len(text) > 11 {
		text = text[:10] + "..."
	}
	if s.Table != nil {
		return fmt.Sprintf("Statement(%s, table=%s)", text, s.Table)
	}
	return fmt.Sprintf("Statement(%s)", text)
}

// Scanned returns the tokenized statement, scanning on first access and
// caching both the result and any scan failure.
func (s *Statement) Scanned() (*sqlscan.Statement, error) {
	if !s.scanDone {
		s.scanned, s.scanErr = sqlscan.Scan(s.Text)
		s.scanDone = true
	}
	return s.scanned, s.scanErr
}

var (
	namedParamPattern  = regexp.MustCompile(`%\(\w*\)s`)
	dollarParamPattern = regexp.MustCompile(`\$\d+`)
)

// Sample returns the statement text with every parameter marker replaced by
// a literal placeholder value, suitable for handing to a query planner. The
// result never contains positional or named markers.
func (s *Statement) Sample() string {
	out := strings.ReplaceAll(s.Text, "%s", "1")
	out = namedParamPattern.ReplaceAllString(out, "1")
	out = strings.ReplaceAll(out, "?", "1")
	out = dollarParamPattern.ReplaceAllString(out, "1")
	return out
}
