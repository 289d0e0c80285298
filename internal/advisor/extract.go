package advisor

import (
	"github.com/idxadvisor/idxadvisor/internal/sqlscan"
)

// Qualifier filters statements before extraction, e.g. by minimum weight.
type Qualifier func(*Statement) bool

// MinWeight returns a qualifier admitting statements observed more than
// min times.
func MinWeight(min uint64) Qualifier {
	return func(s *Statement) bool { return s.Weight > min }
}

// Extract walks every statement's scanned form and emits index candidates
// for the given table. Statements that fail the qualifier or do not scan are
// skipped. Exact duplicate candidates across statements are dropped, as are
// candidates that collected no columns.
func Extract(table *Table, statements []*Statement, qualifier Qualifier) []*Candidate {
	var out []*Candidate

	for _, stmt := range statements {
		if qualifier != nil && !qualifier(stmt) {
			continue
		}
		scanned, err := stmt.Scanned()
		if err != nil {
			continue
		}

		var found []*Candidate
		if scanned.HasWhere() {
			found = extractFromWhere(table, stmt, scanned)
		} else {
			found = extractFromSelect(table, stmt, scanned)
		}

		for _, c := range found {
			if c.Empty() || containsEqual(out, c) {
				continue
			}
			out = append(out, c)
		}
	}

	return out
}

// extractFromWhere walks the WHERE clause tokens in order. AND between
// comparisons extends the current composite candidate; OR starts a new one.
// Parenthesized predicate groups are not descended into. A trailing ORDER BY
// yields one additional candidate.
func extractFromWhere(table *Table, stmt *Statement, scanned *sqlscan.Statement) []*Candidate {
	var candidates []*Candidate
	op := "AND"

	tokens := scanned.Where()
	i := 0
	for i < len(tokens) {
		t := tokens[i]
		if t.Type == sqlscan.Keyword {
			switch t.Upper() {
			case "AND":
				op = "AND"
			case "OR":
				op = "OR"
			}
		}
		if t.Type == sqlscan.LParen {
			i = skipGroup(tokens, i)
			continue
		}

		cmp, next, ok := sqlscan.ParseComparison(tokens, i)
		if !ok {
			i++
			continue
		}

		var c *Candidate
		fresh := false
		if op == "OR" || len(candidates) == 0 {
			c = NewCandidate(stmt, WherePredicate)
			fresh = true
		} else {
			c = candidates[len(candidates)-1]
		}
		c.Context = cmp.Raw
		for _, ref := range cmp.Columns {
			if ref.Qualifier == "" || ref.Qualifier == table.Name {
				c.Append(ref.Name)
			}
		}
		if fresh && !containsEqual(candidates, c) {
			candidates = append(candidates, c)
		}
		i = next
	}

	if cols := scanned.OrderByColumns(); len(cols) > 0 {
		oc := NewCandidate(stmt, OrderBy)
		for _, ref := range cols {
			oc.Append(ref.Name)
		}
		candidates = append(candidates, oc)
	}

	return candidates
}

// extractFromSelect handles statements without a WHERE clause: the SELECT
// list becomes one candidate and the ORDER BY list another. Qualified
// references are kept only when the qualifier matches the statement's table,
// or when the statement carries no table context at all.
func extractFromSelect(table *Table, stmt *Statement, scanned *sqlscan.Statement) []*Candidate {
	if scanned.Kind != sqlscan.Select {
		return nil
	}

	sel := NewCandidate(stmt, SelectList)
	for _, ref := range scanned.SelectColumns() {
		appendScoped(sel, stmt, ref)
	}
	order := NewCandidate(stmt, OrderBy)
	for _, ref := range scanned.OrderByColumns() {
		appendScoped(order, stmt, ref)
	}
	return []*Candidate{sel, order}
}

func appendScoped(c *Candidate, stmt *Statement, ref sqlscan.ColumnRef) {
	if ref.Qualifier == "" {
		c.Append(ref.Name)
		return
	}
	if stmt.Table == nil || stmt.Table.Name == "" || ref.Qualifier == stmt.Table.Name {
		c.Append(ref.Name)
	}
}

func containsEqual(candidates []*Candidate, c *Candidate) bool {
	for _, existing := range candidates {
		if existing != c && existing.Equal(c) {
			return true
		}
	}
	return false
}

// skipGroup advances past a balanced parenthesized token group.
func skipGroup(tokens []sqlscan.Token, i int) int {
	depth := 0
	for i < len(tokens) {
		switch tokens[i].Type {
		case sqlscan.LParen:
			depth++
		case sqlscan.RParen:
			depth--
		}
		i++
		if depth == 0 {
			return i
		}
	}
	return i
}
