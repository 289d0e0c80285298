package advisor

import "fmt"

// Kind tags the clause a candidate was derived from.
type Kind int

const (
	SelectList Kind = iota
	WherePredicate
	OrderBy
)

func (k Kind) String() string {
	switch k {
	case SelectList:
		return "select"
	case WherePredicate:
		return "where"
	case OrderBy:
		return "order_by"
	default:
		return "unknown"
	}
}

// Candidate is a proposed index: an ordered, duplicate-free column list
// derived from one statement. Context carries the raw predicate tokens of
// the comparison that produced it, when there was one.
type Candidate struct {
	Columns []string
	Kind    Kind
	Origin  *Statement
	Context []string
}

// NewCandidate returns an empty candidate for the given statement.
func NewCandidate(origin *Statement, kind Kind) *Candidate {
	return &Candidate{Kind: kind, Origin: origin}
}

func (c *Candidate) String() string {
	table := "unspecified"
	if c.Origin != nil && c.Origin.Table != nil {
		table = c.Origin.Table.Name
	}
	return fmt.Sprintf("Candidate(%s, %v)", table, c.Columns)
}

// Append adds a column unless it is already present.
func (c *Candidate) Append(column string) {
	for _, existing := range c.Columns {
		if existing == column {
			return
		}
	}
	c.Columns = append(c.Columns, column)
}

// Empty reports whether no columns were collected.
func (c *Candidate) Empty() bool {
	return len(c.Columns) == 0
}

// Equal reports content equality: same columns, same order.
func (c *Candidate) Equal(other *Candidate) bool {
	return columnsEqual(c.Columns, other.Columns)
}

// columnSet returns the candidate's columns as a set.
func (c *Candidate) columnSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Columns))
	for _, col := range c.Columns {
		set[col] = struct{}{}
	}
	return set
}

func columnsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
