package sqlscan

// Kind classifies a statement by its leading keyword.
type Kind int

const (
	Other Kind = iota
	Select
	Insert
	Update
	Delete
)

// Statement is the scanned form of one SQL statement.
type Statement struct {
	Kind   Kind
	Tokens []Token
}

// Scan tokenizes sql and classifies the statement.
func Scan(sql string) (*Statement, error) {
	tokens, err := Tokenize(sql)
	if err != nil {
		return nil, err
	}
	st := &Statement{Tokens: tokens}
	if len(tokens) > 0 && tokens[0].Type == Keyword {
		switch tokens[0].Upper() {
		case "SELECT":
			st.Kind = Select
		case "INSERT":
			st.Kind = Insert
		case "UPDATE":
			st.Kind = Update
		case "DELETE":
			st.Kind = Delete
		}
	}
	return st, nil
}

// ColumnRef is one possibly-qualified column reference. A bare * scans as
// Name "*" with no qualifier.
type ColumnRef struct {
	Qualifier string
	Name      string
}

// clauseEnders terminate a WHERE clause at paren depth zero.
var clauseEnders = map[string]struct{}{
	"ORDER": {}, "GROUP": {}, "HAVING": {}, "LIMIT": {},
	"OFFSET": {}, "UNION": {}, "FOR": {},
}

// whereRange locates the top-level WHERE clause body. Both bounds index into
// Tokens; the range excludes the WHERE keyword itself.
func (s *Statement) whereRange() (start, end int, ok bool) {
	depth := 0
	for i, t := range s.Tokens {
		switch t.Type {
		case LParen:
			depth++
		case RParen:
			depth--
		case Keyword:
			if depth == 0 && t.Upper() == "WHERE" {
				start = i + 1
				end = len(s.Tokens)
				for j := start; j < len(s.Tokens); j++ {
					tj := s.Tokens[j]
					if tj.Type == LParen {
						depth++
					}
					if tj.Type == RParen {
						depth--
					}
					if tj.Type == Semicolon && depth == 0 {
						return start, j, true
					}
					if tj.Type == Keyword && depth == 0 {
						if _, ender := clauseEnders[tj.Upper()]; ender {
							return start, j, true
						}
					}
				}
				return start, end, true
			}
		}
	}
	return 0, 0, false
}

// HasWhere reports whether the statement carries a top-level WHERE clause.
func (s *Statement) HasWhere() bool {
	_, _, ok := s.whereRange()
	return ok
}

// Where returns the tokens of the WHERE clause body, or nil.
func (s *Statement) Where() []Token {
	start, end, ok := s.whereRange()
	if !ok {
		return nil
	}
	return s.Tokens[start:end]
}

// OrderByColumns returns the column references of a top-level ORDER BY
// clause in appearance order, skipping sort directions.
func (s *Statement) OrderByColumns() []ColumnRef {
	depth := 0
	i := 0
	for ; i < len(s.Tokens); i++ {
		t := s.Tokens[i]
		if t.Type == LParen {
			depth++
		}
		if t.Type == RParen {
			depth--
		}
		if depth == 0 && t.IsKeyword("ORDER") &&
			i+1 < len(s.Tokens) && s.Tokens[i+1].IsKeyword("BY") {
			i += 2
			break
		}
	}
	if i >= len(s.Tokens) {
		return nil
	}

	var refs []ColumnRef
	for i < len(s.Tokens) {
		t := s.Tokens[i]
		if t.IsKeyword("ASC") || t.IsKeyword("DESC") || t.Type == Comma {
			i++
			continue
		}
		ref, next, ok := parseColumnRef(s.Tokens, i)
		if !ok {
			break
		}
		refs = append(refs, ref)
		i = next
	}
	return refs
}

// SelectColumns returns the SELECT list column references. The wildcard is
// kept as a single opaque "*" entry. Function calls and expressions that are
// not plain column references are dropped. Non-SELECT statements return nil.
func (s *Statement) SelectColumns() []ColumnRef {
	if s.Kind != Select {
		return nil
	}
	// list spans SELECT .. FROM at depth zero
	end := len(s.Tokens)
	depth := 0
	for i := 1; i < len(s.Tokens); i++ {
		t := s.Tokens[i]
		if t.Type == LParen {
			depth++
		}
		if t.Type == RParen {
			depth--
		}
		if depth == 0 && t.IsKeyword("FROM") {
			end = i
			break
		}
	}

	var refs []ColumnRef
	i := 1
	for i < end {
		t := s.Tokens[i]
		if t.IsKeyword("DISTINCT") {
			i++
			continue
		}
		ref, next, ok := parseColumnRef(s.Tokens[:end], i)
		// a reference followed by ( is a function call, not a column
		if ok && (next >= end || s.Tokens[next].Type != LParen) {
			refs = append(refs, ref)
			i = next
		}
		// skip the rest of the list item (aliases, expressions)
		i = skipToComma(s.Tokens[:end], i)
	}
	return refs
}

// PrimaryTable returns the statement's owning table name: the first
// identifier after FROM for SELECT and DELETE, after INTO for INSERT, and
// after UPDATE for UPDATE. Empty when it cannot be determined.
func (s *Statement) PrimaryTable() string {
	var anchor string
	switch s.Kind {
	case Select, Delete:
		anchor = "FROM"
	case Insert:
		anchor = "INTO"
	case Update:
		anchor = "UPDATE"
	default:
		return ""
	}

	depth := 0
	for i, t := range s.Tokens {
		if t.Type == LParen {
			depth++
		}
		if t.Type == RParen {
			depth--
		}
		if depth == 0 && t.IsKeyword(anchor) {
			for j := i + 1; j < len(s.Tokens); j++ {
				if s.Tokens[j].Type == Ident {
					return s.Tokens[j].Text
				}
				if s.Tokens[j].Type != LParen {
					break
				}
			}
		}
	}
	return ""
}

// parseColumnRef reads an optionally qualified reference at position i:
// name, qualifier.name, qualifier.*, or a bare *.
func parseColumnRef(tokens []Token, i int) (ColumnRef, int, bool) {
	if i >= len(tokens) {
		return ColumnRef{}, i, false
	}
	if tokens[i].Type == Star {
		return ColumnRef{Name: "*"}, i + 1, true
	}
	if tokens[i].Type != Ident {
		return ColumnRef{}, i, false
	}
	ref := ColumnRef{Name: tokens[i].Text}
	next := i + 1
	if next+1 < len(tokens) && tokens[next].Type == Dot {
		switch tokens[next+1].Type {
		case Ident:
			ref = ColumnRef{Qualifier: ref.Name, Name: tokens[next+1].Text}
			next += 2
		case Star:
			ref = ColumnRef{Qualifier: ref.Name, Name: "*"}
			next += 2
		}
	}
	return ref, next, true
}

func skipToComma(tokens []Token, i int) int {
	depth := 0
	for i < len(tokens) {
		switch tokens[i].Type {
		case LParen:
			depth++
		case RParen:
			depth--
		case Comma:
			if depth == 0 {
				return i + 1
			}
		}
		i++
	}
	return i
}
