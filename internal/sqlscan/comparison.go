package sqlscan

// Comparison is one binary predicate inside a WHERE clause, e.g.
// `owner = 'Admin'` or `a.id = b.ref_id`. Columns lists the column
// references on either side in appearance order; Raw holds the texts of the
// consumed tokens for later qualification context.
type Comparison struct {
	Columns []ColumnRef
	Raw     []string
}

// ParseComparison tries to read a comparison starting at tokens[i].
// Returns the comparison, the index just past it, and whether one matched.
func ParseComparison(tokens []Token, i int) (Comparison, int, bool) {
	left, next, ok := parseColumnRef(tokens, i)
	if !ok || left.Name == "*" {
		return Comparison{}, i, false
	}
	if next >= len(tokens) || tokens[next].Type != Operator {
		return Comparison{}, i, false
	}

	cmp := Comparison{Columns: []ColumnRef{left}}
	for j := i; j < next+1; j++ {
		cmp.Raw = append(cmp.Raw, tokens[j].Text)
	}
	pos := next + 1
	if pos >= len(tokens) {
		return Comparison{}, i, false
	}

	switch tokens[pos].Type {
	case Number, String, Placeholder:
		cmp.Raw = append(cmp.Raw, tokens[pos].Text)
		pos++
	case Keyword:
		if tokens[pos].Upper() != "NULL" {
			return Comparison{}, i, false
		}
		cmp.Raw = append(cmp.Raw, tokens[pos].Text)
		pos++
	case Ident:
		right, rnext, rok := parseColumnRef(tokens, pos)
		if !rok {
			return Comparison{}, i, false
		}
		cmp.Columns = append(cmp.Columns, right)
		for j := pos; j < rnext; j++ {
			cmp.Raw = append(cmp.Raw, tokens[j].Text)
		}
		pos = rnext
	case LParen:
		depth := 0
		for pos < len(tokens) {
			if tokens[pos].Type == LParen {
				depth++
			}
			if tokens[pos].Type == RParen {
				depth--
			}
			cmp.Raw = append(cmp.Raw, tokens[pos].Text)
			pos++
			if depth == 0 {
				break
			}
		}
	default:
		return Comparison{}, i, false
	}

	return cmp, pos, true
}
