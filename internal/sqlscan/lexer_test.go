package sqlscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTokenizeBasicSelect verifies the token stream of a plain statement.
func TestTokenizeBasicSelect(t *testing.T) {
	tokens, err := Tokenize("SELECT name FROM tabUser WHERE enabled = 1")
	require.NoError(t, err)

	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{
		Keyword, Ident, Keyword, Ident, Keyword, Ident, Operator, Number,
	}, types)
	assert.Equal(t, "tabUser", tokens[3].Text)
	assert.Equal(t, "1", tokens[7].Text)
}

// TestTokenizeQuotedIdentifiers verifies that backtick and double-quote
// delimited identifiers scan as plain identifiers without their quotes.
func TestTokenizeQuotedIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"backtick", "SELECT `creation` FROM t", "creation"},
		{"double quote", `SELECT "creation" FROM t`, "creation"},
		{"doubled backtick escape", "SELECT `a``b` FROM t", "a`b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			require.Equal(t, Ident, tokens[1].Type)
			assert.Equal(t, tt.want, tokens[1].Text)
		})
	}
}

// TestTokenizeStringLiterals verifies single-quoted strings, including the
// doubled-quote escape.
func TestTokenizeStringLiterals(t *testing.T) {
	tokens, err := Tokenize("WHERE owner = 'rushabh''s'")
	require.NoError(t, err)
	last := tokens[len(tokens)-1]
	require.Equal(t, String, last.Type)
	assert.Equal(t, "rushabh's", last.Text)
}

// TestTokenizePlaceholders verifies every parameter marker style the
// capture sources emit.
func TestTokenizePlaceholders(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"question mark", "WHERE a = ?", "?"},
		{"format", "WHERE a = %s", "%s"},
		{"named format", "WHERE a = %(owner)s", "%(owner)s"},
		{"dollar", "WHERE a = $1", "$1"},
		{"dollar multi digit", "WHERE a = $12", "$12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)
			last := tokens[len(tokens)-1]
			require.Equal(t, Placeholder, last.Type)
			assert.Equal(t, tt.want, last.Text)
		})
	}
}

// TestTokenizeOperators verifies one- and two-character operators.
func TestTokenizeOperators(t *testing.T) {
	tokens, err := Tokenize("a <= 1 <> 2 != 3 >= 4 < 5 > 6")
	require.NoError(t, err)

	var ops []string
	for _, tok := range tokens {
		if tok.Type == Operator {
			ops = append(ops, tok.Text)
		}
	}
	assert.Equal(t, []string{"<=", "<>", "!=", ">=", "<", ">"}, ops)
}

// TestTokenizeSkipsComments verifies both comment styles disappear.
func TestTokenizeSkipsComments(t *testing.T) {
	tokens, err := Tokenize("SELECT a -- trailing\n/* block */ FROM t")
	require.NoError(t, err)
	require.Len(t, tokens, 4)
	assert.True(t, tokens[2].IsKeyword("FROM"))
}

// TestTokenizeIllegalByte verifies that an unrecognized byte fails the
// whole statement.
func TestTokenizeIllegalByte(t *testing.T) {
	_, err := Tokenize("SELECT a FROM t WHERE b = @var")
	assert.Error(t, err)
}

// TestTokenizeNumbers verifies integer and decimal scanning.
func TestTokenizeNumbers(t *testing.T) {
	tokens, err := Tokenize("WHERE a = 1.25")
	require.NoError(t, err)
	last := tokens[len(tokens)-1]
	require.Equal(t, Number, last.Type)
	assert.Equal(t, "1.25", last.Text)
}
