package sqlscan

import (
	"fmt"
	"strings"
)

// TokenType identifies the lexical class of a scanned token.
type TokenType int

const (
	Illegal TokenType = iota
	EOF

	Ident       // column or table reference, bare or quoted
	String      // 'value'
	Number      // 123, 1.23
	Placeholder // ?, %s, %(name)s, $1

	Keyword  // SELECT, WHERE, AND, ...
	Operator // =, <, >, <=, >=, !=, <>, +, -, /

	Comma
	Dot
	Star
	LParen
	RParen
	Semicolon
)

// keywords covers the clauses the scanner needs to delimit. Anything else
// scans as an identifier, which is all the extractor cares about.
var keywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "AND": {}, "OR": {},
	"ORDER": {}, "BY": {}, "GROUP": {}, "HAVING": {}, "LIMIT": {},
	"OFFSET": {}, "INSERT": {}, "INTO": {}, "VALUES": {}, "UPDATE": {},
	"SET": {}, "DELETE": {}, "JOIN": {}, "LEFT": {}, "RIGHT": {},
	"INNER": {}, "OUTER": {}, "CROSS": {}, "ON": {}, "AS": {},
	"ASC": {}, "DESC": {}, "IN": {}, "LIKE": {}, "BETWEEN": {},
	"NOT": {}, "NULL": {}, "IS": {}, "DISTINCT": {}, "UNION": {},
	"FOR": {}, "EXISTS": {},
}

// Token is one lexical unit of a SQL statement. Text holds the unquoted
// form for identifiers and the literal body for strings.
type Token struct {
	Type TokenType
	Text string
}

func (t Token) String() string {
	return fmt.Sprintf("Token(%d, %q)", t.Type, t.Text)
}

// Upper returns the token text uppercased, for keyword comparison.
func (t Token) Upper() string {
	return strings.ToUpper(t.Text)
}

// IsKeyword reports whether the token is the given keyword, case-insensitive.
func (t Token) IsKeyword(kw string) bool {
	return t.Type == Keyword && t.Upper() == kw
}
