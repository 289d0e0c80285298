// Package sqlscan tokenizes captured SQL statements and exposes the clause
// structure the candidate extractor walks: WHERE predicates, ORDER BY lists,
// SELECT lists, and the statement's primary table.
//
// It is deliberately not a full SQL parser. Captured statements that do not
// tokenize cleanly are skipped by the caller, never fatal.
package sqlscan

import (
	"fmt"
	"strings"
)

type lexer struct {
	input string
	pos   int  // current position (points at ch)
	next  int  // reading position (after ch)
	ch    byte // current byte under examination
}

func newLexer(input string) *lexer {
	l := &lexer{input: input}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.next >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.next]
	}
	l.pos = l.next
	l.next++
}

func (l *lexer) peekChar() byte {
	if l.next >= len(l.input) {
		return 0
	}
	return l.input[l.next]
}

func (l *lexer) nextToken() Token {
	l.skipSpaceAndComments()

	switch l.ch {
	case 0:
		return Token{Type: EOF}
	case ',':
		l.readChar()
		return Token{Type: Comma, Text: ","}
	case '.':
		l.readChar()
		return Token{Type: Dot, Text: "."}
	case '*':
		l.readChar()
		return Token{Type: Star, Text: "*"}
	case '(':
		l.readChar()
		return Token{Type: LParen, Text: "("}
	case ')':
		l.readChar()
		return Token{Type: RParen, Text: ")"}
	case ';':
		l.readChar()
		return Token{Type: Semicolon, Text: ";"}
	case '?':
		l.readChar()
		return Token{Type: Placeholder, Text: "?"}
	case '=', '+', '/':
		ch := l.ch
		l.readChar()
		return Token{Type: Operator, Text: string(ch)}
	case '<':
		if l.peekChar() == '=' || l.peekChar() == '>' {
			op := l.input[l.pos : l.pos+2]
			l.readChar()
			l.readChar()
			return Token{Type: Operator, Text: op}
		}
		l.readChar()
		return Token{Type: Operator, Text: "<"}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: Operator, Text: ">="}
		}
		l.readChar()
		return Token{Type: Operator, Text: ">"}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			l.readChar()
			return Token{Type: Operator, Text: "!="}
		}
		l.readChar()
		return Token{Type: Illegal, Text: "!"}
	case '-':
		l.readChar()
		return Token{Type: Operator, Text: "-"}
	case '\'':
		return Token{Type: String, Text: l.readString('\'')}
	case '`':
		return Token{Type: Ident, Text: l.readString('`')}
	case '"':
		return Token{Type: Ident, Text: l.readString('"')}
	case '%':
		return l.readFormatPlaceholder()
	case '$':
		return l.readDollarPlaceholder()
	default:
		if isLetter(l.ch) {
			lit := l.readIdentifier()
			if _, ok := keywords[strings.ToUpper(lit)]; ok {
				return Token{Type: Keyword, Text: lit}
			}
			return Token{Type: Ident, Text: lit}
		}
		if isDigit(l.ch) {
			return Token{Type: Number, Text: l.readNumber()}
		}
		ch := l.ch
		l.readChar()
		return Token{Type: Illegal, Text: string(ch)}
	}
}

func (l *lexer) skipSpaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar()
				l.readChar()
			}
			continue
		}
		return
	}
}

func (l *lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

// readString consumes a delimited literal, returning its body without the
// delimiters. Doubled delimiters escape themselves.
func (l *lexer) readString(delim byte) string {
	var b strings.Builder
	l.readChar() // opening delimiter
	for l.ch != 0 {
		if l.ch == delim {
			if l.peekChar() == delim {
				b.WriteByte(delim)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // closing delimiter
			break
		}
		b.WriteByte(l.ch)
		l.readChar()
	}
	return b.String()
}

// readFormatPlaceholder handles %s and %(name)s parameter markers.
func (l *lexer) readFormatPlaceholder() Token {
	start := l.pos
	l.readChar() // %
	if l.ch == 's' {
		l.readChar()
		return Token{Type: Placeholder, Text: "%s"}
	}
	if l.ch == '(' {
		for l.ch != 0 && l.ch != ')' {
			l.readChar()
		}
		if l.ch == ')' {
			l.readChar()
		}
		if l.ch == 's' {
			l.readChar()
		}
		return Token{Type: Placeholder, Text: l.input[start:l.pos]}
	}
	return Token{Type: Illegal, Text: "%"}
}

// readDollarPlaceholder handles $1-style markers as normalized by
// pg_stat_statements.
func (l *lexer) readDollarPlaceholder() Token {
	start := l.pos
	l.readChar() // $
	if !isDigit(l.ch) {
		return Token{Type: Illegal, Text: "$"}
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	return Token{Type: Placeholder, Text: l.input[start:l.pos]}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Tokenize scans the whole input. An illegal byte fails the entire
// statement; callers treat that as "skip statement", not an abort.
func Tokenize(input string) ([]Token, error) {
	l := newLexer(input)
	var tokens []Token
	for {
		tok := l.nextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type == Illegal {
			return nil, fmt.Errorf("illegal token %q at offset %d", tok.Text, l.pos)
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}
