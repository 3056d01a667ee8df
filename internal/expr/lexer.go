package expr

import (
	"fmt"
	"strings"
)

// tokenType identifies the type of an expression token.
type tokenType int

const (
	tokNumber tokenType = iota
	tokString
	tokFString   // f"..." (Python)
	tokTemplate  // `...` (ECMAScript)
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokDot
	tokEOF
)

// token is a single lexeme with its byte span in the source.
type token struct {
	typ   tokenType
	value string
	pos   int
	end   int
}

// operators, longest first so that "===" wins over "==" and "**" over "*".
var operators = []string{
	"===", "!==",
	"**", "//", "==", "!=", "<=", ">=", "&&", "||",
	"+", "-", "*", "/", "%", "<", ">", "!",
}

type lexError struct {
	pos int
	msg string
}

func (e *lexError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.pos, e.msg)
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '$'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

// lex splits an expression into tokens. Any character outside the
// allow-list (digits, letters, operators, brackets, quotes, whitespace) is a
// lex error, which callers treat as an unknown value.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		ch := src[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			i++
		case isDigit(ch) || (ch == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' && i+1 < len(src) && isDigit(src[i+1]) {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			} else if i < len(src) && src[i] == '.' && (i+1 == len(src) || !isIdentStart(src[i+1])) {
				// "3." is a float literal in every supported language
				i++
			}
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && isDigit(src[j]) {
					i = j
					for i < len(src) && isDigit(src[i]) {
						i++
					}
				}
			}
			// integer suffixes such as 10L or 3.0f
			for i < len(src) && strings.IndexByte("lLuUfF", src[i]) >= 0 {
				i++
			}
			toks = append(toks, token{typ: tokNumber, value: src[start:i], pos: start, end: i})
		case ch == '"' || ch == '\'':
			s, next, err := scanQuoted(src, i, ch)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{typ: tokString, value: s, pos: i, end: next})
			i = next
		case ch == '`':
			s, next, err := scanQuoted(src, i, '`')
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{typ: tokTemplate, value: s, pos: i, end: next})
			i = next
		case isIdentStart(ch):
			start := i
			for i < len(src) {
				if isIdentChar(src[i]) {
					i++
					continue
				}
				// qualified names such as std::max
				if src[i] == ':' && i+2 < len(src) && src[i+1] == ':' && isIdentStart(src[i+2]) {
					i += 2
					continue
				}
				break
			}
			word := src[start:i]
			if (word == "f" || word == "F") && i < len(src) && (src[i] == '"' || src[i] == '\'') {
				s, next, err := scanQuoted(src, i, src[i])
				if err != nil {
					return nil, err
				}
				toks = append(toks, token{typ: tokFString, value: s, pos: start, end: next})
				i = next
				continue
			}
			toks = append(toks, token{typ: tokIdent, value: word, pos: start, end: i})
		case ch == '(':
			toks = append(toks, token{typ: tokLParen, value: "(", pos: i, end: i + 1})
			i++
		case ch == ')':
			toks = append(toks, token{typ: tokRParen, value: ")", pos: i, end: i + 1})
			i++
		case ch == '[':
			toks = append(toks, token{typ: tokLBracket, value: "[", pos: i, end: i + 1})
			i++
		case ch == ']':
			toks = append(toks, token{typ: tokRBracket, value: "]", pos: i, end: i + 1})
			i++
		case ch == ',':
			toks = append(toks, token{typ: tokComma, value: ",", pos: i, end: i + 1})
			i++
		case ch == '.':
			toks = append(toks, token{typ: tokDot, value: ".", pos: i, end: i + 1})
			i++
		default:
			matched := false
			for _, op := range operators {
				if strings.HasPrefix(src[i:], op) {
					toks = append(toks, token{typ: tokOp, value: op, pos: i, end: i + len(op)})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				return nil, &lexError{pos: i, msg: fmt.Sprintf("disallowed character %q", ch)}
			}
		}
	}
	toks = append(toks, token{typ: tokEOF, pos: len(src), end: len(src)})
	return toks, nil
}

// scanQuoted reads a quoted literal starting at src[start] == quote and
// returns the unescaped body and the offset just past the closing quote.
func scanQuoted(src string, start int, quote byte) (string, int, error) {
	var buf strings.Builder
	i := start + 1
	for i < len(src) {
		ch := src[i]
		if ch == quote {
			return buf.String(), i + 1, nil
		}
		if ch == '\\' && i+1 < len(src) {
			i++
			switch src[i] {
			case 'n':
				buf.WriteByte('\n')
			case 't':
				buf.WriteByte('\t')
			case 'r':
				buf.WriteByte('\r')
			case '0':
				buf.WriteByte(0)
			default:
				buf.WriteByte(src[i])
			}
			i++
			continue
		}
		buf.WriteByte(ch)
		i++
	}
	return "", 0, &lexError{pos: start, msg: "unterminated string literal"}
}
