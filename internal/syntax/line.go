package syntax

import (
	"regexp"
	"strings"

	"tracelens/internal/model"
)

// Line is one logical line: a single statement or block header after
// comments, terminators and braces have been split off.
type Line struct {
	No         int    // 1-based physical line the text came from
	Text       string // trimmed statement text
	Indent     int    // indentation width, used by indentation-scoped dialects
	Opens      bool   // the line ends by opening a block ("{" or ":")
	Terminated bool   // the statement ended with ";"
}

type segment struct {
	text       string
	opens      bool
	terminated bool
}

// splitBraced splits C-family and ECMAScript source. Statements are split at
// top-level semicolons, block braces get their own lines, and a header with
// an inline single-statement body is split into header and body.
func splitBraced(source string) []Line {
	var out []Line
	inComment := false
	for i, raw := range model.SplitLines(source) {
		text := strings.TrimSpace(stripCComments(raw, &inComment))
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			out = append(out, Line{No: i + 1, Text: text})
			continue
		}
		for _, seg := range splitStatements(text) {
			for _, part := range splitInlineHeader(seg) {
				out = append(out, Line{No: i + 1, Text: part.text, Opens: part.opens, Terminated: part.terminated})
			}
		}
	}
	return out
}

// stripCComments removes // and /* */ comments outside string literals.
// inComment carries an open block comment across lines.
func stripCComments(line string, inComment *bool) string {
	var sb strings.Builder
	var quote byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if *inComment {
			if ch == '*' && i+1 < len(line) && line[i+1] == '/' {
				*inComment = false
				i++
			}
			continue
		}
		if quote != 0 {
			sb.WriteByte(ch)
			if ch == '\\' && i+1 < len(line) {
				i++
				sb.WriteByte(line[i])
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			quote = ch
			sb.WriteByte(ch)
		case ch == '/' && i+1 < len(line) && line[i+1] == '/':
			return sb.String()
		case ch == '/' && i+1 < len(line) && line[i+1] == '*':
			*inComment = true
			i++
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// splitStatements splits one comment-free physical line into segments.
// Braces that open an initializer or object literal closed on the same line
// stay inside their statement.
func splitStatements(text string) []segment {
	var segs []segment
	var cur strings.Builder
	var quote byte
	paren, inline := 0, 0

	flush := func(opens, terminated bool) {
		s := strings.TrimSpace(cur.String())
		cur.Reset()
		switch {
		case s == "" && opens:
			segs = append(segs, segment{text: "{"})
		case s != "":
			segs = append(segs, segment{text: s, opens: opens, terminated: terminated})
		}
	}

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			cur.WriteByte(ch)
			if ch == '\\' && i+1 < len(text) {
				i++
				cur.WriteByte(text[i])
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
			cur.WriteByte(ch)
		case '(', '[':
			paren++
			cur.WriteByte(ch)
		case ')', ']':
			paren--
			cur.WriteByte(ch)
		case ';':
			if paren > 0 || inline > 0 {
				cur.WriteByte(ch)
				continue
			}
			flush(false, true)
		case '{':
			if inline > 0 || (literalContext(cur.String(), paren) && closesOnLine(text, i)) {
				inline++
				cur.WriteByte(ch)
				continue
			}
			flush(true, false)
		case '}':
			if inline > 0 {
				inline--
				cur.WriteByte(ch)
				continue
			}
			flush(false, false)
			segs = append(segs, segment{text: "}"})
		default:
			cur.WriteByte(ch)
		}
	}
	flush(false, false)
	return segs
}

// literalContext reports whether a "{" following prefix starts a value
// rather than a block.
func literalContext(prefix string, paren int) bool {
	if paren > 0 {
		return true
	}
	p := strings.TrimSpace(prefix)
	if p == "" {
		return false
	}
	if strings.HasSuffix(p, "return") {
		return true
	}
	switch p[len(p)-1] {
	case '=', ',', '(', '[', ':', '?':
		return !strings.HasSuffix(p, "=>")
	}
	// vector<int> v{1, 2}
	if strings.HasSuffix(p, ">") || strings.HasSuffix(p, "]") {
		return !strings.HasSuffix(p, "=>")
	}
	return declaratorTail.MatchString(p)
}

var declaratorTail = regexp.MustCompile(`^(?:const\s+)?[\w:]+(?:<[^>]*>)?\s+\w+$`)

// closesOnLine reports whether the brace at open is matched later in text.
func closesOnLine(text string, open int) bool {
	depth := 0
	var quote byte
	for i := open; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

var inlineHeader = regexp.MustCompile(`^(?:else\s+)?(?:if|while|for)\s*\(`)

// splitInlineHeader splits "if (x) y++" into the header and its body, and
// "else y++" likewise. The body keeps the segment's terminator.
func splitInlineHeader(seg segment) []segment {
	text := seg.text
	if text == "else" || !strings.HasPrefix(text, "else") && !inlineHeader.MatchString(text) {
		return []segment{seg}
	}
	if strings.HasPrefix(text, "else") && !inlineHeader.MatchString(text) {
		rest := strings.TrimSpace(strings.TrimPrefix(text, "else"))
		if rest == "" || isWordByte(rest[0]) && !strings.HasPrefix(text, "else ") {
			return []segment{seg}
		}
		body := segment{text: rest, opens: seg.opens, terminated: seg.terminated}
		return append([]segment{{text: "else"}}, splitInlineHeader(body)...)
	}
	open := strings.IndexByte(text, '(')
	close := matchParen(text, open)
	if close < 0 {
		return []segment{seg}
	}
	rest := strings.TrimSpace(text[close+1:])
	if rest == "" {
		return []segment{seg}
	}
	header := segment{text: text[:close+1]}
	body := segment{text: rest, opens: seg.opens, terminated: seg.terminated}
	return append([]segment{header}, splitInlineHeader(body)...)
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// matchParen returns the index of the parenthesis closing the one at open,
// or -1.
func matchParen(text string, open int) int {
	if open < 0 {
		return -1
	}
	depth := 0
	var quote byte
	for i := open; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

var pyHeader = regexp.MustCompile(`^(?:if|elif|else|while|for|def|class|with|try|except|finally|match|case)\b`)

// splitIndented splits Python source. Bracketed expressions spanning lines
// are joined, and "if x: y" is split into a header and a body one level
// deeper.
func splitIndented(source string) []Line {
	var out []Line
	phys := model.SplitLines(source)
	for i := 0; i < len(phys); i++ {
		no := i + 1
		raw := phys[i]
		indent := indentWidth(raw)
		text := strings.TrimSpace(stripHashComment(raw))
		for (bracketDepth(text) > 0 || strings.HasSuffix(text, "\\")) && i+1 < len(phys) {
			i++
			text = strings.TrimSuffix(text, "\\") + " " + strings.TrimSpace(stripHashComment(phys[i]))
		}
		if text == "" {
			continue
		}
		for _, stmt := range SplitTopLevel(text, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			out = append(out, splitPyHeader(no, indent, stmt)...)
		}
	}
	return out
}

func splitPyHeader(no, indent int, text string) []Line {
	if pyHeader.MatchString(text) {
		if colon := topLevelIndex(text, ':'); colon >= 0 {
			header := strings.TrimSpace(text[:colon])
			body := strings.TrimSpace(text[colon+1:])
			out := []Line{{No: no, Text: header, Indent: indent, Opens: true}}
			if body != "" {
				out = append(out, splitPyHeader(no, indent+1, body)...)
			}
			return out
		}
	}
	return []Line{{No: no, Text: text, Indent: indent}}
}

func indentWidth(line string) int {
	width := 0
	for _, ch := range line {
		switch ch {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

func stripHashComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '#':
			return line[:i]
		}
	}
	return line
}

func bracketDepth(text string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'':
			quote = ch
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}

// topLevelIndex finds the first sep outside strings and brackets.
func topLevelIndex(text string, sep byte) int {
	depth := 0
	var quote byte
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			quote = ch
		case ch == '(' || ch == '[' || ch == '{':
			depth++
		case ch == ')' || ch == ']' || ch == '}':
			depth--
		case ch == sep && depth == 0:
			return i
		}
	}
	return -1
}

// SplitTopLevel splits text at every sep found outside string literals and
// brackets. Parts are trimmed; an empty text yields no parts.
func SplitTopLevel(text, sep string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	var quote byte
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch {
		case ch == '"' || ch == '\'' || ch == '`':
			quote = ch
		case ch == '(' || ch == '[' || ch == '{':
			depth++
		case ch == ')' || ch == ']' || ch == '}':
			depth--
		case depth == 0 && strings.HasPrefix(text[i:], sep):
			parts = append(parts, strings.TrimSpace(text[start:i]))
			i += len(sep) - 1
			start = i + 1
		}
	}
	return append(parts, strings.TrimSpace(text[start:]))
}
