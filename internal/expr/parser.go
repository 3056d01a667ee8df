package expr

import (
	"fmt"
	"strconv"
	"strings"

	"tracelens/internal/model"
)

// node is an expression AST node.
type node interface{}

type (
	literal  struct{ val model.Value }
	identRef struct{ name string }
	listLit  struct{ items []node }
	unary    struct {
		op string
		x  node
	}
	binary struct {
		op   string
		l, r node
	}
	logical struct {
		op   string // "and" or "or"
		l, r node
	}
	// chain holds a comparison chain: operands[0] ops[0] operands[1] ...
	chain struct {
		ops      []string
		operands []node
	}
	indexExpr struct{ x, idx node }
	member    struct {
		x    node
		name string
	}
	call struct {
		name string
		args []node
	}
	methodCall struct {
		x    node
		name string
		args []node
	}
	// interp is an f-string or template literal split into literal text and
	// embedded expression sources.
	interp struct {
		parts []interpPart
	}
)

type interpPart struct {
	text   string
	expr   string
	format string
	isExpr bool
}

var keywordLiterals = map[string]model.Value{
	"true":      true,
	"false":     false,
	"True":      true,
	"False":     false,
	"None":      nil,
	"null":      nil,
	"undefined": nil,
	"nullptr":   nil,
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(values ...string) bool {
	t := p.peek()
	if t.typ != tokOp && t.typ != tokIdent {
		return false
	}
	for _, v := range values {
		if t.value == v {
			return true
		}
	}
	return false
}

func (p *parser) expect(typ tokenType) error {
	t := p.advance()
	if t.typ != typ {
		return fmt.Errorf("offset %d: unexpected %q", t.pos, t.value)
	}
	return nil
}

// parse builds an AST for the whole token stream.
func parse(src string) (node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.typ != tokEOF {
		return nil, fmt.Errorf("offset %d: unexpected trailing %q", t.pos, t.value)
	}
	return n, nil
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("||", "or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &logical{op: "or", l: left, r: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&", "and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &logical{op: "and", l: left, r: right}
	}
	return left, nil
}

func (p *parser) parseNot() (node, error) {
	if t := p.peek(); t.typ == tokIdent && t.value == "not" {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &unary{op: "!", x: x}, nil
	}
	return p.parseComparison()
}

func (p *parser) comparisonOp() (string, bool) {
	t := p.peek()
	switch {
	case t.typ == tokOp:
		switch t.value {
		case "<", "<=", ">", ">=", "==", "!=", "===", "!==":
			return t.value, true
		}
	case t.typ == tokIdent && t.value == "in":
		return "in", true
	case t.typ == tokIdent && t.value == "not":
		if n := p.toks[p.pos+1]; n.typ == tokIdent && n.value == "in" {
			return "not in", true
		}
	}
	return "", false
}

func (p *parser) parseComparison() (node, error) {
	first, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	c := &chain{operands: []node{first}}
	for {
		op, ok := p.comparisonOp()
		if !ok {
			break
		}
		p.advance()
		if op == "not in" {
			p.advance()
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		c.ops = append(c.ops, op)
		c.operands = append(c.operands, right)
	}
	if len(c.ops) == 0 {
		return first, nil
	}
	return c, nil
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.advance().value
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binary{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/", "//", "%") {
		op := p.advance().value
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binary{op: op, l: left, r: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.isOp("-", "+", "!") && p.peek().typ == tokOp {
		op := p.advance().value
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unary{op: op, x: x}, nil
	}
	return p.parsePower()
}

// parsePower is right-associative and binds tighter than a unary minus on
// its left, so -2**2 is -(2**2).
func (p *parser) parsePower() (node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		p.advance()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &binary{op: "**", l: base, r: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePostfix() (node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().typ {
		case tokLBracket:
			p.advance()
			idx, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket); err != nil {
				return nil, err
			}
			x = &indexExpr{x: x, idx: idx}
		case tokDot:
			p.advance()
			name := p.advance()
			if name.typ != tokIdent {
				return nil, fmt.Errorf("offset %d: expected member name", name.pos)
			}
			if p.peek().typ == tokLParen {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				x = &methodCall{x: x, name: name.value, args: args}
			} else {
				x = &member{x: x, name: name.value}
			}
		default:
			return x, nil
		}
	}
}

func (p *parser) parseArgs() ([]node, error) {
	if err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var args []node
	if p.peek().typ == tokRParen {
		p.advance()
		return args, nil
	}
	for {
		a, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.peek().typ == tokComma {
			p.advance()
			continue
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) parsePrimary() (node, error) {
	t := p.advance()
	switch t.typ {
	case tokNumber:
		v, err := parseNumber(t.value)
		if err != nil {
			return nil, err
		}
		return &literal{val: v}, nil
	case tokString:
		return &literal{val: t.value}, nil
	case tokFString:
		return parseInterpolation(t.value, "{", "}")
	case tokTemplate:
		return parseInterpolation(t.value, "${", "}")
	case tokLParen:
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return x, nil
	case tokLBracket:
		var items []node
		if p.peek().typ == tokRBracket {
			p.advance()
			return &listLit{}, nil
		}
		for {
			item, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if p.peek().typ == tokComma {
				p.advance()
				if p.peek().typ == tokRBracket {
					p.advance()
					return &listLit{items: items}, nil
				}
				continue
			}
			if err := p.expect(tokRBracket); err != nil {
				return nil, err
			}
			return &listLit{items: items}, nil
		}
	case tokIdent:
		if v, ok := keywordLiterals[t.value]; ok {
			return &literal{val: v}, nil
		}
		// Math.floor(x) and friends are resolved as qualified calls.
		if t.value == "Math" && p.peek().typ == tokDot {
			p.advance()
			name := p.advance()
			if name.typ != tokIdent || p.peek().typ != tokLParen {
				return nil, fmt.Errorf("offset %d: unsupported Math member", name.pos)
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &call{name: "Math." + name.value, args: args}, nil
		}
		if p.peek().typ == tokLParen {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &call{name: t.value, args: args}, nil
		}
		return &identRef{name: t.value}, nil
	}
	return nil, fmt.Errorf("offset %d: unexpected %q", t.pos, t.value)
}

func parseNumber(text string) (model.Value, error) {
	text = strings.TrimRight(text, "lLuU")
	isFloat := strings.ContainsAny(text, ".eE") || strings.HasSuffix(text, "f") || strings.HasSuffix(text, "F")
	text = strings.TrimRight(text, "fF")
	if !isFloat {
		n, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("bad number %q", text)
	}
	return f, nil
}

// parseInterpolation splits an f-string or template literal body into text
// and expression parts. Expression sources are evaluated lazily.
func parseInterpolation(body, open, close string) (node, error) {
	var parts []interpPart
	for body != "" {
		i := strings.Index(body, open)
		if i < 0 {
			parts = append(parts, interpPart{text: body})
			break
		}
		// {{ is a literal brace in f-strings
		if open == "{" && strings.HasPrefix(body[i:], "{{") {
			parts = append(parts, interpPart{text: body[:i] + "{"})
			body = body[i+2:]
			continue
		}
		if i > 0 {
			parts = append(parts, interpPart{text: body[:i]})
		}
		rest := body[i+len(open):]
		j := strings.Index(rest, close)
		if j < 0 {
			return nil, fmt.Errorf("unterminated interpolation")
		}
		src := rest[:j]
		format := ""
		if open == "{" {
			if k := strings.LastIndex(src, ":"); k >= 0 {
				format = src[k+1:]
				src = src[:k]
			}
		}
		parts = append(parts, interpPart{expr: strings.TrimSpace(src), format: format, isExpr: true})
		body = rest[j+len(close):]
	}
	return &interp{parts: parts}, nil
}
