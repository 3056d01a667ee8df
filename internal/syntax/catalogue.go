package syntax

import (
	"regexp"
	"strconv"
	"strings"
)

var reservedCalls = map[string]bool{
	"if": true, "while": true, "for": true, "switch": true, "return": true,
	"sizeof": true, "catch": true, "elif": true, "print": true,
}

// Recognizers shared by the braced dialects.
var (
	reOpenBrace  = regexp.MustCompile(`^\{$`)
	reCloseBrace = regexp.MustCompile(`^\}$`)
	reElseIf     = regexp.MustCompile(`^else\s+if\s*\((.*)\)$`)
	reElse       = regexp.MustCompile(`^else$`)
	reIf         = regexp.MustCompile(`^if\s*\((.*)\)$`)
	reWhile      = regexp.MustCompile(`^while\s*\((.*)\)$`)
	reFor        = regexp.MustCompile(`^for\s*\((.*)\)$`)
	reReturn     = regexp.MustCompile(`^return\b\s*(.*)$`)
	reBreak      = regexp.MustCompile(`^break$`)
	reContinue   = regexp.MustCompile(`^continue$`)
	rePreIncDec  = regexp.MustCompile(`^(\+\+|--)\s*(\w+)$`)
	rePostIncDec = regexp.MustCompile(`^(\w+)\s*(\+\+|--)$`)
	reIndexSet   = regexp.MustCompile(`^(\w+)\s*\[(.+?)\]\s*=\s*([^=].*)$`)
	reAssign     = regexp.MustCompile(`^(\w+)\s*=\s*([^=].*)$`)
	reCall       = regexp.MustCompile(`^(\w+)\s*\((.*)\)$`)
)

func openBrace(ln Line, _ []string) Stmt  { return &OpenBrace{base{ln}} }
func closeBrace(ln Line, _ []string) Stmt { return &CloseBrace{base{ln}} }
func directive(ln Line, _ []string) Stmt  { return &Directive{base{ln}} }
func elseStmt(ln Line, _ []string) Stmt   { return &Else{base{ln}} }
func breakStmt(ln Line, _ []string) Stmt  { return &Break{base{ln}} }
func continueStmt(ln Line, _ []string) Stmt {
	return &Continue{base{ln}}
}

func ifStmt(ln Line, m []string) Stmt {
	return &If{base: base{ln}, Cond: strings.TrimSpace(m[1])}
}

func elseIfStmt(ln Line, m []string) Stmt {
	return &ElseIf{base: base{ln}, Cond: strings.TrimSpace(m[1])}
}

func whileStmt(ln Line, m []string) Stmt {
	return &While{base: base{ln}, Cond: strings.TrimSpace(m[1])}
}

func forStmt(ln Line, m []string) Stmt {
	clauses := SplitTopLevel(m[1], ";")
	if len(clauses) != 3 {
		return nil
	}
	return &For{base: base{ln}, Init: clauses[0], Cond: clauses[1], Post: clauses[2]}
}

func returnStmt(ln Line, m []string) Stmt {
	return &Return{base: base{ln}, Value: strings.TrimSpace(m[1])}
}

func preIncDec(ln Line, m []string) Stmt {
	return &IncDec{base: base{ln}, Name: m[2], Op: m[1], Prefix: true}
}

func postIncDec(ln Line, m []string) Stmt {
	return &IncDec{base: base{ln}, Name: m[1], Op: m[2]}
}

func compound(ln Line, m []string) Stmt {
	return &Compound{base: base{ln}, Name: m[1], Op: m[2], Value: strings.TrimSpace(m[3])}
}

func indexAssign(ln Line, m []string) Stmt {
	return &IndexAssign{base: base{ln}, Name: m[1], Index: strings.TrimSpace(m[2]), Value: strings.TrimSpace(m[3])}
}

func appendStmt(ln Line, m []string) Stmt {
	args := SplitTopLevel(m[2], ",")
	if len(args) != 1 {
		return nil
	}
	return &Append{base: base{ln}, Name: m[1], Value: args[0]}
}

func assign(ln Line, m []string) Stmt {
	return &Assign{base: base{ln}, Targets: []string{m[1]}, Values: []string{strings.TrimSpace(m[2])}}
}

func callStmt(ln Line, m []string) Stmt {
	if reservedCalls[m[1]] {
		return nil
	}
	return &Call{base: base{ln}, Name: m[1], Args: SplitTopLevel(m[2], ",")}
}

var (
	reArrayDecl = regexp.MustCompile(`^(\w+)\s*\[\s*([^\]]*?)\s*\]\s*(?:=\s*(.+))?$`)
	reCtorDecl  = regexp.MustCompile(`^(\w+)\s*\((.*)\)$`)
	reBraceDecl = regexp.MustCompile(`^(\w+)\s*\{(.*)\}$`)
	reInitDecl  = regexp.MustCompile(`^(\w+)\s*=\s*(.+)$`)
	reBareDecl  = regexp.MustCompile(`^(\w+)$`)
)

// parseDeclarators splits "a = 1, b[3], c" into declarators. list reports
// whether the declared type is a sequence, which decides how a braced
// initializer is read.
func parseDeclarators(text string, list bool) []Declarator {
	var out []Declarator
	for _, part := range SplitTopLevel(text, ",") {
		var d Declarator
		switch m := matchAny(part, reArrayDecl, reCtorDecl, reBraceDecl, reInitDecl, reBareDecl); {
		case m == nil:
			return nil
		case m.re == reArrayDecl:
			d = Declarator{Name: m.sub[1], Array: true, Size: m.sub[2], Value: braceInit(m.sub[3], true)}
		case m.re == reCtorDecl:
			args := SplitTopLevel(m.sub[2], ",")
			d = Declarator{Name: m.sub[1]}
			if list {
				if len(args) > 0 {
					d.Size = args[0]
				}
				if len(args) > 1 {
					d.Fill = args[1]
				}
				d.Array = true
			} else if len(args) == 1 {
				d.Value = args[0]
			} else {
				return nil
			}
		case m.re == reBraceDecl:
			d = Declarator{Name: m.sub[1], Value: braceInit("{"+m.sub[2]+"}", list)}
		case m.re == reInitDecl:
			d = Declarator{Name: m.sub[1], Value: braceInit(strings.TrimSpace(m.sub[2]), list)}
		default:
			d = Declarator{Name: m.sub[1]}
		}
		out = append(out, d)
	}
	return out
}

type match struct {
	re  *regexp.Regexp
	sub []string
}

func matchAny(text string, res ...*regexp.Regexp) *match {
	for _, re := range res {
		if m := re.FindStringSubmatch(text); m != nil {
			return &match{re: re, sub: m}
		}
	}
	return nil
}

// braceInit rewrites a C initializer list into list-literal syntax. A
// braced scalar initializer such as {5} yields its single element.
func braceInit(value string, list bool) string {
	v := strings.TrimSpace(value)
	if !strings.HasPrefix(v, "{") || !strings.HasSuffix(v, "}") {
		return v
	}
	inner := strings.TrimSpace(v[1 : len(v)-1])
	if !list {
		return inner
	}
	return "[" + inner + "]"
}

func unquote(raw string) string {
	s, err := strconv.Unquote(`"` + raw + `"`)
	if err != nil {
		return raw
	}
	return s
}

// paramNames extracts parameter names from a parameter list, dropping
// types, default values and a lone "void".
func paramNames(list string) []string {
	var names []string
	for _, p := range SplitTopLevel(list, ",") {
		if i := strings.IndexByte(p, '='); i >= 0 {
			p = p[:i]
		}
		if i := strings.IndexByte(p, ':'); i >= 0 {
			p = p[:i]
		}
		p = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(p), "[]"))
		fields := strings.FieldsFunc(p, func(r rune) bool { return r == ' ' || r == '*' || r == '&' })
		if len(fields) == 0 || p == "void" {
			continue
		}
		names = append(names, fields[len(fields)-1])
	}
	return names
}
