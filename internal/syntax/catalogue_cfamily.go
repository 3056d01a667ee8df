package syntax

import (
	"regexp"
	"strings"
)

// cType matches the declared type of a C-family declaration.
const cType = `((?:(?:const|static|unsigned|signed|long|short)\s+)*` +
	`(?:long\s+long|long\s+double|int|long|short|double|float|bool|char|string|std::string|auto|size_t|unsigned|` +
	`(?:std::)?(?:vector|deque|list)\s*<.+?>)\s*[*&]?)`

var (
	reCDirective = regexp.MustCompile(`^(?:#|using\s|typedef\s|template\s*<|namespace\s+\w+$)`)
	reCForEach   = regexp.MustCompile(`^for\s*\(\s*(?:const\s+)?[\w:<>,\s]+?\s*&{0,2}\s*(\w+)\s*:\s*([^:].*)\)$`)
	reCFunc      = regexp.MustCompile(`^(?:(?:static|inline|virtual|const|unsigned|signed|long|short)\s+)*[\w:<>,]+\s*[*&]?\s+[*&]?(\w+)\s*\(([^)]*)\)\s*(?:const)?$`)
	reCin        = regexp.MustCompile(`^(?:std::)?cin\s*>>\s*(.+)$`)
	reScanf      = regexp.MustCompile(`^scanf\s*\(\s*"((?:[^"\\]|\\.)*)"\s*,\s*(.+)\)$`)
	reGetline    = regexp.MustCompile(`^(?:std::)?getline\s*\(\s*(?:std::)?cin\s*,\s*(\w+)\s*\)$`)
	reCout       = regexp.MustCompile(`^(?:std::)?cout\s*<<\s*(.+)$`)
	rePrintf     = regexp.MustCompile(`^printf\s*\(\s*"((?:[^"\\]|\\.)*)"\s*(?:,\s*(.*))?\)$`)
	rePuts       = regexp.MustCompile(`^puts\s*\((.*)\)$`)
	reCCompound  = regexp.MustCompile(`^(\w+)\s*(\+|-|\*|/|%|<<|>>|&|\||\^)=\s*(.+)$`)
	reCAppend    = regexp.MustCompile(`^(\w+)\.(?:push_back|emplace_back)\s*\((.*)\)$`)
	reCDeclare   = regexp.MustCompile(`^` + cType + `\s+(.+)$`)
	reIdent      = regexp.MustCompile(`^\w+$`)
)

var cTable = []recognizer{
	{KindDirective, reCDirective, directive},
	{KindOpenBrace, reOpenBrace, openBrace},
	{KindCloseBrace, reCloseBrace, closeBrace},
	{KindElseIf, reElseIf, elseIfStmt},
	{KindElse, reElse, elseStmt},
	{KindIf, reIf, ifStmt},
	{KindWhile, reWhile, whileStmt},
	{KindForEach, reCForEach, func(ln Line, m []string) Stmt {
		return &ForEach{base: base{ln}, Var: m[1], Iterable: strings.TrimSpace(m[2])}
	}},
	{KindFor, reFor, forStmt},
	{KindFuncDef, reCFunc, cFuncDef},
	{KindReturn, reReturn, returnStmt},
	{KindBreak, reBreak, breakStmt},
	{KindContinue, reContinue, continueStmt},
	{KindInput, reCin, func(ln Line, m []string) Stmt {
		targets := SplitTopLevel(m[1], ">>")
		for _, t := range targets {
			if !reIdent.MatchString(t) {
				return nil
			}
		}
		return &Input{base: base{ln}, Targets: targets}
	}},
	{KindInput, reScanf, func(ln Line, m []string) Stmt {
		var targets []string
		for _, a := range SplitTopLevel(m[2], ",") {
			a = strings.TrimSpace(strings.TrimPrefix(a, "&"))
			if !reIdent.MatchString(a) {
				return nil
			}
			targets = append(targets, a)
		}
		return &Input{base: base{ln}, Targets: targets}
	}},
	{KindInput, reGetline, func(ln Line, m []string) Stmt {
		return &Input{base: base{ln}, Targets: []string{m[1]}, Conv: "str"}
	}},
	{KindOutput, reCout, func(ln Line, m []string) Stmt {
		return &Output{base: base{ln}, Parts: SplitTopLevel(m[1], "<<")}
	}},
	{KindOutput, rePrintf, func(ln Line, m []string) Stmt {
		return &Output{base: base{ln}, Format: unquote(m[1]), Printf: true, Parts: SplitTopLevel(m[2], ",")}
	}},
	{KindOutput, rePuts, func(ln Line, m []string) Stmt {
		return &Output{base: base{ln}, Parts: []string{strings.TrimSpace(m[1])}, Newline: true}
	}},
	{KindIncDec, rePreIncDec, preIncDec},
	{KindIncDec, rePostIncDec, postIncDec},
	{KindCompound, reCCompound, compound},
	{KindAppend, reCAppend, appendStmt},
	{KindIndexAssign, reIndexSet, indexAssign},
	{KindDeclare, reCDeclare, cDeclare},
	{KindAssign, reAssign, assign},
	{KindCall, reCall, callStmt},
}

func cFuncDef(ln Line, m []string) Stmt {
	if ln.Terminated || reservedCalls[m[1]] || strings.HasPrefix(ln.Text, "return") || strings.HasPrefix(ln.Text, "else") {
		return nil
	}
	return &FuncDef{base: base{ln}, Name: m[1], Params: paramNames(m[2])}
}

func cDeclare(ln Line, m []string) Stmt {
	typ := strings.Join(strings.Fields(m[1]), " ")
	list := strings.Contains(typ, "vector") || strings.Contains(typ, "deque") || strings.Contains(typ, "list<")
	decls := parseDeclarators(m[2], list)
	if decls == nil {
		return nil
	}
	return &Declare{base: base{ln}, Type: typ, Declarators: decls}
}
