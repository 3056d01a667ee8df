package syntax

import (
	"regexp"
	"strings"
)

var (
	reJSDirective = regexp.MustCompile(`^(?:import\s|export\s|['"]use strict['"]$|(?:const|let|var)\s+\w+\s*=\s*(?:require\s*\(|readline\.createInterface))`)
	reJSForOf     = regexp.MustCompile(`^for\s*\(\s*(?:(?:const|let|var)\s+)?(\w+)\s+(of|in)\s+(.+)\)$`)
	reJSFunc      = regexp.MustCompile(`^(?:export\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(([^)]*)\)$`)
	reJSArrow     = regexp.MustCompile(`^(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?(?:\(([^)]*)\)|(\w+))\s*=>$`)
	reJSFuncExpr  = regexp.MustCompile(`^(?:const|let|var)\s+(\w+)\s*=\s*function\s*\(([^)]*)\)$`)
	reJSInput     = regexp.MustCompile(`^(?:(?:const|let|var)\s+)?(\w+)\s*=\s*(?:(parseInt|parseFloat|Number)\s*\(\s*)?(?:prompt|readline|readLine|gets)\s*\(([^)]*)\)(?:\.trim\(\))?\s*(?:,\s*10\s*)?\)?$`)
	reJSSplitIn   = regexp.MustCompile(`^(?:(?:const|let|var)\s+)?\[\s*(\w+(?:\s*,\s*\w+)*)\s*\]\s*=\s*(?:prompt|readline|readLine|gets)\s*\(([^)]*)\)(?:\.trim\(\))?\.split\([^)]*\)(?:\.map\(\s*(Number|parseInt|parseFloat)\s*\))?$`)
	reJSLog       = regexp.MustCompile(`^console\.(?:log|info|warn|error|debug)\s*\((.*)\)$`)
	reJSWrite     = regexp.MustCompile(`^process\.stdout\.write\s*\((.*)\)$`)
	reJSCompound  = regexp.MustCompile(`^(\w+)\s*(\*\*|\+|-|\*|/|%)=\s*(.+)$`)
	reJSAppend    = regexp.MustCompile(`^(\w+)\.push\s*\((.*)\)$`)
	reJSDeclare   = regexp.MustCompile(`^(const|let|var)\s+(.+)$`)
)

var jsConv = map[string]string{
	"":           "str",
	"parseInt":   "int",
	"parseFloat": "number",
	"Number":     "number",
}

var jsTable = []recognizer{
	{KindDirective, reJSDirective, directive},
	{KindOpenBrace, reOpenBrace, openBrace},
	{KindCloseBrace, reCloseBrace, closeBrace},
	{KindElseIf, reElseIf, elseIfStmt},
	{KindElse, reElse, elseStmt},
	{KindIf, reIf, ifStmt},
	{KindWhile, reWhile, whileStmt},
	{KindForEach, reJSForOf, func(ln Line, m []string) Stmt {
		return &ForEach{base: base{ln}, Var: m[1], Iterable: strings.TrimSpace(m[3]), Indices: m[2] == "in"}
	}},
	{KindFor, reFor, forStmt},
	{KindFuncDef, reJSFunc, jsFuncDef},
	{KindFuncDef, reJSFuncExpr, jsFuncDef},
	{KindFuncDef, reJSArrow, func(ln Line, m []string) Stmt {
		params := m[2]
		if m[3] != "" {
			params = m[3]
		}
		return &FuncDef{base: base{ln}, Name: m[1], Params: paramNames(params)}
	}},
	{KindReturn, reReturn, returnStmt},
	{KindBreak, reBreak, breakStmt},
	{KindContinue, reContinue, continueStmt},
	{KindInput, reJSInput, func(ln Line, m []string) Stmt {
		return &Input{base: base{ln}, Targets: []string{m[1]}, Conv: jsConv[m[2]]}
	}},
	{KindInput, reJSSplitIn, func(ln Line, m []string) Stmt {
		return &Input{base: base{ln}, Targets: SplitTopLevel(m[1], ","), Conv: jsConv[m[3]], Split: true}
	}},
	{KindOutput, reJSLog, func(ln Line, m []string) Stmt {
		return &Output{base: base{ln}, Parts: SplitTopLevel(m[1], ","), Sep: `" "`, Newline: true}
	}},
	{KindOutput, reJSWrite, func(ln Line, m []string) Stmt {
		return &Output{base: base{ln}, Parts: []string{strings.TrimSpace(m[1])}}
	}},
	{KindIncDec, rePreIncDec, preIncDec},
	{KindIncDec, rePostIncDec, postIncDec},
	{KindCompound, reJSCompound, compound},
	{KindAppend, reJSAppend, appendStmt},
	{KindIndexAssign, reIndexSet, indexAssign},
	{KindDeclare, reJSDeclare, func(ln Line, m []string) Stmt {
		decls := parseDeclarators(m[2], true)
		if decls == nil {
			return nil
		}
		for _, d := range decls {
			if d.Array || d.Size != "" {
				return nil
			}
		}
		return &Declare{base: base{ln}, Type: m[1], Declarators: decls}
	}},
	{KindAssign, reAssign, assign},
	{KindCall, reCall, callStmt},
}

func jsFuncDef(ln Line, m []string) Stmt {
	return &FuncDef{base: base{ln}, Name: m[1], Params: paramNames(m[2])}
}
