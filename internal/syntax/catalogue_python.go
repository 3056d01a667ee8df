package syntax

import (
	"regexp"
	"strings"
)

var (
	rePyDirective  = regexp.MustCompile(`^(?:(?:import|from)\s|(?:pass|global|nonlocal)\b)`)
	rePyMainGuard  = regexp.MustCompile(`^if\s+__name__\s*==\s*['"]__main__['"]$`)
	rePyElif       = regexp.MustCompile(`^elif\s+(.+)$`)
	rePyIf         = regexp.MustCompile(`^if\s+(.+)$`)
	rePyWhile      = regexp.MustCompile(`^while\s+(.+)$`)
	rePyForRange   = regexp.MustCompile(`^for\s+(\w+)\s+in\s+range\s*\((.*)\)$`)
	rePyForEach    = regexp.MustCompile(`^for\s+(\w+)\s+in\s+(.+)$`)
	rePyDef        = regexp.MustCompile(`^def\s+(\w+)\s*\((.*)\)\s*(?:->.*)?$`)
	rePyDel        = regexp.MustCompile(`^del\s+(\w+)$`)
	rePyInput      = regexp.MustCompile(`^(\w+)\s*=\s*input\s*\((.*)\)(?:\.strip\(\))?$`)
	rePyConvInput  = regexp.MustCompile(`^(\w+)\s*=\s*(int|float)\s*\(\s*input\s*\((.*)\)(?:\.strip\(\))?\s*\)$`)
	rePyMapInput   = regexp.MustCompile(`^(\w+(?:\s*,\s*\w+)*)\s*=\s*map\s*\(\s*(int|float|str)\s*,\s*input\s*\((.*)\)\s*\.split\(\s*\)\s*\)$`)
	rePyListInput  = regexp.MustCompile(`^(\w+)\s*=\s*list\s*\(\s*map\s*\(\s*(int|float|str)\s*,\s*input\s*\((.*)\)\s*\.split\(\s*\)\s*\)\s*\)$`)
	rePySplitInput = regexp.MustCompile(`^(\w+(?:\s*,\s*\w+)*)\s*=\s*input\s*\((.*)\)\s*\.split\(\s*\)$`)
	rePyPrint      = regexp.MustCompile(`^print\s*\((.*)\)$`)
	rePyKeyword    = regexp.MustCompile(`^(sep|end|file|flush)\s*=\s*(.+)$`)
	rePyCompound   = regexp.MustCompile(`^(\w+)\s*(\*\*|//|\+|-|\*|/|%)=\s*(.+)$`)
	rePyAppend     = regexp.MustCompile(`^(\w+)\.append\s*\((.*)\)$`)
	rePyAnnotated  = regexp.MustCompile(`^(\w+)\s*:\s*[\w\[\], .]+?\s*=\s*([^=].*)$`)
	rePyAssign     = regexp.MustCompile(`^(\w+(?:\s*,\s*\w+)*)\s*=\s*([^=].*)$`)
)

var pythonTable = []recognizer{
	{KindDirective, rePyDirective, directive},
	{KindMainGuard, rePyMainGuard, func(ln Line, _ []string) Stmt { return &MainGuard{base{ln}} }},
	{KindElseIf, rePyElif, elseIfStmt},
	{KindElse, reElse, elseStmt},
	{KindIf, rePyIf, ifStmt},
	{KindWhile, rePyWhile, whileStmt},
	{KindForRange, rePyForRange, func(ln Line, m []string) Stmt {
		args := SplitTopLevel(m[2], ",")
		if len(args) < 1 || len(args) > 3 {
			return nil
		}
		return &ForRange{base: base{ln}, Var: m[1], Args: args}
	}},
	{KindForEach, rePyForEach, func(ln Line, m []string) Stmt {
		return &ForEach{base: base{ln}, Var: m[1], Iterable: strings.TrimSpace(m[2])}
	}},
	{KindFuncDef, rePyDef, func(ln Line, m []string) Stmt {
		return &FuncDef{base: base{ln}, Name: m[1], Params: paramNames(m[2])}
	}},
	{KindReturn, reReturn, returnStmt},
	{KindBreak, reBreak, breakStmt},
	{KindContinue, reContinue, continueStmt},
	{KindDelete, rePyDel, func(ln Line, m []string) Stmt { return &Delete{base: base{ln}, Name: m[1]} }},
	{KindInput, rePyInput, func(ln Line, m []string) Stmt {
		return &Input{base: base{ln}, Targets: []string{m[1]}, Conv: "str"}
	}},
	{KindInput, rePyConvInput, func(ln Line, m []string) Stmt {
		return &Input{base: base{ln}, Targets: []string{m[1]}, Conv: m[2]}
	}},
	{KindInput, rePyListInput, func(ln Line, m []string) Stmt {
		return &Input{base: base{ln}, Targets: []string{m[1]}, Conv: m[2], All: true}
	}},
	{KindInput, rePyMapInput, func(ln Line, m []string) Stmt {
		return &Input{base: base{ln}, Targets: SplitTopLevel(m[1], ","), Conv: m[2]}
	}},
	{KindInput, rePySplitInput, func(ln Line, m []string) Stmt {
		targets := SplitTopLevel(m[1], ",")
		return &Input{base: base{ln}, Targets: targets, Conv: "str", All: len(targets) == 1}
	}},
	{KindOutput, rePyPrint, pyPrint},
	{KindCompound, rePyCompound, compound},
	{KindAppend, rePyAppend, appendStmt},
	{KindIndexAssign, reIndexSet, indexAssign},
	{KindAssign, rePyAnnotated, assign},
	{KindAssign, rePyAssign, pyAssign},
	{KindCall, reCall, callStmt},
}

func pyPrint(ln Line, m []string) Stmt {
	out := &Output{base: base{ln}, Sep: `" "`, Newline: true}
	for _, arg := range SplitTopLevel(m[1], ",") {
		if kw := rePyKeyword.FindStringSubmatch(arg); kw != nil {
			switch kw[1] {
			case "sep":
				out.Sep = strings.TrimSpace(kw[2])
			case "end":
				out.End = strings.TrimSpace(kw[2])
				out.Newline = false
			}
			continue
		}
		out.Parts = append(out.Parts, arg)
	}
	return out
}

// pyAssign handles plain, tuple and unpacking assignment. A single target
// with several values binds a list; several targets with one value unpack
// it at run time.
func pyAssign(ln Line, m []string) Stmt {
	targets := SplitTopLevel(m[1], ",")
	values := SplitTopLevel(m[2], ",")
	switch {
	case len(targets) == 1 && len(values) > 1:
		values = []string{"[" + strings.TrimSpace(m[2]) + "]"}
	case len(targets) > 1 && len(values) != len(targets) && len(values) != 1:
		return nil
	}
	return &Assign{base: base{ln}, Targets: targets, Values: values}
}
