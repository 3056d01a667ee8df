package syntax

// Kind names a statement category. It is used for logging, graph labels and
// complexity scans; dispatch happens on the concrete statement type.
type Kind int

const (
	KindUnknown Kind = iota
	KindDirective
	KindOpenBrace
	KindCloseBrace
	KindFuncDef
	KindMainGuard
	KindIf
	KindElseIf
	KindElse
	KindWhile
	KindFor
	KindForRange
	KindForEach
	KindInput
	KindOutput
	KindReturn
	KindBreak
	KindContinue
	KindIncDec
	KindCompound
	KindAssign
	KindIndexAssign
	KindDeclare
	KindAppend
	KindDelete
	KindCall
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindDirective:   "directive",
	KindOpenBrace:   "open-brace",
	KindCloseBrace:  "close-brace",
	KindFuncDef:     "function",
	KindMainGuard:   "main-guard",
	KindIf:          "if",
	KindElseIf:      "else-if",
	KindElse:        "else",
	KindWhile:       "while",
	KindFor:         "for",
	KindForRange:    "for-range",
	KindForEach:     "for-each",
	KindInput:       "input",
	KindOutput:      "output",
	KindReturn:      "return",
	KindBreak:       "break",
	KindContinue:    "continue",
	KindIncDec:      "increment",
	KindCompound:    "compound-assign",
	KindAssign:      "assign",
	KindIndexAssign: "index-assign",
	KindDeclare:     "declare",
	KindAppend:      "append",
	KindDelete:      "delete",
	KindCall:        "call",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Stmt is one classified logical line. The concrete types below form a
// closed set; consumers switch on them.
type Stmt interface {
	Pos() Line
	Kind() Kind
}

type base struct{ Line Line }

func (b base) Pos() Line { return b.Line }

type (
	// Unknown is a line no recognizer matched. It is skipped by the
	// simulator; if it opens a block the whole block is skipped.
	Unknown struct{ base }

	// Directive is an include, import or similar line with no runtime effect.
	Directive struct{ base }

	OpenBrace  struct{ base }
	CloseBrace struct{ base }

	FuncDef struct {
		base
		Name   string
		Params []string
	}

	// MainGuard is Python's if __name__ == "__main__": header.
	MainGuard struct{ base }

	If struct {
		base
		Cond string
	}
	ElseIf struct {
		base
		Cond string
	}
	Else struct{ base }

	While struct {
		base
		Cond string
	}

	// For is a three-clause C-style loop. Init and Post are statement
	// sources classified lazily by the consumer's dialect.
	For struct {
		base
		Init, Cond, Post string
	}

	// ForRange is Python's for v in range(...).
	ForRange struct {
		base
		Var  string
		Args []string
	}

	// ForEach iterates the elements of a list or string. Indices is set
	// for ECMAScript for...in, which iterates positions instead.
	ForEach struct {
		base
		Var      string
		Iterable string
		Indices  bool
	}

	// Input reads one token per target. Conv is "int", "float", "str" or
	// empty when the declared type decides. All consumes every remaining
	// token into a single list target. Split reads one token and splits it
	// on whitespace across the targets.
	Input struct {
		base
		Targets []string
		Conv    string
		All     bool
		Split   bool
	}

	// Output prints Parts. Format is set for printf-style output, whose
	// Parts are then the arguments. Newline reports whether the print
	// terminates the output line.
	Output struct {
		base
		Parts   []string
		Format  string
		Printf  bool
		Sep     string
		End     string
		Newline bool
	}

	Return struct {
		base
		Value string
	}
	Break    struct{ base }
	Continue struct{ base }

	IncDec struct {
		base
		Name   string
		Op     string // "++" or "--"
		Prefix bool
	}

	Compound struct {
		base
		Name  string
		Op    string // the arithmetic operator without "="
		Value string
	}

	// Assign binds each target to the value at the same position. A
	// single target with several values binds a list.
	Assign struct {
		base
		Targets []string
		Values  []string
	}

	IndexAssign struct {
		base
		Name  string
		Index string
		Value string
	}

	// Declare is a typed or keyword declaration of one or more names.
	Declare struct {
		base
		Type        string
		Declarators []Declarator
	}

	Append struct {
		base
		Name  string
		Value string
	}

	Delete struct {
		base
		Name string
	}

	Call struct {
		base
		Name string
		Args []string
	}
)

// Declarator is one name in a declaration. Value is empty when there is no
// initializer. Size is the array extent or constructor count, Fill the
// constructor fill value.
type Declarator struct {
	Name  string
	Value string
	Array bool
	Size  string
	Fill  string
}

func (Unknown) Kind() Kind     { return KindUnknown }
func (Directive) Kind() Kind   { return KindDirective }
func (OpenBrace) Kind() Kind   { return KindOpenBrace }
func (CloseBrace) Kind() Kind  { return KindCloseBrace }
func (FuncDef) Kind() Kind     { return KindFuncDef }
func (MainGuard) Kind() Kind   { return KindMainGuard }
func (If) Kind() Kind          { return KindIf }
func (ElseIf) Kind() Kind      { return KindElseIf }
func (Else) Kind() Kind        { return KindElse }
func (While) Kind() Kind       { return KindWhile }
func (For) Kind() Kind         { return KindFor }
func (ForRange) Kind() Kind    { return KindForRange }
func (ForEach) Kind() Kind     { return KindForEach }
func (Input) Kind() Kind       { return KindInput }
func (Output) Kind() Kind      { return KindOutput }
func (Return) Kind() Kind      { return KindReturn }
func (Break) Kind() Kind       { return KindBreak }
func (Continue) Kind() Kind    { return KindContinue }
func (IncDec) Kind() Kind      { return KindIncDec }
func (Compound) Kind() Kind    { return KindCompound }
func (Assign) Kind() Kind      { return KindAssign }
func (IndexAssign) Kind() Kind { return KindIndexAssign }
func (Declare) Kind() Kind     { return KindDeclare }
func (Append) Kind() Kind      { return KindAppend }
func (Delete) Kind() Kind      { return KindDelete }
func (Call) Kind() Kind        { return KindCall }

// IsHeader reports whether s introduces a body of nested statements.
func IsHeader(s Stmt) bool {
	switch s.(type) {
	case *FuncDef, *MainGuard, *If, *ElseIf, *Else, *While, *For, *ForRange, *ForEach:
		return true
	}
	return false
}

// IsLoop reports whether s is a loop header.
func IsLoop(s Stmt) bool {
	switch s.(type) {
	case *While, *For, *ForRange, *ForEach:
		return true
	}
	return false
}
