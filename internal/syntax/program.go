package syntax

import (
	"tracelens/internal/model"
)

// Block locates the body of a header statement. Body statements are the
// half-open range [Start, End); Next is the first statement after the whole
// construct, including any closing brace.
type Block struct {
	Header int
	Start  int
	End    int
	Next   int
}

// Program is a classified source file with resolved block structure.
type Program struct {
	Language model.Language
	Dialect  Dialect
	Stmts    []Stmt

	blocks map[int]Block
}

// Parse splits, classifies and resolves blocks for source. An empty lang
// is detected from the source.
func Parse(source string, lang model.Language) *Program {
	if lang == "" {
		lang = Detect(source)
	}
	d := ForLanguage(lang)
	lines := d.Split(source)
	p := &Program{
		Language: d.Language(),
		Dialect:  d,
		Stmts:    make([]Stmt, len(lines)),
		blocks:   map[int]Block{},
	}
	for i, ln := range lines {
		st := d.Classify(ln)
		// a value that opens a block, such as a multi-line object literal,
		// is skipped with its body
		if ln.Opens && !IsHeader(st) {
			st = &Unknown{base{ln}}
		}
		p.Stmts[i] = st
	}
	for i := range p.Stmts {
		if d.Indented() {
			p.indentBlock(i)
		} else {
			p.braceBlock(i)
		}
	}
	return p
}

// Len is the number of logical lines.
func (p *Program) Len() int {
	return len(p.Stmts)
}

// Block returns the block opened by the statement at i.
func (p *Program) Block(i int) (Block, bool) {
	b, ok := p.blocks[i]
	return b, ok
}

// ChainEnd returns the index after an if statement together with all of
// its else-if and else branches.
func (p *Program) ChainEnd(i int) int {
	b, ok := p.blocks[i]
	if !ok {
		return i + 1
	}
	next := b.Next
	for next < len(p.Stmts) {
		switch p.Stmts[next].(type) {
		case *ElseIf:
			nb, ok := p.blocks[next]
			if !ok {
				return next + 1
			}
			next = nb.Next
			continue
		case *Else:
			nb, ok := p.blocks[next]
			if !ok {
				return next + 1
			}
			return nb.Next
		}
		break
	}
	return next
}

// Functions maps each defined function name to its header index.
func (p *Program) Functions() map[string]int {
	out := map[string]int{}
	for i, st := range p.Stmts {
		if fn, ok := st.(*FuncDef); ok {
			if _, dup := out[fn.Name]; !dup {
				out[fn.Name] = i
			}
		}
	}
	return out
}

// ClassifyClause classifies a for-loop clause as a statement on the line
// of its header.
func (p *Program) ClassifyClause(header Line, text string) Stmt {
	return p.Dialect.Classify(Line{No: header.No, Text: text, Indent: header.Indent, Terminated: true})
}

// LastLine is the highest physical line number in the program, or 1 for an
// empty program.
func (p *Program) LastLine() int {
	last := 1
	for _, st := range p.Stmts {
		if n := st.Pos().No; n > last {
			last = n
		}
	}
	return last
}

func (p *Program) indentBlock(i int) {
	ln := p.Stmts[i].Pos()
	if !ln.Opens {
		return
	}
	end := i + 1
	for end < len(p.Stmts) && p.Stmts[end].Pos().Indent > ln.Indent {
		end++
	}
	p.blocks[i] = Block{Header: i, Start: i + 1, End: end, Next: end}
}

func (p *Program) braceBlock(i int) (Block, bool) {
	if b, ok := p.blocks[i]; ok {
		return b, true
	}
	st := p.Stmts[i]
	n := len(p.Stmts)
	nextIsBrace := i+1 < n && p.Stmts[i+1].Kind() == KindOpenBrace
	var b Block
	switch {
	case st.Pos().Opens:
		b = p.matchClose(i, i+1)
	case !IsHeader(st):
		return Block{}, false
	case nextIsBrace:
		b = p.matchClose(i, i+2)
	case st.Kind() == KindFuncDef:
		// a prototype
		return Block{}, false
	default:
		// single-statement body
		b = Block{Header: i, Start: i + 1, End: i + 1, Next: i + 1}
		if i+1 < n {
			b.End = i + 2
			if IsHeader(p.Stmts[i+1]) {
				if _, ok := p.braceBlock(i + 1); ok {
					b.End = p.chainOrBlockEnd(i + 1)
				}
			}
			b.Next = b.End
		}
	}
	p.blocks[i] = b
	return b, true
}

func (p *Program) chainOrBlockEnd(i int) int {
	if p.Stmts[i].Kind() == KindIf {
		// resolve the branches first so the chain can be walked
		for j := p.blocks[i].Next; j < len(p.Stmts); {
			k := p.Stmts[j].Kind()
			if k != KindElseIf && k != KindElse {
				break
			}
			nb, ok := p.braceBlock(j)
			if !ok {
				break
			}
			j = nb.Next
		}
		return p.ChainEnd(i)
	}
	return p.blocks[i].Next
}

// matchClose finds the brace closing a block whose body starts at start.
// An unterminated block extends to the end of the program.
func (p *Program) matchClose(header, start int) Block {
	depth := 1
	for j := start; j < len(p.Stmts); j++ {
		st := p.Stmts[j]
		switch {
		case st.Pos().Opens || st.Kind() == KindOpenBrace:
			depth++
		case st.Kind() == KindCloseBrace:
			depth--
			if depth == 0 {
				return Block{Header: header, Start: start, End: j, Next: j + 1}
			}
		}
	}
	return Block{Header: header, Start: start, End: len(p.Stmts), Next: len(p.Stmts)}
}
