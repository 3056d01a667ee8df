package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/internal/model"
)

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		out[i] = ln.Text
	}
	return out
}

func TestSplitBraced(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "one line loop",
			src:  "i=0; while(i<5){ sum+=i; i++; }",
			want: []string{"i=0", "while(i<5)", "sum+=i", "i++", "}"},
		},
		{
			name: "else on closing brace line",
			src:  "if (a) {\n  x = 1;\n} else {\n  x = 2;\n}",
			want: []string{"if (a)", "x = 1", "}", "else", "x = 2", "}"},
		},
		{
			name: "inline bodies",
			src:  "if (a) x++;\nelse x--;",
			want: []string{"if (a)", "x++", "else", "x--"},
		},
		{
			name: "comments and initializers",
			src:  "int a[] = {1, 2}; // note\n/* block\n comment */ int b = 3;",
			want: []string{"int a[] = {1, 2}", "int b = 3"},
		},
		{
			name: "for header keeps its semicolons",
			src:  "for (int i = 0; i < n; i++) total += i;",
			want: []string{"for (int i = 0; i < n; i++)", "total += i"},
		},
		{
			name: "strings keep their semicolons",
			src:  `cout << "a;b" << endl;`,
			want: []string{`cout << "a;b" << endl`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, texts(splitBraced(tt.src)))
		})
	}
}

func TestSplitBraced_LineNumbers(t *testing.T) {
	lines := splitBraced("int x = 1;\n\nwhile (x < 3) {\n  x++;\n}\n")
	require.Len(t, lines, 4)

	assert.Equal(t, 1, lines[0].No)
	assert.Equal(t, 3, lines[1].No)
	assert.True(t, lines[1].Opens)
	assert.True(t, lines[0].Terminated)
	assert.Equal(t, 5, lines[3].No)
}

func TestSplitIndented(t *testing.T) {
	src := "total = 0  # running sum\nfor i in range(3):\n    if i: total += i\nprint(total,\n      end='')\n"
	lines := splitIndented(src)

	assert.Equal(t, []string{"total = 0", "for i in range(3)", "if i", "total += i", "print(total, end='')"}, texts(lines))
	assert.True(t, lines[1].Opens)
	assert.Greater(t, lines[3].Indent, lines[2].Indent)
	assert.Equal(t, 4, lines[4].No)
}

func TestSplitTopLevel(t *testing.T) {
	assert.Equal(t, []string{`"a, b"`, "f(1, 2)", "[3, 4]"}, SplitTopLevel(`"a, b", f(1, 2), [3, 4]`, ","))
	assert.Equal(t, []string{`"x"`, "a + b", "endl"}, SplitTopLevel(`"x" << a + b << endl`, "<<"))
	assert.Nil(t, SplitTopLevel("  ", ","))
}

func TestClassify_CFamily(t *testing.T) {
	d := ForLanguage(model.LangCPP)
	classifyText := func(text string) Stmt {
		return d.Classify(Line{No: 1, Text: text, Terminated: true})
	}

	assert.IsType(t, &Directive{}, classifyText("#include <iostream>"))
	assert.IsType(t, &Return{}, classifyText("return f(x)"))

	in := classifyText("cin >> a >> b")
	require.IsType(t, &Input{}, in)
	assert.Equal(t, []string{"a", "b"}, in.(*Input).Targets)

	out := classifyText(`cout << "n=" << n << endl`)
	require.IsType(t, &Output{}, out)
	assert.Equal(t, []string{`"n="`, "n", "endl"}, out.(*Output).Parts)

	decl := classifyText("long long a = 1, b, v[3]")
	require.IsType(t, &Declare{}, decl)
	ds := decl.(*Declare)
	assert.Equal(t, "long long", ds.Type)
	require.Len(t, ds.Declarators, 3)
	assert.Equal(t, "1", ds.Declarators[0].Value)
	assert.Equal(t, "", ds.Declarators[1].Value)
	assert.True(t, ds.Declarators[2].Array)

	vec := classifyText("vector<int> v(n, 0)")
	require.IsType(t, &Declare{}, vec)
	assert.Equal(t, Declarator{Name: "v", Array: true, Size: "n", Fill: "0"}, vec.(*Declare).Declarators[0])

	inc := classifyText("++count")
	require.IsType(t, &IncDec{}, inc)
	assert.True(t, inc.(*IncDec).Prefix)

	fn := d.Classify(Line{Text: "int add(int a, int b)", Opens: true})
	require.IsType(t, &FuncDef{}, fn)
	assert.Equal(t, []string{"a", "b"}, fn.(*FuncDef).Params)

	assert.IsType(t, &Declare{}, classifyText("int add(int a)"), "a terminated signature is not a definition")
	assert.IsType(t, &Unknown{}, classifyText("x ? y : z"))
}

func TestClassify_Python(t *testing.T) {
	d := ForLanguage(model.LangPython)
	classifyText := func(text string) Stmt {
		return d.Classify(Line{No: 1, Text: text})
	}

	assert.IsType(t, &MainGuard{}, classifyText(`if __name__ == "__main__"`))
	assert.IsType(t, &ForRange{}, classifyText("for i in range(1, n, 2)"))
	assert.IsType(t, &ForEach{}, classifyText("for ch in word"))

	in := classifyText("a, b = map(int, input().split())")
	require.IsType(t, &Input{}, in)
	assert.Equal(t, "int", in.(*Input).Conv)
	assert.Equal(t, []string{"a", "b"}, in.(*Input).Targets)

	p := classifyText(`print("a", b, sep="-", end="")`)
	require.IsType(t, &Output{}, p)
	assert.Equal(t, []string{`"a"`, "b"}, p.(*Output).Parts)
	assert.Equal(t, `"-"`, p.(*Output).Sep)
	assert.False(t, p.(*Output).Newline)

	tuple := classifyText("t = 1, 2")
	require.IsType(t, &Assign{}, tuple)
	assert.Equal(t, []string{"[1, 2]"}, tuple.(*Assign).Values)

	assert.IsType(t, &Compound{}, classifyText("x //= 2"))
	assert.IsType(t, &Delete{}, classifyText("del x"))
}

func TestClassify_JavaScript(t *testing.T) {
	d := ForLanguage(model.LangJavaScript)
	classifyText := func(text string) Stmt {
		return d.Classify(Line{No: 1, Text: text, Terminated: true})
	}

	assert.IsType(t, &Directive{}, classifyText("const fs = require('fs')"))
	in := classifyText("let n = parseInt(readline())")
	require.IsType(t, &Input{}, in)
	assert.Equal(t, "int", in.(*Input).Conv)

	each := classifyText("for (const x of xs)")
	require.IsType(t, &ForEach{}, each)
	assert.False(t, each.(*ForEach).Indices)

	arrow := d.Classify(Line{Text: "const square = (x) =>", Opens: true})
	require.IsType(t, &FuncDef{}, arrow)
	assert.Equal(t, "square", arrow.(*FuncDef).Name)

	assert.IsType(t, &Output{}, classifyText("console.log(a, b)"))
	assert.IsType(t, &Append{}, classifyText("xs.push(4)"))
}

func TestParse_Blocks(t *testing.T) {
	src := `int main() {
    int x = 0;
    if (x > 1)
        x = 1;
    else if (x < 0) x = 2;
    else {
        x = 3;
    }
    while (x < 5) x++;
    return 0;
}`
	p := Parse(src, model.LangCPP)

	main, ok := p.Block(0)
	require.True(t, ok)
	assert.Equal(t, p.Len()-1, main.End, "main ends at its closing brace")

	ifIdx := 2
	require.IsType(t, &If{}, p.Stmts[ifIdx])
	ifBlock, _ := p.Block(ifIdx)
	assert.Equal(t, ifIdx+1, ifBlock.Start)
	assert.Equal(t, ifIdx+2, ifBlock.End)

	end := p.ChainEnd(ifIdx)
	require.IsType(t, &While{}, p.Stmts[end])
	loop, _ := p.Block(end)
	assert.Equal(t, loop.Start+1, loop.End)
}

func TestParse_IndentedBlocks(t *testing.T) {
	src := "def f():\n    return 1\n\nx = 0\nwhile x < 3:\n    x += 1\n    if x == 2:\n        break\nprint(x)\n"
	p := Parse(src, model.LangPython)

	fn, ok := p.Block(0)
	require.True(t, ok)
	assert.Equal(t, 2, fn.End)

	loop, ok := p.Block(3)
	require.True(t, ok)
	require.IsType(t, &While{}, p.Stmts[3])
	assert.Equal(t, 7, loop.End)
	assert.Equal(t, map[string]int{"f": 0}, p.Functions())
}

func TestParse_SkipsOpaqueBlocks(t *testing.T) {
	p := Parse("struct P {\n  int x;\n};\nint y = 1;", model.LangCPP)

	require.IsType(t, &Unknown{}, p.Stmts[0])
	b, ok := p.Block(0)
	require.True(t, ok)
	assert.IsType(t, &Declare{}, p.Stmts[b.Next])
}

func TestDetect(t *testing.T) {
	assert.Equal(t, model.LangCPP, Detect("#include <cstdio>\nint main() {}"))
	assert.Equal(t, model.LangJavaScript, Detect("let x = 1;\nconsole.log(x);"))
	assert.Equal(t, model.LangPython, Detect("def f(x):\n    return x\n"))
}
