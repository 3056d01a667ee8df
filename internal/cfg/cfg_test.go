package cfg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/internal/model"
)

func edgesFrom(g model.Graph, id string) map[string]model.Edge {
	out := map[string]model.Edge{}
	for _, e := range g.Outgoing(id) {
		key := e.Condition
		if key == "" {
			key = "-"
		}
		out[key] = e
	}
	return out
}

func nodeByLabel(t *testing.T, g model.Graph, label string) model.Node {
	t.Helper()
	for _, n := range g.Nodes {
		if n.Label == label {
			return n
		}
	}
	t.Fatalf("no node labelled %q", label)
	return model.Node{}
}

func TestBuild_LoopWithBreak(t *testing.T) {
	src := "x = 0\nwhile x < 3:\n    x += 1\n    if x == 2:\n        break\nprint(x)\n"
	g := Build(src, model.LangPython)

	loop := nodeByLabel(t, g, "while x < 3")
	assert.Equal(t, model.NodeLoop, loop.Kind)
	assert.Equal(t, 2, loop.SourceLine)

	body := nodeByLabel(t, g, "x += 1")
	cond := nodeByLabel(t, g, "x == 2")
	brk := nodeByLabel(t, g, "break")
	after := nodeByLabel(t, g, "print(x)")
	assert.Equal(t, model.NodeDecision, cond.Kind)

	loopEdges := edgesFrom(g, loop.ID)
	assert.Equal(t, body.ID, loopEdges[model.CondTrue].Target)
	assert.Equal(t, after.ID, loopEdges[model.CondFalse].Target)

	condEdges := edgesFrom(g, cond.ID)
	assert.Equal(t, brk.ID, condEdges[model.CondTrue].Target)
	assert.Equal(t, loop.ID, condEdges[model.CondFalse].Target)
	assert.Equal(t, AnnotLoopBack, condEdges[model.CondFalse].Annotation)

	assert.Equal(t, after.ID, edgesFrom(g, brk.ID)["-"].Target)
	assert.Equal(t, EndID, edgesFrom(g, after.ID)["-"].Target)
}

func TestBuild_Continue(t *testing.T) {
	src := "for (let i = 0; i < 3; i++) {\n  if (i == 1) continue;\n  console.log(i);\n}\n"
	g := Build(src, model.LangJavaScript)

	loop := nodeByLabel(t, g, "for (let i = 0; i < 3; i++)")
	cont := nodeByLabel(t, g, "continue")

	e := edgesFrom(g, cont.ID)["-"]
	assert.Equal(t, loop.ID, e.Target)
	assert.Equal(t, AnnotContinue, e.Annotation)
}

func TestBuild_SkipsNonEntryFunctions(t *testing.T) {
	src := `int sq(int x) {
    return x * x;
}
int main() {
    int y = sq(3);
    return 0;
}`
	g := Build(src, model.LangCPP)

	for _, n := range g.Nodes {
		assert.NotContains(t, n.Label, "x * x")
	}
	ret := nodeByLabel(t, g, "return 0")
	e := edgesFrom(g, ret.ID)["-"]
	assert.Equal(t, EndID, e.Target)
	assert.Equal(t, AnnotReturn, e.Annotation)
	assert.False(t, ret.Unreachable)
}

func TestBuild_FlagsUnreachable(t *testing.T) {
	g := Build("int main() {\n    return 0;\n    int z = 1;\n}\n", model.LangCPP)

	dead := nodeByLabel(t, g, "int z = 1")
	assert.True(t, dead.Unreachable)
	assert.Equal(t, 0, g.InDegree(dead.ID))
	assert.Equal(t, EndID, edgesFrom(g, dead.ID)["-"].Target)
}

func TestBuild_ElseChain(t *testing.T) {
	src := "if (a > 1) {\n  x = 1;\n} else if (a > 0) {\n  x = 2;\n} else {\n  x = 3;\n}\ny = x;\n"
	g := Build(src, model.LangCPP)

	first := nodeByLabel(t, g, "a > 1")
	second := nodeByLabel(t, g, "a > 0")
	assert.Equal(t, second.ID, edgesFrom(g, first.ID)[model.CondFalse].Target)
	assert.Equal(t, nodeByLabel(t, g, "x = 3").ID, edgesFrom(g, second.ID)[model.CondFalse].Target)

	join := nodeByLabel(t, g, "y = x")
	assert.Equal(t, 3, g.InDegree(join.ID))
}

func TestBuild_Invariants(t *testing.T) {
	sources := []struct {
		lang model.Language
		src  string
	}{
		{model.LangCPP, ""},
		{model.LangCPP, "garbage ( { [ ;;"},
		{model.LangCPP, "if (x) {"},
		{model.LangCPP, "} else {\n x = 1;\n}\n}"},
		{model.LangCPP, "int main() {\n  int i = 0;\n  while (i < 5) {\n    if (i % 2) { i++; continue; }\n    i += 2;\n  }\n  return 0;\n}"},
		{model.LangCPP, "for (;;) ;\nbreak;\ncontinue;"},
		{model.LangPython, "if __name__ == \"__main__\":\n    main()\n"},
		{model.LangPython, "for i in range(3):\n    pass\nelse:\n    print(i)\n"},
		{model.LangPython, "while True:\n    if x:\n        break\n    elif y:\n        continue\n    else:\n        return\n"},
		{model.LangJavaScript, "function f() {\n  return 1;\n}\nlet a = f();\nif (a) console.log(a);\n"},
	}

	for _, tt := range sources {
		t.Run(string(tt.lang)+"/"+tt.src, func(t *testing.T) {
			g := Build(tt.src, tt.lang)

			ids := map[string]bool{}
			var starts, ends int
			for _, n := range g.Nodes {
				require.False(t, ids[n.ID], "duplicate id %s", n.ID)
				ids[n.ID] = true

				out := g.Outgoing(n.ID)
				switch n.Kind {
				case model.NodeStart:
					starts++
					assert.Equal(t, 0, g.InDegree(n.ID))
				case model.NodeEnd:
					ends++
					assert.Empty(t, out)
				case model.NodeDecision, model.NodeLoop:
					require.Len(t, out, 2, "node %s", n.Label)
					conds := []string{out[0].Condition, out[1].Condition}
					assert.ElementsMatch(t, []string{model.CondTrue, model.CondFalse}, conds)
				default:
					assert.NotEmpty(t, out, "node %s has no exit", n.Label)
				}
				if n.Kind != model.NodeStart && !n.Unreachable {
					assert.Positive(t, g.InDegree(n.ID), "node %s", n.Label)
				}
			}
			assert.Equal(t, 1, starts)
			assert.Equal(t, 1, ends)

			for _, e := range g.Edges {
				assert.True(t, ids[e.Source], "edge source %s", e.Source)
				assert.True(t, ids[e.Target], "edge target %s", e.Target)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 60)
	got := truncate(long)
	assert.Len(t, got, maxLabel)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "a = 1", truncate("a   =\t1"))
}

func TestDOT(t *testing.T) {
	g := Build("if (a) {\n  b = 1;\n}\n", model.LangCPP)
	out := DOT(g)

	assert.True(t, strings.HasPrefix(out, "digraph cfg {"))
	assert.Contains(t, out, `"start" -> "node-1";`)
	assert.Contains(t, out, "shape=diamond")
	assert.Contains(t, out, `[label="true"]`)
	assert.Contains(t, out, `[label="false"]`)
}
