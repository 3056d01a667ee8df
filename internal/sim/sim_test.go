package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/internal/model"
)

const cppSumLoop = `#include <iostream>
using namespace std;

int main() {
    int i = 0;
    int sum = 0;
    while (i < 5) {
        sum += i;
        i++;
    }
    cout << "Sum: " << sum << endl;
    return 0;
}
`

func TestSimulate_CPPWhileLoop(t *testing.T) {
	res := NewCPP().Simulate(cppSumLoop, "")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, int64(5), res.FinalVariables["i"])
	assert.Equal(t, int64(10), res.FinalVariables["sum"])
	assert.Equal(t, []string{"Sum: 10"}, res.Output)
	assert.False(t, res.Truncated)

	var guards int
	for _, s := range res.Trace {
		if s.SourceLine == 7 {
			guards++
		}
	}
	assert.Equal(t, 5, guards, "one step per true loop guard, none for the final false check")
}

func TestSimulate_LessOrEqualRunsOneMore(t *testing.T) {
	src := "int i = 0; int sum = 0; while (i <= 5) { sum += i; i++; }"
	res := Simulate(src, model.LangCPP, "")

	require.True(t, res.Success)
	assert.Equal(t, int64(6), res.FinalVariables["i"])
	assert.Equal(t, int64(15), res.FinalVariables["sum"])
}

func TestSimulate_SingleLineProgram(t *testing.T) {
	res := Simulate("int sum = 0; int i = 0; while (i < 5) { sum += i; i++; }", model.LangCPP, "")

	assert.Equal(t, int64(5), res.FinalVariables["i"])
	assert.Equal(t, int64(10), res.FinalVariables["sum"])
	for _, s := range res.Trace {
		assert.Equal(t, 1, s.SourceLine)
	}
}

func TestSimulate_PostDecrementGuard(t *testing.T) {
	res := Simulate("int x = 3;\nint c = 0;\nwhile (x--) {\n  c++;\n}\n", model.LangCPP, "")

	assert.Equal(t, int64(3), res.FinalVariables["c"])
	assert.Equal(t, int64(-1), res.FinalVariables["x"], "the failing check still decrements")
}

func TestSimulate_IfElse(t *testing.T) {
	src := `int a = 5;
if (a > 3) {
    cout << "big" << endl;
} else {
    cout << "small" << endl;
}
`
	res := Simulate(src, model.LangCPP, "")

	assert.Equal(t, []string{"big"}, res.Output)
	var branch model.Step
	for _, s := range res.Trace {
		if s.SourceLine == 2 {
			branch = s
		}
	}
	assert.Equal(t, "a > 3 [5 > 3]", branch.BranchLabel)
}

func TestSimulate_ElseIfChain(t *testing.T) {
	src := `x = 7
if x < 5:
    kind = "small"
elif x < 10:
    kind = "medium"
else:
    kind = "large"
print(kind)
`
	res := Simulate(src, model.LangPython, "")

	assert.Equal(t, "medium", res.FinalVariables["kind"])
	assert.Equal(t, []string{"medium"}, res.Output)
}

func TestSimulate_CinReadsTypedValues(t *testing.T) {
	src := "int a, b;\ncin >> a >> b;\ncout << a + b << endl;\n"
	res := Simulate(src, model.LangCPP, "3 4")

	require.True(t, res.Success)
	assert.Equal(t, []string{"7"}, res.Output)
}

func TestSimulate_InputExhausted(t *testing.T) {
	res := Simulate("x = int(input())\nprint(x)\n", model.LangPython, "")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "input exhausted")
	assert.Contains(t, res.Error, "line 1")
	require.Len(t, res.Trace, 1)
	assert.Contains(t, res.Trace[0].Rationale, "code analyzed")
}

func TestSimulate_InputExhaustedKeepsEarlierSteps(t *testing.T) {
	res := NewCPP().Simulate("int a = 1;\nint b;\ncin >> b;\ncout << a;\n", "")

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "line 3")
	assert.Contains(t, res.Error, "input exhausted")
	require.Len(t, res.Trace, 1)
	assert.Equal(t, 1, res.Trace[0].SourceLine)
	assert.Contains(t, res.Trace[0].Rationale, "a = 1")
	assert.Equal(t, int64(1), res.Trace[0].Variables["a"])
	assert.Empty(t, res.Output)
}

func TestSimulate_CompoundWithUnboundOperand(t *testing.T) {
	res := NewCPP().Simulate("int x = 1;\nx += y;\ncout << x;\n", "")

	require.True(t, res.Success, res.Error)
	require.Len(t, res.Trace, 2)
	assert.Equal(t, 1, res.Trace[0].SourceLine)
	assert.Equal(t, 3, res.Trace[1].SourceLine)
	assert.Equal(t, []string{"1"}, res.Output)
	assert.Equal(t, int64(1), res.FinalVariables["x"])
}

func TestSimulate_IntegerOverflow(t *testing.T) {
	res := NewPython().Simulate("x = 2 ** 64\ny = 10 ** 20\nz = 3\n", "")

	require.True(t, res.Success, res.Error)
	assert.NotContains(t, res.FinalVariables, "x")
	assert.NotContains(t, res.FinalVariables, "y")
	assert.Equal(t, int64(3), res.FinalVariables["z"])

	res = NewJavaScript().Simulate("let x = 2 ** 64;\n", "")
	assert.Equal(t, math.Pow(2, 64), res.FinalVariables["x"])
}

func TestSimulate_NeverEmpty(t *testing.T) {
	for _, lang := range model.Languages {
		t.Run(string(lang), func(t *testing.T) {
			res := Simulate("", lang, "")
			require.Len(t, res.Trace, 1)
			assert.True(t, res.Success)
			assert.Equal(t, 1, res.Trace[0].Index)
		})
	}
}

func TestSimulate_PythonRangeLoop(t *testing.T) {
	src := `n = int(input())
total = 0
for i in range(n):
    total += i
print(total)
`
	res := Simulate(src, model.LangPython, "4\n")

	require.True(t, res.Success)
	assert.Equal(t, int64(6), res.FinalVariables["total"])
	assert.Equal(t, int64(3), res.FinalVariables["i"])
	assert.Equal(t, []string{"6"}, res.Output)
}

func TestSimulate_JavaScriptForLoop(t *testing.T) {
	src := "let count = 0;\nfor (let i = 0; i < 3; i++) {\n  count += 2;\n}\nconsole.log(`count is ${count}`);\n"
	res := Simulate(src, model.LangJavaScript, "")

	assert.Equal(t, int64(6), res.FinalVariables["count"])
	assert.Equal(t, int64(3), res.FinalVariables["i"])
	assert.Equal(t, []string{"count is 6"}, res.Output)
}

func TestSimulate_JavaScriptReadsLines(t *testing.T) {
	src := "const [a, b] = readline().split(\" \").map(Number);\nconst name = readline();\nconsole.log(name, a * b);\n"
	res := Simulate(src, model.LangJavaScript, "3 4\nbob\n")

	require.True(t, res.Success, res.Error)
	assert.Equal(t, []string{"bob 12"}, res.Output)
}

func TestSimulate_TupleSwap(t *testing.T) {
	res := Simulate("a, b = 1, 2\na, b = b, a\n", model.LangPython, "")

	assert.Equal(t, int64(2), res.FinalVariables["a"])
	assert.Equal(t, int64(1), res.FinalVariables["b"])
}

func TestSimulate_VariableChanges(t *testing.T) {
	res := Simulate("x = 1\nx = 2\ndel x\n", model.LangPython, "")
	require.Len(t, res.Trace, 3)

	first := res.Trace[0].VariableChanges
	require.Len(t, first, 1)
	assert.Equal(t, model.ChangeCreated, first[0].Kind)

	second := res.Trace[1].VariableChanges
	require.Len(t, second, 1)
	assert.Equal(t, model.ChangeUpdated, second[0].Kind)
	assert.Equal(t, int64(1), second[0].PreviousValue)
	assert.Equal(t, int64(2), second[0].CurrentValue)

	third := res.Trace[2].VariableChanges
	require.Len(t, third, 1)
	assert.Equal(t, model.ChangeDeleted, third[0].Kind)
}

func TestSimulate_UnknownValueLeavesStateUnchanged(t *testing.T) {
	res := Simulate("y = 1\ny = mystery(2)\n", model.LangPython, "")

	require.Len(t, res.Trace, 2)
	assert.Contains(t, res.Trace[1].Rationale, "could not evaluate")
	assert.Empty(t, res.Trace[1].VariableChanges)
	assert.Equal(t, int64(1), res.FinalVariables["y"])
}

func TestSimulate_KnownFunctions(t *testing.T) {
	src := `def factorial(n):
    if n <= 1:
        return 1
    return n * factorial(n - 1)

x = factorial(5)
g = gcd(12, 18)
`
	res := Simulate(src, model.LangPython, "")

	assert.Equal(t, int64(120), res.FinalVariables["x"])
	assert.Equal(t, int64(6), res.FinalVariables["g"])
}

func TestSimulate_InlinesProcedures(t *testing.T) {
	src := `def main():
    x = 2
    print(x * 3)

if __name__ == "__main__":
    main()
`
	res := Simulate(src, model.LangPython, "")

	require.True(t, res.Success)
	assert.Equal(t, []string{"6"}, res.Output)
	var deepest []model.StackFrame
	for _, s := range res.Trace {
		if len(s.CallStack) > len(deepest) {
			deepest = s.CallStack
		}
	}
	require.Len(t, deepest, 2)
	assert.Equal(t, "<module>", deepest[0].FunctionName)
	assert.Equal(t, "main", deepest[1].FunctionName)
	assert.NotContains(t, res.FinalVariables, "x", "locals are discarded on return")
}

func TestSimulate_IterationCap(t *testing.T) {
	res := Simulate("int i = 0;\nwhile (true) {\n  i++;\n}\n", model.LangCPP, "", WithIterationCap(50))

	assert.True(t, res.Truncated)
	assert.True(t, res.Success, "truncation is not an error")
	assert.LessOrEqual(t, res.Executed, 81)
}

func TestSimulate_BreakAndContinue(t *testing.T) {
	src := `total = 0
for i in range(10):
    if i % 2 == 0:
        continue
    if i > 6:
        break
    total += i
`
	res := Simulate(src, model.LangPython, "")

	assert.Equal(t, int64(1+3+5), res.FinalVariables["total"])
	assert.Equal(t, int64(7), res.FinalVariables["i"])
}

func TestSimulate_VectorOperations(t *testing.T) {
	src := `vector<int> v;
v.push_back(4);
v.push_back(7);
int a[3] = {1};
a[2] = v[1];
`
	res := Simulate(src, model.LangCPP, "")

	assert.Equal(t, []model.Value{int64(4), int64(7)}, res.FinalVariables["v"])
	assert.Equal(t, []model.Value{int64(1), int64(0), int64(7)}, res.FinalVariables["a"])
}

func TestSimulate_TypedCoercion(t *testing.T) {
	res := Simulate("int half = 7 / 2.0;\ndouble d = 3;\n", model.LangCPP, "")

	assert.Equal(t, int64(3), res.FinalVariables["half"])
	assert.Equal(t, 3.0, res.FinalVariables["d"])
}

func TestSimulate_Printf(t *testing.T) {
	res := Simulate("int n = 3;\nprintf(\"n=%d avg=%.1f\\n\", n, n / 2.0);\n", model.LangCPP, "")

	assert.Equal(t, []string{"n=3 avg=1.5"}, res.Output)
}

func TestSimulate_PartialOutputLines(t *testing.T) {
	src := "for (int i = 0; i < 3; i++) {\n  cout << i << \" \";\n}\ncout << endl;\n"
	res := Simulate(src, model.LangCPP, "")

	assert.Equal(t, []string{"0 1 2 "}, res.Output)
}
