package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/internal/execute"
	"tracelens/internal/model"
	"tracelens/internal/sim"
)

const pyRange = `n = int(input())
total = 0
for i in range(n):
    total += i
print(total)
`

func TestAnalyze(t *testing.T) {
	a := NewAnalyzer()

	res, err := a.Analyze(context.Background(), Request{Source: pyRange, Stdin: "4\n"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, model.LangPython, res.Language, "language is detected")
	assert.Equal(t, execute.SourceSimulated, res.Outcome.Source)
	assert.True(t, res.Outcome.Success)
	assert.Equal(t, []string{"6"}, res.Outcome.Output)
	assert.NotEmpty(t, res.Simulation().Trace)
	assert.Nil(t, res.Comparison)

	assert.Equal(t, model.ClassLinear, res.Complexity.EstimatedTimeClass)
	assert.Equal(t, 1, res.Complexity.LoopNestingDepth)
	assert.Equal(t, len(res.Simulation().Trace), res.Complexity.ObservedSteps)

	_, ok := res.Graph.Node("start")
	assert.True(t, ok)
	var loops int
	for _, n := range res.Graph.Nodes {
		if n.Kind == model.NodeLoop {
			loops++
		}
	}
	assert.Equal(t, 1, loops)
}

func TestAnalyze_RunIDsAreUnique(t *testing.T) {
	a := NewAnalyzer()
	req := Request{Source: "x = 1\n", Language: model.LangPython}

	r1, err := a.Analyze(context.Background(), req)
	require.NoError(t, err)
	r2, err := a.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAnalyzer().Analyze(ctx, Request{Source: pyRange, Stdin: "4"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_ComparesPrediction(t *testing.T) {
	a := NewAnalyzer()
	first, err := a.Analyze(context.Background(), Request{Source: pyRange, Stdin: "4"})
	require.NoError(t, err)

	predicted := make(model.Trace, len(first.Simulation().Trace))
	for i, st := range first.Simulation().Trace {
		st.Variables = model.CloneVars(st.Variables)
		predicted[i] = st
	}
	predicted[1].Variables["total"] = int64(99)

	res, err := a.Analyze(context.Background(), Request{Source: pyRange, Stdin: "4", Predicted: predicted})
	require.NoError(t, err)
	require.NotNil(t, res.Comparison)
	require.Len(t, res.Comparison.Discrepancies, 1)

	d := res.Comparison.Discrepancies[0]
	assert.Equal(t, 2, d.StepIndex)
	assert.Equal(t, "total", d.VariableName)
	assert.Zero(t, res.Comparison.Unaligned)
}

func TestAnalyze_UsesRunnerOptions(t *testing.T) {
	runner := execute.NewRunner(nil, execute.WithSimOptions(sim.WithIterationCap(10)))
	a := NewAnalyzer(WithRunner(runner))

	res, err := a.Analyze(context.Background(), Request{Source: "i = 0\nwhile True:\n    i += 1\n", Language: model.LangPython})
	require.NoError(t, err)
	assert.True(t, res.Simulation().Truncated)
}

func TestGenerateReport(t *testing.T) {
	res, err := NewAnalyzer().Analyze(context.Background(), Request{Source: pyRange, Stdin: "4"})
	require.NoError(t, err)

	report := GenerateReport(res, false)
	for _, want := range []string{
		"TRACELENS REPORT",
		"Language:   python",
		"OUTPUT",
		"TRACE (",
		"total = 0",
		"COMPLEXITY (estimate)",
		"Time:        O(n)",
		"CONTROL FLOW",
	} {
		assert.Contains(t, report, want)
	}
	assert.NotContains(t, report, "PREDICTION CHECK")
	assert.NotContains(t, report, "vars:")

	assert.Contains(t, GenerateReport(res, true), "vars: ")
}

func TestGenerateReport_Failure(t *testing.T) {
	res, err := NewAnalyzer().Analyze(context.Background(), Request{
		Source:   "a = int(input())\nb = int(input())\nprint(a + b)\n",
		Language: model.LangPython,
		Stdin:    "1",
	})
	require.NoError(t, err)
	require.False(t, res.Outcome.Success)

	report := GenerateReport(res, false)
	assert.Contains(t, report, "Status:     failed: ")
	assert.Contains(t, report, "Stopped near:")
	assert.Contains(t, report, " > ")
}
