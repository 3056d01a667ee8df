package compare

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/internal/model"
	"tracelens/internal/sim"
)

func simulated(t *testing.T) model.Trace {
	t.Helper()
	res := sim.Simulate("int i = 0, sum = 0;\nwhile (i < 3) {\n  sum += i;\n  i++;\n}\n", model.LangCPP, "")
	require.True(t, res.Success)
	require.NotEmpty(t, res.Trace)
	return res.Trace
}

func copyTrace(t model.Trace) model.Trace {
	out := make(model.Trace, len(t))
	for i, s := range t {
		s.Variables = model.CloneVars(s.Variables)
		out[i] = s
	}
	return out
}

func TestCompare_IdenticalTraces(t *testing.T) {
	actual := simulated(t)

	got := Compare(copyTrace(actual), actual)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCompare_OneMutation(t *testing.T) {
	actual := simulated(t)
	predicted := copyTrace(actual)
	at := len(predicted) / 2
	predicted[at].Variables["sum"] = int64(99)

	got := Compare(predicted, actual)
	require.Len(t, got, 1)
	assert.Equal(t, at+1, got[0].StepIndex)
	assert.Equal(t, "sum", got[0].VariableName)
	assert.Equal(t, int64(99), got[0].PredictedValue)
	assert.Contains(t, got[0].Explanation, "you predicted sum = 99")
}

func TestCompare_MissingAndExtraNames(t *testing.T) {
	predicted := model.Trace{{Variables: map[string]model.Value{"a": int64(1), "b": int64(2)}}}
	actual := model.Trace{{Variables: map[string]model.Value{"b": 2.0, "c": "x"}}}

	got := Compare(predicted, actual)

	want := []model.Discrepancy{
		{StepIndex: 1, VariableName: "a", PredictedValue: int64(1),
			Explanation: "step 1: you predicted a = 1, but a is not defined at this point"},
		{StepIndex: 1, VariableName: "c", ActualValue: "x",
			Explanation: `step 1: c = "x" at this point, but your prediction does not include it`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Compare mismatch (-want +got):\n%s", diff)
	}
}

func TestCompare_OrderIndependentLists(t *testing.T) {
	predicted := model.Trace{{Variables: map[string]model.Value{"xs": []model.Value{1.0, 2.0}}}}
	actual := model.Trace{{Variables: map[string]model.Value{"xs": []model.Value{int64(1), int64(2)}}}}

	assert.Empty(t, Compare(predicted, actual))
}

func TestSummarize_CountsUnalignedSteps(t *testing.T) {
	actual := simulated(t)
	predicted := copyTrace(actual)[:len(actual)-2]

	sum := Summarize(predicted, actual)
	assert.Empty(t, sum.Discrepancies)
	assert.Equal(t, 2, sum.Unaligned)
	assert.Equal(t, len(actual), sum.ActualSteps)
	assert.Equal(t, len(actual)-2, sum.PredictedSteps)
}

func TestLoadTrace(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "predicted.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
- sourceLine: 1
  variables:
    i: 0
- sourceLine: 2
  variables:
    i: 1
    xs: [1, 2]
`), 0o644))

	tr, err := LoadTrace(yamlPath)
	require.NoError(t, err)
	require.Len(t, tr, 2)
	assert.Equal(t, 2, tr[1].Index)
	assert.Empty(t, Compare(tr, model.Trace{
		{Variables: map[string]model.Value{"i": int64(0)}},
		{Variables: map[string]model.Value{"i": int64(1), "xs": []model.Value{int64(1), int64(2)}}},
	}))

	jsonPath := filepath.Join(dir, "result.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"success": true, "trace": [{"index": 1, "variables": {"n": 3}}]}`), 0o644))
	tr, err = LoadTrace(jsonPath)
	require.NoError(t, err)
	require.Len(t, tr, 1)
	assert.Equal(t, 3.0, tr[0].Variables["n"])

	emptyPath := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(emptyPath, []byte(`[]`), 0o644))
	_, err = LoadTrace(emptyPath)
	assert.True(t, errors.Is(err, ErrEmptyTrace))

	_, err = LoadTrace(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
