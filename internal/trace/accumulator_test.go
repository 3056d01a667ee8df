package trace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracelens/internal/model"
)

func TestAccumulator_AddStep(t *testing.T) {
	acc := NewAccumulator()
	vars := map[string]model.Value{"i": int64(0), "xs": []model.Value{int64(1)}}

	acc.AddStep(3, vars, StepMeta{Rationale: "init"})
	vars["i"] = int64(1)
	vars["xs"].([]model.Value)[0] = int64(9)
	delete(vars, "xs")
	vars["s"] = "a"
	acc.AddStep(1, vars, StepMeta{BranchLabel: "i < 5"})

	tr := acc.Trace()
	require.Len(t, tr, 2)
	assert.Equal(t, 1, tr[0].Index)
	assert.Equal(t, 2, tr[1].Index)
	assert.Equal(t, 1, tr[1].SourceLine, "line numbers may go backwards")

	// the first snapshot is unaffected by later mutation of the caller's map
	assert.Equal(t, []model.Value{int64(1)}, tr[0].Variables["xs"])

	want := []model.VariableChange{
		{Name: "i", PreviousValue: int64(0), CurrentValue: int64(1), Kind: model.ChangeUpdated},
		{Name: "s", CurrentValue: "a", Kind: model.ChangeCreated},
		{Name: "xs", PreviousValue: []model.Value{int64(1)}, Kind: model.ChangeDeleted},
	}
	if diff := cmp.Diff(want, tr[1].VariableChanges); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	assert.NotNil(t, tr[1].CallStack)
}

func TestAccumulator_Output(t *testing.T) {
	acc := NewAccumulator()

	acc.Print("0 ", false)
	acc.Print("1 ", false)
	acc.AddStep(1, nil, StepMeta{})
	acc.Print("", true)
	acc.Print("a\nb", true)
	acc.AddStep(2, nil, StepMeta{})

	tr := acc.Trace()
	assert.Equal(t, []string{"0 1 "}, tr[0].AccumulatedOutput, "an open line is visible")
	assert.Equal(t, []string{"0 1 ", "a", "b"}, tr[1].AccumulatedOutput)
	assert.Equal(t, []string{"0 1 ", "a", "b"}, acc.Output())
}

func TestAccumulator_EmptyLinePrinted(t *testing.T) {
	acc := NewAccumulator()
	acc.Print("", true)
	acc.Print("x", true)

	assert.Equal(t, []string{"", "x"}, acc.Output())
}

func TestDiff_FloatAndIntAreEqual(t *testing.T) {
	changes := Diff(map[string]model.Value{"x": int64(2)}, map[string]model.Value{"x": 2.0})

	assert.Empty(t, changes)
}

func TestInputStream(t *testing.T) {
	words := NewInputStream("3 4\n  5\n", TokenWords)
	var got []string
	for {
		tok, ok := words.Next()
		if !ok {
			break
		}
		got = append(got, tok)
	}
	assert.Equal(t, []string{"3", "4", "5"}, got)
	_, ok := words.Next()
	assert.False(t, ok, "stays exhausted")

	lines := NewInputStream("3 4\r\nbob\n", TokenLines)
	assert.Equal(t, 2, lines.Remaining())
	first, _ := lines.Next()
	assert.Equal(t, "3 4", first)
	assert.Equal(t, []string{"bob"}, lines.Rest())
	assert.Equal(t, 0, lines.Remaining())
}
