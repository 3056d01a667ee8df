// Package compare aligns a predicted trace against an actual one and reports
// every variable whose value differs.
package compare

import (
	"fmt"
	"sort"

	"tracelens/internal/model"
)

// Compare reports the discrepancies between two traces. Steps are aligned
// by position; a step present in only one trace is not compared.
// StepIndex is 1-based, matching Step.Index.
func Compare(predicted, actual model.Trace) []model.Discrepancy {
	out := []model.Discrepancy{}
	n := min(len(predicted), len(actual))
	for i := 0; i < n; i++ {
		out = append(out, compareStep(i+1, predicted[i].Variables, actual[i].Variables)...)
	}
	return out
}

// Summarize compares two traces and records how many steps could not be
// aligned.
func Summarize(predicted, actual model.Trace) model.Comparison {
	unaligned := len(predicted) - len(actual)
	if unaligned < 0 {
		unaligned = -unaligned
	}
	return model.Comparison{
		Discrepancies:  Compare(predicted, actual),
		PredictedSteps: len(predicted),
		ActualSteps:    len(actual),
		Unaligned:      unaligned,
	}
}

func compareStep(index int, predicted, actual map[string]model.Value) []model.Discrepancy {
	var out []model.Discrepancy
	for _, name := range unionKeys(predicted, actual) {
		pv, inPredicted := predicted[name]
		av, inActual := actual[name]
		if inPredicted && inActual && model.ValuesEqual(pv, av) {
			continue
		}
		out = append(out, model.Discrepancy{
			StepIndex:      index,
			VariableName:   name,
			PredictedValue: pv,
			ActualValue:    av,
			Explanation:    explain(index, name, pv, av, inPredicted, inActual),
		})
	}
	return out
}

func unionKeys(a, b map[string]model.Value) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var keys []string
	for _, m := range []map[string]model.Value{a, b} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func explain(index int, name string, pv, av model.Value, inPredicted, inActual bool) string {
	switch {
	case !inActual:
		return fmt.Sprintf("step %d: you predicted %s = %s, but %s is not defined at this point",
			index, name, model.FormatValue(pv), name)
	case !inPredicted:
		return fmt.Sprintf("step %d: %s = %s at this point, but your prediction does not include it",
			index, name, model.FormatValue(av))
	}
	return fmt.Sprintf("step %d: you predicted %s = %s, but it is actually %s",
		index, name, model.FormatValue(pv), model.FormatValue(av))
}
