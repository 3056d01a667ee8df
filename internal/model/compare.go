package model

// Discrepancy is a mismatch between a predicted and an actual trace for one
// variable at one aligned step.
type Discrepancy struct {
	StepIndex      int    `json:"stepIndex"`
	VariableName   string `json:"variableName"`
	PredictedValue Value  `json:"predictedValue"`
	ActualValue    Value  `json:"actualValue"`
	Explanation    string `json:"explanation"`
}

// Comparison wraps the discrepancy list with alignment bookkeeping. Steps
// present in only one trace are counted in Unaligned but never compared.
type Comparison struct {
	Discrepancies  []Discrepancy `json:"discrepancies"`
	PredictedSteps int           `json:"predictedSteps"`
	ActualSteps    int           `json:"actualSteps"`
	Unaligned      int           `json:"unaligned"`
}
