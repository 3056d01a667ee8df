package model

// ChangeKind classifies a variable change between two consecutive steps.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// VariableChange records one binding difference against the previous step.
type VariableChange struct {
	Name          string     `json:"name" yaml:"name"`
	PreviousValue Value      `json:"previousValue" yaml:"previousValue"`
	CurrentValue  Value      `json:"currentValue" yaml:"currentValue"`
	Kind          ChangeKind `json:"kind" yaml:"kind"`
}

// StackFrame is one entry of the simulated call stack.
type StackFrame struct {
	FunctionName string           `json:"functionName" yaml:"functionName"`
	Variables    map[string]Value `json:"variables" yaml:"variables"`
	SourceLine   int              `json:"sourceLine" yaml:"sourceLine"`
}

// Step is one recognized-statement execution. Steps are immutable once
// appended to a trace.
type Step struct {
	Index             int              `json:"index" yaml:"index"`
	SourceLine        int              `json:"sourceLine" yaml:"sourceLine"`
	LiteralText       string           `json:"literalText" yaml:"literalText"`
	Variables         map[string]Value `json:"variables" yaml:"variables"`
	VariableChanges   []VariableChange `json:"variableChanges" yaml:"variableChanges"`
	AccumulatedOutput []string         `json:"accumulatedOutput" yaml:"accumulatedOutput"`
	CallStack         []StackFrame     `json:"callStack" yaml:"callStack"`
	BranchLabel       string           `json:"branchLabel,omitempty" yaml:"branchLabel,omitempty"`
	Rationale         string           `json:"rationale,omitempty" yaml:"rationale,omitempty"`
}

// Trace is the ordered list of steps of one simulated run, indexed from 1.
type Trace []Step

// Final returns the last step, or a zero Step for an empty trace.
func (t Trace) Final() Step {
	if len(t) == 0 {
		return Step{}
	}
	return t[len(t)-1]
}

// SimulationResult is the complete outcome of one simulator invocation.
type SimulationResult struct {
	Language       Language         `json:"language"`
	Success        bool             `json:"success"`
	Error          string           `json:"error,omitempty"`
	Trace          Trace            `json:"trace"`
	Output         []string         `json:"output"`
	FinalVariables map[string]Value `json:"finalVariables"`
	Truncated      bool             `json:"truncated"` // iteration cap reached
	Executed       int              `json:"executed"`  // statements executed
}
