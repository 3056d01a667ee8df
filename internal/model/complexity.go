package model

import "fmt"

// Class is an asymptotic complexity class in big-O notation.
type Class string

const (
	ClassConstant    Class = "O(1)"
	ClassLogarithmic Class = "O(log n)"
	ClassLinear      Class = "O(n)"
	ClassQuadratic   Class = "O(n^2)"
	ClassCubic       Class = "O(n^3)"
	ClassExponential Class = "O(2^n)"
)

// Polynomial returns the class for a loop nest of the given depth.
func Polynomial(degree int) Class {
	switch {
	case degree <= 0:
		return ClassConstant
	case degree == 1:
		return ClassLinear
	case degree == 2:
		return ClassQuadratic
	case degree == 3:
		return ClassCubic
	}
	return Class(fmt.Sprintf("O(n^%d)", degree))
}

// Name is the plain-English label of the class.
func (c Class) Name() string {
	switch c {
	case ClassConstant:
		return "constant"
	case ClassLogarithmic:
		return "logarithmic"
	case ClassLinear:
		return "linear"
	case ClassQuadratic:
		return "quadratic"
	case ClassCubic:
		return "cubic"
	case ClassExponential:
		return "exponential"
	}
	return "polynomial"
}

// ComplexitySummary is a lexical estimate, not a proof.
type ComplexitySummary struct {
	LoopNestingDepth     int      `json:"loopNestingDepth"`
	HasRecursion         bool     `json:"hasRecursion"`
	CyclomaticComplexity int      `json:"cyclomaticComplexity"`
	EstimatedTimeClass   Class    `json:"estimatedTimeClass"`
	EstimatedSpaceClass  Class    `json:"estimatedSpaceClass"`
	ObservedSteps        int      `json:"observedSteps,omitempty"`
	Notes                []string `json:"notes,omitempty"`
}
