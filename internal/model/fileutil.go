package model

import (
	"fmt"
	"strings"
)

// LineContext represents a source line with surrounding context
type LineContext struct {
	Before2    string // Two lines before the target
	Before1    string // Line before the target
	Target     string // The actual target line
	After1     string // Line after the target
	After2     string // Two lines after the target
	LineNumber int    // Line number of the target
	HasBefore2 bool   // Whether there's a second line before
	HasBefore1 bool   // Whether there's a line before
	HasAfter1  bool   // Whether there's a line after
	HasAfter2  bool   // Whether there's a second line after
	ErrorMsg   string // Error message if the line couldn't be resolved
}

// SourceLineContext returns the target line of an in-memory source with
// surrounding context.
func SourceLineContext(source string, lineNumber int) LineContext {
	result := LineContext{
		LineNumber: lineNumber,
	}

	lines := SplitLines(source)

	// Check if line number is valid
	if lineNumber < 1 || lineNumber > len(lines) {
		result.ErrorMsg = fmt.Sprintf("Line %d out of range (source has %d lines)", lineNumber, len(lines))
		return result
	}

	// Get the target line (convert to 0-indexed)
	result.Target = lines[lineNumber-1]

	if lineNumber > 2 {
		result.Before2 = lines[lineNumber-3]
		result.HasBefore2 = true
	}
	if lineNumber > 1 {
		result.Before1 = lines[lineNumber-2]
		result.HasBefore1 = true
	}

	if lineNumber < len(lines) {
		result.After1 = lines[lineNumber]
		result.HasAfter1 = true
	}
	if lineNumber+1 < len(lines) {
		result.After2 = lines[lineNumber+1]
		result.HasAfter2 = true
	}

	return result
}

// SplitLines splits source text into physical lines, accepting both \n and
// \r\n endings. A trailing newline does not produce an extra empty line.
func SplitLines(source string) []string {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.TrimSuffix(source, "\n")
	if source == "" {
		return nil
	}
	return strings.Split(source, "\n")
}
