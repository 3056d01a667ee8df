// Package execute runs programs for real, either through a remote execution
// service or a local interpreter, and reconciles the result with the
// simulator's prediction.
package execute

import (
	"context"
	"errors"

	"tracelens/internal/model"
)

var (
	// ErrUnavailable reports that the executor could not be reached or
	// did not produce a result.
	ErrUnavailable = errors.New("executor unavailable")
	// ErrUnsupportedLanguage reports a language the executor cannot run.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// Request is one program to run.
type Request struct {
	Code     string         `json:"code"`
	Language model.Language `json:"language"`
	Stdin    string         `json:"stdin,omitempty"`
}

// Result is the outcome of a real run. Success is false when the program
// itself failed; transport failures are returned as errors instead.
type Result struct {
	Success     bool     `json:"success"`
	OutputLines []string `json:"outputLines"`
	Error       string   `json:"error,omitempty"`
}

// Executor runs a program and reports its output.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}
