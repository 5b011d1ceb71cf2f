package cli

import (
	"fmt"

	apperrors "github.com/forgeworks/testforge/internal/errors"
)

// Exit codes for the testforge CLI. Stable values so CI jobs can branch on
// PARTIAL versus FAILED outcomes.
const (
	ExitSuccess           = 0
	ExitPipelineFailed    = 1
	ExitPartial           = 2
	ExitInvalidArguments  = 3
	ExitMissingDependency = 4
	ExitTimeout           = 5
)

// exitError carries an exit code through cobra's error return.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// NewExitError creates an error carrying the given exit code.
func NewExitError(code int) error {
	return &exitError{code: code}
}

// ExitCode extracts the exit code from an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if e, ok := err.(*exitError); ok {
		return e.code
	}
	return ExitPipelineFailed
}

// exitFor maps an error category to its exit code.
func exitFor(category apperrors.ErrorCategory) int {
	switch category {
	case apperrors.Argument, apperrors.Configuration:
		return ExitInvalidArguments
	case apperrors.Prerequisite:
		return ExitMissingDependency
	default:
		return ExitPipelineFailed
	}
}

// fail prints a structured error and returns its exit code.
func fail(err *apperrors.CLIError) error {
	apperrors.PrintError(err)
	return NewExitError(exitFor(err.Category))
}
