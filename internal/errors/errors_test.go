package errors

import (
	"fmt"
	"testing"
)

func TestErrorCategoryString(t *testing.T) {
	tests := map[string]struct {
		category ErrorCategory
		expected string
	}{
		"Argument":      {category: Argument, expected: "Argument Error"},
		"Configuration": {category: Configuration, expected: "Configuration Error"},
		"Prerequisite":  {category: Prerequisite, expected: "Prerequisite Error"},
		"Runtime":       {category: Runtime, expected: "Runtime Error"},
		"Unknown":       {category: ErrorCategory(99), expected: "Error"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			result := test.category.String()
			if result != test.expected {
				t.Errorf("Expected %q, got %q", test.expected, result)
			}
		})
	}
}

func TestCLIErrorError(t *testing.T) {
	err := &CLIError{Category: Argument, Message: "test error message"}

	if err.Error() != "test error message" {
		t.Errorf("Expected 'test error message', got %q", err.Error())
	}
}

func TestConstructors(t *testing.T) {
	tests := map[string]struct {
		err  *CLIError
		want ErrorCategory
	}{
		"argument":     {err: NewArgumentError("bad arg", "fix it"), want: Argument},
		"config":       {err: NewConfigError("bad config"), want: Configuration},
		"prerequisite": {err: NewPrerequisiteError("missing file"), want: Prerequisite},
		"runtime":      {err: NewRuntimeError("failed"), want: Runtime},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if test.err.Category != test.want {
				t.Errorf("Expected category %v, got %v", test.want, test.err.Category)
			}
		})
	}
}

func TestNewArgumentErrorWithUsage(t *testing.T) {
	err := NewArgumentErrorWithUsage("invalid arg", "testforge run <request.json>", "use correct syntax")

	if err.Category != Argument {
		t.Errorf("Expected Argument category, got %v", err.Category)
	}
	if err.Usage != "testforge run <request.json>" {
		t.Errorf("Expected usage to be preserved, got %q", err.Usage)
	}
	if len(err.Remediation) != 1 {
		t.Errorf("Expected 1 remediation step, got %d", len(err.Remediation))
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()
		if Wrap(nil, Runtime) != nil {
			t.Error("Expected nil for nil input")
		}
	})

	t.Run("wraps error with category", func(t *testing.T) {
		t.Parallel()
		result := Wrap(fmt.Errorf("original error"), Runtime, "fix it")

		if result.Category != Runtime {
			t.Errorf("Expected Runtime category, got %v", result.Category)
		}
		if len(result.Remediation) != 1 {
			t.Errorf("Expected 1 remediation step, got %d", len(result.Remediation))
		}
	})
}

func TestWrapWithMessage(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()
		if WrapWithMessage(nil, Runtime, "wrapper") != nil {
			t.Error("Expected nil for nil input")
		}
	})

	t.Run("wraps error with message", func(t *testing.T) {
		t.Parallel()
		result := WrapWithMessage(fmt.Errorf("inner"), Runtime, "outer")

		if result.Message != "outer: inner" {
			t.Errorf("Expected 'outer: inner', got %q", result.Message)
		}
	})
}

func TestIsCLIError(t *testing.T) {
	if !IsCLIError(NewArgumentError("test")) {
		t.Error("Expected true for CLIError")
	}
	if IsCLIError(&testError{}) {
		t.Error("Expected false for non-CLIError")
	}
}

func TestAsCLIError(t *testing.T) {
	original := NewArgumentError("test")
	if AsCLIError(original) != original {
		t.Error("Expected same CLIError")
	}
	if AsCLIError(&testError{}) != nil {
		t.Error("Expected nil for non-CLIError")
	}
}

// testError is a helper for testing non-CLIError errors
type testError struct{}

func (e *testError) Error() string { return "test error" }
