package errors

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// FormatError renders a CLIError for terminal display with color. Returns an
// empty string for a nil error.
func FormatError(err *CLIError) string {
	if err == nil {
		return ""
	}
	header := color.New(color.FgRed, color.Bold).Sprint(err.Category.String())
	return formatWith(err, header)
}

// FormatErrorPlain renders a CLIError without any color codes, for logs and
// non-terminal output.
func FormatErrorPlain(err *CLIError) string {
	if err == nil {
		return ""
	}
	return formatWith(err, err.Category.String())
}

func formatWith(err *CLIError, header string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", header, err.Message)
	if err.Usage != "" {
		fmt.Fprintf(&b, "\nUsage:\n  %s\n", err.Usage)
	}
	if len(err.Remediation) > 0 {
		b.WriteString("\nTo fix this:\n")
		for _, step := range err.Remediation {
			fmt.Fprintf(&b, "  - %s\n", step)
		}
	}
	return b.String()
}

// PrintError writes the formatted error to stderr. Nil errors print nothing.
func PrintError(err *CLIError) {
	FprintError(os.Stderr, err)
}

// FprintError writes the formatted error to w. Nil errors write nothing.
func FprintError(w io.Writer, err *CLIError) {
	if err == nil {
		return
	}
	fmt.Fprint(w, FormatError(err))
}

// FormatSimpleError renders a non-CLI error under a category header.
func FormatSimpleError(err error, category ErrorCategory) string {
	if err == nil {
		return ""
	}
	return FormatError(&CLIError{Category: category, Message: err.Error()})
}
