// Package progress renders gate-by-gate pipeline progress on the terminal,
// with a spinner on TTYs and plain line output when piped.
package progress

import (
	"os"

	"golang.org/x/term"
)

// TerminalCapabilities describes the detected output terminal.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	// Width is the terminal width in columns, 0 when unknown.
	Width int
}

// Symbols is the character set used for gate status marks.
type Symbols struct {
	Checkmark string
	Failure   string
	// SpinnerSet indexes spinner.CharSets.
	SpinnerSet int
}

// DetectTerminalCapabilities probes stdout and the environment.
func DetectTerminalCapabilities() TerminalCapabilities {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	noColor := os.Getenv("NO_COLOR") != ""
	forceASCII := os.Getenv("TESTFORGE_ASCII") == "1"

	width := 0
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}

	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && !noColor,
		SupportsUnicode: isTTY && !forceASCII,
		Width:           width,
	}
}

// SelectSymbols picks the symbol set the terminal can render.
func SelectSymbols(caps TerminalCapabilities) Symbols {
	if caps.SupportsUnicode {
		return Symbols{Checkmark: "✓", Failure: "✗", SpinnerSet: 14}
	}
	return Symbols{Checkmark: "[OK]", Failure: "[FAIL]", SpinnerSet: 9}
}

func (s Symbols) mark(supportsColor bool) string {
	if supportsColor && s.Checkmark == "✓" {
		return "\033[32m" + s.Checkmark + "\033[0m"
	}
	return s.Checkmark
}

func (s Symbols) failMark(supportsColor bool) string {
	if supportsColor && s.Failure == "✗" {
		return "\033[31m" + s.Failure + "\033[0m"
	}
	return s.Failure
}
