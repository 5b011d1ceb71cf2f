package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/forgeworks/testforge/internal/pipeline"
	"github.com/forgeworks/testforge/internal/state"
)

// GateDisplay renders gate lifecycle events. On a TTY the running gate shows
// a spinner; piped output gets one line per event.
type GateDisplay struct {
	caps    TerminalCapabilities
	symbols Symbols
	spinner *spinner.Spinner
}

// NewGateDisplay creates a display for the detected terminal.
func NewGateDisplay(caps TerminalCapabilities) *GateDisplay {
	return &GateDisplay{caps: caps, symbols: SelectSymbols(caps)}
}

// StartGate begins displaying a running gate.
func (d *GateDisplay) StartGate(info pipeline.GateInfo) {
	msg := gateMessage(info, "Running")

	if d.caps.IsTTY {
		d.stopSpinner()
		d.spinner = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond)
		// Spinner goes to stderr so stdout stays parseable.
		d.spinner.Writer = os.Stderr
		d.spinner.Suffix = " " + msg
		d.spinner.Start()
		return
	}
	fmt.Println(msg)
}

// CompleteGate stops the spinner and prints the gate's outcome line.
func (d *GateDisplay) CompleteGate(info pipeline.GateInfo, res *state.GateResult) {
	d.stopSpinner()
	mark := d.symbols.mark(d.caps.SupportsColor)
	line := fmt.Sprintf("%s %s %s gate complete (score %d)",
		mark, counter(info), info.Gate, res.Validation.Score)
	if res.Status == state.GatePartial {
		line += " [partial]"
	}
	fmt.Println(line)
}

// FailGate stops the spinner and prints the failure with its first issue.
func (d *GateDisplay) FailGate(info pipeline.GateInfo, res *state.GateResult) {
	d.stopSpinner()
	mark := d.symbols.failMark(d.caps.SupportsColor)
	detail := ""
	if len(res.Validation.Issues) > 0 {
		detail = ": " + res.Validation.Issues[0]
	}
	fmt.Printf("%s %s %s gate failed%s\n", mark, counter(info), info.Gate, detail)
}

// StopSpinner clears any running spinner, for interleaving other output.
func (d *GateDisplay) StopSpinner() {
	d.stopSpinner()
}

func (d *GateDisplay) stopSpinner() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}

func counter(info pipeline.GateInfo) string {
	return fmt.Sprintf("[%d/%d]", info.Number, info.Total)
}

func gateMessage(info pipeline.GateInfo, action string) string {
	msg := fmt.Sprintf("%s %s %s gate", counter(info), action, info.Gate)
	if info.RunNumber > 1 {
		msg += fmt.Sprintf(" (run %d)", info.RunNumber)
	}
	return msg
}

// Compile-time interface compliance check.
var _ pipeline.Reporter = (*GateDisplay)(nil)
