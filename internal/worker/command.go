package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// CommandInvoker runs workers as external processes. The request is written
// as JSON to the worker's stdin and the response is read from its stdout.
// Worker stderr is passed through for operator visibility.
type CommandInvoker struct {
	// WorkersDir is the directory holding worker binaries named after their
	// worker name (e.g. workers/testcase-designer).
	WorkersDir string
	// Commands overrides the binary per worker name; values may include
	// arguments and are run through the shell.
	Commands map[string]string
	// Stderr receives worker stderr output; defaults to os.Stderr.
	Stderr *os.File
}

// NewCommandInvoker creates an invoker resolving workers under workersDir.
func NewCommandInvoker(workersDir string, commands map[string]string) *CommandInvoker {
	return &CommandInvoker{WorkersDir: workersDir, Commands: commands}
}

// Invoke runs the worker and blocks until it responds or ctx expires.
// The context must carry the gate's deadline; on expiry a TimeoutError is
// returned.
func (c *CommandInvoker) Invoke(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &InvocationError{Worker: req.Worker, Err: fmt.Errorf("marshal request: %w", err)}
	}

	cmd, err := c.buildCommand(ctx, req.Worker)
	if err != nil {
		return nil, err
	}

	var stdout bytes.Buffer
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = c.stderr()
	cmd.Env = os.Environ()

	runErr := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		timeout := time.Duration(0)
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline).Abs().Round(time.Second)
		}
		return nil, NewTimeoutError(timeout, req.Worker)
	}
	if runErr != nil {
		// A worker may exit non-zero while still reporting a structured
		// failure; prefer the structured response when it parses.
		if resp, parseErr := parseResponse(req.Worker, stdout.Bytes()); parseErr == nil {
			return resp, nil
		}
		return nil, &InvocationError{Worker: req.Worker, Err: runErr}
	}

	return parseResponse(req.Worker, stdout.Bytes())
}

func (c *CommandInvoker) stderr() *os.File {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

// buildCommand resolves the worker binary or command override.
func (c *CommandInvoker) buildCommand(ctx context.Context, workerName string) (*exec.Cmd, error) {
	if override, ok := c.Commands[workerName]; ok && override != "" {
		return exec.CommandContext(ctx, "sh", "-c", override), nil
	}
	bin := filepath.Join(c.WorkersDir, workerName)
	if _, err := os.Stat(bin); err != nil {
		return nil, &InvocationError{Worker: workerName, Err: fmt.Errorf("worker binary not found at %s", bin)}
	}
	return exec.CommandContext(ctx, bin), nil
}

func parseResponse(workerName string, data []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &MalformedResponseError{Worker: workerName, Reason: "empty response"}
	}
	var resp Response
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, &MalformedResponseError{Worker: workerName, Reason: err.Error()}
	}
	if resp.Status != StatusOK && resp.Status != StatusFailed {
		return nil, &MalformedResponseError{Worker: workerName, Reason: fmt.Sprintf("unknown status %q", resp.Status)}
	}
	return &resp, nil
}

// Compile-time interface compliance check.
var _ Invoker = (*CommandInvoker)(nil)
