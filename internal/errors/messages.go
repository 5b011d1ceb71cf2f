package errors

import "fmt"

// MissingRequestFile is returned when the run command gets no request path.
func MissingRequestFile() *CLIError {
	return NewArgumentErrorWithUsage(
		"no request file provided",
		"testforge run <request.json>",
		"pass the path to a pipeline request file",
		"run 'testforge run --help' for the request format",
	)
}

// RequestFileNotFound is returned when the request path does not exist.
func RequestFileNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("request file not found: %s", path),
		"check the path for typos",
		"create the request file first",
	)
}

// RequestParseError is returned when the request file is not valid JSON.
func RequestParseError(path string, err error) *CLIError {
	return &CLIError{
		Category: Argument,
		Message:  fmt.Sprintf("cannot parse request file %s: %v", path, err),
		Remediation: []string{
			"check the file is valid JSON",
			"compare against the documented request format",
		},
	}
}

// NotAPipelineRequest is returned when the input parses but lacks the fields
// that identify a pipeline request.
func NotAPipelineRequest(path string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("%s is not a pipeline request", path),
		"a pipeline request needs at least a url and a feature or user story",
	)
}

// InvalidRequest wraps a request validation failure.
func InvalidRequest(err error) *CLIError {
	return WrapWithMessage(err, Argument, "invalid pipeline request",
		"fix the listed fields and resubmit")
}

// WorkersDirNotFound is returned when the configured workers directory is missing.
func WorkersDirNotFound(path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("workers directory not found: %s", path),
		"install the worker binaries",
		"or set workers_dir in ~/.testforge/config.json",
	)
}

// WorkerNotFound is returned when a gate's worker binary is absent.
func WorkerNotFound(name, path string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("worker %q not found at %s", name, path),
		"install the worker binary",
		fmt.Sprintf("or override its command via worker_cmds.%s in the config", name),
	)
}

// ConfigFileNotFound is returned for an explicitly requested, absent config file.
func ConfigFileNotFound(path string) *CLIError {
	return NewConfigError(
		fmt.Sprintf("config file not found: %s", path),
		"run 'testforge config init' to create one",
	)
}

// ConfigParseError is returned when the config file cannot be parsed.
func ConfigParseError(path string, err error) *CLIError {
	return &CLIError{
		Category: Configuration,
		Message:  fmt.Sprintf("cannot parse config file %s: %v", path, err),
		Remediation: []string{
			"check the file is valid JSON",
			"run 'testforge config init --force' to regenerate defaults",
		},
	}
}

// InvalidFlagCombination is returned for mutually incompatible flags.
func InvalidFlagCombination(flags, reason string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("invalid flag combination %s: %s", flags, reason),
	)
}

// PipelineTimeout is returned when a worker exceeds its time budget.
func PipelineTimeout(duration, worker string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("worker %s timed out after %s", worker, duration),
		"increase worker_timeout in the config",
		"or pass a larger --timeout",
	)
}

// StateDirNotWritable is returned when pipeline state cannot be persisted.
func StateDirNotWritable(path string) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("state directory not writable: %s", path),
		"check directory permissions",
		"or point state_dir at a writable location",
	)
}

// NoPipelineRuns is returned by status when no run has ever been recorded.
func NoPipelineRuns() *CLIError {
	return NewPrerequisiteError(
		"no pipeline runs recorded",
		"run 'testforge run <request.json>' first",
	)
}

// RunNotFound is returned when a named run key has no durable state.
func RunNotFound(key string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("no pipeline run found for %q", key),
		"run 'testforge status' to list known runs",
	)
}
