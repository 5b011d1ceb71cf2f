package errors

import (
	"strings"
	"testing"
)

func TestMissingRequestFile(t *testing.T) {
	err := MissingRequestFile()

	if err.Category != Argument {
		t.Errorf("Expected Argument category, got %v", err.Category)
	}
	if err.Usage == "" {
		t.Error("Expected non-empty usage")
	}
	if len(err.Remediation) == 0 {
		t.Error("Expected remediation steps")
	}
}

func TestRequestFileNotFound(t *testing.T) {
	err := RequestFileNotFound("/path/to/request.json")

	if err.Category != Prerequisite {
		t.Errorf("Expected Prerequisite category, got %v", err.Category)
	}
	if !strings.Contains(err.Message, "/path/to/request.json") {
		t.Error("Expected message to contain path")
	}
}

func TestRequestParseError(t *testing.T) {
	err := RequestParseError("/path/to/request.json", &testError{})

	if err.Category != Argument {
		t.Errorf("Expected Argument category, got %v", err.Category)
	}
	if len(err.Remediation) == 0 {
		t.Error("Expected remediation steps")
	}
}

func TestNotAPipelineRequest(t *testing.T) {
	err := NotAPipelineRequest("input.json")

	if err.Category != Argument {
		t.Errorf("Expected Argument category, got %v", err.Category)
	}
	if !strings.Contains(err.Message, "input.json") {
		t.Error("Expected message to contain path")
	}
}

func TestWorkersDirNotFound(t *testing.T) {
	err := WorkersDirNotFound("/opt/workers")

	if err.Category != Prerequisite {
		t.Errorf("Expected Prerequisite category, got %v", err.Category)
	}
	if len(err.Remediation) == 0 {
		t.Error("Expected remediation steps")
	}
}

func TestWorkerNotFound(t *testing.T) {
	err := WorkerNotFound("test-executor", "/opt/workers/test-executor")

	if err.Category != Prerequisite {
		t.Errorf("Expected Prerequisite category, got %v", err.Category)
	}
	if !strings.Contains(err.Message, "test-executor") {
		t.Error("Expected message to contain worker name")
	}
}

func TestConfigFileNotFound(t *testing.T) {
	err := ConfigFileNotFound("/path/to/config")

	if err.Category != Configuration {
		t.Errorf("Expected Configuration category, got %v", err.Category)
	}
	if !strings.Contains(err.Message, "/path/to/config") {
		t.Error("Expected message to contain path")
	}
}

func TestConfigParseError(t *testing.T) {
	err := ConfigParseError("/path/to/config", &testError{})

	if err.Category != Configuration {
		t.Errorf("Expected Configuration category, got %v", err.Category)
	}
	if len(err.Remediation) == 0 {
		t.Error("Expected remediation steps")
	}
}

func TestInvalidFlagCombination(t *testing.T) {
	err := InvalidFlagCombination("--all with a key", "pick one")

	if err.Category != Argument {
		t.Errorf("Expected Argument category, got %v", err.Category)
	}
	if !strings.Contains(err.Message, "--all with a key") {
		t.Error("Expected message to contain flags")
	}
}

func TestPipelineTimeout(t *testing.T) {
	err := PipelineTimeout("5m", "test-executor")

	if err.Category != Runtime {
		t.Errorf("Expected Runtime category, got %v", err.Category)
	}
	if !strings.Contains(err.Message, "5m") {
		t.Error("Expected message to contain duration")
	}
}

func TestStateDirNotWritable(t *testing.T) {
	err := StateDirNotWritable("/var/state")

	if err.Category != Runtime {
		t.Errorf("Expected Runtime category, got %v", err.Category)
	}
}

func TestNoPipelineRuns(t *testing.T) {
	err := NoPipelineRuns()

	if err.Category != Prerequisite {
		t.Errorf("Expected Prerequisite category, got %v", err.Category)
	}
	if len(err.Remediation) == 0 {
		t.Error("Expected remediation steps")
	}
}

func TestRunNotFound(t *testing.T) {
	err := RunNotFound("shop-checkout")

	if err.Category != Argument {
		t.Errorf("Expected Argument category, got %v", err.Category)
	}
	if !strings.Contains(err.Message, "shop-checkout") {
		t.Error("Expected message to contain the key")
	}
}
