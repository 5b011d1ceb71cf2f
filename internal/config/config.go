// Package config loads the testforge configuration from defaults, the global
// config file, an optional local file, and environment variables, in
// ascending priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration holds all tunable settings for the pipeline CLI.
type Configuration struct {
	// WorkersDir is where gate worker binaries live.
	WorkersDir string `koanf:"workers_dir" validate:"required"`
	// WorkerCmds overrides individual worker invocations by name.
	WorkerCmds map[string]string `koanf:"worker_cmds"`
	// StateDir is where pipeline state and the run log are persisted.
	StateDir string `koanf:"state_dir" validate:"required"`
	// MaxRuns bounds execution-gate runs, healing re-runs included.
	MaxRuns int `koanf:"max_runs" validate:"min=1,max=20"`
	// MaxHealingAttempts bounds healer invocations per pipeline run.
	MaxHealingAttempts int `koanf:"max_healing_attempts" validate:"min=0,max=10"`
	// WorkerTimeout bounds ordinary worker invocations, in seconds.
	WorkerTimeout int `koanf:"worker_timeout" validate:"min=1,max=86400"`
	// ExecutionTimeout bounds the execution gate, in seconds.
	ExecutionTimeout int `koanf:"execution_timeout" validate:"min=1,max=86400"`
	// ShowProgress enables spinners and gate progress lines.
	ShowProgress bool `koanf:"show_progress"`
	// HistoryMaxEntries bounds the run log; oldest entries are pruned.
	HistoryMaxEntries int `koanf:"history_max_entries" validate:"min=0"`
	// LogFormat is "console" or "json".
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=console json"`
	Debug     bool   `koanf:"debug"`
}

// Defaults returns the built-in configuration values.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"workers_dir":          "~/.testforge/workers",
		"state_dir":            "~/.testforge/state",
		"max_runs":             5,
		"max_healing_attempts": 3,
		"worker_timeout":       120,
		"execution_timeout":    600,
		"show_progress":        true,
		"history_max_entries":  100,
		"log_format":           "console",
		"debug":                false,
	}
}

// GlobalPath returns the path of the global config file.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".testforge", "config.json"), nil
}

// Load builds the configuration. Priority, lowest to highest: defaults,
// global config, localConfigPath (when non-empty and present), TESTFORGE_
// environment variables.
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range Defaults() {
		k.Set(key, value)
	}

	if globalPath, err := GlobalPath(); err == nil {
		if _, err := os.Stat(globalPath); err == nil {
			if err := k.Load(file.Provider(globalPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("loading global config: %w", err)
			}
		}
	}

	if localConfigPath != "" {
		if _, err := os.Stat(localConfigPath); err == nil {
			if err := k.Load(file.Provider(localConfigPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("loading config %s: %w", localConfigPath, err)
			}
		}
	}

	k.Load(env.Provider("TESTFORGE_", ".", envTransform), nil)

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.WorkersDir = expandHomePath(cfg.WorkersDir)
	cfg.StateDir = expandHomePath(cfg.StateDir)

	return &cfg, nil
}

// envTransform maps TESTFORGE_MAX_RUNS to max_runs.
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "TESTFORGE_"))
}

// expandHomePath expands a leading ~/ to the user's home directory.
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
