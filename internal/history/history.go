// Package history records completed pipeline runs in a YAML log with
// memorable run identifiers, for later inspection via the status command.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the name of the run log file.
	FileName = "history.yaml"
	// BackupSuffix marks a corrupted log set aside before starting fresh.
	BackupSuffix = ".backup"
)

// Entry statuses.
const (
	StatusRunning   = "running"
	StatusSuccess   = "success"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// RunEntry is one recorded pipeline run.
type RunEntry struct {
	// ID is a memorable identifier in adjective_noun_YYYYMMDD_HHMMSS format.
	ID string `yaml:"id"`
	// Key is the pipeline's (domain, feature) state key.
	Key       string `yaml:"key"`
	RequestID string `yaml:"request_id,omitempty"`
	Status    string `yaml:"status"`
	// GatesCompleted counts the gates that finished without FAILED.
	GatesCompleted  int        `yaml:"gates_completed"`
	HealingAttempts int        `yaml:"healing_attempts,omitempty"`
	OverallScore    int        `yaml:"overall_score,omitempty"`
	StartedAt       time.Time  `yaml:"started_at"`
	CompletedAt     *time.Time `yaml:"completed_at,omitempty"`
	Duration        string     `yaml:"duration,omitempty"`
}

// RunLog is the YAML file holding all recorded runs, oldest first.
type RunLog struct {
	Entries []RunEntry `yaml:"entries"`
}

// Load reads the run log from stateDir. A missing file yields an empty log;
// a corrupted file is set aside with a .backup suffix and replaced fresh.
func Load(stateDir string) (*RunLog, error) {
	path := filepath.Join(stateDir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RunLog{Entries: []RunEntry{}}, nil
		}
		return nil, fmt.Errorf("reading run log: %w", err)
	}

	var log RunLog
	if err := yaml.Unmarshal(data, &log); err != nil {
		if backupErr := os.Rename(path, path+BackupSuffix); backupErr != nil {
			return nil, fmt.Errorf("backing up corrupted run log: %w", backupErr)
		}
		return &RunLog{Entries: []RunEntry{}}, nil
	}
	if log.Entries == nil {
		log.Entries = []RunEntry{}
	}
	return &log, nil
}

// Save writes the run log atomically, creating stateDir if needed.
func Save(stateDir string, log *RunLog) error {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(log)
	if err != nil {
		return fmt.Errorf("marshaling run log: %w", err)
	}

	path := filepath.Join(stateDir, FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp run log: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming temp run log: %w", err)
	}
	return nil
}

// Clear removes all entries from the run log.
func Clear(stateDir string) error {
	return Save(stateDir, &RunLog{Entries: []RunEntry{}})
}
