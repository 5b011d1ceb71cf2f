package history

import (
	"fmt"
	"os"
	"time"
)

// Writer appends run records to the log with automatic pruning. Record
// failures are warnings, never command failures.
type Writer struct {
	// StateDir is the directory containing the run log.
	StateDir string
	// MaxEntries bounds the log; oldest entries are pruned first. Zero means
	// unbounded.
	MaxEntries int
}

// NewWriter creates a Writer for stateDir.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{StateDir: stateDir, MaxEntries: maxEntries}
}

// WriteStart records a run in the running state and returns its generated ID
// for the later UpdateComplete call.
func (w *Writer) WriteStart(key, requestID string) (string, error) {
	id, err := NewRunID()
	if err != nil {
		return "", fmt.Errorf("generating run ID: %w", err)
	}

	entry := RunEntry{
		ID:        id,
		Key:       key,
		RequestID: requestID,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	if err := w.append(entry); err != nil {
		return "", fmt.Errorf("writing start entry: %w", err)
	}
	return id, nil
}

// UpdateComplete fills in the terminal fields of a running entry.
func (w *Writer) UpdateComplete(id, status string, gatesCompleted, healingAttempts, overallScore int, duration time.Duration) error {
	log, err := Load(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading run log for update: %w", err)
	}

	found := false
	for i := range log.Entries {
		if log.Entries[i].ID == id {
			now := time.Now()
			log.Entries[i].Status = status
			log.Entries[i].GatesCompleted = gatesCompleted
			log.Entries[i].HealingAttempts = healingAttempts
			log.Entries[i].OverallScore = overallScore
			log.Entries[i].CompletedAt = &now
			log.Entries[i].Duration = duration.String()
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("run log entry not found: %s", id)
	}

	if err := Save(w.StateDir, log); err != nil {
		return fmt.Errorf("saving updated run log: %w", err)
	}
	return nil
}

// LogRun records a finished run in one shot. Errors go to stderr only.
func (w *Writer) LogRun(entry RunEntry) {
	if err := w.append(entry); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record run history: %v\n", err)
	}
}

func (w *Writer) append(entry RunEntry) error {
	log, err := Load(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading run log: %w", err)
	}

	log.Entries = append(log.Entries, entry)
	if w.MaxEntries > 0 && len(log.Entries) > w.MaxEntries {
		log.Entries = log.Entries[len(log.Entries)-w.MaxEntries:]
	}

	if err := Save(w.StateDir, log); err != nil {
		return fmt.Errorf("saving run log: %w", err)
	}
	return nil
}
