package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store persists pipeline records as one JSON file per key under baseDir.
// Writes under different keys never touch the same file, so independent
// pipeline runs can share a Store without cross-run locking.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// DefaultStore returns a Store at ~/.testforge/state, creating the directory
// if needed.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".testforge", "state")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &Store{baseDir: dir}, nil
}

// BaseDir returns the store's root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Key returns the stable identifier for a (domain, feature) pair.
func Key(domain, feature string) string {
	return slug(domain) + "-" + slug(feature)
}

// slug lowercases and strips characters that are unsafe in file names.
func slug(v string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(v)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '_', r == '-', r == '.':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

func (s *Store) pipelinePath(key string) string {
	return filepath.Join(s.baseDir, key+"-pipeline.json")
}

func (s *Store) gatePath(key string, gate int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s-gate%d-output.json", key, gate))
}

func (s *Store) healingPath(key string) string {
	return filepath.Join(s.baseDir, key+"-healing.json")
}

// save writes a record, retrying once on failure before reporting a
// persistence error. The caller decides whether the error is fatal.
func (s *Store) save(path string, v interface{}) error {
	err := writeJSON(path, v)
	if err == nil {
		return nil
	}
	if retryErr := writeJSON(path, v); retryErr == nil {
		return nil
	}
	return fmt.Errorf("persist %s: %w", filepath.Base(path), err)
}

// SavePipelineState persists the pipeline state write-through. Writing a
// value identical to the durable one is a no-op (read, compare, skip), which
// makes per-transition writes idempotent.
func (s *Store) SavePipelineState(key string, ps *PipelineState) error {
	next, err := json.MarshalIndent(ps, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pipeline state: %w", err)
	}
	next = append(next, '\n')
	if prev, readErr := os.ReadFile(s.pipelinePath(key)); readErr == nil && bytes.Equal(prev, next) {
		return nil
	}
	return s.save(s.pipelinePath(key), ps)
}

// LoadPipelineState reads the pipeline state for a key.
// Returns os.ErrNotExist (wrapped) when no run exists.
func (s *Store) LoadPipelineState(key string) (*PipelineState, error) {
	var ps PipelineState
	if err := readJSON(s.pipelinePath(key), &ps); err != nil {
		return nil, err
	}
	return &ps, nil
}

// SaveGateResult persists a gate result under its key. A re-run of the same
// gate overwrites the record.
func (s *Store) SaveGateResult(key string, res *GateResult) error {
	return s.save(s.gatePath(key, res.Gate), res)
}

// LoadGateResult reads the result of one gate, or os.ErrNotExist.
func (s *Store) LoadGateResult(key string, gate int) (*GateResult, error) {
	var res GateResult
	if err := readJSON(s.gatePath(key, gate), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SaveHealingLog persists the healing attempt log. Auxiliary record: callers
// treat failures as non-fatal.
func (s *Store) SaveHealingLog(key string, log *HealingLog) error {
	return s.save(s.healingPath(key), log)
}

// LoadHealingLog reads the healing log, returning an empty log when none
// exists.
func (s *Store) LoadHealingLog(key string) (*HealingLog, error) {
	var log HealingLog
	if err := readJSON(s.healingPath(key), &log); err != nil {
		if os.IsNotExist(err) {
			return &HealingLog{}, nil
		}
		return nil, err
	}
	return &log, nil
}

// Delete removes all records for a key. Missing records are not an error.
func (s *Store) Delete(key string) error {
	paths := []string{s.pipelinePath(key), s.healingPath(key)}
	for g := 0; g <= 5; g++ {
		paths = append(paths, s.gatePath(key, g))
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}

// ListKeys returns the keys of all persisted pipeline runs, sorted by file
// name order.
func (s *Store) ListKeys() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir %s: %w", s.baseDir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, "-pipeline.json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, "-pipeline.json"))
	}
	return keys, nil
}
