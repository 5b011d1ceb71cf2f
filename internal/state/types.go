// Package state provides durable persistence for pipeline runs. Each record
// is one JSON file under the state directory, written atomically via a temp
// file and rename so readers always observe either the prior durable value or
// the new one. Keys derive from (domain, feature); independent keys never
// share a file.
// Related: internal/pipeline/coordinator.go (owner of PipelineState writes)
// Tags: state, persistence, atomic-write, crash-recovery
package state

import (
	"encoding/json"
	"time"

	"github.com/forgeworks/testforge/internal/validate"
)

// Status is the lifecycle status of a pipeline run.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
	StatusPartial    Status = "PARTIAL"
	StatusFailed     Status = "FAILED"
)

// GateStatus is the outcome of a single gate execution.
type GateStatus string

const (
	GateSuccess GateStatus = "SUCCESS"
	GatePartial GateStatus = "PARTIAL"
	GateFailed  GateStatus = "FAILED"
)

// RequestMeta is the immutable snapshot of the originating request carried in
// the pipeline state for crash recovery and audit.
type RequestMeta struct {
	RequestID          string   `json:"request_id"`
	Domain             string   `json:"domain"`
	Feature            string   `json:"feature"`
	URL                string   `json:"url"`
	UserStory          string   `json:"user_story"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

// PipelineState is the top-level persisted record for one run.
// It is owned exclusively by the pipeline coordinator and persisted after
// every mutation, so a crash loses at most one gate's bookkeeping.
type PipelineState struct {
	Status Status `json:"status"`
	// CurrentGate is -1 before the first gate starts and never decreases.
	CurrentGate int `json:"current_gate"`
	// CompletedGates is strictly increasing and contains no gate whose
	// required predecessor is absent.
	CompletedGates []int       `json:"completed_gates"`
	Metadata       RequestMeta `json:"metadata"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// GateResult is the persisted outcome of one gate execution. It is never
// mutated after write; re-running a gate overwrites the record under the
// same key.
type GateResult struct {
	Gate       int             `json:"gate"`
	Worker     string          `json:"worker"`
	Status     GateStatus      `json:"status"`
	Output     json.RawMessage `json:"output,omitempty"`
	Validation validate.Report `json:"validation"`
	// Deliverables are artifact paths the gate produced, if any.
	Deliverables []string  `json:"deliverables,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// HealingOutcome labels the result of a single healing attempt.
type HealingOutcome string

const (
	HealingSucceeded HealingOutcome = "SUCCESS"
	HealingFailed    HealingOutcome = "FAILED"
)

// HealingAttempt records one bounded healing invocation inside the execution
// gate's retry loop. Attempts are 1-based and never exceed the configured
// maximum.
type HealingAttempt struct {
	Attempt   int            `json:"attempt"`
	Signature string         `json:"triggering_failure_signature"`
	Outcome   HealingOutcome `json:"outcome"`
	At        time.Time      `json:"at"`
}

// HealingLog is the persisted list of healing attempts for one run.
// Auxiliary record: write failures do not gate forward progress.
type HealingLog struct {
	Attempts []HealingAttempt `json:"attempts"`
}
