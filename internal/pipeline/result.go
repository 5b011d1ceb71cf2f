package pipeline

import (
	"github.com/forgeworks/testforge/internal/state"
)

// GateSummary is the per-gate line of a pipeline result.
type GateSummary struct {
	Gate   int              `json:"gate"`
	Name   string           `json:"name"`
	Worker string           `json:"worker"`
	Status state.GateStatus `json:"status"`
	Score  int              `json:"score"`
	Issues []string         `json:"issues,omitempty"`
}

// Result is the terminal report of one pipeline run.
type Result struct {
	Status          state.Status   `json:"status"`
	RequestID       string         `json:"request_id"`
	Key             string         `json:"key"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	Gates           []GateSummary  `json:"gates"`
	Deliverables    []string       `json:"deliverables,omitempty"`
	Metrics         QualityMetrics `json:"metrics"`
	// HealingAttempts counts healer invocations; HealingSucceeded is true when
	// the last attempt fixed the failure and the re-run passed.
	HealingAttempts  int  `json:"healing_attempts"`
	HealingSucceeded bool `json:"healing_succeeded"`
	// FailedGate names the halting gate for FAILED runs, nil otherwise.
	FailedGate    *int     `json:"failed_gate,omitempty"`
	FailureIssues []string `json:"failure_issues,omitempty"`
	// AuditTrail is the memorable run identifier recorded in history.
	AuditTrail string `json:"audit_trail,omitempty"`
}

func summarize(res *state.GateResult, gate Gate) GateSummary {
	return GateSummary{
		Gate:   res.Gate,
		Name:   gate.String(),
		Worker: res.Worker,
		Status: res.Status,
		Score:  res.Validation.Score,
		Issues: res.Validation.Issues,
	}
}
