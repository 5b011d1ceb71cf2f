// Package pipeline defines the interfaces wired between the coordinator and
// its collaborators, enabling dependency injection and testing.
// Related: internal/pipeline/coordinator.go, internal/pipeline/mocks_test.go
// Tags: pipeline, interfaces, dependency-injection
package pipeline

import (
	"context"
	"fmt"

	"github.com/forgeworks/testforge/internal/request"
	"github.com/forgeworks/testforge/internal/state"
)

// Run is the per-run context owned by the coordinator and threaded through
// gate execution. The request and cached page are immutable for the run.
type Run struct {
	Request *request.PipelineRequest
	// Key is the stable StateStore identifier derived from (domain, feature).
	Key string
	// Page is fetched exactly once during PRE_PROCESSING; gates never
	// re-fetch.
	Page *CachedPage
	// DataPrep records whether gate 0 was selected for this run.
	DataPrep bool
}

// GateRunner executes a single gate against the run context and reports its
// durable result. A non-nil error means a programming-contract violation or
// a fatal persistence failure, not a worker failure; worker failures come
// back as a FAILED GateResult.
type GateRunner interface {
	Execute(ctx context.Context, run *Run, gate Gate) (*state.GateResult, error)
}

// GateInfo describes a gate execution for progress reporting.
type GateInfo struct {
	Gate   Gate
	Number int
	Total  int
	// RunNumber is > 1 for repeated execution-gate runs inside the healing
	// loop.
	RunNumber int
}

// Reporter receives gate lifecycle events for display. Implementations must
// tolerate being called from a single goroutine only.
type Reporter interface {
	StartGate(info GateInfo)
	CompleteGate(info GateInfo, res *state.GateResult)
	FailGate(info GateInfo, res *state.GateResult)
}

// nopReporter keeps the coordinator nil-safe when no display is wired.
type nopReporter struct{}

func (nopReporter) StartGate(GateInfo)                          {}
func (nopReporter) CompleteGate(GateInfo, *state.GateResult)    {}
func (nopReporter) FailGate(GateInfo, *state.GateResult)        {}

// ContractViolationError reports a gate executed without its required
// predecessor's durable output. This is a programming error, never retried.
type ContractViolationError struct {
	Gate    Gate
	Missing Gate
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("gate %s executed without required predecessor %s output", e.Gate, e.Missing)
}
