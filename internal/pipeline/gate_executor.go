package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/forgeworks/testforge/internal/state"
	"github.com/forgeworks/testforge/internal/validate"
	"github.com/forgeworks/testforge/internal/worker"
)

// GateExecutor wraps one gate execution: load upstream records, invoke the
// worker, validate the output, persist the result. The persisted write
// always precedes the return, so callers never observe a result that is not
// yet durable.
type GateExecutor struct {
	Store   *state.Store
	Invoker worker.Invoker
	// Timeout bounds ordinary worker invocations.
	Timeout time.Duration
	// ExecutionTimeout bounds the execution gate, which runs real browsers
	// and needs a more generous budget.
	ExecutionTimeout time.Duration
	Log              *zap.Logger
}

// NewGateExecutor creates a GateExecutor with the given collaborators.
func NewGateExecutor(store *state.Store, invoker worker.Invoker, timeout, executionTimeout time.Duration, log *zap.Logger) *GateExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &GateExecutor{
		Store:            store,
		Invoker:          invoker,
		Timeout:          timeout,
		ExecutionTimeout: executionTimeout,
		Log:              log,
	}
}

// gatePayload carries the request fields workers need beyond the metadata.
type gatePayload struct {
	UserStory          string   `json:"user_story"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	DataMode           string   `json:"data_mode,omitempty"`
	DataCount          int      `json:"data_count,omitempty"`
	DataSeed           int64    `json:"data_seed,omitempty"`
	Browsers           []string `json:"browsers,omitempty"`
}

// Execute runs one gate. Worker faults (timeout, crash, malformed output)
// yield a FAILED result with an "invocation failure" issue; a missing
// predecessor or a failed persist is returned as an error.
func (e *GateExecutor) Execute(ctx context.Context, run *Run, gate Gate) (*state.GateResult, error) {
	upstream, rawUpstream, err := e.loadUpstream(run, gate)
	if err != nil {
		return nil, err
	}

	req := e.buildRequest(run, gate, rawUpstream)

	timeout := e.Timeout
	if gate == GateExecution {
		timeout = e.ExecutionTimeout
		if secs := run.Request.Constraints.TimeoutSeconds; secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}
	invokeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, invokeErr := e.Invoker.Invoke(invokeCtx, req)
	if invokeErr != nil {
		e.Log.Warn("worker invocation failed",
			zap.String("key", run.Key),
			zap.Stringer("gate", gate),
			zap.Error(invokeErr))
		return e.persist(run, failedResult(gate, fmt.Sprintf("invocation failure: %v", invokeErr)))
	}
	if resp.Status == worker.StatusFailed {
		issues := resp.Issues
		if len(issues) == 0 {
			issues = []string{"worker reported failure without detail"}
		}
		res := &state.GateResult{
			Gate:       int(gate),
			Worker:     gate.WorkerName(),
			Status:     state.GateFailed,
			Validation: validate.Report{Score: 0, Issues: issues, Passed: false},
			RecordedAt: time.Now(),
		}
		return e.persist(run, res)
	}

	report := validate.Run(validate.ForGate(int(gate)), resp.Output, upstream)
	res := &state.GateResult{
		Gate:         int(gate),
		Worker:       gate.WorkerName(),
		Status:       mapStatus(report),
		Output:       resp.Output,
		Validation:   report,
		Deliverables: deliverablesFor(gate, resp.Output),
		RecordedAt:   time.Now(),
	}

	e.Log.Info("gate executed",
		zap.String("key", run.Key),
		zap.Stringer("gate", gate),
		zap.String("status", string(res.Status)),
		zap.Int("score", report.Score),
		zap.Int("issues", len(report.Issues)))

	return e.persist(run, res)
}

// persist writes the gate result before returning it to the caller.
func (e *GateExecutor) persist(run *Run, res *state.GateResult) (*state.GateResult, error) {
	if err := e.Store.SaveGateResult(run.Key, res); err != nil {
		return nil, fmt.Errorf("persisting gate %d result: %w", res.Gate, err)
	}
	return res, nil
}

func failedResult(gate Gate, issue string) *state.GateResult {
	return &state.GateResult{
		Gate:       int(gate),
		Worker:     gate.WorkerName(),
		Status:     state.GateFailed,
		Validation: validate.Report{Score: 0, Issues: []string{issue}, Passed: false},
		RecordedAt: time.Now(),
	}
}

// mapStatus maps a validation report to a gate status: failed validation is
// FAILED, a passing report scores SUCCESS at or above the pass threshold and
// PARTIAL in the band below it.
func mapStatus(r validate.Report) state.GateStatus {
	switch {
	case !r.Passed:
		return state.GateFailed
	case r.Score >= validate.DefaultPassThreshold:
		return state.GateSuccess
	case r.Score >= validate.DefaultPartialThreshold:
		return state.GatePartial
	default:
		return state.GateFailed
	}
}

// loadUpstream loads the durable outputs of the gate's required
// predecessors. Absence of any is a contract violation, not a retryable
// condition.
func (e *GateExecutor) loadUpstream(run *Run, gate Gate) (validate.Upstream, map[string]json.RawMessage, error) {
	up := validate.Upstream{Criteria: len(run.Request.AcceptanceCriteria)}
	if run.Request.IsDataDriven() {
		up.RequestedRecords = run.Request.DataRequirements.Count
	}
	raw := make(map[string]json.RawMessage)

	for _, pred := range predecessors(gate, run.DataPrep) {
		res, err := e.Store.LoadGateResult(run.Key, int(pred))
		if err != nil {
			return up, nil, &ContractViolationError{Gate: gate, Missing: pred}
		}
		raw[fmt.Sprintf("gate%d", int(pred))] = res.Output

		switch pred {
		case GateTestcaseDesign:
			var plan validate.TestPlan
			if json.Unmarshal(res.Output, &plan) == nil {
				up.Plan = &plan
			}
		case GateElementMapping:
			var em validate.ElementMap
			if json.Unmarshal(res.Output, &em) == nil {
				up.Elements = &em
			}
		case GateCodeGeneration:
			var gc validate.GeneratedCode
			if json.Unmarshal(res.Output, &gc) == nil {
				up.Code = &gc
			}
		}
	}
	return up, raw, nil
}

func (e *GateExecutor) buildRequest(run *Run, gate Gate, upstream map[string]json.RawMessage) worker.Request {
	payload, _ := json.Marshal(gatePayload{
		UserStory:          run.Request.UserStory,
		AcceptanceCriteria: run.Request.AcceptanceCriteria,
		DataMode:           run.Request.DataRequirements.Mode,
		DataCount:          run.Request.DataRequirements.Count,
		DataSeed:           run.Request.DataRequirements.Seed,
		Browsers:           run.Request.Constraints.Browsers,
	})

	req := worker.Request{
		Metadata: worker.Meta{
			RequestID: run.Request.RequestID,
			Domain:    run.Request.Domain,
			Feature:   run.Request.Feature,
			URL:       run.Request.URL,
		},
		Gate:     int(gate),
		Worker:   gate.WorkerName(),
		Upstream: upstream,
		Payload:  payload,
	}
	if gate.NeedsPage() && run.Page != nil {
		req.PageContent = run.Page.Content
	}
	return req
}

// deliverablesFor extracts the artifact paths a gate's output names.
func deliverablesFor(gate Gate, output json.RawMessage) []string {
	switch gate {
	case GateCodeGeneration:
		var gc validate.GeneratedCode
		if json.Unmarshal(output, &gc) == nil {
			return gc.Files
		}
	case GateExecution:
		var er validate.ExecutionReport
		if json.Unmarshal(output, &er) == nil && er.ReportPath != "" {
			return []string{er.ReportPath}
		}
	case GateLearning:
		var lr validate.LearningRecord
		if json.Unmarshal(output, &lr) == nil && lr.Path != "" {
			return []string{lr.Path}
		}
	}
	return nil
}

// Compile-time interface compliance check.
var _ GateRunner = (*GateExecutor)(nil)
