package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/forgeworks/testforge/internal/request"
	"github.com/forgeworks/testforge/internal/state"
)

// Coordinator owns one pipeline run end to end: request validation, the
// single page fetch, the gate 0 decision, the gate sequence with validation
// gating, the healing loop around the execution gate, and the final audit.
// All durable writes go through the Store; the coordinator is the only writer
// of PipelineState.
type Coordinator struct {
	Store    *state.Store
	Gates    GateRunner
	Healing  *HealingLoop
	Fetcher  PageFetcher
	Reporter Reporter
	Log      *zap.Logger

	now func() time.Time
}

// NewCoordinator wires a Coordinator. Reporter may be nil.
func NewCoordinator(store *state.Store, gates GateRunner, healing *HealingLoop, fetcher PageFetcher, reporter Reporter, log *zap.Logger) *Coordinator {
	if reporter == nil {
		reporter = nopReporter{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		Store:    store,
		Gates:    gates,
		Healing:  healing,
		Fetcher:  fetcher,
		Reporter: reporter,
		Log:      log,
		now:      time.Now,
	}
}

// Run executes the full pipeline for one request. An invalid request fails
// fast before any durable write. A returned error means the run could not be
// carried out (invalid input, unreachable state dir, contract violation); a
// run that completes with FAILED status returns a Result and a nil error.
func (c *Coordinator) Run(ctx context.Context, req *request.PipelineRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := c.now()
	key := state.Key(req.Domain, req.Feature)
	c.Log.Info("pipeline starting",
		zap.String("key", key),
		zap.String("request_id", req.RequestID),
		zap.String("url", req.URL))

	ps := &state.PipelineState{
		Status:      state.StatusInProgress,
		CurrentGate: -1,
		Metadata: state.RequestMeta{
			RequestID:          req.RequestID,
			Domain:             req.Domain,
			Feature:            req.Feature,
			URL:                req.URL,
			UserStory:          req.UserStory,
			AcceptanceCriteria: req.AcceptanceCriteria,
		},
		CreatedAt: start,
		UpdatedAt: start,
	}
	if err := c.Store.SavePipelineState(key, ps); err != nil {
		return nil, fmt.Errorf("initializing pipeline state: %w", err)
	}

	page, err := c.Fetcher.Fetch(ctx, req.URL)
	if err != nil {
		c.failPipeline(ps, key)
		res := c.baseResult(req, key, start)
		res.Status = state.StatusFailed
		res.FailureIssues = []string{fmt.Sprintf("page fetch failed: %v", err)}
		return res, nil
	}

	// The gate 0 decision is made exactly once, on the cached page.
	dataPrep := NeedsDataPreparation(req, page)
	c.Log.Info("pre-processing complete",
		zap.String("key", key),
		zap.Bool("data_prep", dataPrep),
		zap.Int("input_fields", page.InputFields()))

	run := &Run{Request: req, Key: key, Page: page, DataPrep: dataPrep}
	gates := sequence(dataPrep)

	result := c.baseResult(req, key, start)

	for i, gate := range gates {
		// On abort, durable state stays at its last value so the run remains
		// resumable; cancellation is not a FAILED outcome.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline canceled before gate %s: %w", gate, err)
		}

		ps.CurrentGate = int(gate)
		ps.UpdatedAt = c.now()
		if err := c.Store.SavePipelineState(key, ps); err != nil {
			return nil, fmt.Errorf("persisting gate transition: %w", err)
		}

		info := GateInfo{Gate: gate, Number: i + 1, Total: len(gates)}
		c.Reporter.StartGate(info)

		res, err := c.runGate(ctx, run, gate, result)
		if err != nil {
			c.failPipeline(ps, key)
			return nil, err
		}

		result.Gates = append(result.Gates, summarize(res, gate))
		result.Deliverables = append(result.Deliverables, res.Deliverables...)

		if res.Status == state.GateFailed {
			c.Reporter.FailGate(info, res)
			c.failPipeline(ps, key)
			g := int(gate)
			result.Status = state.StatusFailed
			result.FailedGate = &g
			result.FailureIssues = res.Validation.Issues
			result.ExecutionTimeMs = c.now().Sub(start).Milliseconds()
			c.Log.Warn("pipeline halted",
				zap.String("key", key),
				zap.Stringer("gate", gate),
				zap.Strings("issues", res.Validation.Issues))
			return result, nil
		}

		// PARTIAL passes through unmodified; only FAILED halts.
		c.Reporter.CompleteGate(info, res)
		ps.CompletedGates = append(ps.CompletedGates, int(gate))
		ps.UpdatedAt = c.now()
		if err := c.Store.SavePipelineState(key, ps); err != nil {
			return nil, fmt.Errorf("persisting gate completion: %w", err)
		}
	}

	c.finalAudit(run, ps, result)

	ps.UpdatedAt = c.now()
	if err := c.Store.SavePipelineState(key, ps); err != nil {
		return nil, fmt.Errorf("persisting final state: %w", err)
	}

	result.ExecutionTimeMs = c.now().Sub(start).Milliseconds()
	c.Log.Info("pipeline finished",
		zap.String("key", key),
		zap.String("status", string(result.Status)),
		zap.Int("overall_score", result.Metrics.OverallScore),
		zap.Int64("elapsed_ms", result.ExecutionTimeMs))
	return result, nil
}

// runGate executes one gate, routing the execution gate through the healing
// loop when one is wired.
func (c *Coordinator) runGate(ctx context.Context, run *Run, gate Gate, result *Result) (*state.GateResult, error) {
	if gate == GateExecution && c.Healing != nil {
		res, attempts, err := c.Healing.Run(ctx, run)
		if err != nil {
			return nil, err
		}
		result.HealingAttempts = len(attempts)
		if len(attempts) > 0 {
			last := attempts[len(attempts)-1]
			result.HealingSucceeded = last.Outcome == state.HealingSucceeded && res.Status != state.GateFailed
		}
		return res, nil
	}
	return c.Gates.Execute(ctx, run, gate)
}

// finalAudit computes the aggregate quality metrics and maps them to the
// run's terminal status. Precondition: every gate in the sequence completed
// without FAILED. A missing deliverable still fails the run here, because a
// complete gate sequence with absent artifacts is not a delivered pipeline.
func (c *Coordinator) finalAudit(run *Run, ps *state.PipelineState, result *Result) {
	result.Metrics = ComputeMetrics(c.Store, run.Key, len(run.Request.AcceptanceCriteria))

	if missing := c.missingDeliverables(run); len(missing) > 0 {
		result.Status = state.StatusFailed
		result.FailureIssues = missing
		ps.Status = state.StatusFailed
		return
	}

	result.Status = AuditStatus(result.Metrics)
	ps.Status = result.Status
}

// missingDeliverables reconciles the audit's deliverable expectations against
// the durable gate records.
func (c *Coordinator) missingDeliverables(run *Run) []string {
	var missing []string
	for _, gate := range deliverableGates(run.DataPrep) {
		res, err := c.Store.LoadGateResult(run.Key, int(gate))
		if err != nil || len(res.Output) == 0 {
			missing = append(missing, fmt.Sprintf("gate %s produced no durable output", gate))
		}
	}
	return missing
}

func (c *Coordinator) failPipeline(ps *state.PipelineState, key string) {
	ps.Status = state.StatusFailed
	ps.UpdatedAt = c.now()
	if err := c.Store.SavePipelineState(key, ps); err != nil {
		c.Log.Error("failed to persist FAILED state", zap.String("key", key), zap.Error(err))
	}
}

func (c *Coordinator) baseResult(req *request.PipelineRequest, key string, start time.Time) *Result {
	return &Result{
		RequestID:       req.RequestID,
		Key:             key,
		ExecutionTimeMs: c.now().Sub(start).Milliseconds(),
	}
}
