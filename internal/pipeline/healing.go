package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/forgeworks/testforge/internal/state"
	"github.com/forgeworks/testforge/internal/validate"
	"github.com/forgeworks/testforge/internal/worker"
)

// HealingLoop runs the execution gate repeatedly, interleaving bounded
// healing invocations when the same failure repeats. Termination is
// guaranteed: MaxRuns bounds executions, MaxHealingAttempts bounds healing,
// and the loop exits immediately on a passing run.
type HealingLoop struct {
	Gates   GateRunner
	Invoker worker.Invoker
	Store   *state.Store
	// MaxRuns is the execution-run budget, healing runs included.
	MaxRuns int
	// MaxHealingAttempts caps healing invocations per pipeline run.
	MaxHealingAttempts int
	// HealTimeout bounds a single healer invocation.
	HealTimeout time.Duration
	Log         *zap.Logger
}

// NewHealingLoop creates a HealingLoop with the given bounds.
func NewHealingLoop(gates GateRunner, invoker worker.Invoker, store *state.Store, maxRuns, maxAttempts int, healTimeout time.Duration, log *zap.Logger) *HealingLoop {
	if log == nil {
		log = zap.NewNop()
	}
	return &HealingLoop{
		Gates:              gates,
		Invoker:            invoker,
		Store:              store,
		MaxRuns:            maxRuns,
		MaxHealingAttempts: maxAttempts,
		HealTimeout:        healTimeout,
		Log:                log,
	}
}

// runOutcome is the per-run record the convergence check operates on.
type runOutcome struct {
	passed    bool
	signature string
	failures  []validate.FailedTest
}

// Run drives the execution gate to a pass or to budget exhaustion.
// The returned GateResult is the durable record of the final run; the
// attempt list is also persisted as an auxiliary record.
func (h *HealingLoop) Run(ctx context.Context, run *Run) (*state.GateResult, []state.HealingAttempt, error) {
	maxRuns := h.MaxRuns
	if m := run.Request.Constraints.MaxRuns; m > 0 && m < maxRuns {
		maxRuns = m
	}
	if maxRuns < 1 {
		maxRuns = 1
	}
	maxAttempts := h.MaxHealingAttempts
	if m := run.Request.Constraints.MaxHealingAttempts; m > 0 && m < maxAttempts {
		maxAttempts = m
	}

	var attempts []state.HealingAttempt
	var prev *runOutcome
	var last *state.GateResult

	for runNo := 1; runNo <= maxRuns; runNo++ {
		res, err := h.Gates.Execute(ctx, run, GateExecution)
		if err != nil {
			return nil, attempts, err
		}

		out, ok := executionOutcome(res)
		if !ok {
			// Invocation failure or malformed report: nothing to fingerprint,
			// so this halts the gate rather than feeding the healing loop.
			return res, attempts, nil
		}
		last = res

		if out.passed {
			h.Log.Info("execution passed",
				zap.String("key", run.Key),
				zap.Int("run", runNo),
				zap.Int("healing_attempts", len(attempts)))
			return res, attempts, nil
		}

		// Failing runs are FAILED at the gate level regardless of pass rate;
		// the loop, not the score band, owns the execution gate's status.
		if res.Status != state.GateFailed {
			res.Status = state.GateFailed
			if err := h.Store.SaveGateResult(run.Key, res); err != nil {
				return nil, attempts, fmt.Errorf("persisting execution result: %w", err)
			}
		}

		// Healing triggers only on two consecutive failures with identical
		// signatures. Differing signatures are noise, not convergence: keep
		// running without escalating.
		if prev != nil && !prev.passed && prev.signature == out.signature && len(attempts) < maxAttempts {
			att := h.heal(ctx, run, out, len(attempts)+1)
			attempts = append(attempts, att)
			h.persistAttempts(run.Key, attempts)

			if att.Outcome == state.HealingFailed && len(attempts) >= maxAttempts {
				h.Log.Warn("healing exhausted",
					zap.String("key", run.Key),
					zap.Int("attempts", len(attempts)))
				break
			}
			// On success the next iteration re-runs to verify the fix; a fix
			// is never assumed without re-execution.
		}

		prev = &out
	}

	return last, attempts, nil
}

// heal invokes the healing worker with the failing context.
func (h *HealingLoop) heal(ctx context.Context, run *Run, out runOutcome, attemptNo int) state.HealingAttempt {
	att := state.HealingAttempt{
		Attempt:   attemptNo,
		Signature: out.signature,
		At:        time.Now(),
	}

	payload, _ := json.Marshal(struct {
		Signature string                `json:"signature"`
		Attempt   int                   `json:"attempt"`
		Failures  []validate.FailedTest `json:"failures"`
	}{out.signature, attemptNo, out.failures})

	req := worker.Request{
		Metadata: worker.Meta{
			RequestID: run.Request.RequestID,
			Domain:    run.Request.Domain,
			Feature:   run.Request.Feature,
			URL:       run.Request.URL,
		},
		Gate:     int(GateExecution),
		Worker:   HealerWorker,
		Upstream: h.healingUpstream(run),
		Payload:  payload,
	}

	healCtx, cancel := context.WithTimeout(ctx, h.HealTimeout)
	defer cancel()

	resp, err := h.Invoker.Invoke(healCtx, req)
	if err != nil || resp.Status != worker.StatusOK {
		att.Outcome = state.HealingFailed
		h.Log.Warn("healing attempt failed",
			zap.String("key", run.Key),
			zap.Int("attempt", attemptNo),
			zap.Error(err))
		return att
	}

	att.Outcome = state.HealingSucceeded
	h.Log.Info("healing attempt succeeded",
		zap.String("key", run.Key),
		zap.Int("attempt", attemptNo),
		zap.String("signature", out.signature))
	return att
}

// healingUpstream hands the healer the generated code and the failing
// execution report.
func (h *HealingLoop) healingUpstream(run *Run) map[string]json.RawMessage {
	upstream := make(map[string]json.RawMessage)
	for _, g := range []Gate{GateCodeGeneration, GateExecution} {
		if res, err := h.Store.LoadGateResult(run.Key, int(g)); err == nil {
			upstream[fmt.Sprintf("gate%d", int(g))] = res.Output
		}
	}
	return upstream
}

// persistAttempts writes the healing log. Auxiliary record: a failed write
// is logged and does not gate forward progress.
func (h *HealingLoop) persistAttempts(key string, attempts []state.HealingAttempt) {
	if err := h.Store.SaveHealingLog(key, &state.HealingLog{Attempts: attempts}); err != nil {
		h.Log.Warn("healing log write failed", zap.String("key", key), zap.Error(err))
	}
}

// executionOutcome extracts the pass/fail outcome and failure signature from
// a durable execution result. ok is false when the run produced no usable
// report (invocation failure, malformed output).
func executionOutcome(res *state.GateResult) (runOutcome, bool) {
	if len(res.Output) == 0 {
		return runOutcome{}, false
	}
	var er validate.ExecutionReport
	if err := json.Unmarshal(res.Output, &er); err != nil || er.Total == 0 {
		return runOutcome{}, false
	}
	out := runOutcome{
		passed:   er.AllPassed(),
		failures: er.Failures,
	}
	if !out.passed {
		out.signature = FailureSignature(er.Failures)
	}
	return out, true
}

// FailureSignature is a deterministic digest of a run's failure: the sorted
// failing test identifiers with their error texts. Identical failures across
// runs produce identical signatures; this is the exact-match convergence
// test, with no fuzzy matching of near-identical failures.
func FailureSignature(failures []validate.FailedTest) string {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.CaseID+":"+f.Error)
	}
	sort.Strings(parts)
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}
