package pipeline

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeworks/testforge/internal/request"
	"github.com/forgeworks/testforge/internal/state"
	"github.com/forgeworks/testforge/internal/validate"
)

func newTestCoordinator(t *testing.T, inv *mockInvoker, fetcher PageFetcher) (*Coordinator, *state.Store) {
	t.Helper()
	store := state.NewStore(t.TempDir())
	exec := NewGateExecutor(store, inv, time.Minute, time.Minute, nil)
	healing := NewHealingLoop(exec, inv, store, 5, 3, time.Minute, nil)
	if fetcher == nil {
		fetcher = &StaticFetcher{Content: "<html><input/></html>"}
	}
	return NewCoordinator(store, exec, healing, fetcher, nil, nil), store
}

func scriptHappyPath(t *testing.T, inv *mockInvoker) {
	t.Helper()
	inv.script("testcase-designer", ok(t, goodPlan()))
	inv.script("element-mapper", ok(t, goodElements()))
	inv.script("code-generator", ok(t, goodCode()))
	inv.script("test-executor", ok(t, passingReport()))
	inv.script("learning-capture", ok(t, goodLearning()))
}

func TestCoordinator_FullSuccessfulRun(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	scriptHappyPath(t, inv)
	coord, store := newTestCoordinator(t, inv, nil)

	result, err := coord.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, state.StatusSuccess, result.Status)
	assert.Len(t, result.Gates, 5)
	assert.Nil(t, result.FailedGate)
	assert.Equal(t, 100, result.Metrics.Coverage)
	assert.Equal(t, 90, result.Metrics.LocatorConfidence)
	assert.Equal(t, 100, result.Metrics.PassRate)
	assert.True(t, result.Metrics.Compiles)
	assert.Contains(t, result.Deliverables, "checkout.spec.ts")
	assert.Contains(t, result.Deliverables, "report.html")

	ps, err := store.LoadPipelineState(result.Key)
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, ps.Status)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ps.CompletedGates)
}

func TestCoordinator_InvalidRequestWritesNothing(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	coord, store := newTestCoordinator(t, inv, nil)

	req := testRequest()
	req.URL = "not a url"

	_, err := coord.Run(context.Background(), req)
	var valErr *request.ValidationError
	require.True(t, errors.As(err, &valErr))

	keys, err := store.ListKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Empty(t, inv.calls)
}

func TestCoordinator_PageFetchFailure(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	coord, store := newTestCoordinator(t, inv, &StaticFetcher{Err: errors.New("connection refused")})

	result, err := coord.Run(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailed, result.Status)
	require.Len(t, result.FailureIssues, 1)
	assert.Contains(t, result.FailureIssues[0], "page fetch failed")
	assert.Empty(t, inv.calls)

	ps, err := store.LoadPipelineState(result.Key)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailed, ps.Status)
}

func TestCoordinator_GateFailureHalts(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	inv.script("testcase-designer", ok(t, goodPlan()))
	inv.script("element-mapper", failed("no selectors resolved"))
	coord, store := newTestCoordinator(t, inv, nil)

	result, err := coord.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, state.StatusFailed, result.Status)
	require.NotNil(t, result.FailedGate)
	assert.Equal(t, int(GateElementMapping), *result.FailedGate)
	assert.Contains(t, result.FailureIssues, "no selectors resolved")

	// Downstream gates never ran.
	assert.Empty(t, inv.callsFor("code-generator"))
	assert.Empty(t, inv.callsFor("test-executor"))

	ps, err := store.LoadPipelineState(result.Key)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailed, ps.Status)
	assert.Equal(t, []int{1}, ps.CompletedGates)
	assert.Equal(t, int(GateElementMapping), ps.CurrentGate)
}

func TestCoordinator_DataDrivenRunsGateZero(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	inv.script("data-prep", ok(t, validate.DataSet{Records: []map[string]string{{"qty": "1"}, {"qty": "9"}}}))
	scriptHappyPath(t, inv)
	coord, store := newTestCoordinator(t, inv, nil)

	req := testRequest()
	req.DataRequirements.Mode = request.ModeDataDriven
	req.DataRequirements.Count = 2

	result, err := coord.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, result.Status)
	assert.Len(t, result.Gates, 6)
	assert.Len(t, inv.callsFor("data-prep"), 1)

	// Gate 1 received the prepared data as upstream context.
	designCalls := inv.callsFor("testcase-designer")
	require.Len(t, designCalls, 1)
	assert.Contains(t, designCalls[0].Upstream, "gate0")

	ps, err := store.LoadPipelineState(result.Key)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, ps.CompletedGates)
}

func TestCoordinator_SingleModeSkipsGateZero(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	scriptHappyPath(t, inv)
	coord, _ := newTestCoordinator(t, inv, nil)

	result, err := coord.Run(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, result.Status)
	assert.Empty(t, inv.callsFor("data-prep"))
}

func TestCoordinator_PartialGatesPassThrough(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	inv.script("testcase-designer", ok(t, annotatedPlan(2, 4)))
	lowConfidence := validate.ElementMap{Mappings: []validate.ElementMapping{
		{StepID: "s1", Selector: "#quantity", Confidence: 60},
		{StepID: "s2", Selector: "#checkout", Confidence: 60},
	}}
	inv.script("element-mapper", ok(t, lowConfidence))
	inv.script("code-generator", ok(t, goodCode()))
	inv.script("test-executor", ok(t, validate.ExecutionReport{
		Total:      5,
		Passed:     3,
		Failures:   []validate.FailedTest{{CaseID: "tc-1", Error: "a"}, {CaseID: "tc-2", Error: "b"}},
		ReportPath: "report.html",
	}))
	inv.script("learning-capture", ok(t, goodLearning()))

	// No healing loop wired: the execution gate's partial band is observed
	// directly instead of being escalated by the retry loop.
	store := state.NewStore(t.TempDir())
	exec := NewGateExecutor(store, inv, time.Minute, time.Minute, nil)
	coord := NewCoordinator(store, exec, nil, &StaticFetcher{Content: "<html/>"}, nil, nil)

	req := testRequest()
	req.AcceptanceCriteria = []string{"a", "b", "c", "d"}

	result, err := coord.Run(context.Background(), req)
	require.NoError(t, err)

	// Three partial gates did not halt the run; the weak aggregate metrics
	// surface as a PARTIAL final status instead.
	assert.Equal(t, state.StatusPartial, result.Status)
	assert.Equal(t, 50, result.Metrics.Coverage)
	assert.Equal(t, 60, result.Metrics.LocatorConfidence)
	assert.Equal(t, 60, result.Metrics.PassRate)
	assert.Len(t, result.Gates, 5)
	for _, g := range result.Gates {
		assert.NotEqual(t, state.GateFailed, g.Status)
	}
}

func TestCoordinator_HealingRecoversExecution(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	inv.script("testcase-designer", ok(t, goodPlan()))
	inv.script("element-mapper", ok(t, goodElements()))
	inv.script("code-generator", ok(t, goodCode()))
	inv.script("test-executor",
		ok(t, failingReport("element #checkout not found")),
		ok(t, failingReport("element #checkout not found")),
		ok(t, passingReport()),
	)
	inv.script(HealerWorker, mockReply{resp: okResp()})
	inv.script("learning-capture", ok(t, goodLearning()))
	coord, _ := newTestCoordinator(t, inv, nil)

	result, err := coord.Run(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, result.Status)
	assert.Equal(t, 1, result.HealingAttempts)
	assert.True(t, result.HealingSucceeded)
}

func TestCoordinator_CancellationBetweenGates(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	scriptHappyPath(t, inv)
	coord, store := newTestCoordinator(t, inv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := testRequest()
	_, err := coord.Run(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)

	// Abort leaves the durable record at its last value for later
	// resumption; an interrupted run is not a failed one.
	ps, err := store.LoadPipelineState(state.Key(req.Domain, req.Feature))
	require.NoError(t, err)
	assert.Equal(t, state.StatusInProgress, ps.Status)
	assert.Empty(t, ps.CompletedGates)
}

func TestCoordinator_CompilationErrorsHaltBeforeExecution(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	inv.script("testcase-designer", ok(t, goodPlan()))
	inv.script("element-mapper", ok(t, goodElements()))
	inv.script("code-generator", ok(t, validate.GeneratedCode{
		Files:             []string{"checkout.spec.ts"},
		CompilationErrors: []string{"TS2304: cannot find name 'page'"},
	}))
	coord, _ := newTestCoordinator(t, inv, nil)

	result, err := coord.Run(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, state.StatusFailed, result.Status)
	require.NotNil(t, result.FailedGate)
	assert.Equal(t, int(GateCodeGeneration), *result.FailedGate)

	// The generated code never reached the execution gate.
	assert.Empty(t, inv.callsFor("test-executor"))
	assert.Empty(t, inv.callsFor(HealerWorker))
}

func TestCoordinator_CrashRecoveryObservesDurableState(t *testing.T) {
	t.Parallel()

	inv := newMockInvoker()
	inv.script("testcase-designer", ok(t, goodPlan()))
	inv.script("element-mapper", failed("mapping crashed"))
	coord, store := newTestCoordinator(t, inv, nil)

	result, err := coord.Run(context.Background(), testRequest())
	require.NoError(t, err)
	require.Equal(t, state.StatusFailed, result.Status)

	// Everything a restarted process needs is durable: the pipeline record,
	// the completed gate's output, and the failed gate's record.
	ps, err := store.LoadPipelineState(result.Key)
	require.NoError(t, err)
	assert.Equal(t, state.StatusFailed, ps.Status)

	g1, err := store.LoadGateResult(result.Key, int(GateTestcaseDesign))
	require.NoError(t, err)
	assert.Equal(t, state.GateSuccess, g1.Status)

	g2, err := store.LoadGateResult(result.Key, int(GateElementMapping))
	require.NoError(t, err)
	assert.Equal(t, state.GateFailed, g2.Status)

	_, err = store.LoadGateResult(result.Key, int(GateCodeGeneration))
	assert.True(t, os.IsNotExist(err))
}

// annotatedPlan builds a plan whose cases cover `covered` of `criteria`
// acceptance criteria.
func annotatedPlan(covered, criteria int) validate.TestPlan {
	refs := make([]int, 0, covered)
	for i := 1; i <= covered && i <= criteria; i++ {
		refs = append(refs, i)
	}
	plan := goodPlan()
	plan.Cases[0].CriteriaRefs = refs
	return plan
}
