package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgeworks/testforge/internal/request"
	"github.com/forgeworks/testforge/internal/state"
	"github.com/forgeworks/testforge/internal/validate"
	"github.com/forgeworks/testforge/internal/worker"
)

// mockReply is one scripted worker response.
type mockReply struct {
	resp *worker.Response
	err  error
}

// mockInvoker scripts responses per worker name. Each invocation consumes the
// next reply in that worker's queue; the last reply repeats once the queue is
// drained.
type mockInvoker struct {
	mu      sync.Mutex
	replies map[string][]mockReply
	calls   []worker.Request
}

func newMockInvoker() *mockInvoker {
	return &mockInvoker{replies: make(map[string][]mockReply)}
}

func (m *mockInvoker) script(workerName string, replies ...mockReply) {
	m.replies[workerName] = append(m.replies[workerName], replies...)
}

func (m *mockInvoker) Invoke(_ context.Context, req worker.Request) (*worker.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	queue := m.replies[req.Worker]
	if len(queue) == 0 {
		return &worker.Response{Status: worker.StatusOK}, nil
	}
	reply := queue[0]
	if len(queue) > 1 {
		m.replies[req.Worker] = queue[1:]
	}
	return reply.resp, reply.err
}

func (m *mockInvoker) callsFor(workerName string) []worker.Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []worker.Request
	for _, c := range m.calls {
		if c.Worker == workerName {
			out = append(out, c)
		}
	}
	return out
}

func ok(t *testing.T, output interface{}) mockReply {
	t.Helper()
	data, err := json.Marshal(output)
	require.NoError(t, err)
	return mockReply{resp: &worker.Response{Status: worker.StatusOK, Output: data}}
}

func okResp() *worker.Response {
	return &worker.Response{Status: worker.StatusOK}
}

func failed(issues ...string) mockReply {
	return mockReply{resp: &worker.Response{Status: worker.StatusFailed, Issues: issues}}
}

func errReply(err error) mockReply {
	return mockReply{err: err}
}

// testRequest builds a minimal valid request for pipeline tests.
func testRequest() *request.PipelineRequest {
	return &request.PipelineRequest{
		RequestID:          "req-1",
		Domain:             "shop",
		Feature:            "checkout",
		URL:                "https://shop.example/checkout",
		UserStory:          "As a shopper I want to check out my cart",
		AcceptanceCriteria: []string{"order is placed"},
	}
}

func testRun(req *request.PipelineRequest) *Run {
	return &Run{
		Request: req,
		Key:     state.Key(req.Domain, req.Feature),
		Page:    &CachedPage{URL: req.URL, Content: "<html><input/></html>"},
	}
}

// Canonical healthy gate outputs shared by pipeline tests.

func goodPlan() validate.TestPlan {
	return validate.TestPlan{Cases: []validate.TestCase{
		{
			ID:   "tc-1",
			Name: "place order",
			Steps: []validate.TestStep{
				{ID: "s1", Action: "fill", Target: "quantity", Value: "1"},
				{ID: "s2", Action: "click", Target: "checkout"},
			},
			CriteriaRefs: []int{1},
		},
	}}
}

func goodElements() validate.ElementMap {
	return validate.ElementMap{Mappings: []validate.ElementMapping{
		{StepID: "s1", Selector: "#quantity", Strategy: "css", Confidence: 90},
		{StepID: "s2", Selector: "#checkout", Strategy: "css", Confidence: 90},
	}}
}

func goodCode() validate.GeneratedCode {
	return validate.GeneratedCode{Files: []string{"checkout.spec.ts"}}
}

func passingReport() validate.ExecutionReport {
	return validate.ExecutionReport{Total: 2, Passed: 2, ReportPath: "report.html"}
}

func failingReport(errText string) validate.ExecutionReport {
	return validate.ExecutionReport{
		Total:      2,
		Passed:     1,
		Failures:   []validate.FailedTest{{CaseID: "tc-1", Error: errText}},
		ReportPath: "report.html",
	}
}

func goodLearning() validate.LearningRecord {
	return validate.LearningRecord{Insights: []string{"prefer data-testid selectors"}, Path: "learnings.json"}
}
