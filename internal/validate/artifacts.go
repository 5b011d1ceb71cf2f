// Package validate provides the pure validation engine applied to gate
// outputs before they are persisted. Each gate has a profile pairing a
// structural schema with a quality threshold; the engine never touches disk.
// Related: internal/pipeline/gate_executor.go (caller), internal/state (persisted Report)
// Tags: validation, gates, quality-score, referential-checks
package validate

// TestStep is a single action inside a test case.
type TestStep struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
}

// TestCase is one designed test scenario produced by the testcase-designer worker.
type TestCase struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps"`
	// CriteriaRefs are 1-based indexes into the request's acceptance criteria
	// covered by this case. Used for the coverage metric.
	CriteriaRefs []int `json:"criteria_refs,omitempty"`
}

// TestPlan is the gate 1 output payload.
type TestPlan struct {
	Cases []TestCase `json:"cases"`
}

// Coverage returns the percentage of the request's acceptance criteria
// referenced by at least one case. Plans that carry no criteria annotations
// at all get full credit; coverage only penalizes annotated plans that leave
// criteria out.
func (p *TestPlan) Coverage(criteria int) int {
	if criteria == 0 {
		return 100
	}
	covered := make(map[int]bool)
	annotated := false
	for _, c := range p.Cases {
		for _, ref := range c.CriteriaRefs {
			annotated = true
			if ref >= 1 && ref <= criteria {
				covered[ref] = true
			}
		}
	}
	if !annotated {
		return 100
	}
	return len(covered) * 100 / criteria
}

// StepIDs returns the set of all step identifiers across the plan.
func (p *TestPlan) StepIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, c := range p.Cases {
		for _, s := range c.Steps {
			ids[s.ID] = true
		}
	}
	return ids
}

// ElementMapping binds one test step to a located page element.
type ElementMapping struct {
	StepID     string `json:"step_id"`
	Selector   string `json:"selector"`
	Strategy   string `json:"strategy,omitempty"`
	Confidence int    `json:"confidence"`
}

// ElementMap is the gate 2 output payload.
type ElementMap struct {
	Mappings []ElementMapping `json:"mappings"`
}

// MeanConfidence returns the rounded mean locator confidence, 0 when empty.
func (m *ElementMap) MeanConfidence() int {
	if len(m.Mappings) == 0 {
		return 0
	}
	sum := 0
	for _, e := range m.Mappings {
		sum += e.Confidence
	}
	return (sum + len(m.Mappings)/2) / len(m.Mappings)
}

// GeneratedCode is the gate 3 output payload.
type GeneratedCode struct {
	Files             []string `json:"files"`
	CompilationErrors []string `json:"compilation_errors,omitempty"`
}

// FailedTest identifies one failing test within an execution run.
type FailedTest struct {
	CaseID string `json:"case_id"`
	Error  string `json:"error"`
}

// ExecutionReport is the gate 4 output payload for a single run.
type ExecutionReport struct {
	Total      int          `json:"total"`
	Passed     int          `json:"passed"`
	Failures   []FailedTest `json:"failures,omitempty"`
	DurationMs int64        `json:"duration_ms,omitempty"`
	ReportPath string       `json:"report_path,omitempty"`
}

// PassRate returns the percentage of passing tests, 0 when no tests ran.
func (r *ExecutionReport) PassRate() int {
	if r.Total == 0 {
		return 0
	}
	return (r.Passed*100 + r.Total/2) / r.Total
}

// AllPassed reports whether the run had tests and none failed.
func (r *ExecutionReport) AllPassed() bool {
	return r.Total > 0 && len(r.Failures) == 0 && r.Passed == r.Total
}

// DataSet is the gate 0 output payload.
type DataSet struct {
	Records []map[string]string `json:"records"`
	Seed    int64               `json:"seed,omitempty"`
}

// LearningRecord is the gate 5 output payload.
type LearningRecord struct {
	Insights  []string `json:"insights"`
	Selectors []string `json:"selectors,omitempty"`
	Path      string   `json:"path,omitempty"`
}
