package pipeline

import (
	"encoding/json"

	"github.com/forgeworks/testforge/internal/state"
	"github.com/forgeworks/testforge/internal/validate"
)

// QualityMetrics is the final audit's aggregate view of a run, computed only
// from the durable gate records.
type QualityMetrics struct {
	// Coverage is the share of acceptance criteria the test plan references.
	Coverage int `json:"coverage"`
	// LocatorConfidence is the mean element-mapping confidence.
	LocatorConfidence int `json:"locator_confidence"`
	// PassRate is the final execution run's passing percentage.
	PassRate int `json:"pass_rate"`
	// Compiles reports whether the generated code compiled cleanly.
	Compiles bool `json:"compiles"`
	// OverallScore is the equal-weight mean of coverage, locator confidence,
	// compilation (100 or 0), and pass rate.
	OverallScore int `json:"overall_score"`
}

// ComputeMetrics derives the audit metrics from persisted gate results.
// Missing or undecodable records contribute zero to their component.
func ComputeMetrics(store *state.Store, key string, criteria int) QualityMetrics {
	var m QualityMetrics

	if res, err := store.LoadGateResult(key, int(GateTestcaseDesign)); err == nil {
		var plan validate.TestPlan
		if json.Unmarshal(res.Output, &plan) == nil {
			m.Coverage = plan.Coverage(criteria)
		}
	}

	if res, err := store.LoadGateResult(key, int(GateElementMapping)); err == nil {
		var em validate.ElementMap
		if json.Unmarshal(res.Output, &em) == nil {
			m.LocatorConfidence = em.MeanConfidence()
		}
	}

	if res, err := store.LoadGateResult(key, int(GateCodeGeneration)); err == nil {
		var gc validate.GeneratedCode
		if json.Unmarshal(res.Output, &gc) == nil {
			m.Compiles = len(gc.CompilationErrors) == 0 && len(gc.Files) > 0
		}
	}

	if res, err := store.LoadGateResult(key, int(GateExecution)); err == nil {
		var er validate.ExecutionReport
		if json.Unmarshal(res.Output, &er) == nil {
			m.PassRate = er.PassRate()
		}
	}

	compileScore := 0
	if m.Compiles {
		compileScore = 100
	}
	sum := m.Coverage + m.LocatorConfidence + compileScore + m.PassRate
	m.OverallScore = (sum + 2) / 4

	return m
}

// AuditStatus maps the audit metrics to the run's terminal status. The audit
// preconditions must already hold; callers that reach this point with an
// incomplete run report FAILED without consulting the score.
func AuditStatus(m QualityMetrics) state.Status {
	switch {
	case m.OverallScore >= validate.DefaultPassThreshold:
		return state.StatusSuccess
	case m.OverallScore >= validate.DefaultPartialThreshold:
		return state.StatusPartial
	default:
		return state.StatusFailed
	}
}
