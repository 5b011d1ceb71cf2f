package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestPlanCoverage(t *testing.T) {
	tests := map[string]struct {
		plan     TestPlan
		criteria int
		want     int
	}{
		"no criteria means full coverage": {
			plan:     TestPlan{},
			criteria: 0,
			want:     100,
		},
		"unannotated plan gets full credit": {
			plan: TestPlan{Cases: []TestCase{
				{ID: "tc-1", Steps: []TestStep{{ID: "s1"}}},
			}},
			criteria: 3,
			want:     100,
		},
		"annotated plan is measured": {
			plan: TestPlan{Cases: []TestCase{
				{ID: "tc-1", CriteriaRefs: []int{1, 2}},
			}},
			criteria: 4,
			want:     50,
		},
		"out of range refs do not count": {
			plan: TestPlan{Cases: []TestCase{
				{ID: "tc-1", CriteriaRefs: []int{0, 7, 1}},
			}},
			criteria: 2,
			want:     50,
		},
		"duplicate refs count once": {
			plan: TestPlan{Cases: []TestCase{
				{ID: "tc-1", CriteriaRefs: []int{1}},
				{ID: "tc-2", CriteriaRefs: []int{1}},
			}},
			criteria: 2,
			want:     50,
		},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.plan.Coverage(tc.criteria))
		})
	}
}

func TestElementMapMeanConfidence(t *testing.T) {
	t.Parallel()

	empty := ElementMap{}
	assert.Equal(t, 0, empty.MeanConfidence())

	em := ElementMap{Mappings: []ElementMapping{
		{StepID: "s1", Confidence: 70},
		{StepID: "s2", Confidence: 81},
	}}
	assert.Equal(t, 76, em.MeanConfidence())
}

func TestExecutionReportPassRate(t *testing.T) {
	t.Parallel()

	zero := ExecutionReport{}
	assert.Equal(t, 0, zero.PassRate())
	assert.False(t, zero.AllPassed())

	er := ExecutionReport{Total: 3, Passed: 2, Failures: []FailedTest{{CaseID: "tc-3", Error: "timeout"}}}
	assert.Equal(t, 67, er.PassRate())
	assert.False(t, er.AllPassed())

	ok := ExecutionReport{Total: 3, Passed: 3}
	assert.True(t, ok.AllPassed())
}

func TestTestPlanStepIDs(t *testing.T) {
	t.Parallel()

	plan := TestPlan{Cases: []TestCase{
		{ID: "tc-1", Steps: []TestStep{{ID: "s1"}, {ID: "s2"}}},
		{ID: "tc-2", Steps: []TestStep{{ID: "s3"}}},
	}}

	ids := plan.StepIDs()
	assert.Len(t, ids, 3)
	assert.True(t, ids["s2"])
	assert.False(t, ids["s9"])
}
