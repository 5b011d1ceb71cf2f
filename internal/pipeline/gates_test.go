package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]Gate{GateTestcaseDesign, GateElementMapping, GateCodeGeneration, GateExecution, GateLearning},
		sequence(false))
	assert.Equal(t,
		[]Gate{GateDataPrep, GateTestcaseDesign, GateElementMapping, GateCodeGeneration, GateExecution, GateLearning},
		sequence(true))
}

func TestPredecessors(t *testing.T) {
	tests := map[string]struct {
		gate         Gate
		withDataPrep bool
		want         []Gate
	}{
		"data prep has none":              {gate: GateDataPrep, withDataPrep: true, want: nil},
		"design depends on data prep":     {gate: GateTestcaseDesign, withDataPrep: true, want: []Gate{GateDataPrep}},
		"design standalone":               {gate: GateTestcaseDesign, withDataPrep: false, want: nil},
		"mapping needs the plan":          {gate: GateElementMapping, withDataPrep: false, want: []Gate{GateTestcaseDesign}},
		"generation needs plan and map":   {gate: GateCodeGeneration, withDataPrep: false, want: []Gate{GateTestcaseDesign, GateElementMapping}},
		"execution needs generated code":  {gate: GateExecution, withDataPrep: false, want: []Gate{GateCodeGeneration}},
		"learning needs execution report": {gate: GateLearning, withDataPrep: false, want: []Gate{GateExecution}},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, predecessors(tc.gate, tc.withDataPrep))
		})
	}
}

func TestGateNamesAndWorkers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "execution", GateExecution.String())
	assert.Equal(t, "test-executor", GateExecution.WorkerName())
	assert.Equal(t, "gate-9", Gate(9).String())
}

func TestNeedsPage(t *testing.T) {
	t.Parallel()

	assert.True(t, GateDataPrep.NeedsPage())
	assert.True(t, GateTestcaseDesign.NeedsPage())
	assert.True(t, GateElementMapping.NeedsPage())
	assert.False(t, GateCodeGeneration.NeedsPage())
	assert.False(t, GateExecution.NeedsPage())
	assert.False(t, GateLearning.NeedsPage())
}

func TestDeliverableGates(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]Gate{GateTestcaseDesign, GateElementMapping, GateCodeGeneration, GateExecution},
		deliverableGates(false))
	assert.Contains(t, deliverableGates(true), GateDataPrep)
}
