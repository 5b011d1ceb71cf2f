// Package pipeline contains the coordination engine: the gate state machine,
// per-gate execution with validation gating, the self-healing retry loop
// around the execution gate, and the final quality audit.
// Related: internal/state (durable records), internal/worker (invocation
// boundary), internal/validate (gate profiles)
// Tags: pipeline, coordinator, gates, healing, state-machine
package pipeline

import "fmt"

// Gate indexes the fixed processing stages. GateDataPrep is conditional; the
// rest always run in order.
type Gate int

const (
	GateDataPrep Gate = iota
	GateTestcaseDesign
	GateElementMapping
	GateCodeGeneration
	GateExecution
	GateLearning
)

// gateCount is the number of defined gates.
const gateCount = 6

var gateNames = [gateCount]string{
	"data-prep",
	"testcase-design",
	"element-mapping",
	"code-generation",
	"execution",
	"learning",
}

var gateWorkers = [gateCount]string{
	"data-prep",
	"testcase-designer",
	"element-mapper",
	"code-generator",
	"test-executor",
	"learning-capture",
}

// HealerWorker is the worker invoked between execution runs by the healing
// loop. It is not a gate of its own.
const HealerWorker = "healer"

func (g Gate) String() string {
	if g < 0 || int(g) >= gateCount {
		return fmt.Sprintf("gate-%d", int(g))
	}
	return gateNames[g]
}

// WorkerName returns the external worker fulfilling this gate.
func (g Gate) WorkerName() string {
	return gateWorkers[g]
}

// NeedsPage reports whether the gate's worker receives the cached page
// content. Gates never fetch the page themselves.
func (g Gate) NeedsPage() bool {
	switch g {
	case GateDataPrep, GateTestcaseDesign, GateElementMapping:
		return true
	}
	return false
}

// predecessors returns the gates whose durable output this gate consumes.
// withDataPrep reflects whether gate 0 was taken for this run; gate 1 only
// depends on it when it ran.
func predecessors(g Gate, withDataPrep bool) []Gate {
	switch g {
	case GateDataPrep:
		return nil
	case GateTestcaseDesign:
		if withDataPrep {
			return []Gate{GateDataPrep}
		}
		return nil
	case GateElementMapping:
		return []Gate{GateTestcaseDesign}
	case GateCodeGeneration:
		return []Gate{GateTestcaseDesign, GateElementMapping}
	case GateExecution:
		return []Gate{GateCodeGeneration}
	case GateLearning:
		return []Gate{GateExecution}
	}
	return nil
}

// sequence returns the canonical gate order for a run.
func sequence(withDataPrep bool) []Gate {
	gates := []Gate{GateTestcaseDesign, GateElementMapping, GateCodeGeneration, GateExecution, GateLearning}
	if withDataPrep {
		return append([]Gate{GateDataPrep}, gates...)
	}
	return gates
}

// deliverableGates are the gates expected to produce a deliverable artifact.
// FINAL_AUDIT reconciles that each of them actually did.
func deliverableGates(withDataPrep bool) []Gate {
	gates := []Gate{GateTestcaseDesign, GateElementMapping, GateCodeGeneration, GateExecution}
	if withDataPrep {
		return append([]Gate{GateDataPrep}, gates...)
	}
	return gates
}
