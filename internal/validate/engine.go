package validate

import (
	"encoding/json"
	"fmt"
)

// Report is the outcome of validating one gate output.
// Passed is true exactly when Issues is empty; Score is always in [0,100].
type Report struct {
	Score  int      `json:"score"`
	Issues []string `json:"issues"`
	Passed bool     `json:"passed"`
}

// Profile pairs a gate's structural checks with its score thresholds.
type Profile struct {
	Gate             int
	PassThreshold    int
	PartialThreshold int
	check            func(output json.RawMessage, upstream Upstream) (int, []string)
}

// Upstream carries the decoded predecessor outputs a profile may check
// referential consistency against. Fields are nil when not applicable.
type Upstream struct {
	Plan     *TestPlan
	Elements *ElementMap
	Code     *GeneratedCode
	// Criteria is the request's acceptance criteria count, for coverage checks.
	Criteria int
	// RequestedRecords is the data-driven record count the request asked for.
	RequestedRecords int
}

// ForGate returns the validation profile for a gate index.
// Unknown gates get a permissive structural profile.
func ForGate(gate int) Profile {
	p := Profile{Gate: gate, PassThreshold: DefaultPassThreshold, PartialThreshold: DefaultPartialThreshold}
	switch gate {
	case 0:
		p.check = checkDataSet
	case 1:
		p.check = checkTestPlan
	case 2:
		p.check = checkElementMap
	case 3:
		p.check = checkGeneratedCode
	case 4:
		p.check = checkExecutionReport
	case 5:
		p.check = checkLearningRecord
	default:
		p.check = func(json.RawMessage, Upstream) (int, []string) { return 100, nil }
	}
	return p
}

// Default score thresholds shared by all gates: passed outputs scoring below
// the pass threshold but at or above the partial threshold are PARTIAL.
const (
	DefaultPassThreshold    = 70
	DefaultPartialThreshold = 50
)

// Run validates a gate output against its profile. It is pure: identical
// inputs always produce an identical report.
func Run(profile Profile, output json.RawMessage, upstream Upstream) Report {
	if len(output) == 0 {
		return Report{Score: 0, Issues: []string{"empty output"}, Passed: false}
	}
	score, issues := profile.check(output, upstream)
	return Report{
		Score:  clampScore(score),
		Issues: issues,
		Passed: len(issues) == 0,
	}
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// decode unmarshals strictly enough to catch malformed payloads while
// tolerating extra fields workers may attach.
func decode(raw json.RawMessage, v interface{}) error {
	return json.Unmarshal(raw, v)
}

func checkDataSet(raw json.RawMessage, up Upstream) (int, []string) {
	var ds DataSet
	if err := decode(raw, &ds); err != nil {
		return 0, []string{fmt.Sprintf("malformed data set: %v", err)}
	}
	if len(ds.Records) == 0 {
		return 0, []string{"data set contains no records"}
	}
	if up.RequestedRecords > 0 && len(ds.Records) < up.RequestedRecords {
		// Short data sets degrade quality but are still usable.
		return len(ds.Records) * 100 / up.RequestedRecords, nil
	}
	return 100, nil
}

func checkTestPlan(raw json.RawMessage, up Upstream) (int, []string) {
	var plan TestPlan
	if err := decode(raw, &plan); err != nil {
		return 0, []string{fmt.Sprintf("malformed test plan: %v", err)}
	}
	var issues []string
	if len(plan.Cases) == 0 {
		return 0, []string{"test plan contains no test cases"}
	}
	for i, c := range plan.Cases {
		if c.ID == "" {
			issues = append(issues, fmt.Sprintf("case %d has no identifier", i+1))
		}
		if len(c.Steps) == 0 {
			issues = append(issues, fmt.Sprintf("case %q has no steps", c.ID))
		}
	}
	return plan.Coverage(up.Criteria), issues
}

func checkElementMap(raw json.RawMessage, up Upstream) (int, []string) {
	var em ElementMap
	if err := decode(raw, &em); err != nil {
		return 0, []string{fmt.Sprintf("malformed element map: %v", err)}
	}
	var issues []string
	mapped := make(map[string]bool)
	for _, e := range em.Mappings {
		if e.Selector == "" {
			issues = append(issues, fmt.Sprintf("mapping for step %q has an empty selector", e.StepID))
		}
		mapped[e.StepID] = true
	}
	if up.Plan != nil {
		planSteps := up.Plan.StepIDs()
		for id := range planSteps {
			if !mapped[id] {
				issues = append(issues, fmt.Sprintf("test step %q has no element mapping", id))
			}
		}
		for id := range mapped {
			if !planSteps[id] {
				issues = append(issues, fmt.Sprintf("mapping references unknown test step %q", id))
			}
		}
	}
	if len(em.Mappings) == 0 {
		return 0, append(issues, "element map contains no mappings")
	}
	// The mean locator confidence is the quality score for this gate; the
	// 70-point pass threshold enforces the minimum mean confidence.
	return em.MeanConfidence(), issues
}

func checkGeneratedCode(raw json.RawMessage, _ Upstream) (int, []string) {
	var gc GeneratedCode
	if err := decode(raw, &gc); err != nil {
		return 0, []string{fmt.Sprintf("malformed code generation output: %v", err)}
	}
	var issues []string
	if len(gc.Files) == 0 {
		issues = append(issues, "no generated files reported")
	}
	for _, ce := range gc.CompilationErrors {
		issues = append(issues, "compilation error: "+ce)
	}
	return 100 - 25*len(gc.CompilationErrors), issues
}

func checkExecutionReport(raw json.RawMessage, _ Upstream) (int, []string) {
	var er ExecutionReport
	if err := decode(raw, &er); err != nil {
		return 0, []string{fmt.Sprintf("malformed execution report: %v", err)}
	}
	var issues []string
	if er.Total == 0 {
		issues = append(issues, "execution report covers no tests")
	}
	if er.Passed+len(er.Failures) > er.Total {
		issues = append(issues, "execution report totals are inconsistent")
	}
	// Failing tests are not validation issues: the healing loop owns them.
	return er.PassRate(), issues
}

func checkLearningRecord(raw json.RawMessage, _ Upstream) (int, []string) {
	var lr LearningRecord
	if err := decode(raw, &lr); err != nil {
		return 0, []string{fmt.Sprintf("malformed learning record: %v", err)}
	}
	if len(lr.Insights) == 0 {
		return DefaultPartialThreshold, nil
	}
	return 100, nil
}
