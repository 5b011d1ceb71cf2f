package request

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrNotPipelineRequest is returned when raw input does not describe a
// pipeline request at all (as opposed to describing one badly, which is a
// ValidationError from Validate).
var ErrNotPipelineRequest = errors.New("input is not a pipeline request")

// Classifier normalizes raw input into the canonical request shape and
// fills defaults for fields the caller omitted.
type Classifier struct {
	// Defaults seed constraints left empty by the raw input.
	DefaultMaxRuns            int
	DefaultMaxHealingAttempts int
	DefaultTimeoutSeconds     int
}

// rawRequest tolerates the loose field spellings accepted at the boundary.
type rawRequest struct {
	RequestID          string           `json:"request_id"`
	Domain             string           `json:"domain"`
	Feature            string           `json:"feature"`
	URL                string           `json:"url"`
	UserStory          string           `json:"user_story"`
	Story              string           `json:"story"`
	AcceptanceCriteria []string         `json:"acceptance_criteria"`
	Criteria           []string         `json:"criteria"`
	DataRequirements   DataRequirements `json:"data_requirements"`
	Mode               string           `json:"mode"`
	Constraints        Constraints      `json:"constraints"`
	Auth               Authentication   `json:"auth"`
}

// Classify decides whether raw JSON is a pipeline request and, if so,
// normalizes it. A request must at minimum carry a target url and either a
// feature name or a user story; anything else is ErrNotPipelineRequest.
// The request id is generated here, exactly once per run.
func (c *Classifier) Classify(raw []byte) (*PipelineRequest, error) {
	var in rawRequest
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, ErrNotPipelineRequest
	}
	if in.URL == "" || (in.Feature == "" && in.UserStory == "" && in.Story == "") {
		return nil, ErrNotPipelineRequest
	}
	return c.normalize(in), nil
}

func (c *Classifier) normalize(in rawRequest) *PipelineRequest {
	req := &PipelineRequest{
		RequestID:          in.RequestID,
		Domain:             strings.TrimSpace(in.Domain),
		Feature:            strings.TrimSpace(in.Feature),
		URL:                strings.TrimSpace(in.URL),
		UserStory:          strings.TrimSpace(in.UserStory),
		AcceptanceCriteria: in.AcceptanceCriteria,
		DataRequirements:   in.DataRequirements,
		Constraints:        in.Constraints,
		Auth:               in.Auth,
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.UserStory == "" {
		req.UserStory = strings.TrimSpace(in.Story)
	}
	if len(req.AcceptanceCriteria) == 0 {
		req.AcceptanceCriteria = in.Criteria
	}
	if req.DataRequirements.Mode == "" {
		req.DataRequirements.Mode = normalizeMode(in.Mode)
	} else {
		req.DataRequirements.Mode = normalizeMode(req.DataRequirements.Mode)
	}
	if req.Constraints.MaxRuns == 0 {
		req.Constraints.MaxRuns = c.DefaultMaxRuns
	}
	if req.Constraints.MaxHealingAttempts == 0 {
		req.Constraints.MaxHealingAttempts = c.DefaultMaxHealingAttempts
	}
	if req.Constraints.TimeoutSeconds == 0 {
		req.Constraints.TimeoutSeconds = c.DefaultTimeoutSeconds
	}
	return req
}

// normalizeMode folds the mode spellings seen in the wild into the two
// canonical values. Unknown spellings default to single.
func normalizeMode(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeDataDriven, "datadriven", "ddt", "multi", "multiple":
		return ModeDataDriven
	default:
		return ModeSingle
	}
}
