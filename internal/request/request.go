// Package request defines the canonical pipeline request and the classifier
// that turns raw input into it. A request is immutable once accepted; the
// fast-fail validation here runs before any durable state is created.
// Related: internal/pipeline/coordinator.go, internal/request/classifier.go
// Tags: request, classification, validation, normalization
package request

import (
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
)

// Data requirement modes.
const (
	ModeSingle     = "single"
	ModeDataDriven = "data-driven"
)

// DataRequirements describes whether a run is single-shot or data-driven.
type DataRequirements struct {
	Mode  string `json:"mode" validate:"omitempty,oneof=single data-driven"`
	Count int    `json:"count" validate:"min=0"`
	Seed  int64  `json:"seed"`
}

// Constraints bounds a run's execution behavior.
type Constraints struct {
	TimeoutSeconds     int      `json:"timeout_seconds" validate:"min=0"`
	MaxRuns            int      `json:"max_runs" validate:"min=0,max=20"`
	MaxHealingAttempts int      `json:"max_healing_attempts" validate:"min=0,max=10"`
	Browsers           []string `json:"browsers"`
}

// Authentication describes how workers should authenticate against the
// target application. Opaque to the coordinator.
type Authentication struct {
	Kind     string `json:"kind,omitempty"`
	Username string `json:"username,omitempty"`
	Secret   string `json:"secret,omitempty"`
}

// PipelineRequest is the canonical, immutable input of a pipeline run.
type PipelineRequest struct {
	RequestID          string           `json:"request_id" validate:"required"`
	Domain             string           `json:"domain" validate:"required"`
	Feature            string           `json:"feature" validate:"required"`
	URL                string           `json:"url" validate:"required,url"`
	UserStory          string           `json:"user_story" validate:"required"`
	AcceptanceCriteria []string         `json:"acceptance_criteria" validate:"required,min=1,dive,required"`
	DataRequirements   DataRequirements `json:"data_requirements"`
	Constraints        Constraints      `json:"constraints"`
	Auth               Authentication   `json:"auth,omitempty"`
}

// ValidationError is the fatal input-validation failure: zero retries, no
// state is created.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid pipeline request: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid pipeline request: %d problems, first: %s", len(e.Problems), e.Problems[0])
}

var structValidator = validator.New()

// Validate checks the request's input constraints. It returns a
// *ValidationError naming each violated constraint.
func (r *PipelineRequest) Validate() error {
	var problems []string

	if err := structValidator.Struct(r); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("field %s violates %q", fe.Field(), fe.Tag()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}

	// The url tag accepts some shapes a worker cannot navigate to; require an
	// absolute http(s) URL explicitly.
	if u, err := url.Parse(r.URL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, fmt.Sprintf("url %q is not an absolute URL", r.URL))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsDataDriven reports whether the request explicitly declares data-driven
// mode.
func (r *PipelineRequest) IsDataDriven() bool {
	return r.DataRequirements.Mode == ModeDataDriven
}
