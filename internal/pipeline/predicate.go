package pipeline

import (
	"strings"

	"github.com/forgeworks/testforge/internal/request"
)

// multiplicityTerms is the vocabulary denoting repetition or variation in a
// feature description. A match is one signal that the run needs prepared
// test data.
var multiplicityTerms = []string{
	"multiple", "various", "different", "several", "many",
	"each", "every", "varied", "combination", "combinations",
	"dataset", "datasets", "iteration", "iterations", "bulk", "batch",
}

// NeedsDataPreparation is the gate 0 decision predicate. It is a pure
// function of the request and the cached page content, evaluated exactly
// once per run before gate 1. Deterministic: identical inputs always yield
// the same answer.
//
// Fires when the request explicitly declares data-driven mode, or when the
// request text uses multiplicity vocabulary and either more than two
// acceptance criteria or a form-heavy page (>= 3 input fields) suggests
// varied inputs.
func NeedsDataPreparation(req *request.PipelineRequest, page *CachedPage) bool {
	if req.IsDataDriven() {
		return true
	}
	if !mentionsMultiplicity(req) {
		return false
	}
	if len(req.AcceptanceCriteria) > 2 {
		return true
	}
	return page != nil && page.InputFields() >= 3
}

func mentionsMultiplicity(req *request.PipelineRequest) bool {
	text := strings.ToLower(req.UserStory + " " + req.Feature + " " + strings.Join(req.AcceptanceCriteria, " "))
	for _, term := range multiplicityTerms {
		if containsWord(text, term) {
			return true
		}
	}
	return false
}

// containsWord matches term on word boundaries so "each" does not fire on
// "reachable".
func containsWord(text, term string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
