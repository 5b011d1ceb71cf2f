// Package worker defines the synchronous boundary between the pipeline and
// the external worker processes that fulfill each gate. A worker receives one
// structured JSON request on stdin and must reply with one structured JSON
// response on stdout before the gate's timeout elapses.
// Related: internal/pipeline/gate_executor.go (caller), internal/worker/command.go
// Tags: worker, invocation, rpc, timeout
package worker

import (
	"context"
	"encoding/json"
)

// Response status values a worker may report. Anything else is treated as a
// malformed response.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Meta identifies the pipeline run a request belongs to.
type Meta struct {
	RequestID string `json:"request_id"`
	Domain    string `json:"domain"`
	Feature   string `json:"feature"`
	URL       string `json:"url"`
}

// Request is the payload handed to a worker process.
type Request struct {
	Metadata Meta   `json:"metadata"`
	Gate     int    `json:"gate"`
	Worker   string `json:"worker"`
	// PageContent is the cached page HTML, set for gates that need it.
	// Workers never fetch the page themselves.
	PageContent string `json:"page_content,omitempty"`
	// Upstream maps "gateN" to the durable output of that predecessor.
	Upstream map[string]json.RawMessage `json:"upstream,omitempty"`
	// Payload carries gate-specific fields (user story, criteria, healing
	// context, ...).
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the payload a worker must produce.
type Response struct {
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	// Issues are worker self-reported problems; the validation engine judges
	// the output independently.
	Issues []string `json:"issues,omitempty"`
}

// Invoker hands a request to an external worker and blocks until a response
// is available, the context deadline passes, or the worker fails.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (*Response, error)
}
