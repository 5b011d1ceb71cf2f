package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CachedPage is the page content fetched exactly once during PRE_PROCESSING
// and shared by reference with every gate that needs it.
type CachedPage struct {
	URL       string
	Content   string
	FetchedAt time.Time
}

// InputFields counts the form controls the page exposes. Used by the gate 0
// decision predicate; deliberately a cheap textual count, not a DOM parse.
func (p *CachedPage) InputFields() int {
	lower := strings.ToLower(p.Content)
	return strings.Count(lower, "<input") +
		strings.Count(lower, "<select") +
		strings.Count(lower, "<textarea")
}

// PageFetcher retrieves page content for PRE_PROCESSING.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*CachedPage, error)
}

// HTTPFetcher fetches pages with a plain GET.
type HTTPFetcher struct {
	Client *http.Client
	// MaxBytes caps how much of the page body is cached. Zero means 2 MiB.
	MaxBytes int64
}

const defaultMaxPageBytes = 2 << 20

// Fetch performs the single page fetch for a run.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*CachedPage, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = defaultMaxPageBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	return &CachedPage{URL: url, Content: string(body), FetchedAt: time.Now()}, nil
}

// StaticFetcher serves fixed content; used in tests and offline runs.
type StaticFetcher struct {
	Content string
	Err     error
}

func (f *StaticFetcher) Fetch(_ context.Context, url string) (*CachedPage, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &CachedPage{URL: url, Content: f.Content, FetchedAt: time.Now()}, nil
}

// Compile-time interface compliance checks.
var (
	_ PageFetcher = (*HTTPFetcher)(nil)
	_ PageFetcher = (*StaticFetcher)(nil)
)
