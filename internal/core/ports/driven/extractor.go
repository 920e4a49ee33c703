package driven

import "context"

// ContentExtractor fetches a URL and extracts the main article text.
// It is subject to the same SSRF-deny and response-size-cap rules as
// provider fetches.
//
// Extraction is best-effort: callers treat any error as "no extraction"
// and fall back to the provider-supplied snippet.
type ContentExtractor interface {
	// Extract fetches the URL and returns cleaned article text.
	Extract(ctx context.Context, url string) (string, error)
}
