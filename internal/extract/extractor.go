// Package extract fetches article pages and reduces them to plain text
// suitable for embedding. Extraction is best-effort: callers fall back to
// the provider snippet when a page cannot be fetched or parsed.
package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
	"github.com/canopy-labs/canopy/internal/providers/guard"
)

// Ensure Extractor implements the interface.
var _ driven.ContentExtractor = (*Extractor)(nil)

// MaxContentRunes caps extracted text; embedding inputs beyond this add
// cost without adding signal.
const MaxContentRunes = 10000

// Extractor fetches a URL and extracts readable text.
type Extractor struct {
	client *http.Client
}

// New creates an extractor with the default outbound policy.
func New() *Extractor {
	return NewWithClient(guard.NewClient(guard.DefaultPolicy()))
}

// NewWithClient creates an extractor with a caller-supplied client.
func NewWithClient(client *http.Client) *Extractor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Extractor{client: client}
}

// Extract fetches the URL and returns cleaned article text.
// Non-HTML responses are rejected; extraction only upgrades HTML pages.
func (e *Extractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html, application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page: HTTP %d from %s", resp.StatusCode, url)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return "", fmt.Errorf("%w: content type %q is not HTML", domain.ErrUnsupportedType, contentType)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	text, err := HTMLToText(string(body))
	if err != nil {
		return "", err
	}
	return Clean(text), nil
}

// skippedElements are subtrees that carry no article text.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"head":     true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"form":     true,
	"iframe":   true,
	"template": true,
}

// blockElements get a newline boundary so headings and paragraphs don't
// run together.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "blockquote": true, "pre": true,
	"table": true, "section": true, "article": true,
}

// HTMLToText parses HTML and returns its readable text content.
func HTMLToText(raw string) (string, error) {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedElements[n.Data] {
				return
			}
			if blockElements[n.Data] {
				sb.WriteByte('\n')
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteByte('\n')
		}
	}
	walk(root)

	return normalizeWhitespace(sb.String()), nil
}

// normalizeWhitespace collapses runs of whitespace and drops empty lines.
func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// Clean truncates text to the content cap on a word boundary.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= MaxContentRunes {
		return text
	}
	truncated := string(runes[:MaxContentRunes])
	if idx := strings.LastIndexAny(truncated, " \n"); idx > 0 {
		truncated = truncated[:idx]
	}
	return strings.TrimSpace(truncated) + "..."
}
