package services

import (
	"context"
	"fmt"
	"time"

	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
	"github.com/canopy-labs/canopy/internal/logger"
)

// minContentLength is the snippet size below which the pipeline tries
// re-extracting the full article from the document URL.
const minContentLength = 200

// DocumentPipeline runs the per-document preparation steps: content
// extraction and embedding. Steps are strictly sequential so embedding
// observes the persisted extraction result.
type DocumentPipeline struct {
	docStore  driven.DocumentStore
	extractor driven.ContentExtractor
	embedder  driven.EmbeddingService
}

// NewDocumentPipeline creates a document pipeline.
// The extractor is optional; when nil, provider snippets are used as-is.
func NewDocumentPipeline(
	docStore driven.DocumentStore,
	extractor driven.ContentExtractor,
	embedder driven.EmbeddingService,
) *DocumentPipeline {
	return &DocumentPipeline{
		docStore:  docStore,
		extractor: extractor,
		embedder:  embedder,
	}
}

// ExtractAndEmbed upgrades a short provider snippet to extracted article
// text where possible, then computes and persists the embedding.
// Extraction failures fall back to the snippet; embedding failures
// propagate.
func (p *DocumentPipeline) ExtractAndEmbed(ctx context.Context, documentID string) error {
	doc, err := p.docStore.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	if p.extractor != nil && doc.URL != "" && len(doc.Content) < minContentLength {
		extracted, err := p.extractor.Extract(ctx, doc.URL)
		if err != nil {
			logger.Debug("Extraction failed for %s, keeping snippet: %v", doc.URL, err)
		} else if len(extracted) > len(doc.Content) {
			doc.Content = extracted
		}
	}

	if p.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	text := doc.Title + "\n\n" + doc.Content
	embedding, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}

	doc.Embedding = embedding
	doc.UpdatedAt = time.Now()
	if err := p.docStore.Save(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}
