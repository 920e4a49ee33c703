package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canopy-labs/canopy/internal/adapters/driven/storage/memory"
	"github.com/canopy-labs/canopy/internal/core/domain"
)

func newIngestService(f *fixture, factory *stubFactory) *IngestService {
	return NewIngestService(f.workspaces, f.sources, f.docs, f.logs, factory)
}

func TestComputeHash(t *testing.T) {
	doc := domain.NormalizedDoc{
		Title:   "Go 1.24 Released",
		URL:     "https://example.com/go-1.24",
		Content: "The latest Go release brings improvements.",
	}

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, ComputeHash(doc), ComputeHash(doc))
	})

	t.Run("title case insensitive", func(t *testing.T) {
		upper := doc
		upper.Title = "GO 1.24 RELEASED"
		assert.Equal(t, ComputeHash(doc), ComputeHash(upper))
	})

	t.Run("title whitespace trimmed", func(t *testing.T) {
		padded := doc
		padded.Title = "  Go 1.24 Released  "
		assert.Equal(t, ComputeHash(doc), ComputeHash(padded))
	})

	t.Run("url changes hash", func(t *testing.T) {
		other := doc
		other.URL = "https://example.com/other"
		assert.NotEqual(t, ComputeHash(doc), ComputeHash(other))
	})

	t.Run("content beyond prefix ignored", func(t *testing.T) {
		long := doc
		for len(long.Content) < hashContentPrefix {
			long.Content += " more words to pad the content out past the hashing prefix"
		}
		longer := long
		longer.Content += " trailing footer that should not matter"
		assert.Equal(t, ComputeHash(long), ComputeHash(longer))
	})
}

func TestPersistDocumentDedup(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ws := f.addWorkspace(ctx, "ml research", "machine learning papers")
	sourceA := f.addSource(ctx, ws.ID, "feed-a")
	sourceB := f.addSource(ctx, ws.ID, "feed-b")
	svc := newIngestService(f, &stubFactory{})

	doc := domain.NormalizedDoc{
		ExternalID: "item-1",
		Title:      "Attention Is All You Need",
		URL:        "https://example.com/attention",
		Content:    "Transformer architecture paper.",
	}

	created, err := svc.PersistDocument(ctx, ws.ID, sourceA, doc)
	require.NoError(t, err)
	assert.True(t, created)

	// The same item from a second source reuses the document and links
	// the new source.
	created, err = svc.PersistDocument(ctx, ws.ID, sourceB, doc)
	require.NoError(t, err)
	assert.False(t, created)

	docs, err := f.docs.ListByWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	links, err := f.docs.ListSourceLinks(ctx, docs[0].ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

// racingDocStore simulates a concurrent ingestion winning the insert:
// the first Save lands a competing document with the same hash in the
// underlying store, then fails with a constraint error.
type racingDocStore struct {
	*memory.DocumentStore
	competitor *domain.Document
	raced      bool
}

func (s *racingDocStore) Save(ctx context.Context, doc *domain.Document) error {
	if !s.raced {
		s.raced = true
		if err := s.DocumentStore.Save(ctx, s.competitor); err != nil {
			return err
		}
		return errors.New("constraint failed: UNIQUE documents.workspace_id, documents.content_hash")
	}
	return s.DocumentStore.Save(ctx, doc)
}

func TestPersistDocumentConcurrentInsertLinksWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ws := f.addWorkspace(ctx, "ml research", "")
	source := f.addSource(ctx, ws.ID, "feed")

	doc := domain.NormalizedDoc{
		ExternalID: "item-1",
		Title:      "Attention Is All You Need",
		URL:        "https://example.com/attention",
		Content:    "Transformer architecture paper.",
	}
	docs := &racingDocStore{
		DocumentStore: f.docs,
		competitor: &domain.Document{
			ID:          "winner",
			WorkspaceID: ws.ID,
			Title:       doc.Title,
			URL:         doc.URL,
			ContentHash: ComputeHash(doc),
			IngestedAt:  time.Now(),
		},
	}
	svc := NewIngestService(f.workspaces, f.sources, docs, f.logs, &stubFactory{})

	created, err := svc.PersistDocument(ctx, ws.ID, source, doc)
	require.NoError(t, err)
	assert.False(t, created)

	// The loser links its source to the winner instead of failing.
	links, err := docs.ListSourceLinks(ctx, "winner")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, source.ID, links[0].SourceID)
}

func TestPersistDocumentRequiresURL(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ws := f.addWorkspace(ctx, "ws", "")
	source := f.addSource(ctx, ws.ID, "feed")
	svc := newIngestService(f, &stubFactory{})

	_, err := svc.PersistDocument(ctx, ws.ID, source, domain.NormalizedDoc{
		ExternalID: "item-1",
		Title:      "No URL",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), source.ID)
	assert.Contains(t, err.Error(), "item-1")
}

func TestMarkSourceErrorAutoPause(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ws := f.addWorkspace(ctx, "ws", "")
	source := f.addSource(ctx, ws.ID, "flaky")
	svc := newIngestService(f, &stubFactory{})

	fetchErr := errors.New("connection refused")
	for i := 1; i < domain.DefaultAutoPauseThreshold; i++ {
		require.NoError(t, svc.MarkSourceError(ctx, source, fetchErr))
		assert.Equal(t, domain.SourceError, source.Status, "failure %d should not pause", i)
		assert.Equal(t, i, source.ConsecutiveFailures)
	}

	// The fifth consecutive failure pauses the source.
	require.NoError(t, svc.MarkSourceError(ctx, source, fetchErr))
	assert.Equal(t, domain.SourcePaused, source.Status)
	assert.Equal(t, domain.DefaultAutoPauseThreshold, source.ConsecutiveFailures)
	assert.Equal(t, "connection refused", source.LastError)

	stored, err := f.sources.Get(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SourcePaused, stored.Status)
}

func TestIngestSourceSuccessResetsHealth(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ws := f.addWorkspace(ctx, "ws", "")
	source := f.addSource(ctx, ws.ID, "feed")

	// Pre-degrade the source; one success must restore full health.
	source.Status = domain.SourceError
	source.ConsecutiveFailures = 3
	source.LastError = "timeout"
	require.NoError(t, f.sources.Save(ctx, source))

	factory := &stubFactory{providers: map[string]*stubProvider{
		source.ID: {kind: domain.ProviderRSS, docs: []domain.NormalizedDoc{
			{ExternalID: "a", Title: "One", URL: "https://example.com/1", Content: "first"},
			{ExternalID: "b", Title: "Two", URL: "https://example.com/2", Content: "second"},
		}},
	}}
	svc := newIngestService(f, factory)

	found, created, err := svc.IngestSource(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found)
	assert.Equal(t, 2, created)

	stored, err := f.sources.Get(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceHealthy, stored.Status)
	assert.Zero(t, stored.ConsecutiveFailures)
	assert.Empty(t, stored.LastError)
	assert.False(t, stored.LastSuccessfulFetch.IsZero())

	logs, err := f.logs.ListBySource(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.IngestionSuccess, logs[0].Status)
	assert.Equal(t, 2, logs[0].DocumentsFound)
	assert.Equal(t, 2, logs[0].DocumentsCreated)
	require.NotNil(t, logs[0].FinishedAt)
}

func TestIngestSourceFetchErrorDegradesSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ws := f.addWorkspace(ctx, "ws", "")
	source := f.addSource(ctx, ws.ID, "broken")

	factory := &stubFactory{providers: map[string]*stubProvider{
		source.ID: {kind: domain.ProviderRSS, err: errors.New("HTTP 503")},
	}}
	svc := newIngestService(f, factory)

	_, _, err := svc.IngestSource(ctx, source.ID)
	require.Error(t, err)

	stored, err := f.sources.Get(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceError, stored.Status)
	assert.Equal(t, 1, stored.ConsecutiveFailures)
	assert.Contains(t, stored.LastError, "HTTP 503")

	logs, err := f.logs.ListBySource(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.IngestionError, logs[0].Status)
	assert.Contains(t, logs[0].ErrorMessage, "HTTP 503")
}

func TestIngestSourceSkipsInvalidDocuments(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ws := f.addWorkspace(ctx, "ws", "")
	source := f.addSource(ctx, ws.ID, "feed")

	factory := &stubFactory{providers: map[string]*stubProvider{
		source.ID: {kind: domain.ProviderRSS, docs: []domain.NormalizedDoc{
			{ExternalID: "good", Title: "Valid", URL: "https://example.com/valid", Content: "ok"},
			{ExternalID: "bad", Title: "Missing URL"},
		}},
	}}
	svc := newIngestService(f, factory)

	found, created, err := svc.IngestSource(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found)
	assert.Equal(t, 1, created)
}

func TestIngestWorkspaceSkipsUnhealthySources(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ws := f.addWorkspace(ctx, "ws", "")
	healthy := f.addSource(ctx, ws.ID, "a-healthy")
	paused := f.addSource(ctx, ws.ID, "b-paused")
	failing := f.addSource(ctx, ws.ID, "c-failing")

	paused.Status = domain.SourcePaused
	require.NoError(t, f.sources.Save(ctx, paused))

	factory := &stubFactory{providers: map[string]*stubProvider{
		healthy.ID: {kind: domain.ProviderRSS, docs: []domain.NormalizedDoc{
			{ExternalID: "a", Title: "One", URL: "https://example.com/1", Content: "x"},
		}},
		failing.ID: {kind: domain.ProviderRSS, err: errors.New("boom")},
	}}
	svc := newIngestService(f, factory)

	stats, err := svc.IngestWorkspace(ctx, ws.ID)
	require.NoError(t, err)

	// The paused source is skipped; the failing one counts as an error
	// without aborting the batch.
	assert.Equal(t, 1, stats.SourcesProcessed)
	assert.Equal(t, 1, stats.DocumentsFetched)
	assert.Equal(t, 1, stats.DocumentsSaved)
	assert.Equal(t, 1, stats.Errors)
}

func TestIngestWorkspaceUnknownWorkspace(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newIngestService(f, &stubFactory{})

	_, err := svc.IngestWorkspace(ctx, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResumeSource(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ws := f.addWorkspace(ctx, "ws", "")
	source := f.addSource(ctx, ws.ID, "feed")
	source.Status = domain.SourcePaused
	source.ConsecutiveFailures = 7
	source.LastError = "gone"
	require.NoError(t, f.sources.Save(ctx, source))

	svc := newIngestService(f, &stubFactory{})
	require.NoError(t, svc.ResumeSource(ctx, source.ID))

	stored, err := f.sources.Get(ctx, source.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceHealthy, stored.Status)
	assert.Zero(t, stored.ConsecutiveFailures)
	assert.Empty(t, stored.LastError)
}

func TestCleanupDocuments(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ws := f.addWorkspace(ctx, "ws", "")
	svc := newIngestService(f, &stubFactory{})

	old := f.addDocument(ctx, ws.ID, nil)
	stale := time.Now().AddDate(0, 0, -120)
	old.PublishedAt = &stale
	require.NoError(t, f.docs.Save(ctx, old))

	f.addDocument(ctx, ws.ID, nil)

	deleted, err := svc.CleanupDocuments(ctx, ws.ID, 90)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	remaining, err := f.docs.ListByWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}
