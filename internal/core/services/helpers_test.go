package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/canopy-labs/canopy/internal/adapters/driven/storage/memory"
	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
)

// fixture bundles the memory stores most service tests need.
type fixture struct {
	workspaces *memory.WorkspaceStore
	sources    *memory.SourceStore
	docs       *memory.DocumentStore
	clusters   *memory.ClusterStore
	core       *memory.CoreStore
	logs       *memory.IngestionLogStore
}

func newFixture() *fixture {
	return &fixture{
		workspaces: memory.NewWorkspaceStore(),
		sources:    memory.NewSourceStore(),
		docs:       memory.NewDocumentStore(),
		clusters:   memory.NewClusterStore(),
		core:       memory.NewCoreStore(),
		logs:       memory.NewIngestionLogStore(),
	}
}

func (f *fixture) addWorkspace(ctx context.Context, name, description string) *domain.Workspace {
	ws := &domain.Workspace{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		OwnerID:     "user-1",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	_ = f.workspaces.Save(ctx, ws)
	return ws
}

func (f *fixture) addSource(ctx context.Context, workspaceID, name string) *domain.Source {
	source := &domain.Source{
		ID:                 uuid.NewString(),
		WorkspaceID:        workspaceID,
		Name:               name,
		Provider:           domain.ProviderRSS,
		Config:             map[string]string{"feed_url": "https://example.com/feed.xml"},
		Status:             domain.SourceHealthy,
		AutoPauseThreshold: domain.DefaultAutoPauseThreshold,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	_ = f.sources.Save(ctx, source)
	return source
}

func (f *fixture) addDocument(ctx context.Context, workspaceID string, embedding []float32) *domain.Document {
	now := time.Now()
	doc := &domain.Document{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Title:       "doc " + uuid.NewString()[:8],
		URL:         "https://example.com/" + uuid.NewString()[:8],
		Content:     "content",
		Embedding:   embedding,
		PublishedAt: &now,
		IngestedAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_ = f.docs.Save(ctx, doc)
	return doc
}

// fakeEmbedder returns a fixed vector for every input.
type fakeEmbedder struct {
	vector []float32
	calls  int
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func (e *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	e.calls++
	return e.vector, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		v, err := e.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (e *fakeEmbedder) Dimensions() int      { return len(e.vector) }
func (e *fakeEmbedder) ModelName() string    { return "fake" }
func (e *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (e *fakeEmbedder) Close() error         { return nil }

// stubProvider serves canned normalized documents or a fixed error.
type stubProvider struct {
	kind domain.ProviderKind
	docs []domain.NormalizedDoc
	err  error
}

var _ driven.Provider = (*stubProvider)(nil)

func (p *stubProvider) Kind() domain.ProviderKind { return p.kind }

func (p *stubProvider) Fetch(_ context.Context) ([]driven.RawPayload, error) {
	if p.err != nil {
		return nil, p.err
	}
	raws := make([]driven.RawPayload, 0, len(p.docs))
	for _, doc := range p.docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		raws = append(raws, data)
	}
	return raws, nil
}

func (p *stubProvider) Normalize(raw driven.RawPayload) (domain.NormalizedDoc, error) {
	var doc domain.NormalizedDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.NormalizedDoc{}, err
	}
	return doc, nil
}

// stubFactory hands out a fixed provider per source ID.
type stubFactory struct {
	providers map[string]*stubProvider
}

var _ driven.ProviderFactory = (*stubFactory)(nil)

func (f *stubFactory) Create(_ context.Context, source domain.Source) (driven.Provider, error) {
	provider, ok := f.providers[source.ID]
	if !ok {
		return nil, domain.ErrUnsupportedType
	}
	return provider, nil
}
