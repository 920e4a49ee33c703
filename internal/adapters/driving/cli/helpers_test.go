package cli

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/canopy-labs/canopy/internal/adapters/driven/storage/memory"
	"github.com/canopy-labs/canopy/internal/core/domain"
	"github.com/canopy-labs/canopy/internal/core/services"
	"github.com/canopy-labs/canopy/internal/providers"
)

// staticEmbedder returns the same vector for every input.
type staticEmbedder struct {
	vector []float32
}

func (e *staticEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return e.vector, nil
}

func (e *staticEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = e.vector
	}
	return out, nil
}

func (e *staticEmbedder) Dimensions() int    { return len(e.vector) }
func (e *staticEmbedder) ModelName() string  { return "static" }
func (e *staticEmbedder) Ping(_ context.Context) error { return nil }
func (e *staticEmbedder) Close() error       { return nil }

// setupTestServices wires the command package onto in-memory stores so
// PersistentPreRunE skips real backend initialisation. The returned
// cleanup restores the nil state.
func setupTestServices() func() {
	workspaces := memory.NewWorkspaceStore()
	sources := memory.NewSourceStore()
	docs := memory.NewDocumentStore()
	clusters := memory.NewClusterStore()
	core := memory.NewCoreStore()
	logs := memory.NewIngestionLogStore()

	embedder := &staticEmbedder{vector: []float32{1, 0, 0}}
	factory := providers.NewFactory()

	ingest := services.NewIngestService(workspaces, sources, docs, logs, factory)
	pipeline := services.NewDocumentPipeline(docs, nil, embedder)
	clusterSvc := services.NewClusterService(workspaces, docs, clusters)
	coreSvc := services.NewCoreService(workspaces, docs, core, embedder)
	scores := services.NewScoreService(workspaces, sources, docs, clusters, core)

	workspaceStore = workspaces
	sourceStore = sources
	docStore = docs
	clusterStore = clusters
	coreStore = core
	ingestService = ingest
	coreService = coreSvc
	clusterService = clusterSvc
	scoreService = scores
	taskRunner = services.NewTaskService(ingest, pipeline, clusterSvc, coreSvc, scores)

	return func() {
		workspaceStore = nil
		sourceStore = nil
		docStore = nil
		clusterStore = nil
		coreStore = nil
		ingestService = nil
		coreService = nil
		clusterService = nil
		scoreService = nil
		taskRunner = nil
	}
}

// seedWorkspace creates a workspace directly in the wired store.
func seedWorkspace(name string) *domain.Workspace {
	ws := &domain.Workspace{
		ID:          uuid.New().String(),
		Name:        name,
		Description: "test workspace",
		CreatedAt:   time.Now().UTC(),
	}
	_ = workspaceStore.Save(context.Background(), ws)
	return ws
}

// seedDocument creates an embedded document in the wired store.
func seedDocument(workspaceID, title string) *domain.Document {
	doc := &domain.Document{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Title:       title,
		URL:         "https://example.com/" + uuid.New().String(),
		Embedding:   []float32{1, 0, 0},
		IngestedAt:  time.Now().UTC(),
	}
	_ = docStore.Save(context.Background(), doc)
	return doc
}
