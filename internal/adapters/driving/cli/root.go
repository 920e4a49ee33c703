// Package cli implements the canopy command-line interface using cobra.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/canopy-labs/canopy/internal/adapters/driven/config/file"
	"github.com/canopy-labs/canopy/internal/adapters/driven/embedding/ollama"
	"github.com/canopy-labs/canopy/internal/adapters/driven/embedding/openai"
	"github.com/canopy-labs/canopy/internal/adapters/driven/storage/sqlite"
	"github.com/canopy-labs/canopy/internal/core/ports/driven"
	"github.com/canopy-labs/canopy/internal/core/ports/driving"
	"github.com/canopy-labs/canopy/internal/core/services"
	"github.com/canopy-labs/canopy/internal/extract"
	"github.com/canopy-labs/canopy/internal/logger"
	"github.com/canopy-labs/canopy/internal/providers"
	"github.com/canopy-labs/canopy/internal/providers/guard"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	verboseFlag bool
	configDir   string
	dataDir     string
)

// Services wired by initServices. Commands check for nil so the package
// stays testable without a full backend.
var (
	configStore    driven.ConfigStore
	store          *sqlite.Store
	workspaceStore driven.WorkspaceStore
	sourceStore    driven.SourceStore
	docStore       driven.DocumentStore
	clusterStore   driven.ClusterStore
	coreStore      driven.CoreStore
	ingestService  driving.IngestOrchestrator
	coreService    driving.CoreService
	clusterService driving.ClusterService
	scoreService   driving.ScoreService
	taskRunner     driving.TaskRunner
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Track the evolving core of your research interests",
	Long: `Canopy ingests content from feeds you configure, embeds and clusters
it, and scores every document against the evolving core of a research
workspace. Vote on documents to steer the core; scores follow.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		// Help and version need no backend.
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default ~/.canopy)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default ~/.canopy/data)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices wires the storage, provider and service graph.
// Idempotent: a second call is a no-op so tests can pre-wire fakes.
func initServices() error {
	if taskRunner != nil {
		return nil
	}

	var err error
	configStore, err = file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	store, err = sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	workspaceStore = store.WorkspaceStore()
	sourceStore = store.SourceStore()
	docStore = store.DocumentStore()
	clusterStore = store.ClusterStore()
	coreStore = store.CoreStore()
	logStore := store.IngestionLogStore()

	embedder, err := newEmbedder(configStore)
	if err != nil {
		return err
	}

	client := guard.NewClient(guardPolicyFromConfig(configStore))
	factory := providers.NewFactoryWithClient(client)
	extractor := extract.NewWithClient(client)

	ingest := services.NewIngestService(workspaceStore, sourceStore, docStore, logStore, factory)
	pipeline := services.NewDocumentPipeline(docStore, extractor, embedder)
	clusters := services.NewClusterService(workspaceStore, docStore, clusterStore)
	if threshold := configStore.GetFloat("cluster.threshold"); threshold > 0 {
		clusters.SetThreshold(threshold)
	}
	core := services.NewCoreService(workspaceStore, docStore, coreStore, embedder)
	scores := services.NewScoreService(workspaceStore, sourceStore, docStore, clusterStore, coreStore)
	scores.SetWeights(relevanceWeightsFromConfig(configStore))
	if days := configStore.GetInt("score.window_days"); days > 0 {
		scores.SetWindowDays(days)
	}

	ingestService = ingest
	coreService = core
	clusterService = clusters
	scoreService = scores
	taskRunner = services.NewTaskService(ingest, pipeline, clusters, core, scores)

	return nil
}

// relevanceWeightsFromConfig overlays configured relevance weights on
// the defaults. Unset or non-positive values keep the default split.
func relevanceWeightsFromConfig(cfg driven.ConfigStore) services.RelevanceWeights {
	weights := services.DefaultRelevanceWeights()
	if w := cfg.GetFloat("score.weight_alignment"); w > 0 {
		weights.Alignment = w
	}
	if w := cfg.GetFloat("score.weight_velocity"); w > 0 {
		weights.Velocity = w
	}
	if w := cfg.GetFloat("score.weight_bias"); w > 0 {
		weights.Bias = w
	}
	return weights
}

// guardPolicyFromConfig builds the outbound HTTP policy for provider and
// extraction fetches. Unset values fall back to the guard defaults.
func guardPolicyFromConfig(cfg driven.ConfigStore) guard.Policy {
	return guard.Policy{
		Timeout:      time.Duration(cfg.GetInt("http.timeout_seconds")) * time.Second,
		MaxBodyBytes: int64(cfg.GetInt("http.max_body_bytes")),
	}
}

// newEmbedder builds the embedding backend from configuration.
// Ollama is the default; set embedding.provider = "openai" to switch.
func newEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	switch provider := cfg.GetString("embedding.provider"); provider {
	case "openai":
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.GetString("embedding.api_key"),
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
		if err != nil {
			return nil, fmt.Errorf("configuring openai embeddings: %w", err)
		}
		return svc, nil
	case "", "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
