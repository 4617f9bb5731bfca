package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/ricksonbnd/QuimIAca/config"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/analyzer"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/cache"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/chunker"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/embedding"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/extractor"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/fs"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/history"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/llm"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/persona"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/store"
	"github.com/ricksonbnd/QuimIAca/internal/port"
	"github.com/ricksonbnd/QuimIAca/internal/usecase"
)

// buildEmbedder creates the embedder selected by the config.
func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai", "":
		return embedding.NewOpenAIEmbedder(embedding.Config{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKey:    os.Getenv(cfg.Embedding.APIKeyEnv),
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			BatchSize: cfg.Embedding.BatchSize,
			Workers:   cfg.Embedding.Workers,
		})
	case "hash":
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}

func storeOptions(cfg *config.Config, embedder port.Embedder, readOnly bool) store.Options {
	return store.Options{
		IndexPath:    cfg.Paths.Index,
		MetadataPath: cfg.Paths.Metadata,
		StatusPath:   cfg.Paths.Status,
		Dimension:    embedder.Dimension(),
		Model:        embedder.ModelName(),
		NProbe:       cfg.Index.NProbe,
		ReadOnly:     readOnly,
		Logger:       GetLogger(),
	}
}

// openStore opens the vector store sized for embedder.
func openStore(cfg *config.Config, embedder port.Embedder, readOnly bool) (*store.Store, error) {
	st, err := store.Open(storeOptions(cfg, embedder, readOnly))
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	return st, nil
}

func buildCounter(cfg *config.Config) port.TokenCounter {
	return analyzer.NewCounter(cfg.Chunker.Encoding, GetLogger())
}

// buildChunker creates the chunker selected by chunker.mode.
func buildChunker(cfg *config.Config) (port.Chunker, error) {
	switch cfg.Chunker.Mode {
	case "sentence", "":
		return chunker.NewSentenceChunker(cfg.Chunker.MaxTokens, cfg.Chunker.Language, buildCounter(cfg))
	case "word":
		return chunker.NewWordChunker(cfg.Chunker.Words), nil
	default:
		return nil, fmt.Errorf("unsupported chunker mode: %s", cfg.Chunker.Mode)
	}
}

func buildLister(cfg *config.Config) *fs.Lister {
	return fs.NewLister(cfg.Paths.Includes, cfg.Paths.Excludes, cfg.Paths.Sentinel)
}

func buildIngest(cfg *config.Config, st port.ChunkStore, embedder port.Embedder) (*usecase.IngestUseCase, error) {
	chk, err := buildChunker(cfg)
	if err != nil {
		return nil, err
	}
	return usecase.NewIngestUseCase(usecase.IngestDeps{
		Store:     st,
		Lister:    buildLister(cfg),
		Extractor: extractor.NewRegistry(),
		Chunker:   chk,
		Embedder:  embedder,
		SourceDir: cfg.Paths.Sources,
		Sentinel:  cfg.Paths.Sentinel,
		Logger:    GetLogger(),
	}), nil
}

// buildRetriever wraps retrieval in the query cache when one is configured.
func buildRetriever(cfg *config.Config, st port.ChunkStore, embedder port.Embedder) port.Retriever {
	base := usecase.NewRetrieveUseCase(embedder, st, GetLogger())
	if cfg.Retrieve.CacheSize <= 0 {
		return base
	}
	qc := cache.NewQueryCache(cfg.Retrieve.CacheSize, time.Duration(cfg.Retrieve.CacheTTLSec)*time.Second)
	return cache.NewCachedRetriever(base, qc, func() uint64 { return usecase.Generation(st) })
}

func buildLLM(cfg *config.Config) (*llm.Client, error) {
	return llm.NewClient(llm.Config{
		BaseURL:     cfg.Completion.BaseURL,
		APIKey:      os.Getenv(cfg.Completion.APIKeyEnv),
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		TopP:        cfg.Completion.TopP,
		Timeout:     time.Duration(cfg.Completion.TimeoutSec) * time.Second,
	})
}

// tutorApp bundles everything a tutoring command holds open.
type tutorApp struct {
	store   *store.Store
	history *history.Log
	tutor   *usecase.TutorUseCase
}

func (a *tutorApp) Close() {
	if a.history != nil {
		a.history.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// buildTutor wires a tutor over a read-only store snapshot. The history
// log is only opened when withHistory is set.
func buildTutor(cfg *config.Config, withHistory bool) (*tutorApp, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	client, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg, embedder, true)
	if err != nil {
		return nil, err
	}
	app := &tutorApp{store: st}

	deps := usecase.TutorDeps{
		Retriever:     buildRetriever(cfg, st, embedder),
		LLM:           client,
		Templates:     persona.NewLoader(cfg.Paths.Personalities),
		Packer:        usecase.NewPackUseCase(buildCounter(cfg)),
		TopK:          cfg.Completion.TopK,
		ContextTokens: cfg.Completion.ContextTokens,
		Logger:        GetLogger(),
	}
	if withHistory {
		h, err := history.Open(cfg.Paths.History)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		app.history = h
		deps.History = h
	}
	app.tutor = usecase.NewTutorUseCase(deps)
	return app, nil
}
