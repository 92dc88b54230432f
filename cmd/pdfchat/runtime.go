package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/infinitegrit26/ACD2/internal/adapters/driven/ai"
	"github.com/infinitegrit26/ACD2/internal/adapters/driven/config/file"
	"github.com/infinitegrit26/ACD2/internal/adapters/driven/storage/memory"
	"github.com/infinitegrit26/ACD2/internal/adapters/driven/storage/postgres"
	"github.com/infinitegrit26/ACD2/internal/adapters/driven/storage/sqlite"
	"github.com/infinitegrit26/ACD2/internal/adapters/driven/vector/flat"
	"github.com/infinitegrit26/ACD2/internal/adapters/driving/cli"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
	"github.com/infinitegrit26/ACD2/internal/core/services"
	"github.com/infinitegrit26/ACD2/internal/logger"
	"github.com/infinitegrit26/ACD2/internal/normalisers"
	"github.com/infinitegrit26/ACD2/internal/postprocessors"
)

// storage is the document store and the vector index it feeds.
type storage struct {
	docs  driven.DocumentStore
	index driven.VectorIndex
}

func (s *storage) Close() error {
	return errors.Join(s.index.Close(), s.docs.Close())
}

// buildRuntime wires adapters and services for one command.
func buildRuntime(ctx context.Context, cfg domain.Config) (*cli.Runtime, error) {
	dataDir := ""
	if cfg.Storage.Backend != domain.StorageMemory {
		dir, err := file.DataDir(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	aiServices, err := ai.NewServices(cfg, dataDir)
	if err != nil {
		return nil, err
	}

	store, err := openStorage(ctx, cfg, dataDir, aiServices.Embedding)
	if err != nil {
		return nil, errors.Join(err, aiServices.Close())
	}

	closeAll := func() error {
		return errors.Join(store.Close(), aiServices.Close())
	}

	vectorStore := services.NewVectorStoreService(
		store.docs, store.index, aiServices.Embedding, services.VectorStoreOptionsFromConfig(cfg),
	)
	if err := vectorStore.Load(ctx); err != nil {
		return nil, errors.Join(err, closeAll())
	}

	splitter, err := postprocessors.SplitterFromConfig(cfg)
	if err != nil {
		return nil, errors.Join(err, closeAll())
	}
	ingest := services.NewIngestService(normalisers.NewDefaultRegistry(), splitter, vectorStore)

	retrieval := services.NewRetrievalTool(vectorStore, cfg.TopK, cfg.MaxContextLength)
	agent := services.NewRoutingAgent(aiServices.LLM, retrieval, cfg.RequestTimeout)
	agent.OnStateChange(func(s domain.AgentState) {
		logger.Debug("agent: %s", s)
	})

	var prompts driven.PromptStore
	if ps, err := file.NewPromptStore(""); err != nil {
		logger.Warn("prompt files unavailable, using built-in prompts: %v", err)
	} else {
		prompts = ps
		agent.SetPromptStore(ps)
	}

	return &cli.Runtime{
		Config:    cfg,
		Store:     vectorStore,
		Ingest:    ingest,
		Retrieval: retrieval,
		Agent:     agent,
		Prompts:   prompts,
		Close:     closeAll,
	}, nil
}

// openStorage opens the configured backend. The sqlite and memory stores
// keep vectors in an in-process index; postgres searches with pgvector.
func openStorage(
	ctx context.Context,
	cfg domain.Config,
	dataDir string,
	embedder driven.EmbeddingService,
) (*storage, error) {
	switch cfg.Storage.Backend {
	case domain.StorageMemory:
		return &storage{docs: memory.NewDocumentStore(), index: flat.New(embedder.Dimensions())}, nil

	case domain.StoragePostgres:
		dims := embedder.Dimensions()
		if dims <= 0 {
			dims = domain.EmbeddingDimensions()[cfg.Embedding.Model]
		}
		pg, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN, dims)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
		return &storage{docs: pg, index: pg.Index()}, nil

	default:
		db, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
		logger.Debug("sqlite store at %s", db.Path())
		return &storage{docs: db, index: flat.New(embedder.Dimensions())}, nil
	}
}
