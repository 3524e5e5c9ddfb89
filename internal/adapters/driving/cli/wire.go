package cli

import (
	"fmt"

	configfile "github.com/joelmbaka/introspect/internal/adapters/driven/config/file"
	"github.com/joelmbaka/introspect/internal/adapters/driven/embedding/gemini"
	"github.com/joelmbaka/introspect/internal/adapters/driven/embedding/nvidia"
	"github.com/joelmbaka/introspect/internal/adapters/driven/entrystore/sqlite"
	"github.com/joelmbaka/introspect/internal/adapters/driven/entrystore/supabase"
	"github.com/joelmbaka/introspect/internal/adapters/driven/llm/openai"
	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/core/ports/driven"
	"github.com/joelmbaka/introspect/internal/core/services"
	"github.com/joelmbaka/introspect/internal/logger"
)

// app holds the wired service graph for one command invocation.
type app struct {
	cfg      *configfile.Config
	pipeline *services.Pipeline

	closers []func() error
}

// buildApp loads configuration and wires the pipeline with the configured
// adapters. Configuration problems fail here, before any request runs.
func buildApp() (*app, error) {
	cfg, err := configfile.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	store, err := a.buildStore()
	if err != nil {
		return nil, err
	}

	embedder, err := a.buildEmbedder()
	if err != nil {
		return nil, err
	}

	llm, err := a.buildLLM()
	if err != nil {
		return nil, err
	}

	planner := services.NewPlanner()
	if cfg.Pipeline.MinResults > 0 {
		planner.MinResults = cfg.Pipeline.MinResults
	}

	pipeline := services.NewPipeline(
		planner,
		services.NewRetrievalService(store, embedder),
		services.NewSynthesisService(llm),
	)
	pipeline.DefaultMetric = domain.Metric(cfg.Pipeline.Metric)

	a.pipeline = pipeline
	return a, nil
}

func (a *app) buildStore() (driven.EntryStore, error) {
	switch a.cfg.Store.Backend {
	case configfile.StoreSupabase:
		store, err := supabase.NewStore(supabase.Config{
			ProjectURL: a.cfg.Store.ProjectURL,
			AnonKey:    a.cfg.Store.AnonKey,
			Table:      a.cfg.Store.Table,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		logger.Info("Entry store: supabase (%s)", a.cfg.Store.ProjectURL)
		return store, nil

	case configfile.StoreSQLite:
		store, err := sqlite.NewStore(a.cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		logger.Info("Entry store: sqlite (%s)", store.Path())
		return store, nil
	}
	return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrConfiguration, a.cfg.Store.Backend)
}

func (a *app) buildEmbedder() (driven.EmbeddingService, error) {
	switch a.cfg.Embedding.Provider {
	case "":
		logger.Warn("No embedding provider configured, semantic search disabled")
		return nil, nil

	case configfile.ProviderGemini:
		svc, err := gemini.NewEmbeddingService(gemini.Config{
			APIKey:  a.cfg.Embedding.APIKey,
			Model:   a.cfg.Embedding.Model,
			BaseURL: a.cfg.Embedding.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, svc.Close)
		logger.Info("Embedding provider: gemini (%s)", svc.ModelName())
		return svc, nil

	case configfile.ProviderNVIDIA:
		svc, err := nvidia.NewEmbeddingService(nvidia.Config{
			APIKey:  a.cfg.Embedding.APIKey,
			Model:   a.cfg.Embedding.Model,
			BaseURL: a.cfg.Embedding.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, svc.Close)
		logger.Info("Embedding provider: nvidia (%s)", svc.ModelName())
		return svc, nil
	}
	return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrConfiguration, a.cfg.Embedding.Provider)
}

func (a *app) buildLLM() (driven.LLMService, error) {
	if a.cfg.LLM.APIKey == "" {
		logger.Info("No LLM configured, using deterministic synthesis")
		return nil, nil
	}

	svc, err := openai.NewLLMService(openai.Config{
		APIKey:  a.cfg.LLM.APIKey,
		Model:   a.cfg.LLM.Model,
		BaseURL: a.cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, svc.Close)
	logger.Info("LLM: %s", svc.ModelName())
	return svc, nil
}

// Close releases every wired adapter.
func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			logger.Warn("closing adapter: %v", err)
		}
	}
}
