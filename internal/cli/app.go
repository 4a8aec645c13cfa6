package cli

import (
	"fmt"

	"github.com/recallkit/recall/internal/config"
	"github.com/recallkit/recall/internal/logger"
	"github.com/recallkit/recall/pkg/embedding"
	"github.com/recallkit/recall/pkg/memory"
	"github.com/recallkit/recall/pkg/search"
)

// app bundles the wired components a command needs.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *memory.Store
	gateway embedding.Gateway
	engine  *search.Engine
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
	if a.log != nil {
		a.log.Close()
	}
}

// openApp loads configuration and wires the store, gateway, and engine.
func openApp() (*app, error) {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	log, err := logger.New(logger.Config{
		Level:   level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
		Pretty:  cfg.Logging.Pretty,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	store, err := memory.Open(memory.Config{
		DBPath:    cfg.Store.DBPath,
		Dimension: cfg.Store.Dimension,
		Logger:    log.Zerolog(),
	})
	if err != nil {
		log.Close()
		return nil, err
	}

	gateway, err := buildGateway(cfg)
	if err != nil {
		store.Close()
		log.Close()
		return nil, err
	}

	engine, err := search.New(search.Config{
		Store:          store,
		Index:          store,
		Vectors:        store,
		Gateway:        gateway,
		SemanticWeight: cfg.Search.SemanticWeight,
		KeywordWeight:  cfg.Search.KeywordWeight,
		TimeDecay:      cfg.Search.TimeDecay,
		HalfLifeDays:   cfg.Search.HalfLifeDays,
		Logger:         log.Zerolog(),
	})
	if err != nil {
		store.Close()
		log.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, store: store, gateway: gateway, engine: engine}, nil
}

func buildGateway(cfg *config.Config) (embedding.Gateway, error) {
	var gateway embedding.Gateway
	switch cfg.Embedding.Provider {
	case "mock":
		gateway = embedding.NewMock(cfg.Store.Dimension)
	case "openai":
		if cfg.Embedding.APIKey == "" {
			// search still works in degraded keyword-only mode
			return nil, nil
		}
		gateway = embedding.NewOpenAIGateway(cfg.Embedding.APIKey, cfg.Embedding.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}

	if cfg.Embedding.Cache {
		cached, err := embedding.NewCached(gateway, 0)
		if err != nil {
			return nil, fmt.Errorf("initialize embedding cache: %w", err)
		}
		return cached, nil
	}
	return gateway, nil
}
