package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scout-cli/internal/crowd"
	"github.com/sells-group/scout-cli/internal/dedup"
	"github.com/sells-group/scout-cli/internal/industry"
	"github.com/sells-group/scout-cli/internal/normalize"
	"github.com/sells-group/scout-cli/internal/orchestrator"
	"github.com/sells-group/scout-cli/internal/pipeline"
	"github.com/sells-group/scout-cli/internal/store"
	anthropicpkg "github.com/sells-group/scout-cli/pkg/anthropic"
)

// env holds the initialized store and orchestrator used by every
// command.
type env struct {
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
	Industry     *industry.Engine
	Learner      *crowd.Learner
}

// Close releases resources held by the environment.
func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv builds the store, rule engines, scanning pipeline, and
// orchestrator from config. Callers should defer env.Close().
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	if err := st.SeedFilters(ctx, pipeline.DefaultFilterRules()); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "seed compliance filters")
	}
	if cfg.Rules.ComplianceFile != "" {
		rules, err := pipeline.LoadFilterRules(cfg.Rules.ComplianceFile)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		if err := st.SeedFilters(ctx, rules); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "seed compliance overlay")
		}
	}

	ind := industry.NewEngine()
	if cfg.Rules.IndustryFile != "" {
		if err := ind.LoadOverlay(cfg.Rules.IndustryFile); err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	var strategies pipeline.Strategies
	if cfg.Pipeline.Provider == "anthropic" {
		if cfg.Anthropic.Key == "" {
			_ = st.Close()
			return nil, eris.New("pipeline.provider is anthropic but anthropic.key is empty")
		}
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		strategies = pipeline.NewRemoteStrategies(client, pipeline.RemoteConfig{
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		})
	} else {
		strategies = pipeline.DefaultStrategies()
	}

	learner := crowd.NewLearner(st)
	orch := orchestrator.New(
		st,
		normalize.NewEngine(),
		dedup.NewResolver(st),
		pipeline.New(st, strategies),
		ind,
		learner,
		orchestrator.Options{
			HotThreshold:  cfg.Pipeline.HotThreshold,
			RatePerSecond: cfg.Pipeline.RatePerSecond,
			Workers:       cfg.Batch.MaxConcurrentJobs,
		},
	)

	return &env{Store: st, Orchestrator: orch, Industry: ind, Learner: learner}, nil
}

// initStore opens the configured backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
