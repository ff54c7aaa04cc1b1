package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/RextonRZ/equallens-scoring/internal/authenticity"
	"github.com/RextonRZ/equallens-scoring/internal/config"
	"github.com/RextonRZ/equallens-scoring/internal/dupcheck"
	"github.com/RextonRZ/equallens-scoring/internal/interview"
	"github.com/RextonRZ/equallens-scoring/internal/linguistic"
	"github.com/RextonRZ/equallens-scoring/internal/resilience"
	"github.com/RextonRZ/equallens-scoring/internal/store"
	"github.com/RextonRZ/equallens-scoring/pkg/claude"
	"github.com/RextonRZ/equallens-scoring/pkg/gemini"
	"github.com/RextonRZ/equallens-scoring/pkg/gnl"
)

// appEnv holds the store, collaborator clients, and scoring components used
// by the score/dupscan/assess/serve commands.
type appEnv struct {
	Store   store.Store
	Scorer  *interview.Scorer // nil unless built with withLLM
	Dup     *dupcheck.Engine
	Agg     *authenticity.Aggregator
	Weights config.ScoringConfig
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// openStore opens the configured store backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEnv sets up the store and scoring components. withLLM also builds the
// response scorer and its NL/Gemini collaborators, which need API keys.
// Callers should defer env.Close().
func initEnv(ctx context.Context, withLLM bool) (*appEnv, error) {
	weights, err := loadScoringConfig()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	var writer claude.Client
	if cfg.Claude.Key != "" {
		writer = claude.NewClient(cfg.Claude.Key,
			claude.WithTimeout(time.Duration(cfg.Claude.TimeoutSecs)*time.Second),
		)
	}

	env := &appEnv{
		Store:   st,
		Dup:     dupcheck.NewEngine(weights, cfg.Limits.MaxScanWorkers),
		Agg:     authenticity.NewAggregator(weights, writer, cfg.Claude.Model),
		Weights: weights,
	}

	if withLLM {
		if cfg.Gemini.Key == "" {
			env.Close()
			return nil, eris.New("gemini.key is required for response scoring")
		}
		llm, err := gemini.NewClient(ctx, cfg.Gemini.Key, cfg.Gemini.JudgeModel, cfg.Gemini.EmbedModel, cfg.Gemini.RPM,
			gemini.WithGate(resilience.NewGate(cfg.Limits.MaxLLMConcurrency)),
			gemini.WithTimeout(time.Duration(cfg.Gemini.TimeoutSecs)*time.Second),
		)
		if err != nil {
			env.Close()
			return nil, err
		}

		annotator := gnl.NewClient(cfg.NLP.Key,
			gnl.WithBaseURL(cfg.NLP.BaseURL),
			gnl.WithTimeout(time.Duration(cfg.NLP.TimeoutSecs)*time.Second),
		)
		env.Scorer = interview.NewScorer(weights, linguistic.NewExtractor(annotator), llm)
	}

	return env, nil
}
