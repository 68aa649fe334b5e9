package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Rithesh077/IMSLegitimacyEngine/internal/ai"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/cache"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/config"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/enrich"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/lookup"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/pipeline"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/report"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/store"
	"github.com/Rithesh077/IMSLegitimacyEngine/internal/websearch"
	"github.com/Rithesh077/IMSLegitimacyEngine/pkg/duckduckgo"
	"github.com/Rithesh077/IMSLegitimacyEngine/pkg/pdl"
)

// engineEnv bundles the wired verification engine for a command's lifetime.
type engineEnv struct {
	Store  store.Store
	Orch   *pipeline.Orchestrator
	Tasks  *ai.Tasks
	runner *pipeline.BackgroundRunner
}

// Close drains the background queue before releasing the store, so
// in-flight finalizations always land.
func (e *engineEnv) Close() {
	if e.runner != nil {
		e.runner.Drain()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initEngine wires every component from config. When withRunner is false
// the orchestrator runs without a background queue and callers finalize
// inline.
func initEngine(ctx context.Context, withRunner bool) (*engineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	c := cache.New(ctx, cfg.Cache.RedisURL)

	ddg := duckduckgo.NewClient(
		duckduckgo.WithBaseURL(cfg.Search.BaseURL),
		duckduckgo.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Search.TimeoutSecs) * time.Second}),
		duckduckgo.WithRetry(
			cfg.Search.Retries,
			time.Duration(cfg.Search.BaseDelaySecs*float64(time.Second)),
			time.Duration(cfg.Search.DelayIncrement*float64(time.Second)),
		),
		duckduckgo.WithRateLimit(cfg.Search.RatePerSec),
	)
	verifier := websearch.NewVerifier(ddg, cfg.Scoring, cfg.Search.MaxResults)

	enricher := enrich.NewProvider(pdl.NewClient(cfg.Enrich.Key, pdl.WithBaseURL(cfg.Enrich.BaseURL)))
	engine := lookup.NewEngine(verifier, enricher, c, cfg.Scoring)

	keys := config.CollectAIKeys(cfg.AI)
	models := []string{cfg.AI.HaikuModel, cfg.AI.SonnetModel, cfg.AI.OpusModel}
	adapter := ai.NewAdapter(keys, models, c,
		ai.WithTimeout(time.Duration(cfg.AI.TimeoutSecs)*time.Second),
		ai.WithCacheTTL(time.Duration(cfg.AI.CacheTTLHours)*time.Hour),
	)
	if !adapter.Ready() {
		zap.L().Warn("no AI keys configured, verifications fall back to rule scores")
	}
	tasks := ai.NewTasks(adapter)

	renderer := report.NewRenderer(cfg.Report.Dir)
	audit := report.NewXLSXLog(cfg.Report.XLSXPath)

	var runner *pipeline.BackgroundRunner
	if withRunner {
		runner = pipeline.NewBackgroundRunner(64)
		runner.Start(ctx, 2)
	}

	orch := pipeline.NewOrchestrator(engine, verifier, tasks, st, renderer, audit, runner, cfg.Scoring)

	return &engineEnv{
		Store:  st,
		Orch:   orch,
		Tasks:  tasks,
		runner: runner,
	}, nil
}
