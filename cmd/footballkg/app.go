package footballkg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/soundprediction/footballkg"
	"github.com/soundprediction/footballkg/pkg/alert"
	"github.com/soundprediction/footballkg/pkg/config"
	"github.com/soundprediction/footballkg/pkg/driver"
	"github.com/soundprediction/footballkg/pkg/embedder"
	kglogger "github.com/soundprediction/footballkg/pkg/logger"
	"github.com/soundprediction/footballkg/pkg/nlp"
	"github.com/soundprediction/footballkg/pkg/prompts"
	"github.com/soundprediction/footballkg/pkg/telemetry"
)

// app holds the resources shared by the subcommands. close releases them
// in reverse order of creation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *telemetry.Metrics
	closers []func() error
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a := &app{cfg: cfg}

	handler := kglogger.NewHandler(os.Stderr, cfg.Log.Format, kglogger.ParseLevel(cfg.Log.Level))
	if cfg.Telemetry.ParquetPath != "" {
		ph, err := telemetry.NewParquetHandler(handler, filepath.Join(cfg.Telemetry.ParquetPath, "errors"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error tracking disabled: %v\n", err)
		} else {
			handler = ph
			a.closers = append(a.closers, ph.Close)
		}
	}
	a.logger = slog.New(handler)
	slog.SetDefault(a.logger)

	if cfg.Telemetry.MetricsEnabled {
		a.metrics = telemetry.NewMetrics()
	}
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to release resource", "error", err)
		}
	}
	a.closers = nil
}

func (a *app) driver(ctx context.Context) (driver.GraphDriver, error) {
	db := a.cfg.Database
	if db.URI == "" {
		return nil, errors.New("database URI is required")
	}
	opts := []driver.Neo4jOption{driver.WithLogger(a.logger)}
	if db.ReadUsername != "" {
		opts = append(opts, driver.WithReadCredentials(db.ReadUsername, db.ReadPassword))
	}
	d, err := driver.NewNeo4jDriver(db.URI, db.Username, db.Password, db.Database, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	a.closers = append(a.closers, func() error { return d.Close(context.Background()) })

	if err := d.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j at %s is unreachable: %w", db.URI, err)
	}
	return d, nil
}

func (a *app) embedder() (embedder.Client, error) {
	e, err := embedder.New(a.cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	a.closers = append(a.closers, e.Close)
	a.logger.Debug("Embedder ready", "provider", a.cfg.Embedding.Provider, "model", a.cfg.Embedding.Model)
	return e, nil
}

// llm builds the configured model stack: provider client, retries, an
// optional circuit breaker, stage routing and token usage tracking.
func (a *app) llm(ctx context.Context) (nlp.Client, error) {
	cfg := a.cfg.LLM
	alerter := alert.New(a.cfg.Alert)

	build := func(name string, m config.LLMModelConfig) (nlp.Client, error) {
		llmCfg := nlp.NewLLMConfig().
			WithAPIKey(m.APIKey).
			WithModel(m.Model).
			WithBaseURL(m.BaseURL).
			WithTemperature(m.Temperature)
		if m.MaxTokens > 0 {
			llmCfg.WithMaxTokens(m.MaxTokens)
		}
		base, err := nlp.NewClient(ctx, m.Provider, llmCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s model client: %w", name, err)
		}
		retryCfg := nlp.DefaultRetryConfig()
		retryCfg.MaxRetries = cfg.MaxRetries
		var c nlp.Client = nlp.NewRetryClient(base, retryCfg, a.logger)
		if a.cfg.CircuitBreaker.Enabled {
			c = nlp.NewCircuitBreakerClient(c, a.cfg.CircuitBreaker, alerter, name, a.logger)
		}
		return c, nil
	}

	providers := make(map[string]nlp.Client, len(cfg.Providers)+1)
	closeAll := func() {
		for _, p := range providers {
			p.Close()
		}
	}
	def, err := build("default", cfg.LLMModelConfig)
	if err != nil {
		return nil, err
	}
	providers["default"] = def
	for name, m := range cfg.Providers {
		c, err := build(name, m)
		if err != nil {
			closeAll()
			return nil, err
		}
		providers[name] = c
	}

	client := def
	if len(providers) > 1 || len(cfg.RouterRules) > 0 {
		router, err := nlp.NewRouterClient(providers, cfg.RouterRules, a.logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		client = router
	}

	usageDir := cfg.TokenUsageDir
	if usageDir == "" && a.cfg.Telemetry.ParquetPath != "" {
		usageDir = filepath.Join(a.cfg.Telemetry.ParquetPath, "token_usage")
	}
	if usageDir != "" {
		tracker, err := nlp.NewTokenTracker(usageDir)
		if err != nil {
			a.logger.Warn("Token tracking disabled", "error", err)
		} else {
			client = nlp.NewTokenTrackingClient(client, tracker, a.logger)
			a.logger.Debug("Token tracking enabled", "dir", usageDir)
		}
	}

	a.closers = append(a.closers, client.Close)
	a.logger.Debug("Language model ready", "provider", cfg.Provider, "model", cfg.Model, "providers", len(providers))
	return client, nil
}

// qaClient builds the question answering client. The embedder is optional
// and only enables similarity search.
func (a *app) qaClient(ctx context.Context, withEmbedder bool) (*footballkg.Client, error) {
	d, err := a.driver(ctx)
	if err != nil {
		return nil, err
	}
	llm, err := a.llm(ctx)
	if err != nil {
		return nil, err
	}

	qa := a.cfg.QA
	kgCfg := footballkg.NewDefaultConfig()
	kgCfg.ValidateQueries = qa.ValidateQueries
	kgCfg.EnsureASCII = qa.EnsureASCII
	kgCfg.Metrics = a.metrics
	if qa.MaxContextRows > 0 {
		kgCfg.MaxContextRows = qa.MaxContextRows
	}
	if a.cfg.Ingest.IndexName != "" {
		kgCfg.IndexName = a.cfg.Ingest.IndexName
	}
	if qa.ExemplarsPath != "" {
		exemplars, err := prompts.LoadExemplars(qa.ExemplarsPath)
		if err != nil {
			return nil, err
		}
		kgCfg.Exemplars = exemplars
	}
	if withEmbedder {
		e, err := a.embedder()
		if err != nil {
			a.logger.Warn("Similarity search disabled", "error", err)
		} else {
			kgCfg.Embedder = e
		}
	}

	return footballkg.NewClient(ctx, d, llm, kgCfg, a.logger)
}
