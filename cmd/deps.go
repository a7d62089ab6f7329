package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/repaso/internal/config"
	"github.com/abhisek/repaso/internal/embedding"
	"github.com/abhisek/repaso/internal/grading"
	"github.com/abhisek/repaso/internal/ingest"
	"github.com/abhisek/repaso/internal/llm"
	"github.com/abhisek/repaso/internal/logger"
	"github.com/abhisek/repaso/internal/metrics"
	"github.com/abhisek/repaso/internal/questiongen"
	"github.com/abhisek/repaso/internal/store"
	"github.com/abhisek/repaso/internal/study"
)

// loadConfig reads the configuration and applies the persistent flags on
// top of it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFromEnvironment(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DB.DSN = p
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.LogLevel = l
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg config.Config) (*store.Store, error) {
	dsn, err := cfg.DBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(ctx, cfg.DB.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// deps is the object graph shared by the commands.
type deps struct {
	cfg     config.Config
	log     *logger.Logger
	store   *store.Store
	metrics *metrics.Metrics
	emb     embedding.Embedder
	svc     *study.Service

	// llmErr explains why question generation is unavailable.
	llmErr  error
	closers []func() error
}

type depsOptions struct {
	// quiet discards logs, for the terminal client.
	quiet bool
}

// buildDeps loads configuration and wires store, embedder, validator,
// ingest pipeline, LLM provider and study service.
func buildDeps(cmd *cobra.Command, opts depsOptions) (*deps, error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log := logger.Nop()
	if !opts.quiet {
		if log, err = logger.New(cfg.Env, cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	d := &deps{cfg: cfg, log: log, metrics: metrics.New()}
	d.closers = append(d.closers, func() error { log.Sync(); return nil })

	if d.store, err = openStore(ctx, cfg); err != nil {
		d.Close()
		return nil, err
	}
	d.closers = append(d.closers, d.store.Close)

	if d.emb, err = d.newEmbedder(); err != nil {
		d.Close()
		return nil, err
	}

	validator, err := grading.NewValidator(d.emb, cfg.GradingConfig())
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("init validator: %w", err)
	}

	var gen questiongen.Generator
	if err := cfg.ValidateLLM(); err != nil {
		d.llmErr = err
	} else {
		provider, err := llm.NewProvider(ctx, cfg.LLM, d.store, log.With("component", "llm"),
			llm.WithMockScript(questiongen.OfflineScript),
			llm.WithMetrics(d.metrics))
		if err != nil {
			d.llmErr = err
		} else {
			gen = questiongen.New(provider, cfg.QuestionConfig())
		}
	}
	if d.llmErr != nil {
		log.Warn("question generation disabled", "error", d.llmErr)
	}

	d.svc = study.New(study.Deps{
		Store:     d.store,
		Embedder:  d.emb,
		Validator: validator,
		Ingest:    ingest.New(d.emb, d.store, cfg.Ingest, log.With("component", "ingest")),
		Generator: gen,
		Questions: cfg.QuestionConfig(),
		Metrics:   d.metrics,
		Logger:    log,
	})
	return d, nil
}

// newEmbedder builds the configured encoder lazily, behind the Redis or
// in-process cache.
func (d *deps) newEmbedder() (embedding.Embedder, error) {
	ec := d.cfg.Embedding

	var cache embedding.Cache
	switch {
	case ec.RedisURL != "":
		rc, err := embedding.NewRedisCache(ec.RedisURL, ec.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		d.closers = append(d.closers, rc.Close)
		cache = rc
	case ec.CacheSize > 0:
		cache = embedding.NewMemoryCache(ec.CacheSize)
	}

	var (
		model string
		build func() (embedding.Embedder, error)
	)
	switch ec.ResolvedBackend() {
	case config.EmbedderHugot:
		model = ec.Model
		if model == "" {
			model = embedding.DefaultHugotModel
		}
		var loaded *embedding.HugotEmbedder
		d.closers = append(d.closers, func() error {
			if loaded == nil {
				return nil
			}
			return loaded.Close()
		})
		build = func() (embedding.Embedder, error) {
			h, err := embedding.NewHugotEmbedder(embedding.HugotConfig{ModelPath: ec.ModelPath, Model: model})
			if err != nil {
				return nil, err
			}
			loaded = h
			return h, nil
		}
	case config.EmbedderOpenAI:
		model = ec.Model
		if model == "" {
			model = embedding.DefaultOpenAIModel
		}
		build = func() (embedding.Embedder, error) {
			oe, err := embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
				APIKey:  d.cfg.LLM.OpenAI.APIKey,
				BaseURL: d.cfg.LLM.OpenAI.BaseURL,
				Model:   model,
			})
			if err != nil {
				return nil, err
			}
			return oe, nil
		}
	default:
		model = embedding.HashingModel
		build = func() (embedding.Embedder, error) { return embedding.NewHashingEncoder(), nil }
	}

	log := d.log.With("component", "embedding", "model", model)
	return embedding.NewLazy(embedding.Dimensions, model, func() (embedding.Embedder, error) {
		base, err := build()
		if err != nil {
			return nil, err
		}
		log.Info("embedder loaded", "cached", cache != nil)
		if cache == nil {
			return base, nil
		}
		cached := embedding.NewCached(base, cache)
		cached.OnError = func(err error) { log.Warn("embedding cache failure", "error", err) }
		return cached, nil
	}), nil
}

// Close releases everything in reverse order of acquisition.
func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}
