package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rssdigest/adapter/filestore"
	"rssdigest/adapter/llm"
	"rssdigest/adapter/postgres"
	"rssdigest/adapter/redisstore"
	"rssdigest/adapter/rss"
	"rssdigest/app"
	"rssdigest/domain"
	"rssdigest/internal/config"
	"rssdigest/internal/logger"
	"rssdigest/internal/registry"
)

// deps holds what every command needs: config, logger, registry and store.
type deps struct {
	cfg      config.Config
	logger   *zap.Logger
	registry *registry.Registry
	store    domain.SnapshotStore
	closers  []func() error
}

func loadDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if sourcesFile != "" {
		cfg.SourcesFile = sourcesFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, logger: log}
	d.closers = append(d.closers, func() error {
		_ = log.Sync()
		return nil
	})

	reg, err := registry.Load(cfg.SourcesFile)
	if err != nil {
		d.Close()
		return nil, err
	}
	if d.registry, err = reg.WithOverrides(cfg.MaxItemsPerFeed, cfg.DataPath); err != nil {
		d.Close()
		return nil, err
	}

	if d.store, err = d.openStore(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func (d *deps) openStore(ctx context.Context) (domain.SnapshotStore, error) {
	switch d.cfg.Store.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, d.cfg.Postgres.URL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		d.closers = append(d.closers, db.Close)
		repo := postgres.New(db, d.logger)
		if err := repo.Ensure(ctx); err != nil {
			return nil, fmt.Errorf("db ensure failed: %w", err)
		}
		return repo, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     d.cfg.Redis.Addr,
			Password: d.cfg.Redis.Password,
			DB:       d.cfg.Redis.DB,
		})
		d.closers = append(d.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.New(client, d.cfg.Redis.KeyPrefix, d.logger), nil
	default:
		return filestore.New(d.registry.DataPath(), d.cfg.Store.AtomicWrites, d.logger), nil
	}
}

// newUpdater builds the fetch, summarize and update chain.
func (d *deps) newUpdater(observer app.Observer) (*app.Updater, *app.Gate, error) {
	if err := d.cfg.ValidateLLM(); err != nil {
		return nil, nil, fmt.Errorf("cannot summarize entries: %w", err)
	}
	summarizer := llm.NewClient(llm.Config{
		BaseURL:       d.cfg.LLM.BaseURL,
		APIKey:        d.cfg.LLM.APIKey,
		Model:         d.cfg.LLM.Model,
		Temperature:   d.cfg.LLM.Temperature,
		MaxTokens:     d.cfg.LLM.MaxTokens,
		Language:      d.cfg.LLM.Language,
		MaxInputChars: d.cfg.LLM.MaxInputChars,
		RateLimit:     d.cfg.LLM.RateLimit,
	}, nil, d.logger.Named("llm"))

	gate := app.NewGate(summarizer, app.GateConfig{
		Placeholder: d.cfg.Update.Placeholder,
		CallTimeout: d.cfg.Update.EnrichTimeout,
		Concurrency: d.cfg.Update.EnrichConcurrency,
	}, d.logger.Named("enrich"))

	updater := app.NewUpdater(d.registry, d.store, rss.NewHTTPFetcher(d.cfg.UserAgent), gate, d.logger.Named("update"), app.UpdaterOptions{
		FetchTimeout: d.cfg.Update.FetchTimeout,
		Observer:     observer,
	})
	return updater, gate, nil
}

func (d *deps) Close() {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		d.logger.Warn("shutdown", zap.Error(err))
	}
}
