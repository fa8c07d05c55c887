package app

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rssdigest/domain"
)

// Registry is the part of the source registry the updater needs.
type Registry interface {
	Sources() []domain.Source
	FindByURL(url string) (domain.Source, bool)
	MaxItemsPerFeed() int
}

// Observer receives per-source outcomes. internal/metrics implements it.
type Observer interface {
	SourceUpdated(address string, ok bool, took time.Duration)
	EntriesEnriched(address string, attempted, failed int)
	BatchFinished(report domain.RunReport)
}

type nopObserver struct{}

func (nopObserver) SourceUpdated(string, bool, time.Duration) {}
func (nopObserver) EntriesEnriched(string, int, int)          {}
func (nopObserver) BatchFinished(domain.RunReport)            {}

type UpdaterOptions struct {
	// FetchTimeout bounds one feed fetch. Zero means no bound.
	FetchTimeout time.Duration
	Observer     Observer
	Now          func() time.Time
}

// Updater drives the per-source cycle: load, fetch, reconcile, enrich, stamp, persist.
type Updater struct {
	registry Registry
	store    domain.SnapshotStore
	fetcher  domain.FeedFetcher
	gate     *Gate
	logger   *zap.Logger

	fetchTimeout time.Duration
	observer     Observer
	now          func() time.Time

	mu      sync.Mutex
	lastRun *domain.RunReport
}

func NewUpdater(registry Registry, store domain.SnapshotStore, fetcher domain.FeedFetcher, gate *Gate, logger *zap.Logger, opts UpdaterOptions) *Updater {
	u := &Updater{
		registry:     registry,
		store:        store,
		fetcher:      fetcher,
		gate:         gate,
		logger:       logger,
		fetchTimeout: opts.FetchTimeout,
		observer:     opts.Observer,
		now:          opts.Now,
	}
	if u.observer == nil {
		u.observer = nopObserver{}
	}
	if u.now == nil {
		u.now = time.Now
	}
	return u
}

// UpdateSource runs one full cycle for src and returns the persisted snapshot.
// A load, fetch or persist failure or a cancelled ctx aborts the cycle without saving;
// enrichment failures never do.
func (u *Updater) UpdateSource(ctx context.Context, src domain.Source) (*domain.Snapshot, error) {
	log := u.logger.With(zap.String("source_url", src.URL))

	var oldItems []domain.Entry
	prev, ok, err := u.store.Load(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrLoad, src.URL, err)
	}
	if ok {
		oldItems = prev.Items
	}

	feed, err := u.fetch(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, src.URL, err)
	}

	merged, novel := Reconcile(oldItems, feed.Items, u.registry.MaxItemsPerFeed())
	log.Info("reconciled feed",
		zap.Int("fetched", len(feed.Items)),
		zap.Int("kept", len(merged)),
		zap.Int("new_entries", len(novel)))

	items, stats := u.gate.Enrich(ctx, merged, novel)
	u.observer.EntriesEnriched(src.URL, stats.Attempted, stats.Failed)
	// Placeholders left by cancelled calls must not be persisted.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("update %s interrupted: %w", src.URL, err)
	}

	snap := &domain.Snapshot{
		SourceURL:   src.URL,
		Title:       feed.Title,
		Description: feed.Description,
		Link:        feed.Link,
		Items:       items,
		LastUpdated: u.now().UTC(),
	}
	if err := u.store.Save(ctx, src.URL, snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrPersist, src.URL, err)
	}
	return snap, nil
}

func (u *Updater) fetch(ctx context.Context, address string) (*domain.FetchedFeed, error) {
	if u.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.fetchTimeout)
		defer cancel()
	}
	return u.fetcher.Fetch(ctx, address)
}

// UpdateAll updates every registered source, one after another.
func (u *Updater) UpdateAll(ctx context.Context) map[string]bool {
	return u.run(ctx, u.registry.Sources())
}

// UpdateSources updates the given registered sources in order.
func (u *Updater) UpdateSources(ctx context.Context, urls []string) (map[string]bool, error) {
	sources := make([]domain.Source, 0, len(urls))
	for _, url := range urls {
		src, ok := u.registry.FindByURL(url)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSource, url)
		}
		sources = append(sources, src)
	}
	return u.run(ctx, sources), nil
}

// LastRun returns the report of the latest finished batch.
func (u *Updater) LastRun() (domain.RunReport, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.lastRun == nil {
		return domain.RunReport{}, false
	}
	report := *u.lastRun
	report.Results = maps.Clone(u.lastRun.Results)
	return report, true
}

func (u *Updater) run(ctx context.Context, sources []domain.Source) map[string]bool {
	report := domain.RunReport{
		ID:        uuid.NewString(),
		StartedAt: u.now().UTC(),
		Results:   make(map[string]bool, len(sources)),
	}
	log := u.logger.With(zap.String("run_id", report.ID))
	log.Info("starting feed update", zap.Int("sources", len(sources)))

	for _, src := range sources {
		if ctx.Err() != nil {
			report.Results[src.URL] = false
			continue
		}
		start := time.Now()
		_, err := u.UpdateSource(ctx, src)
		took := time.Since(start)
		report.Results[src.URL] = err == nil
		u.observer.SourceUpdated(src.URL, err == nil, took)
		if err != nil {
			log.Error("source update failed",
				zap.String("source_url", src.URL),
				zap.Duration("duration", took),
				zap.Error(err))
			continue
		}
		log.Info("source updated",
			zap.String("source_url", src.URL),
			zap.Duration("duration", took))
	}

	report.FinishedAt = u.now().UTC()
	u.mu.Lock()
	u.lastRun = &report
	u.mu.Unlock()
	u.observer.BatchFinished(report)

	log.Info("feed update finished",
		zap.Int("failed", len(report.Failed())),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	return report.Results
}
