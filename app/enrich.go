package app

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"rssdigest/domain"
)

const DefaultPlaceholder = "Summary unavailable."

// MaxConcurrency bounds the per-source cap accepted by NewGate and Resize.
const MaxConcurrency = 64

// GateConfig tunes the enrichment fan-out.
type GateConfig struct {
	// Placeholder replaces the summary of an entry whose enrichment failed.
	Placeholder string
	// CallTimeout bounds a single summarizer call. Zero means no bound.
	CallTimeout time.Duration
	// Concurrency caps in-flight calls per source. Zero means one goroutine per entry.
	// Values above MaxConcurrency are clamped.
	Concurrency int
}

// EnrichStats counts the outcome of one Enrich call.
type EnrichStats struct {
	Attempted int
	Failed    int
}

// Gate runs summarization for novel, summary-less entries.
type Gate struct {
	summarizer  domain.Summarizer
	placeholder string
	timeout     time.Duration
	limit       atomic.Int64
	logger      *zap.Logger
}

func NewGate(summarizer domain.Summarizer, cfg GateConfig, logger *zap.Logger) *Gate {
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultPlaceholder
	}
	g := &Gate{
		summarizer:  summarizer,
		placeholder: cfg.Placeholder,
		timeout:     cfg.CallTimeout,
		logger:      logger,
	}
	g.limit.Store(int64(min(max(cfg.Concurrency, 0), MaxConcurrency)))
	return g
}

// Resize changes the concurrency cap for subsequent Enrich calls.
func (g *Gate) Resize(n int) error {
	if n < 0 || n > MaxConcurrency {
		return fmt.Errorf("concurrency must be between 0 and %d", MaxConcurrency)
	}
	g.limit.Store(int64(n))
	return nil
}

func (g *Gate) Concurrency() int {
	return int(g.limit.Load())
}

// Enrich returns a copy of merged in which every entry listed in needsEnrichment that
// has no summary got one. Calls run concurrently and are all joined before return.
// A failed call leaves the placeholder instead of an error.
func (g *Gate) Enrich(ctx context.Context, merged, needsEnrichment []domain.Entry) ([]domain.Entry, EnrichStats) {
	out := make([]domain.Entry, len(merged))
	copy(out, merged)

	novel := make(map[string]struct{}, len(needsEnrichment))
	for _, it := range needsEnrichment {
		novel[it.Link] = struct{}{}
	}

	var (
		stats  EnrichStats
		failed atomic.Int64
	)
	eg, egctx := errgroup.WithContext(ctx)
	if limit := g.Concurrency(); limit > 0 {
		eg.SetLimit(limit)
	}
	for i := range out {
		if _, ok := novel[out[i].Link]; !ok || out[i].Summary != "" {
			continue
		}
		stats.Attempted++
		i := i
		eg.Go(func() error {
			summary, err := g.summarizeOne(egctx, out[i])
			if err != nil {
				g.logger.Warn("summarization failed",
					zap.String("link", out[i].Link),
					zap.Error(err))
				failed.Add(1)
				summary = g.placeholder
			}
			out[i].Summary = summary
			return nil
		})
	}
	_ = eg.Wait()

	stats.Failed = int(failed.Load())
	return out, stats
}

func (g *Gate) summarizeOne(ctx context.Context, e domain.Entry) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	summary, err := g.summarizer.Summarize(ctx, e.Title, e.SummaryText())
	if err != nil {
		return "", err
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", domain.ErrEmptySummary
	}
	return summary, nil
}
