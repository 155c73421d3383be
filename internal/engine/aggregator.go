// package engine coordinates the source providers: fan-out search with
// per-source deadlines, resolution routing, and upstream diagnostics.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pengyanjia146-a11y/wyy/internal/models"
	"github.com/pengyanjia146-a11y/wyy/internal/services"
	"github.com/pengyanjia146-a11y/wyy/internal/shared"
)

// defaultBudgets are the per-source search deadlines. YouTube gets
// longer because a cold mirror pool may need several attempts; local is
// a database read and should never take long.
var defaultBudgets = map[models.Source]time.Duration{
	models.SourceNetease:  5 * time.Second,
	models.SourceBilibili: 5 * time.Second,
	models.SourceYouTube:  8 * time.Second,
	models.SourceLocal:    2 * time.Second,
	models.SourcePlugin:   5 * time.Second,
}

// Aggregator fans a query out to every registered provider and streams
// back deduplicated batches as they arrive. One slow or dead source
// never delays the others.
type Aggregator struct {
	providers []services.Provider
	logger    *log.Logger

	mu      sync.RWMutex
	budgets map[models.Source]time.Duration
}

// NewAggregator creates an aggregator over the given providers.
func NewAggregator(providers []services.Provider, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	budgets := make(map[models.Source]time.Duration, len(defaultBudgets))
	for k, v := range defaultBudgets {
		budgets[k] = v
	}
	return &Aggregator{
		providers: providers,
		logger:    logger,
		budgets:   budgets,
	}
}

// SetBudget overrides the search deadline for one source.
func (a *Aggregator) SetBudget(source models.Source, d time.Duration) {
	if d <= 0 {
		return
	}
	a.mu.Lock()
	a.budgets[source] = d
	a.mu.Unlock()
}

func (a *Aggregator) budget(source models.Source) time.Duration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if d, ok := a.budgets[source]; ok {
		return d
	}
	return 5 * time.Second
}

// Providers returns the registered providers.
func (a *Aggregator) Providers() []services.Provider { return a.providers }

// Search streams one ProviderResult per provider in completion order.
// Songs already emitted by an earlier batch (same source and id) are
// dropped from later ones. The channel closes once every provider has
// reported or the context is done.
func (a *Aggregator) Search(ctx context.Context, query, cred string) <-chan models.ProviderResult {
	raw := make(chan models.ProviderResult)
	out := make(chan models.ProviderResult)

	var wg sync.WaitGroup
	for _, p := range a.providers {
		wg.Add(1)
		go func(p services.Provider) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, a.budget(p.Source()))
			defer cancel()

			start := time.Now()
			songs, err := p.Search(pctx, query, cred)
			res := models.ProviderResult{
				Source:  p.Source(),
				Songs:   songs,
				Err:     err,
				OK:      err == nil,
				Elapsed: time.Since(start),
			}
			if err != nil {
				a.logger.Warn("provider search failed", "provider", p.Name(), "err", err)
				res.Songs = nil
			}
			select {
			case raw <- res:
			case <-ctx.Done():
			}
		}(p)
	}
	go func() {
		wg.Wait()
		close(raw)
	}()

	// Dedupe on emission so the first source to answer wins its keys.
	go func() {
		defer close(out)
		seen := make(map[string]bool)
		for res := range raw {
			kept := res.Songs[:0]
			for _, s := range res.Songs {
				if k := s.Key(); !seen[k] {
					seen[k] = true
					kept = append(kept, s)
				}
			}
			res.Songs = kept
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// SearchAll collects the full streamed result set into one flat slice,
// ordered by provider completion.
func (a *Aggregator) SearchAll(ctx context.Context, query, cred string) []models.Song {
	var songs []models.Song
	for res := range a.Search(ctx, query, cred) {
		songs = append(songs, res.Songs...)
	}
	return songs
}
