// Package prefetch speculatively warms the contents cache with the children
// of whatever folder set was just rendered, so the user's next click is
// almost always a cache hit. Fetches are best-effort and fire-and-forget:
// nothing awaits them, failures are swallowed, and a failed path simply stays
// absent for a later on-demand fetch.
package prefetch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lenderdesk/docnav/internal/constants"
	"github.com/lenderdesk/docnav/internal/docstore"
	"github.com/lenderdesk/docnav/internal/events"
	"github.com/lenderdesk/docnav/internal/logging"
	"github.com/lenderdesk/docnav/internal/models"
)

// Fetcher is the one remote operation the prefetcher needs.
type Fetcher interface {
	ListFolderContents(ctx context.Context, path string) (*models.FolderContents, error)
}

// Prefetcher schedules background fetches of immediate-child folder listings.
// Only one level is prefetched (no recursion) and only folders, never files:
// listings are small, so warming siblings is cheap, while recursing would
// multiply request volume for clicks that mostly never happen.
type Prefetcher struct {
	store   *docstore.Store
	fetcher Fetcher
	bus     *events.EventBus
	logger  *logging.Logger
	workers int

	mu       sync.Mutex
	inflight map[string]struct{} // paths currently being fetched by any batch

	wg sync.WaitGroup // outstanding batches, for Drain
}

// New creates a prefetcher writing through the given store.
// workers bounds concurrent fetches per batch; <= 0 selects the default.
func New(store *docstore.Store, fetcher Fetcher, bus *events.EventBus, logger *logging.Logger, workers int) *Prefetcher {
	if workers <= 0 {
		workers = constants.PrefetchWorkers
	}
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return &Prefetcher{
		store:    store,
		fetcher:  fetcher,
		bus:      bus,
		logger:   logger,
		workers:  workers,
		inflight: make(map[string]struct{}),
	}
}

// Schedule queues a background fetch for every folder in the rendered set
// that is not already cached or in flight. It returns immediately; each
// completed fetch writes its own path through PutContents, and once the whole
// batch drains the template counts are re-patched so tiles update even for
// folders the user never opened.
func (p *Prefetcher) Schedule(ctx context.Context, parent string, folders []models.FolderDescriptor) {
	if len(folders) == 0 {
		return
	}

	// Claim targets synchronously so overlapping batches never double-fetch
	targets := make([]models.FolderDescriptor, 0, len(folders))
	skipped := 0
	p.mu.Lock()
	for _, f := range folders {
		if p.store.HasContents(f.Path) {
			skipped++
			continue
		}
		if _, busy := p.inflight[f.Path]; busy {
			skipped++
			continue
		}
		p.inflight[f.Path] = struct{}{}
		targets = append(targets, f)
	}
	p.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	p.wg.Add(1)
	go p.runBatch(ctx, parent, targets, skipped)
}

func (p *Prefetcher) runBatch(ctx context.Context, parent string, targets []models.FolderDescriptor, skipped int) {
	defer p.wg.Done()
	start := time.Now()

	var mu sync.Mutex
	fetched, failed, countsPatched := 0, 0, 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, f := range targets {
		f := f
		g.Go(func() error {
			defer p.release(f.Path)

			contents, err := p.fetcher.ListFolderContents(ctx, f.Path)
			if err != nil {
				// Swallowed: the path stays absent for a future on-demand fetch
				p.logger.Debug().Str("path", f.Path).Err(err).Msg("Prefetch failed")
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			n := p.store.PutContents(f.Path, contents)
			mu.Lock()
			fetched++
			countsPatched += n
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	// Opportunistic pass: PutContents already patched per-path, but a refetched
	// template installed mid-batch may have missed earlier completions
	countsPatched += p.store.PatchCounts()

	p.logger.Debug().
		Str("parent", parent).
		Int("fetched", fetched).
		Int("skipped", skipped).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Prefetch batch complete")

	if p.bus != nil {
		if countsPatched > 0 {
			p.bus.Publish(&events.CountsPatchedEvent{
				BaseEvent: events.Now(events.EventCountsPatched),
				Patched:   countsPatched,
			})
		}
		p.bus.Publish(&events.PrefetchCompletedEvent{
			BaseEvent: events.Now(events.EventPrefetchCompleted),
			Parent:    parent,
			Fetched:   fetched,
			Skipped:   skipped,
			Failed:    failed,
			Duration:  time.Since(start),
		})
	}
}

func (p *Prefetcher) release(path string) {
	p.mu.Lock()
	delete(p.inflight, path)
	p.mu.Unlock()
}

// Drain blocks until all scheduled batches have completed. Used by the CLI
// before exit and by tests; the panel never waits on prefetches.
func (p *Prefetcher) Drain() {
	p.wg.Wait()
}
