package prefetch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lenderdesk/docnav/internal/docstore"
	"github.com/lenderdesk/docnav/internal/events"
	"github.com/lenderdesk/docnav/internal/models"
)

// fakeFetcher records which paths were requested and serves canned listings.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	results map[string]*models.FolderContents
	errs    map[string]error
	block   chan struct{} // if non-nil, fetches wait until closed
}

func (f *fakeFetcher) ListFolderContents(ctx context.Context, path string) (*models.FolderContents, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls = append(f.calls, path)
	f.mu.Unlock()

	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	if c, ok := f.results[path]; ok {
		return c, nil
	}
	return &models.FolderContents{Folders: []models.FolderDescriptor{}, Files: []models.FileDescriptor{}}, nil
}

func (f *fakeFetcher) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == path {
			n++
		}
	}
	return n
}

func folder(name, path string) models.FolderDescriptor {
	return models.FolderDescriptor{ID: path, Name: name, Path: path}
}

func TestScheduleSkipsCachedChildren(t *testing.T) {
	store := docstore.New()
	store.PutContents("/r/X", &models.FolderContents{})

	fetcher := &fakeFetcher{}
	p := New(store, fetcher, nil, nil, 2)

	p.Schedule(context.Background(), "/r", []models.FolderDescriptor{
		folder("X", "/r/X"),
		folder("Y", "/r/Y"),
	})
	p.Drain()

	if n := fetcher.callCount("/r/X"); n != 0 {
		t.Errorf("cached child X fetched %d times, want 0", n)
	}
	if n := fetcher.callCount("/r/Y"); n != 1 {
		t.Errorf("uncached child Y fetched %d times, want 1", n)
	}
	if !store.HasContents("/r/Y") {
		t.Error("prefetched contents for Y not stored")
	}
}

func TestScheduleDeduplicatesInflight(t *testing.T) {
	store := docstore.New()
	fetcher := &fakeFetcher{block: make(chan struct{})}
	p := New(store, fetcher, nil, nil, 2)

	children := []models.FolderDescriptor{folder("Y", "/r/Y")}
	p.Schedule(context.Background(), "/r", children)
	p.Schedule(context.Background(), "/r", children) // overlapping batch
	close(fetcher.block)
	p.Drain()

	if n := fetcher.callCount("/r/Y"); n != 1 {
		t.Errorf("in-flight child fetched %d times, want 1", n)
	}
}

func TestFailuresAreSwallowed(t *testing.T) {
	store := docstore.New()
	fetcher := &fakeFetcher{
		errs: map[string]error{"/r/bad": errors.New("connection refused")},
		results: map[string]*models.FolderContents{
			"/r/good": {Files: []models.FileDescriptor{{Name: "a.pdf"}}},
		},
	}
	p := New(store, fetcher, nil, nil, 2)

	p.Schedule(context.Background(), "/r", []models.FolderDescriptor{
		folder("bad", "/r/bad"),
		folder("good", "/r/good"),
	})
	p.Drain()

	if store.HasContents("/r/bad") {
		t.Error("failed prefetch must leave its path absent")
	}
	if !store.HasContents("/r/good") {
		t.Error("sibling fetch must succeed despite a failure in the batch")
	}

	// A later schedule retries the absent path (no poisoning)
	p.Schedule(context.Background(), "/r", []models.FolderDescriptor{folder("bad", "/r/bad")})
	p.Drain()
	if n := fetcher.callCount("/r/bad"); n != 2 {
		t.Errorf("failed path retried %d times total, want 2", n)
	}
}

func TestBatchPatchesTemplateCounts(t *testing.T) {
	store := docstore.New()
	store.PutTemplate(models.HierarchyTrade, models.BuildTemplate(models.HierarchyTrade, "T-1",
		[]models.FolderTemplateEntry{{Name: "Bid", Path: "/T-1/Bid", FileCountHint: 99}}))

	fetcher := &fakeFetcher{
		results: map[string]*models.FolderContents{
			"/T-1/Bid": {Files: []models.FileDescriptor{{Name: "offer.pdf"}}},
		},
	}
	p := New(store, fetcher, nil, nil, 1)

	p.Schedule(context.Background(), "/T-1", []models.FolderDescriptor{folder("Bid", "/T-1/Bid")})
	p.Drain()

	tpl, _ := store.Template(models.HierarchyTrade)
	if tpl.Roots[0].ItemCount != 1 {
		t.Errorf("template count = %d, want patched 1", tpl.Roots[0].ItemCount)
	}
}

func TestBatchPublishesEvent(t *testing.T) {
	store := docstore.New()
	store.PutContents("/r/X", &models.FolderContents{})
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventPrefetchCompleted)

	fetcher := &fakeFetcher{}
	p := New(store, fetcher, bus, nil, 2)

	p.Schedule(context.Background(), "/r", []models.FolderDescriptor{
		folder("X", "/r/X"),
		folder("Y", "/r/Y"),
	})
	p.Drain()

	select {
	case ev := <-ch:
		done, ok := ev.(*events.PrefetchCompletedEvent)
		if !ok {
			t.Fatal("expected PrefetchCompletedEvent")
		}
		if done.Fetched != 1 || done.Skipped != 1 || done.Failed != 0 {
			t.Errorf("batch summary = %+v", done)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for prefetch event")
	}
}

func TestBatchPublishesCountsPatched(t *testing.T) {
	store := docstore.New()
	store.PutTemplate(models.HierarchyTrade, models.BuildTemplate(models.HierarchyTrade, "T-1",
		[]models.FolderTemplateEntry{{Name: "Bid", Path: "/T-1/Bid", FileCountHint: 99}}))
	bus := events.NewEventBus(10)
	defer bus.Close()
	ch := bus.Subscribe(events.EventCountsPatched)

	fetcher := &fakeFetcher{
		results: map[string]*models.FolderContents{
			"/T-1/Bid": {Files: []models.FileDescriptor{{Name: "offer.pdf"}}},
		},
	}
	p := New(store, fetcher, bus, nil, 1)

	p.Schedule(context.Background(), "/T-1", []models.FolderDescriptor{folder("Bid", "/T-1/Bid")})
	p.Drain()

	select {
	case ev := <-ch:
		patched, ok := ev.(*events.CountsPatchedEvent)
		if !ok {
			t.Fatal("expected CountsPatchedEvent")
		}
		if patched.Patched != 1 {
			t.Errorf("Patched = %d, want 1", patched.Patched)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for counts-patched event")
	}

	// A second batch over the same, already-correct path patches nothing
	// and stays silent
	p.Schedule(context.Background(), "/T-1", []models.FolderDescriptor{folder("Bid", "/T-1/Bid")})
	p.Drain()
	select {
	case ev := <-ch:
		t.Errorf("unexpected second event: %+v", ev)
	default:
	}
}

func TestScheduleAllCachedIsNoop(t *testing.T) {
	store := docstore.New()
	store.PutContents("/r/X", &models.FolderContents{})
	fetcher := &fakeFetcher{}
	p := New(store, fetcher, nil, nil, 2)

	p.Schedule(context.Background(), "/r", []models.FolderDescriptor{folder("X", "/r/X")})
	p.Drain()

	if len(fetcher.calls) != 0 {
		t.Errorf("expected no fetches, got %v", fetcher.calls)
	}
}
