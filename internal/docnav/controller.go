// Package docnav implements the navigation controller of the document
// manager panel: it owns the breadcrumb path and view mode, decides which
// cache layer serves each folder-open, and drives the prefetcher after every
// render. It is frontend-agnostic; the CLI and the panel bindings both drive
// it through the same actions and read the same observable state.
package docnav

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/lenderdesk/docnav/internal/docstore"
	"github.com/lenderdesk/docnav/internal/events"
	"github.com/lenderdesk/docnav/internal/logging"
	"github.com/lenderdesk/docnav/internal/models"
	"github.com/lenderdesk/docnav/internal/prefetch"
)

// FolderService is the remote side of the engine: the three listing
// operations the controller may suspend on.
type FolderService interface {
	ListTradeDocuments(ctx context.Context, tradeID string) ([]models.FolderTemplateEntry, error)
	ListAssetDocuments(ctx context.Context, assetID string) ([]models.FolderTemplateEntry, error)
	ListFolderContents(ctx context.Context, path string) (*models.FolderContents, error)
}

// resolveState tracks the per-action state machine:
// Idle -> Resolving -> {Rendered | Failed}. The Resolving phase is observable
// (Loading) only for remote fetches; cache and template hits pass through it
// synchronously.
type resolveState int

const (
	stateIdle resolveState = iota
	stateResolving
	stateRendered
	stateFailed
)

// State is the read-only observable state exposed to the hosting UI.
type State struct {
	View        string
	CurrentPath []models.FolderDescriptor
	Folders     []models.FolderDescriptor
	Files       []models.FileDescriptor
	Loading     bool
}

// Controller drives folder navigation for one panel instance.
//
// All mutation happens under one mutex; the only suspension points are the
// three FolderService calls, during which the lock is released. A monotonic
// sequence number decides whether a finished remote fetch may still render:
// stale fetches always populate the cache but never the observable state, so
// the most recent navigation action wins.
type Controller struct {
	store      *docstore.Store
	svc        FolderService
	prefetcher *prefetch.Prefetcher
	bus        *events.EventBus
	logger     *logging.Logger

	mu      sync.Mutex
	view    string
	tradeID string
	assetID string
	path    []models.FolderDescriptor
	folders []models.FolderDescriptor
	files   []models.FileDescriptor
	state   resolveState
	loading bool
	seq     uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithPrefetcher attaches a prefetcher invoked after every successful render.
func WithPrefetcher(p *prefetch.Prefetcher) Option {
	return func(c *Controller) { c.prefetcher = p }
}

// WithEventBus attaches an event bus for navigation events.
func WithEventBus(bus *events.EventBus) Option {
	return func(c *Controller) { c.bus = bus }
}

// WithLogger overrides the default logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New creates a navigation controller over the given store and service.
func New(store *docstore.Store, svc FolderService, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		svc:    svc,
		logger: logging.NewDefaultCLILogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetIdentity records the trade and asset identities backing the view.
// A changed identity drops that hierarchy's template (templates are fetched
// at most once per kind and identity pair) and resets navigation; the
// contents cache survives, since its paths are identity-prefixed.
func (c *Controller) SetIdentity(tradeID, assetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tradeID != c.tradeID {
		c.store.DropTemplate(models.HierarchyTrade)
	}
	if assetID != c.assetID {
		c.store.DropTemplate(models.HierarchyAsset)
	}
	c.tradeID = tradeID
	c.assetID = assetID
	c.resetLocked()
}

// SwitchView changes the active view, resets the breadcrumb to the hierarchy
// root, and abandons any in-flight resolution (its cache write still lands).
// Caches are never cleared by a view switch, so revisiting a view stays
// instant. For the document views the root listing is rendered immediately.
func (c *Controller) SwitchView(ctx context.Context, view string) error {
	c.mu.Lock()
	c.view = view
	c.resetLocked()
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.Publish(&events.ViewSwitchedEvent{
			BaseEvent: events.Now(events.EventViewSwitched),
			View:      view,
		})
	}

	return c.OpenRoot(ctx)
}

// OpenRoot renders the hierarchy root: the category tiles from the active
// kind's template, fetching the template first if this (kind, identity) pair
// has not been seen. With no identity at all it renders the empty state
// without any fetch.
func (c *Controller) OpenRoot(ctx context.Context) error {
	c.mu.Lock()
	seq := c.bumpSeqLocked()

	kind, identity, ok := c.activeKindLocked()
	if !ok {
		c.path = nil
		c.renderLocked(nil, &models.FolderContents{}, "empty")
		c.mu.Unlock()
		return nil
	}

	if tpl, ok := c.store.Template(kind); ok && tpl.Identity == identity {
		c.renderRootLocked(tpl, SourceTemplate)
		c.mu.Unlock()
		c.schedulePrefetch(ctx, "/", c.snapshotFolders())
		return nil
	}

	c.state = stateResolving
	c.loading = true
	c.mu.Unlock()

	entries, err := c.fetchTemplate(ctx, kind, identity)

	c.mu.Lock()
	if err != nil {
		if c.seq == seq {
			c.failLocked(nil)
		}
		c.mu.Unlock()
		c.publishError("template", "/", err)
		return fmt.Errorf("fetch %s template: %w", kind, err)
	}

	tpl := models.BuildTemplate(kind, identity, entries)
	c.store.PutTemplate(kind, tpl)

	if c.seq != seq {
		// Navigated away while fetching; template is cached for next time
		c.mu.Unlock()
		return nil
	}

	c.renderRootLocked(tpl, SourceRemote)
	c.mu.Unlock()
	c.schedulePrefetch(ctx, "/", c.snapshotFolders())
	return nil
}

// OpenFolder navigates into a folder, resolving its contents through the
// tiered strategy: contents cache, then template subfolders (root-level
// categories only), then a remote fetch. The first two render synchronously
// with no loading state.
func (c *Controller) OpenFolder(ctx context.Context, d models.FolderDescriptor) error {
	c.mu.Lock()
	seq := c.bumpSeqLocked()
	parentIsRoot := len(c.path) == 0
	newPath := append(slices.Clone(c.path), d)

	if contents, source, ok := c.resolveLocal(d, parentIsRoot); ok {
		c.path = newPath
		c.renderLocked(&d, contents, source)
		c.mu.Unlock()
		c.schedulePrefetch(ctx, d.Path, contents.Folders)
		return nil
	}

	c.state = stateResolving
	c.loading = true
	c.mu.Unlock()

	contents, err := c.svc.ListFolderContents(ctx, d.Path)

	c.mu.Lock()
	if err != nil {
		if c.seq == seq {
			c.path = newPath
			c.failLocked(&d)
		}
		c.mu.Unlock()
		c.publishError("resolve", d.Path, err)
		return fmt.Errorf("open folder %s: %w", d.Path, err)
	}

	// The fetch is never cancelled, and its result is always cached, even
	// when a newer action has taken over rendering
	c.store.PutContents(d.Path, contents)

	if c.seq != seq {
		c.mu.Unlock()
		return nil
	}

	c.path = newPath
	c.renderLocked(&d, contents, SourceRemote)
	c.mu.Unlock()
	c.schedulePrefetch(ctx, d.Path, contents.Folders)
	return nil
}

// NavigateToRoot returns to the hierarchy root.
func (c *Controller) NavigateToRoot(ctx context.Context) error {
	c.mu.Lock()
	c.path = nil
	c.mu.Unlock()
	return c.OpenRoot(ctx)
}

// NavigateToFolder jumps to a breadcrumb entry by index. The path is
// truncated and the target reopened through the same tiered resolution as a
// fresh click, which keeps counts and subfolder lists consistent whether a
// folder is reached forward or backward.
func (c *Controller) NavigateToFolder(ctx context.Context, index int) error {
	c.mu.Lock()
	if index < 0 || index >= len(c.path) {
		c.mu.Unlock()
		return fmt.Errorf("breadcrumb index %d out of range", index)
	}
	d := c.path[index]
	c.path = slices.Clone(c.path[:index])
	c.mu.Unlock()

	return c.OpenFolder(ctx, d)
}

// Reload re-resolves the current location with a forced remote fetch,
// bypassing the cache tiers. Used after uploads, when the cached listing for
// the open folder is known stale. At the root it refetches the template
// wholesale.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if len(c.path) == 0 {
		kind, _, ok := c.activeKindLocked()
		if ok {
			c.store.DropTemplate(kind)
		}
		c.mu.Unlock()
		return c.OpenRoot(ctx)
	}

	seq := c.bumpSeqLocked()
	d := c.path[len(c.path)-1]
	c.state = stateResolving
	c.loading = true
	c.mu.Unlock()

	contents, err := c.svc.ListFolderContents(ctx, d.Path)

	c.mu.Lock()
	if err != nil {
		if c.seq == seq {
			c.failLocked(&d)
		}
		c.mu.Unlock()
		c.publishError("resolve", d.Path, err)
		return fmt.Errorf("reload folder %s: %w", d.Path, err)
	}

	c.store.PutContents(d.Path, contents)
	if c.seq != seq {
		c.mu.Unlock()
		return nil
	}

	c.renderLocked(&d, contents, SourceRemote)
	c.mu.Unlock()
	c.schedulePrefetch(ctx, d.Path, contents.Folders)
	return nil
}

// Snapshot returns a copy of the observable state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		View:        c.view,
		CurrentPath: slices.Clone(c.path),
		Folders:     slices.Clone(c.folders),
		Files:       slices.Clone(c.files),
		Loading:     c.loading,
	}
}

// CurrentFolder returns the innermost open folder, if any. Its name is the
// upload category for the panel's upload boundary.
func (c *Controller) CurrentFolder() (models.FolderDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.path) == 0 {
		return models.FolderDescriptor{}, false
	}
	return c.path[len(c.path)-1], true
}

// activeKindLocked selects the hierarchy kind from the identities:
// asset-scoped when an asset identity is set, trade-scoped when only a trade
// identity is set, none when both are absent.
func (c *Controller) activeKindLocked() (models.HierarchyKind, string, bool) {
	if c.assetID != "" {
		return models.HierarchyAsset, c.assetID, true
	}
	if c.tradeID != "" {
		return models.HierarchyTrade, c.tradeID, true
	}
	return "", "", false
}

func (c *Controller) fetchTemplate(ctx context.Context, kind models.HierarchyKind, identity string) ([]models.FolderTemplateEntry, error) {
	if kind == models.HierarchyAsset {
		return c.svc.ListAssetDocuments(ctx, identity)
	}
	return c.svc.ListTradeDocuments(ctx, identity)
}

// bumpSeqLocked starts a new navigation action, invalidating render rights
// of any fetch still in flight from a previous action.
func (c *Controller) bumpSeqLocked() uint64 {
	c.seq++
	return c.seq
}

func (c *Controller) resetLocked() {
	c.seq++
	c.path = nil
	c.folders = nil
	c.files = nil
	c.state = stateIdle
	c.loading = false
}

func (c *Controller) renderRootLocked(tpl *models.HierarchyTemplate, source Source) {
	folders := make([]models.FolderDescriptor, 0, len(tpl.Roots))
	for _, r := range tpl.Roots {
		folders = append(folders, r.FolderDescriptor)
	}
	c.path = nil
	c.renderLocked(nil, &models.FolderContents{Folders: folders}, source)
}

func (c *Controller) renderLocked(d *models.FolderDescriptor, contents *models.FolderContents, source Source) {
	c.folders = contents.Folders
	c.files = contents.Files
	c.state = stateRendered
	c.loading = false

	path := "/"
	if d != nil {
		path = d.Path
	}
	c.logger.Debug().
		Str("path", path).
		Str("source", string(source)).
		Int("folders", len(c.folders)).
		Int("files", len(c.files)).
		Msg("Rendered folder")

	if c.bus != nil {
		c.bus.Publish(&events.FolderOpenedEvent{
			BaseEvent:   events.Now(events.EventFolderOpened),
			Path:        path,
			Source:      string(source),
			FolderCount: len(c.folders),
			FileCount:   len(c.files),
		})
	}
}

// failLocked enters the Failed state: empty lists, no loading indicator, no
// fatal error. Reopening the folder retries, since the failed path was never
// cached.
func (c *Controller) failLocked(d *models.FolderDescriptor) {
	c.folders = []models.FolderDescriptor{}
	c.files = []models.FileDescriptor{}
	c.state = stateFailed
	c.loading = false
}

func (c *Controller) snapshotFolders() []models.FolderDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.folders)
}

func (c *Controller) schedulePrefetch(ctx context.Context, parent string, folders []models.FolderDescriptor) {
	if c.prefetcher == nil || len(folders) == 0 {
		return
	}
	// Detached from the action's cancellation: prefetches outlive navigation
	c.prefetcher.Schedule(context.WithoutCancel(ctx), parent, folders)
}

func (c *Controller) publishError(stage, path string, err error) {
	c.logger.Warn().Str("stage", stage).Str("path", path).Err(err).Msg("Navigation fetch failed")
	if c.bus != nil {
		c.bus.Publish(&events.ErrorEvent{
			BaseEvent: events.Now(events.EventError),
			Stage:     stage,
			Path:      path,
			Error:     err,
		})
	}
}
