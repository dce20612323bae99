// Package docstore holds the in-memory caches behind the document browser:
// the per-hierarchy category templates, the per-path contents cache, and the
// count overlay that keeps template tile counts honest once real listings
// arrive.
//
// The store never performs network I/O. It is written by the navigation
// controller and the prefetcher through exactly two entry points (PutContents
// and PutTemplate); everything else is read-only. There is no TTL and no
// invalidation policy: once a path is cached it is authoritative for the
// session, a staleness tradeoff accepted for instant navigation.
package docstore

import (
	"sync"

	"github.com/lenderdesk/docnav/internal/models"
)

// Store owns the three cache structures for one hosting view.
// Construct one per panel instance; its lifetime is the panel's lifetime.
type Store struct {
	mu        sync.RWMutex
	templates map[models.HierarchyKind]*models.HierarchyTemplate
	contents  map[string]*models.FolderContents
}

// New creates an empty store.
func New() *Store {
	return &Store{
		templates: make(map[models.HierarchyKind]*models.HierarchyTemplate),
		contents:  make(map[string]*models.FolderContents),
	}
}

// Contents returns the cached listing for a path. Pure lookup, no side
// effects; absence is a valid, silent result and the caller decides whether
// it triggers a fetch. Repeated calls without an intervening PutContents
// return the identical value.
func (s *Store) Contents(path string) (*models.FolderContents, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contents[path]
	return c, ok
}

// HasContents reports whether a path is cached without returning the entry.
// The prefetcher uses this to skip children that are already warm.
func (s *Store) HasContents(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.contents[path]
	return ok
}

// PutContents inserts or overwrites the listing for a path, then patches any
// template entry sharing that path with the derived item count. Insert and
// patch happen under one lock so readers never observe the listing without
// its count correction. Returns the number of template entries whose count
// changed.
func (s *Store) PutContents(path string, c *models.FolderContents) int {
	if c == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contents[path] = c
	return s.patchLocked()
}

// Template returns the category template for a hierarchy kind, if fetched.
// The returned template is an immutable snapshot: count patching swaps in a
// fresh template rather than writing through this pointer, so callers may
// read it without holding any lock.
func (s *Store) Template(kind models.HierarchyKind) (*models.HierarchyTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[kind]
	return t, ok
}

// PutTemplate stores a template wholesale, replacing any previous one for the
// kind. Counts are patched immediately so a refetched template picks up
// already-cached listings.
func (s *Store) PutTemplate(kind models.HierarchyKind, t *models.HierarchyTemplate) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[kind] = t
	s.patchLocked()
}

// DropTemplate removes the template for a kind. Called when the identity
// behind a hierarchy changes (a different trade or asset was selected), since
// templates are fetched at most once per (kind, identity) pair.
func (s *Store) DropTemplate(kind models.HierarchyKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.templates, kind)
}

// PatchCounts re-derives every template entry's item count from any matching
// contents-cache entry. Invoked opportunistically after a prefetch batch
// drains so tiles update even for folders the user has not opened. Returns
// the number of entries whose count changed.
func (s *Store) PatchCounts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patchLocked()
}

// patchLocked is the count-patch pass. Must be called with the write lock
// held. Templates are copy-on-write: when any entry's count changes, a fresh
// template with fresh Roots replaces the stored one, so snapshots already
// handed out by Template are never written to. Entries with no cached
// contents keep whatever count they last carried (backend hint or earlier
// patch).
func (s *Store) patchLocked() int {
	patched := 0
	for kind, t := range s.templates {
		next, changed := s.repatchedCopyLocked(t)
		if changed > 0 {
			s.templates[kind] = next
			patched += changed
		}
	}
	return patched
}

// repatchedCopyLocked builds a copy of t with every count re-derived from the
// contents cache, returning it with the number of entries that changed.
func (s *Store) repatchedCopyLocked(t *models.HierarchyTemplate) (*models.HierarchyTemplate, int) {
	changed := 0
	next := &models.HierarchyTemplate{
		Kind:     t.Kind,
		Identity: t.Identity,
		Roots:    make([]models.TemplateFolder, len(t.Roots)),
	}
	for i, root := range t.Roots {
		nr := root
		nr.Subfolders = append([]models.FolderDescriptor(nil), root.Subfolders...)
		if c, ok := s.contents[nr.Path]; ok {
			if n := c.TotalItems(); n != nr.ItemCount {
				nr.ItemCount = n
				changed++
			}
		}
		for j := range nr.Subfolders {
			if c, ok := s.contents[nr.Subfolders[j].Path]; ok {
				if n := c.TotalItems(); n != nr.Subfolders[j].ItemCount {
					nr.Subfolders[j].ItemCount = n
					changed++
				}
			}
		}
		next.Roots[i] = nr
	}
	return next, changed
}

// Clear drops every cached listing and template. Used by forced reloads; the
// normal navigation paths never invalidate.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = make(map[models.HierarchyKind]*models.HierarchyTemplate)
	s.contents = make(map[string]*models.FolderContents)
}

// Stats returns cache sizes (for debugging and the CLI status line).
func (s *Store) Stats() (cachedPaths, templates int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contents), len(s.templates)
}
