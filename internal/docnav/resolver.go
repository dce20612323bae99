package docnav

import (
	"github.com/lenderdesk/docnav/internal/models"
)

// Source identifies which resolution tier produced a rendered listing.
type Source string

const (
	SourceCache    Source = "cache"
	SourceTemplate Source = "template"
	SourceRemote   Source = "remote"
)

// localTier is one synchronous resolution strategy. Tiers are evaluated in
// precedence order; the first hit wins and renders without a loading state.
// The remote fetch is not a localTier: it is the fallback when every tier
// misses, and it suspends.
type localTier struct {
	source Source
	lookup func(target models.FolderDescriptor, parentIsRoot bool) (*models.FolderContents, bool)
}

func (c *Controller) localTiers() []localTier {
	return []localTier{
		{SourceCache, c.fromCache},
		{SourceTemplate, c.fromTemplate},
	}
}

// resolveLocal runs the synchronous tiers in order. Called with c.mu held.
func (c *Controller) resolveLocal(target models.FolderDescriptor, parentIsRoot bool) (*models.FolderContents, Source, bool) {
	for _, t := range c.localTiers() {
		if contents, ok := t.lookup(target, parentIsRoot); ok {
			return contents, t.source, true
		}
	}
	return nil, "", false
}

// fromCache serves previously fetched contents. A cache hit is authoritative:
// no template synthesis and no refetch happen behind it.
func (c *Controller) fromCache(target models.FolderDescriptor, _ bool) (*models.FolderContents, bool) {
	return c.store.Contents(target.Path)
}

// fromTemplate synthesizes a listing for a root-level category from its
// template subfolders: the known subfolders with their current counts, and an
// empty file list. Only categories directly under the root qualify, and only
// when the template actually declares subfolders for them; the synthesized
// listing is never written to the contents cache, so the real listing still
// replaces it once fetched.
func (c *Controller) fromTemplate(target models.FolderDescriptor, parentIsRoot bool) (*models.FolderContents, bool) {
	if !parentIsRoot {
		return nil, false
	}
	kind, identity, ok := c.activeKindLocked()
	if !ok {
		return nil, false
	}
	tpl, ok := c.store.Template(kind)
	if !ok || tpl.Identity != identity {
		return nil, false
	}
	for _, root := range tpl.Roots {
		if root.Path != target.Path {
			continue
		}
		if len(root.Subfolders) == 0 {
			return nil, false
		}
		return &models.FolderContents{
			Folders: append([]models.FolderDescriptor(nil), root.Subfolders...),
			Files:   []models.FileDescriptor{},
		}, true
	}
	return nil, false
}
