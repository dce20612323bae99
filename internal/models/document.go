// Package models defines the data contracts shared between the document
// navigation engine and the LenderDesk document-storage API.
package models

import "time"

// HierarchyKind selects which document hierarchy applies to the current view.
// Trade-scoped and asset-scoped hierarchies are mutually exclusive per view:
// an asset identity, when present, always wins over a trade identity.
type HierarchyKind string

const (
	// HierarchyTrade is the per-trade document tree.
	HierarchyTrade HierarchyKind = "trade"

	// HierarchyAsset is the per-asset document tree.
	HierarchyAsset HierarchyKind = "asset"
)

// FolderDescriptor describes a single folder tile in the document browser.
//
// Path is the stable identifier used as the cache key across all layers.
// ItemCount is a display hint only: it may come from a backend count hint and
// be stale until the folder's real contents are fetched, at which point the
// descriptor is replaced (never mutated in place) with a derived count.
type FolderDescriptor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	ItemCount int    `json:"itemCount"`
}

// FileDescriptor describes a document within a folder listing.
// Immutable once fetched; its lifetime is bound to the folder-contents cache
// entry that produced it.
type FileDescriptor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        string    `json:"type"`
	SizeBytes   int64     `json:"sizeBytes"`
	ModifiedAt  time.Time `json:"modifiedAt"`
	Tags        []string  `json:"tags,omitempty"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
	WebURL      string    `json:"webUrl,omitempty"`
}

// FolderContents is the unit of caching for a fetched path.
type FolderContents struct {
	Folders []FolderDescriptor `json:"folders"`
	Files   []FileDescriptor   `json:"files"`
}

// TotalItems returns the derived item count for a fetched folder.
func (c *FolderContents) TotalItems() int {
	return len(c.Folders) + len(c.Files)
}

// FolderTemplateEntry is the wire shape of one node in the backend-supplied
// category skeleton. Subfolders, when present, carry one level of known
// children so root-to-first-level navigation needs no network round trip.
type FolderTemplateEntry struct {
	Name          string                `json:"name"`
	Path          string                `json:"path"`
	Subfolders    []FolderTemplateEntry `json:"subfolders,omitempty"`
	FileCountHint int                   `json:"fileCountHint,omitempty"`
}

// Descriptor maps a template entry to a display descriptor. The backend count
// hint seeds ItemCount; the count-patch pass replaces it once real contents
// are known for the path.
func (e FolderTemplateEntry) Descriptor() FolderDescriptor {
	return FolderDescriptor{
		ID:        e.Path,
		Name:      e.Name,
		Path:      e.Path,
		ItemCount: e.FileCountHint,
	}
}

// TemplateFolder is one root category of a hierarchy template, optionally
// carrying its known first-level subfolders.
type TemplateFolder struct {
	FolderDescriptor
	Subfolders []FolderDescriptor
}

// HierarchyTemplate is the static skeleton of root categories for one
// hierarchy kind. It is fetched at most once per (kind, identity) pair per
// session and replaced wholesale on refetch; the only field-level write it
// ever receives is the count patch.
type HierarchyTemplate struct {
	Kind     HierarchyKind
	Identity string
	Roots    []TemplateFolder
}

// BuildTemplate converts a backend category listing into a hierarchy template.
func BuildTemplate(kind HierarchyKind, identity string, entries []FolderTemplateEntry) *HierarchyTemplate {
	t := &HierarchyTemplate{
		Kind:     kind,
		Identity: identity,
		Roots:    make([]TemplateFolder, 0, len(entries)),
	}
	for _, e := range entries {
		root := TemplateFolder{FolderDescriptor: e.Descriptor()}
		if len(e.Subfolders) > 0 {
			root.Subfolders = make([]FolderDescriptor, 0, len(e.Subfolders))
			for _, sub := range e.Subfolders {
				root.Subfolders = append(root.Subfolders, sub.Descriptor())
			}
		}
		t.Roots = append(t.Roots, root)
	}
	return t
}

// ListDocumentsResponse is the envelope for the trade/asset root listings.
type ListDocumentsResponse struct {
	Success bool                  `json:"success"`
	Folders []FolderTemplateEntry `json:"folders"`
}

// ListFolderContentsResponse is the envelope for a folder contents listing.
type ListFolderContentsResponse struct {
	Success bool                  `json:"success"`
	Folders []FolderTemplateEntry `json:"folders"`
	Files   []FileDescriptor      `json:"files"`
}

// UploadResponse is the envelope for a single file upload.
type UploadResponse struct {
	Success bool `json:"success"`
}
