package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/lenderdesk/docnav/internal/docnav"
	"github.com/lenderdesk/docnav/internal/docstore"
	"github.com/lenderdesk/docnav/internal/models"
)

type fakeRemote struct {
	mu           sync.Mutex
	uploads      []string // "category/name"
	uploadBodies map[string]string
	failNames    map[string]error
	contentCalls []string
	listings     map[string]*models.FolderContents
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		uploadBodies: map[string]string{},
		failNames:    map[string]error{},
		listings:     map[string]*models.FolderContents{},
	}
}

func (f *fakeRemote) UploadFile(ctx context.Context, assetID, category, name string, r io.Reader, size int64) error {
	if err, ok := f.failNames[name]; ok {
		return err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, category+"/"+name)
	f.uploadBodies[name] = string(body)
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) ListTradeDocuments(ctx context.Context, tradeID string) ([]models.FolderTemplateEntry, error) {
	return []models.FolderTemplateEntry{
		{Name: "Appraisals", Path: "/assets/A-9/Appraisals", FileCountHint: 1},
	}, nil
}

func (f *fakeRemote) ListAssetDocuments(ctx context.Context, assetID string) ([]models.FolderTemplateEntry, error) {
	return f.ListTradeDocuments(ctx, assetID)
}

func (f *fakeRemote) ListFolderContents(ctx context.Context, path string) (*models.FolderContents, error) {
	f.mu.Lock()
	f.contentCalls = append(f.contentCalls, path)
	listing, ok := f.listings[path]
	f.mu.Unlock()
	if ok {
		return listing, nil
	}
	return &models.FolderContents{
		Folders: []models.FolderDescriptor{},
		Files:   []models.FileDescriptor{},
	}, nil
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return p
}

func openAppraisals(t *testing.T, remote *fakeRemote) *docnav.Controller {
	t.Helper()
	ctrl := docnav.New(docstore.New(), remote)
	ctrl.SetIdentity("", "A-9")
	ctx := context.Background()
	if err := ctrl.OpenRoot(ctx); err != nil {
		t.Fatalf("OpenRoot failed: %v", err)
	}
	d := models.FolderDescriptor{ID: "/assets/A-9/Appraisals", Name: "Appraisals", Path: "/assets/A-9/Appraisals"}
	if err := ctrl.OpenFolder(ctx, d); err != nil {
		t.Fatalf("OpenFolder failed: %v", err)
	}
	return ctrl
}

func TestUploadBatchTargetsOpenFolder(t *testing.T) {
	remote := newFakeRemote()
	ctrl := openAppraisals(t, remote)
	svc := NewDocumentService(remote, ctrl, nil)

	dir := t.TempDir()
	a := writeTempFile(t, dir, "appraisal_2026.pdf", "pdf-bytes")
	b := writeTempFile(t, dir, "photos.zip", "zip-bytes")

	results, err := svc.UploadBatch(context.Background(), "A-9", []string{a, b}, nil)
	if err != nil {
		t.Fatalf("UploadBatch failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	for _, want := range []string{"Appraisals/appraisal_2026.pdf", "Appraisals/photos.zip"} {
		found := false
		for _, got := range remote.uploads {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected upload %q, got %v", want, remote.uploads)
		}
	}
	if remote.uploadBodies["appraisal_2026.pdf"] != "pdf-bytes" {
		t.Errorf("Upload body mismatch: %q", remote.uploadBodies["appraisal_2026.pdf"])
	}
}

func TestUploadBatchReloadsOnce(t *testing.T) {
	remote := newFakeRemote()
	ctrl := openAppraisals(t, remote)
	svc := NewDocumentService(remote, ctrl, nil)

	before := len(remote.contentCalls)

	dir := t.TempDir()
	a := writeTempFile(t, dir, "one.pdf", "1")
	b := writeTempFile(t, dir, "two.pdf", "2")
	c := writeTempFile(t, dir, "three.pdf", "3")

	if _, err := svc.UploadBatch(context.Background(), "A-9", []string{a, b, c}, nil); err != nil {
		t.Fatalf("UploadBatch failed: %v", err)
	}

	// One forced reload for the whole batch, not one per file
	if got := len(remote.contentCalls) - before; got != 1 {
		t.Errorf("Expected a single post-batch reload, got %d fetches", got)
	}
}

func TestUploadBatchContinuesPastFailures(t *testing.T) {
	remote := newFakeRemote()
	remote.failNames["bad.pdf"] = errors.New("backend rejected upload")
	ctrl := openAppraisals(t, remote)
	svc := NewDocumentService(remote, ctrl, nil)

	dir := t.TempDir()
	bad := writeTempFile(t, dir, "bad.pdf", "x")
	good := writeTempFile(t, dir, "good.pdf", "y")

	results, err := svc.UploadBatch(context.Background(), "A-9", []string{bad, good}, nil)
	if err == nil {
		t.Fatal("Expected a batch error when a file fails")
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil || results[1].Err != nil {
		t.Errorf("Unexpected per-file outcomes: %+v", results)
	}
	// The surviving upload still triggers the reload
	if len(remote.uploads) != 1 {
		t.Errorf("Expected the good file to upload, got %v", remote.uploads)
	}
}

func TestUploadBatchRequiresOpenFolder(t *testing.T) {
	remote := newFakeRemote()
	ctrl := docnav.New(docstore.New(), remote)
	ctrl.SetIdentity("", "A-9")
	svc := NewDocumentService(remote, ctrl, nil)

	if _, err := svc.UploadBatch(context.Background(), "A-9", []string{"x.pdf"}, nil); err == nil {
		t.Error("Expected an error when no folder is open")
	}
}

func TestUploadRefreshesStaleListing(t *testing.T) {
	remote := newFakeRemote()
	ctrl := openAppraisals(t, remote)
	svc := NewDocumentService(remote, ctrl, nil)

	remote.mu.Lock()
	remote.listings["/assets/A-9/Appraisals"] = &models.FolderContents{
		Folders: []models.FolderDescriptor{},
		Files: []models.FileDescriptor{
			{ID: "n", Name: "new.pdf", Path: "/assets/A-9/Appraisals/new.pdf"},
		},
	}
	remote.mu.Unlock()

	dir := t.TempDir()
	p := writeTempFile(t, dir, "new.pdf", "n")
	if _, err := svc.UploadBatch(context.Background(), "A-9", []string{p}, nil); err != nil {
		t.Fatalf("UploadBatch failed: %v", err)
	}

	if st := ctrl.Snapshot(); len(st.Files) != 1 || st.Files[0].Name != "new.pdf" {
		t.Errorf("Expected the reloaded listing to show the upload, got %+v", st.Files)
	}
}
