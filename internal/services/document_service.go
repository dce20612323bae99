// Package services provides frontend-agnostic business logic for docnav.
// DocumentService owns the upload boundary: batches of local files pushed
// into the currently open folder, followed by a single forced reload so the
// listing and the category counts catch up with the backend.
package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lenderdesk/docnav/internal/docnav"
	"github.com/lenderdesk/docnav/internal/events"
	"github.com/lenderdesk/docnav/internal/logging"
	"github.com/lenderdesk/docnav/internal/progress"
	"github.com/lenderdesk/docnav/internal/validation"
)

// Uploader is the remote upload operation. *api.Client satisfies it.
type Uploader interface {
	UploadFile(ctx context.Context, assetID, category, name string, r io.Reader, size int64) error
}

// UploadResult reports the outcome of one file in a batch.
type UploadResult struct {
	Path string
	Name string
	Size int64
	Err  error
}

// DocumentService coordinates uploads with the navigation controller.
type DocumentService struct {
	uploader   Uploader
	controller *docnav.Controller
	bus        *events.EventBus
	logger     *logging.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(uploader Uploader, controller *docnav.Controller, bus *events.EventBus) *DocumentService {
	return &DocumentService{
		uploader:   uploader,
		controller: controller,
		bus:        bus,
		logger:     logging.NewDefaultCLILogger(),
	}
}

// UploadBatch uploads localPaths into the currently open folder, whose name
// is the upload category. Files are uploaded one at a time; a failed file is
// recorded and the batch continues. After the batch, one forced remote reload
// of the open folder replaces the now-stale cached listing and re-derives the
// category counts. ui may be nil when no terminal progress is wanted.
//
// While uploads are in flight the cached listing is intentionally left
// stale; the reload is the single point where the view catches up.
func (s *DocumentService) UploadBatch(ctx context.Context, assetID string, localPaths []string, ui *progress.UploadUI) ([]UploadResult, error) {
	current, ok := s.controller.CurrentFolder()
	if !ok {
		return nil, fmt.Errorf("no folder open: navigate into the destination folder before uploading")
	}
	category := current.Name
	if err := validation.ValidateCategory(category); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]UploadResult, 0, len(localPaths))
	uploaded, failed := 0, 0

	for _, localPath := range localPaths {
		res := s.uploadOne(ctx, assetID, category, localPath, ui)
		results = append(results, res)
		if res.Err != nil {
			failed++
		} else {
			uploaded++
		}

		if s.bus != nil {
			s.bus.Publish(&events.UploadEvent{
				BaseEvent: events.Now(events.EventUploadCompleted),
				Name:      res.Name,
				Category:  category,
				Size:      res.Size,
				Error:     res.Err,
			})
		}
	}

	if ui != nil {
		ui.Wait()
	}

	s.logger.Info().
		Str("category", category).
		Int("uploaded", uploaded).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Upload batch finished")

	if s.bus != nil {
		s.bus.Publish(&events.UploadBatchDoneEvent{
			BaseEvent: events.Now(events.EventUploadBatchDone),
			Category:  category,
			Uploaded:  uploaded,
			Failed:    failed,
			Duration:  time.Since(start),
		})
	}

	if uploaded > 0 {
		if err := s.controller.Reload(ctx); err != nil {
			// Uploads succeeded; the stale view heals on the next navigation
			s.logger.Warn().Err(err).Msg("Post-upload reload failed")
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("%d of %d uploads failed", failed, len(localPaths))
	}
	return results, nil
}

func (s *DocumentService) uploadOne(ctx context.Context, assetID, category, localPath string, ui *progress.UploadUI) UploadResult {
	name := filepath.Base(localPath)
	res := UploadResult{Path: localPath, Name: name}

	if err := validation.ValidateFilename(name); err != nil {
		res.Err = err
		return res
	}

	f, err := os.Open(localPath)
	if err != nil {
		res.Err = fmt.Errorf("open %s: %w", localPath, err)
		return res
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		res.Err = fmt.Errorf("stat %s: %w", localPath, err)
		return res
	}
	if info.IsDir() {
		res.Err = fmt.Errorf("%s is a directory", localPath)
		return res
	}
	res.Size = info.Size()

	var body io.Reader = f
	var bar *progress.FileBar
	if ui != nil {
		bar = ui.AddFileBar(localPath, category, info.Size())
		pr := bar.ProxyReader(f)
		defer pr.Close()
		body = pr
	}

	err = s.uploader.UploadFile(ctx, assetID, category, name, body, info.Size())
	if bar != nil {
		bar.Complete(err)
	}
	if err != nil {
		res.Err = fmt.Errorf("upload %s: %w", name, err)
		return res
	}

	s.logger.Debug().
		Str("name", name).
		Str("category", category).
		Int64("size", info.Size()).
		Msg("Uploaded file")
	return res
}
