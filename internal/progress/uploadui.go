// Package progress renders terminal progress for document uploads using mpb.
// Output degrades to plain text when stderr is not a terminal, so batch
// uploads stay readable in logs and CI.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// UploadUI manages progress bars for one upload batch.
type UploadUI struct {
	progress   *mpb.Progress
	isTerminal bool
	totalFiles int
	started    int32
	completed  int32
}

// FileBar tracks a single file upload.
type FileBar struct {
	bar      *mpb.Bar
	ui       *UploadUI
	index    int
	name     string
	category string
	size     int64
	started  time.Time
}

// NewUploadUI creates the batch UI for totalFiles uploads.
func NewUploadUI(totalFiles int) *UploadUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		enableWindowsANSI(os.Stderr)
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(100),
		)
	} else {
		// Non-TTY: plain text lines instead of bars
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &UploadUI{
		progress:   p,
		isTerminal: isTerminal,
		totalFiles: totalFiles,
	}
}

// AddFileBar registers one file upload into the given category.
func (u *UploadUI) AddFileBar(localPath, category string, size int64) *FileBar {
	index := int(atomic.AddInt32(&u.started, 1))
	name := filepath.Base(localPath)

	fb := &FileBar{
		ui:       u,
		index:    index,
		name:     name,
		category: category,
		size:     size,
		started:  time.Now(),
	}

	if u.isTerminal {
		fb.bar = u.progress.New(size,
			mpb.BarStyle().
				Lbound("[").
				Filler("█").
				Tip("█").
				Padding("░").
				Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(fmt.Sprintf("[%d/%d] %s (%.1f MiB) → %s",
					index, u.totalFiles, truncateName(name, 40),
					float64(size)/(1024*1024), category), decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 30, decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		fmt.Fprintf(os.Stderr, "Uploading [%d/%d]: %s (%.1f MiB) → %s\n",
			index, u.totalFiles, name, float64(size)/(1024*1024), category)
	}

	return fb
}

// ProxyReader wraps the upload body so read progress drives the bar.
// Without a terminal the reader passes through untouched.
func (f *FileBar) ProxyReader(r io.Reader) io.ReadCloser {
	if f.bar == nil {
		return io.NopCloser(r)
	}
	return f.bar.ProxyReader(r)
}

// Complete finishes this file's bar and prints the outcome above the bars.
func (f *FileBar) Complete(err error) {
	done := atomic.AddInt32(&f.ui.completed, 1)
	if f.bar != nil {
		if err != nil {
			f.bar.Abort(true)
		} else {
			f.bar.SetTotal(f.size, true)
		}
	}

	w := f.ui.Writer()
	if err != nil {
		fmt.Fprintf(w, "✗ [%d/%d] %s: %v\n", done, f.ui.totalFiles, f.name, err)
		return
	}
	fmt.Fprintf(w, "✓ [%d/%d] %s → %s (%s)\n",
		done, f.ui.totalFiles, f.name, f.category,
		time.Since(f.started).Round(time.Millisecond))
}

// Writer returns a writer that prints above active bars when in a terminal.
func (u *UploadUI) Writer() io.Writer {
	if u.isTerminal {
		return u.progress
	}
	return os.Stderr
}

// IsTerminal reports whether bars are being rendered.
func (u *UploadUI) IsTerminal() bool { return u.isTerminal }

// Wait blocks until all bars have completed or aborted.
func (u *UploadUI) Wait() {
	u.progress.Wait()
}

func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	keep := limit - len(ext) - 1
	if keep < 8 {
		return name[:limit-1] + "…"
	}
	return strings.TrimSpace(name[:keep]) + "…" + ext
}
