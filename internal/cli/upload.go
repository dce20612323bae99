// Package cli provides the upload command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lenderdesk/docnav/internal/progress"
	"github.com/lenderdesk/docnav/internal/services"
)

// newUploadCmd creates the 'upload' command.
func newUploadCmd() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "upload --folder <category> <file>...",
		Short: "Upload documents into a folder of the hierarchy",
		Long: `Upload one or more local files into a folder of the asset's document
hierarchy. The destination folder is opened first; its name is the upload
category the platform files the documents under. After the batch, the
folder listing is refetched so counts reflect the uploads.

Example:
  docnav upload --asset A-1041 --folder Appraisals appraisal_2026.pdf photos.zip
  docnav upload --asset A-1041 --folder "Bid/Drafts" bid_v3.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if assetID == "" {
				return fmt.Errorf("uploads require --asset")
			}
			if folder == "" {
				return fmt.Errorf("--folder is required")
			}

			// Fail fast on unreadable inputs before anything is uploaded
			for _, p := range args {
				if _, err := os.Stat(p); err != nil {
					return fmt.Errorf("cannot read %s: %w", p, err)
				}
			}

			e, err := buildEngine()
			if err != nil {
				return err
			}
			defer e.drain()

			ctx := GetContext()
			if err := openPath(ctx, e.controller, folder); err != nil {
				return err
			}

			svc := services.NewDocumentService(e.client, e.controller, nil)
			ui := progress.NewUploadUI(len(args))

			results, err := svc.UploadBatch(ctx, assetID, args, ui)
			if err != nil {
				for _, r := range results {
					if r.Err != nil {
						GetLogger().Error().Str("file", r.Path).Err(r.Err).Msg("Upload failed")
					}
				}
				return err
			}

			fmt.Printf("\n✓ Uploaded %d file(s) to %s\n", len(results), folder)
			return nil
		},
	}

	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Destination folder, e.g. \"Appraisals\" or \"Bid/Drafts\"")

	return cmd
}
