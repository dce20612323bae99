// Package cli provides the tree command.
package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lenderdesk/docnav/internal/models"
)

// newTreeCmd creates the 'tree' command.
func newTreeCmd() *cobra.Command {
	var warm bool

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the document hierarchy of a trade or asset",
		Long: `Print the full folder hierarchy from the document template.

With --warm, every folder's contents are fetched into the cache first, so
the printed item counts reflect actual folder contents instead of the
template's hints, and a following 'browse' session renders instantly.

Example:
  docnav tree --asset A-1041
  docnav tree --trade T-100 --warm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			defer e.drain()

			ctx := GetContext()
			if err := e.controller.OpenRoot(ctx); err != nil {
				return err
			}

			kind := models.HierarchyTrade
			if assetID != "" {
				kind = models.HierarchyAsset
			}
			tpl, ok := e.store.Template(kind)
			if !ok {
				return fmt.Errorf("no document template available")
			}

			if warm {
				if err := warmCache(cmd, e, tpl); err != nil {
					return err
				}
				// Re-read: warming re-derived the counts
				tpl, _ = e.store.Template(kind)
			}

			printTree(tpl)
			return nil
		},
	}

	cmd.Flags().BoolVar(&warm, "warm", false, "Fetch every folder's contents into the cache first")

	return cmd
}

// warmCache fetches contents for every template folder, with a progress bar
// on stderr. Fetch failures are tolerated; those folders keep their hints.
func warmCache(cmd *cobra.Command, e *engine, tpl *models.HierarchyTemplate) error {
	if e.prefetcher == nil {
		return fmt.Errorf("prefetching is disabled (--no-prefetch)")
	}

	targets := make([]models.FolderDescriptor, 0, len(tpl.Roots))
	var nested []models.FolderDescriptor
	for _, root := range tpl.Roots {
		targets = append(targets, root.FolderDescriptor)
		nested = append(nested, root.Subfolders...)
	}

	bar := progressbar.NewOptions(len(targets)+len(nested),
		progressbar.OptionSetDescription("Warming folder cache"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	ctx := GetContext()
	e.prefetcher.Schedule(ctx, "/", targets)
	e.prefetcher.Drain()
	_ = bar.Add(len(targets))

	e.prefetcher.Schedule(ctx, "/", nested)
	e.prefetcher.Drain()
	_ = bar.Add(len(nested))
	_ = bar.Finish()

	return nil
}

func printTree(tpl *models.HierarchyTemplate) {
	fmt.Printf("%s %s\n", tpl.Kind, tpl.Identity)
	for i, root := range tpl.Roots {
		last := i == len(tpl.Roots)-1
		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}
		fmt.Printf("%s%s (%d items)\n", branch, root.Name, root.ItemCount)
		for j, sub := range root.Subfolders {
			subBranch := "├── "
			if j == len(root.Subfolders)-1 {
				subBranch = "└── "
			}
			fmt.Printf("%s%s%s (%d items)\n", indent, subBranch, sub.Name, sub.ItemCount)
		}
	}
}
