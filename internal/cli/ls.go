// Package cli provides listing commands.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lenderdesk/docnav/internal/api"
	"github.com/lenderdesk/docnav/internal/docnav"
	"github.com/lenderdesk/docnav/internal/models"
)

// newLsCmd creates the 'ls' command.
func newLsCmd() *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "ls [folder/subfolder]",
		Short: "List a folder in the document hierarchy",
		Long: `List the contents of a folder in the trade or asset document hierarchy.

With no argument, lists the root categories. Folder arguments are matched
by name, case-insensitively.

Example:
  # Root categories of an asset
  docnav ls --asset A-1041

  # A category's subfolders
  docnav ls --asset A-1041 Bid

  # A nested folder
  docnav ls --trade T-100 "Bid/Drafts"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := buildEngine()
			if err != nil {
				return err
			}
			defer e.drain()

			ctx := GetContext()
			target := ""
			if len(args) > 0 {
				target = args[0]
			}
			if err := openPath(ctx, e.controller, target); err != nil {
				// Recoverable remote failures leave the controller on its
				// degraded empty state; show it instead of aborting
				if !api.IsUnavailable(err) {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			printListing(e.controller.Snapshot(), long)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "Long listing (size, modified, tags)")

	return cmd
}

// openPath navigates from the root to the named folder, matching each
// segment against the rendered folder list by name.
func openPath(ctx context.Context, c *docnav.Controller, target string) error {
	if err := c.OpenRoot(ctx); err != nil {
		return err
	}

	for _, segment := range strings.Split(target, "/") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		d, ok := findFolder(c.Snapshot().Folders, segment)
		if !ok {
			return fmt.Errorf("folder %q not found under %s", segment, breadcrumbString(c.Snapshot().CurrentPath))
		}
		if err := c.OpenFolder(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func findFolder(folders []models.FolderDescriptor, name string) (models.FolderDescriptor, bool) {
	for _, f := range folders {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return models.FolderDescriptor{}, false
}

func breadcrumbString(path []models.FolderDescriptor) string {
	if len(path) == 0 {
		return "/"
	}
	names := make([]string, 0, len(path))
	for _, d := range path {
		names = append(names, d.Name)
	}
	return "/" + strings.Join(names, "/")
}

func printListing(st docnav.State, long bool) {
	fmt.Printf("%s\n", breadcrumbString(st.CurrentPath))

	for _, f := range st.Folders {
		if long {
			fmt.Printf("  %-40s %6d items\n", f.Name+"/", f.ItemCount)
		} else {
			fmt.Printf("  %s/\n", f.Name)
		}
	}
	for _, f := range st.Files {
		if long {
			modified := "-"
			if !f.ModifiedAt.IsZero() {
				modified = f.ModifiedAt.Format(time.DateOnly)
			}
			tags := ""
			if len(f.Tags) > 0 {
				tags = "  [" + strings.Join(f.Tags, ", ") + "]"
			}
			fmt.Printf("  %-40s %10s  %s%s\n", f.Name, formatSize(f.SizeBytes), modified, tags)
		} else {
			fmt.Printf("  %s\n", f.Name)
		}
	}

	if len(st.Folders) == 0 && len(st.Files) == 0 {
		fmt.Println("  (empty)")
	}
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
