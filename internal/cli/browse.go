// Package cli provides the interactive browse command.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lenderdesk/docnav/internal/services"
)

// newBrowseCmd creates the 'browse' command.
func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactively browse the document hierarchy",
		Long: `Open an interactive session over the trade or asset document hierarchy.

Folders open instantly once cached or known from the template; subfolders
of every listing are prefetched in the background.

Commands:
  <number>        open the numbered folder
  ..              go up one level
  /               jump to the root categories
  b <number>      jump to a breadcrumb entry
  up <file>...    upload files into the open folder
  reload          refetch the open folder from the platform
  q               quit`,
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

			return browseLoop(cmd, e)
		},
	}

	return cmd
}

func browseLoop(cmd *cobra.Command, e *engine) error {
	ctx := GetContext()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		st := e.controller.Snapshot()
		fmt.Printf("\n%s\n", breadcrumbString(st.CurrentPath))
		for i, f := range st.Folders {
			fmt.Printf("  %2d. %s/ (%d items)\n", i+1, f.Name, f.ItemCount)
		}
		for _, f := range st.Files {
			fmt.Printf("      %s  %s\n", f.Name, formatSize(f.SizeBytes))
		}
		if len(st.Folders) == 0 && len(st.Files) == 0 {
			fmt.Println("      (empty)")
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := runBrowseCommand(ctx, e, line); err != nil {
			if err == errQuit {
				return nil
			}
			// Navigation errors are not fatal to the session
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}

		if err := ctx.Err(); err != nil {
			return nil
		}
	}
}

var errQuit = fmt.Errorf("quit")

func runBrowseCommand(ctx context.Context, e *engine, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "q", "quit", "exit":
		return errQuit

	case "/", "root":
		return e.controller.NavigateToRoot(ctx)

	case "..":
		st := e.controller.Snapshot()
		if len(st.CurrentPath) <= 1 {
			return e.controller.NavigateToRoot(ctx)
		}
		return e.controller.NavigateToFolder(ctx, len(st.CurrentPath)-2)

	case "b":
		if len(fields) != 2 {
			return fmt.Errorf("usage: b <number>")
		}
		i, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("not a breadcrumb number: %s", fields[1])
		}
		if i == 0 {
			return e.controller.NavigateToRoot(ctx)
		}
		return e.controller.NavigateToFolder(ctx, i-1)

	case "reload":
		return e.controller.Reload(ctx)

	case "up":
		if len(fields) < 2 {
			return fmt.Errorf("usage: up <file>...")
		}
		return uploadFromBrowse(ctx, e, fields[1:])

	default:
		i, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("unknown command: %s", fields[0])
		}
		st := e.controller.Snapshot()
		if i < 1 || i > len(st.Folders) {
			return fmt.Errorf("no folder numbered %d", i)
		}
		return e.controller.OpenFolder(ctx, st.Folders[i-1])
	}
}

func uploadFromBrowse(ctx context.Context, e *engine, paths []string) error {
	if assetID == "" {
		return fmt.Errorf("uploads require --asset")
	}
	svc := services.NewDocumentService(e.client, e.controller, nil)
	_, err := svc.UploadBatch(ctx, assetID, paths, nil)
	return err
}
