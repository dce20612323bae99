// docnav - terminal client for the LenderDesk document manager
package main

import (
	"os"

	"github.com/lenderdesk/docnav/internal/cli"
	"github.com/lenderdesk/docnav/internal/version"
)

// Version information, injected via LDFLAGS for release builds.
var (
	Version   = "v1.3.0"
	BuildTime = "dev"
)

func main() {
	// Set version in version package (canonical source for all packages)
	version.Version = Version
	version.BuildTime = BuildTime
	cli.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
