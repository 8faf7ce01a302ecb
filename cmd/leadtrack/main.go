// Command leadtrack is the operator CLI: migrations, seeding, user
// bootstrap, report generation and activity pruning against a running
// deployment.
package main

import (
	"os"

	"github.com/relayops/leadtrack/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
