// molmatch is the command line client: it runs matches locally against
// molfiles or the configured molecule bucket.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/MolMatch/internal/interfaces/cli"
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
	// An interrupted match stops early and reports TIMED_OUT.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

//Personal.AI order the ending
