package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/subcommands"

	"investsync"
	"investsync/actual"
)

type syncCmd struct {
	dryRun bool
}

func (*syncCmd) Name() string { return "sync" }
func (*syncCmd) Synopsis() string {
	return "run one reconciliation pass against the Actual Budget ledger"
}
func (*syncCmd) Usage() string {
	return `investsync sync [-dry-run]

  Values every portfolio in the mapping document from live provider quotes,
  compares each value against its ledger account balance, and posts a
  correcting transaction where they diverge by at least half a minor unit.
  Prints the number of transactions applied.

  The ledger connection is configured via ACTUAL_SERVER_URL,
  ACTUAL_PASSWORD and ACTUAL_SYNC_ID (a .env file is honored).

Usage Examples:
# Run a pass against the default mapping file.
$ investsync sync

# Report the deltas a pass would post, without posting anything.
$ investsync sync -dry-run

`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "dry-run", false, "Compute and report deltas without posting transactions.")
}

func (c *syncCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "no arguments expected")
		return subcommands.ExitUsageError
	}

	doc := loadMapping()

	session, err := actual.Open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open ledger session: %v\n", err)
		return subcommands.ExitFailure
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("warning: closing ledger session: %v", err)
		}
	}()

	rec := &investsync.Reconciler{Ledger: session, DryRun: c.dryRun}
	applied, err := rec.Run(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: reconciliation pass aborted: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := saveMapping(doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save mapping document: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Applied %d transaction(s)\n", applied)
	return subcommands.ExitSuccess
}
