package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/subcommands"

	"investsync"
	"investsync/actual"
	"investsync/quote"
)

type exportCmd struct {
	output string
	format string
}

func (*exportCmd) Name() string { return "export" }
func (*exportCmd) Synopsis() string {
	return "export valued portfolio snapshots as CSV"
}
func (*exportCmd) Usage() string {
	return `investsync export [-format positions|holdings] [-o <file>]

  Values every portfolio and writes the snapshots as CSV, either one row
  per position (default) or aggregated per holding across portfolios.
  Account names are included when a ledger connection is configured.

Usage Examples:
# Print the positions export on stdout.
$ investsync export

# Write the per-holding aggregation to a file.
$ investsync export -format holdings -o holdings.csv

`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Defaults to stdout.")
	f.StringVar(&c.format, "format", string(investsync.ExportPositions), "Export layout: positions or holdings.")
}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "no arguments expected")
		return subcommands.ExitUsageError
	}

	doc := loadMapping()
	cat := investsync.NewCatalogue(doc.Stocks)
	snapshots, err := investsync.ComputeSnapshots(doc.Portfolios, cat, quote.Fetch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot compute snapshots: %v\n", err)
		return subcommands.ExitFailure
	}

	// account names are decoration on the export; a missing ledger
	// connection only costs the name columns
	var accounts []investsync.Account
	if session, err := actual.Open(); err == nil {
		accounts, err = session.Accounts()
		if err != nil {
			log.Printf("warning: cannot list ledger accounts: %v", err)
		}
		if err := session.Close(); err != nil {
			log.Printf("warning: closing ledger session: %v", err)
		}
	} else {
		log.Printf("exporting without account names: %v", err)
	}

	out := os.Stdout
	if c.output != "" {
		f, err := os.Create(c.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot create %q: %v\n", c.output, err)
			return subcommands.ExitFailure
		}
		defer f.Close()
		out = f
	}

	if err := investsync.WriteCSV(out, investsync.ExportFormat(c.format), snapshots, accounts, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: export failed: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
