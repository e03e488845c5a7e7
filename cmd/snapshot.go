package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"investsync"
	"investsync/quote"
)

type snapshotCmd struct{}

func (*snapshotCmd) Name() string { return "snapshot" }
func (*snapshotCmd) Synopsis() string {
	return "value every portfolio from live quotes and print the result"
}
func (*snapshotCmd) Usage() string {
	return `investsync snapshot

  Resolves one live price per distinct stock and prints each portfolio's
  holdings, market values and total. Read-only: no ledger connection, no
  mapping change.

`
}

func (*snapshotCmd) SetFlags(f *flag.FlagSet) {}

func (c *snapshotCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	printMarkdown(renderSnapshots(snapshots))
	return subcommands.ExitSuccess
}

func renderSnapshots(snapshots []investsync.Snapshot) string {
	var b strings.Builder
	for _, s := range snapshots {
		fmt.Fprintf(&b, "# %s\n\n", s.Name)
		b.WriteString("| Holding | Qty | Price | Market Value |\n")
		b.WriteString("|---|---:|---:|---:|\n")
		for _, h := range s.Holdings {
			fmt.Fprintf(&b, "| %s | %v | %.4f | %.2f |\n", h.Name, h.Quantity, h.Price, h.MarketValue)
		}
		fmt.Fprintf(&b, "| Cash | | | %.2f |\n", s.Cash)
		fmt.Fprintf(&b, "\n**Total: %.2f**\n\n", s.TotalValue)
	}
	if len(snapshots) == 0 {
		b.WriteString("No portfolios defined.\n")
	}
	return b.String()
}
