package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"investsync"
	"investsync/quote"
)

type addStockCmd struct {
	name     string
	symbol   string
	provider string
}

func (*addStockCmd) Name() string { return "add-stock" }
func (*addStockCmd) Synopsis() string {
	return "define a stock in the catalogue, or update an existing one"
}
func (*addStockCmd) Usage() string {
	return `investsync add-stock -name <name> -symbol <symbol> [-provider <provider>]

  Adds a stock definition to the mapping document. The name is the unique
  key portfolios reference; the symbol is the provider's ticker or lookup
  key. Defining the same name again replaces the previous definition.

  Providers: ft (default), alphavantage, finnhub, twelvedata.

`
}

func (c *addStockCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "User-facing stock name (unique key).")
	f.StringVar(&c.symbol, "symbol", "", "Provider-specific ticker or lookup key.")
	f.StringVar(&c.provider, "provider", string(quote.FT), "Quote provider tag.")
}

func (c *addStockCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" || c.symbol == "" {
		fmt.Fprintln(os.Stderr, "both -name and -symbol are required")
		return subcommands.ExitUsageError
	}
	source := quote.Source(c.provider)
	if !source.Valid() {
		fmt.Fprintf(os.Stderr, "unknown provider %q (supported: %v)\n", c.provider, quote.Sources())
		return subcommands.ExitUsageError
	}

	doc := loadMapping()
	stock := investsync.Stock{Name: c.name, Symbol: c.symbol, Provider: source}
	replaced := false
	for i := range doc.Stocks {
		if doc.Stocks[i].Name == c.name {
			doc.Stocks[i] = stock
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Stocks = append(doc.Stocks, stock)
	}

	if err := saveMapping(doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save mapping document: %v\n", err)
		return subcommands.ExitFailure
	}
	if replaced {
		fmt.Printf("Updated stock %q\n", c.name)
	} else {
		fmt.Printf("Added stock %q\n", c.name)
	}
	return subcommands.ExitSuccess
}
