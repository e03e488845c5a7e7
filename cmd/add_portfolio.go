package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"investsync"
)

type addPortfolioCmd struct {
	name    string
	cash    float64
	account string
}

func (*addPortfolioCmd) Name() string { return "add-portfolio" }
func (*addPortfolioCmd) Synopsis() string {
	return "define a portfolio, or update an existing one"
}
func (*addPortfolioCmd) Usage() string {
	return `investsync add-portfolio -name <name> [-cash <amount>] [-account <ledger account id>] [<stock>=<quantity>...]

  Adds a portfolio to the mapping document. Holdings are given as
  positional name=quantity pairs referencing stocks from the catalogue.
  Defining the same name again replaces the previous definition, keeping
  its sync id and bookkeeping.

Usage Examples:
$ investsync add-portfolio -name ISA -cash 50 -account 1a2b3c "Fund A"=2 "Fund B"=10.5

`
}

func (c *addPortfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Portfolio name.")
	f.Float64Var(&c.cash, "cash", 0, "Uninvested cash held in the portfolio, in major units.")
	f.StringVar(&c.account, "account", "", "Ledger account id this portfolio reconciles against.")
}

func (c *addPortfolioCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" {
		fmt.Fprintln(os.Stderr, "-name is required")
		return subcommands.ExitUsageError
	}

	holdings := make([]investsync.Holding, 0, f.NArg())
	for _, arg := range f.Args() {
		name, qty, ok := strings.Cut(arg, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "invalid holding %q, expected <stock>=<quantity>\n", arg)
			return subcommands.ExitUsageError
		}
		quantity, err := strconv.ParseFloat(qty, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid quantity in %q: %v\n", arg, err)
			return subcommands.ExitUsageError
		}
		holdings = append(holdings, investsync.Holding{Name: name, Quantity: quantity})
	}

	doc := loadMapping()

	cat := investsync.NewCatalogue(doc.Stocks)
	for _, h := range holdings {
		if _, ok := cat[h.Name]; !ok {
			fmt.Fprintf(os.Stderr, "unknown stock %q, define it with add-stock first\n", h.Name)
			return subcommands.ExitUsageError
		}
	}

	p := investsync.Portfolio{Name: c.name, Cash: c.cash, LedgerAccountID: c.account, Holdings: holdings}
	replaced := false
	for i := range doc.Portfolios {
		if doc.Portfolios[i].Name == c.name {
			// keep identity and bookkeeping across edits
			p.SyncID = doc.Portfolios[i].SyncID
			p.LastKnownValue = doc.Portfolios[i].LastKnownValue
			doc.Portfolios[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Portfolios = append(doc.Portfolios, p)
	}

	if err := saveMapping(doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save mapping document: %v\n", err)
		return subcommands.ExitFailure
	}
	if replaced {
		fmt.Printf("Updated portfolio %q\n", c.name)
	} else {
		fmt.Printf("Added portfolio %q\n", c.name)
	}
	return subcommands.ExitSuccess
}
