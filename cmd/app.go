// Package cmd implements the CLI application to manage and reconcile
// investment portfolios against an Actual Budget ledger.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"investsync"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var mappingFlag = flag.String("mapping-file", "", "Path to the mapping document (JSON). Defaults to $MAPPING_FILE or data/mapping.json.")

// Commands lists every subcommand the binary registers.
var Commands = []subcommands.Command{
	&syncCmd{},
	&snapshotCmd{},
	&exportCmd{},
	&addStockCmd{},
	&addPortfolioCmd{},
	&serveCmd{},
	&topicCmd{},
}

// mappingPath resolves the mapping document location: flag, then
// environment, then the default next to the working directory.
func mappingPath() string {
	if *mappingFlag != "" {
		return *mappingFlag
	}
	if v := os.Getenv("MAPPING_FILE"); v != "" {
		return v
	}
	return filepath.Join("data", "mapping.json")
}

func loadMapping() *investsync.MappingDocument {
	return investsync.LoadMapping(mappingPath())
}

func saveMapping(doc *investsync.MappingDocument) error {
	return investsync.SaveMapping(mappingPath(), doc)
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when the renderer cannot be built.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Print(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
