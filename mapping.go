package investsync

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"investsync/quote"
)

// Stock declares how a user-facing stock name resolves to a quote source.
// The name is the unique key portfolios reference holdings by; the symbol is
// whatever ticker or lookup key the provider expects.
type Stock struct {
	Name     string       `json:"name"`
	Symbol   string       `json:"key"`
	Provider quote.Source `json:"provider,omitempty"`
}

// Holding is a position in a portfolio, referencing a Stock by name.
type Holding struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// Portfolio is one externally valued portfolio tied to a ledger account.
//
// SyncID is assigned once, on the first successfully posted transaction, and
// persisted so transaction identifiers stay tied to the same portfolio across
// passes. LastKnownValue records the value computed on the last applied sync;
// it is bookkeeping only and never feeds the delta computation.
type Portfolio struct {
	Name            string    `json:"name"`
	Cash            float64   `json:"cash"`
	LedgerAccountID string    `json:"accountId"`
	Holdings        []Holding `json:"stocks"`
	SyncID          string    `json:"id,omitempty"`
	LastKnownValue  *float64  `json:"lastBalance,omitempty"`
}

// MappingDocument is the sole durable state: the stock catalogue and the
// portfolio definitions. The JSON layout round-trips through the admin UI,
// so fields are only ever added, never renamed.
type MappingDocument struct {
	Stocks     []Stock     `json:"stocks"`
	Portfolios []Portfolio `json:"portfolios"`
}

// NewMappingDocument returns an empty, usable document.
func NewMappingDocument() *MappingDocument {
	return &MappingDocument{Stocks: []Stock{}, Portfolios: []Portfolio{}}
}

// LoadMapping reads the mapping document from path. A missing or unparseable
// file is not an error: it logs a warning and returns an empty default, so a
// fresh install starts from nothing instead of refusing to run.
func LoadMapping(path string) *MappingDocument {
	doc := NewMappingDocument()
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("warning: cannot read mapping file %q, starting with an empty mapping: %v", path, err)
		return doc
	}
	if err := json.Unmarshal(data, doc); err != nil {
		log.Printf("warning: cannot parse mapping file %q, starting with an empty mapping: %v", path, err)
		return NewMappingDocument()
	}
	if doc.Stocks == nil {
		doc.Stocks = []Stock{}
	}
	if doc.Portfolios == nil {
		doc.Portfolios = []Portfolio{}
	}
	return doc
}

// SaveMapping atomically persists the document: it writes a sibling temp
// file and renames it over the target, so a crash mid-write leaves the
// previous valid document untouched.
func SaveMapping(path string, doc *MappingDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode mapping: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create mapping directory %q: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("cannot write mapping temp file %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("cannot replace mapping file %q: %w", path, err)
	}
	return nil
}

// Catalogue indexes the stock definitions by their user-facing name.
type Catalogue map[string]Stock

// NewCatalogue builds the name lookup. On duplicate names the last
// definition wins, matching how the admin UI edits the list in place.
func NewCatalogue(stocks []Stock) Catalogue {
	c := make(Catalogue, len(stocks))
	for _, s := range stocks {
		if s.Name == "" {
			continue
		}
		c[s.Name] = s
	}
	return c
}
