package investsync

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"investsync/quote"
)

// PriceFunc resolves the current price of a provider symbol. It defaults to
// quote.Fetch and is swapped out wholesale in tests, insulating everything
// above it from the scraping brittleness behind it.
type PriceFunc func(symbol string, source quote.Source) (float64, error)

// PriceMap holds resolved prices keyed by stock name. It is rebuilt for
// every pass and never persisted.
type PriceMap map[string]float64

// HoldingValue is one valued position inside a snapshot.
type HoldingValue struct {
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	Provider    quote.Source `json:"provider"`
	Quantity    float64      `json:"quantity"`
	Price       float64      `json:"price"`
	MarketValue float64      `json:"marketValue"`
}

// Snapshot is a fully valued, ephemeral view of one portfolio. Computing it
// never mutates the mapping document.
type Snapshot struct {
	Name       string         `json:"name"`
	AccountID  string         `json:"accountId"`
	Cash       float64        `json:"cash"`
	Holdings   []HoldingValue `json:"stocks"`
	TotalValue float64        `json:"totalValue"`
}

// ResolvePrices fetches one price per distinct stock name referenced across
// all the given portfolios, concurrently. External calls are therefore
// bounded by the number of distinct stocks, not the number of holdings.
//
// Names that could not be priced are absent from the returned map and
// carry their cause in the error map: an *UnknownStockError for names
// missing from the catalogue, the provider error otherwise. Portfolios not
// depending on a failed name are unaffected.
func ResolvePrices(portfolios []Portfolio, cat Catalogue, resolve PriceFunc) (PriceMap, map[string]error) {
	failures := make(map[string]error)
	var names []string
	seen := make(map[string]bool)
	for _, p := range portfolios {
		for _, h := range p.Holdings {
			if h.Name == "" || seen[h.Name] {
				continue
			}
			seen[h.Name] = true
			if _, ok := cat[h.Name]; !ok {
				failures[h.Name] = &UnknownStockError{Name: h.Name}
				continue
			}
			names = append(names, h.Name)
		}
	}
	sort.Strings(names)

	type result struct {
		name  string
		price float64
		err   error
	}
	ch := make(chan result, len(names))
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string, def Stock) {
			defer wg.Done()
			price, err := resolve(def.Symbol, def.Provider)
			if err == nil && (math.IsNaN(price) || math.IsInf(price, 0)) {
				err = fmt.Errorf("non-finite price %v for %q", price, name)
			}
			ch <- result{name: name, price: price, err: err}
		}(name, cat[name])
	}
	wg.Wait()
	close(ch)

	prices := make(PriceMap, len(names))
	for r := range ch {
		if r.err != nil {
			failures[r.name] = r.err
			continue
		}
		prices[r.name] = r.price
	}
	return prices, failures
}

// value computes one portfolio's total value from already resolved prices.
// The per-holding market value and the total are each rounded to two
// places; the rounded total is the authoritative value compared against
// the ledger.
func value(p Portfolio, cat Catalogue, prices PriceMap) (decimal.Decimal, []HoldingValue, error) {
	total := decimal.NewFromFloat(p.Cash)
	holdings := make([]HoldingValue, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		if h.Name == "" {
			continue
		}
		def, ok := cat[h.Name]
		if !ok {
			return decimal.Zero, nil, &UnknownStockError{Name: h.Name}
		}
		price, ok := prices[h.Name]
		if !ok {
			return decimal.Zero, nil, fmt.Errorf("no resolved price for %q", h.Name)
		}
		mv := round2(decimal.NewFromFloat(h.Quantity).Mul(decimal.NewFromFloat(price)))
		holdings = append(holdings, HoldingValue{
			Name:        h.Name,
			Symbol:      def.Symbol,
			Provider:    def.Provider.Normalize(),
			Quantity:    h.Quantity,
			Price:       price,
			MarketValue: mv.InexactFloat64(),
		})
		total = total.Add(mv)
	}
	return round2(total), holdings, nil
}

// PortfolioValue computes one portfolio's authoritative value from already
// resolved prices.
func PortfolioValue(p Portfolio, cat Catalogue, prices PriceMap) (decimal.Decimal, error) {
	total, _, err := value(p, cat, prices)
	return total, err
}

// ComputeSnapshots values every portfolio against the catalogue, resolving
// each distinct stock exactly once. Any holding referencing an unknown name
// fails the whole computation before a single price is fetched, so no
// partial output is ever produced.
func ComputeSnapshots(portfolios []Portfolio, cat Catalogue, resolve PriceFunc) ([]Snapshot, error) {
	for _, p := range portfolios {
		for _, h := range p.Holdings {
			if h.Name == "" {
				continue
			}
			if _, ok := cat[h.Name]; !ok {
				return nil, &UnknownStockError{Name: h.Name}
			}
		}
	}

	prices, failures := ResolvePrices(portfolios, cat, resolve)
	for name, err := range failures {
		return nil, fmt.Errorf("cannot resolve price for %q: %w", name, err)
	}

	snapshots := make([]Snapshot, 0, len(portfolios))
	for _, p := range portfolios {
		total, holdings, err := value(p, cat, prices)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, Snapshot{
			Name:       p.Name,
			AccountID:  p.LedgerAccountID,
			Cash:       round2(decimal.NewFromFloat(p.Cash)).InexactFloat64(),
			Holdings:   holdings,
			TotalValue: total.InexactFloat64(),
		})
	}
	return snapshots, nil
}
