package investsync

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"investsync/quote"
)

// countingResolver returns fixed prices by symbol and counts every fetch,
// safely across the concurrent fan-out.
type countingResolver struct {
	mu     sync.Mutex
	prices map[string]float64
	errs   map[string]error
	calls  map[string]int
}

func (r *countingResolver) fetch(symbol string, _ quote.Source) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]int)
	}
	r.calls[symbol]++
	if err, ok := r.errs[symbol]; ok {
		return math.NaN(), err
	}
	price, ok := r.prices[symbol]
	if !ok {
		return math.NaN(), fmt.Errorf("no such symbol %q", symbol)
	}
	return price, nil
}

func testCatalogue() Catalogue {
	return NewCatalogue([]Stock{
		{Name: "Fund A", Symbol: "AAA", Provider: quote.FT},
		{Name: "Fund B", Symbol: "BBB", Provider: quote.Finnhub},
	})
}

func TestComputeSnapshotsScenario(t *testing.T) {
	resolver := &countingResolver{prices: map[string]float64{"AAA": 10}}
	portfolios := []Portfolio{{
		Name:            "ISA",
		Cash:            50,
		LedgerAccountID: "acct-1",
		Holdings:        []Holding{{Name: "Fund A", Quantity: 2}},
	}}

	snapshots, err := ComputeSnapshots(portfolios, testCatalogue(), resolver.fetch)
	if err != nil {
		t.Fatalf("ComputeSnapshots() unexpected error = %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("ComputeSnapshots() returned %d snapshots, want 1", len(snapshots))
	}
	s := snapshots[0]
	if s.Cash != 50 {
		t.Errorf("Cash = %v, want 50", s.Cash)
	}
	if len(s.Holdings) != 1 || s.Holdings[0].MarketValue != 20 {
		t.Errorf("Holdings = %+v, want one holding with marketValue 20", s.Holdings)
	}
	if s.TotalValue != 70 {
		t.Errorf("TotalValue = %v, want 70", s.TotalValue)
	}
	if s.Holdings[0].Symbol != "AAA" || s.Holdings[0].Provider != quote.FT {
		t.Errorf("holding definition = %+v, want symbol AAA provider ft", s.Holdings[0])
	}
}

// Two portfolios referencing the same stock must cost exactly one fetch.
func TestResolvePricesDeduplicates(t *testing.T) {
	resolver := &countingResolver{prices: map[string]float64{"AAA": 10, "BBB": 3}}
	portfolios := []Portfolio{
		{Name: "ISA", Holdings: []Holding{{Name: "Fund A", Quantity: 2}, {Name: "Fund B", Quantity: 1}}},
		{Name: "SIPP", Holdings: []Holding{{Name: "Fund A", Quantity: 7}}},
	}

	prices, failures := ResolvePrices(portfolios, testCatalogue(), resolver.fetch)
	if len(failures) != 0 {
		t.Fatalf("ResolvePrices() failures = %v, want none", failures)
	}
	if len(prices) != 2 || prices["Fund A"] != 10 || prices["Fund B"] != 3 {
		t.Errorf("ResolvePrices() = %v, want Fund A=10 Fund B=3", prices)
	}
	if resolver.calls["AAA"] != 1 {
		t.Errorf("fetched %q %d times, want exactly 1", "AAA", resolver.calls["AAA"])
	}
	if resolver.calls["BBB"] != 1 {
		t.Errorf("fetched %q %d times, want exactly 1", "BBB", resolver.calls["BBB"])
	}
}

func TestComputeSnapshotsUnknownStock(t *testing.T) {
	resolver := &countingResolver{prices: map[string]float64{"AAA": 10}}
	portfolios := []Portfolio{
		{Name: "ISA", Holdings: []Holding{{Name: "Fund A", Quantity: 2}}},
		{Name: "SIPP", Holdings: []Holding{{Name: "Mystery", Quantity: 1}}},
	}

	_, err := ComputeSnapshots(portfolios, testCatalogue(), resolver.fetch)
	var unknown *UnknownStockError
	if !errors.As(err, &unknown) {
		t.Fatalf("ComputeSnapshots() error = %v, want *UnknownStockError", err)
	}
	if unknown.Name != "Mystery" {
		t.Errorf("UnknownStockError.Name = %q, want %q", unknown.Name, "Mystery")
	}
	// it must fail before fetching anything
	if len(resolver.calls) != 0 {
		t.Errorf("ComputeSnapshots() fetched %v before failing on the unknown name", resolver.calls)
	}
}

func TestResolvePricesFailures(t *testing.T) {
	resolver := &countingResolver{
		prices: map[string]float64{"AAA": 10},
		errs:   map[string]error{"BBB": errors.New("service down")},
	}
	portfolios := []Portfolio{
		{Name: "ISA", Holdings: []Holding{{Name: "Fund A", Quantity: 1}}},
		{Name: "SIPP", Holdings: []Holding{{Name: "Fund B", Quantity: 1}, {Name: "Mystery", Quantity: 1}}},
	}

	prices, failures := ResolvePrices(portfolios, testCatalogue(), resolver.fetch)
	if _, ok := prices["Fund A"]; !ok {
		t.Error("ResolvePrices() dropped the healthy stock")
	}
	if _, ok := failures["Fund B"]; !ok {
		t.Error("ResolvePrices() did not record the provider failure")
	}
	var unknown *UnknownStockError
	if !errors.As(failures["Mystery"], &unknown) {
		t.Errorf("failures[Mystery] = %v, want *UnknownStockError", failures["Mystery"])
	}
}

func TestResolvePricesNonFinite(t *testing.T) {
	resolver := &countingResolver{prices: map[string]float64{"AAA": math.Inf(1)}}
	portfolios := []Portfolio{{Name: "ISA", Holdings: []Holding{{Name: "Fund A", Quantity: 1}}}}

	prices, failures := ResolvePrices(portfolios, testCatalogue(), resolver.fetch)
	if len(prices) != 0 {
		t.Errorf("ResolvePrices() = %v, want no prices for a non-finite quote", prices)
	}
	if failures["Fund A"] == nil {
		t.Error("ResolvePrices() did not record the non-finite quote as a failure")
	}
}

func TestValueRounding(t *testing.T) {
	testCases := []struct {
		name      string
		cash      float64
		quantity  float64
		price     float64
		wantMV    float64
		wantTotal float64
	}{
		{"Exact", 50, 2, 10, 20, 70},
		{"Half rounds away from zero", 0, 3, 0.335, 1.01, 1.01},
		{"Fractional price", 10.10, 1.5, 33.333, 50, 60.1},
		{"Negative market value", 0, 2, -0.005, -0.01, -0.01},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &countingResolver{prices: map[string]float64{"AAA": tc.price}}
			portfolios := []Portfolio{{
				Name: "P", Cash: tc.cash,
				Holdings: []Holding{{Name: "Fund A", Quantity: tc.quantity}},
			}}
			snapshots, err := ComputeSnapshots(portfolios, testCatalogue(), resolver.fetch)
			if err != nil {
				t.Fatalf("ComputeSnapshots() unexpected error = %v", err)
			}
			if got := snapshots[0].Holdings[0].MarketValue; got != tc.wantMV {
				t.Errorf("marketValue = %v, want %v", got, tc.wantMV)
			}
			if got := snapshots[0].TotalValue; got != tc.wantTotal {
				t.Errorf("totalValue = %v, want %v", got, tc.wantTotal)
			}
		})
	}
}
