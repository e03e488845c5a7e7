// Package quote resolves current prices for symbols from a closed set of
// external quote sources.
//
// Each source implements one fetch strategy against one external service
// and one response shape. Failures are never retried here: callers apply
// their own skip-and-continue policy.
package quote

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

// Source identifies one of the supported quote providers.
type Source string

const (
	// FT scrapes the Financial Times fund tearsheet. It is the default
	// source and the only one that needs no credential.
	FT           Source = "ft"
	AlphaVantage Source = "alphavantage"
	Finnhub      Source = "finnhub"
	TwelveData   Source = "twelvedata"
)

func (s Source) String() string { return string(s) }

// Normalize maps the empty source to the default FT provider.
func (s Source) Normalize() Source {
	if s == "" {
		return FT
	}
	return s
}

// Valid reports whether the source names a known provider.
func (s Source) Valid() bool {
	_, ok := fetchers[s.Normalize()]
	return ok
}

// Sources lists the supported provider tags.
func Sources() []Source { return []Source{FT, AlphaVantage, Finnhub, TwelveData} }

type fetchFunc func(client *http.Client, symbol string) (float64, error)

// fetchers is the dispatch table over the closed source set. Adding a
// provider means adding one entry here and one fetch function.
var fetchers = map[Source]fetchFunc{
	FT:           fetchFT,
	AlphaVantage: fetchAlphaVantage,
	Finnhub:      fetchFinnhub,
	TwelveData:   fetchTwelveData,
}

// Fetch resolves the current price of symbol from the given source, in
// major currency units. An empty source falls back to FT.
func Fetch(symbol string, source Source) (float64, error) {
	f, ok := fetchers[source.Normalize()]
	if !ok {
		return math.NaN(), fmt.Errorf("unsupported quote source %q", source)
	}
	return f(http.DefaultClient, symbol)
}

// parseNumber parses a provider-formatted decimal number, stripping
// thousands separators. Non-finite results are rejected.
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}
