package quote

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
)

var finnhubURL = "https://finnhub.io/api/v1/quote"

const finnhubKeyEnv = "FINNHUB_API_KEY"

// fetchFinnhub resolves a price from the Finnhub quote endpoint, which
// reports the current price as the bare numeric field "c".
func fetchFinnhub(client *http.Client, symbol string) (float64, error) {
	apiKey := os.Getenv(finnhubKeyEnv)
	if apiKey == "" {
		return math.NaN(), &AuthError{Source: Finnhub, Env: finnhubKeyEnv}
	}

	addr := fmt.Sprintf("%s?symbol=%s&token=%s", finnhubURL, url.QueryEscape(symbol), url.QueryEscape(apiKey))

	// a pointer distinguishes an absent field from a zero price
	var payload struct {
		Current *float64 `json:"c"`
	}
	if err := jwget(client, addr, &payload); err != nil {
		return math.NaN(), &TransportError{Source: Finnhub, Symbol: symbol, Err: err}
	}
	if payload.Current == nil || math.IsNaN(*payload.Current) || math.IsInf(*payload.Current, 0) {
		return math.NaN(), &DataError{Source: Finnhub, Symbol: symbol, Reason: "no price data"}
	}
	return *payload.Current, nil
}
