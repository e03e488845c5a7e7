package quote

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
)

var twelveDataURL = "https://api.twelvedata.com/price"

const twelveDataKeyEnv = "TWELVEDATA_API_KEY"

// fetchTwelveData resolves a price from the Twelve Data price endpoint.
// Errors come back as 200 responses with a "message" field instead of a
// price, so an empty price is inspected for one.
func fetchTwelveData(client *http.Client, symbol string) (float64, error) {
	apiKey := os.Getenv(twelveDataKeyEnv)
	if apiKey == "" {
		return math.NaN(), &AuthError{Source: TwelveData, Env: twelveDataKeyEnv}
	}

	addr := fmt.Sprintf("%s?symbol=%s&apikey=%s", twelveDataURL, url.QueryEscape(symbol), url.QueryEscape(apiKey))

	var payload struct {
		Price   string `json:"price"`
		Message string `json:"message"`
	}
	if err := jwget(client, addr, &payload); err != nil {
		return math.NaN(), &TransportError{Source: TwelveData, Symbol: symbol, Err: err}
	}
	if payload.Price == "" {
		reason := "no price data"
		if payload.Message != "" {
			reason = payload.Message
		}
		return math.NaN(), &DataError{Source: TwelveData, Symbol: symbol, Reason: reason}
	}
	price, err := parseNumber(payload.Price)
	if err != nil {
		return math.NaN(), &DataError{Source: TwelveData, Symbol: symbol, Reason: fmt.Sprintf("invalid price %q", payload.Price)}
	}
	return price, nil
}
