package quote

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"

	"github.com/PaesslerAG/jsonpath"
)

var alphaVantageURL = "https://www.alphavantage.co/query"

const alphaVantageKeyEnv = "ALPHAVANTAGE_API_KEY"

// fetchAlphaVantage resolves a price from the AlphaVantage GLOBAL_QUOTE
// endpoint. The quote object keys carry numeric prefixes ("05. price"), so
// jsonpath bracket access keeps the extraction readable.
func fetchAlphaVantage(client *http.Client, symbol string) (float64, error) {
	apiKey := os.Getenv(alphaVantageKeyEnv)
	if apiKey == "" {
		return math.NaN(), &AuthError{Source: AlphaVantage, Env: alphaVantageKeyEnv}
	}

	addr := fmt.Sprintf("%s?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		alphaVantageURL, url.QueryEscape(symbol), url.QueryEscape(apiKey))

	var jobj any
	if err := jwget(client, addr, &jobj); err != nil {
		return math.NaN(), &TransportError{Source: AlphaVantage, Symbol: symbol, Err: err}
	}

	jval, err := jsonpath.Get(`$["Global Quote"]["05. price"]`, jobj)
	if err != nil {
		return math.NaN(), &DataError{Source: AlphaVantage, Symbol: symbol, Reason: "no price data"}
	}
	text, ok := jval.(string)
	if !ok || text == "" {
		return math.NaN(), &DataError{Source: AlphaVantage, Symbol: symbol, Reason: "no price data"}
	}
	price, err := parseNumber(text)
	if err != nil {
		return math.NaN(), &DataError{Source: AlphaVantage, Symbol: symbol, Reason: fmt.Sprintf("invalid price %q", text)}
	}
	return price, nil
}
