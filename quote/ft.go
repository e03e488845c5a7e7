package quote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/PuerkitoBio/goquery"
)

// package var so tests can point the fetcher at a local server.
var ftURL = "https://markets.ft.com/data/funds/tearsheet/summary?s="

// ftSelectors are tried in order; FT has shipped at least two tearsheet
// layouts and keeps moving the quote block around.
var ftSelectors = []string{
	"div.mod-tearsheet-overview__price ul.mod-ui-data-list li",
	"ul.mod-tearsheet-overview__quote__bar li",
}

// fetchFT resolves a price from the FT fund tearsheet. Some mirrors answer
// with a Yahoo-style JSON quote instead of HTML, so that shape is tried
// first; otherwise the quote block is scraped out of the page.
func fetchFT(client *http.Client, symbol string) (float64, error) {
	body, err := wget(client, ftURL+url.QueryEscape(symbol))
	if err != nil {
		return math.NaN(), &TransportError{Source: FT, Symbol: symbol, Err: err}
	}

	if price, ok := ftJSONPrice(body); ok {
		return price, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return math.NaN(), &DataError{Source: FT, Symbol: symbol, Reason: "unparseable tearsheet"}
	}

	var item *goquery.Selection
	for _, sel := range ftSelectors {
		el := doc.Find(sel).First()
		if el.Length() > 0 && el.Find("span.mod-ui-data-list__value").Length() > 0 {
			item = el
			break
		}
	}
	if item == nil {
		return math.NaN(), &DataError{Source: FT, Symbol: symbol, Reason: "no price data"}
	}

	text := strings.TrimSpace(item.Find("span.mod-ui-data-list__value").Text())
	price, err := parseNumber(text)
	if err != nil {
		return math.NaN(), &DataError{Source: FT, Symbol: symbol, Reason: fmt.Sprintf("invalid price %q", text)}
	}

	// The label next to the value discloses the quote denomination. GBX
	// quotes are in pence; normalize to pounds.
	denom := strings.TrimSpace(item.Find("span.mod-ui-data-list__label").Text())
	if strings.Contains(denom, "GBX") {
		price = price / 100
	}
	return price, nil
}

// ftJSONPrice extracts a regular market price from a Yahoo-style JSON quote
// body, reporting whether the body was such a quote at all.
func ftJSONPrice(body []byte) (float64, bool) {
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return 0, false
	}
	jval, err := jsonpath.Get("$.quoteResponse.result[0].regularMarketPrice", jobj)
	if err != nil {
		return 0, false
	}
	v, ok := jval.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
