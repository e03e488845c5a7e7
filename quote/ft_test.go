package quote

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const ftOverviewPage = `<html><body>
<div class="mod-tearsheet-overview__price">
  <ul class="mod-ui-data-list">
    <li>
      <span class="mod-ui-data-list__label">Price (GBP)</span>
      <span class="mod-ui-data-list__value">1,234.56</span>
    </li>
  </ul>
</div>
</body></html>`

const ftQuoteBarPage = `<html><body>
<ul class="mod-tearsheet-overview__quote__bar">
  <li>
    <span class="mod-ui-data-list__value">55.20</span>
    <span class="mod-ui-data-list__label">Price (USD)</span>
  </li>
</ul>
</body></html>`

const ftPencePage = `<html><body>
<div class="mod-tearsheet-overview__price">
  <ul class="mod-ui-data-list">
    <li>
      <span class="mod-ui-data-list__label">Price (GBX)</span>
      <span class="mod-ui-data-list__value">12345</span>
    </li>
  </ul>
</div>
</body></html>`

// serveFT points the FT fetcher at a server answering body, restoring the
// real URL when the test ends.
func serveFT(t *testing.T, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	old := ftURL
	ftURL = srv.URL + "/tearsheet?s="
	t.Cleanup(func() { ftURL = old })
}

func TestFetchFT(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want float64
	}{
		{"Overview layout", ftOverviewPage, 1234.56},
		{"Quote bar layout", ftQuoteBarPage, 55.20},
		{"Pence quote normalized to pounds", ftPencePage, 123.45},
		{"Yahoo style JSON fallback", `{"quoteResponse":{"result":[{"regularMarketPrice":12.5}]}}`, 12.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			serveFT(t, tc.body)
			got, err := fetchFT(http.DefaultClient, "GB00TEST")
			if err != nil {
				t.Fatalf("fetchFT() unexpected error = %v", err)
			}
			if got != tc.want {
				t.Errorf("fetchFT() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFetchFTNoPrice(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"Empty page", `<html><body><p>not a tearsheet</p></body></html>`},
		{"Item without value span", `<div class="mod-tearsheet-overview__price"><ul class="mod-ui-data-list"><li><span class="mod-ui-data-list__label">Price</span></li></ul></div>`},
		{"Unparseable value", `<div class="mod-tearsheet-overview__price"><ul class="mod-ui-data-list"><li><span class="mod-ui-data-list__label">Price</span><span class="mod-ui-data-list__value">n/a</span></li></ul></div>`},
		{"JSON without result", `{"quoteResponse":{"result":[]}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			serveFT(t, tc.body)
			_, err := fetchFT(http.DefaultClient, "GB00TEST")
			var dataErr *DataError
			if !errors.As(err, &dataErr) {
				t.Fatalf("fetchFT() error = %v, want *DataError", err)
			}
		})
	}
}

func TestFetchFTTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer srv.Close()
	old := ftURL
	ftURL = srv.URL + "/tearsheet?s="
	defer func() { ftURL = old }()

	_, err := fetchFT(http.DefaultClient, "GB00TEST")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("fetchFT() error = %v, want *TransportError", err)
	}
}
