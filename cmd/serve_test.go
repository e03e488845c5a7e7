package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"investsync"
	"investsync/quote"
)

// stubLedger is an in-memory ledgerSession for handler tests.
type stubLedger struct {
	accounts []investsync.Account
	balances map[string]int64
	added    map[string][]investsync.Transaction
	closed   bool
}

func (l *stubLedger) Accounts() ([]investsync.Account, error) { return l.accounts, nil }
func (l *stubLedger) Balance(accountID string, _ time.Time) (int64, error) {
	return l.balances[accountID], nil
}
func (l *stubLedger) Payees() ([]investsync.Payee, error) {
	return []investsync.Payee{{ID: "p-1", Name: investsync.SyncPayeeName}}, nil
}
func (l *stubLedger) CreatePayee(name string) (string, error) { return "p-1", nil }
func (l *stubLedger) AddTransactions(accountID string, txs []investsync.Transaction, _ investsync.AddOptions) error {
	if l.added == nil {
		l.added = make(map[string][]investsync.Transaction)
	}
	l.added[accountID] = append(l.added[accountID], txs...)
	return nil
}
func (l *stubLedger) Close() error {
	l.closed = true
	return nil
}

func testAdminServer(t *testing.T, ledger *stubLedger) *adminServer {
	t.Helper()
	mappingFile := filepath.Join(t.TempDir(), "mapping.json")
	doc := &investsync.MappingDocument{
		Stocks: []investsync.Stock{{Name: "Fund A", Symbol: "AAA", Provider: quote.FT}},
		Portfolios: []investsync.Portfolio{{
			Name:            "ISA",
			Cash:            50,
			LedgerAccountID: "acct-1",
			Holdings:        []investsync.Holding{{Name: "Fund A", Quantity: 2}},
		}},
	}
	if err := investsync.SaveMapping(mappingFile, doc); err != nil {
		t.Fatalf("SaveMapping() error = %v", err)
	}

	return &adminServer{
		mappingFile: mappingFile,
		resolve: func(symbol string, _ quote.Source) (float64, error) {
			if symbol != "AAA" {
				return 0, errors.New("unknown symbol")
			}
			return 10, nil
		},
		openLedger: func() (ledgerSession, error) {
			if ledger == nil {
				return nil, errors.New("ledger unavailable")
			}
			return ledger, nil
		},
	}
}

func TestHandleData(t *testing.T) {
	ledger := &stubLedger{accounts: []investsync.Account{{ID: "acct-1", Name: "ISA"}}}
	srv := testAdminServer(t, ledger)

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/data", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/data = %d, want 200", rec.Code)
	}

	var body struct {
		Stocks     []investsync.Stock     `json:"stocks"`
		Portfolios []investsync.Portfolio `json:"portfolios"`
		Accounts   []investsync.Account   `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response: %v", err)
	}
	if len(body.Stocks) != 1 || len(body.Portfolios) != 1 || len(body.Accounts) != 1 {
		t.Errorf("data = %+v", body)
	}
	if !ledger.closed {
		t.Error("handler leaked the ledger session")
	}
}

func TestHandleDataWithoutLedger(t *testing.T) {
	srv := testAdminServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/data", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/data = %d, want 200 even without a ledger", rec.Code)
	}
	var body struct {
		Accounts []investsync.Account `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response: %v", err)
	}
	if body.Accounts == nil || len(body.Accounts) != 0 {
		t.Errorf("accounts = %v, want an empty list", body.Accounts)
	}
}

func TestHandleSaveMapping(t *testing.T) {
	srv := testAdminServer(t, nil)

	payload := `{"stocks":[{"name":"Fund B","key":"BBB","provider":"finnhub"}],"portfolios":[]}`
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/mappings", strings.NewReader(payload)))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/mappings = %d: %s", rec.Code, rec.Body)
	}

	doc := investsync.LoadMapping(srv.mappingFile)
	if len(doc.Stocks) != 1 || doc.Stocks[0].Name != "Fund B" {
		t.Errorf("saved document = %+v", doc)
	}
}

func TestHandleSaveMappingRejectsBadProvider(t *testing.T) {
	srv := testAdminServer(t, nil)

	payload := `{"stocks":[{"name":"Fund B","key":"BBB","provider":"bloomberg"}],"portfolios":[]}`
	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/mappings", strings.NewReader(payload)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /api/mappings = %d, want 400", rec.Code)
	}
	// the stored document must be untouched
	doc := investsync.LoadMapping(srv.mappingFile)
	if len(doc.Stocks) != 1 || doc.Stocks[0].Name != "Fund A" {
		t.Errorf("document after rejected save = %+v", doc)
	}
}

func TestHandleSnapshots(t *testing.T) {
	srv := testAdminServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/snapshots", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/snapshots = %d: %s", rec.Code, rec.Body)
	}
	var snapshots []investsync.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshots); err != nil {
		t.Fatalf("response: %v", err)
	}
	if len(snapshots) != 1 || snapshots[0].TotalValue != 70 {
		t.Errorf("snapshots = %+v, want ISA valued at 70", snapshots)
	}
}

func TestHandleExport(t *testing.T) {
	ledger := &stubLedger{accounts: []investsync.Account{{ID: "acct-1", Name: "ISA"}}}
	srv := testAdminServer(t, ledger)

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, httptest.NewRequest("GET", "/api/export.csv?format=holdings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/export.csv = %d: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "HoldingName,") {
		t.Errorf("export body = %q, want the holdings layout", rec.Body.String())
	}
}

func TestHandleSync(t *testing.T) {
	ledger := &stubLedger{
		accounts: []investsync.Account{{ID: "acct-1", Name: "ISA"}},
		balances: map[string]int64{"acct-1": 6500},
	}
	srv := testAdminServer(t, ledger)

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/sync", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/sync = %d: %s", rec.Code, rec.Body)
	}
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response: %v", err)
	}
	if body["applied"] != 1 {
		t.Errorf("applied = %d, want 1", body["applied"])
	}
	if len(ledger.added["acct-1"]) != 1 {
		t.Errorf("ledger received %d transactions", len(ledger.added["acct-1"]))
	}

	// the pass persists the assigned sync id and last known value
	doc := investsync.LoadMapping(srv.mappingFile)
	p := doc.Portfolios[0]
	if p.SyncID == "" || p.LastKnownValue == nil || *p.LastKnownValue != 70 {
		t.Errorf("persisted portfolio = %+v", p)
	}
}

func TestHandleSyncWithoutLedger(t *testing.T) {
	srv := testAdminServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/sync", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("POST /api/sync = %d, want 503", rec.Code)
	}
}
