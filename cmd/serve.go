package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/subcommands"

	"investsync"
	"investsync/actual"
	"investsync/quote"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string { return "serve" }
func (*serveCmd) Synopsis() string {
	return "serve the admin HTTP API over the mapping document"
}
func (*serveCmd) Usage() string {
	return `investsync serve [-addr <host:port>]

  Serves a small JSON API for the admin UI: read and replace the mapping
  document, compute snapshots, download the CSV export, and trigger a
  reconciliation pass.

`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":5007", "Address to listen on.")
}

func (c *serveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "no arguments expected")
		return subcommands.ExitUsageError
	}

	srv := &adminServer{
		mappingFile: mappingPath(),
		resolve:     quote.Fetch,
		openLedger:  func() (ledgerSession, error) { return actual.Open() },
	}
	log.Printf("admin API listening on %s", c.addr)
	if err := http.ListenAndServe(c.addr, srv.router()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: server stopped: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// ledgerSession is what the handlers need from an open ledger connection.
type ledgerSession interface {
	investsync.Ledger
	Close() error
}

// adminServer carries the handler dependencies, so tests can swap the
// price resolver and the ledger opener.
type adminServer struct {
	mappingFile string
	resolve     investsync.PriceFunc
	openLedger  func() (ledgerSession, error)
}

func (s *adminServer) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/api/data", s.handleData)
	r.Post("/api/mappings", s.handleSaveMapping)
	r.Get("/api/snapshots", s.handleSnapshots)
	r.Get("/api/export.csv", s.handleExport)
	r.Post("/api/sync", s.handleSync)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("cannot write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleData answers the mapping document plus the ledger's account list,
// which the admin form uses to populate its account picker. A ledger
// failure only costs the account list.
func (s *adminServer) handleData(w http.ResponseWriter, _ *http.Request) {
	doc := investsync.LoadMapping(s.mappingFile)

	accounts := []investsync.Account{}
	if session, err := s.openLedger(); err == nil {
		if list, err := session.Accounts(); err == nil {
			accounts = list
		} else {
			log.Printf("cannot list ledger accounts: %v", err)
		}
		if err := session.Close(); err != nil {
			log.Printf("warning: closing ledger session: %v", err)
		}
	} else {
		log.Printf("cannot open ledger session: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stocks":     doc.Stocks,
		"portfolios": doc.Portfolios,
		"accounts":   accounts,
	})
}

// handleSaveMapping replaces the whole mapping document, as the admin form
// submits it.
func (s *adminServer) handleSaveMapping(w http.ResponseWriter, r *http.Request) {
	doc := investsync.NewMappingDocument()
	if err := json.NewDecoder(r.Body).Decode(doc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid mapping document: %w", err))
		return
	}
	for _, stock := range doc.Stocks {
		if !stock.Provider.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("stock %q: unknown provider %q", stock.Name, stock.Provider))
			return
		}
	}
	if err := investsync.SaveMapping(s.mappingFile, doc); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *adminServer) handleSnapshots(w http.ResponseWriter, _ *http.Request) {
	doc := investsync.LoadMapping(s.mappingFile)
	cat := investsync.NewCatalogue(doc.Stocks)
	snapshots, err := investsync.ComputeSnapshots(doc.Portfolios, cat, s.resolve)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func (s *adminServer) handleExport(w http.ResponseWriter, r *http.Request) {
	format := investsync.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = investsync.ExportPositions
	}

	doc := investsync.LoadMapping(s.mappingFile)
	cat := investsync.NewCatalogue(doc.Stocks)
	snapshots, err := investsync.ComputeSnapshots(doc.Portfolios, cat, s.resolve)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	var accounts []investsync.Account
	if session, err := s.openLedger(); err == nil {
		if list, err := session.Accounts(); err == nil {
			accounts = list
		}
		if err := session.Close(); err != nil {
			log.Printf("warning: closing ledger session: %v", err)
		}
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(format)+".csv"))
	if err := investsync.WriteCSV(w, format, snapshots, accounts, time.Now()); err != nil {
		log.Printf("cannot write export: %v", err)
	}
}

// handleSync runs one reconciliation pass and reports the applied count.
func (s *adminServer) handleSync(w http.ResponseWriter, _ *http.Request) {
	doc := investsync.LoadMapping(s.mappingFile)

	session, err := s.openLedger()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("warning: closing ledger session: %v", err)
		}
	}()

	rec := &investsync.Reconciler{Ledger: session, Resolve: s.resolve}
	applied, err := rec.Run(doc)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if err := investsync.SaveMapping(s.mappingFile, doc); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"applied": applied})
}
