package investsync

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"investsync/quote"
)

// SyncPayeeName is the stable payee identity all correcting transactions
// are booked under.
const SyncPayeeName = "actual-investment-sync"

// deltaThreshold is half a minor unit in major units. Deltas below it are
// rounding noise and never worth a transaction.
var deltaThreshold = decimal.RequireFromString("0.005")

// Reconciler runs reconciliation passes against one ledger session.
type Reconciler struct {
	Ledger  Ledger
	Resolve PriceFunc // defaults to quote.Fetch

	// Currency is only used to format amounts in log lines.
	Currency string
	// DryRun reports deltas without posting transactions or mutating the
	// document.
	DryRun bool

	// Now is the clock, replaceable in tests.
	Now func() time.Time

	payeeID string // cached for the pass
}

func (r *Reconciler) resolve() PriceFunc {
	if r.Resolve != nil {
		return r.Resolve
	}
	return quote.Fetch
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Reconciler) currency() string {
	if r.Currency != "" {
		return r.Currency
	}
	return "GBP"
}

// Run executes one reconciliation pass over the document and returns the
// number of transactions applied.
//
// Portfolios are processed strictly in sequence and independently: one
// portfolio's failure is logged, skips it for this pass, and never aborts
// the others. Only a pass-level failure (the ledger cannot even list its
// accounts) aborts the run, with zero applied. Run mutates the document
// (sync ids, last known values); the caller persists it afterwards.
func (r *Reconciler) Run(doc *MappingDocument) (applied int, err error) {
	r.payeeID = ""

	accounts, err := r.Ledger.Accounts()
	if err != nil {
		return 0, fmt.Errorf("%w: cannot list accounts: %v", ErrLedgerQuery, err)
	}
	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.ID] = true
	}

	// One price per distinct stock for the whole pass, fetched up front.
	cat := NewCatalogue(doc.Stocks)
	prices, failures := ResolvePrices(doc.Portfolios, cat, r.resolve())
	for name, ferr := range failures {
		log.Printf("stock %q: price resolution failed: %v", name, ferr)
	}

	for i := range doc.Portfolios {
		p := &doc.Portfolios[i]

		if !known[p.LedgerAccountID] {
			log.Printf("portfolio %q: ledger account %q not found, skipping", p.Name, p.LedgerAccountID)
			continue
		}

		current, err := PortfolioValue(*p, cat, prices)
		if err != nil {
			log.Printf("portfolio %q: cannot compute value, skipping: %v", p.Name, err)
			continue
		}

		balanceMinor, err := r.Ledger.Balance(p.LedgerAccountID, r.now())
		if err != nil {
			log.Printf("portfolio %q: cannot fetch balance for account %q, skipping: %v", p.Name, p.LedgerAccountID, err)
			continue
		}

		// Always against the live ledger balance, never the cached value:
		// a manual ledger edit is corrected back on the next pass.
		delta := current.Sub(fromMinor(balanceMinor))
		if delta.Abs().LessThan(deltaThreshold) {
			continue
		}
		amountMinor := toMinor(delta)

		if r.DryRun {
			log.Printf("portfolio %q: would post %s (value %s, balance %s)", p.Name,
				formatMinor(amountMinor, r.currency()), current, fromMinor(balanceMinor))
			continue
		}
		log.Printf("portfolio %q: syncing change of %s", p.Name, formatMinor(amountMinor, r.currency()))

		if p.SyncID == "" {
			p.SyncID = uuid.NewString()
		}
		now := r.now()
		tx := Transaction{
			ID:            fmt.Sprintf("%s-%d", p.SyncID, now.UnixMilli()),
			Date:          now.Format("2006-01-02"),
			Amount:        amountMinor,
			Payee:         r.ensurePayee(),
			ImportedPayee: SyncPayeeName,
		}
		opts := AddOptions{RunTransfers: false, LearnCategories: false}
		if err := r.Ledger.AddTransactions(p.LedgerAccountID, []Transaction{tx}, opts); err != nil {
			log.Printf("portfolio %q: cannot add transaction %q, skipping: %v", p.Name, tx.ID, err)
			continue
		}

		v := current.InexactFloat64()
		p.LastKnownValue = &v
		applied++
	}
	return applied, nil
}

// ensurePayee returns the id of the sync payee, creating it on first use.
// Lookup and creation failures are tolerated: the raw payee name still
// books the transaction, it just won't be linked to a payee record.
func (r *Reconciler) ensurePayee() string {
	if r.payeeID != "" {
		return r.payeeID
	}
	payees, err := r.Ledger.Payees()
	if err != nil {
		log.Printf("cannot list payees, using raw name %q: %v", SyncPayeeName, err)
	}
	for _, p := range payees {
		if p.Name == SyncPayeeName {
			r.payeeID = p.ID
			return r.payeeID
		}
	}
	id, err := r.Ledger.CreatePayee(SyncPayeeName)
	if err != nil || id == "" {
		log.Printf("cannot create payee %q, using raw name: %v", SyncPayeeName, err)
		return SyncPayeeName
	}
	r.payeeID = id
	return r.payeeID
}
