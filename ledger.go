package investsync

import "time"

// Account is a ledger account as the ledger reports it. Portfolio
// LedgerAccountID values are exactly these native identifiers.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Payee is a transaction counterparty known to the ledger.
type Payee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Transaction is one ledger transaction to post. Amount is in integer minor
// units. The ID combines the portfolio's stable sync id with a timestamp, so
// every posted correction is traceable to its portfolio and pass.
type Transaction struct {
	ID            string `json:"id,omitempty"`
	Date          string `json:"date"`
	Amount        int64  `json:"amount"`
	Payee         string `json:"payee,omitempty"`
	ImportedPayee string `json:"imported_payee,omitempty"`
}

// AddOptions controls the ledger's automatic bookkeeping when transactions
// are added. Reconciliation disables both: a balancing correction must not
// be matched as a transfer nor teach the categorizer anything.
type AddOptions struct {
	RunTransfers    bool
	LearnCategories bool
}

// Ledger is the external budgeting system holding accounts and
// transactions. One logical session backs a whole reconciliation pass;
// callers must not interleave other ledger work with a pass in progress.
//
// Balance returns the account balance in integer minor units as of the
// given date.
type Ledger interface {
	Accounts() ([]Account, error)
	Balance(accountID string, asOf time.Time) (int64, error)
	Payees() ([]Payee, error)
	CreatePayee(name string) (string, error)
	AddTransactions(accountID string, txs []Transaction, opts AddOptions) error
}
