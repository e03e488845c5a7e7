package actual

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"investsync"
)

// Session implements investsync.Ledger.
var _ investsync.Ledger = (*Session)(nil)

// Accounts lists the budget's accounts.
func (s *Session) Accounts() ([]investsync.Account, error) {
	var accounts []investsync.Account
	if err := s.call(http.MethodGet, s.budgetPath("/accounts"), nil, &accounts); err != nil {
		return nil, fmt.Errorf("%w: %v", investsync.ErrLedgerQuery, err)
	}
	return accounts, nil
}

// Balance returns the account balance in integer minor units as of the
// given date.
func (s *Session) Balance(accountID string, asOf time.Time) (int64, error) {
	path := fmt.Sprintf("%s/accounts/%s/balance?cutoff_date=%s",
		s.budgetPath(""), url.PathEscape(accountID), asOf.Format("2006-01-02"))
	var balance int64
	if err := s.call(http.MethodGet, path, nil, &balance); err != nil {
		return 0, fmt.Errorf("%w: account %q: %v", investsync.ErrLedgerQuery, accountID, err)
	}
	return balance, nil
}

// Payees lists the budget's payees.
func (s *Session) Payees() ([]investsync.Payee, error) {
	var payees []investsync.Payee
	if err := s.call(http.MethodGet, s.budgetPath("/payees"), nil, &payees); err != nil {
		return nil, fmt.Errorf("%w: %v", investsync.ErrLedgerQuery, err)
	}
	return payees, nil
}

// CreatePayee creates a payee by name and returns its new id.
func (s *Session) CreatePayee(name string) (string, error) {
	body := map[string]any{"payee": map[string]string{"name": name}}
	var id string
	if err := s.call(http.MethodPost, s.budgetPath("/payees"), body, &id); err != nil {
		return "", fmt.Errorf("%w: payee %q: %v", investsync.ErrLedgerWrite, name, err)
	}
	return id, nil
}

// AddTransactions posts a batch of transactions to an account. The options
// map to the server's transfer-matching and category-learning switches.
func (s *Session) AddTransactions(accountID string, txs []investsync.Transaction, opts investsync.AddOptions) error {
	path := fmt.Sprintf("%s/accounts/%s/transactions?runTransfers=%t&learnCategories=%t",
		s.budgetPath(""), url.PathEscape(accountID), opts.RunTransfers, opts.LearnCategories)
	body := map[string]any{"transactions": txs}
	if err := s.call(http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("%w: account %q: %v", investsync.ErrLedgerWrite, accountID, err)
	}
	return nil
}
