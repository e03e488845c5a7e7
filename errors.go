package investsync

import (
	"errors"
	"fmt"
)

// ConfigError reports missing or invalid environment configuration. It is
// fatal for a whole reconciliation pass: nothing is attempted against the
// ledger or the providers when one is returned.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Reason }

// UnknownStockError reports a holding that references a name absent from the
// stock catalogue. It is a data-integrity problem in the mapping document,
// scoped to the portfolios that reference the name.
type UnknownStockError struct {
	Name string
}

func (e *UnknownStockError) Error() string {
	return fmt.Sprintf("unknown stock definition: %q", e.Name)
}

// Sentinel categories for ledger failures. Both are scoped to a single
// portfolio, which is skipped for the pass and retried on the next one.
var (
	ErrLedgerQuery = errors.New("ledger query failed")
	ErrLedgerWrite = errors.New("ledger write failed")
)
