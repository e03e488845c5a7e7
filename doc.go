// Package investsync keeps externally valued investment portfolios in step
// with the cash accounts that track them in an Actual Budget ledger.
//
// The durable state is a single mapping document (see MappingDocument)
// listing the stock catalogue and the portfolio definitions. A
// reconciliation pass values every portfolio from live provider quotes,
// compares each value against the ledger's account balance, and posts a
// correcting transaction when they diverge by at least half a minor unit.
package investsync
