// Package models defines the core domain models for Tally.
//
// A Ledger is a shared tab: a set of Members plus a history of Transactions.
// Balances and settlement Transfers are derived values, recomputed from the
// history on every query and never persisted, so they can never drift out of
// sync with the transactions they summarize.
//
// All monetary amounts are integer minor units (cents). Conversion to decimal
// happens only at output boundaries; see the money package.
//
// Relationships are expressed as ID strings rather than pointers to keep the
// models serialization-friendly and free of cycles.
package models
