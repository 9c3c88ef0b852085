// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"

	"tally/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for ledger storage operations. The computation
// core is a pure function of what a Store returns; backends (SQLite,
// in-memory, anything else) are interchangeable adapters feeding the same
// functions.
type Store interface {
	// CreateLedger persists a new ledger. The ID must already be set.
	CreateLedger(ctx context.Context, ledger *models.Ledger) error

	// GetLedger retrieves a ledger by ID, or ErrNotFound.
	GetLedger(ctx context.Context, ledgerID string) (*models.Ledger, error)

	// ListLedgers returns all ledgers, ordered by creation time.
	ListLedgers(ctx context.Context) ([]models.Ledger, error)

	// CreateMember persists a new member.
	CreateMember(ctx context.Context, member *models.Member) error

	// UpdateMember updates an existing member (name, active flag).
	UpdateMember(ctx context.Context, member *models.Member) error

	// ListMembers returns all members of a ledger, active and inactive,
	// ordered by name.
	ListMembers(ctx context.Context, ledgerID string) ([]models.Member, error)

	// CreateTransaction persists a transaction with its contributions.
	CreateTransaction(ctx context.Context, txn *models.Transaction) error

	// UpdateTransaction replaces an existing transaction and its
	// contributions. Returns ErrNotFound if it does not exist.
	UpdateTransaction(ctx context.Context, txn *models.Transaction) error

	// GetTransaction retrieves a transaction by ID, or ErrNotFound.
	GetTransaction(ctx context.Context, txnID string) (*models.Transaction, error)

	// ListTransactions returns all of a ledger's transactions, including
	// soft-deleted and template entries, ordered by date then creation time.
	// Filtering is the computation core's job, not the store's.
	ListTransactions(ctx context.Context, ledgerID string) ([]models.Transaction, error)

	// Close releases any resources held by the store.
	Close() error
}
