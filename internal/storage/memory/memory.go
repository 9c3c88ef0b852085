// Package memory provides an in-memory implementation of the storage.Store
// interface, used by tests and zero-setup runs. Data does not survive the
// process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/models"
	"tally/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps all records in maps guarded by a single RWMutex. Returned
// records are copies; callers can't mutate stored state through them.
type Store struct {
	mu           sync.RWMutex
	ledgers      map[string]models.Ledger
	members      map[string]models.Member
	transactions map[string]models.Transaction
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		ledgers:      make(map[string]models.Ledger),
		members:      make(map[string]models.Member),
		transactions: make(map[string]models.Transaction),
	}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// CreateLedger stores a new ledger.
func (s *Store) CreateLedger(_ context.Context, ledger *models.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ledger.ID == "" {
		ledger.ID = uuid.New().String()
	}
	if ledger.CreatedAt == 0 {
		ledger.CreatedAt = time.Now().Unix()
	}
	s.ledgers[ledger.ID] = *ledger
	return nil
}

// GetLedger retrieves a ledger by ID.
func (s *Store) GetLedger(_ context.Context, ledgerID string) (*models.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.ledgers[ledgerID]
	if !ok {
		return nil, fmt.Errorf("ledger %s: %w", ledgerID, storage.ErrNotFound)
	}
	return &l, nil
}

// ListLedgers returns all ledgers ordered by creation time.
func (s *Store) ListLedgers(_ context.Context) ([]models.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Ledger, 0, len(s.ledgers))
	for _, l := range s.ledgers {
		out = append(out, l)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt != out[b].CreatedAt {
			return out[a].CreatedAt < out[b].CreatedAt
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

// CreateMember stores a new member.
func (s *Store) CreateMember(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	s.members[member.ID] = *member
	return nil
}

// UpdateMember replaces an existing member record.
func (s *Store) UpdateMember(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[member.ID]; !ok {
		return fmt.Errorf("member %s: %w", member.ID, storage.ErrNotFound)
	}
	s.members[member.ID] = *member
	return nil
}

// ListMembers returns a ledger's members ordered by name.
func (s *Store) ListMembers(_ context.Context, ledgerID string) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Member
	for _, m := range s.members {
		if m.LedgerID == ledgerID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

// CreateTransaction stores a transaction with its contributions.
func (s *Store) CreateTransaction(_ context.Context, txn *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}
	s.transactions[txn.ID] = copyTransaction(txn)
	return nil
}

// UpdateTransaction replaces an existing transaction.
func (s *Store) UpdateTransaction(_ context.Context, txn *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[txn.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", txn.ID, storage.ErrNotFound)
	}
	s.transactions[txn.ID] = copyTransaction(txn)
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *Store) GetTransaction(_ context.Context, txnID string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[txnID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", txnID, storage.ErrNotFound)
	}
	out := copyTransaction(&t)
	return &out, nil
}

// ListTransactions returns a ledger's transactions ordered by date then
// creation time.
func (s *Store) ListTransactions(_ context.Context, ledgerID string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Transaction
	for id := range s.transactions {
		t := s.transactions[id]
		if t.LedgerID == ledgerID {
			out = append(out, copyTransaction(&t))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Date != out[b].Date {
			return out[a].Date < out[b].Date
		}
		if out[a].CreatedAt != out[b].CreatedAt {
			return out[a].CreatedAt < out[b].CreatedAt
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func copyTransaction(t *models.Transaction) models.Transaction {
	out := *t
	out.Contributions = make(map[string]models.Contribution, len(t.Contributions))
	for id, c := range t.Contributions {
		out.Contributions[id] = c
	}
	return out
}
