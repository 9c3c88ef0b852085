package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tally/internal/models"
	"tally/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ledger := &models.Ledger{Name: "Ski Trip", Currency: "USD"}
	if err := store.CreateLedger(ctx, ledger); err != nil {
		t.Fatalf("CreateLedger failed: %v", err)
	}
	if ledger.ID == "" || ledger.CreatedAt == 0 {
		t.Fatal("expected generated ID and CreatedAt")
	}

	t.Run("GetLedger roundtrip", func(t *testing.T) {
		got, err := store.GetLedger(ctx, ledger.ID)
		if err != nil {
			t.Fatalf("GetLedger failed: %v", err)
		}
		if got.Name != "Ski Trip" || got.Currency != "USD" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("GetLedger not found", func(t *testing.T) {
		_, err := store.GetLedger(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	alice := &models.Member{LedgerID: ledger.ID, Name: "Alice", IsActive: true}
	bob := &models.Member{LedgerID: ledger.ID, Name: "Bob", IsActive: true}
	for _, m := range []*models.Member{alice, bob} {
		if err := store.CreateMember(ctx, m); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}
	}

	t.Run("ListMembers ordered by name", func(t *testing.T) {
		members, err := store.ListMembers(ctx, ledger.ID)
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(members) != 2 || members[0].Name != "Alice" || members[1].Name != "Bob" {
			t.Errorf("members = %+v", members)
		}
	})

	t.Run("UpdateMember flips active flag", func(t *testing.T) {
		bob.IsActive = false
		if err := store.UpdateMember(ctx, bob); err != nil {
			t.Fatalf("UpdateMember failed: %v", err)
		}
		members, err := store.ListMembers(ctx, ledger.ID)
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		for _, m := range members {
			if m.ID == bob.ID && m.IsActive {
				t.Error("expected bob inactive")
			}
		}
		bob.IsActive = true
		if err := store.UpdateMember(ctx, bob); err != nil {
			t.Fatalf("UpdateMember failed: %v", err)
		}
	})

	t.Run("UpdateMember not found", func(t *testing.T) {
		err := store.UpdateMember(ctx, &models.Member{ID: "missing", Name: "Ghost"})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	txn := &models.Transaction{
		LedgerID:     ledger.ID,
		Name:         "Lift passes",
		Currency:     "EUR",
		Type:         models.TypeExpense,
		Date:         "2026-01-15",
		ExchangeRate: 1.1,
		Contributions: map[string]models.Contribution{
			alice.ID: {AmountCents: 20000, Weight: 1},
			bob.ID:   {AmountCents: 0, Weight: 1},
		},
	}

	t.Run("CreateTransaction and GetTransaction roundtrip", func(t *testing.T) {
		if err := store.CreateTransaction(ctx, txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		got, err := store.GetTransaction(ctx, txn.ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if got.Name != "Lift passes" || got.Type != models.TypeExpense || got.ExchangeRate != 1.1 {
			t.Errorf("got %+v", got)
		}
		if len(got.Contributions) != 2 {
			t.Fatalf("contributions = %+v, want 2 entries", got.Contributions)
		}
		if c := got.Contributions[alice.ID]; c.AmountCents != 20000 || c.Weight != 1 {
			t.Errorf("alice contribution = %+v", c)
		}
	})

	t.Run("UpdateTransaction replaces contributions", func(t *testing.T) {
		txn.Name = "Lift passes (3 days)"
		txn.Contributions = map[string]models.Contribution{
			alice.ID: {AmountCents: 30000, Weight: 2},
		}
		if err := store.UpdateTransaction(ctx, txn); err != nil {
			t.Fatalf("UpdateTransaction failed: %v", err)
		}
		got, err := store.GetTransaction(ctx, txn.ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if got.Name != "Lift passes (3 days)" {
			t.Errorf("name = %q", got.Name)
		}
		if len(got.Contributions) != 1 {
			t.Fatalf("contributions = %+v, want 1 entry", got.Contributions)
		}
	})

	t.Run("soft delete survives roundtrip", func(t *testing.T) {
		txn.IsDeleted = true
		if err := store.UpdateTransaction(ctx, txn); err != nil {
			t.Fatalf("UpdateTransaction failed: %v", err)
		}
		got, err := store.GetTransaction(ctx, txn.ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if !got.IsDeleted {
			t.Error("expected IsDeleted to persist")
		}
		// Soft-deleted transactions still list; filtering is the core's job.
		txns, err := store.ListTransactions(ctx, ledger.ID)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(txns) != 1 {
			t.Errorf("listed %d transactions, want 1", len(txns))
		}
	})

	t.Run("ListTransactions orders by date", func(t *testing.T) {
		earlier := &models.Transaction{
			LedgerID: ledger.ID, Name: "Groceries", Currency: "USD",
			Type: models.TypeExpense, Date: "2026-01-10", ExchangeRate: 1,
			Contributions: map[string]models.Contribution{
				alice.ID: {AmountCents: 500, Weight: 1},
			},
		}
		if err := store.CreateTransaction(ctx, earlier); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
		txns, err := store.ListTransactions(ctx, ledger.ID)
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(txns) != 2 || txns[0].Date != "2026-01-10" {
			t.Errorf("order = %v", []string{txns[0].Date, txns[1].Date})
		}
	})

	t.Run("UpdateTransaction not found", func(t *testing.T) {
		err := store.UpdateTransaction(ctx, &models.Transaction{ID: "missing", LedgerID: ledger.ID})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestStoreSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	ctx := context.Background()

	ledger := &models.Ledger{Name: "Persistent", Currency: "EUR"}
	if err := store.CreateLedger(ctx, ledger); err != nil {
		t.Fatalf("CreateLedger failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetLedger(ctx, ledger.ID)
	if err != nil {
		t.Fatalf("GetLedger after reopen failed: %v", err)
	}
	if got.Name != "Persistent" {
		t.Errorf("got %+v", got)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}
