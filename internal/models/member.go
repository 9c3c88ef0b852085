package models

// Ledger represents a shared expense tab.
type Ledger struct {
	// ID is the unique identifier for the ledger (UUID format).
	ID string

	// Name is the display name of the ledger (e.g., "Flat 12", "Ski Trip").
	Name string

	// Currency is the ledger's base currency code. All balances are reported
	// in this currency; foreign-currency transactions are converted via their
	// exchange rate.
	Currency string

	// CreatedAt is the Unix timestamp when the ledger was created.
	CreatedAt int64
}

// Member represents a participant in a ledger.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string

	// LedgerID is the ledger this member belongs to.
	LedgerID string

	// Name is the member's display name, unique within the ledger
	// (case-insensitive).
	Name string

	// IsActive is false for soft-deleted members. Invariant: an inactive
	// member's net balance is always exactly zero. The post-write audit
	// reactivates any member whose balance a history edit made non-zero.
	IsActive bool
}
