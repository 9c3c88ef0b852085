package models

// ExpenseType classifies a transaction's direction of money flow.
type ExpenseType string

const (
	// TypeExpense is money spent by members on behalf of the group.
	TypeExpense ExpenseType = "expense"

	// TypeIncome is money received by members on behalf of the group. Income
	// contributions enter the balance computation with inverted sign.
	TypeIncome ExpenseType = "income"

	// TypeTransfer is money moved between members (e.g., a reimbursement
	// entered as a regular transaction). Computed like an expense.
	TypeTransfer ExpenseType = "transfer"
)

// Valid reports whether t is one of the known expense types.
func (t ExpenseType) Valid() bool {
	switch t {
	case TypeExpense, TypeIncome, TypeTransfer:
		return true
	}
	return false
}

// Contribution records one member's participation in a transaction.
type Contribution struct {
	// AmountCents is what the member paid (or received, for income) in the
	// transaction's own currency, in integer cents.
	AmountCents int64

	// Weight is the member's relative share of the transaction total.
	// Weight zero means the member paid but owes nothing.
	Weight float64
}

// Transaction is one entry in a ledger's expense history.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format). It also
	// seeds the splitter's deterministic tie-breaking, so replays of the same
	// transaction always round the same way.
	ID string

	// LedgerID is the ledger this transaction belongs to.
	LedgerID string

	// Name is an optional human-readable description.
	Name string

	// Category is an optional grouping label. At least one of Name and
	// Category must be set.
	Category string

	// Currency is the transaction's own currency code.
	Currency string

	// Type classifies the transaction as expense, income, or transfer.
	Type ExpenseType

	// Date is the transaction date in YYYY-MM-DD form.
	Date string

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64

	// ExchangeRate is the multiplier from the transaction currency to the
	// ledger's base currency (units of base currency per unit of transaction
	// currency). 1 for same-currency transactions.
	ExchangeRate float64

	// Contributions maps member ID to that member's paid amount and weight.
	Contributions map[string]Contribution

	// IsDeleted marks a soft-deleted transaction. Excluded from all balance
	// and settlement computations.
	IsDeleted bool

	// IsTemplate marks a template for recurring entry. Templates never count
	// toward balances.
	IsTemplate bool
}

// CountsForBalances reports whether the transaction participates in balance
// and settlement computations.
func (t *Transaction) CountsForBalances() bool {
	return !t.IsDeleted && !t.IsTemplate
}
