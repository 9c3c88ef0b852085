package models

// Balance is one member's derived position in a ledger. Never persisted;
// recomputed from the transaction history on every query.
type Balance struct {
	// MemberID identifies the member.
	MemberID string

	// PaidCents is the total the member paid across all transactions,
	// converted to ledger base currency.
	PaidCents int64

	// OwedCents is the total of the member's split shares across all
	// transactions, in ledger base currency.
	OwedCents int64

	// NetCents is PaidCents - OwedCents. Positive means the group owes the
	// member; negative means the member owes the group.
	NetCents int64
}

// Transfer is one planned settlement payment. Applying all transfers of a
// settlement plan brings every member's net balance to zero.
type Transfer struct {
	// PayerID is the debtor making the payment.
	PayerID string

	// PayeeID is the creditor receiving the payment.
	PayeeID string

	// AmountCents is the payment amount in ledger base currency cents.
	AmountCents int64
}
