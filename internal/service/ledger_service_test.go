package service

import (
	"context"
	"errors"
	"testing"

	"tally/internal/currency"
	"tally/internal/models"
	"tally/internal/storage/memory"
)

func testRates() currency.RateProvider {
	return currency.NewStaticRates(map[string]float64{"EUR/USD": 1.1})
}

// newTestLedger spins up a service on the in-memory store with a ledger and
// three members.
func newTestLedger(t *testing.T) (*LedgerService, *models.Ledger, map[string]*models.Member) {
	t.Helper()
	svc := NewLedgerService(memory.New(), testRates())
	ctx := context.Background()

	ledger, err := svc.CreateLedger(ctx, "Flat 12", "USD")
	if err != nil {
		t.Fatalf("CreateLedger failed: %v", err)
	}

	members := make(map[string]*models.Member)
	for _, name := range []string{"Alice", "Bob", "Carol"} {
		m, err := svc.AddMember(ctx, ledger.ID, name)
		if err != nil {
			t.Fatalf("AddMember(%s) failed: %v", name, err)
		}
		members[name] = m
	}
	return svc, ledger, members
}

func evenExpense(name string, amount int64, payer string, members map[string]*models.Member) *TransactionDraft {
	draft := &TransactionDraft{
		Name:     name,
		Currency: "USD",
		Type:     models.TypeExpense,
	}
	for _, m := range members {
		c := ContributionInput{MemberID: m.ID, Weight: 1}
		if m.Name == payer {
			c.AmountCents = amount
		}
		draft.Contributions = append(draft.Contributions, c)
	}
	return draft
}

func TestCreateLedgerRejectsUnknownCurrency(t *testing.T) {
	svc := NewLedgerService(memory.New(), testRates())
	_, err := svc.CreateLedger(context.Background(), "Trip", "XXX")
	assertRule(t, err, models.RuleCurrency)
}

func TestAddMemberNameUniqueness(t *testing.T) {
	svc, ledger, _ := newTestLedger(t)
	_, err := svc.AddMember(context.Background(), ledger.ID, "alice")
	assertRule(t, err, models.RuleMemberName)
}

func TestCreateTransactionNormalizes(t *testing.T) {
	svc, ledger, members := newTestLedger(t)
	ctx := context.Background()

	draft := evenExpense("  Dinner  ", 3000, "Alice", members)
	draft.Name = "  Dinner  "
	txn, err := svc.CreateTransaction(ctx, ledger.ID, draft)
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if txn.Name != "Dinner" {
		t.Errorf("name = %q, want trimmed %q", txn.Name, "Dinner")
	}
	if txn.Date == "" {
		t.Error("expected date to default to today")
	}
	if txn.ExchangeRate != 1 {
		t.Errorf("same-currency exchange rate = %v, want 1", txn.ExchangeRate)
	}
	if txn.ID == "" || txn.CreatedAt == 0 {
		t.Errorf("expected generated ID and CreatedAt, got %q, %d", txn.ID, txn.CreatedAt)
	}
}

func TestCreateTransactionStampsForeignRate(t *testing.T) {
	svc, ledger, members := newTestLedger(t)

	draft := evenExpense("Museum", 1000, "Alice", members)
	draft.Currency = "EUR"
	txn, err := svc.CreateTransaction(context.Background(), ledger.ID, draft)
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if txn.ExchangeRate != 1.1 {
		t.Errorf("exchange rate = %v, want 1.1 from provider", txn.ExchangeRate)
	}
}

func TestValidationRules(t *testing.T) {
	svc, ledger, members := newTestLedger(t)
	ctx := context.Background()
	alice := members["Alice"].ID

	tests := []struct {
		name     string
		ledgerID string
		mutate   func(d *TransactionDraft)
		wantRule string
	}{
		{
			name:     "missing ledger",
			ledgerID: "no-such-ledger",
			mutate:   func(d *TransactionDraft) {},
			wantRule: models.RuleLedgerExists,
		},
		{
			name:     "unsupported currency",
			mutate:   func(d *TransactionDraft) { d.Currency = "XYZ" },
			wantRule: models.RuleCurrency,
		},
		{
			name:     "bad expense type",
			mutate:   func(d *TransactionDraft) { d.Type = "loan" },
			wantRule: models.RuleExpenseType,
		},
		{
			name:     "no name or category",
			mutate:   func(d *TransactionDraft) { d.Name = "   " },
			wantRule: models.RuleNameOrCategory,
		},
		{
			name:     "no contributions",
			mutate:   func(d *TransactionDraft) { d.Contributions = nil },
			wantRule: models.RuleContributions,
		},
		{
			name: "unknown member",
			mutate: func(d *TransactionDraft) {
				d.Contributions[0].MemberID = "stranger"
			},
			wantRule: models.RuleContributions,
		},
		{
			name: "duplicate member",
			mutate: func(d *TransactionDraft) {
				d.Contributions = append(d.Contributions, ContributionInput{MemberID: d.Contributions[0].MemberID, Weight: 1})
			},
			wantRule: models.RuleContributions,
		},
		{
			name: "negative amount",
			mutate: func(d *TransactionDraft) {
				d.Contributions[0].AmountCents = -100
			},
			wantRule: models.RuleAmounts,
		},
		{
			name: "zero impact",
			mutate: func(d *TransactionDraft) {
				d.Contributions = []ContributionInput{{MemberID: alice, AmountCents: 0, Weight: 0}}
			},
			wantRule: models.RuleImpact,
		},
		{
			name:     "malformed date",
			mutate:   func(d *TransactionDraft) { d.Date = "08/15/2026" },
			wantRule: models.RuleDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := evenExpense("Groceries", 1200, "Alice", members)
			tt.mutate(draft)
			ledgerID := ledger.ID
			if tt.ledgerID != "" {
				ledgerID = tt.ledgerID
			}
			_, err := svc.CreateTransaction(ctx, ledgerID, draft)
			assertRule(t, err, tt.wantRule)
		})
	}
}

func TestZeroWeightsWithAmountsIsAccepted(t *testing.T) {
	svc, ledger, members := newTestLedger(t)
	draft := &TransactionDraft{
		Name:     "Prepaid",
		Currency: "USD",
		Type:     models.TypeExpense,
		Contributions: []ContributionInput{
			{MemberID: members["Alice"].ID, AmountCents: 900, Weight: 0},
			{MemberID: members["Bob"].ID, AmountCents: 0, Weight: 0},
			{MemberID: members["Carol"].ID, AmountCents: 0, Weight: 0},
		},
	}
	if _, err := svc.CreateTransaction(context.Background(), ledger.ID, draft); err != nil {
		t.Fatalf("zero weights with positive amounts should validate, got %v", err)
	}

	// All-zero weights fall back to an even deal, so the money still
	// balances across the ledger.
	balances, err := svc.Balances(context.Background(), ledger.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	var netSum int64
	for _, b := range balances {
		netSum += b.NetCents
	}
	if netSum != 0 {
		t.Errorf("net sum = %d, want 0", netSum)
	}
}

func TestBalancesAndSettlementEndToEnd(t *testing.T) {
	svc, ledger, members := newTestLedger(t)
	ctx := context.Background()

	if _, err := svc.CreateTransaction(ctx, ledger.ID, evenExpense("Dinner", 3000, "Alice", members)); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	balances, err := svc.Balances(ctx, ledger.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	byID := make(map[string]models.Balance)
	for _, b := range balances {
		byID[b.MemberID] = b
	}
	if got := byID[members["Alice"].ID]; got.NetCents != 2000 {
		t.Errorf("alice net = %d, want 2000", got.NetCents)
	}

	transfers, err := svc.SettlementPlan(ctx, ledger.ID)
	if err != nil {
		t.Fatalf("SettlementPlan failed: %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(transfers))
	}
	for _, tr := range transfers {
		if tr.PayeeID != members["Alice"].ID || tr.AmountCents != 1000 {
			t.Errorf("transfer %+v, want 1000 to alice", tr)
		}
	}
}

func TestDeleteTransactionRevertsBalances(t *testing.T) {
	svc, ledger, members := newTestLedger(t)
	ctx := context.Background()

	txn, err := svc.CreateTransaction(ctx, ledger.ID, evenExpense("Dinner", 3000, "Alice", members))
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, ledger.ID, txn.ID); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}

	balances, err := svc.Balances(ctx, ledger.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	for _, b := range balances {
		if b.NetCents != 0 {
			t.Errorf("%s net = %d after delete, want 0", b.MemberID, b.NetCents)
		}
	}
}

func TestDeactivateMemberRequiresSettledBalance(t *testing.T) {
	svc, ledger, members := newTestLedger(t)
	ctx := context.Background()

	if _, err := svc.CreateTransaction(ctx, ledger.ID, evenExpense("Dinner", 3000, "Alice", members)); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	err := svc.DeactivateMember(ctx, ledger.ID, members["Bob"].ID)
	assertRule(t, err, models.RuleMemberSettled)

	// Bob pays Alice back, then can leave.
	repay := &TransactionDraft{
		Name:     "Settle up",
		Currency: "USD",
		Type:     models.TypeTransfer,
		Contributions: []ContributionInput{
			{MemberID: members["Bob"].ID, AmountCents: 1000, Weight: 0},
			{MemberID: members["Alice"].ID, AmountCents: 0, Weight: 1},
		},
	}
	if _, err := svc.CreateTransaction(ctx, ledger.ID, repay); err != nil {
		t.Fatalf("repayment failed: %v", err)
	}
	if err := svc.DeactivateMember(ctx, ledger.ID, members["Bob"].ID); err != nil {
		t.Fatalf("DeactivateMember after settling failed: %v", err)
	}
}

func TestAuditReactivatesMember(t *testing.T) {
	svc, ledger, members := newTestLedger(t)
	ctx := context.Background()

	// Carol never owes anything and leaves.
	if err := svc.DeactivateMember(ctx, ledger.ID, members["Carol"].ID); err != nil {
		t.Fatalf("DeactivateMember failed: %v", err)
	}

	// A new expense pulls Carol back into the money flow.
	draft := evenExpense("Reunion dinner", 3000, "Alice", members)
	if _, err := svc.CreateTransaction(ctx, ledger.ID, draft); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	state, err := svc.store.ListMembers(ctx, ledger.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	for _, m := range state {
		if m.ID == members["Carol"].ID && !m.IsActive {
			t.Error("expected audit to reactivate Carol")
		}
	}

	// Strict reads succeed again because the invariant holds.
	if _, err := svc.Balances(ctx, ledger.ID); err != nil {
		t.Errorf("Balances after audit failed: %v", err)
	}
}

func TestUpdateTransactionKeepsSeed(t *testing.T) {
	svc, ledger, members := newTestLedger(t)
	ctx := context.Background()

	txn, err := svc.CreateTransaction(ctx, ledger.ID, evenExpense("Taxi", 101, "Alice", members))
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	updated, err := svc.UpdateTransaction(ctx, ledger.ID, txn.ID, evenExpense("Taxi home", 101, "Alice", members))
	if err != nil {
		t.Fatalf("UpdateTransaction failed: %v", err)
	}
	if updated.ID != txn.ID || updated.CreatedAt != txn.CreatedAt {
		t.Errorf("update changed identity: %q/%d vs %q/%d", updated.ID, updated.CreatedAt, txn.ID, txn.CreatedAt)
	}
	if updated.Name != "Taxi home" {
		t.Errorf("name = %q, want %q", updated.Name, "Taxi home")
	}
}

func assertRule(t *testing.T, err error, rule string) {
	t.Helper()
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if verr.Rule != rule {
		t.Fatalf("rule = %s, want %s", verr.Rule, rule)
	}
}
