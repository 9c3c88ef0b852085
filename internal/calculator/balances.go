package calculator

import (
	"log/slog"
	"sort"

	"tally/internal/models"
	"tally/internal/money"
)

// Mode selects how ComputeBalances treats the inactive-member invariant.
type Mode int

const (
	// Strict fails with an IntegrityError when an inactive member's net
	// balance is non-zero. Used for read paths: inconsistent balances must
	// never be served as a success.
	Strict Mode = iota

	// AuditMode tolerates non-zero nets on inactive members and leaves the
	// caller to reactivate them. Used by the post-write audit.
	AuditMode
)

// ComputeBalances walks the transaction history and derives each member's
// paid, owed, and net totals in ledger-base-currency cents.
//
// Per transaction, paid amounts are converted through the exchange rate and
// the converted total is split across contributor weights, so the sum of paid
// equals the sum of owed exactly for every transaction: money is redistributed,
// never created. Income transactions enter with inverted sign. Deleted and
// template transactions are skipped.
//
// Every member appears in the result, in the order given, even with no
// transaction involvement. Contributions referencing unknown member IDs still
// accumulate and are appended after the known members, sorted by ID.
func ComputeBalances(members []models.Member, transactions []models.Transaction, mode Mode) ([]models.Balance, error) {
	balances := make(map[string]*models.Balance, len(members))
	for _, m := range members {
		balances[m.ID] = &models.Balance{MemberID: m.ID}
	}

	for i := range transactions {
		t := &transactions[i]
		if !t.CountsForBalances() {
			continue
		}
		if len(t.Contributions) == 0 {
			continue
		}

		// Iterate contributions in sorted member order so the weight vector,
		// and therefore the split, is the same on every recomputation.
		ids := make([]string, 0, len(t.Contributions))
		for id := range t.Contributions {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		paid := make([]int64, len(ids))
		weights := make([]float64, len(ids))
		var total int64
		for i, id := range ids {
			c := t.Contributions[id]
			paid[i] = money.MultiplyByRate(c.AmountCents, t.ExchangeRate)
			weights[i] = c.Weight
			total += paid[i]
		}

		shares, err := Split(total, weights, t.ID)
		if err != nil {
			return nil, models.Integrityf("transaction %s: %v", t.ID, err)
		}
		var owedTotal int64
		for _, s := range shares {
			owedTotal += s
		}
		if owedTotal != total {
			// The splitter's conservation contract is broken; this is a bug,
			// not bad input.
			slog.Error("split leaked money",
				"transaction_id", t.ID,
				"total", total,
				"allocated", owedTotal,
			)
			return nil, models.Integrityf("transaction %s: split allocated %d of %d cents", t.ID, owedTotal, total)
		}

		sign := int64(1)
		if t.Type == models.TypeIncome {
			sign = -1
		}
		for i, id := range ids {
			b, ok := balances[id]
			if !ok {
				b = &models.Balance{MemberID: id}
				balances[id] = b
			}
			b.PaidCents += sign * paid[i]
			b.OwedCents += sign * shares[i]
		}
	}

	for _, b := range balances {
		b.NetCents = b.PaidCents - b.OwedCents
	}

	if mode == Strict {
		for _, m := range members {
			if m.IsActive {
				continue
			}
			if b := balances[m.ID]; b.NetCents != 0 {
				slog.Error("inactive member has non-zero balance",
					"member_id", m.ID,
					"net_cents", b.NetCents,
				)
				return nil, models.Integrityf("inactive member %s has non-zero net balance %d", m.ID, b.NetCents)
			}
		}
	}

	out := make([]models.Balance, 0, len(balances))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		out = append(out, *balances[m.ID])
		seen[m.ID] = true
	}
	var extras []string
	for id := range balances {
		if !seen[id] {
			extras = append(extras, id)
		}
	}
	sort.Strings(extras)
	for _, id := range extras {
		out = append(out, *balances[id])
	}
	return out, nil
}
