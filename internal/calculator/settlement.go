package calculator

import (
	"log/slog"
	"sort"

	"tally/internal/models"
)

// PlanSettlement produces the list of direct payments that zeroes out every
// net balance.
//
// Greedy matching: the largest remaining creditor is repeatedly paired with
// the largest remaining debtor and the smaller of the two amounts is
// transferred. This yields at most creditors+debtors-1 transfers. It is not
// provably minimal for every balance topology (an exact subgroup
// decomposition could occasionally do better), but it is deterministic:
// ties sort by member ID.
//
// The balances must sum to zero; a residual after matching means the
// aggregator produced inconsistent input and is reported as an
// IntegrityError, never as a partial plan.
func PlanSettlement(balances []models.Balance) ([]models.Transfer, error) {
	var creditors, debtors []models.Balance
	for _, b := range balances {
		switch {
		case b.NetCents > 0:
			creditors = append(creditors, b)
		case b.NetCents < 0:
			debtors = append(debtors, b)
		}
	}

	sort.Slice(creditors, func(a, b int) bool {
		if creditors[a].NetCents != creditors[b].NetCents {
			return creditors[a].NetCents > creditors[b].NetCents
		}
		return creditors[a].MemberID < creditors[b].MemberID
	})
	sort.Slice(debtors, func(a, b int) bool {
		if debtors[a].NetCents != debtors[b].NetCents {
			return debtors[a].NetCents < debtors[b].NetCents
		}
		return debtors[a].MemberID < debtors[b].MemberID
	})

	var transfers []models.Transfer
	i, j := 0, 0
	var credRemaining, debtRemaining int64
	if len(creditors) > 0 {
		credRemaining = creditors[0].NetCents
	}
	if len(debtors) > 0 {
		debtRemaining = -debtors[0].NetCents
	}

	for i < len(debtors) && j < len(creditors) {
		amount := debtRemaining
		if credRemaining < amount {
			amount = credRemaining
		}
		if amount > 0 {
			transfers = append(transfers, models.Transfer{
				PayerID:     debtors[i].MemberID,
				PayeeID:     creditors[j].MemberID,
				AmountCents: amount,
			})
		}
		debtRemaining -= amount
		credRemaining -= amount

		if debtRemaining == 0 {
			i++
			if i < len(debtors) {
				debtRemaining = -debtors[i].NetCents
			}
		}
		if credRemaining == 0 {
			j++
			if j < len(creditors) {
				credRemaining = creditors[j].NetCents
			}
		}
	}

	// Integer cents, so the two sides must exhaust together. Anything left
	// over means the input balances did not sum to zero.
	var residual int64
	for ; i < len(debtors); i++ {
		residual += debtRemaining
		debtRemaining = 0
		if i+1 < len(debtors) {
			debtRemaining = -debtors[i+1].NetCents
		}
	}
	for ; j < len(creditors); j++ {
		residual += credRemaining
		credRemaining = 0
		if j+1 < len(creditors) {
			credRemaining = creditors[j+1].NetCents
		}
	}
	if residual != 0 {
		slog.Error("settlement left residual balance", "residual_cents", residual)
		return nil, models.Integrityf("settlement left %d cents unmatched", residual)
	}

	return transfers, nil
}
