package calculator

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"math/rand"
	"sort"
)

// Split divides totalCents across weighted shares with no rounding loss.
//
// The result has one entry per weight and sums to exactly totalCents. Each
// share is floored from its ideal real-valued portion, then the leftover cents
// go one at a time to the shares that lost the most in flooring. Ties on the
// fractional part are broken by a permutation seeded from seed (typically the
// transaction ID), so identical inputs always split identically while
// different transactions don't all favor the same member.
//
// Zero-weight entries never receive leftover cents. When every weight is zero
// the total is instead dealt round-robin across all entries, which keeps the
// sum invariant intact for transactions that carry paid amounts but no split
// weights; callers that consider that an error must reject it before calling.
//
// Negative totals split symmetrically: Split(-t, w) == -Split(t, w).
func Split(totalCents int64, weights []float64, seed string) ([]int64, error) {
	n := len(weights)
	if n == 0 {
		return nil, fmt.Errorf("split: no shares to split across")
	}

	var totalWeight float64
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("split: invalid weight %v at index %d", w, i)
		}
		totalWeight += w
	}

	sign := int64(1)
	total := totalCents
	if total < 0 {
		sign = -1
		total = -total
	}

	shares := make([]int64, n)
	order := shuffledIndexes(n, seed)

	if totalWeight == 0 {
		// Degenerate: nothing to weight by. Deal the whole amount round-robin
		// in seeded order so no entry is systematically favored.
		base := total / int64(n)
		extra := total % int64(n)
		for i := range shares {
			shares[i] = base
		}
		for k := 0; int64(k) < extra; k++ {
			shares[order[k]]++
		}
		for i := range shares {
			shares[i] *= sign
		}
		return shares, nil
	}

	fracs := make([]float64, n)
	var allocated int64
	for i, w := range weights {
		raw := float64(total) * (w / totalWeight)
		floor := math.Floor(raw)
		shares[i] = int64(floor)
		fracs[i] = raw - floor
		allocated += shares[i]
	}
	remainder := total - allocated

	// Candidates for leftover cents: only entries that actually carry weight,
	// ranked by how much flooring cost them, ties in seeded order.
	rank := make([]int, n)
	for pos, idx := range order {
		rank[idx] = pos
	}
	var candidates []int
	for i, w := range weights {
		if w > 0 {
			candidates = append(candidates, i)
		}
	}
	sort.Slice(candidates, func(a, b int) bool {
		ia, ib := candidates[a], candidates[b]
		if fracs[ia] != fracs[ib] {
			return fracs[ia] > fracs[ib]
		}
		return rank[ia] < rank[ib]
	})

	// Flooring leaves fewer leftover cents than weighted entries, except in
	// degenerate float cases; absorb any excess round-robin first.
	if remainder >= int64(len(candidates)) {
		slog.Warn("split: remainder exceeds weighted share count, distributing round-robin",
			"remainder", remainder,
			"shares", len(candidates),
			"seed", seed,
		)
		for k := 0; remainder >= int64(len(candidates)); k++ {
			shares[candidates[k%len(candidates)]]++
			remainder--
		}
	}
	for remainder < 0 {
		// Float overshoot in the raw shares; claw back from the entries that
		// rounded up the least painfully (smallest fractional loss last).
		for k := len(candidates) - 1; k >= 0 && remainder < 0; k-- {
			if shares[candidates[k]] > 0 {
				shares[candidates[k]]--
				remainder++
			}
		}
	}
	for k := 0; int64(k) < remainder; k++ {
		shares[candidates[k]]++
	}

	if sign < 0 {
		for i := range shares {
			shares[i] = -shares[i]
		}
	}
	return shares, nil
}

// shuffledIndexes returns a deterministic permutation of [0,n) derived from
// seed via FNV-1a. Wall-clock randomness would make replays unreproducible.
func shuffledIndexes(n int, seed string) []int {
	h := fnv.New64a()
	h.Write([]byte(seed))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	return rng.Perm(n)
}
