// Package ranking converts the cycle's evaluation records into the weight
// vector submitted on chain. Raw losses are aggregated by pairwise
// comparison: a strictly lower loss wins the pair, ties split the win. The
// resulting win rates are L1-normalized so the vector sums to one.
package ranking

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/core"
)

// Compute produces the weight vector for one cycle. Only Scored records carry
// weight; Failed and Skipped participants get zero. Output is deterministic
// for a fixed set of records: candidates are ordered by UID before any
// comparison, so no map iteration order leaks into the result.
func Compute(records []*core.EvalRecord) core.WeightVector {
	weights := make(core.WeightVector, len(records))
	for _, rec := range records {
		weights[rec.Participant.UID] = 0
	}

	scored := make([]*core.EvalRecord, 0, len(records))
	for _, rec := range records {
		if rec.Status == core.StatusScored {
			scored = append(scored, rec)
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Participant.UID < scored[j].Participant.UID
	})

	n := len(scored)
	if n == 0 {
		log.Info().Msg("no scored participants this cycle, emitting zero vector")
		return weights
	}
	if n == 1 {
		weights[scored[0].Participant.UID] = 1
		return weights
	}

	wins := winCounts(scored)

	// Win rate: share of the n-1 comparisons each candidate took part in.
	rates := make([]float64, n)
	for i, w := range wins {
		rates[i] = w / float64(n-1)
	}
	rates = l1Normalize(rates)

	for i, rec := range scored {
		weights[rec.Participant.UID] = rates[i]
	}
	return weights
}

// winCounts tallies pairwise wins over candidates sorted by UID. Lower loss
// wins 1, equal losses award 0.5 each.
func winCounts(scored []*core.EvalRecord) []float64 {
	wins := make([]float64, len(scored))
	for i := 0; i < len(scored); i++ {
		for j := i + 1; j < len(scored); j++ {
			switch {
			case scored[i].Score < scored[j].Score:
				wins[i]++
			case scored[i].Score > scored[j].Score:
				wins[j]++
			default:
				wins[i] += 0.5
				wins[j] += 0.5
			}
		}
	}
	return wins
}
