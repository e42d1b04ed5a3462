// Package chainutils contains helpers for translating subnet state into the
// integer forms the chain expects.
package chainutils

import (
	"fmt"
	"math"
	"sort"

	"github.com/FLock-io/FLock-subnet/internal/core"
)

const (
	U16MAX = 65535
)

// ConvertWeightsForEmit turns a normalized weight vector into the parallel
// uid/u16-weight slices the set-weights extrinsic takes. Weights scale
// against the max so the best participant emits U16MAX; zero weights are
// dropped. UIDs come out sorted so the emitted extrinsic is deterministic.
func ConvertWeightsForEmit(weights core.WeightVector) ([]int, []int, error) {
	if len(weights) == 0 {
		return []int{}, []int{}, nil
	}

	uids := make([]int, 0, len(weights))
	maxWeight := 0.0
	for uid, w := range weights {
		if w < 0 {
			return nil, nil, fmt.Errorf("weights cannot be negative: uid %d has %v", uid, w)
		}
		if uid < 0 {
			return nil, nil, fmt.Errorf("uids cannot be negative: %d", uid)
		}
		if w > maxWeight {
			maxWeight = w
		}
		uids = append(uids, uid)
	}
	sort.Ints(uids)

	if maxWeight == 0 {
		return []int{}, []int{}, nil
	}

	weightUids := make([]int, 0, len(uids))
	weightVals := make([]int, 0, len(uids))
	for _, uid := range uids {
		uint16Val := int(math.Round((weights[uid] / maxWeight) * float64(U16MAX)))
		if uint16Val > 0 {
			weightUids = append(weightUids, uid)
			weightVals = append(weightVals, uint16Val)
		}
	}

	return weightUids, weightVals, nil
}
