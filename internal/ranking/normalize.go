package ranking

import (
	"gonum.org/v1/gonum/floats"
)

// l1Normalize rescales arr so it sums to 1. A zero-sum input is returned
// unchanged; never divide by zero.
func l1Normalize(arr []float64) []float64 {
	result := make([]float64, len(arr))
	copy(result, arr)

	sum := floats.Sum(result)
	if sum > 0 {
		floats.Scale(1.0/sum, result)
	}

	return result
}
