package chainutils

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FLock-io/FLock-subnet/internal/core"
)

func TestConvertWeightsForEmit(t *testing.T) {
	uids, vals, err := ConvertWeightsForEmit(core.WeightVector{0: 0.5, 1: 0.0, 2: 0.25, 3: 0.25})
	require.NoError(t, err)
	require.Equal(t, []int{0, 2, 3}, uids)
	require.Equal(t, []int{65535, 32768, 32768}, vals)
}

func TestConvertWeightsForEmit_ZeroVector(t *testing.T) {
	uids, vals, err := ConvertWeightsForEmit(core.WeightVector{0: 0, 1: 0})
	require.NoError(t, err)
	require.Empty(t, uids)
	require.Empty(t, vals)
}

func TestConvertWeightsForEmit_Empty(t *testing.T) {
	uids, vals, err := ConvertWeightsForEmit(nil)
	require.NoError(t, err)
	require.Empty(t, uids)
	require.Empty(t, vals)
}

func TestConvertWeightsForEmit_NegativeWeightRejected(t *testing.T) {
	_, _, err := ConvertWeightsForEmit(core.WeightVector{0: -0.1})
	require.Error(t, err)
}

func TestCheckIfMiner(t *testing.T) {
	require.True(t, CheckIfMiner(100, 0, "prod"))
	require.False(t, CheckIfMiner(20000, 0, "prod"))
	require.False(t, CheckIfMiner(0, 100000, "prod"))
	require.True(t, CheckIfMiner(500, 0, "dev"))
	require.False(t, CheckIfMiner(2000, 0, "dev"))
}
