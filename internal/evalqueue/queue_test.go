package evalqueue

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FLock-io/FLock-subnet/internal/core"
)

func participants(n int) []core.Participant {
	out := make([]core.Participant, n)
	for i := range out {
		out[i] = core.Participant{UID: i, Hotkey: fmt.Sprintf("hk%d", i), RegistrationBlock: int64(i)}
	}
	return out
}

func TestSelect_CapacityLargerThanActiveSet(t *testing.T) {
	ctx := context.Background()
	q, err := NewQueue(ctx, NewMemoryStore())
	require.NoError(t, err)

	selected, err := q.Select(ctx, participants(5), 32, 1)
	require.NoError(t, err)
	require.Len(t, selected, 5)
}

func TestSelect_OverflowBecomesHighestPriorityNextCycle(t *testing.T) {
	ctx := context.Background()
	q, err := NewQueue(ctx, NewMemoryStore())
	require.NoError(t, err)

	active := participants(40)

	first, err := q.Select(ctx, active, 32, 1)
	require.NoError(t, err)
	require.Len(t, first, 32)
	for i, p := range first {
		require.Equal(t, i, p.UID, "all-unselected ties break by UID")
	}

	second, err := q.Select(ctx, active, 32, 2)
	require.NoError(t, err)
	require.Len(t, second, 32)

	// The 8 left over from cycle 1 must lead cycle 2's selection.
	for i := 0; i < 8; i++ {
		require.Equal(t, 32+i, second[i].UID)
	}
}

func TestSelect_NoStarvationWindow(t *testing.T) {
	ctx := context.Background()
	q, err := NewQueue(ctx, NewMemoryStore())
	require.NoError(t, err)

	const activeCount, capacity = 40, 32
	active := participants(activeCount)
	window := activeCount/capacity + 2 // ceil(active/capacity) + 1

	seen := make(map[int]bool)
	for cycle := 1; cycle <= window; cycle++ {
		selected, err := q.Select(ctx, active, capacity, uint64(cycle))
		require.NoError(t, err)
		for _, p := range selected {
			seen[p.UID] = true
		}
	}
	require.Len(t, seen, activeCount, "every participant must appear within the window")
}

func TestSelect_NewRegistrationJumpsQueue(t *testing.T) {
	ctx := context.Background()
	q, err := NewQueue(ctx, NewMemoryStore())
	require.NoError(t, err)

	active := participants(3)
	_, err = q.Select(ctx, active, 3, 1)
	require.NoError(t, err)

	newcomer := core.Participant{UID: 9, Hotkey: "hk9"}
	selected, err := q.Select(ctx, append(active, newcomer), 1, 2)
	require.NoError(t, err)
	require.Equal(t, 9, selected[0].UID)
}

func TestSelect_CursorConsumedEvenIfEvaluationWouldFail(t *testing.T) {
	ctx := context.Background()
	q, err := NewQueue(ctx, NewMemoryStore())
	require.NoError(t, err)

	active := participants(2)
	first, err := q.Select(ctx, active, 1, 1)
	require.NoError(t, err)

	// Regardless of what happened downstream, the selected participant goes
	// to the back of the rotation.
	second, err := q.Select(ctx, active, 1, 2)
	require.NoError(t, err)
	require.NotEqual(t, first[0].UID, second[0].UID)
}

func TestQueue_FileStorePersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "queue_state.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	q, err := NewQueue(ctx, store)
	require.NoError(t, err)

	active := participants(4)
	_, err = q.Select(ctx, active[:2], 2, 1)
	require.NoError(t, err)

	// Simulated restart: a fresh queue over the same file.
	store2, err := NewFileStore(path)
	require.NoError(t, err)
	q2, err := NewQueue(ctx, store2)
	require.NoError(t, err)
	require.Equal(t, uint64(2), q2.NextCycle())

	selected, err := q2.Select(ctx, active, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, []int{selected[0].UID, selected[1].UID})
}

func TestQueue_NextCycleFreshState(t *testing.T) {
	q, err := NewQueue(context.Background(), NewMemoryStore())
	require.NoError(t, err)
	require.Equal(t, uint64(1), q.NextCycle())
}
