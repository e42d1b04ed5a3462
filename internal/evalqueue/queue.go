// Package evalqueue implements the rotating fair selection of miners for
// evaluation. Participants that have waited longest go first, never-selected
// participants go before everyone, and ties break by UID so selection is
// deterministic. Cursors persist across restarts to keep the rotation honest.
package evalqueue

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/core"
)

// Queue is the single writer of the rotation cursors. Select must not be
// called concurrently; the mutex enforces that invariant rather than enabling
// parallel use.
type Queue struct {
	mu      sync.Mutex
	store   Store
	cursors map[string]uint64
}

// NewQueue loads persisted cursors and returns a ready queue.
func NewQueue(ctx context.Context, store Store) (*Queue, error) {
	cursors, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rotation cursors: %w", err)
	}
	log.Info().Int("cursors", len(cursors)).Msg("evaluation queue restored")
	return &Queue{store: store, cursors: cursors}, nil
}

// NextCycle returns the cycle number the validator should run next, derived
// from the persisted cursors so that a restart continues the rotation instead
// of resetting it.
func (q *Queue) NextCycle() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	var maxCycle uint64
	for _, c := range q.cursors {
		if c > maxCycle {
			maxCycle = c
		}
	}
	return maxCycle + 1
}

// Select returns up to capacity participants ordered by selection priority and
// advances their cursors to the given cycle. The cursor moves whether or not
// the later evaluation succeeds: an offer is consumed once made.
func (q *Queue) Select(ctx context.Context, active []core.Participant, capacity int, cycle uint64) ([]core.Participant, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ranked := make([]core.Participant, len(active))
	copy(ranked, active)

	sort.SliceStable(ranked, func(i, j int) bool {
		ci, seenI := q.cursors[ranked[i].Hotkey]
		cj, seenJ := q.cursors[ranked[j].Hotkey]
		if seenI != seenJ {
			// Never-selected participants take highest priority.
			return !seenI
		}
		if seenI && ci != cj {
			return ci < cj
		}
		return ranked[i].UID < ranked[j].UID
	})

	if capacity < len(ranked) {
		ranked = ranked[:capacity]
	}

	updated := make(map[string]uint64, len(ranked))
	for _, p := range ranked {
		updated[p.Hotkey] = cycle
	}
	if err := q.store.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("persist rotation cursors: %w", err)
	}
	for hotkey, c := range updated {
		q.cursors[hotkey] = c
	}

	log.Debug().Uint64("cycle", cycle).Int("selected", len(ranked)).Int("active", len(active)).Msg("selection complete")
	return ranked, nil
}
