// Package validator implements the validator runtime: metagraph sync, the
// per-cycle evaluation pipeline, ranking and cooldown-aware weight submission.
package validator

import (
	"github.com/FLock-io/FLock-subnet/internal/kami"
)

// MetagraphData holds the most recent metagraph snapshot and derived state.
type MetagraphData struct {
	Metagraph    kami.SubnetMetagraph
	ActiveMiners []int
}

// evalDirName is where the pinned evaluation dataset lives under DataDir.
const evalDirName = "eval"

// weightSubmitAttempts bounds genuine I/O failures of the set-weights
// extrinsic before the vector is dropped for the cycle.
const weightSubmitAttempts = 5
