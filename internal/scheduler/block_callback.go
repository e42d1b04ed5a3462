// Package scheduler drives periodic work off chain block height instead of
// wall-clock time, so cadence tracks the ledger's own notion of time.
package scheduler

// NewBlockCallback creates a new BlockCallback that triggers every N blocks.
func NewBlockCallback(interval int64, execute func() error) *BlockCallback {
	return &BlockCallback{
		LastTriggerAtBlock: -1,
		interval:           interval,
		executeFn:          execute,
	}
}

// ShouldTrigger checks if the callback should trigger at the observed block.
func (bc *BlockCallback) ShouldTrigger(block int64) bool {
	// First observation: trigger only on an interval boundary.
	if bc.LastTriggerAtBlock < 0 {
		return block%bc.interval == 0
	}

	return block-bc.LastTriggerAtBlock >= bc.interval
}

// Execute runs the callback. The caller updates LastTriggerAtBlock only on
// success so failed executions retry on the next block.
func (bc *BlockCallback) Execute() error {
	return bc.executeFn()
}

// GetName returns the callback name.
func (bc *BlockCallback) GetName() string {
	return InferNameFromFunc(bc.executeFn)
}
