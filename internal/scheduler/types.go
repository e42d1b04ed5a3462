package scheduler

// BlockCallback is a callback that triggers every N blocks.
// WARN: if the block updater hangs and several intervals pass between
// observations, the callback fires once for the whole gap, not once per
// missed interval.
type BlockCallback struct {
	LastTriggerAtBlock int64
	// interval is the number of blocks between triggers
	interval  int64
	executeFn func() error
}

// CallbackHandler is anything the block loop can drive.
type CallbackHandler interface {
	// Determines if the callback should trigger at the observed block height
	ShouldTrigger(block int64) bool
	// Executes the callback logic and returns an error if it fails
	Execute() error
	// Returns the name of the callback, which may be inferred from the function name
	GetName() string
}
