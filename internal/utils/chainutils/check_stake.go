package chainutils

// Stake thresholds separating miners from validators. Root stake counts at a
// discount because it is delegated rather than bonded to the subnet.
const (
	rootStakeDiscount  = 0.18
	prodStakeFilter    = 10000.0
	nonProdStakeFilter = 1000.0
)

// CheckIfMiner reports whether a hotkey's stake profile marks it as a miner:
// anything below the validator stake threshold competes as a data producer.
func CheckIfMiner(alphaStake, rootStake float64, environment string) bool {
	effectiveStake := alphaStake + rootStake*rootStakeDiscount

	stakeFilter := prodStakeFilter
	if environment != "prod" {
		stakeFilter = nonProdStakeFilter
	}
	return effectiveStake < stakeFilter
}
