package validator

import (
	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/core"
	"github.com/FLock-io/FLock-subnet/internal/kami"
	"github.com/FLock-io/FLock-subnet/internal/utils/chainutils"
)

func (v *Validator) syncMetagraph() {
	log.Debug().Int("netuid", v.Config.Netuid).Msg("syncing metagraph")

	resp, err := v.Kami.GetMetagraph(v.Config.Netuid)
	if err != nil {
		log.Error().Err(err).Msg("failed to get metagraph")
		return
	}
	metagraph := resp.Data

	var activeMiners []int
	for uid := range metagraph.Hotkeys {
		if metagraph.Hotkeys[uid] == "" || metagraph.Hotkeys[uid] == v.Hotkey {
			continue
		}
		var alphaStake, rootStake float64
		if uid < len(metagraph.AlphaStake) {
			alphaStake = metagraph.AlphaStake[uid]
		}
		if uid < len(metagraph.TaoStake) {
			rootStake = metagraph.TaoStake[uid]
		}
		if chainutils.CheckIfMiner(alphaStake, rootStake, v.Config.Environment) {
			activeMiners = append(activeMiners, uid)
		}
	}

	log.Info().Int("activeMiners", len(activeMiners)).Int("block", metagraph.Block).Msg("metagraph synced")

	v.mu.Lock()
	defer v.mu.Unlock()
	v.Metagraph.Metagraph = metagraph
	v.Metagraph.ActiveMiners = activeMiners
}

func (v *Validator) syncBlock() {
	resp, err := v.Kami.GetLatestBlock()
	if err != nil {
		log.Error().Err(err).Msg("failed to get latest block")
		return
	}
	block := int64(resp.Data.BlockNumber)

	// The ticker fires syncBlock in its own goroutine, so a slow Kami call can
	// make invocations overlap; the trigger state shares v.mu with LatestBlock.
	v.mu.Lock()
	defer v.mu.Unlock()
	v.LatestBlock = block

	log.Trace().Int64("block", block).Msg("block synced")

	if v.cycleTrigger.ShouldTrigger(block) {
		log.Info().Str("callback", v.cycleTrigger.GetName()).Int64("block", block).Msg("block callback triggered")
		if err := v.cycleTrigger.Execute(); err != nil {
			log.Error().Err(err).Msg("cycle trigger failed")
			return
		}
		v.cycleTrigger.LastTriggerAtBlock = block
	}
}

// LatestBlockSeen returns the most recent block observed by syncBlock.
func (v *Validator) LatestBlockSeen() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.LatestBlock
}

// snapshotParticipants copies the active miner set out of the latest
// metagraph under the lock, so the cycle works on an immutable view.
func (v *Validator) snapshotParticipants() []core.Participant {
	v.mu.Lock()
	defer v.mu.Unlock()

	metagraph := v.Metagraph.Metagraph
	participants := make([]core.Participant, 0, len(v.Metagraph.ActiveMiners))
	for _, uid := range v.Metagraph.ActiveMiners {
		participants = append(participants, kami.ParticipantAt(&metagraph, uid))
	}
	return participants
}
