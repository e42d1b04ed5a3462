package validator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/committer"
	"github.com/FLock-io/FLock-subnet/internal/config"
	"github.com/FLock-io/FLock-subnet/internal/core"
	"github.com/FLock-io/FLock-subnet/internal/evalqueue"
	"github.com/FLock-io/FLock-subnet/internal/hfstore"
	"github.com/FLock-io/FLock-subnet/internal/kami"
	"github.com/FLock-io/FLock-subnet/internal/scheduler"
	"github.com/FLock-io/FLock-subnet/internal/trainer"
	"github.com/FLock-io/FLock-subnet/internal/utils/chainutils"
)

// Validator coordinates evaluation cycles and on-chain state for a subnet.
type Validator struct {
	Kami    kami.Interface
	Store   hfstore.Interface
	Trainer trainer.Interface
	Queue   *evalqueue.Queue

	Hotkey      string
	LatestBlock int64
	Metagraph   MetagraphData

	Config    *config.AppConfig
	Intervals *config.IntervalConfig

	cycle         uint64
	cycleTrigger  *scheduler.BlockCallback
	cycleRunning  atomic.Bool
	weightsCh     chan core.WeightVector
	evalDataReady atomic.Bool
	evalDataPath  string

	Ctx    context.Context
	Cancel context.CancelFunc
	Wg     sync.WaitGroup

	mu sync.Mutex // protects LatestBlock and Metagraph
}

// NewValidator constructs a Validator and restores the rotation queue.
func NewValidator(
	cfg *config.AppConfig,
	k kami.Interface,
	store hfstore.Interface,
	tr trainer.Interface,
	queue *evalqueue.Queue,
) (*Validator, error) {
	hotkey, err := kami.GetHotkey(k)
	if err != nil {
		return nil, fmt.Errorf("load validator hotkey: %w", err)
	}
	log.Info().Str("hotkey", hotkey).Msg("validator hotkey loaded")

	ctx, cancel := context.WithCancel(context.Background())

	v := &Validator{
		Kami:    k,
		Store:   store,
		Trainer: tr,
		Queue:   queue,

		Hotkey: hotkey,

		Config:    cfg,
		Intervals: config.NewIntervalConfig(cfg.Environment),

		cycle:     queue.NextCycle(),
		weightsCh: make(chan core.WeightVector, 1),

		Ctx:    ctx,
		Cancel: cancel,
	}
	v.cycleTrigger = scheduler.NewBlockCallback(cfg.CycleBlocks, v.startCycle)

	log.Info().Uint64("cycle", v.cycle).Int64("cycleBlocks", cfg.CycleBlocks).Msg("validator initialized")
	return v, nil
}

// runTicker runs a function periodically until the provided context is
// canceled. fn runs in its own goroutine so the ticker loop can exit quickly
// when the context is canceled.
func (v *Validator) runTicker(ctx context.Context, d time.Duration, fn func()) {
	defer v.Wg.Done()
	t := time.NewTicker(d)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			go fn()
		}
	}
}

// Start kicks off the background routines: block sync (which paces the
// evaluation cycle), metagraph sync and the weight submitter.
func (v *Validator) Start() {
	v.Wg.Add(1)
	go v.runTicker(v.Ctx, v.Intervals.BlockInterval, v.syncBlock)

	v.Wg.Add(1)
	go v.runTicker(v.Ctx, v.Intervals.MetagraphInterval, v.syncMetagraph)

	v.Wg.Add(1)
	go v.submitLoop()
}

// Stop cancels background routines and waits for them to finish.
func (v *Validator) Stop() {
	if v.Cancel != nil {
		v.Cancel()
	}
	v.Wg.Wait()
}

// startCycle dispatches one evaluation cycle unless one is already running.
func (v *Validator) startCycle() error {
	if !v.cycleRunning.CompareAndSwap(false, true) {
		log.Warn().Msg("previous cycle still running, skipping trigger")
		return nil
	}
	go func() {
		defer v.cycleRunning.Store(false)
		v.runCycle()
	}()
	return nil
}

// submitLoop forwards each completed cycle's weight vector to the chain
// through the retry state machine. It owns its own schedule: a cooldown on
// the previous submission never stalls the next evaluation cycle.
func (v *Validator) submitLoop() {
	defer v.Wg.Done()
	for {
		select {
		case <-v.Ctx.Done():
			return
		case weights := <-v.weightsCh:
			v.submitWeights(weights)
		}
	}
}

// enqueueWeights hands a vector to the submitter, replacing any vector still
// waiting: only the freshest cycle's weights are worth submitting.
func (v *Validator) enqueueWeights(weights core.WeightVector) {
	for {
		select {
		case v.weightsCh <- weights:
			return
		default:
			select {
			case stale := <-v.weightsCh:
				log.Warn().Int("size", len(stale)).Msg("replacing unsubmitted weight vector with fresher cycle")
			default:
			}
		}
	}
}

func (v *Validator) submitWeights(weights core.WeightVector) {
	uids, vals, err := chainutils.ConvertWeightsForEmit(weights)
	if err != nil {
		log.Error().Err(err).Msg("failed to convert weights for emit")
		return
	}
	if len(uids) == 0 {
		log.Info().Msg("no non-zero weights this cycle, skipping submission")
		return
	}

	params := kami.SetWeightsParams{
		Netuid:     v.Config.Netuid,
		Dests:      uids,
		Weights:    vals,
		VersionKey: v.Config.WeightsVersion,
	}

	retrier := committer.NewRetrier("set-weights", v.Config.WeightsRetryWait, weightSubmitAttempts)
	err = retrier.Run(v.Ctx, func(ctx context.Context) error {
		_, err := v.Kami.SetWeights(params)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("weight submission abandoned")
		return
	}
	log.Info().Int("uids", len(uids)).Msg("weights set on chain")
}
