// Package miner implements the publishing side of the dataset competition:
// upload the dataset to the hub, register the resulting revision on chain,
// then stay alive reporting health until the process is stopped.
package miner

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
	"github.com/FLock-io/FLock-subnet/internal/hfstore"
	"github.com/FLock-io/FLock-subnet/internal/kami"
)

// Miner publishes one dataset version and keeps its commitment registered.
type Miner struct {
	Kami  kami.Interface
	Store hfstore.Interface

	Hotkey      string
	LatestBlock int64

	Config    *config.AppConfig
	Intervals *config.IntervalConfig

	clock     committer.Clock
	committed atomic.Bool
	artifact  core.ArtifactReference

	Ctx    context.Context
	Cancel context.CancelFunc
	Wg     sync.WaitGroup

	mu sync.Mutex // protects LatestBlock and artifact
}

// Option configures a Miner.
type Option func(*Miner)

// WithClock injects the clock used by the commitment retrier.
func WithClock(c committer.Clock) Option {
	return func(m *Miner) { m.clock = c }
}

// NewMiner constructs a Miner bound to the hotkey loaded from Kami.
func NewMiner(cfg *config.AppConfig, k kami.Interface, store hfstore.Interface, opts ...Option) (*Miner, error) {
	hotkey, err := kami.GetHotkey(k)
	if err != nil {
		return nil, fmt.Errorf("load miner hotkey: %w", err)
	}
	log.Info().Str("hotkey", hotkey).Msg("miner hotkey loaded")

	ctx, cancel := context.WithCancel(context.Background())

	m := &Miner{
		Kami:  k,
		Store: store,

		Hotkey: hotkey,

		Config:    cfg,
		Intervals: config.NewIntervalConfig(cfg.Environment),

		clock: committer.NewClock(),

		Ctx:    ctx,
		Cancel: cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Publish uploads the configured dataset and registers its revision on chain.
// The upload happens once; only the chain write retries. A cooldown rejection
// retries on the configured interval until the window opens, while genuine
// I/O failures are bounded by MaxCommitAttempts.
func (m *Miner) Publish(ctx context.Context) (core.ArtifactReference, error) {
	log.Info().Str("repo", m.Config.HfRepoID).Str("dataset", m.Config.DatasetPath).Msg("uploading dataset")

	oid, err := m.Store.Upload(ctx, m.Config.HfRepoID, m.Config.DatasetPath)
	if err != nil {
		return core.ArtifactReference{}, fmt.Errorf("upload dataset: %w", err)
	}

	ref := core.ArtifactReference{
		Namespace:     m.Config.HfRepoID,
		ContentHash:   oid,
		CompetitionID: m.Config.CompetitionID,
	}

	retrier := committer.NewRetrier(
		"set-commitment",
		m.Config.CommitRetryWait,
		m.Config.MaxCommitAttempts,
		committer.WithClock(m.clock),
	)
	err = retrier.Run(ctx, func(ctx context.Context) error {
		_, err := m.Kami.SetCommitment(kami.SetCommitmentParams{
			Netuid: m.Config.Netuid,
			Data:   ref.Compressed(),
		})
		return err
	})
	if err != nil {
		return core.ArtifactReference{}, fmt.Errorf("register commitment: %w", err)
	}

	m.mu.Lock()
	m.artifact = ref
	m.mu.Unlock()
	m.committed.Store(true)

	log.Info().Str("commitment", ref.Compressed()).Msg("dataset registered on chain")
	return ref, nil
}

// Artifact returns the registered reference and whether Publish has completed.
func (m *Miner) Artifact() (core.ArtifactReference, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.artifact, m.committed.Load()
}

// Start launches the block sync and heartbeat routines.
func (m *Miner) Start() {
	m.Wg.Add(1)
	go m.runTicker(m.Ctx, m.Intervals.BlockInterval, m.syncBlock)

	m.Wg.Add(1)
	go m.runTicker(m.Ctx, m.Intervals.HeartbeatInterval, m.heartbeat)
}

// Stop cancels background routines and waits for them to finish.
func (m *Miner) Stop() {
	if m.Cancel != nil {
		m.Cancel()
	}
	m.Wg.Wait()
}

func (m *Miner) runTicker(ctx context.Context, d time.Duration, fn func()) {
	defer m.Wg.Done()
	t := time.NewTicker(d)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}

func (m *Miner) syncBlock() {
	resp, err := m.Kami.GetLatestBlock()
	if err != nil {
		log.Error().Err(err).Msg("failed to get latest block")
		return
	}

	m.mu.Lock()
	m.LatestBlock = int64(resp.Data.BlockNumber)
	m.mu.Unlock()
}

func (m *Miner) heartbeat() {
	m.mu.Lock()
	block := m.LatestBlock
	m.mu.Unlock()

	log.Info().
		Int64("block", block).
		Bool("committed", m.committed.Load()).
		Msg("miner heartbeat")
}

// LatestBlockSeen returns the most recent block observed by syncBlock.
func (m *Miner) LatestBlockSeen() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LatestBlock
}
