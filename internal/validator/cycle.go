package validator

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/core"
	"github.com/FLock-io/FLock-subnet/internal/ranking"
)

// runCycle executes one full pass: select, evaluate, rank, hand off weights.
// Per-miner failures are contained to their EvalRecord; only a missing
// evaluation dataset aborts the cycle, and that self-heals on the next one.
func (v *Validator) runCycle() {
	started := time.Now()
	cycle := v.cycle
	v.cycle++

	ctx, cancel := context.WithTimeout(v.Ctx, v.Config.CycleTimeout)
	defer cancel()

	active := v.snapshotParticipants()
	if len(active) == 0 {
		log.Info().Uint64("cycle", cycle).Msg("no active miners, skipping cycle")
		return
	}

	selected, err := v.Queue.Select(ctx, active, v.Config.EvalCapacity, cycle)
	if err != nil {
		log.Error().Err(err).Uint64("cycle", cycle).Msg("selection failed, skipping cycle")
		return
	}
	log.Info().Uint64("cycle", cycle).Int("selected", len(selected)).Int("active", len(active)).Msg("cycle started")

	records := v.fetchReferences(ctx, selected)
	v.resolveDuplicates(records)

	evalDataPath, err := v.ensureEvalData(ctx)
	if err != nil {
		log.Error().Err(err).Uint64("cycle", cycle).Msg("evaluation dataset unavailable, aborting cycle")
		return
	}

	v.scoreRecords(ctx, records, evalDataPath)

	weights := ranking.Compute(records)
	v.enqueueWeights(weights)

	log.Info().
		Uint64("cycle", cycle).
		Int("scored", countStatus(records, core.StatusScored)).
		Int("failed", countStatus(records, core.StatusFailed)).
		Int("skipped", countStatus(records, core.StatusSkipped)).
		Dur("elapsed", time.Since(started)).
		Msg("cycle complete")
}

// fetchReferences resolves each selected miner's on-chain commitment into an
// artifact reference. Miners with no usable commitment are skipped here and
// never reach scoring; a commitment we could not read marks the record failed
// instead, since the miner may well have committed.
func (v *Validator) fetchReferences(ctx context.Context, selected []core.Participant) []*core.EvalRecord {
	records := make([]*core.EvalRecord, 0, len(selected))
	for _, p := range selected {
		rec := core.NewEvalRecord(p)
		records = append(records, rec)

		if ctx.Err() != nil {
			rec.MarkFailed(core.ReasonCycleDeadline)
			continue
		}

		resp, err := v.Kami.GetCommitment(v.Config.Netuid, p.Hotkey)
		if err != nil {
			// A chain read error is not evidence the miner never committed.
			log.Warn().Err(err).Int("uid", p.UID).Msg("could not read commitment")
			rec.MarkFailed(core.ReasonCommitmentReadFailed)
			continue
		}
		if resp.Data.Data == "" {
			rec.MarkSkipped(core.ReasonNoCommitment)
			continue
		}

		ref, err := core.ParseArtifactReference(resp.Data.Data)
		if err != nil {
			log.Warn().Err(err).Int("uid", p.UID).Msg("unparseable commitment")
			rec.MarkSkipped(core.ReasonMalformedArtifact)
			continue
		}
		if ref.CompetitionID != v.Config.CompetitionID {
			log.Warn().Int("uid", p.UID).Str("competition", ref.CompetitionID).Msg("commitment for wrong competition")
			rec.MarkSkipped(core.ReasonMalformedArtifact)
			continue
		}
		rec.Artifact = &ref
	}
	return records
}

// resolveDuplicates enforces the one-weight-per-content rule before any
// scoring happens: among records sharing a content hash, the earliest
// registered participant keeps its shot, ties break by UID, and everyone
// else is skipped. Resolving up front keeps the scoring phase free of shared
// mutable state and makes the outcome independent of worker timing.
func (v *Validator) resolveDuplicates(records []*core.EvalRecord) {
	byHash := make(map[string][]*core.EvalRecord)
	for _, rec := range records {
		if rec.Terminal() || rec.Artifact == nil {
			continue
		}
		byHash[rec.Artifact.ContentHash] = append(byHash[rec.Artifact.ContentHash], rec)
	}

	for hash, group := range byHash {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			pi, pj := group[i].Participant, group[j].Participant
			if pi.RegistrationBlock != pj.RegistrationBlock {
				return pi.RegistrationBlock < pj.RegistrationBlock
			}
			return pi.UID < pj.UID
		})
		for _, rec := range group[1:] {
			log.Info().Int("uid", rec.Participant.UID).Str("hash", hash).
				Int("winnerUid", group[0].Participant.UID).Msg("duplicate dataset content, skipping")
			rec.MarkSkipped(core.ReasonDuplicateContent)
		}
	}
}

// scoreRecords runs download and scoring for every still-pending record on a
// bounded worker pool and blocks until each record is terminal. Records the
// deadline catches mid-flight or still queued come out Failed.
func (v *Validator) scoreRecords(ctx context.Context, records []*core.EvalRecord, evalDataPath string) {
	headers, err := v.setupAuthHeaders()
	if err != nil {
		log.Error().Err(err).Msg("failed to set up trainer auth, failing remaining records")
		for _, rec := range records {
			rec.MarkFailed(core.ReasonScoringFailed)
		}
		return
	}

	sem := make(chan struct{}, v.Config.EvalWorkers)
	var wg sync.WaitGroup
	for _, rec := range records {
		if rec.Terminal() {
			continue
		}
		wg.Add(1)
		go func(rec *core.EvalRecord) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				rec.MarkFailed(core.ReasonCycleDeadline)
				return
			}
			v.evaluateRecord(ctx, rec, evalDataPath, headers)
		}(rec)
	}
	wg.Wait()

	// Barrier invariant: every dispatched record is terminal before ranking.
	for _, rec := range records {
		rec.MarkFailed(core.ReasonCycleDeadline)
	}
}

func countStatus(records []*core.EvalRecord, status core.EvalStatus) int {
	n := 0
	for _, rec := range records {
		if rec.Status == status {
			n++
		}
	}
	return n
}

func (v *Validator) minerDataDir(uid int) string {
	return filepath.Join(v.Config.DataDir, fmt.Sprintf("miner_%d", uid))
}
