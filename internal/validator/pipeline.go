package validator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/core"
	"github.com/FLock-io/FLock-subnet/internal/trainer"
)

// evaluateRecord drives one miner through download and scoring. The record
// leaves this function terminal on every path.
func (v *Validator) evaluateRecord(ctx context.Context, rec *core.EvalRecord, evalDataPath string, headers trainer.AuthHeaders) {
	if ctx.Err() != nil {
		rec.MarkFailed(core.ReasonCycleDeadline)
		return
	}

	uid := rec.Participant.UID
	destDir := v.minerDataDir(uid)

	dataPath, err := v.Store.Download(ctx, *rec.Artifact, destDir)
	if err != nil {
		// The store already spent its one bounded retry; the miner had data
		// we could not retrieve, which is a failure, not a skip.
		log.Warn().Err(err).Int("uid", uid).Msg("dataset download failed")
		rec.MarkFailed(core.ReasonDownloadFailed)
		return
	}

	log.Info().Int("uid", uid).Str("hash", rec.Artifact.ContentHash).Msg("scoring dataset")
	loss, err := v.Trainer.Evaluate(ctx, headers, trainer.EvaluateRequest{
		DataPath:     dataPath,
		EvalDataPath: evalDataPath,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			rec.MarkFailed(core.ReasonCycleDeadline)
			return
		}
		log.Warn().Err(err).Int("uid", uid).Msg("scoring failed")
		rec.MarkFailed(core.ReasonScoringFailed)
		return
	}

	log.Info().Int("uid", uid).Float64("loss", loss).Msg("dataset scored")
	rec.MarkScored(loss)
}

// ensureEvalData downloads the pinned evaluation dataset once per process.
// Every cycle scores against the same fixed revision.
func (v *Validator) ensureEvalData(ctx context.Context) (string, error) {
	if v.evalDataReady.Load() {
		return v.evalDataPath, nil
	}

	ref := core.ArtifactReference{
		Namespace:     v.Config.EvalNamespace,
		ContentHash:   v.Config.EvalCommit,
		CompetitionID: v.Config.CompetitionID,
	}
	destDir := filepath.Join(v.Config.DataDir, evalDirName)

	path, err := v.Store.Download(ctx, ref, destDir)
	if err != nil {
		return "", fmt.Errorf("download evaluation dataset %s: %w", ref.Compressed(), err)
	}

	v.evalDataPath = path
	v.evalDataReady.Store(true)
	log.Info().Str("path", path).Str("commit", ref.ContentHash).Msg("evaluation dataset ready")
	return path, nil
}
