// Package core holds the shared data model for the dataset competition:
// participants mirrored from the metagraph, artifact references committed
// on-chain, per-cycle evaluation records and the resulting weight vector.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain error sentinels shared across the chain, store and committer layers.
var (
	// ErrCooldownActive marks a ledger write rejected because the chain
	// enforces a minimum interval between writes from the same identity.
	ErrCooldownActive = errors.New("chain write rejected: cooldown active")

	// ErrNotFound marks an artifact revision that does not exist in the store.
	ErrNotFound = errors.New("artifact not found")
)

// Participant is a registered identity on the subnet, mirrored read-only from
// the metagraph each cycle.
type Participant struct {
	UID               int    `json:"uid"`
	Hotkey            string `json:"hotkey"`
	RegistrationBlock int64  `json:"registrationBlock"`
}

// ArtifactReference identifies one immutable dataset version. Two references
// with the same ContentHash are duplicates regardless of namespace.
type ArtifactReference struct {
	Namespace     string `json:"namespace"`
	ContentHash   string `json:"contentHash"`
	CompetitionID string `json:"competitionId"`
}

// Compressed renders the reference in the chain commitment encoding.
func (a ArtifactReference) Compressed() string {
	return fmt.Sprintf("%s:%s:%s", a.Namespace, a.ContentHash, a.CompetitionID)
}

// ParseArtifactReference decodes a chain commitment string. The namespace may
// contain a slash (org/repo) but never a colon.
func ParseArtifactReference(commitment string) (ArtifactReference, error) {
	parts := strings.Split(commitment, ":")
	if len(parts) != 3 {
		return ArtifactReference{}, fmt.Errorf("malformed commitment %q: expected 3 colon-separated fields, got %d", commitment, len(parts))
	}
	for i, p := range parts {
		if p == "" {
			return ArtifactReference{}, fmt.Errorf("malformed commitment %q: field %d is empty", commitment, i)
		}
	}
	return ArtifactReference{
		Namespace:     parts[0],
		ContentHash:   parts[1],
		CompetitionID: parts[2],
	}, nil
}

// EvalStatus is the terminal state of one evaluation attempt.
type EvalStatus string

const (
	StatusPending EvalStatus = "pending"
	StatusScored  EvalStatus = "scored"
	StatusFailed  EvalStatus = "failed"
	StatusSkipped EvalStatus = "skipped"
)

// Skip and failure reasons recorded on EvalRecord for audit.
const (
	ReasonNoCommitment         = "no commitment on chain"
	ReasonCommitmentReadFailed = "commitment read failed"
	ReasonMalformedArtifact    = "malformed artifact reference"
	ReasonDuplicateContent     = "duplicate dataset content"
	ReasonDownloadFailed       = "dataset download failed"
	ReasonScoringFailed        = "scoring failed"
	ReasonCycleDeadline        = "cycle deadline reached"
)

// EvalRecord is the outcome of evaluating one participant in one cycle.
// The terminal status is set exactly once; later transitions are ignored.
type EvalRecord struct {
	Participant Participant        `json:"participant"`
	Artifact    *ArtifactReference `json:"artifact,omitempty"`
	Score       float64            `json:"score"`
	Status      EvalStatus         `json:"status"`
	Reason      string             `json:"reason,omitempty"`
}

// NewEvalRecord creates a pending record for a selected participant.
func NewEvalRecord(p Participant) *EvalRecord {
	return &EvalRecord{Participant: p, Status: StatusPending}
}

// Terminal reports whether the record has reached a terminal status.
func (r *EvalRecord) Terminal() bool {
	return r.Status != StatusPending
}

// MarkScored records a successful evaluation. No-op once terminal.
func (r *EvalRecord) MarkScored(loss float64) {
	if r.Terminal() {
		return
	}
	r.Status = StatusScored
	r.Score = loss
}

// MarkFailed records an evaluation failure. No-op once terminal.
func (r *EvalRecord) MarkFailed(reason string) {
	if r.Terminal() {
		return
	}
	r.Status = StatusFailed
	r.Reason = reason
}

// MarkSkipped records that scoring was never attempted. No-op once terminal.
func (r *EvalRecord) MarkSkipped(reason string) {
	if r.Terminal() {
		return
	}
	r.Status = StatusSkipped
	r.Reason = reason
}

// WeightVector maps participant UID to a non-negative weight. A valid vector
// sums to 1, except the all-zero vector produced when nothing scored.
type WeightVector map[int]float64
