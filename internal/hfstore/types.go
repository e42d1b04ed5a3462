package hfstore

import (
	"context"

	"github.com/FLock-io/FLock-subnet/internal/core"
)

// Interface is the artifact store surface consumed by the miner and the
// validator pipeline.
type Interface interface {
	// Upload pushes a local dataset file to the repo and returns the commit
	// oid identifying the new revision.
	Upload(ctx context.Context, repoID, localPath string) (string, error)

	// Download fetches the dataset revision named by ref into destDir and
	// returns the path of the dataset file. A missing revision surfaces as
	// core.ErrNotFound.
	Download(ctx context.Context, ref core.ArtifactReference, destDir string) (string, error)
}

var _ Interface = (*Store)(nil)

// DatasetFileName is the canonical file name every competition dataset uses,
// both in the hub repo and on disk.
const DatasetFileName = "data.jsonl"

type commitHeader struct {
	Summary string `json:"summary"`
}

type commitFile struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
}

type commitOp struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type commitResponse struct {
	CommitURL string `json:"commitUrl"`
	CommitOid string `json:"commitOid"`
}

type createRepoRequest struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Private bool   `json:"private"`
}
