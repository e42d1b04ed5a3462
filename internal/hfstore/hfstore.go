// Package hfstore implements the content-addressed dataset store on top of
// the HuggingFace Hub API. Uploads return the commit oid that miners register
// on chain; downloads resolve a pinned revision and keep a gzip mirror in a
// local cache so repeat evaluations of the same content hash skip the network.
package hfstore

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/config"
	"github.com/FLock-io/FLock-subnet/internal/core"
)

// Store talks to the HuggingFace Hub.
type Store struct {
	api      *resty.Client
	download *retryablehttp.Client
	endpoint string
	token    string
	cacheDir string
}

// NewStore creates a hub client from environment configuration.
func NewStore(cfg *config.HuggingfaceEnvConfig) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	api := resty.New().
		SetBaseURL(cfg.HfEndpoint).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetTimeout(60 * time.Second)
	if cfg.HfToken != "" {
		api.SetAuthToken(cfg.HfToken)
	}

	// One bounded retry with short backoff for transient download failures.
	dl := retryablehttp.NewClient()
	dl.RetryMax = 1
	dl.RetryWaitMin = 2 * time.Second
	dl.RetryWaitMax = 10 * time.Second
	dl.HTTPClient.Timeout = 5 * time.Minute
	dl.Logger = nil

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", cfg.CacheDir, err)
	}

	return &Store{
		api:      api,
		download: dl,
		endpoint: strings.TrimRight(cfg.HfEndpoint, "/"),
		token:    cfg.HfToken,
		cacheDir: cfg.CacheDir,
	}, nil
}

// Upload pushes the dataset file to the hub as data.jsonl and returns the
// commit oid of the new revision. The repo is created on first use.
func (s *Store) Upload(ctx context.Context, repoID, localPath string) (string, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read dataset %s: %w", localPath, err)
	}

	if err := s.ensureRepo(ctx, repoID); err != nil {
		return "", err
	}

	header, err := sonic.Marshal(commitOp{Key: "header", Value: commitHeader{Summary: "Upload competition dataset"}})
	if err != nil {
		return "", fmt.Errorf("marshal commit header: %w", err)
	}
	file, err := sonic.Marshal(commitOp{Key: "file", Value: commitFile{
		Content:  base64.StdEncoding.EncodeToString(content),
		Path:     DatasetFileName,
		Encoding: "base64",
	}})
	if err != nil {
		return "", fmt.Errorf("marshal commit file: %w", err)
	}

	var out commitResponse
	resp, err := s.api.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-ndjson").
		SetBody(string(header) + "\n" + string(file)).
		SetResult(&out).
		Post(fmt.Sprintf("/api/datasets/%s/commit/main", repoID))
	if err != nil {
		return "", fmt.Errorf("commit to %s: %w", repoID, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("commit to %s returned status %d: %s", repoID, resp.StatusCode(), resp.String())
	}
	if out.CommitOid == "" {
		return "", fmt.Errorf("commit to %s: hub returned no commit oid", repoID)
	}

	log.Info().Str("repo", repoID).Str("commit", out.CommitOid).Msg("dataset uploaded")
	return out.CommitOid, nil
}

func (s *Store) ensureRepo(ctx context.Context, repoID string) error {
	resp, err := s.api.R().
		SetContext(ctx).
		SetBody(createRepoRequest{Type: "dataset", Name: repoID}).
		Post("/api/repos/create")
	if err != nil {
		return fmt.Errorf("create repo %s: %w", repoID, err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusConflict {
		return fmt.Errorf("create repo %s returned status %d: %s", repoID, resp.StatusCode(), resp.String())
	}
	if resp.StatusCode() == http.StatusConflict {
		log.Debug().Str("repo", repoID).Msg("repo already exists, committing new revision")
	}
	return nil
}

// Download resolves ref into destDir/data.jsonl, serving from the gzip cache
// when the content hash was fetched before.
func (s *Store) Download(ctx context.Context, ref core.ArtifactReference, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create dest dir %s: %w", destDir, err)
	}
	destPath := filepath.Join(destDir, DatasetFileName)

	if err := s.fromCache(ref.ContentHash, destPath); err == nil {
		log.Debug().Str("hash", ref.ContentHash).Msg("dataset served from cache")
		return destPath, nil
	}

	u := fmt.Sprintf("%s/datasets/%s/resolve/%s/%s", s.endpoint, ref.Namespace, ref.ContentHash, DatasetFileName)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.download.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", ref.Compressed(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("download %s: %w", ref.Compressed(), core.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("download %s returned status %d", ref.Compressed(), resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", fmt.Errorf("write %s: %w", destPath, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", destPath, err)
	}

	if err := s.toCache(ref.ContentHash, destPath); err != nil {
		log.Warn().Err(err).Str("hash", ref.ContentHash).Msg("failed to cache dataset")
	}
	return destPath, nil
}

func (s *Store) cachePath(contentHash string) string {
	return filepath.Join(s.cacheDir, contentHash+".jsonl.gz")
}

func (s *Store) fromCache(contentHash, destPath string) error {
	f, err := os.Open(s.cachePath(contentHash))
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, zr); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *Store) toCache(contentHash, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	f, err := os.Create(s.cachePath(contentHash))
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(f)
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
