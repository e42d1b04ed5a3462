package miner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/FLock-io/FLock-subnet/internal/config"
	"github.com/FLock-io/FLock-subnet/internal/core"
	"github.com/FLock-io/FLock-subnet/internal/kami"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	return nil
}

type fakeKami struct {
	mu            sync.Mutex
	commitFails   int // reject this many attempts with an I/O error
	cooldownFails int // reject this many attempts with a cooldown error
	commitments   []kami.SetCommitmentParams
}

func (f *fakeKami) GetMetagraph(int) (kami.SubnetMetagraphResponse, error) {
	return kami.SubnetMetagraphResponse{Success: true}, nil
}

func (f *fakeKami) GetLatestBlock() (kami.LatestBlockResponse, error) {
	return kami.LatestBlockResponse{Success: true, Data: kami.LatestBlock{BlockNumber: 1234}}, nil
}

func (f *fakeKami) GetCommitment(int, string) (kami.CommitmentResponse, error) {
	return kami.CommitmentResponse{Success: true}, nil
}

func (f *fakeKami) SetCommitment(params kami.SetCommitmentParams) (kami.ExtrinsicHashResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cooldownFails > 0 {
		f.cooldownFails--
		return kami.ExtrinsicHashResponse{}, core.ErrCooldownActive
	}
	if f.commitFails > 0 {
		f.commitFails--
		return kami.ExtrinsicHashResponse{}, errors.New("kami unreachable")
	}
	f.commitments = append(f.commitments, params)
	return kami.ExtrinsicHashResponse{Success: true, Data: "0xcommit"}, nil
}

func (f *fakeKami) SetWeights(kami.SetWeightsParams) (kami.ExtrinsicHashResponse, error) {
	return kami.ExtrinsicHashResponse{}, errors.New("miners never set weights")
}

func (f *fakeKami) SignMessage(params kami.SignMessageParams) (kami.SignMessageResponse, error) {
	return kami.SignMessageResponse{Success: true, Data: kami.SignMessage{Signature: "sig"}}, nil
}

func (f *fakeKami) GetKeyringPair() (kami.KeyringPairInfoResponse, error) {
	return kami.KeyringPairInfoResponse{Success: true, Data: kami.KeyringPairInfo{
		KeyringPair: kami.KeyringPair{Address: "miner-hotkey"},
	}}, nil
}

type fakeStore struct {
	oid string
	err error
}

func (f *fakeStore) Upload(context.Context, string, string) (string, error) {
	return f.oid, f.err
}

func (f *fakeStore) Download(context.Context, core.ArtifactReference, string) (string, error) {
	return "", errors.New("miners never download")
}

func testConfig() *config.AppConfig {
	cfg := &config.AppConfig{}
	cfg.Netuid = 271
	cfg.Environment = "test"
	cfg.CompetitionID = "c1"
	cfg.HfRepoID = "org/dataset"
	cfg.DatasetPath = "data.jsonl"
	cfg.CommitRetryWait = 2 * time.Minute
	cfg.MaxCommitAttempts = 5
	return cfg
}

func newTestMiner(t *testing.T, fk *fakeKami, fs *fakeStore, clock *fakeClock) *Miner {
	m, err := NewMiner(testConfig(), fk, fs, WithClock(clock))
	require.NoError(t, err)
	require.Equal(t, "miner-hotkey", m.Hotkey)
	t.Cleanup(m.Stop)
	return m
}

func TestPublish_RegistersUploadedRevision(t *testing.T) {
	fk := &fakeKami{}
	m := newTestMiner(t, fk, &fakeStore{oid: "abc123"}, newFakeClock())

	ref, err := m.Publish(context.Background())
	require.NoError(t, err)
	require.Equal(t, "org/dataset:abc123:c1", ref.Compressed())

	require.Len(t, fk.commitments, 1)
	require.Equal(t, 271, fk.commitments[0].Netuid)
	require.Equal(t, "org/dataset:abc123:c1", fk.commitments[0].Data)

	got, ok := m.Artifact()
	require.True(t, ok)
	require.Equal(t, ref, got)
}

func TestPublish_UploadFailureSkipsChainWrite(t *testing.T) {
	fk := &fakeKami{}
	m := newTestMiner(t, fk, &fakeStore{err: errors.New("hub rejected the file")}, newFakeClock())

	_, err := m.Publish(context.Background())
	require.Error(t, err)
	require.Empty(t, fk.commitments, "nothing is registered without a revision to point at")

	_, ok := m.Artifact()
	require.False(t, ok)
}

func TestPublish_CooldownRetriesOnFixedInterval(t *testing.T) {
	fk := &fakeKami{cooldownFails: 10} // a 20 minute window seen at 2 minute spacing
	clock := newFakeClock()
	m := newTestMiner(t, fk, &fakeStore{oid: "abc123"}, clock)

	_, err := m.Publish(context.Background())
	require.NoError(t, err)

	require.Len(t, clock.slept, 10)
	for _, d := range clock.slept {
		require.Equal(t, 2*time.Minute, d, "cooldown waits never back off")
	}
	require.Len(t, fk.commitments, 1)
}

func TestPublish_AbandonedAfterIoBudget(t *testing.T) {
	fk := &fakeKami{commitFails: 100}
	m := newTestMiner(t, fk, &fakeStore{oid: "abc123"}, newFakeClock())

	_, err := m.Publish(context.Background())
	require.Error(t, err)
	require.Empty(t, fk.commitments)

	_, ok := m.Artifact()
	require.False(t, ok, "an abandoned registration leaves the miner uncommitted")
}

func TestPublish_CanceledContext(t *testing.T) {
	fk := &fakeKami{cooldownFails: 100}
	m := newTestMiner(t, fk, &fakeStore{oid: "abc123"}, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Publish(ctx)
	require.Error(t, err)
}
