package evalqueue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/FLock-io/FLock-subnet/internal/utils/redis"
)

// Store persists the rotation cursors: hotkey -> cycle at which the
// participant was last offered for evaluation. Cursors are keyed by hotkey
// rather than UID so that a recycled UID starts over at highest priority.
type Store interface {
	Load(ctx context.Context) (map[string]uint64, error)
	// Update merges the given cursors into the persisted state.
	Update(ctx context.Context, cursors map[string]uint64) error
}

// MemoryStore keeps cursors in process memory. Used in tests and as the
// fallback of last resort when neither Redis nor the state file is available.
type MemoryStore struct {
	mu      sync.Mutex
	cursors map[string]uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cursors: make(map[string]uint64)}
}

func (s *MemoryStore) Load(_ context.Context) (map[string]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]uint64, len(s.cursors))
	for k, v := range s.cursors {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, cursors map[string]uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range cursors {
		s.cursors[k] = v
	}
	return nil
}

// FileStore persists cursors as a JSON object on disk, written atomically via
// rename so a crash mid-write never truncates the state.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create queue state dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load(_ context.Context) (map[string]uint64, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]uint64{}, nil
		}
		return nil, fmt.Errorf("read queue state %s: %w", s.path, err)
	}
	cursors := make(map[string]uint64)
	if err := sonic.Unmarshal(raw, &cursors); err != nil {
		return nil, fmt.Errorf("unmarshal queue state %s: %w", s.path, err)
	}
	return cursors, nil
}

func (s *FileStore) Update(ctx context.Context, cursors map[string]uint64) error {
	merged, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for k, v := range cursors {
		merged[k] = v
	}
	raw, err := sonic.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshal queue state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write queue state: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// RedisStore persists cursors in a Redis hash.
type RedisStore struct {
	client redis.RedisInterface
	key    string
}

func NewRedisStore(client redis.RedisInterface, netuid int) *RedisStore {
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("validator:%d:queue_cursor", netuid),
	}
}

func (s *RedisStore) Load(ctx context.Context) (map[string]uint64, error) {
	fields, err := s.client.HGetAll(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load queue cursors: %w", err)
	}
	cursors := make(map[string]uint64, len(fields))
	for hotkey, raw := range fields {
		cycle, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt cursor for %s: %w", hotkey, err)
		}
		cursors[hotkey] = cycle
	}
	return cursors, nil
}

func (s *RedisStore) Update(ctx context.Context, cursors map[string]uint64) error {
	fields := make(map[string]string, len(cursors))
	for hotkey, cycle := range cursors {
		fields[hotkey] = strconv.FormatUint(cycle, 10)
	}
	if err := s.client.HSetMulti(ctx, s.key, fields); err != nil {
		return fmt.Errorf("update queue cursors: %w", err)
	}
	return nil
}
