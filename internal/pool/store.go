package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"poolEngine/internal/model"
)

// Store persists pool records keyed by pool address (hex).
type Store interface {
	LoadPool(ctx context.Context, address string) (model.Pool, bool, error)
	SavePool(ctx context.Context, pool model.Pool) error
	ListPools(ctx context.Context) ([]model.Pool, error)
}

// MemoryStore keeps pools in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	pools map[string]model.Pool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pools: make(map[string]model.Pool)}
}

func (s *MemoryStore) LoadPool(_ context.Context, address string) (model.Pool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[address]
	return p, ok, nil
}

func (s *MemoryStore) SavePool(_ context.Context, pool model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[pool.Address] = pool
	return nil
}

func (s *MemoryStore) ListPools(_ context.Context) ([]model.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedPools(s.pools), nil
}

// FileStore keeps every pool in one JSON file, rewritten on each save.
type FileStore struct {
	Path string

	mu sync.Mutex
}

type poolsFile struct {
	Pools     []model.Pool `json:"pools"`
	UpdatedAt string       `json:"updated_at"`
}

func (s *FileStore) LoadPool(_ context.Context, address string) (model.Pool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pools, err := s.read()
	if err != nil {
		return model.Pool{}, false, err
	}
	p, ok := pools[address]
	return p, ok, nil
}

func (s *FileStore) SavePool(_ context.Context, pool model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pools, err := s.read()
	if err != nil {
		return err
	}
	pools[pool.Address] = pool
	return s.write(pools)
}

func (s *FileStore) ListPools(_ context.Context) ([]model.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pools, err := s.read()
	if err != nil {
		return nil, err
	}
	return sortedPools(pools), nil
}

func (s *FileStore) read() (map[string]model.Pool, error) {
	pools := make(map[string]model.Pool)
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return pools, nil
		}
		return nil, fmt.Errorf("read pools: %w", err)
	}

	var file poolsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse pools: %w", err)
	}
	for _, p := range file.Pools {
		pools[p.Address] = p
	}
	return pools, nil
}

func (s *FileStore) write(pools map[string]model.Pool) error {
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create pools dir: %w", err)
		}
	}

	file := poolsFile{
		Pools:     sortedPools(pools),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pools: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write pools tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename pools: %w", err)
	}
	return nil
}

func sortedPools(pools map[string]model.Pool) []model.Pool {
	out := make([]model.Pool, 0, len(pools))
	for _, p := range pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}
