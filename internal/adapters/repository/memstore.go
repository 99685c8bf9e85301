package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/userstats/pkg/metrics"
)

// MemoryStore keeps the counts in a map guarded by a single RWMutex.
type MemoryStore struct {
	mu     sync.RWMutex
	counts map[string]int
	total  int
	closed bool
}

// NewMemoryStore creates an empty (or WithSeed-preloaded) in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := newOptions(opts)
	s := &MemoryStore{counts: make(map[string]int, len(o.seed))}
	for name, c := range o.seed {
		if name == "" || c <= 0 {
			continue
		}
		s.counts[name] = c
		s.total += c
	}
	return s
}

// IncrementAll adds one per entry of names under the write lock.
func (s *MemoryStore) IncrementAll(ctx context.Context, names []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("increment names: %w", err)
	}
	start := time.Now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	for _, name := range names {
		s.counts[name]++
	}
	s.total += len(names)
	size := len(s.counts)
	s.mu.Unlock()

	metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateNameStoreSize(size)
	return nil
}

// Lookup returns the count and rank of name.
func (s *MemoryStore) Lookup(ctx context.Context, name string) (NameCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.counts, name)
}

// TopN returns the n most frequent names.
func (s *MemoryStore) TopN(ctx context.Context, n int) ([]NameCount, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return topN(s.counts, n)
}

// Len returns the number of distinct names.
func (s *MemoryStore) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counts)
}

// Total returns the sum of all counts.
func (s *MemoryStore) Total(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// Close marks the store closed; later increments fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
