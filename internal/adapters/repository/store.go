// Package repository holds the accumulating name-frequency store.
//
// The store outlives every upload: each CountNames call adds to the counts
// left by earlier calls, and nothing ever resets or evicts them. Counts are
// keyed by normalized name; normalization is the caller's job.
package repository

import (
	"context"
	"fmt"
	"sort"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
)

// NameCount is one row of the name ranking.
type NameCount struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Store provides read/write access to the accumulated name counts.
type Store interface {
	// IncrementAll adds one to the count of every entry in names (a name
	// listed twice is incremented twice). The whole batch is applied in one
	// critical section: concurrent callers never observe or lose a partial batch.
	IncrementAll(ctx context.Context, names []string) error

	// Lookup returns the count and rank of name.
	// Returns ErrNotFound if the name was never counted.
	Lookup(ctx context.Context, name string) (NameCount, error)

	// TopN returns the n most frequent names ordered by count desc, name asc.
	TopN(ctx context.Context, n int) ([]NameCount, error)

	// Len returns the number of distinct names tracked.
	Len(ctx context.Context) int

	// Total returns the sum of all counts.
	Total(ctx context.Context) int

	Close() error
}

// Open builds the store selected by backend. path is only used by the bolt backend.
func Open(ctx context.Context, backend, path string, opts ...Option) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(opts...), nil
	case BackendBolt:
		return OpenBoltStore(ctx, path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// rank orders counts by count desc, then name asc, and assigns 1-based ranks.
func rank(counts map[string]int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, NameCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func lookup(counts map[string]int, name string) (NameCount, error) {
	c, ok := counts[name]
	if !ok {
		return NameCount{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	// Rank is 1 + the number of names ordered before this one.
	r := 1
	for other, oc := range counts {
		if oc > c || (oc == c && other < name) {
			r++
		}
	}
	return NameCount{Rank: r, Name: name, Count: c}, nil
}

func topN(counts map[string]int, n int) ([]NameCount, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	ranked := rank(counts)
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}
