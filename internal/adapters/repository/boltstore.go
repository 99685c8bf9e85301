package repository

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"github.com/okian/userstats/pkg/metrics"
)

// totalKey lives in its own bucket so it never shows up as a name.
var (
	metaBucket = []byte("meta")
	totalKey   = []byte("total")
)

// BoltStore persists the counts in a bbolt file so they survive restarts.
// bbolt allows a single writer at a time, which serializes IncrementAll.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBoltStore opens (or creates) the bolt file at path.
func OpenBoltStore(ctx context.Context, path string, opts ...Option) (*BoltStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	if path == "" {
		return nil, errors.New("open bolt store: empty path")
	}
	o := newOptions(opts)

	db, err := bolt.Open(path, o.fileMode, &bolt.Options{Timeout: o.openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	s := &BoltStore{db: db, bucket: []byte(o.bucket)}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(s.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bolt buckets: %w", err)
	}

	metrics.UpdateNameStoreSize(s.Len(ctx))
	return s, nil
}

// IncrementAll applies the whole batch in one read-write transaction.
func (s *BoltStore) IncrementAll(ctx context.Context, names []string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("increment names: %w", err)
	}
	start := time.Now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, name := range names {
			key := []byte(name)
			n, err := decodeCount(b.Get(key))
			if err != nil {
				return fmt.Errorf("%q: %w", name, err)
			}
			if err := b.Put(key, encodeCount(n+1)); err != nil {
				return err
			}
		}
		meta := tx.Bucket(metaBucket)
		total, err := decodeCount(meta.Get(totalKey))
		if err != nil {
			return fmt.Errorf("total: %w", err)
		}
		return meta.Put(totalKey, encodeCount(total+uint64(len(names))))
	})
	if err != nil {
		if errors.Is(err, berrors.ErrDatabaseNotOpen) {
			return ErrClosed
		}
		return fmt.Errorf("increment names: %w", err)
	}

	metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateNameStoreSize(s.Len(ctx))
	return nil
}

// Lookup returns the count and rank of name.
func (s *BoltStore) Lookup(ctx context.Context, name string) (NameCount, error) {
	counts, err := s.snapshot()
	if err != nil {
		return NameCount{}, err
	}
	return lookup(counts, name)
}

// TopN returns the n most frequent names.
func (s *BoltStore) TopN(ctx context.Context, n int) ([]NameCount, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	counts, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return topN(counts, n)
}

// Len returns the number of distinct names, or 0 if the file cannot be read.
func (s *BoltStore) Len(ctx context.Context) int {
	var n int
	_ = s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return n
}

// Total returns the sum of all counts, or 0 if the file cannot be read.
func (s *BoltStore) Total(ctx context.Context) int {
	var total uint64
	_ = s.db.View(func(tx *bolt.Tx) error {
		var err error
		total, err = decodeCount(tx.Bucket(metaBucket).Get(totalKey))
		return err
	})
	return int(total)
}

// Close releases the bolt file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) snapshot() (map[string]int, error) {
	counts := make(map[string]int)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			n, err := decodeCount(v)
			if err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
			counts[string(k)] = int(n)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, berrors.ErrDatabaseNotOpen) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("read name counts: %w", err)
	}
	return counts, nil
}

func encodeCount(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// decodeCount reads a stored count; a missing value is zero.
func decodeCount(b []byte) (uint64, error) {
	if b == nil {
		return 0, nil
	}
	if len(b) != 8 {
		return 0, ErrCorruptCount
	}
	return binary.BigEndian.Uint64(b), nil
}
