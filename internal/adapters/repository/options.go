// Package repository holds the accumulating name-frequency store.
package repository

import (
	"os"
	"time"
)

// Default store configuration constants.
const (
	defaultOpenTimeout = time.Second
	defaultFileMode    = os.FileMode(0o600)
	defaultBucket      = "name_frequency"
)

type options struct {
	openTimeout time.Duration
	fileMode    os.FileMode
	bucket      string
	seed        map[string]int
}

func newOptions(opts []Option) options {
	o := options{
		openTimeout: defaultOpenTimeout,
		fileMode:    defaultFileMode,
		bucket:      defaultBucket,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithOpenTimeout bounds how long the bolt backend waits for the file lock.
func WithOpenTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.openTimeout = d
		}
	}
}

// WithFileMode sets the permissions of a newly created bolt file.
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		if mode != 0 {
			o.fileMode = mode
		}
	}
}

// WithBucket sets the bolt bucket holding the counts.
func WithBucket(name string) Option {
	return func(o *options) {
		if name != "" {
			o.bucket = name
		}
	}
}

// WithSeed preloads counts into a memory store. The bolt backend ignores it.
func WithSeed(counts map[string]int) Option {
	return func(o *options) {
		o.seed = counts
	}
}
