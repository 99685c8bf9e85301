package api

import "time"

const (
	defaultMaxUploadBytes = 32 << 20
	defaultMaxNamesLimit  = 100
	defaultRequestTimeout = 30 * time.Second
)

type options struct {
	maxUploadBytes int64
	maxNamesLimit  int
	requestTimeout time.Duration
	now            func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		maxUploadBytes: defaultMaxUploadBytes,
		maxNamesLimit:  defaultMaxNamesLimit,
		requestTimeout: defaultRequestTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures the API server.
type Option func(*options)

// WithMaxUploadBytes caps the size of multipart request bodies.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// WithMaxNamesLimit bounds the limit accepted by GET /names.
func WithMaxNamesLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxNamesLimit = n
		}
	}
}

// WithRequestTimeout sets the deadline applied to each request context.
// Zero disables the deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.requestTimeout = d
		}
	}
}

// WithClock replaces the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
