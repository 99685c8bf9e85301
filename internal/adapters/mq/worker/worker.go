// Package worker drains the archive queue and writes uploads to storage.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/userstats/internal/adapters/mq/queue"
	"github.com/okian/userstats/internal/adapters/upload"
	"github.com/okian/userstats/pkg/logger"
	"github.com/okian/userstats/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultSaveTimeout      = 10 * time.Second
)

// Saver persists one upload and returns where it went.
type Saver interface {
	Save(ctx context.Context, f upload.File) (string, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// InMemoryWorker saves jobs read from the queue until it is drained.
type InMemoryWorker struct {
	queue       Queue
	saver       Saver
	name        string
	saveTimeout time.Duration
	done        chan struct{}
	logger      logger.Logger

	saved  *atomic.Int64
	failed *atomic.Int64
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, saver Saver, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		saver:       saver,
		name:        "worker",
		saveTimeout: defaultSaveTimeout,
		done:        make(chan struct{}),
		saved:       new(atomic.Int64),
		failed:      new(atomic.Int64),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes jobs until the queue is closed and drained or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, j); err != nil {
				w.failed.Add(1)
				w.logger.Error(logger.WithRequestID(ctx, j.RequestID), "archive failed", logger.Error(err))
				continue
			}
			w.saved.Add(1)
		}
	}
}

// Done is closed once Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordArchiveSaveLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	saveCtx, cancel := context.WithTimeout(ctx, w.saveTimeout)
	defer cancel()

	path, err := w.saver.Save(saveCtx, j.File)
	if err != nil {
		return fmt.Errorf("archive %q: %w", j.File.Name, err)
	}
	w.logger.Debug(logger.WithRequestID(ctx, j.RequestID), "upload archived",
		logger.String("path", path),
		logger.Int("bytes", j.File.Size()),
	)
	return nil
}

// Pool manages multiple workers sharing one queue and counters.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	cancel  context.CancelFunc
	logger  logger.Logger

	saved  atomic.Int64
	failed atomic.Int64
}

// NewPool creates a pool of workerCount workers. A count below one means
// twice the number of CPUs.
func NewPool(workerCount int, q Queue, saver Saver, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("archive-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("archiver-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(q, saver, wopts...)
		w.saved, w.failed = &p.saved, &p.failed
		p.workers[i] = w
	}
	return p
}

// Start launches every worker. The workers outlive the caller's ctx only
// until Shutdown.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateArchiveWorkers(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Saved returns the number of uploads written so far.
func (p *Pool) Saved() int64 { return p.saved.Load() }

// Failed returns the number of uploads that could not be written.
func (p *Pool) Failed() int64 { return p.failed.Load() }

// Shutdown closes the queue, waits for the workers to drain it and gives up
// when ctx expires, cancelling whatever is still in flight.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	defer func() {
		if p.cancel != nil {
			p.cancel()
		}
		metrics.UpdateArchiveWorkers(0)
	}()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "archive worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	return nil
}
