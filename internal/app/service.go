// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/userstats/internal/adapters/mq/queue"
	"github.com/okian/userstats/internal/adapters/mq/worker"
	"github.com/okian/userstats/internal/adapters/repository"
	"github.com/okian/userstats/internal/adapters/upload"
	"github.com/okian/userstats/internal/domain/insights"
	"github.com/okian/userstats/internal/domain/record"
	"github.com/okian/userstats/pkg/logger"
	"github.com/okian/userstats/pkg/metrics"
	"github.com/spf13/afero"
)

const (
	defaultArchiveWorkers   = 2
	defaultArchiveQueueSize = 256
	shutdownTimeout         = 10 * time.Second
)

// Service implements the API dependencies for the user statistics system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	engine  *insights.Engine
	storage *upload.Storage
	archive *queue.InMemoryQueue
	pool    *worker.Pool

	// Configuration
	threshold        float64
	countriesLimit   int
	teamMode         string
	storeBackend     string
	storePath        string
	storeOpts        []repository.Option
	keepUploads      bool
	fs               afero.Fs
	uploadDir        string
	archiveWorkers   int
	archiveQueueSize int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		threshold:        insights.DefaultSuperuserThreshold,
		countriesLimit:   insights.DefaultTopCountriesLimit,
		teamMode:         string(insights.TeamModeAggregate),
		storeBackend:     repository.BackendMemory,
		archiveWorkers:   defaultArchiveWorkers,
		archiveQueueSize: defaultArchiveQueueSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the name store and builds the engine and upload archiver.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	mode, err := insights.ParseTeamMode(s.teamMode)
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	s.logger.Info(ctx, "starting userstats service...")

	store, err := repository.Open(ctx, s.storeBackend, s.storePath, s.storeOpts...)
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	s.store = store
	s.engine = insights.NewEngine(store,
		insights.WithSuperuserThreshold(s.threshold),
		insights.WithTopCountriesLimit(s.countriesLimit),
		insights.WithTeamMode(mode),
		insights.WithLogger(s.logger.Named("insights")),
	)

	if s.keepUploads {
		s.storage = upload.NewStorage(s.fs, s.uploadDir)
		s.archive = queue.NewInMemoryQueue(queue.WithCapacity(s.archiveQueueSize))
		s.pool = worker.NewPool(s.archiveWorkers, s.archive, s.storage)
		s.pool.Start(ctx)
	}

	s.started = true
	metrics.UpdateNameStoreSize(store.Len(ctx))
	s.logger.Info(ctx, "userstats service started",
		logger.String("store", s.storeBackend),
		logger.String("teamMode", string(mode)),
		logger.Float64("threshold", s.threshold),
		logger.Bool("keepUploads", s.keepUploads),
		logger.Int("names", store.Len(ctx)),
	)
	return nil
}

// Stop drains the archiver and closes the name store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping userstats service...")

	if s.pool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		if err := s.pool.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "archive shutdown incomplete", logger.Error(err))
		}
		cancel()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "error closing name store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "userstats service stopped")
}

// CountNames adds the names of an uploaded batch to the running tally and
// returns how many records contributed.
func (s *Service) CountNames(ctx context.Context, f upload.File) (int, error) {
	var n int
	err := s.run(ctx, insights.OpCountNames, f, func(e *insights.Engine, records []record.UserRecord) error {
		var err error
		if n, err = e.CountNames(ctx, records); err != nil {
			return err
		}
		metrics.UpdateNameStoreSize(s.store.Len(ctx))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Superusers returns the records of f whose score meets the threshold.
func (s *Service) Superusers(ctx context.Context, f upload.File) ([]record.UserRecord, error) {
	var out []record.UserRecord
	err := s.run(ctx, insights.OpFilterSuperusers, f, func(e *insights.Engine, records []record.UserRecord) error {
		var err error
		out, err = e.FilterSuperusers(ctx, records)
		return err
	})
	return out, err
}

// TopCountries ranks the countries of the superusers in f.
func (s *Service) TopCountries(ctx context.Context, f upload.File) ([]insights.CountryTotal, error) {
	var out []insights.CountryTotal
	err := s.run(ctx, insights.OpTopCountries, f, func(e *insights.Engine, records []record.UserRecord) error {
		var err error
		out, err = e.TopCountries(ctx, records)
		return err
	})
	return out, err
}

// TeamInsights sums completed projects per team in f.
func (s *Service) TeamInsights(ctx context.Context, f upload.File) ([]insights.TeamTotal, error) {
	var out []insights.TeamTotal
	err := s.run(ctx, insights.OpTeamInsights, f, func(e *insights.Engine, records []record.UserRecord) error {
		var err error
		out, err = e.TeamInsights(ctx, records)
		return err
	})
	return out, err
}

// TopNames returns the n most frequent names seen so far.
func (s *Service) TopNames(ctx context.Context, n int) ([]repository.NameCount, error) {
	store, err := s.nameStore()
	if err != nil {
		return nil, err
	}
	return store.TopN(ctx, n)
}

// LookupName returns the accumulated entry for name after normalizing it.
func (s *Service) LookupName(ctx context.Context, name string) (repository.NameCount, error) {
	store, err := s.nameStore()
	if err != nil {
		return repository.NameCount{}, err
	}
	return store.Lookup(ctx, record.NormalizeName(name))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":           s.started,
		"storeBackend":      s.storeBackend,
		"teamInsightsMode":  s.teamMode,
		"threshold":         s.threshold,
		"topCountriesLimit": s.countriesLimit,
		"keepUploads":       s.keepUploads,
	}
	if s.started {
		ctx := context.Background()
		distinct := s.store.Len(ctx)
		stats["distinctNames"] = distinct
		stats["totalNames"] = s.store.Total(ctx)
		metrics.UpdateNameStoreSize(distinct)
		if s.pool != nil {
			stats["archiveQueueLength"] = s.archive.Len(ctx)
			stats["archiveWorkers"] = s.pool.Size()
			stats["uploadsArchived"] = s.pool.Saved()
			stats["uploadsArchiveFailed"] = s.pool.Failed()
		}
	}
	return stats
}

type engineFunc func(e *insights.Engine, records []record.UserRecord) error

// run archives f, decodes it and hands the records to fn, recording the
// report metrics of op.
func (s *Service) run(ctx context.Context, op string, f upload.File, fn engineFunc) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}

	start := time.Now()
	err := s.decodeAndApply(ctx, f, fn)
	metrics.RecordReportLatency(op, float64(time.Since(start).Microseconds())/1000)

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, record.ErrDecode):
		outcome = "decode_error"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		outcome = "cancelled"
	default:
		outcome = "error"
	}
	metrics.RecordReport(op, outcome)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) decodeAndApply(ctx context.Context, f upload.File, fn engineFunc) error {
	s.keep(ctx, f)

	records, err := record.Decode(ctx, f.Data)
	if err != nil {
		var de *record.DecodeError
		if errors.As(err, &de) {
			metrics.RecordDecodeError(strings.ReplaceAll(de.Reason, " ", "_"))
		}
		return err
	}
	metrics.RecordRecordsDecoded(len(records))
	return fn(s.engine, records)
}

// keep hands f to the archiver. A full queue falls back to an inline write
// so no kept upload is lost; archive errors never fail the request.
func (s *Service) keep(ctx context.Context, f upload.File) {
	if !s.keepUploads {
		return
	}
	if s.archive.Enqueue(ctx, queue.Job{RequestID: logger.RequestID(ctx), File: f}) {
		return
	}
	if _, err := s.storage.Save(ctx, f); err != nil {
		s.logger.Warn(ctx, "upload not kept", logger.String("file", f.Name), logger.Error(err))
	}
}

func (s *Service) nameStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}
