package service

import (
	"github.com/okian/userstats/internal/adapters/repository"
	"github.com/okian/userstats/pkg/logger"
	"github.com/spf13/afero"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSuperuserThreshold sets the minimum score of a superuser.
func WithSuperuserThreshold(threshold float64) Option {
	return func(s *Service) {
		s.threshold = threshold
	}
}

// WithTopCountriesLimit caps the country ranking.
func WithTopCountriesLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.countriesLimit = limit
		}
	}
}

// WithTeamInsightsMode selects "aggregate" or "last_record". The value is
// checked by Start.
func WithTeamInsightsMode(mode string) Option {
	return func(s *Service) {
		s.teamMode = mode
	}
}

// WithStore selects the name store backend and, for bolt, its file.
func WithStore(backend, path string) Option {
	return func(s *Service) {
		if backend != "" {
			s.storeBackend = backend
		}
		s.storePath = path
	}
}

// WithStoreOptions forwards options to the name store constructor.
func WithStoreOptions(opts ...repository.Option) Option {
	return func(s *Service) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// WithUploads enables keeping uploads under dir on fs. A nil fs means the
// OS filesystem.
func WithUploads(fs afero.Fs, dir string) Option {
	return func(s *Service) {
		s.keepUploads = true
		s.fs = fs
		s.uploadDir = dir
	}
}

// WithArchive sizes the background upload archiver.
func WithArchive(workers, queueSize int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.archiveWorkers = workers
		}
		if queueSize > 0 {
			s.archiveQueueSize = queueSize
		}
	}
}
