package insights

import "github.com/okian/userstats/pkg/logger"

// Default engine configuration constants.
const (
	DefaultSuperuserThreshold = 900
	DefaultTopCountriesLimit  = 5
	defaultCheckInterval      = 1024
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithSuperuserThreshold sets the minimum score of a qualifying user.
func WithSuperuserThreshold(threshold float64) Option {
	return func(e *Engine) {
		e.threshold = threshold
	}
}

// WithTopCountriesLimit caps the length of the country ranking.
func WithTopCountriesLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.topLimit = limit
		}
	}
}

// WithTeamMode selects how TeamInsights accumulates completed projects.
func WithTeamMode(mode TeamMode) Option {
	return func(e *Engine) {
		if mode.Valid() {
			e.teamMode = mode
		}
	}
}

// WithCheckInterval sets how many records are processed between context checks.
func WithCheckInterval(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.checkEvery = n
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
