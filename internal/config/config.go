// Package config defines service configuration and its loading from
// defaults, an optional YAML file and environment variables.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// UploadDir is where received upload files are kept.
	UploadDir string `koanf:"upload_dir"`

	// KeepUploads controls whether uploads are written to UploadDir at all.
	KeepUploads bool `koanf:"keep_uploads"`

	// ArchiveWorkers is the number of goroutines writing kept uploads.
	ArchiveWorkers int `koanf:"archive_workers"`

	// ArchiveQueueSize bounds uploads waiting to be written. When full the
	// request writes its upload itself.
	ArchiveQueueSize int `koanf:"archive_queue_size"`

	// MaxUploadBytes bounds the size of one multipart upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// RequestTimeoutMS bounds decode plus aggregation of one request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// SuperuserThreshold is the minimum score of a qualifying user.
	SuperuserThreshold float64 `koanf:"superuser_threshold"`

	// TopCountriesLimit caps the country ranking.
	TopCountriesLimit int `koanf:"top_countries_limit"`

	// TeamInsightsMode is "aggregate" or "last_record".
	TeamInsightsMode string `koanf:"team_insights_mode"`

	// StoreBackend selects the name store: memory or bolt.
	StoreBackend string `koanf:"store_backend"`

	// StorePath is the bolt file used when StoreBackend is bolt.
	StorePath string `koanf:"store_path"`

	// MaxNamesLimit caps GET /names?limit.
	MaxNamesLimit int `koanf:"max_names_limit"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":5000",
		UploadDir:          "uploads",
		KeepUploads:        true,
		ArchiveWorkers:     2,
		ArchiveQueueSize:   256,
		MaxUploadBytes:     32 << 20,
		RequestTimeoutMS:   30_000,
		SuperuserThreshold: 900,
		TopCountriesLimit:  5,
		TeamInsightsMode:   "aggregate",
		StoreBackend:       "memory",
		StorePath:          "userstats.db",
		MaxNamesLimit:      100,
	}
}
