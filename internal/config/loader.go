package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names.
const (
	EnvPrefix     = "USERSTATS_"
	EnvConfigFile = EnvPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if USERSTATS_CONFIG is set
//  3. env (prefix USERSTATS_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// USERSTATS_MAX_UPLOAD_BYTES -> max_upload_bytes. Keys are flat, so the
	// underscores stay and match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.TopCountriesLimit <= 0:
		return fmt.Errorf("%w: top_countries_limit must be positive", ErrInvalidConfig)
	case c.MaxNamesLimit <= 0:
		return fmt.Errorf("%w: max_names_limit must be positive", ErrInvalidConfig)
	case c.ArchiveWorkers <= 0:
		return fmt.Errorf("%w: archive_workers must be positive", ErrInvalidConfig)
	case c.ArchiveQueueSize <= 0:
		return fmt.Errorf("%w: archive_queue_size must be positive", ErrInvalidConfig)
	case c.KeepUploads && strings.TrimSpace(c.UploadDir) == "":
		return fmt.Errorf("%w: upload_dir must not be empty when keep_uploads is set", ErrInvalidConfig)
	}
	switch c.TeamInsightsMode {
	case "aggregate", "last_record":
	default:
		return fmt.Errorf("%w: team_insights_mode must be aggregate or last_record, got %q", ErrInvalidConfig, c.TeamInsightsMode)
	}
	switch c.StoreBackend {
	case "memory":
	case "bolt":
		if strings.TrimSpace(c.StorePath) == "" {
			return fmt.Errorf("%w: store_path must not be empty for the bolt backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: store_backend must be memory or bolt, got %q", ErrInvalidConfig, c.StoreBackend)
	}
	return nil
}
