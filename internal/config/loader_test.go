package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/userstats/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
				convey.So(cfg.RequestTimeoutMS, convey.ShouldEqual, 30_000)
				convey.So(cfg.MaxNamesLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("USERSTATS_ADDR", ":8080")
			_ = os.Setenv("USERSTATS_MAX_UPLOAD_BYTES", "1024")
			_ = os.Setenv("USERSTATS_SUPERUSER_THRESHOLD", "750.5")
			_ = os.Setenv("USERSTATS_KEEP_UPLOADS", "false")
			_ = os.Setenv("USERSTATS_TEAM_INSIGHTS_MODE", "last_record")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, 1024)
				convey.So(cfg.SuperuserThreshold, convey.ShouldEqual, 750.5)
				convey.So(cfg.KeepUploads, convey.ShouldBeFalse)
				convey.So(cfg.TeamInsightsMode, convey.ShouldEqual, "last_record")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
upload_dir: /var/lib/userstats/uploads
top_countries_limit: 3
store_backend: bolt
store_path: /var/lib/userstats/names.db
`)
			_ = os.Setenv("USERSTATS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.UploadDir, convey.ShouldEqual, "/var/lib/userstats/uploads")
				convey.So(cfg.TopCountriesLimit, convey.ShouldEqual, 3)
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "bolt")
				convey.So(cfg.StorePath, convey.ShouldEqual, "/var/lib/userstats/names.db")
			})

			convey.Convey("And missing keys keep their defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MaxNamesLimit, convey.ShouldEqual, 100)
				convey.So(cfg.TeamInsightsMode, convey.ShouldEqual, "aggregate")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
top_countries_limit: 3
`)
			_ = os.Setenv("USERSTATS_CONFIG", tmpFile)
			_ = os.Setenv("USERSTATS_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.TopCountriesLimit, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("USERSTATS_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("USERSTATS_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("USERSTATS_MAX_UPLOAD_BYTES", "lots")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("USERSTATS_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given configs with bad values", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
			want   string
		}{
			{"zero upload size", func(c *config.Config) { c.MaxUploadBytes = 0 }, "max_upload_bytes"},
			{"negative timeout", func(c *config.Config) { c.RequestTimeoutMS = -1 }, "request_timeout_ms"},
			{"zero country limit", func(c *config.Config) { c.TopCountriesLimit = 0 }, "top_countries_limit"},
			{"zero names limit", func(c *config.Config) { c.MaxNamesLimit = 0 }, "max_names_limit"},
			{"zero archive workers", func(c *config.Config) { c.ArchiveWorkers = 0 }, "archive_workers"},
			{"zero archive queue", func(c *config.Config) { c.ArchiveQueueSize = 0 }, "archive_queue_size"},
			{"missing upload dir", func(c *config.Config) { c.UploadDir = " " }, "upload_dir"},
			{"unknown team mode", func(c *config.Config) { c.TeamInsightsMode = "sum" }, "team_insights_mode"},
			{"unknown backend", func(c *config.Config) { c.StoreBackend = "redis" }, "store_backend"},
			{"bolt without path", func(c *config.Config) { c.StoreBackend = "bolt"; c.StorePath = "" }, "store_path"},
		}

		for _, tc := range cases {
			convey.Convey("When the config has a "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation names the key", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
				})
			})
		}

		convey.Convey("When uploads are not kept", func() {
			cfg := config.New()
			cfg.KeepUploads = false
			cfg.UploadDir = ""

			convey.Convey("Then an empty upload dir is fine", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"USERSTATS_CONFIG",
		"USERSTATS_ADDR",
		"USERSTATS_MAX_UPLOAD_BYTES",
		"USERSTATS_SUPERUSER_THRESHOLD",
		"USERSTATS_KEEP_UPLOADS",
		"USERSTATS_TEAM_INSIGHTS_MODE",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	tmpFile, err := os.CreateTemp(t.TempDir(), "userstats-config-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("close temp config: %v", err)
	}
	return tmpFile.Name()
}
