package loadgen

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/okian/userstats/pkg/logger"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const directoryPermission = 0750

// ErrMismatch is returned when the service disagrees with the local reports.
var ErrMismatch = errors.New("report mismatch")

// Run generates a batch, uploads it and verifies the service's reports.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	cfg := config.withDefaults()
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("loadgen")

	log.Info(ctx, "starting userstats load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", cfg.Users),
		logger.Int("chunkSize", cfg.ChunkSize),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	settings, err := client.Settings(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to read service settings: %w", err)
	}

	users, err := Generate(ctx, cfg.Users, cfg.Seed)
	if err != nil {
		return stats, fmt.Errorf("user generation failed: %w", err)
	}
	stats.UsersGenerated = len(users)

	batch, err := Encode(users)
	if err != nil {
		return stats, err
	}
	if cfg.OutputFile != "" {
		if err := WriteFile(cfg.Fs, cfg.OutputFile, batch); err != nil {
			return stats, err
		}
		log.Info(ctx, "users saved to file", logger.String("filename", cfg.OutputFile))
	}

	counted, err := uploadChunks(ctx, client, &cfg, users, stats)
	if err != nil {
		return stats, fmt.Errorf("user upload failed: %w", err)
	}
	stats.NamesCounted = counted

	got, err := queryReports(ctx, client, batch)
	if err != nil {
		return stats, fmt.Errorf("report retrieval failed: %w", err)
	}
	stats.CountriesQueried = len(got.Countries)
	stats.TeamsQueried = len(got.Teams)

	want, err := Expect(ctx, batch, settings)
	if err != nil {
		return stats, fmt.Errorf("local report failed: %w", err)
	}
	got.NamesCounted = counted
	if err := Verify(want, got); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)
	return stats, nil
}

// WriteFile writes the encoded batch to path on fs, creating parent
// directories as needed.
func WriteFile(fs afero.Fs, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write users file: %w", err)
	}
	return nil
}

// uploadChunks posts users to /users in chunks, at most cfg.Workers at a
// time, and returns the sum of the counts the service reported. The first
// failure cancels the remaining uploads.
func uploadChunks(ctx context.Context, client *HTTPClient, cfg *Config, users []User, stats *Stats) (int, error) {
	chunks := Chunks(users, cfg.ChunkSize)
	log := logger.Named("loadgen")
	log.Info(ctx, "uploading users", logger.Int("chunks", len(chunks)), logger.Int("workers", cfg.Workers))

	var counted, uploaded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			data, err := Encode(chunk)
			if err != nil {
				failed.Add(1)
				return err
			}
			name := fmt.Sprintf("users-%04d.json", i)
			n, err := client.UploadUsers(gctx, name, data)
			if err != nil {
				failed.Add(1)
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			counted.Add(int64(n))
			uploaded.Add(1)
			if cfg.Verbose {
				log.Debug(gctx, "chunk uploaded", logger.String("file", name), logger.Int("userCount", n))
			}
			return nil
		})
	}
	err := g.Wait()

	stats.ChunksUploaded = int(uploaded.Load())
	stats.ChunksFailed = int(failed.Load())
	if err != nil {
		return 0, err
	}
	return int(counted.Load()), nil
}

// queryReports asks for both per-upload reports concurrently.
func queryReports(ctx context.Context, client *HTTPClient, batch []byte) (Reports, error) {
	var r Reports
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		countries, err := client.TopCountries(gctx, "users.json", batch)
		r.Countries = countries
		return err
	})
	g.Go(func() error {
		teams, err := client.TeamInsights(gctx, "users.json", batch)
		r.Teams = teams
		return err
	})
	if err := g.Wait(); err != nil {
		return Reports{}, err
	}
	return r, nil
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var usersPerSecond float64
	if stats.Duration > 0 {
		usersPerSecond = float64(stats.UsersGenerated) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("usersGenerated", stats.UsersGenerated),
		logger.Int("chunksUploaded", stats.ChunksUploaded),
		logger.Int("chunksFailed", stats.ChunksFailed),
		logger.Int("namesCounted", stats.NamesCounted),
		logger.Int("countries", stats.CountriesQueried),
		logger.Int("teams", stats.TeamsQueried),
		logger.Duration("duration", stats.Duration),
		logger.Float64("usersPerSecond", usersPerSecond))
}
