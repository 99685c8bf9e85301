// Command gen-users generates a synthetic user batch, uploads it to a running
// userstats service and checks the service's reports against a local run of
// the same engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/okian/userstats/internal/loadgen"
	"github.com/okian/userstats/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultRunTimeout = 10 * time.Minute

var exampleUsage = strings.TrimSpace(`
  gen-users --url http://localhost:8080 --users 50000 --workers 16
  gen-users --users 1000 --seed 42 --output users.json --verbose
`)

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := loadgen.Config{}
	var runTimeout time.Duration

	root := &cobra.Command{
		Use:          "gen-users",
		Short:        "Generate, upload and verify a synthetic user batch",
		Example:      exampleUsage,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Verbose {
				_ = logger.SetLevelString("debug")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
			defer cancel()

			stats, err := loadgen.Run(ctx, &cfg)
			if err != nil {
				return fmt.Errorf("load run failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "verified %d users in %d chunks (%s)\n",
				stats.UsersGenerated, stats.ChunksUploaded, stats.Duration.Round(time.Millisecond))
			return nil
		},
	}

	f := root.Flags()
	f.StringVar(&cfg.BaseURL, "url", loadgen.DefaultBaseURL, "base URL of the service")
	f.IntVar(&cfg.Users, "users", loadgen.DefaultUsers, "number of users to generate")
	f.IntVar(&cfg.ChunkSize, "chunk", loadgen.DefaultChunkSize, "users per /users upload")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "concurrent uploads")
	f.DurationVar(&cfg.Timeout, "timeout", loadgen.DefaultTimeout, "HTTP request timeout")
	f.DurationVar(&runTimeout, "run-timeout", defaultRunTimeout, "deadline for the whole run")
	f.StringVar(&cfg.OutputFile, "output", "", "write the generated batch to this file")
	f.Uint64Var(&cfg.Seed, "seed", 0, "generator seed (0 picks one from the clock)")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable verbose logging")

	return root
}
