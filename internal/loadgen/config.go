// Package loadgen generates synthetic user batches, uploads them to a running
// userstats service and checks the reports it answers with.
package loadgen

import (
	"time"

	"github.com/spf13/afero"
)

// Defaults used when a Config field is left zero.
const (
	DefaultBaseURL   = "http://localhost:8080"
	DefaultUsers     = 1000
	DefaultChunkSize = 250
	DefaultWorkers   = 4
	DefaultTimeout   = 30 * time.Second
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Users      int           // Number of users to generate
	ChunkSize  int           // Users per /users upload
	Workers    int           // Concurrent uploads
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Where the generated batch is written; empty skips it
	Seed       uint64        // Generator seed; zero picks one from the clock
	Verbose    bool

	// Fs receives OutputFile. Nil means the OS filesystem.
	Fs afero.Fs
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Users <= 0 {
		out.Users = DefaultUsers
	}
	if out.ChunkSize <= 0 {
		out.ChunkSize = DefaultChunkSize
	}
	if out.Workers <= 0 {
		out.Workers = DefaultWorkers
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Seed == 0 {
		out.Seed = uint64(time.Now().UnixNano())
	}
	if out.Fs == nil {
		out.Fs = afero.NewOsFs()
	}
	return out
}

// User is one generated batch element. Score is any so that numbers, numeric
// strings, junk strings and missing scores all show up on the wire.
type User struct {
	Name    string `json:"name,omitempty"`
	Score   any    `json:"score,omitempty"`
	Country string `json:"country,omitempty"`
	Team    *Team  `json:"team,omitempty"`
}

// Team is the generated team block.
type Team struct {
	Name     string    `json:"name,omitempty"`
	Projects []Project `json:"projects"`
}

// Project is one generated project. Completed is any so that non-boolean
// values are exercised too.
type Project struct {
	Title     string `json:"title"`
	Completed any    `json:"completed"`
}

// Stats holds run statistics.
type Stats struct {
	UsersGenerated   int
	ChunksUploaded   int
	ChunksFailed     int
	NamesCounted     int
	CountriesQueried int
	TeamsQueried     int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
