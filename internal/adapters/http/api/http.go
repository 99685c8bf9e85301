// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/userstats/internal/adapters/repository"
	"github.com/okian/userstats/internal/adapters/upload"
	"github.com/okian/userstats/internal/domain/insights"
	"github.com/okian/userstats/internal/domain/record"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	UserDependencies
	ReportDependencies
	NameDependencies
}

// UserDependencies feeds uploaded batches into the name counter.
type UserDependencies interface {
	CountNames(ctx context.Context, f upload.File) (int, error)
}

// ReportDependencies computes the per-upload reports.
type ReportDependencies interface {
	Superusers(ctx context.Context, f upload.File) ([]record.UserRecord, error)
	TopCountries(ctx context.Context, f upload.File) ([]insights.CountryTotal, error)
	TeamInsights(ctx context.Context, f upload.File) ([]insights.TeamTotal, error)
}

// NameDependencies exposes the accumulated name counts.
type NameDependencies interface {
	TopNames(ctx context.Context, n int) ([]repository.NameCount, error)
	LookupName(ctx context.Context, name string) (repository.NameCount, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	opts          options
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	usersHandler  *UsersHandler
	reportHandler *ReportHandler
	namesHandler  *NamesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := newOptions(opts)
	return &Server{
		opts:          o,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider, o.now),
		usersHandler:  NewUsersHandler(deps, o.maxUploadBytes),
		reportHandler: NewReportHandler(deps, o.maxUploadBytes, o.now),
		namesHandler:  NewNamesHandler(deps, o.maxNamesLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/users", s.route("users", s.usersHandler.HandlePostUsers))
	mux.HandleFunc("/superusers", s.route("superusers", s.reportHandler.HandleSuperusers))
	mux.HandleFunc("/top-countries", s.route("top_countries", s.reportHandler.HandleTopCountries))
	mux.HandleFunc("/team-insights", s.route("team_insights", s.reportHandler.HandleTeamInsights))
	mux.HandleFunc("/names", s.route("names", s.namesHandler.HandleTopNames))
	mux.HandleFunc("/names/", s.route("name", s.namesHandler.HandleGetName))
}

// route stacks the request id, timeout and metrics middleware around next.
func (s *Server) route(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return RequestIDMiddleware(TimeoutMiddleware(MetricsMiddleware(next, endpoint), s.opts.requestTimeout))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// executionTime renders d the way report bodies carry it, e.g. "12.35 ms".
func executionTime(d time.Duration) string {
	ms := float64(d.Nanoseconds()) / float64(time.Millisecond)
	return formatMillis(ms)
}
