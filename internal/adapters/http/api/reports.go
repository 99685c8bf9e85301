package api

import (
	"net/http"
	"time"

	"github.com/okian/userstats/internal/adapters/upload"
	"github.com/okian/userstats/internal/domain/insights"
	"github.com/okian/userstats/internal/domain/record"
	"github.com/okian/userstats/pkg/logger"
)

type reportMeta struct {
	ExecutionTime string `json:"execution_time_ms"`
	Timestamp     string `json:"timestamp"`
}

type superusersBody struct {
	reportMeta
	Data []record.UserRecord `json:"data"`
}

type countriesBody struct {
	reportMeta
	Countries []insights.CountryTotal `json:"countries"`
}

type teamsBody struct {
	reportMeta
	Teams []insights.TeamTotal `json:"teams"`
}

// ReportHandler serves the per-upload reports. Each request carries its own
// file and nothing but the name counter outlives it.
type ReportHandler struct {
	deps           ReportDependencies
	maxUploadBytes int64
	now            func() time.Time
}

// NewReportHandler creates a new report handler.
func NewReportHandler(deps ReportDependencies, maxUploadBytes int64, now func() time.Time) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{deps: deps, maxUploadBytes: maxUploadBytes, now: now}
}

// HandleSuperusers handles GET|POST /superusers.
func (h *ReportHandler) HandleSuperusers(w http.ResponseWriter, r *http.Request) {
	start, f, ok := h.receive(w, r)
	if !ok {
		return
	}
	users, err := h.deps.Superusers(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeEnvelope(w, http.StatusOK, superusersBody{reportMeta: h.meta(start), Data: nonNil(users)})
}

// HandleTopCountries handles GET|POST /top-countries.
func (h *ReportHandler) HandleTopCountries(w http.ResponseWriter, r *http.Request) {
	start, f, ok := h.receive(w, r)
	if !ok {
		return
	}
	countries, err := h.deps.TopCountries(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeEnvelope(w, http.StatusOK, countriesBody{reportMeta: h.meta(start), Countries: nonNil(countries)})
}

// HandleTeamInsights handles GET|POST /team-insights.
func (h *ReportHandler) HandleTeamInsights(w http.ResponseWriter, r *http.Request) {
	start, f, ok := h.receive(w, r)
	if !ok {
		return
	}
	teams, err := h.deps.TeamInsights(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeEnvelope(w, http.StatusOK, teamsBody{reportMeta: h.meta(start), Teams: nonNil(teams)})
}

// receive checks the method and reads the upload. It writes the failure
// response itself and reports ok=false when the caller must stop.
func (h *ReportHandler) receive(w http.ResponseWriter, r *http.Request) (time.Time, upload.File, bool) {
	start := h.now()
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.NotFound(w, r)
		return start, upload.File{}, false
	}
	f, err := upload.Receive(w, r, h.maxUploadBytes)
	if err != nil {
		writeFailure(w, err)
		return start, upload.File{}, false
	}
	return start, f, true
}

func (h *ReportHandler) meta(start time.Time) reportMeta {
	return reportMeta{
		ExecutionTime: executionTime(h.now().Sub(start)),
		Timestamp:     start.Format(time.RFC3339Nano),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	logger.Get().Named("api").Warn(r.Context(), "request failed",
		logger.String("path", r.URL.Path),
		logger.Error(err),
	)
	writeFailure(w, err)
}
