package api

import (
	"maps"
	"net/http"
	"time"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves the provider's statistics plus server uptime.
type StatsHandler struct {
	statsProvider StatsProvider
	now           func() time.Time
	since         time.Time
}

// NewStatsHandler creates a stats handler whose uptime counts from now().
func NewStatsHandler(statsProvider StatsProvider, now func() time.Time) *StatsHandler {
	if now == nil {
		now = time.Now
	}
	return &StatsHandler{statsProvider: statsProvider, now: now, since: now()}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out := map[string]any{}
	if h.statsProvider != nil {
		// Copy so the provider's map is never mutated.
		maps.Copy(out, h.statsProvider.GetStats())
	}
	out["uptimeSeconds"] = int64(h.now().Sub(h.since) / time.Second)
	writeJSON(w, http.StatusOK, out)
}
