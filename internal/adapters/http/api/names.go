package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/userstats/internal/adapters/repository"
)

type namesBody struct {
	Names []repository.NameCount `json:"names"`
}

// NamesHandler exposes the accumulated name counter.
type NamesHandler struct {
	deps     NameDependencies
	maxLimit int
}

// NewNamesHandler creates a new names handler.
func NewNamesHandler(deps NameDependencies, maxLimit int) *NamesHandler {
	return &NamesHandler{deps: deps, maxLimit: maxLimit}
}

// HandleTopNames handles GET /names?limit=N requests. A missing limit means
// the configured maximum.
func (h *NamesHandler) HandleTopNames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", repository.ErrInvalidLimit)
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", repository.ErrInvalidLimit)
			return
		}
		n = v
	}
	names, err := h.deps.TopNames(r.Context(), n)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, namesBody{Names: nonNil(names)})
}

// HandleGetName handles GET /names/{name} requests.
func (h *NamesHandler) HandleGetName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/names/")
	if strings.TrimSpace(name) == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", nil)
		return
	}
	entry, err := h.deps.LookupName(r.Context(), name)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
