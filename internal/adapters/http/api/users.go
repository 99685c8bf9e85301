package api

import (
	"errors"
	"net/http"

	"github.com/okian/userstats/internal/adapters/upload"
)

const (
	msgUsersReceived = "file received"
	msgNoFile        = "no file uploaded"
)

type usersBody struct {
	Message   string `json:"message"`
	UserCount int    `json:"user_count"`
}

// UsersHandler handles batch uploads that feed the name counter.
type UsersHandler struct {
	deps           UserDependencies
	maxUploadBytes int64
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps UserDependencies, maxUploadBytes int64) *UsersHandler {
	return &UsersHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

// HandlePostUsers handles POST /users requests.
func (h *UsersHandler) HandlePostUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	f, err := upload.Receive(w, r, h.maxUploadBytes)
	if errors.Is(err, upload.ErrNoFile) {
		writeEnvelope(w, http.StatusBadRequest, usersBody{Message: msgNoFile})
		return
	}
	if err != nil {
		writeFailure(w, err)
		return
	}
	n, err := h.deps.CountNames(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeEnvelope(w, http.StatusOK, usersBody{Message: msgUsersReceived, UserCount: n})
}
