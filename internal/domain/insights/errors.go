package insights

import "errors"

// Sentinel kinds for report errors.
var (
	ErrInvalidTeamMode = errors.New("invalid team insights mode")
	ErrNoStore         = errors.New("name store not configured")
)
