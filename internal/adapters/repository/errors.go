package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound       = errors.New("name not found")
	ErrInvalidLimit   = errors.New("invalid name ranking limit")
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrClosed         = errors.New("store closed")
	ErrCorruptCount   = errors.New("corrupt stored count")
)
