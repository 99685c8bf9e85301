package record

import (
	"errors"
	"fmt"
)

// Sentinel kinds for record errors.
var (
	ErrDecode           = errors.New("decode records failed")
	ErrScoreNotNumeric  = errors.New("score is not numeric")
	ErrScoreNotFinite   = errors.New("score is not finite")
	ErrUnsupportedScore = errors.New("unsupported score type")
)

// DecodeError reports why an upload could not be turned into records.
// Offset is the input byte offset where decoding stopped, or -1 when unknown.
type DecodeError struct {
	Offset int64
	Index  int // element index, -1 for top-level failures
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode records: " + e.Reason
	if e.Index >= 0 {
		msg = fmt.Sprintf("decode records: element %d: %s", e.Index, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying json error, if any.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes every DecodeError match ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
