package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ScoreState tells how a score field was read from the upload.
type ScoreState uint8

const (
	// ScoreAbsent means the field was missing or null.
	ScoreAbsent ScoreState = iota
	// ScoreValid means the field held a finite number or numeric string.
	ScoreValid
	// ScoreInvalid means the field was present but could not be coerced.
	ScoreInvalid
)

func (s ScoreState) String() string {
	switch s {
	case ScoreAbsent:
		return "absent"
	case ScoreValid:
		return "valid"
	case ScoreInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Score is the coerced form of a record's score field. The zero value is absent.
type Score struct {
	state ScoreState
	value float64
	err   error
}

// NewScore returns a valid score, or an invalid one for NaN and infinities.
func NewScore(v float64) Score {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Score{state: ScoreInvalid, err: ErrScoreNotFinite}
	}
	return Score{state: ScoreValid, value: v}
}

// ParseScore coerces a textual score the same way a JSON string score is coerced.
func ParseScore(s string) Score {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		// ParseFloat reports overflow with ±Inf and ErrRange; both are rejected.
		if math.IsInf(v, 0) {
			return Score{state: ScoreInvalid, err: ErrScoreNotFinite}
		}
		return Score{state: ScoreInvalid, err: fmt.Errorf("%w: %q", ErrScoreNotNumeric, s)}
	}
	return NewScore(v)
}

// State reports whether the score was absent, valid or invalid.
func (s Score) State() ScoreState { return s.state }

// Float returns the numeric score. Absent scores read as 0; invalid scores
// return an error wrapping ErrScoreNotNumeric, ErrScoreNotFinite or
// ErrUnsupportedScore.
func (s Score) Float() (float64, error) {
	switch s.state {
	case ScoreValid:
		return s.value, nil
	case ScoreInvalid:
		return 0, s.err
	default:
		return 0, nil
	}
}

// UnmarshalJSON never fails: anything that is not a finite number, a numeric
// string or null becomes an invalid score.
func (s *Score) UnmarshalJSON(b []byte) error {
	*s = parseScoreJSON(b)
	return nil
}

// MarshalJSON writes valid scores as numbers and everything else as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if s.state != ScoreValid {
		return []byte("null"), nil
	}
	return json.Marshal(s.value)
}

func parseScoreJSON(b []byte) Score {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return Score{}
	}
	switch c := b[0]; {
	case c == '"':
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return Score{state: ScoreInvalid, err: fmt.Errorf("%w: %v", ErrScoreNotNumeric, err)}
		}
		return ParseScore(text)
	case c == '-' || (c >= '0' && c <= '9'):
		v, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return Score{state: ScoreInvalid, err: ErrScoreNotFinite}
		}
		return NewScore(v)
	default:
		return Score{state: ScoreInvalid, err: fmt.Errorf("%w: %s", ErrUnsupportedScore, kindOf(b))}
	}
}

// kindOf names the JSON type of a raw value for error messages.
func kindOf(b []byte) string {
	switch b[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	default:
		return "unknown"
	}
}
