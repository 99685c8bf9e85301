package record

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// cancelCheckInterval is how many elements are decoded between context checks.
const cancelCheckInterval = 256

// Decode parses data as a JSON array of objects. See DecodeReader.
func Decode(ctx context.Context, data []byte) ([]UserRecord, error) {
	return DecodeReader(ctx, bytes.NewReader(data))
}

// DecodeReader parses r as a JSON array of objects and returns the records in
// source order. Malformed JSON, a non-array top level, a non-object element
// or trailing data yield a *DecodeError and no records. Cancellation of ctx
// is honored between elements.
func DecodeReader(ctx context.Context, r io.Reader) ([]UserRecord, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, &DecodeError{Offset: dec.InputOffset(), Index: -1, Reason: "malformed json", Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, &DecodeError{Offset: dec.InputOffset(), Index: -1, Reason: "top-level value is not an array"}
	}

	records := make([]UserRecord, 0)
	for i := 0; dec.More(); i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("decode records: %w", err)
			}
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, &DecodeError{Offset: dec.InputOffset(), Index: i, Reason: "malformed json", Err: err}
		}
		rec, ok := fromObject(raw)
		if !ok {
			return nil, &DecodeError{Offset: dec.InputOffset(), Index: i, Reason: "element is not an object"}
		}
		records = append(records, rec)
	}

	// Closing bracket, then nothing but whitespace.
	if _, err := dec.Token(); err != nil {
		return nil, &DecodeError{Offset: dec.InputOffset(), Index: -1, Reason: "malformed json", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Offset: dec.InputOffset(), Index: -1, Reason: "unexpected data after array", Err: err}
	}
	return records, nil
}
