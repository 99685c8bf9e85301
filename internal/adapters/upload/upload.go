// Package upload receives report files from multipart requests, validates
// their names and optionally keeps a copy on disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/okian/userstats/pkg/metrics"
)

// FormField is the multipart field every report endpoint reads.
const FormField = "file"

// File is an uploaded document held in memory.
type File struct {
	Name string
	Data []byte
}

// Size returns the payload length in bytes.
func (f File) Size() int { return len(f.Data) }

// Receive extracts the "file" part from r. The body is capped at maxBytes.
// A missing part yields ErrNoFile, an oversized body ErrTooLarge and a bad
// filename a *ValidationError.
func Receive(w http.ResponseWriter, r *http.Request, maxBytes int64) (File, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	part, header, err := r.FormFile(FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			metrics.RecordUploadRejected("too_large")
			return File{}, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, tooLarge.Limit)
		case errors.Is(err, http.ErrMissingFile) && hasNamelessPart(r):
			metrics.RecordUploadRejected("invalid_name")
			return File{}, Validate("")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			metrics.RecordUploadRejected("missing_file")
			return File{}, ErrNoFile
		default:
			metrics.RecordUploadRejected("malformed")
			return File{}, fmt.Errorf("%w: %w", ErrNoFile, err)
		}
	}
	defer func() { _ = part.Close() }()

	if err := Validate(header.Filename); err != nil {
		metrics.RecordUploadRejected("invalid_name")
		return File{}, err
	}

	data, err := io.ReadAll(part)
	if err != nil {
		return File{}, fmt.Errorf("read upload %q: %w", header.Filename, err)
	}
	metrics.RecordUploadBytes(len(data))
	return File{Name: baseName(header.Filename), Data: data}, nil
}

// hasNamelessPart reports a "file" part sent with an empty filename, which
// mime/multipart files under form values instead of files.
func hasNamelessPart(r *http.Request) bool {
	return r.MultipartForm != nil && len(r.MultipartForm.Value[FormField]) > 0
}

// baseName strips any client supplied directory, accepting either separator.
func baseName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}
