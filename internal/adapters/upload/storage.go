package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/okian/userstats/pkg/metrics"
	"github.com/spf13/afero"
)

const (
	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

// Storage keeps uploaded documents under a directory of an afero filesystem.
type Storage struct {
	fs  afero.Fs
	dir string
}

// NewStorage returns a Storage rooted at dir. A nil fs means the OS filesystem.
func NewStorage(fs afero.Fs, dir string) *Storage {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Storage{fs: fs, dir: dir}
}

// Dir returns the directory uploads are written to.
func (s *Storage) Dir() string { return s.dir }

// Save writes f as "<uuid>-<name>" and returns the stored path. The random
// prefix keeps concurrent uploads with the same filename apart.
func (s *Storage) Save(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(s.dir, dirMode); err != nil {
		return "", fmt.Errorf("create upload dir %q: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, uuid.NewString()+"-"+baseName(f.Name))
	if err := afero.WriteFile(s.fs, path, f.Data, fileMode); err != nil {
		return "", fmt.Errorf("write upload %q: %w", path, err)
	}
	metrics.RecordUploadSaved()
	return path, nil
}

// Open reads a stored upload back.
func (s *Storage) Open(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", path, err)
	}
	return data, nil
}
