package source

import (
	"context"
	"errors"
	"io/fs"
	"os"

	errs "github.com/dogeow/wikigraph/pkg/errors"
)

// File reads the graph document from disk on every fetch.
type File struct {
	path string
}

var _ Source = (*File)(nil)

// NewFile creates a source for the JSON file at path.
func NewFile(path string) *File { return &File{path: path} }

// Path returns the file path.
func (s *File) Path() string { return s.path }

func (s *File) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.ErrCodeNotFound, err, "read %s", s.path)
	}
	return data, err
}
