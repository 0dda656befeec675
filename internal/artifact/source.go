// Package artifact loads the pre-trained capabilities (vectorizer, encoder,
// scaler, classifiers) from an artifact source and decodes them into the
// domain ports.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/soclens/internal/domain"
)

// Source reads raw artifact documents by name.
// A missing artifact is reported as domain.ErrArtifactNotFound.
type Source interface {
	Name() string
	Read(ctx context.Context, name string) ([]byte, error)
}

// DirSource reads artifacts from a local directory.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource. An empty dir means the working directory.
func NewDirSource(dir string) *DirSource {
	if dir == "" {
		dir = "."
	}
	return &DirSource{dir: dir}
}

// Name describes the source.
func (s *DirSource) Name() string { return "dir:" + s.dir }

// Read returns the artifact bytes.
func (s *DirSource) Read(_ context.Context, name string) ([]byte, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrArtifactNotFound)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return data, nil
}
