package goals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/goalkeeper/internal/common"
	"github.com/dmitrijs2005/goalkeeper/internal/filex"
)

// FileStore keeps one JSON document per pathway under a data directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is resolved to
// an absolute path so Locate hands the client a usable location.
func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	return &FileStore{dir: abs}, nil
}

func (s *FileStore) Locate(pathway string) string {
	return filepath.Join(s.dir, pathway)
}

func (s *FileStore) path(pathway string) (string, error) {
	if pathway == "" || !filepath.IsLocal(pathway) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPathway, pathway)
	}
	return s.Locate(pathway), nil
}

func (s *FileStore) Load(ctx context.Context, pathway string) ([]Goal, error) {
	path, err := s.path(pathway)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []Goal{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", common.ErrorStoreIO, path, err)
	}

	return decode(data, path)
}

func (s *FileStore) Save(ctx context.Context, pathway string, goals []Goal) error {
	path, err := s.path(pathway)
	if err != nil {
		return err
	}

	data, err := encode(goals)
	if err != nil {
		return err
	}

	if _, err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorStoreIO, err)
	}
	if err := filex.WriteAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorStoreIO, err)
	}
	return nil
}

func decode(data []byte, source string) ([]Goal, error) {
	if strings.TrimSpace(string(data)) == "" {
		return []Goal{}, nil
	}
	var goals []Goal
	if err := json.Unmarshal(data, &goals); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", common.ErrorStoreIO, source, err)
	}
	if goals == nil {
		goals = []Goal{}
	}
	return goals, nil
}

// encode writes the document indented by four spaces, matching the files
// the goal editor produces.
func encode(goals []Goal) ([]byte, error) {
	if goals == nil {
		goals = []Goal{}
	}
	data, err := json.MarshalIndent(goals, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", common.ErrorStoreIO, err)
	}
	return data, nil
}
