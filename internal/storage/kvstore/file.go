package kvstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const defaultStateDir = "./data/state"

// FileStore keeps one JSON file per key so restarts keep balances, positions and quotes.
type FileStore struct {
	dir string
}

func getStateDir(dir string) string {
	if dir != "" {
		return dir
	}
	if stateDir := os.Getenv("PAPERTRADE_STATE_DIR"); stateDir != "" {
		return stateDir
	}
	return defaultStateDir
}

// NewFileStore creates a file store under dir.
func NewFileStore(dir string) (*FileStore, error) {
	stateDir := getStateDir(dir)
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create state dir")
	}

	return &FileStore{dir: stateDir}, nil
}

func (s *FileStore) path(key string) (string, error) {
	name := sanitizeKey(key)
	if name == "" {
		return "", errors.Errorf("invalid state key %q", key)
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", name)), nil
}

// Load reads the payload stored under key.
func (s *FileStore) Load(key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "read state %s", key)
	}

	if len(payload) == 0 {
		return nil, nil
	}

	return payload, nil
}

// Save writes the payload atomically via temp file.
func (s *FileStore) Save(key string, payload []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrapf(err, "write state %s temp file", key)
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "persist state %s", key)
	}

	return nil
}

// Delete removes the payload stored under key. Missing keys are not an error.
func (s *FileStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "delete state %s", key)
	}

	return nil
}
