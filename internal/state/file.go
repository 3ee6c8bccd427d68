package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alexjbarnes/build-cli/internal/models"
)

// FileStore keeps the raw token record JSON in a single file, by default
// ~/.build.token.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore returns a store backed by the file at path. The file is
// not touched until the first Load or Save.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path returns the token file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the token file. A missing file and a file that does not hold
// a JSON object are both reported as no token.
func (s *FileStore) Load() (models.TokenRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var rec models.TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Debug("ignoring unreadable token file", slog.String("path", s.path), slog.String("error", err.Error()))
		return nil, nil
	}

	return rec, nil
}

// Save writes the record to a temp file in the same directory and renames
// it over the token file, so a crash never leaves a half-written token.
func (s *FileStore) Save(rec models.TokenRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, stateDirPerm); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".build.token-*")
	if err != nil {
		return fmt.Errorf("creating temp token file: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("writing token file: %w", err)
	}

	if err := tmp.Chmod(stateFilePerm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("setting token file mode: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing token file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing token file: %w", err)
	}

	s.logger.Debug("token saved", slog.String("path", s.path))

	return nil
}

// Delete removes the token file. Deleting a missing file is a no-op.
func (s *FileStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}

	return nil
}

// Close is a no-op; the file is opened per call.
func (s *FileStore) Close() error { return nil }
