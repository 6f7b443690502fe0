package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// FileStore is a Store persisted as a JSON array of ids.
type FileStore struct {
	path   string
	ids    map[string]struct{}
	logger *slog.Logger
}

// OpenFileStore loads the store at path. A missing file starts an empty store.
// An unreadable or corrupt file is logged and also treated as empty; every
// stored paper may then be reprocessed.
func OpenFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileStore{
		path:   path,
		ids:    make(map[string]struct{}),
		logger: logger.With("component", "dedup"),
	}

	ids, err := readIDs(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("dedup store not found, starting empty", "path", path)
	case err != nil:
		s.logger.Warn("dedup store unreadable, starting empty", "path", path, "error", err)
	default:
		for _, id := range ids {
			s.ids[id] = struct{}{}
		}
		s.logger.Debug("dedup store loaded", "path", path, "ids", len(s.ids))
	}

	return s
}

func readIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("dedup: failed to parse %s: %w", path, err)
	}
	return ids, nil
}

func (s *FileStore) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *FileStore) Add(id string) {
	s.ids[id] = struct{}{}
}

// Len reports the number of stored keys.
func (s *FileStore) Len() int {
	return len(s.ids)
}

// IDs returns the stored keys in sorted order.
func (s *FileStore) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Flush rewrites the whole file. The new content is written to a temporary
// file in the same directory and renamed over the old one, so readers never
// observe a partial write.
func (s *FileStore) Flush() error {
	data, err := json.Marshal(s.IDs())
	if err != nil {
		return fmt.Errorf("dedup: failed to marshal ids: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("dedup: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("dedup: failed to chmod %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("dedup: failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("dedup: failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("dedup: failed to replace %s: %w", s.path, err)
	}
	return nil
}
