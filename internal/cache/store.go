package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/peakxl/chitin/internal/logging"
)

// SchemaVersion tags the on-disk format. Files with a different (or missing)
// tag are treated as empty, never as an error, so the format can evolve
// without breaking older or newer shims sharing a home directory.
const SchemaVersion = 1

// FileName is the cache file's name inside the cache directory.
const FileName = "help_cache.json"

type fileData struct {
	Schema  int              `json:"schema_version"`
	Entries map[string]Entry `json:"entries"`
}

// Store is one invocation's view of the on-disk cache. It is loaded fresh at
// startup and not shared across processes; cross-process consistency comes
// from atomic whole-file writes, last writer wins.
type Store struct {
	path string
	data fileData
}

// Load reads and deserializes the cache file at path. Absent, unreadable,
// corrupt, or unknown-schema files all yield an empty store: a cache-read
// problem degrades to a cold cache.
func Load(ctx context.Context, path string) *Store {
	s := &Store{
		path: path,
		data: fileData{Schema: SchemaVersion, Entries: map[string]Entry{}},
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.FromContext(ctx).Warn().
				Str("component", "cache").
				Str("path", path).
				Err(err).
				Msg("cache unreadable, starting cold")
		}
		return s
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "cache").
			Str("path", path).
			Err(err).
			Msg("cache corrupt, starting cold")
		return s
	}
	if data.Schema != SchemaVersion || data.Entries == nil {
		logging.FromContext(ctx).Debug().
			Str("component", "cache").
			Int("schema", data.Schema).
			Msg("unrecognized cache schema, starting cold")
		return s
	}

	s.data = data
	return s
}

// Get looks up the entry for key in the loaded store.
func (s *Store) Get(key string) (Entry, bool) {
	entry, ok := s.data.Entries[key]
	return entry, ok
}

// Put records entry under key and persists the whole store. The file is
// written to a temporary sibling and renamed into place so a crash mid-write
// never exposes partial content to other invocations.
func (s *Store) Put(key string, entry Entry) error {
	s.data.Entries[key] = entry

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	raw, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp cache file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("committing cache: %w", err)
	}

	return nil
}

// Path returns the store's on-disk location.
func (s *Store) Path() string {
	return s.path
}
