package cache_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakxl/chitin/internal/cache"
)

func storePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cache", cache.FileName)
}

func testEntry(content string) cache.Entry {
	return cache.Entry{
		Content:         content,
		ChitinVersion:   "0.3.0",
		OpenclawVersion: "2026.2.1",
		CreatedAt:       time.Now().UTC().Truncate(time.Second),
	}
}

func TestStorePutGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	store := cache.Load(ctx, path)
	_, ok := store.Get("#help")
	assert.False(t, ok)

	entry := testEntry("Usage: chitin ...")
	require.NoError(t, store.Put("#help", entry))

	// A fresh load (a later invocation) sees the committed entry.
	reloaded := cache.Load(ctx, path)
	got, ok := reloaded.Get("#help")
	require.True(t, ok)
	assert.Equal(t, entry.Content, got.Content)
	assert.Equal(t, entry.ChitinVersion, got.ChitinVersion)
	assert.Equal(t, entry.OpenclawVersion, got.OpenclawVersion)
	assert.True(t, entry.CreatedAt.Equal(got.CreatedAt))
}

func TestStoreMultipleKeys(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	store := cache.Load(ctx, path)
	require.NoError(t, store.Put("#help", testEntry("main help")))
	require.NoError(t, store.Put("gateway#help", testEntry("gateway help")))
	require.NoError(t, store.Put("channels login#help", testEntry("login help")))

	reloaded := cache.Load(ctx, path)
	for key, want := range map[string]string{
		"#help":               "main help",
		"gateway#help":        "gateway help",
		"channels login#help": "login help",
	} {
		got, ok := reloaded.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got.Content)
	}

	_, ok := reloaded.Get("gateway#version")
	assert.False(t, ok)
}

// TestLoadDegradesToEmpty verifies that every cache-read problem yields a
// usable empty store instead of an error.
func TestLoadDegradesToEmpty(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(t *testing.T, path string)
	}{
		{
			name:    "absent file",
			prepare: func(*testing.T, string) {},
		},
		{
			name: "corrupt json",
			prepare: func(t *testing.T, path string) {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
				require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o600))
			},
		},
		{
			name: "unknown schema version",
			prepare: func(t *testing.T, path string) {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
				data := `{"schema_version": 99, "entries": {"#help": {"content": "x"}}}`
				require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
			},
		},
		{
			name: "wrong top-level type",
			prepare: func(t *testing.T, path string) {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
				require.NoError(t, os.WriteFile(path, []byte(`["not","a","cache"]`), 0o600))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := storePath(t)
			tt.prepare(t, path)

			store := cache.Load(ctx, path)
			_, ok := store.Get("#help")
			assert.False(t, ok)

			// The degraded store is still writable.
			require.NoError(t, store.Put("#help", testEntry("recovered")))
			got, ok := cache.Load(ctx, path).Get("#help")
			require.True(t, ok)
			assert.Equal(t, "recovered", got.Content)
		})
	}
}

// TestInterruptedWriteLeavesCommittedStateReadable simulates a writer killed
// mid-write: the temp file exists but was never renamed. The previously
// committed entry must remain intact.
func TestInterruptedWriteLeavesCommittedStateReadable(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	store := cache.Load(ctx, path)
	require.NoError(t, store.Put("#help", testEntry("committed")))

	// A crashed writer leaves a garbage temp sibling behind.
	tmp := path + ".tmp-crashed"
	require.NoError(t, os.WriteFile(tmp, []byte(`{"schema_ver`), 0o600))

	got, ok := cache.Load(ctx, path).Get("#help")
	require.True(t, ok)
	assert.Equal(t, "committed", got.Content)
}

// TestPutLeavesNoTempFiles verifies the temp file is renamed away on the
// happy path.
func TestPutLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	store := cache.Load(ctx, path)
	require.NoError(t, store.Put("#help", testEntry("x")))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), e.Name())
	}
}

// TestStoreFileShape pins the on-disk format: a schema tag plus an entries
// map with RFC3339 timestamps.
func TestStoreFileShape(t *testing.T) {
	ctx := context.Background()
	path := storePath(t)

	store := cache.Load(ctx, path)
	require.NoError(t, store.Put("gateway#help", testEntry("gateway help")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var data struct {
		Schema  int `json:"schema_version"`
		Entries map[string]struct {
			Content   string `json:"content"`
			CreatedAt string `json:"created_at"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Equal(t, cache.SchemaVersion, data.Schema)
	require.Contains(t, data.Entries, "gateway#help")

	_, err = time.Parse(time.RFC3339, data.Entries["gateway#help"].CreatedAt)
	assert.NoError(t, err)
}

func TestStorePath(t *testing.T) {
	path := storePath(t)
	store := cache.Load(context.Background(), path)
	assert.Equal(t, path, store.Path())
}
