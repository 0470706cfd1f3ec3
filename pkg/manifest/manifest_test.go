package manifest

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civsync/pkg/civitai"
	"civsync/pkg/errors"
	"civsync/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(DefaultPath(t.TempDir(), "alice"), logger.NewNopLogger())
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "alice_manifest.json"), DefaultPath("out", "alice"))
}

func TestFromRecords(t *testing.T) {
	m := FromRecords([]civitai.ImageRecord{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "alice"},
	})

	assert.Len(t, m, 2)
	assert.True(t, m.Has("1"))
	assert.True(t, m.Has("2"))
	assert.False(t, m.Has("3"))
}

func TestLoadMissingFileIsFirstRun(t *testing.T) {
	store := newTestStore(t)

	m, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.False(t, store.Exists())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	var withExtra civitai.ImageRecord
	require.NoError(t, json.Unmarshal(
		[]byte(`{"id":2,"url":"u2","username":"alice","nsfwLevel":"Soft"}`),
		&withExtra,
	))

	original := Manifest{
		"1": {ID: 1, URL: "u1", Username: "alice", Width: 512, Height: 768},
		"2": withExtra,
	}

	require.NoError(t, store.Save(original))
	assert.True(t, store.Exists())
	assert.False(t, store.ModTime().IsZero())

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, original["1"].URL, loaded["1"].URL)
	assert.Equal(t, original["1"].Width, loaded["1"].Width)

	// Opaque fields survive the round trip
	require.Contains(t, loaded["2"].Extra, "nsfwLevel")
	assert.JSONEq(t, `"Soft"`, string(loaded["2"].Extra["nsfwLevel"]))
}

func TestSaveReplacesPreviousContent(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(Manifest{"1": {ID: 1}, "2": {ID: 2}}))
	require.NoError(t, store.Save(Manifest{"3": {ID: 3}}))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.True(t, loaded.Has("3"))
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(Manifest{"1": {ID: 1}}))

	_, err := os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadCorruptManifest(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{truncated"), 0644))

	_, err := store.Load()
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrManifestCorrupt))
	assert.True(t, errors.IsRunFatal(err))
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "nested", "deep", "alice_manifest.json"), logger.NewNopLogger())

	require.NoError(t, store.Save(Manifest{"1": {ID: 1}}))
	assert.True(t, store.Exists())
}
