package incremental

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incbuild/incbuild/internal/filecache"
)

// writeZip creates a zip at path with the given name -> content entries.
func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
}

func newCache(t *testing.T) *filecache.Cache {
	t.Helper()

	cache, err := filecache.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache
}

// statuses flattens a delta to relativePath -> status for assertions.
func statuses(delta map[RelativeFile]Status) map[string]Status {
	out := make(map[string]Status, len(delta))
	for f, s := range delta {
		out[f.RelativePath] = s
	}

	return out
}

func TestDiff_NoBaselineNoSource(t *testing.T) {
	cache := newCache(t)
	missing := filepath.Join(t.TempDir(), "never-created.zip")

	delta, updates, err := Diff(missing, cache)
	require.NoError(t, err)
	assert.Empty(t, delta, "nothing to report")
	assert.Empty(t, updates, "nothing to cache")
}

func TestDiff_NoBaselineSourcePresent(t *testing.T) {
	cache := newCache(t)
	source := filepath.Join(t.TempDir(), "archive.zip")
	writeZip(t, source, map[string]string{"a.txt": "alpha", "lib/b.so": "beta"})

	delta, updates, err := Diff(source, cache)
	require.NoError(t, err)

	assert.Equal(t, map[string]Status{
		"a.txt":    StatusNew,
		"lib/b.so": StatusNew,
	}, statuses(delta))

	require.Len(t, updates, 1)
	assert.Equal(t, OpAdd, updates[0].Op)

	// The base of every relative file is the source archive.
	abs, err := filepath.Abs(source)
	require.NoError(t, err)
	for f := range delta {
		assert.Equal(t, abs, f.Base)
	}
}

func TestDiff_BaselineSourceDeleted(t *testing.T) {
	cache := newCache(t)
	source := filepath.Join(t.TempDir(), "archive.zip")
	writeZip(t, source, map[string]string{"a.txt": "alpha", "b.txt": "bravo"})

	_, updates, err := Diff(source, cache)
	require.NoError(t, err)
	require.NoError(t, Apply(updates, cache))

	require.NoError(t, os.Remove(source))

	delta, updates, err := Diff(source, cache)
	require.NoError(t, err)

	assert.Equal(t, map[string]Status{
		"a.txt": StatusRemoved,
		"b.txt": StatusRemoved,
	}, statuses(delta))

	require.Len(t, updates, 1)
	assert.Equal(t, OpRemove, updates[0].Op)

	// After committing the removal the source is fully forgotten.
	require.NoError(t, Apply(updates, cache))
	delta, updates, err = Diff(source, cache)
	require.NoError(t, err)
	assert.Empty(t, delta)
	assert.Empty(t, updates)
}

func TestDiff_ChangedAndNew(t *testing.T) {
	cache := newCache(t)
	dir := t.TempDir()
	source := filepath.Join(dir, "archive.zip")

	// Baseline: a.txt only.
	writeZip(t, source, map[string]string{"a.txt": "0123456789"})
	_, updates, err := Diff(source, cache)
	require.NoError(t, err)
	require.NoError(t, Apply(updates, cache))

	// Same size, different content (different crc), plus a new entry.
	writeZip(t, source, map[string]string{"a.txt": "9876543210", "b.txt": "abc"})

	delta, updates, err := Diff(source, cache)
	require.NoError(t, err)

	assert.Equal(t, map[string]Status{
		"a.txt": StatusChanged,
		"b.txt": StatusNew,
	}, statuses(delta))
	require.Len(t, updates, 1)
	assert.Equal(t, OpAdd, updates[0].Op)
}

func TestDiff_RemovedEntry(t *testing.T) {
	cache := newCache(t)
	source := filepath.Join(t.TempDir(), "archive.zip")

	writeZip(t, source, map[string]string{"a.txt": "alpha", "b.txt": "bravo"})
	_, updates, err := Diff(source, cache)
	require.NoError(t, err)
	require.NoError(t, Apply(updates, cache))

	// a.txt unchanged, b.txt gone.
	writeZip(t, source, map[string]string{"a.txt": "alpha"})

	delta, _, err := Diff(source, cache)
	require.NoError(t, err)

	assert.Equal(t, map[string]Status{"b.txt": StatusRemoved}, statuses(delta))
}

func TestDiff_UnchangedEntriesOmitted(t *testing.T) {
	cache := newCache(t)
	source := filepath.Join(t.TempDir(), "archive.zip")
	writeZip(t, source, map[string]string{"a.txt": "alpha"})

	_, updates, err := Diff(source, cache)
	require.NoError(t, err)
	require.NoError(t, Apply(updates, cache))

	delta, _, err := Diff(source, cache)
	require.NoError(t, err)
	assert.Empty(t, delta, "identical source yields an empty delta")
}

func TestDiff_DeferredCommitReproducesDelta(t *testing.T) {
	cache := newCache(t)
	source := filepath.Join(t.TempDir(), "archive.zip")
	writeZip(t, source, map[string]string{"a.txt": "alpha"})

	first, updates, err := Diff(source, cache)
	require.NoError(t, err)
	require.Len(t, updates, 1)

	// Updates never applied: a retry must see the identical delta.
	second, _, err := Diff(source, cache)
	require.NoError(t, err)
	assert.Equal(t, statuses(first), statuses(second))

	// And once committed, the delta drains.
	require.NoError(t, Apply(updates, cache))
	third, _, err := Diff(source, cache)
	require.NoError(t, err)
	assert.Empty(t, third)
}

func TestDiff_CaseSensitivePathMatch(t *testing.T) {
	cache := newCache(t)
	source := filepath.Join(t.TempDir(), "archive.zip")

	writeZip(t, source, map[string]string{"Readme.md": "hello"})
	_, updates, err := Diff(source, cache)
	require.NoError(t, err)
	require.NoError(t, Apply(updates, cache))

	writeZip(t, source, map[string]string{"readme.md": "hello"})

	delta, _, err := Diff(source, cache)
	require.NoError(t, err)

	assert.Equal(t, map[string]Status{
		"readme.md": StatusNew,
		"Readme.md": StatusRemoved,
	}, statuses(delta))
}

func TestDiff_MalformedArchiveLeavesCacheUntouched(t *testing.T) {
	cache := newCache(t)
	source := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(source, []byte("this is not a zip"), 0o644))

	_, updates, err := Diff(source, cache)
	require.Error(t, err)

	var malformed *MalformedArchiveError
	require.ErrorAs(t, err, &malformed)
	assert.Empty(t, updates, "no partial cache update may be scheduled")

	abs, err := filepath.Abs(source)
	require.NoError(t, err)
	baseline, err := cache.Get(abs)
	require.NoError(t, err)
	assert.Nil(t, baseline)
}

func TestDiff_DirectorySource(t *testing.T) {
	cache := newCache(t)
	source := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(source, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "lib", "b.so"), []byte("beta"), 0o644))

	delta, updates, err := Diff(source, cache)
	require.NoError(t, err)

	assert.Equal(t, map[string]Status{
		"a.txt":    StatusNew,
		"lib/b.so": StatusNew,
	}, statuses(delta))
	require.NoError(t, Apply(updates, cache))

	// Touching mtime alone does not change identity.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(source, "a.txt"), future, future))

	delta, _, err = Diff(source, cache)
	require.NoError(t, err)
	assert.Empty(t, delta, "identity is (name, crc32, size), not mtime")

	// Content change is detected.
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("ALPHA"), 0o644))

	delta, _, err = Diff(source, cache)
	require.NoError(t, err)
	assert.Equal(t, map[string]Status{"a.txt": StatusChanged}, statuses(delta))
}

func TestTakeSnapshot_ZipEntriesSorted(t *testing.T) {
	source := filepath.Join(t.TempDir(), "archive.zip")
	writeZip(t, source, map[string]string{"z.txt": "z", "a.txt": "a", "m/n.txt": "n"})

	snapshot, err := TakeSnapshot(source)
	require.NoError(t, err)

	require.Len(t, snapshot.Entries, 3)
	assert.Equal(t, "a.txt", snapshot.Entries[0].Name)
	assert.Equal(t, "m/n.txt", snapshot.Entries[1].Name)
	assert.Equal(t, "z.txt", snapshot.Entries[2].Name)
	assert.Equal(t, filecache.KindZip, snapshot.Kind)

	for _, e := range snapshot.Entries {
		assert.NotZero(t, e.Size)
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "NEW", StatusNew.String())
	assert.Equal(t, "CHANGED", StatusChanged.String())
	assert.Equal(t, "REMOVED", StatusRemoved.String())
}
