package miniconfig

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingCache wraps a ConfigCache with a parse-invocation counter.
func countingCache() (*ConfigCache, *int) {
	cache := NewConfigCache(DefaultCodec())

	count := 0
	cache.parse = func(r io.Reader, v Visitor) error {
		count++
		return Parse(r, v)
	}

	return cache, &count
}

func writeSource(t *testing.T, doc string) string {
	t.Helper()

	source := filepath.Join(t.TempDir(), "build.json")
	require.NoError(t, os.WriteFile(source, []byte(doc), 0o644))

	return source
}

func TestCachedModelPath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("some", "dir", "build_mini.json"),
		CachedModelPath(filepath.Join("some", "dir", "build.json")))
}

func TestConfigCache_ParsesOnceWhenFresh(t *testing.T) {
	source := writeSource(t, sampleConfig)
	cache, parses := countingCache()

	first, err := cache.Load(source)
	require.NoError(t, err)
	require.Equal(t, 1, *parses)

	second, err := cache.Load(source)
	require.NoError(t, err)
	assert.Equal(t, 1, *parses, "fresh side-car must not re-invoke the parser")
	assert.True(t, first.Equal(second))
}

func TestConfigCache_EqualTimestampsCountAsFresh(t *testing.T) {
	source := writeSource(t, sampleConfig)
	cache, parses := countingCache()

	_, err := cache.Load(source)
	require.NoError(t, err)

	// Force source and side-car to the exact same timestamp.
	now := time.Now().Truncate(time.Second)
	require.NoError(t, os.Chtimes(source, now, now))
	require.NoError(t, os.Chtimes(CachedModelPath(source), now, now))

	_, err = cache.Load(source)
	require.NoError(t, err)
	assert.Equal(t, 1, *parses, "equal mtimes favor the cache")
}

func TestConfigCache_ReparsesWhenSourceNewer(t *testing.T) {
	source := writeSource(t, sampleConfig)
	cache, parses := countingCache()

	_, err := cache.Load(source)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(source, future, future))

	_, err = cache.Load(source)
	require.NoError(t, err)
	assert.Equal(t, 2, *parses, "newer source must invalidate the side-car")
}

func TestConfigCache_CorruptSideCarFallsBackToParse(t *testing.T) {
	source := writeSource(t, sampleConfig)
	cache, parses := countingCache()

	_, err := cache.Load(source)
	require.NoError(t, err)

	// Corrupt the side-car but keep it newer than the source.
	cachedModel := CachedModelPath(source)
	require.NoError(t, os.WriteFile(cachedModel, []byte("{ not json"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(cachedModel, future, future))

	config, err := cache.Load(source)
	require.NoError(t, err, "corrupt side-car degrades to a re-parse, not an error")
	assert.Equal(t, 2, *parses)
	assert.Len(t, config.Libraries, 2)
}

func TestConfigCache_WriteFailureStillReturnsConfig(t *testing.T) {
	source := writeSource(t, sampleConfig)

	// Occupy the side-car path with a directory so the cache write cannot
	// land, regardless of the user the tests run as.
	require.NoError(t, os.Mkdir(CachedModelPath(source), 0o755))

	cache, parses := countingCache()

	config, err := cache.Load(source)
	require.NoError(t, err, "cache write failure is best-effort, not fatal")
	assert.Equal(t, 1, *parses)
	assert.Len(t, config.Libraries, 2)

	// The blocked side-car means every load re-parses; none of them fail.
	second, err := cache.Load(source)
	require.NoError(t, err)
	assert.Equal(t, 2, *parses)
	assert.True(t, config.Equal(second))

	// The underlying failure carries the typed error.
	err = cache.writeCached(CachedModelPath(source), config)
	var writeErr *CacheWriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, CachedModelPath(source), writeErr.Path)
}

func TestConfigCache_SideCarRoundTrip(t *testing.T) {
	source := writeSource(t, sampleConfig)
	cache, _ := countingCache()

	parsed, err := cache.Load(source)
	require.NoError(t, err)

	// A second cache instance must reproduce the model from the side-car
	// alone.
	reloaded, err := NewConfigCache(DefaultCodec()).Load(source)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(reloaded))
}

func TestConfigCache_ParseFailureLeavesNoSideCar(t *testing.T) {
	source := writeSource(t, `{"libraries": {"broken"`)
	cache, _ := countingCache()

	_, err := cache.Load(source)
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)

	_, statErr := os.Stat(CachedModelPath(source))
	assert.True(t, os.IsNotExist(statErr), "failed parse must not produce a side-car")
}

func TestCodec_SlashPaths(t *testing.T) {
	codec := Codec{Indent: " ", SlashPaths: true}

	config := &MiniConfig{
		Libraries: map[string]*LibraryValue{
			"a": {Abi: "x86", ArtifactName: "a", BuildCommand: "b", Output: filepath.Join("out", "liba.so")},
		},
		BuildFiles: []string{filepath.Join("src", "CMakeLists.txt")},
	}

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, config))

	assert.Contains(t, buf.String(), "out/liba.so")
	assert.Contains(t, buf.String(), "src/CMakeLists.txt")
}
