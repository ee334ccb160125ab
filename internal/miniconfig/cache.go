package miniconfig

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/incbuild/incbuild/internal/logging"
)

// miniSuffix derives the side-car name: build.json -> build_mini.json
const miniSuffix = "_mini.json"

// CacheWriteError reports a failed side-car write. It is best-effort: the
// in-memory config for the current invocation is still valid, so callers
// log it rather than failing the build step.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("failed to write mini config cache %s: %v", e.Path, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// ConfigCache loads mini configs through a side-car cache file stored next
// to the source JSON. A fresh side-car skips the streaming parse entirely.
type ConfigCache struct {
	codec Codec

	// parse is swappable so tests can count invocations
	parse func(r io.Reader, v Visitor) error
}

// NewConfigCache creates a cache using the given serializer configuration.
func NewConfigCache(codec Codec) *ConfigCache {
	return &ConfigCache{
		codec: codec,
		parse: Parse,
	}
}

// CachedModelPath returns the side-car path for a source JSON file.
func CachedModelPath(sourceJSON string) string {
	dir := filepath.Dir(sourceJSON)
	base := strings.TrimSuffix(filepath.Base(sourceJSON), filepath.Ext(sourceJSON))

	return filepath.Join(dir, base+miniSuffix)
}

// Load returns the mini config for sourceJSON, reusing the side-car when it
// is up to date. Extra visitors are fanned into the streaming pass on a
// cache miss; on a cache hit the pass never runs and they see no callbacks.
func (c *ConfigCache) Load(sourceJSON string, extra ...Visitor) (*MiniConfig, error) {
	cachedModel := CachedModelPath(sourceJSON)

	if upToDate(cachedModel, sourceJSON) {
		config, err := c.readCached(cachedModel)
		if err == nil {
			return config, nil
		}

		// Corrupt or unreadable side-car degrades to a re-parse.
		logging.Warn("discarding unreadable mini config cache",
			zap.String("path", cachedModel), zap.Error(err))
	}

	config, err := c.parseSource(sourceJSON, extra)
	if err != nil {
		return nil, err
	}

	if err := c.writeCached(cachedModel, config); err != nil {
		logging.Warn("mini config cache write failed",
			zap.String("path", cachedModel), zap.Error(err))
	}

	return config, nil
}

// upToDate reports whether the cached model can be reused. Equal
// modification times count as fresh. Assumption carried over from the
// original behavior: on filesystems with coarse mtime resolution a
// same-tick rewrite of the source goes unnoticed until its mtime advances.
func upToDate(cachedModel, sourceJSON string) bool {
	cachedInfo, err := os.Stat(cachedModel)
	if err != nil {
		return false
	}

	sourceInfo, err := os.Stat(sourceJSON)
	if err != nil {
		return false
	}

	return !cachedInfo.ModTime().Before(sourceInfo.ModTime())
}

func (c *ConfigCache) readCached(cachedModel string) (*MiniConfig, error) {
	f, err := os.Open(cachedModel)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return c.codec.Decode(f)
}

func (c *ConfigCache) parseSource(sourceJSON string, extra []Visitor) (*MiniConfig, error) {
	f, err := os.Open(sourceJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to open build config: %w", err)
	}
	defer f.Close()

	builder := NewBuilder()
	visitor := Visitor(builder)
	if len(extra) > 0 {
		visitor = NewCompositeVisitor(append([]Visitor{builder}, extra...)...)
	}

	if err := c.parse(f, visitor); err != nil {
		return nil, err
	}

	return builder.Build()
}

// writeCached writes the side-car atomically: a partial write must never be
// observable as a valid cache file.
func (c *ConfigCache) writeCached(cachedModel string, config *MiniConfig) error {
	tmp, err := os.CreateTemp(filepath.Dir(cachedModel), ".tmp-"+filepath.Base(cachedModel)+"-")
	if err != nil {
		return &CacheWriteError{Path: cachedModel, Err: err}
	}

	if err := c.codec.Encode(tmp, config); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return &CacheWriteError{Path: cachedModel, Err: err}
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return &CacheWriteError{Path: cachedModel, Err: err}
	}

	if err := os.Rename(tmp.Name(), cachedModel); err != nil {
		os.Remove(tmp.Name())

		return &CacheWriteError{Path: cachedModel, Err: err}
	}

	return nil
}
