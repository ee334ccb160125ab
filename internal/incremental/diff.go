package incremental

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/incbuild/incbuild/internal/filecache"
)

// Diff computes the per-path change set between the current state of
// source and its cached baseline. Four cases, evaluated in order:
//
//  1. no baseline, source absent: empty delta, no cache update
//  2. no baseline, source present: every entry NEW, deferred cache add
//  3. baseline, source absent: every baseline entry REMOVED, deferred
//     cache remove
//  4. both present: NEW/CHANGED/REMOVED per entry identity (name, crc32,
//     size), unchanged entries omitted, deferred cache add
//
// The returned map's iteration order is unspecified. The updates are not
// applied; see Apply.
func Diff(source string, cache *filecache.Cache) (map[RelativeFile]Status, []CacheUpdate, error) {
	source, err := filepath.Abs(source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve source path: %w", err)
	}

	baseline, err := cache.Get(source)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read baseline: %w", err)
	}

	exists, err := sourceExists(source)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case baseline == nil && !exists:
		return map[RelativeFile]Status{}, nil, nil

	case baseline == nil:
		snapshot, err := TakeSnapshot(source)
		if err != nil {
			return nil, nil, err
		}

		delta := make(map[RelativeFile]Status, len(snapshot.Entries))
		for _, e := range snapshot.Entries {
			delta[RelativeFile{Base: source, RelativePath: e.Name}] = StatusNew
		}

		return delta, []CacheUpdate{{Op: OpAdd, Snapshot: snapshot}}, nil

	case !exists:
		delta := make(map[RelativeFile]Status, len(baseline.Entries))
		for _, e := range baseline.Entries {
			delta[RelativeFile{Base: source, RelativePath: e.Name}] = StatusRemoved
		}

		return delta, []CacheUpdate{{Op: OpRemove, Path: source}}, nil

	default:
		snapshot, err := TakeSnapshot(source)
		if err != nil {
			return nil, nil, err
		}

		delta := compare(source, baseline, snapshot)

		return delta, []CacheUpdate{{Op: OpAdd, Snapshot: snapshot}}, nil
	}
}

// compare classifies every path present in either snapshot. Identity is
// (name, crc32, size); path match is exact and case-sensitive.
func compare(source string, baseline, current *filecache.Snapshot) map[RelativeFile]Status {
	baselineIndex := baseline.Index()
	currentIndex := current.Index()

	delta := make(map[RelativeFile]Status)

	for name, entry := range currentIndex {
		prev, ok := baselineIndex[name]
		switch {
		case !ok:
			delta[RelativeFile{Base: source, RelativePath: name}] = StatusNew
		case prev.CRC32 != entry.CRC32 || prev.Size != entry.Size:
			delta[RelativeFile{Base: source, RelativePath: name}] = StatusChanged
		}
	}

	for name := range baselineIndex {
		if _, ok := currentIndex[name]; !ok {
			delta[RelativeFile{Base: source, RelativePath: name}] = StatusRemoved
		}
	}

	return delta
}

func sourceExists(source string) (bool, error) {
	_, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to stat source: %w", err)
	}

	return true, nil
}
