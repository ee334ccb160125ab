package incremental

import (
	"fmt"

	"github.com/incbuild/incbuild/internal/filecache"
)

// UpdateOp tags a deferred cache mutation.
type UpdateOp int

const (
	// OpAdd records (or replaces) a snapshot as the new baseline
	OpAdd UpdateOp = iota

	// OpRemove deletes the baseline for a source path
	OpRemove
)

// CacheUpdate is one deferred cache mutation produced by a diff. Updates
// are tagged commands rather than closures so the compute/commit split is
// visible to the caller: nothing touches the cache until Apply.
type CacheUpdate struct {
	Op UpdateOp

	// Snapshot is the new baseline for OpAdd
	Snapshot *filecache.Snapshot

	// Path is the source path for OpRemove
	Path string
}

// Apply commits one update to the cache.
func (u CacheUpdate) Apply(cache *filecache.Cache) error {
	switch u.Op {
	case OpAdd:
		return cache.Put(u.Snapshot)
	case OpRemove:
		return cache.Remove(u.Path)
	default:
		return fmt.Errorf("unknown cache update op %d", u.Op)
	}
}

// Apply commits updates in order, stopping at the first failure. Call it
// only after the diff's consumer has successfully applied the delta;
// skipping it leaves the baseline at the last committed state so a retry
// reproduces the same delta.
func Apply(updates []CacheUpdate, cache *filecache.Cache) error {
	for _, u := range updates {
		if err := u.Apply(cache); err != nil {
			return err
		}
	}

	return nil
}
