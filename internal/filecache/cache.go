// Package filecache persists per-source file-set snapshots across builds.
//
// The cache is a keyed store: one entry per source path, holding the
// snapshot of that source's previous state. The incremental differ reads
// the snapshot as its baseline and schedules a replacement once its
// consumer has committed the corresponding delta. Metadata lives in BoltDB
// so the baseline survives process restarts.
package filecache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// DefaultCacheDir is the default cache directory name
	DefaultCacheDir = ".incbuild-cache"

	// bucketName is the BoltDB bucket name for snapshots
	bucketName = "snapshots"
)

// Cache is a persistent mapping from source path to its last committed
// snapshot. At most one entry exists per source path; Put is
// last-write-wins.
type Cache struct {
	db   *bbolt.DB
	root string
}

// New creates a cache rooted at cacheDir.
// If cacheDir is empty, uses DefaultCacheDir in the current working directory.
func New(cacheDir string) (*Cache, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}

		cacheDir = filepath.Join(cwd, DefaultCacheDir)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(cacheDir, "filesets.db")
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &Cache{
		db:   db,
		root: cacheDir,
	}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}

	return nil
}

// Get retrieves the snapshot recorded for a source path.
// Returns nil if cache miss.
func (c *Cache) Get(source string) (*Snapshot, error) {
	var snapshot *Snapshot

	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data := b.Get([]byte(source))
		if data == nil {
			return nil // Cache miss
		}

		snapshot = &Snapshot{}
		return json.Unmarshal(data, snapshot)
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// Put records a snapshot, replacing any prior entry for its source path.
func (c *Cache) Put(snapshot *Snapshot) error {
	if snapshot.Source == "" {
		return fmt.Errorf("snapshot has no source path")
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data, err := json.Marshal(snapshot)
		if err != nil {
			return err
		}

		return b.Put([]byte(snapshot.Source), data)
	})
}

// Remove deletes the entry for a source path. Removing an absent entry is
// not an error.
func (c *Cache) Remove(source string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		return b.Delete([]byte(source))
	})
}

// Clear removes all snapshots.
func (c *Cache) Clear() error {
	err := c.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket([]byte(bucketName))
	})
	if err != nil {
		return err
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Stats returns the number of cached snapshots and total entries across them.
func (c *Cache) Stats() (int, int, error) {
	var snapshots, entries int

	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		return b.ForEach(func(_, data []byte) error {
			var s Snapshot
			if err := json.Unmarshal(data, &s); err != nil {
				return err
			}

			snapshots++
			entries += len(s.Entries)

			return nil
		})
	})
	if err != nil {
		return 0, 0, err
	}

	return snapshots, entries, nil
}
