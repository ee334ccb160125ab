// Package incremental computes relative-file-set deltas between a source
// (zip archive or directory tree) and its cached baseline snapshot.
//
// A diff never mutates the snapshot cache directly. It returns an ordered
// list of deferred cache updates that the caller applies only after the
// delta's consumer has committed the corresponding change. An uncommitted
// baseline means a retry recomputes the same delta instead of silently
// skipping it.
package incremental

import "fmt"

// Status classifies one relative path in a diff. Unchanged entries are
// never emitted.
type Status int

const (
	// StatusNew marks a path present in the source but not the baseline
	StatusNew Status = iota

	// StatusChanged marks a path present in both with differing
	// crc32 or size
	StatusChanged

	// StatusRemoved marks a path present in the baseline but not the source
	StatusRemoved
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusChanged:
		return "CHANGED"
	case StatusRemoved:
		return "REMOVED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// RelativeFile identifies a file by its source (the zip or directory it
// came from) and its path relative to that source. Path comparison during
// diffing is an exact, case-sensitive match on RelativePath; no separator
// normalization happens beyond what the source already encodes.
type RelativeFile struct {
	// Base is the absolute path of the source zip or directory
	Base string

	// RelativePath is the path within the source
	RelativePath string
}
