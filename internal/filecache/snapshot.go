package filecache

import "time"

// Entry is one file in a snapshot: an archive- or directory-relative path
// plus the identity used for change detection. Two entries with the same
// name, crc32, and size are considered unchanged even if other metadata
// (timestamps) differs.
type Entry struct {
	// Name is the relative path as encoded in the source (forward
	// slashes for zip entries)
	Name string `json:"name"`

	// CRC32 of the entry contents
	CRC32 uint32 `json:"crc32"`

	// Size is the uncompressed size in bytes
	Size uint64 `json:"size"`
}

// SourceKind identifies what a snapshot was taken from.
type SourceKind string

const (
	KindZip       SourceKind = "zip"
	KindDirectory SourceKind = "dir"
)

// Snapshot records the state of a source (zip archive or directory tree)
// at one point in time. It is the baseline the differ compares against.
type Snapshot struct {
	// Source is the absolute path of the snapshotted file or directory
	Source string `json:"source"`

	// Kind records whether the source was a zip or a directory
	Kind SourceKind `json:"kind"`

	// Taken is when the snapshot was captured
	Taken time.Time `json:"taken"`

	// Entries lists the files in the source, sorted by name
	Entries []Entry `json:"entries"`
}

// Index returns the entries keyed by name. Duplicate names (legal in zip
// archives) resolve to the last entry, matching extraction behavior.
func (s *Snapshot) Index() map[string]Entry {
	index := make(map[string]Entry, len(s.Entries))
	for _, e := range s.Entries {
		index[e.Name] = e
	}

	return index
}
