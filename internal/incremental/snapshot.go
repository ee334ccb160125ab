package incremental

import (
	"archive/zip"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/incbuild/incbuild/internal/filecache"
)

// MalformedArchiveError reports a source path that exists but cannot be
// read as a zip archive. The diff that hit it schedules no cache update.
type MalformedArchiveError struct {
	Path string
	Err  error
}

func (e *MalformedArchiveError) Error() string {
	return fmt.Sprintf("malformed archive %s: %v", e.Path, e.Err)
}

func (e *MalformedArchiveError) Unwrap() error { return e.Err }

// TakeSnapshot captures the current state of a source. A directory is
// walked recursively; a regular file must be a valid zip archive, read via
// its central directory only. Entries come back sorted by name.
func TakeSnapshot(source string) (*filecache.Snapshot, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}

	if info.IsDir() {
		return takeDirSnapshot(source)
	}

	return takeZipSnapshot(source)
}

// takeZipSnapshot reads only the central directory: name, crc32, and
// uncompressed size per entry. Nothing is decompressed.
func takeZipSnapshot(source string) (*filecache.Snapshot, error) {
	r, err := zip.OpenReader(source)
	if err != nil {
		return nil, &MalformedArchiveError{Path: source, Err: err}
	}
	defer r.Close()

	entries := make([]filecache.Entry, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		entries = append(entries, filecache.Entry{
			Name:  f.Name,
			CRC32: f.CRC32,
			Size:  f.UncompressedSize64,
		})
	}

	sortEntries(entries)

	return &filecache.Snapshot{
		Source:  source,
		Kind:    filecache.KindZip,
		Taken:   time.Now(),
		Entries: entries,
	}, nil
}

// takeDirSnapshot walks the tree and hashes file contents with crc32, so
// directory entries stay comparable with zip central-directory entries.
func takeDirSnapshot(source string) (*filecache.Snapshot, error) {
	var entries []filecache.Entry

	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		crc, err := crcFile(path)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}

		entries = append(entries, filecache.Entry{
			Name:  filepath.ToSlash(rel),
			CRC32: crc,
			Size:  uint64(info.Size()),
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", source, err)
	}

	sortEntries(entries)

	return &filecache.Snapshot{
		Source:  source,
		Kind:    filecache.KindDirectory,
		Taken:   time.Now(),
		Entries: entries,
	}, nil
}

func crcFile(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := crc32.NewIEEE()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}

	return h.Sum32(), nil
}

func sortEntries(entries []filecache.Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}
