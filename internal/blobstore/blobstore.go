// Package blobstore implements the on-disk failover/snapshot tiers: a flat
// directory of files named by a composite key, read and written under an
// advisory exclusive lock, with read/write/delete all best-effort so a full
// disk or a permissions problem degrades to "behave as if absent" rather
// than surfacing to the caller.
package blobstore

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Store is a single flat directory of key -> content files.
type Store struct {
	dir string
	log *slog.Logger
}

// New returns a Store rooted at dir. The directory is not created until the
// first Write, matching the original's lazy os.makedirs on save.
func New(dir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{dir: dir, log: log}
}

// Read returns the file's content, or ("", false) if the file does not
// exist or could not be read. I/O errors are logged and treated as absent,
// never returned to the caller, since the failover/snapshot tiers exist
// precisely to stay usable when the filesystem underneath them is flaky.
func (s *Store) Read(key string) (string, bool) {
	path := filepath.Join(s.dir, key)
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("blobstore: read failed", "path", path, "error", err)
		}
		return "", false
	}
	defer f.Close()

	if err := lockExclusive(f); err != nil {
		s.log.Warn("blobstore: lock failed", "path", path, "error", err)
		return "", false
	}
	defer unlock(f)

	content, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("blobstore: read failed", "path", path, "error", err)
		return "", false
	}
	return string(content), true
}

// Write persists content under key, creating the directory and file as
// needed. Failures are logged, not returned: a failed snapshot write should
// not fail the Publish/Get call that triggered it.
func (s *Store) Write(key, content string) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.log.Warn("blobstore: mkdir failed", "dir", s.dir, "error", err)
	}

	path := filepath.Join(s.dir, key)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		s.log.Warn("blobstore: write failed", "path", path, "error", err)
		return
	}
	defer f.Close()

	if err := lockExclusive(f); err != nil {
		s.log.Warn("blobstore: lock failed", "path", path, "error", err)
		return
	}
	defer unlock(f)

	if _, err := f.WriteString(content); err != nil {
		s.log.Warn("blobstore: write failed", "path", path, "error", err)
	}
}

// Delete removes key's file, if present. A missing file is not an error.
func (s *Store) Delete(key string) {
	path := filepath.Join(s.dir, key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("blobstore: delete failed", "path", path, "error", err)
	}
}
