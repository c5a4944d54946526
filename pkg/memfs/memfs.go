package memfs

import (
	"errors"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// Common errors
var (
	ErrNotFound = errors.New("file not found")
	ErrExists   = errors.New("file exists and overwrite is not allowed")
	ErrIsRoot   = errors.New("cannot write to the root path")
)

// PathError records an error and the operation and path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// WriteOptions controls how WriteFile treats absent and existing entries
type WriteOptions struct {
	// Create allows a new entry to be created when none exists
	Create bool
	// Overwrite allows an existing entry to be replaced
	Overwrite bool
}

// FileInfo describes a stored file
type FileInfo struct {
	Path    string
	Size    int
	Created time.Time
	ModTime time.Time
}

// Name returns the last element of the file path
func (fi FileInfo) Name() string {
	return path.Base(fi.Path)
}

type entry struct {
	data    []byte
	created time.Time
	mtime   time.Time
}

// FS is an in-memory file store keyed by slash-separated virtual paths.
// Entries live for the lifetime of the FS; nothing is ever evicted.
type FS struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates an empty file store
func New() *FS {
	return &FS{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Clean normalises a virtual path to a rooted, cleaned form
func Clean(p string) string {
	return path.Clean("/" + strings.TrimLeft(p, "/"))
}

// Join joins path elements into a single rooted virtual path
func Join(elem ...string) string {
	return Clean(path.Join(elem...))
}

// WriteFile stores data under p according to opts. The store keeps its own
// copy of data.
func (fs *FS) WriteFile(p string, data []byte, opts WriteOptions) error {
	p = Clean(p)
	if p == "/" {
		return &PathError{Op: "write", Path: p, Err: ErrIsRoot}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := fs.now()
	existing, ok := fs.entries[p]
	switch {
	case !ok && !opts.Create:
		return &PathError{Op: "write", Path: p, Err: ErrNotFound}
	case ok && !opts.Overwrite:
		return &PathError{Op: "write", Path: p, Err: ErrExists}
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	if ok {
		existing.data = buf
		existing.mtime = now
		return nil
	}

	fs.entries[p] = &entry{data: buf, created: now, mtime: now}
	return nil
}

// ReadFile returns a copy of the bytes stored under p
func (fs *FS) ReadFile(p string) ([]byte, error) {
	p = Clean(p)

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	e, ok := fs.entries[p]
	if !ok {
		return nil, &PathError{Op: "read", Path: p, Err: ErrNotFound}
	}

	buf := make([]byte, len(e.data))
	copy(buf, e.data)
	return buf, nil
}

// Remove deletes the file stored under p
func (fs *FS) Remove(p string) error {
	p = Clean(p)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.entries[p]; !ok {
		return &PathError{Op: "remove", Path: p, Err: ErrNotFound}
	}
	delete(fs.entries, p)
	return nil
}

// Stat returns metadata for the file stored under p
func (fs *FS) Stat(p string) (FileInfo, error) {
	p = Clean(p)

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	e, ok := fs.entries[p]
	if !ok {
		return FileInfo{}, &PathError{Op: "stat", Path: p, Err: ErrNotFound}
	}
	return FileInfo{Path: p, Size: len(e.data), Created: e.created, ModTime: e.mtime}, nil
}

// List returns the sorted paths of all files under prefix
func (fs *FS) List(prefix string) []string {
	prefix = Clean(prefix)
	if prefix != "/" {
		prefix += "/"
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var paths []string
	for p := range fs.entries {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of stored files
func (fs *FS) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.entries)
}
