package mocks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

type memFile struct {
	data      []byte
	createdAt time.Time
	modTime   time.Time
}

// FileSystem is a thread-safe in-memory test double for ports.FileSystem.
// New files are stamped with the time returned by its clock.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string]*memFile
	dirs  map[string]bool
	clock ports.Clock

	mkdirErr  map[string]error
	writeErr  map[string]error
	removeErr map[string]error
}

// NewFileSystem creates a new FileSystem mock using clock for timestamps.
// A nil clock means the wall clock.
func NewFileSystem(clock ports.Clock) *FileSystem {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &FileSystem{
		files:     make(map[string]*memFile),
		dirs:      make(map[string]bool),
		clock:     clock,
		mkdirErr:  make(map[string]error),
		writeErr:  make(map[string]error),
		removeErr: make(map[string]error),
	}
}

// AddFile adds a file created at the clock's current time.
func (fs *FileSystem) AddFile(path, content string) {
	fs.AddFileAt(path, content, fs.clock.Now())
}

// AddFileAt adds a file with an explicit creation time.
func (fs *FileSystem) AddFileAt(path, content string, createdAt time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[filepath.Clean(path)] = &memFile{data: []byte(content), createdAt: createdAt, modTime: createdAt}
}

// FailMkdir makes MkdirAll on path return err.
func (fs *FileSystem) FailMkdir(path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.mkdirErr[filepath.Clean(path)] = err
}

// FailWrite makes WriteFile on path return err.
func (fs *FileSystem) FailWrite(path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.writeErr[filepath.Clean(path)] = err
}

// FailRemove makes Remove and RemoveAll on path return err.
func (fs *FileSystem) FailRemove(path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.removeErr[filepath.Clean(path)] = err
}

// Content returns a file's content and whether it exists.
func (fs *FileSystem) Content(path string) (string, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	f, ok := fs.files[filepath.Clean(path)]
	if !ok {
		return "", false
	}
	return string(f.data), true
}

// ReadFile reads a file from the mock filesystem.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if f, ok := fs.files[filepath.Clean(path)]; ok {
		return append([]byte(nil), f.data...), nil
	}
	return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
}

// WriteFile replaces a file; the replacement gets a fresh creation time.
func (fs *FileSystem) WriteFile(path string, data []byte, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	if err, ok := fs.writeErr[path]; ok {
		return err
	}
	if !fs.dirs[filepath.Dir(path)] {
		return fmt.Errorf("write %s: %w", path, os.ErrNotExist)
	}
	now := fs.clock.Now()
	fs.files[path] = &memFile{data: append([]byte(nil), data...), createdAt: now, modTime: now}
	return nil
}

// Exists checks if a file or directory exists.
func (fs *FileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	path = filepath.Clean(path)
	_, isFile := fs.files[path]
	return isFile || fs.dirs[path]
}

// IsDir checks if a path is a directory.
func (fs *FileSystem) IsDir(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.dirs[filepath.Clean(path)]
}

// Stat returns metadata about a file or directory.
func (fs *FileSystem) Stat(path string) (ports.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	path = filepath.Clean(path)

	if f, ok := fs.files[path]; ok {
		return ports.FileInfo{
			Size:      int64(len(f.data)),
			Mode:      0o644,
			ModTime:   f.modTime,
			CreatedAt: f.createdAt,
		}, nil
	}
	if fs.dirs[path] {
		return ports.FileInfo{Mode: os.ModeDir | 0o755, IsDir: true}, nil
	}
	return ports.FileInfo{}, fmt.Errorf("stat %s: %w", path, os.ErrNotExist)
}

// MkdirAll records path and all of its parents as directories.
func (fs *FileSystem) MkdirAll(path string, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	if err, ok := fs.mkdirErr[path]; ok {
		return err
	}
	for p := path; ; p = filepath.Dir(p) {
		fs.dirs[p] = true
		if parent := filepath.Dir(p); parent == p {
			break
		}
	}
	return nil
}

// Remove removes a file or empty directory.
func (fs *FileSystem) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	if err, ok := fs.removeErr[path]; ok {
		return err
	}
	if _, ok := fs.files[path]; ok {
		delete(fs.files, path)
		return nil
	}
	if fs.dirs[path] {
		delete(fs.dirs, path)
		return nil
	}
	return fmt.Errorf("remove %s: %w", path, os.ErrNotExist)
}

// RemoveAll removes path and everything beneath it.
func (fs *FileSystem) RemoveAll(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	path = filepath.Clean(path)
	if err, ok := fs.removeErr[path]; ok {
		return err
	}
	prefix := path + string(filepath.Separator)
	for p := range fs.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(fs.files, p)
		}
	}
	for p := range fs.dirs {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(fs.dirs, p)
		}
	}
	return nil
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
