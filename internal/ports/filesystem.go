package ports

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileInfo contains the file metadata the registry cache and vault need.
type FileInfo struct {
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
	// CreatedAt is the file birth time where the platform records one,
	// otherwise the modification time.
	CreatedAt time.Time
	IsDir     bool
}

// FileSystem provides file system operations.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces path atomically so readers never see a partial file
	// and the replacement carries a fresh creation time.
	WriteFile(path string, data []byte, perm os.FileMode) error
	Exists(path string) bool
	IsDir(path string) bool
	Stat(path string) (FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	RemoveAll(path string) error
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
