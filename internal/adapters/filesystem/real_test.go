package filesystem

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewRealFileSystem(t *testing.T) {
	fs := NewRealFileSystem()
	if fs == nil {
		t.Error("NewRealFileSystem() should not return nil")
	}
}

func TestRealFileSystem_Integration(t *testing.T) {
	fs := NewRealFileSystem()
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "community-plugins.json")
	if err := fs.WriteFile(testFile, []byte(`["dataview"]`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	content, err := fs.ReadFile(testFile)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(content) != `["dataview"]` {
		t.Errorf("ReadFile() = %q, want %q", string(content), `["dataview"]`)
	}

	if !fs.Exists(testFile) {
		t.Error("Exists() should return true")
	}
	if fs.IsDir(testFile) {
		t.Error("IsDir() should return false for a file")
	}

	nested := filepath.Join(tmpDir, "plugins", "dataview")
	if err := fs.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if !fs.IsDir(nested) {
		t.Error("IsDir() should return true for created directory")
	}

	if err := fs.WriteFile(filepath.Join(nested, "main.js"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := fs.RemoveAll(filepath.Join(tmpDir, "plugins")); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if fs.Exists(nested) {
		t.Error("RemoveAll() should delete the whole tree")
	}

	if err := fs.Remove(testFile); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if fs.Exists(testFile) {
		t.Error("Exists() should return false after Remove()")
	}
}

func TestRealFileSystem_WriteFileLeavesNoTempFiles(t *testing.T) {
	fs := NewRealFileSystem()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "cache.json")

	for i := 0; i < 3; i++ {
		if err := fs.WriteFile(path, []byte("[]"), 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, got %d entries", len(entries))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestRealFileSystem_WriteFileMissingDir(t *testing.T) {
	fs := NewRealFileSystem()
	path := filepath.Join(t.TempDir(), "missing", "file.json")

	if err := fs.WriteFile(path, []byte("[]"), 0o644); err == nil {
		t.Error("WriteFile() into a missing directory should fail")
	}
}

func TestRealFileSystem_Stat(t *testing.T) {
	fs := NewRealFileSystem()
	path := filepath.Join(t.TempDir(), "stat.json")

	before := time.Now().Add(-time.Minute)
	if err := fs.WriteFile(path, []byte("[1,2,3]"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size != 7 {
		t.Errorf("Size = %d, want 7", info.Size)
	}
	if info.IsDir {
		t.Error("IsDir should be false")
	}
	if info.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, expected a recent time", info.CreatedAt)
	}

	if _, err := fs.Stat(filepath.Join(t.TempDir(), "nope")); !os.IsNotExist(err) {
		t.Errorf("Stat() on missing file error = %v, want not-exist", err)
	}
}
