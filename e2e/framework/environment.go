//go:build e2e

// Package framework provides the E2E test infrastructure for obsidian-plugins.
package framework

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

// Environment is an isolated home directory, vault and registry server.
type Environment struct {
	t          *testing.T
	rootDir    string
	homeDir    string
	vaultDir   string
	binaryPath string

	mu       sync.Mutex
	listing  string
	requests int
	server   *httptest.Server
}

var (
	buildOnce  sync.Once
	binaryPath string
	buildErr   error
)

// findProjectRoot locates the project root directory.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// buildBinary builds the obsidian-plugins binary once per test run.
func buildBinary(t *testing.T) (string, error) {
	buildOnce.Do(func() {
		root, err := findProjectRoot()
		if err != nil {
			buildErr = err
			return
		}

		binaryPath = filepath.Join(os.TempDir(), "obsidian-plugins-e2e-test")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/obsidian-plugins")
		cmd.Dir = root

		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			buildErr = err
			t.Logf("Build stderr: %s", stderr.String())
		}
	})

	return binaryPath, buildErr
}

// NewEnvironment creates a new isolated test environment.
func NewEnvironment(t *testing.T) *Environment {
	t.Helper()

	binary, err := buildBinary(t)
	if err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}

	rootDir := t.TempDir()
	env := &Environment{
		t:          t,
		rootDir:    rootDir,
		homeDir:    filepath.Join(rootDir, "home"),
		vaultDir:   filepath.Join(rootDir, "vault"),
		binaryPath: binary,
		listing:    "[]",
	}

	for _, dir := range []string{env.homeDir, filepath.Join(env.vaultDir, ".obsidian")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		env.mu.Lock()
		env.requests++
		listing := env.listing
		env.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(listing))
	}))
	t.Cleanup(env.server.Close)

	env.WriteConfig("registry_url: " + env.server.URL + "/community-plugins.json\n")
	return env
}

// HomeDir returns the simulated home directory.
func (e *Environment) HomeDir() string { return e.homeDir }

// VaultDir returns the vault root.
func (e *Environment) VaultDir() string { return e.vaultDir }

// RootDir returns the test root directory.
func (e *Environment) RootDir() string { return e.rootDir }

// BinaryPath returns the built binary.
func (e *Environment) BinaryPath() string { return e.binaryPath }

// ConfigPath returns the config file the runner passes with --config.
func (e *Environment) ConfigPath() string {
	return filepath.Join(e.homeDir, ".config", "obsidian-plugins", "config.yaml")
}

// SetListing sets the body served as the community plugin listing.
func (e *Environment) SetListing(listing string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listing = listing
}

// ListingRequests returns how many times the listing was fetched.
func (e *Environment) ListingRequests() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requests
}

// WriteConfig writes the config file.
func (e *Environment) WriteConfig(content string) {
	e.t.Helper()
	e.WriteFile(e.ConfigPath(), content)
}

// WriteFile writes content to an absolute path or one relative to the root.
func (e *Environment) WriteFile(path, content string) {
	e.t.Helper()

	if !filepath.IsAbs(path) {
		path = filepath.Join(e.rootDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

// FileExists checks if a path relative to the root exists.
func (e *Environment) FileExists(path string) bool {
	_, err := os.Stat(filepath.Join(e.rootDir, path))
	return err == nil
}
