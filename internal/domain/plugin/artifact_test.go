package plugin

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/obsidian-plugins/internal/testutil"
	"github.com/felixgeelhaar/obsidian-plugins/internal/testutil/mocks"
)

const repoURL = "https://github.com/Taitava/obsidian-shellcommands"

func testManifest() *Manifest {
	return &Manifest{ID: "obsidian-shellcommands", Name: "Shell commands", Version: "0.23.0"}
}

func TestParseLayout(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Layout{
		"archive": LayoutSourceArchive,
		"ASSETS":  LayoutNamedAssets,
		"":        LayoutNamedAssets,
	} {
		got, err := ParseLayout(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseLayout("zip")
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestResolve_SourceArchive(t *testing.T) {
	t.Parallel()

	artifacts, err := Resolve(LayoutSourceArchive, repoURL+"/", testManifest())
	require.NoError(t, err)
	assert.Equal(t, LayoutSourceArchive, artifacts.Layout())

	archive, ok := artifacts.(*SourceArchive)
	require.True(t, ok)
	assert.Equal(t, repoURL+"/archive/refs/tags/0.23.0.tar.gz", archive.URL)
}

func TestResolve_NamedAssets(t *testing.T) {
	t.Parallel()

	artifacts, err := Resolve(LayoutNamedAssets, repoURL, testManifest())
	require.NoError(t, err)
	assert.Equal(t, LayoutNamedAssets, artifacts.Layout())

	assets, ok := artifacts.(*NamedAssets)
	require.True(t, ok)
	assert.Equal(t, []Asset{
		{Name: "main.js", URL: repoURL + "/releases/download/0.23.0/main.js"},
		{Name: "manifest.json", URL: repoURL + "/releases/download/0.23.0/manifest.json"},
		{Name: "styles.css", URL: repoURL + "/releases/download/0.23.0/styles.css", Optional: true},
	}, assets.Assets)
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	_, err := Resolve("zip", repoURL, testManifest())
	require.ErrorIs(t, err, ErrInvalidLayout)

	_, err = Resolve(LayoutNamedAssets, repoURL, nil)
	require.ErrorIs(t, err, ErrInvalidManifest)
}

func TestNamedAssets_Retrieve(t *testing.T) {
	t.Parallel()

	artifacts, err := Resolve(LayoutNamedAssets, repoURL, testManifest())
	require.NoError(t, err)

	transport := mocks.NewTransport()
	base := repoURL + "/releases/download/0.23.0/"
	transport.AddText(base+"main.js", "module.exports = {}")
	transport.AddText(base+"manifest.json", shellCommandsManifest)
	transport.AddText(base+"styles.css", ".shell {}")

	dir := t.TempDir()
	got, err := artifacts.Retrieve(context.Background(), transport, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.js", "manifest.json", "styles.css"}, got.Files)
	assert.Empty(t, got.Skipped)
	assert.Equal(t, ".shell {}", testutil.ReadFile(t, filepath.Join(dir, "styles.css")))
}

func TestNamedAssets_MissingStylesheetIsSkipped(t *testing.T) {
	t.Parallel()

	artifacts, err := Resolve(LayoutNamedAssets, repoURL, testManifest())
	require.NoError(t, err)

	transport := mocks.NewTransport()
	base := repoURL + "/releases/download/0.23.0/"
	transport.AddText(base+"main.js", "module.exports = {}")
	transport.AddText(base+"manifest.json", shellCommandsManifest)
	transport.AddError(base+"styles.css", errors.New("404"))

	dir := t.TempDir()
	got, err := artifacts.Retrieve(context.Background(), transport, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.js", "manifest.json"}, got.Files)
	assert.Equal(t, []string{"styles.css"}, got.Skipped)
	assert.NoFileExists(t, filepath.Join(dir, "styles.css"))
}

func TestNamedAssets_MissingRequiredAssetFails(t *testing.T) {
	t.Parallel()

	artifacts, err := Resolve(LayoutNamedAssets, repoURL, testManifest())
	require.NoError(t, err)

	transport := mocks.NewTransport()
	base := repoURL + "/releases/download/0.23.0/"
	transport.AddText(base+"main.js", "module.exports = {}")
	transport.AddError(base+"manifest.json", errors.New("404"))

	_, err = artifacts.Retrieve(context.Background(), transport, t.TempDir())
	require.ErrorIs(t, err, ErrArtifactDownload)
	assert.Contains(t, err.Error(), "manifest.json")
	assert.Zero(t, transport.CallCount(base+"styles.css"), "retrieval stops at the first required failure")
}

func TestSourceArchive_Retrieve(t *testing.T) {
	t.Parallel()

	artifacts, err := Resolve(LayoutSourceArchive, repoURL, testManifest())
	require.NoError(t, err)
	archive := artifacts.(*SourceArchive)
	archive.TempDir = t.TempDir()

	transport := mocks.NewTransport()
	transport.AddResponse(archive.URL, testutil.TarGz(t, map[string]string{
		"obsidian-shellcommands-0.23.0/":              "",
		"obsidian-shellcommands-0.23.0/main.js":       "module.exports = {}",
		"obsidian-shellcommands-0.23.0/manifest.json": shellCommandsManifest,
		"obsidian-shellcommands-0.23.0/src/index.ts":  "export {}",
	}))

	dir := t.TempDir()
	got, err := archive.Retrieve(context.Background(), transport, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.js", "manifest.json", "src/index.ts"}, got.Files)
	assert.Equal(t, "export {}", testutil.ReadFile(t, filepath.Join(dir, "src", "index.ts")))

	leftovers, err := os.ReadDir(archive.TempDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "downloaded tarball is removed")
}

func TestSourceArchive_DownloadFailure(t *testing.T) {
	t.Parallel()

	archive := &SourceArchive{URL: repoURL + "/archive/refs/tags/9.9.9.tar.gz", TempDir: t.TempDir()}
	transport := mocks.NewTransport()
	transport.AddError(archive.URL, errors.New("404"))

	_, err := archive.Retrieve(context.Background(), transport, t.TempDir())
	assert.ErrorIs(t, err, ErrArtifactDownload)
}

func TestSourceArchive_CorruptArchive(t *testing.T) {
	t.Parallel()

	archive := &SourceArchive{URL: repoURL + "/archive/refs/tags/0.23.0.tar.gz", TempDir: t.TempDir()}
	transport := mocks.NewTransport()
	transport.AddText(archive.URL, "<html>not a tarball</html>")

	_, err := archive.Retrieve(context.Background(), transport, t.TempDir())
	assert.ErrorIs(t, err, ErrExtract)
}

func TestExtractTarGz_KeepsFlatArchives(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := testutil.TarGz(t, map[string]string{
		"main.js":       "a",
		"manifest.json": "{}",
	})

	files, err := ExtractTarGz(bytes.NewReader(data), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.js", "manifest.json"}, files)
}

func TestExtractTarGz_RejectsTraversal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "plugin")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	data := testutil.TarGz(t, map[string]string{"../../escape.txt": "x"})

	_, err := ExtractTarGz(bytes.NewReader(data), dir)
	require.ErrorIs(t, err, ErrExtract)
	assert.NoFileExists(t, filepath.Join(root, "escape.txt"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory is cleaned up")
}
