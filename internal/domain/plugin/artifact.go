package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

// Artifact errors.
var (
	ErrInvalidLayout    = errors.New("invalid artifact layout")
	ErrArtifactDownload = errors.New("artifact download failed")
	ErrExtract          = errors.New("archive extraction failed")
)

// Layout names how a plugin publishes its release files.
type Layout string

const (
	// LayoutSourceArchive is the tagged source tarball GitHub generates.
	LayoutSourceArchive Layout = "archive"
	// LayoutNamedAssets is main.js, manifest.json and styles.css attached to a release.
	LayoutNamedAssets Layout = "assets"
)

// ParseLayout validates a layout name.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(strings.ToLower(strings.TrimSpace(s))); l {
	case LayoutSourceArchive, LayoutNamedAssets:
		return l, nil
	case "":
		return LayoutNamedAssets, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: archive, assets)", ErrInvalidLayout, s)
	}
}

// Artifacts is the resolved set of downloads for one release. It is either
// a SourceArchive or NamedAssets.
type Artifacts interface {
	Layout() Layout
	// Retrieve places the release files in dir, which must exist.
	Retrieve(ctx context.Context, transport ports.Transport, dir string) (Retrieved, error)
}

// Retrieved reports what Retrieve placed on disk.
type Retrieved struct {
	Files   []string
	Skipped []string
}

// Asset is a single named release file.
type Asset struct {
	Name     string
	URL      string
	Optional bool
}

// SourceArchive is a gzip-compressed tarball unpacked wholesale. The
// tarball and its extraction go through the os package directly, so the
// destination must be on the real file system.
type SourceArchive struct {
	URL string
	// TempDir holds the downloaded tarball while it is extracted.
	// Empty means os.TempDir().
	TempDir string
}

// NamedAssets is a fixed set of files downloaded individually.
type NamedAssets struct {
	Assets []Asset
}

// Resolve derives the artifact URLs for m's version from repoURL.
func Resolve(layout Layout, repoURL string, m *Manifest) (Artifacts, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: manifest is required", ErrInvalidManifest)
	}
	repoURL = strings.TrimSuffix(repoURL, "/")

	switch layout {
	case LayoutSourceArchive:
		return &SourceArchive{
			URL: fmt.Sprintf("%s/archive/refs/tags/%s.tar.gz", repoURL, m.Version),
		}, nil
	case LayoutNamedAssets:
		base := fmt.Sprintf("%s/releases/download/%s/", repoURL, m.Version)
		return &NamedAssets{Assets: []Asset{
			{Name: "main.js", URL: base + "main.js"},
			{Name: "manifest.json", URL: base + "manifest.json"},
			{Name: "styles.css", URL: base + "styles.css", Optional: true},
		}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLayout, layout)
	}
}

// Layout returns LayoutSourceArchive.
func (a *SourceArchive) Layout() Layout { return LayoutSourceArchive }

// Retrieve downloads the tarball to a temp file and extracts it into dir.
func (a *SourceArchive) Retrieve(ctx context.Context, transport ports.Transport, dir string) (Retrieved, error) {
	tempDir := a.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	tmp := filepath.Join(tempDir, "obsidian-plugins-"+uuid.NewString()+".tar.gz")
	defer func() { _ = os.Remove(tmp) }()

	if err := transport.Download(ctx, a.URL, tmp); err != nil {
		return Retrieved{}, fmt.Errorf("%w: %s: %w", ErrArtifactDownload, a.URL, err)
	}

	f, err := os.Open(tmp)
	if err != nil {
		return Retrieved{}, fmt.Errorf("%w: %s: %w", ErrArtifactDownload, a.URL, err)
	}
	defer func() { _ = f.Close() }()

	files, err := ExtractTarGz(f, dir)
	if err != nil {
		return Retrieved{}, err
	}
	return Retrieved{Files: files}, nil
}

// Layout returns LayoutNamedAssets.
func (a *NamedAssets) Layout() Layout { return LayoutNamedAssets }

// Retrieve downloads each asset into dir. A failed optional asset is
// skipped; a failed required asset fails the whole retrieval.
func (a *NamedAssets) Retrieve(ctx context.Context, transport ports.Transport, dir string) (Retrieved, error) {
	var result Retrieved
	for _, asset := range a.Assets {
		target := filepath.Join(dir, asset.Name)
		if err := transport.Download(ctx, asset.URL, target); err != nil {
			if asset.Optional {
				result.Skipped = append(result.Skipped, asset.Name)
				continue
			}
			return result, fmt.Errorf("%w: %s: %w", ErrArtifactDownload, asset.Name, err)
		}
		result.Files = append(result.Files, asset.Name)
	}
	return result, nil
}

var (
	_ Artifacts = (*SourceArchive)(nil)
	_ Artifacts = (*NamedAssets)(nil)
)
