package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/obsidian-plugins/internal/domain/plugin"
	"github.com/felixgeelhaar/obsidian-plugins/internal/domain/registry"
	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

// Resolver looks a plugin id up in the community listing.
type Resolver interface {
	Find(ctx context.Context, id string) (registry.Entry, bool, error)
}

// Installation describes a completed install.
type Installation struct {
	Entry    registry.Entry
	Manifest *plugin.Manifest
	Layout   plugin.Layout
	Dir      string
	Files    []string
	Skipped  []string
	Phases   []Phase
}

// Update is an installed plugin with a newer release available.
type Update struct {
	ID        string
	Installed string
	Available string
}

// Manager installs and uninstalls plugins in one vault and keeps
// community-plugins.json consistent with the plugin directories.
type Manager struct {
	vault     *Vault
	resolver  Resolver
	transport ports.Transport
	fs        ports.FileSystem
	logger    ports.Logger
	layout    plugin.Layout
	tempDir   string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) ManagerOption {
	return func(m *Manager) { m.logger = ports.LoggerOrDiscard(logger) }
}

// WithLayout sets the artifact layout used for installs.
func WithLayout(layout plugin.Layout) ManagerOption {
	return func(m *Manager) { m.layout = layout }
}

// WithTempDir sets where source archives are downloaded before extraction.
func WithTempDir(dir string) ManagerOption {
	return func(m *Manager) { m.tempDir = dir }
}

// NewManager creates a Manager for v. Plugin directories and the installed
// list are read and written through fs.
func NewManager(v *Vault, resolver Resolver, transport ports.Transport, fs ports.FileSystem, opts ...ManagerOption) *Manager {
	m := &Manager{
		vault:     v,
		resolver:  resolver,
		transport: transport,
		fs:        fs,
		logger:    ports.DiscardLogger(),
		layout:    plugin.LayoutNamedAssets,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(ports.F("vault", v.Path()))
	return m
}

// Vault returns the managed vault.
func (m *Manager) Vault() *Vault { return m.vault }

// ListInstalled returns the enabled plugin ids in insertion order.
func (m *Manager) ListInstalled() ([]string, error) {
	if !m.vault.IsVault(m.fs) {
		return nil, fmt.Errorf("%w: %s", ErrNotVault, m.vault.Path())
	}

	unlock := pathLocks.lock(m.vault.ConfigPath())
	defer unlock()

	list, err := ReadInstalled(m.fs, m.vault.InstalledFile())
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Install resolves id, retrieves its current release into the plugin
// directory and appends id to the installed list. The list is written
// only after every file is in place. A directory created by a failed
// install is removed.
func (m *Manager) Install(ctx context.Context, id string) (*Installation, error) {
	if err := ValidateID(id); err != nil {
		return nil, &OperationError{Op: "install", PluginID: id, Phase: PhaseIdle, Err: err}
	}

	unlock := pathLocks.lock(m.vault.ConfigPath())
	defer unlock()

	lc, err := newLifecycle(id)
	if err != nil {
		return nil, err
	}
	defer lc.Stop()

	logger := m.logger.With(ports.F("plugin", id))
	dir := m.vault.PluginDir(id)
	created := false

	fail := func(err error) (*Installation, error) {
		lc.Fail(err)
		opErr := &OperationError{Op: "install", PluginID: id, Phase: lc.FailedPhase(), Err: err}
		if created {
			if rmErr := m.fs.RemoveAll(dir); rmErr != nil {
				logger.Warn(ctx, "failed to roll back plugin directory", ports.F("dir", dir), ports.Err(rmErr))
			} else {
				logger.Debug(ctx, "rolled back plugin directory", ports.F("dir", dir))
			}
		}
		logger.Error(ctx, "install failed", ports.F("phase", string(opErr.Phase)), ports.Err(err))
		return nil, opErr
	}
	advance := func() {
		logger.Debug(ctx, "install phase", ports.F("phase", string(lc.Advance())))
	}

	logger.Debug(ctx, "install phase", ports.F("phase", string(lc.Begin())))
	if !m.vault.IsVault(m.fs) {
		return fail(fmt.Errorf("%w: %s", ErrNotVault, m.vault.Path()))
	}
	list, err := ReadInstalled(m.fs, m.vault.InstalledFile())
	if err != nil {
		return fail(err)
	}
	if list.Contains(id) {
		return fail(fmt.Errorf("%w: %s", ErrAlreadyInstalled, id))
	}

	advance()
	entry, ok, err := m.resolver.Find(ctx, id)
	if err != nil {
		return fail(err)
	}
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrPluginUnknown, id))
	}

	advance()
	created = !m.fs.Exists(dir)
	if err := m.fs.MkdirAll(dir, 0o755); err != nil {
		return fail(fmt.Errorf("%w: %s: %w", ErrDirectoryCreation, dir, err))
	}

	advance()
	manifestURL := entry.ManifestURL()
	rawManifest, err := m.transport.GetText(ctx, manifestURL)
	if err != nil {
		return fail(fmt.Errorf("%w: %s: %w", ErrManifest, manifestURL, err))
	}
	manifest, err := plugin.ParseManifest([]byte(rawManifest))
	if err != nil {
		return fail(fmt.Errorf("%w: %s: %w", ErrManifest, manifestURL, err))
	}
	logger.Debug(ctx, "resolved manifest", ports.F("version", manifest.Version))

	advance()
	artifacts, err := plugin.Resolve(m.layout, entry.RepoURL(), manifest)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrArtifact, err))
	}
	if archive, ok := artifacts.(*plugin.SourceArchive); ok {
		archive.TempDir = m.tempDir
	}
	retrieved, err := artifacts.Retrieve(ctx, m.transport, dir)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrArtifact, err))
	}
	for _, name := range retrieved.Skipped {
		logger.Debug(ctx, "optional asset not published", ports.F("asset", name))
	}
	if err := m.ensureManifest(dir, rawManifest); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrArtifact, err))
	}

	advance()
	if err := WriteInstalled(m.fs, m.vault.InstalledFile(), append(list, id)); err != nil {
		return fail(err)
	}

	advance()
	logger.Info(ctx, "plugin installed",
		ports.F("version", manifest.Version),
		ports.F("layout", string(artifacts.Layout())),
		ports.F("files", len(retrieved.Files)))

	return &Installation{
		Entry:    entry,
		Manifest: manifest,
		Layout:   artifacts.Layout(),
		Dir:      dir,
		Files:    retrieved.Files,
		Skipped:  retrieved.Skipped,
		Phases:   lc.History(),
	}, nil
}

// ensureManifest writes the fetched manifest when the artifacts did not
// carry one, so the app and Outdated can read the installed version.
func (m *Manager) ensureManifest(dir, raw string) error {
	path := filepath.Join(dir, "manifest.json")
	if m.fs.Exists(path) {
		return nil
	}
	if err := m.fs.WriteFile(path, []byte(raw), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Uninstall removes id from the installed list and deletes its directory.
// Directory removal is best effort; the list is reconciled regardless.
func (m *Manager) Uninstall(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return &OperationError{Op: "uninstall", PluginID: id, Phase: PhaseIdle, Err: err}
	}

	unlock := pathLocks.lock(m.vault.ConfigPath())
	defer unlock()

	logger := m.logger.With(ports.F("plugin", id))

	if !m.vault.IsVault(m.fs) {
		return &OperationError{Op: "uninstall", PluginID: id, Phase: PhaseReading,
			Err: fmt.Errorf("%w: %s", ErrNotVault, m.vault.Path())}
	}
	list, err := ReadInstalled(m.fs, m.vault.InstalledFile())
	if err != nil {
		return &OperationError{Op: "uninstall", PluginID: id, Phase: PhaseReading, Err: err}
	}
	remaining, err := list.Remove(id)
	if err != nil {
		return &OperationError{Op: "uninstall", PluginID: id, Phase: PhaseReading, Err: err}
	}

	dir := m.vault.PluginDir(id)
	if err := m.fs.RemoveAll(dir); err != nil {
		logger.Warn(ctx, "failed to remove plugin directory", ports.F("dir", dir), ports.Err(err))
	}

	if err := WriteInstalled(m.fs, m.vault.InstalledFile(), remaining); err != nil {
		return &OperationError{Op: "uninstall", PluginID: id, Phase: PhaseRecording, Err: err}
	}

	logger.Info(ctx, "plugin uninstalled", ports.F("remaining", len(remaining)))
	return nil
}

// Outdated compares each installed manifest with the published one.
// Plugins that cannot be checked are logged and skipped.
func (m *Manager) Outdated(ctx context.Context) ([]Update, error) {
	ids, err := m.ListInstalled()
	if err != nil {
		return nil, err
	}

	var updates []Update
	for _, id := range ids {
		logger := m.logger.With(ports.F("plugin", id))

		local, err := m.installedManifest(id)
		if err != nil {
			logger.Warn(ctx, "cannot read installed manifest", ports.Err(err))
			continue
		}

		entry, ok, err := m.resolver.Find(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Warn(ctx, "plugin no longer listed in registry")
			continue
		}

		raw, err := m.transport.GetText(ctx, entry.ManifestURL())
		if err != nil {
			logger.Warn(ctx, "cannot fetch published manifest", ports.Err(err))
			continue
		}
		remote, err := plugin.ParseManifest([]byte(raw))
		if err != nil {
			logger.Warn(ctx, "cannot decode published manifest", ports.Err(err))
			continue
		}

		if remote.NewerThan(local.Version) {
			updates = append(updates, Update{ID: id, Installed: local.Version, Available: remote.Version})
		}
	}
	return updates, nil
}

func (m *Manager) installedManifest(id string) (*plugin.Manifest, error) {
	data, err := m.fs.ReadFile(filepath.Join(m.vault.PluginDir(id), "manifest.json"))
	if err != nil {
		return nil, err
	}
	return plugin.ParseManifest(data)
}

// ValidateID rejects ids that are not a single path component.
func ValidateID(id string) error {
	switch {
	case id == "", id == ".", id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	case strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, os.PathSeparator):
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidID, id)
	case strings.TrimSpace(id) != id:
		return fmt.Errorf("%w: %q has surrounding whitespace", ErrInvalidID, id)
	}
	return nil
}
