// Package vault manages the community plugins installed in a single vault.
package vault

import (
	"path/filepath"

	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

const (
	// ConfigDirName is the vault configuration directory.
	ConfigDirName = ".obsidian"
	// InstalledFileName holds the ids of enabled community plugins.
	InstalledFileName = "community-plugins.json"
	// PluginsDirName holds one directory per installed plugin.
	PluginsDirName = "plugins"
)

// Vault is a directory whose configuration lives under .obsidian.
type Vault struct {
	path string
}

// New returns the vault rooted at path.
func New(path string) *Vault {
	return &Vault{path: filepath.Clean(ports.ExpandPath(path))}
}

// Path returns the vault root.
func (v *Vault) Path() string { return v.path }

// ConfigPath returns <vault>/.obsidian.
func (v *Vault) ConfigPath() string { return filepath.Join(v.path, ConfigDirName) }

// PluginsDir returns <vault>/.obsidian/plugins.
func (v *Vault) PluginsDir() string { return filepath.Join(v.ConfigPath(), PluginsDirName) }

// PluginDir returns the install directory for id.
func (v *Vault) PluginDir(id string) string { return filepath.Join(v.PluginsDir(), id) }

// InstalledFile returns <vault>/.obsidian/community-plugins.json.
func (v *Vault) InstalledFile() string { return filepath.Join(v.ConfigPath(), InstalledFileName) }

// IsVault reports whether the config path exists and is a directory named .obsidian.
func (v *Vault) IsVault(fs ports.FileSystem) bool {
	config := v.ConfigPath()
	return filepath.Base(config) == ConfigDirName && fs.IsDir(config)
}
