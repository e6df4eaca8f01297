package vault

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/obsidian-plugins/internal/ports"
)

// InstalledList is the ordered set of enabled plugin ids.
type InstalledList []string

// Contains reports whether id is enabled.
func (l InstalledList) Contains(id string) bool {
	return slices.Contains(l, id)
}

// Remove returns the list without the first occurrence of id.
func (l InstalledList) Remove(id string) (InstalledList, error) {
	i := slices.Index(l, id)
	if i < 0 {
		return l, fmt.Errorf("%w: %s", ErrNotInstalled, id)
	}
	return slices.Delete(slices.Clone(l), i, i+1), nil
}

// ReadInstalled loads the list at path. An absent or empty file is an empty list.
func ReadInstalled(fs ports.FileSystem, path string) (InstalledList, error) {
	if !fs.Exists(path) {
		return InstalledList{}, nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return InstalledList{}, nil
	}

	var list InstalledList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptList, path, err)
	}
	if list == nil {
		list = InstalledList{}
	}
	return list, nil
}

// WriteInstalled replaces the list at path. An empty list removes the file.
func WriteInstalled(fs ports.FileSystem, path string, list InstalledList) error {
	if len(list) == 0 {
		if !fs.Exists(path) {
			return nil
		}
		if err := fs.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		return nil
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode installed plugins: %w", err)
	}
	if err := fs.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
