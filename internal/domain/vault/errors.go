package vault

import (
	"errors"
	"fmt"
)

// Manager errors.
var (
	ErrNotVault          = errors.New("not an obsidian vault")
	ErrInvalidID         = errors.New("invalid plugin id")
	ErrPluginUnknown     = errors.New("plugin not found in registry")
	ErrAlreadyInstalled  = errors.New("plugin already installed")
	ErrNotInstalled      = errors.New("plugin not installed")
	ErrDirectoryCreation = errors.New("couldn't create plugin directory")
	ErrManifest          = errors.New("plugin manifest unavailable")
	ErrArtifact          = errors.New("plugin artifacts unavailable")
	ErrCorruptList       = errors.New("installed plugin list is corrupt")
)

// OperationError records which phase of an install or uninstall failed.
type OperationError struct {
	Op       string
	PluginID string
	Phase    Phase
	Err      error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.PluginID, e.Phase, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Succeeded collapses an operation result to success or failure.
func Succeeded(err error) bool {
	return err == nil
}
