//go:build linux

package plinder

import (
	"os"
	"path/filepath"
)

// defaultMountDir returns the default mount directory for Linux.
// Uses $XDG_DATA_HOME/plinder/ if set, otherwise ~/.local/share/plinder/
func defaultMountDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "plinder"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "plinder"), nil
}
