//go:build darwin

package plinder

import (
	"os"
	"path/filepath"
)

// defaultMountDir returns the default mount directory for macOS.
// Returns ~/Library/Application Support/plinder/
func defaultMountDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "Application Support", "plinder"), nil
}
