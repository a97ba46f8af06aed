//go:build windows

package plinder

import (
	"os"
	"path/filepath"
)

// defaultMountDir returns the default mount directory for Windows.
// Returns %APPDATA%\plinder\
func defaultMountDir() (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		appData = filepath.Join(home, "AppData", "Roaming")
	}
	return filepath.Join(appData, "plinder"), nil
}
