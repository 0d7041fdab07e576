package config

import (
	"os"
	"path/filepath"
)

const (
	// ProjectConfigName is the project-level config file.
	ProjectConfigName = ".bumpkit.yml"
	// LegacyProjectConfigName is the JSON run-control file still read for
	// projects that have not migrated.
	LegacyProjectConfigName = ".versionrc.json"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/bumpkit/config.yml
// - macOS: ~/Library/Application Support/bumpkit/config.yml
// - Windows: %APPDATA%\bumpkit\config.yml
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "bumpkit", "config.yml"), nil
}

// ProjectConfigPath returns the project config path inside dir.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, ProjectConfigName)
}

// LegacyProjectConfigPath returns the legacy JSON config path inside dir.
func LegacyProjectConfigPath(dir string) string {
	return filepath.Join(dir, LegacyProjectConfigName)
}
