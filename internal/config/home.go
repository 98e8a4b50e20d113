package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetGuidewalkHome returns the guidewalk home directory.
// Priority order:
//  1. GUIDEWALK_HOME environment variable (if set)
//  2. .guidewalk under the current working directory
//
// The directory is created if it doesn't exist.
func GetGuidewalkHome() (string, error) {
	if home := os.Getenv("GUIDEWALK_HOME"); home != "" {
		if err := os.MkdirAll(home, 0o755); err != nil {
			return "", fmt.Errorf("create guidewalk home directory: %w", err)
		}
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	home := filepath.Join(cwd, ".guidewalk")
	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", fmt.Errorf("create guidewalk home directory: %w", err)
	}
	return home, nil
}
