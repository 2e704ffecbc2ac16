package util

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns the per-user config directory based on user privileges
func GetConfigDir() string {
	if os.Geteuid() == 0 {
		return "/root/.cyberaudit"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cyberaudit"
	}
	return filepath.Join(home, ".cyberaudit")
}
