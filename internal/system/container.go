// Package system provides the platform layer: shell command execution,
// OS family detection and container-aware host paths.
//
// When running in a container with the host filesystem mounted at /host
// (or at CYBERAUDIT_HOST_ROOT), host paths are prefixed automatically.
package system

import (
	"os"
	"path/filepath"
	"strings"
)

// hostRoot is set when running in a container with host mounts
var hostRoot = ""

func init() {
	if root := os.Getenv("CYBERAUDIT_HOST_ROOT"); root != "" {
		hostRoot = filepath.Clean(root)
		return
	}
	if _, err := os.Stat("/host/proc"); err == nil {
		hostRoot = "/host"
	}
}

// HostPath returns path with the host root prefix if in container
func HostPath(path string) string {
	if hostRoot == "" || !filepath.IsAbs(path) {
		return path
	}

	// Don't double-prefix
	if path == hostRoot || strings.HasPrefix(path, hostRoot+"/") {
		return path
	}

	return hostRoot + path
}

// IsInContainer returns true if host paths are being remapped
func IsInContainer() bool {
	return hostRoot != ""
}
