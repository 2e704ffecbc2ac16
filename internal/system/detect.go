package system

import (
	"context"
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/girste/cyberaudit/internal/log"
)

// Family is the operating-system family that decides which commands a probe runs.
type Family string

const (
	FamilyLinux   Family = "linux"
	FamilyDarwin  Family = "darwin"
	FamilyWindows Family = "windows"
	FamilyFreeBSD Family = "freebsd"
	FamilyUnknown Family = "unknown"
)

// DetectFamily returns the family of the running host
func DetectFamily() Family {
	return ParseFamily(runtime.GOOS)
}

// ParseFamily maps a GOOS or platform name to a Family. An empty name
// resolves to the running host.
func ParseFamily(name string) Family {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DetectFamily()
	case "linux":
		return FamilyLinux
	case "darwin", "macos", "osx":
		return FamilyDarwin
	case "windows":
		return FamilyWindows
	case "freebsd":
		return FamilyFreeBSD
	default:
		return FamilyUnknown
	}
}

// IsWindows reports whether f is the non-POSIX family
func (f Family) IsWindows() bool {
	return f == FamilyWindows
}

// DisplayName returns the conventional system name ("Linux", "Darwin", "Windows").
func (f Family) DisplayName() string {
	s := string(f)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// HostInfo contains static identification of the host
type HostInfo struct {
	System       string `json:"system"`
	Release      string `json:"release"`
	Version      string `json:"version"`
	Architecture string `json:"architecture"`
	Hostname     string `json:"hostname"`
	Distro       string `json:"distro"`
}

// GetHostInfo reads host identification from the platform layer. It never
// fails: fields gopsutil cannot provide fall back to runtime values.
func GetHostInfo(ctx context.Context, family Family) HostInfo {
	info := HostInfo{
		System:       family.DisplayName(),
		Architecture: runtime.GOARCH,
	}
	if hostname, err := os.Hostname(); err == nil {
		info.Hostname = hostname
	}

	stat, err := host.InfoWithContext(ctx)
	if err != nil {
		log.Debugf("host info unavailable, using runtime values: %v", err)
		return info
	}

	info.Release = stat.KernelVersion
	info.Version = strings.TrimSpace(stat.Platform + " " + stat.PlatformVersion)
	info.Distro = normalizeDistro(stat.Platform)
	if stat.KernelArch != "" {
		info.Architecture = stat.KernelArch
	}
	if stat.Hostname != "" {
		info.Hostname = stat.Hostname
	}
	return info
}

func normalizeDistro(distro string) string {
	distro = strings.ToLower(distro)
	switch {
	case strings.Contains(distro, "ubuntu"):
		return "ubuntu"
	case strings.Contains(distro, "debian"):
		return "debian"
	case strings.Contains(distro, "centos"):
		return "centos"
	case strings.Contains(distro, "rhel"), strings.Contains(distro, "redhat"):
		return "rhel"
	case strings.Contains(distro, "fedora"):
		return "fedora"
	case strings.Contains(distro, "arch"):
		return "arch"
	case strings.Contains(distro, "alpine"):
		return "alpine"
	default:
		return distro
	}
}
