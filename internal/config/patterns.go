package config

import "regexp"

// DeepScanTool is an external scanner invoked by the deep scan
type DeepScanTool struct {
	Name    string // Report key
	Binary  string // Looked up in PATH to decide presence
	Command string
}

// Patterns holds the fixed vocabularies the probes match against
type Patterns struct {
	SensitiveKeywords  []string
	EnvSecretPattern   *regexp.Regexp
	DeepScanTools      []DeepScanTool
	FirewallCandidates map[string][]string
	PortCommands       map[string][]string
}

// DefaultPatterns returns the built-in probe vocabularies
func DefaultPatterns() *Patterns {
	return &Patterns{
		SensitiveKeywords: []string{"password", "secret", "key", "token"},
		EnvSecretPattern:  regexp.MustCompile(`(?i)(pass|key|token|secret)`),
		DeepScanTools: []DeepScanTool{
			{Name: "nmap", Binary: "nmap", Command: "nmap -sV localhost"},
			{Name: "chkrootkit", Binary: "chkrootkit", Command: "chkrootkit"},
			{Name: "lynis", Binary: "lynis", Command: "lynis audit system"},
			{Name: "clamav", Binary: "clamscan", Command: "clamscan -r /"},
		},
		FirewallCandidates: map[string][]string{
			"linux":   {"ufw status", "iptables -L"},
			"windows": {"netsh advfirewall show allprofiles"},
			"darwin":  {"/usr/libexec/ApplicationFirewall/socketfilterfw --getglobalstate"},
		},
		PortCommands: map[string][]string{
			"linux":   {"netstat -tuln", "ss -tuln"},
			"windows": {"netstat -ano"},
			"darwin":  {"netstat -an -p tcp"},
			"freebsd": {"netstat -an"},
		},
	}
}

// FirewallCommands returns the ordered candidates for family (nil if unmapped)
func (p *Patterns) FirewallCommands(family string) []string {
	return p.FirewallCandidates[family]
}

// PortCommandsFor returns the ordered listening-socket commands for family.
// Unmapped families get the generic netstat invocation.
func (p *Patterns) PortCommandsFor(family string) []string {
	if cmds, ok := p.PortCommands[family]; ok {
		return cmds
	}
	return []string{"netstat -tuln"}
}
