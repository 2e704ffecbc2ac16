package audit

import "github.com/girste/cyberaudit/internal/probes"

// Selection holds the CLI switches that decide which probes run and
// whether the report is persisted. Switches compose freely.
type Selection struct {
	Quick     bool
	Sensitive bool
	Writable  bool
	Firewall  bool
	Deep      bool
	All       bool
	JSON      bool
}

// ProbeNames returns the selected probes in invocation order
func (s Selection) ProbeNames() []string {
	names := []string{}
	if s.Quick || s.All {
		names = append(names, probes.NameOSInfo, probes.NameOpenPorts, probes.NameUsersGroups)
	}
	if s.Sensitive || s.All {
		names = append(names, probes.NameSensitiveFiles, probes.NameEnvSecrets)
	}
	if s.Writable || s.All {
		names = append(names, probes.NameWorldWritable)
	}
	if s.Firewall || s.All {
		names = append(names, probes.NameFirewall)
	}
	if s.Deep || s.All {
		names = append(names, probes.NameDeepScan)
	}
	return names
}

// Persist reports whether the report should be written to disk. A full
// audit always persists.
func (s Selection) Persist() bool {
	return s.JSON || s.All
}

// Empty reports whether no probe is selected
func (s Selection) Empty() bool {
	return len(s.ProbeNames()) == 0
}
