// Package cyberaudit is a local host security audit tool.
//
// CyberAuditX collects OS metadata, listening ports, local accounts,
// credential-like file names and environment variables, world-writable
// files, firewall state and the output of optional external scanners
// into a single JSON report. The command line lives in cmd/cyberaudit.
package cyberaudit
