package probes

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/girste/cyberaudit/internal/config"
	"github.com/girste/cyberaudit/internal/log"
	"github.com/girste/cyberaudit/internal/report"
	"github.com/girste/cyberaudit/internal/system"
)

const windowsWritableNote = "Not supported on Windows"

// SensitiveFilesProbe walks the filesystem for files whose name contains a
// credential keyword. Unreadable directories are skipped silently.
type SensitiveFilesProbe struct{}

func (p *SensitiveFilesProbe) Name() string                             { return NameSensitiveFiles }
func (p *SensitiveFilesProbe) Keys() []string                           { return []string{report.KeySensitiveFiles} }
func (p *SensitiveFilesProbe) Timeout(cfg *config.Config) time.Duration { return cfg.ProbeTimeout() }

func (p *SensitiveFilesProbe) Run(ctx context.Context, env *Env) (Values, error) {
	keywords := env.patterns().SensitiveKeywords
	root := system.HostPath(env.Config.Walk.Root)
	skip := skipSet(env.Config.Walk.SkipDirs)

	found := []string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable entry: skip the subtree, keep walking
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skip[path] {
				return fs.SkipDir
			}
			return nil
		}
		if matchesKeyword(strings.ToLower(d.Name()), keywords) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		log.Warnf("sensitive file walk stopped after %d matches: %v", len(found), err)
		return Values{report.KeySensitiveFiles: found}, err
	}

	return Values{report.KeySensitiveFiles: found}, nil
}

func matchesKeyword(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// skipSet resolves the configured pruned directories against the host root
func skipSet(dirs []string) map[string]bool {
	set := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		set[system.HostPath(filepath.Clean(d))] = true
	}
	return set
}

// WorldWritableProbe lists regular files writable by any user
type WorldWritableProbe struct{}

func (p *WorldWritableProbe) Name() string                             { return NameWorldWritable }
func (p *WorldWritableProbe) Keys() []string                           { return []string{report.KeyWorldWritable} }
func (p *WorldWritableProbe) Timeout(cfg *config.Config) time.Duration { return cfg.ProbeTimeout() }

func (p *WorldWritableProbe) Run(ctx context.Context, env *Env) (Values, error) {
	if env.Family.IsWindows() {
		return Values{report.KeyWorldWritable: windowsWritableNote}, nil
	}

	cmd := findWritableCommand(system.HostPath(env.Config.Walk.Root), env.Config.Walk.SkipDirs)
	res := env.Exec.Run(ctx, cmd, env.Config.ProbeTimeout())

	// find exits non-zero on any unreadable directory; the paths it did
	// print are still valid findings.
	lines := splitLines(res.Output)
	if !res.OK() && len(lines) == 0 {
		return Values{report.KeyWorldWritable: []string{res.String()}}, nil
	}
	return Values{report.KeyWorldWritable: lines}, nil
}

func findWritableCommand(root string, skipDirs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "find %s", shellQuote(root))
	if len(skipDirs) > 0 {
		b.WriteString(` \(`)
		for i, d := range skipDirs {
			if i > 0 {
				b.WriteString(" -o")
			}
			fmt.Fprintf(&b, " -path %s", shellQuote(system.HostPath(filepath.Clean(d))))
		}
		b.WriteString(` \) -prune -o`)
	}
	b.WriteString(" -type f -perm -o+w -print 2>/dev/null")
	return b.String()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
