package probes

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/girste/cyberaudit/internal/config"
	"github.com/girste/cyberaudit/internal/errors"
	"github.com/girste/cyberaudit/internal/report"
	"github.com/girste/cyberaudit/internal/system"
)

const windowsGroupsNote = "Use PowerShell for detailed group info"

// UsersGroupsProbe lists local account and group names
type UsersGroupsProbe struct{}

func (p *UsersGroupsProbe) Name() string { return NameUsersGroups }
func (p *UsersGroupsProbe) Keys() []string {
	return []string{report.KeyUsers, report.KeyGroups}
}
func (p *UsersGroupsProbe) Timeout(cfg *config.Config) time.Duration { return cfg.CommandTimeout() }

func (p *UsersGroupsProbe) Run(ctx context.Context, env *Env) (Values, error) {
	if env.Family.IsWindows() {
		res := env.Exec.Run(ctx, "net user", env.Config.CommandTimeout())
		return Values{
			report.KeyUsers:  splitLines(res.String()),
			report.KeyGroups: windowsGroupsNote,
		}, nil
	}

	users, err := readNames(system.HostPath(env.Config.Accounts.Passwd))
	if err == nil {
		var groups []string
		if groups, err = readNames(system.HostPath(env.Config.Accounts.Group)); err == nil {
			return Values{report.KeyUsers: users, report.KeyGroups: groups}, nil
		}
	}

	text := errors.Text(err)
	return Values{report.KeyUsers: text, report.KeyGroups: text}, nil
}

// readNames returns the first colon-delimited field of every non-empty line
func readNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFileOperation, "%v", err)
	}
	defer f.Close()

	names := []string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, _, _ := strings.Cut(line, ":")
		names = append(names, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrFileOperation, "read %s: %v", path, err)
	}
	return names, nil
}
