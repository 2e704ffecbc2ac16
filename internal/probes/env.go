package probes

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/girste/cyberaudit/internal/config"
	"github.com/girste/cyberaudit/internal/report"
	"github.com/girste/cyberaudit/internal/system"
	"github.com/girste/cyberaudit/internal/util"
)

// EnvSecretsProbe copies environment variables whose name looks like a
// credential. Values are masked unless the config disables redaction.
type EnvSecretsProbe struct{}

func (p *EnvSecretsProbe) Name() string                             { return NameEnvSecrets }
func (p *EnvSecretsProbe) Keys() []string                           { return []string{report.KeyEnvSecrets} }
func (p *EnvSecretsProbe) Timeout(cfg *config.Config) time.Duration { return system.TimeoutShort }

func (p *EnvSecretsProbe) Run(ctx context.Context, env *Env) (Values, error) {
	pattern := env.patterns().EnvSecretPattern
	redact := env.Config.RedactSecrets

	environ := env.Environ
	if environ == nil {
		environ = os.Environ
	}

	found := map[string]string{}
	for _, kv := range environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		if !pattern.MatchString(name) {
			continue
		}
		if redact {
			value = util.MaskSecret(value)
		}
		found[name] = value
	}

	return Values{report.KeyEnvSecrets: found}, nil
}
