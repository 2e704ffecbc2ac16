package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/girste/cyberaudit/internal/errors"
	"github.com/girste/cyberaudit/internal/util"
)

type Config struct {
	MaxConcurrency int            `yaml:"maxConcurrency" validate:"gte=0,lte=64"`
	RedactSecrets  bool           `yaml:"redactSecrets"`
	OutputDir      string         `yaml:"outputDir" validate:"required"`
	Platform       string         `yaml:"platform" validate:"omitempty,oneof=linux darwin windows freebsd"`
	MetricsFile    string         `yaml:"metricsFile"`
	Timeouts       TimeoutConfig  `yaml:"timeouts"`
	Walk           WalkConfig     `yaml:"walk"`
	Accounts       AccountsConfig `yaml:"accounts"`
	Firewall       FirewallConfig `yaml:"firewall"`
	Patterns       *Patterns      `yaml:"-" validate:"-"` // Fixed probe vocabularies
}

// TimeoutConfig defines timeout durations in seconds
type TimeoutConfig struct {
	Command  int `yaml:"command" validate:"gt=0"`  // Single built-in command (default: 120s)
	Probe    int `yaml:"probe" validate:"gt=0"`    // Whole probe (default: 900s)
	DeepScan int `yaml:"deepScan" validate:"gt=0"` // Each external scanner (default: 1800s)
}

// WalkConfig bounds the sensitive-files filesystem walk
type WalkConfig struct {
	Root     string   `yaml:"root" validate:"required"`
	SkipDirs []string `yaml:"skipDirs"`
}

// AccountsConfig locates the local account and group databases
type AccountsConfig struct {
	Passwd string `yaml:"passwd" validate:"required"`
	Group  string `yaml:"group" validate:"required"`
}

// FirewallConfig replaces the candidate commands of an OS family
type FirewallConfig struct {
	Candidates map[string][]string `yaml:"candidates" validate:"dive,keys,oneof=linux darwin windows freebsd,endkeys,dive,required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Default() *Config {
	return &Config{
		MaxConcurrency: 1,
		RedactSecrets:  true,
		OutputDir:      ".",
		Timeouts: TimeoutConfig{
			Command:  120,
			Probe:    900,
			DeepScan: 1800,
		},
		Walk: WalkConfig{
			Root:     "/",
			SkipDirs: []string{"/proc", "/sys", "/dev", "/run"},
		},
		Accounts: AccountsConfig{
			Passwd: "/etc/passwd",
			Group:  "/etc/group",
		},
		Patterns: DefaultPatterns(),
	}
}

// SearchPaths lists the config files Load tries, highest priority first
func SearchPaths() []string {
	paths := []string{}

	if configDir := os.Getenv("CYBERAUDIT_CONFIG_DIR"); configDir != "" {
		paths = append(paths,
			filepath.Join(configDir, ".cyberaudit.yaml"),
			filepath.Join(configDir, ".cyberaudit.yml"),
		)
	}

	paths = append(paths, ".cyberaudit.yaml", ".cyberaudit.yml")

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths,
			filepath.Join(home, ".cyberaudit.yaml"),
			filepath.Join(home, ".cyberaudit.yml"),
		)
	}
	paths = append(paths, filepath.Join(util.GetConfigDir(), "config.yaml"))

	return append(paths, "/etc/cyberaudit/config.yaml")
}

// Load reads configuration. An explicit path must exist; otherwise the
// first readable file of SearchPaths is used, and defaults when none is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalidConfig, "read %s: %v", path, err)
		}
		if err := cfg.parse(path, data); err != nil {
			return nil, err
		}
		return cfg.validated()
	}

	for _, candidate := range SearchPaths() {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		if err := cfg.parse(candidate, data); err != nil {
			return nil, err
		}
		break
	}

	return cfg.validated()
}

func (c *Config) validated() (*Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parse(path string, data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(errors.ErrInvalidConfig, "invalid config at %s: %v", path, err)
	}
	if c.Patterns == nil {
		c.Patterns = DefaultPatterns()
	}
	for family, cmds := range c.Firewall.Candidates {
		c.Patterns.FirewallCandidates[family] = cmds
	}
	return nil
}

// Validate checks config for errors
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrInvalidConfig, "%s", formatValidationErrors(err))
	}
	for _, dir := range c.Walk.SkipDirs {
		if !filepath.IsAbs(dir) {
			return errors.Wrap(errors.ErrInvalidConfig, "walk.skipDirs: %q is not an absolute path", dir)
		}
	}
	return nil
}

// GetMaxConcurrency returns how many probes may run at once
func (c *Config) GetMaxConcurrency() int {
	if c.MaxConcurrency <= 0 {
		return 1
	}
	return c.MaxConcurrency
}

// CommandTimeout bounds a single built-in command
func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.Timeouts.Command) * time.Second
}

// ProbeTimeout bounds one built-in probe
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Timeouts.Probe) * time.Second
}

// DeepScanTimeout bounds each external scanner
func (c *Config) DeepScanTimeout() time.Duration {
	return time.Duration(c.Timeouts.DeepScan) * time.Second
}

func formatValidationErrors(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, formatFieldError(fe))
	}
	return strings.Join(messages, "; ")
}

func formatFieldError(fe validator.FieldError) string {
	field := fe.Namespace()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
