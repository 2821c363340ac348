// Package config loads specguard settings from .specguard.yaml, SPECGUARD_*
// environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	yamlv3 "gopkg.in/yaml.v3"
)

// FileName is the project-level configuration file.
const FileName = ".specguard.yaml"

// EnvPrefix prefixes every environment override, e.g. SPECGUARD_SCOPE.
const EnvPrefix = "SPECGUARD_"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the effective settings for one invocation.
type Config struct {
	// Rules is an external rule document replacing the embedded defaults.
	Rules       string   `koanf:"rules" yaml:"rules,omitempty"`
	ProjectType string   `koanf:"project_type" yaml:"project_type,omitempty"`
	Scope       string   `koanf:"scope" yaml:"scope,omitempty"`
	Exclude     []string `koanf:"exclude" yaml:"exclude,omitempty"`
	Format      string   `koanf:"format" yaml:"format"`
	Parallel    int      `koanf:"parallel" yaml:"parallel"`
	Verbose     bool     `koanf:"verbose" yaml:"verbose"`

	// FileUsed is the configuration file that was loaded, if any.
	FileUsed string `koanf:"-" yaml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{Format: FormatText, Parallel: 1}
}

// flagKeys maps command-line flag names to configuration keys. Flags not
// listed here are command options, not settings.
var flagKeys = map[string]string{
	"rules":    "rules",
	"type":     "project_type",
	"scope":    "scope",
	"exclude":  "exclude",
	"format":   "format",
	"parallel": "parallel",
	"verbose":  "verbose",
}

// Load builds the configuration for the project at root.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// An explicit cfgFile must exist; otherwise root/.specguard.yaml is used when present.
func Load(root, cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	def := Defaults()
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"format":   def.Format,
		"parallel": def.Parallel,
		"verbose":  def.Verbose,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used, err := findConfigFile(root, cfgFile)
	if err != nil {
		return nil, err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// SPECGUARD_PROJECT_TYPE -> project_type
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	rulesFromFlag := false
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			if key == "rules" {
				rulesFromFlag = true
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.FileUsed = used
	cfg.Exclude = splitList(cfg.Exclude)

	// A rule path from the config file is relative to the file's directory;
	// one given on the command line is relative to the working directory.
	if cfg.Rules != "" && !rulesFromFlag && used != "" && !filepath.IsAbs(cfg.Rules) {
		cfg.Rules = filepath.Join(filepath.Dir(used), cfg.Rules)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can honour.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("invalid format %q (want text or json)", c.Format)
	}
	if c.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative, got %d", c.Parallel)
	}
	return nil
}

// Save writes cfg to root/.specguard.yaml.
func Save(root string, cfg *Config) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("config is nil")
	}
	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

func findConfigFile(root, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	for _, name := range []string{FileName, ".specguard.yml"} {
		candidate := filepath.Join(root, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// splitList expands comma-separated entries, as environment variables carry
// lists as a single string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
