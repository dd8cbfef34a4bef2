package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"workboard/internal/status"
)

// Config models workboard.yml: deployment-local display vocabulary plus the
// optional webhook fan-out targets.
type Config struct {
	Statuses struct {
		// Aliases maps extra display strings (already folded or not) to
		// canonical status keys, on top of the built-in table.
		Aliases map[string]string `yaml:"aliases"`
	} `yaml:"statuses"`
	Defaults struct {
		// Priority per item kind when the caller omits one.
		Priority map[string]string `yaml:"priority"`
	} `yaml:"defaults"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
	Server   struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"server"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

// Validate ensures alias targets and default priorities are canonical.
func (c *Config) Validate() error {
	valid := map[string]bool{string(status.Open): true}
	for _, k := range status.All {
		valid[string(k)] = true
	}
	for raw, key := range c.Statuses.Aliases {
		if raw == "" {
			return fmt.Errorf("config.statuses.aliases contains empty display string")
		}
		if !valid[key] {
			return fmt.Errorf("alias %q maps to unknown canonical status %q", raw, key)
		}
	}
	for kind, p := range c.Defaults.Priority {
		if !status.ValidPriority(p) {
			return fmt.Errorf("default priority %q for kind %q is not valid", p, kind)
		}
	}
	for i, w := range c.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
	}
	return nil
}

// StatusAliases returns the alias table with folded lookup keys.
func (c *Config) StatusAliases() map[string]status.Key {
	if c == nil {
		return nil
	}
	out := make(map[string]status.Key, len(c.Statuses.Aliases))
	for raw, key := range c.Statuses.Aliases {
		out[status.Fold(raw)] = status.Key(key)
	}
	return out
}

// DefaultPriority returns the priority for a kind, falling back to the
// built-in defaults: requests open as normal, tasks as routine.
func (c *Config) DefaultPriority(kind string) string {
	if c != nil {
		if p, ok := c.Defaults.Priority[kind]; ok {
			return p
		}
	}
	if kind == "task" {
		return "routine"
	}
	return "normal"
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "workboard.yml")
}

// Default returns the built-in config.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(DefaultTemplate), &cfg)
	return &cfg
}

// LoadOptional reads workspace config, returning the defaults when the file
// does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultTemplate is the workboard.yml scaffold written by `wb config init`.
const DefaultTemplate = `statuses:
  aliases: {}

defaults:
  priority:
    request: normal
    task: routine
`
