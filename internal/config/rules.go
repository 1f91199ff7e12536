package config

import (
	"fmt"
	"os"

	"github.com/gobwas/glob"
	sigsyaml "sigs.k8s.io/yaml"
)

// RulesConfig holds per-template overrides loaded from the config file
// (.hbswatch.yaml).
type RulesConfig struct {
	// Rules are evaluated in order; the first matching rule wins.
	Rules []Rule `json:"rules,omitempty"`
}

// Rule overrides compile options for templates whose root-relative path
// matches Match.
type Rule struct {
	// Match is a glob pattern ("**" crosses directories).
	Match string `json:"match"`

	// Partial forces partial registration on or off. Nil inherits the
	// global register-partials setting.
	Partial *bool `json:"partial,omitempty"`

	// OutputFolder overrides the global output folder.
	OutputFolder string `json:"outputFolder,omitempty"`
}

// ParseRules parses the rules section from raw config file bytes.
func ParseRules(data []byte) (*RulesConfig, error) {
	var cfg RulesConfig
	if err := sigsyaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadRules reads the rules section from the config file at path. An empty
// path yields an empty RulesConfig.
func LoadRules(path string) (*RulesConfig, error) {
	if path == "" {
		return &RulesConfig{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the resolved config file
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	return ParseRules(data)
}

// Validate checks every rule for a usable match pattern.
func (c *RulesConfig) Validate() error {
	for i, r := range c.Rules {
		if r.Match == "" {
			return fmt.Errorf("rules[%d]: match is required", i)
		}

		if _, err := glob.Compile(r.Match, '/'); err != nil {
			return fmt.Errorf("rules[%d]: invalid match %q: %w", i, r.Match, err)
		}
	}

	return nil
}

// IsEmpty returns true if no rules are configured.
func (c *RulesConfig) IsEmpty() bool {
	return len(c.Rules) == 0
}
