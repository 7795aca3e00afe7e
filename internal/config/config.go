// Package config loads the on-disk YAML configuration. Precedence is
// CLI flag > repo-local file > global file; fields are pointers so an unset
// value is distinguishable from a zero one.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape.
type FileConfig struct {
	Include   *string `yaml:"include"`
	Exclude   *string `yaml:"exclude"`
	MaxFileKB *int    `yaml:"max_file_kb"`
	Rules     *string `yaml:"rules"`
	Out       *string `yaml:"out"`
	Verbose   *bool   `yaml:"verbose"`

	Semgrep  *SemgrepConfig  `yaml:"semgrep"`
	Gitleaks *GitleaksConfig `yaml:"gitleaks"`
	AI       *AIConfig       `yaml:"ai"`
}

// SemgrepConfig configures the semgrep engine integration.
type SemgrepConfig struct {
	Enabled *bool    `yaml:"enabled"`
	Binary  *string  `yaml:"binary"`
	Configs []string `yaml:"configs"`
}

// GitleaksConfig configures the gitleaks engine integration.
type GitleaksConfig struct {
	Enabled *bool   `yaml:"enabled"`
	Binary  *string `yaml:"binary"`
	Config  *string `yaml:"config"`
}

// AIConfig configures the model-assisted policy gate.
type AIConfig struct {
	Enabled      *bool   `yaml:"enabled"`
	Mode         *string `yaml:"mode"`
	BaseURL      *string `yaml:"base_url"`
	Model        *string `yaml:"model"`
	APIKeyEnv    *string `yaml:"api_key_env"`
	TimeoutSec   *int    `yaml:"timeout_sec"`
	MaxFindings  *int    `yaml:"max_findings"`
	ContextLines *int    `yaml:"context_lines"`
	RedactInput  *bool   `yaml:"redact_input"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a repo-local config file in the given root.
// It supports .riskgate.yml/.yaml and riskgate.yml/.yaml.
func LoadLocal(repoRoot string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".riskgate.yml", ".riskgate.yaml", "riskgate.yml", "riskgate.yaml"} {
		p := filepath.Join(repoRoot, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "riskgate", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// GetSemgrep returns the semgrep section, defaulted when absent.
func (fc FileConfig) GetSemgrep() SemgrepConfig {
	if fc.Semgrep == nil {
		return SemgrepConfig{}
	}
	return *fc.Semgrep
}

// GetGitleaks returns the gitleaks section, defaulted when absent.
func (fc FileConfig) GetGitleaks() GitleaksConfig {
	if fc.Gitleaks == nil {
		return GitleaksConfig{}
	}
	return *fc.Gitleaks
}

// GetAI returns the AI gate section, defaulted when absent.
func (fc FileConfig) GetAI() AIConfig {
	if fc.AI == nil {
		return AIConfig{}
	}
	return *fc.AI
}

// IsEnabled reports the section toggle, nil-safe.
func (sc SemgrepConfig) IsEnabled() bool { return sc.Enabled != nil && *sc.Enabled }

// IsEnabled reports the section toggle, nil-safe.
func (gc GitleaksConfig) IsEnabled() bool { return gc.Enabled != nil && *gc.Enabled }

// IsEnabled reports the section toggle, nil-safe.
func (ac AIConfig) IsEnabled() bool { return ac.Enabled != nil && *ac.Enabled }
