package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/riskgate/riskgate/internal/types"
)

// ErrInvalidSpec marks fatal rule-specification errors. A scan must not start
// with a partially valid rule set, so loaders never skip bad entries.
var ErrInvalidSpec = errors.New("invalid rule specification")

// specFile is the on-disk YAML shape of a custom rule specification.
type specFile struct {
	Rules []specRule `yaml:"rules"`
}

type specRule struct {
	RuleID      string   `yaml:"rule_id"`
	Category    string   `yaml:"category"`
	Severity    string   `yaml:"severity"`
	Description string   `yaml:"description"`
	Patterns    []string `yaml:"patterns"`
}

// Load returns the rule set to scan with and a description of its source.
// An empty path selects the builtin set. Any structural problem in a custom
// specification is fatal and wraps ErrInvalidSpec.
func Load(path string) ([]Rule, string, error) {
	if path == "" {
		return Builtin(), "builtin", nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %v", ErrInvalidSpec, path, err)
	}

	var spec specFile
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, "", fmt.Errorf("%w: parse %s: %v", ErrInvalidSpec, path, err)
	}
	if len(spec.Rules) == 0 {
		return nil, "", fmt.Errorf("%w: %s contains no rules", ErrInvalidSpec, path)
	}

	set := make([]Rule, 0, len(spec.Rules))
	for i, sr := range spec.Rules {
		r, err := compileSpecRule(i, sr)
		if err != nil {
			return nil, "", err
		}
		set = append(set, r)
	}
	return set, path, nil
}

func compileSpecRule(idx int, sr specRule) (Rule, error) {
	if sr.RuleID == "" || sr.Category == "" || sr.Description == "" {
		return Rule{}, fmt.Errorf("%w: rule at index %d is missing rule_id, category or description", ErrInvalidSpec, idx)
	}
	sev := types.Severity(sr.Severity)
	if !sev.Valid() {
		return Rule{}, fmt.Errorf("%w: rule %q has severity %q, expected one of Low, Medium, High", ErrInvalidSpec, sr.RuleID, sr.Severity)
	}
	if len(sr.Patterns) == 0 {
		return Rule{}, fmt.Errorf("%w: rule %q must include a non-empty patterns list", ErrInvalidSpec, sr.RuleID)
	}

	compiled := make([]*regexp.Regexp, 0, len(sr.Patterns))
	for pi, p := range sr.Patterns {
		if p == "" {
			return Rule{}, fmt.Errorf("%w: rule %q pattern %d is empty", ErrInvalidSpec, sr.RuleID, pi)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: rule %q pattern %d: %v", ErrInvalidSpec, sr.RuleID, pi, err)
		}
		compiled = append(compiled, re)
	}

	return Rule{
		RuleID:      sr.RuleID,
		Category:    sr.Category,
		Severity:    sev,
		Description: sr.Description,
		Patterns:    compiled,
	}, nil
}
