package rules

import (
	"regexp"

	"github.com/riskgate/riskgate/internal/types"
)

// Rule is one compiled matching rule. A loaded rule set is read-only and safe
// for concurrent use.
type Rule struct {
	RuleID      string
	Category    string
	Severity    types.Severity
	Description string
	Patterns    []*regexp.Regexp
}

// Builtin returns the default rule set used when no specification file is
// provided. Patterns are compiled once at call time; MustCompile is safe here
// because the set is covered by tests.
func Builtin() []Rule {
	return []Rule{
		{
			RuleID:      "SEC001",
			Category:    types.CategorySecrets,
			Severity:    types.SevHigh,
			Description: "Hard-coded API key or token-like secret.",
			Patterns: compile(
				`(?i)(api[_-]?key|secret|access[_-]?token|private[_-]?key)\s*[:=]\s*['"][A-Za-z0-9_\-\.\=]{12,}['"]`,
				`AKIA[0-9A-Z]{16}`,
				`(?i)ghp_[A-Za-z0-9]{36}`,
				`(?i)AIza[0-9A-Za-z\-_]{35}`,
			),
		},
		{
			RuleID:      "SEC002",
			Category:    types.CategoryUnsafeExec,
			Severity:    types.SevHigh,
			Description: "Potential arbitrary code execution sink.",
			Patterns: compile(
				`\beval\s*\(`,
				`\bexec\s*\(`,
				`\bos\.system\s*\(`,
				`\bsubprocess\.(Popen|call|run|check_output|check_call)\s*\(`,
				`\bRuntime\.getRuntime\(\)\.exec\s*\(`,
				`\bchild_process\.(exec|execSync|spawn|spawnSync)\s*\(`,
			),
		},
		{
			RuleID:      "SEC003",
			Category:    types.CategoryNetwork,
			Severity:    types.SevMed,
			Description: "Outbound network request detected (review trust boundaries).",
			Patterns: compile(
				`\brequests\.(get|post|put|delete|patch|request)\s*\(`,
				`\bhttpx\.(get|post|put|delete|patch|request)\s*\(`,
				`\burllib\.request\.`,
				`\bfetch\s*\(`,
				`\baxios\.(get|post|put|delete|patch|request)\s*\(`,
				`\bXMLHttpRequest\b`,
				`\bnew\s+WebSocket\s*\(`,
			),
		},
		{
			RuleID:      "SEC004",
			Category:    types.CategoryDataExposure,
			Severity:    types.SevMed,
			Description: "Sensitive data may be logged or exposed.",
			Patterns: compile(
				`(?i)(print|console\.log|logger\.(info|debug|warning|error))\s*\(.*(password|token|secret|authorization|api[_-]?key)`,
				`(?i)DEBUG\s*=\s*True`,
				`(?i)app\.run\(.*debug\s*=\s*True`,
				`(?i)CORS\(.*origins\s*=\s*['"]\*['"]`,
			),
		},
		{
			RuleID:      "SEC005",
			Category:    types.CategorySQLInjection,
			Severity:    types.SevHigh,
			Description: "String-formatted SQL query detected.",
			Patterns: compile(
				`(?i)(SELECT|INSERT|UPDATE|DELETE).*(%s|\+\s*\w+|\{\w+\})`,
				`(?i)cursor\.execute\s*\(\s*f['"].*(SELECT|INSERT|UPDATE|DELETE)`,
				`(?i)executeQuery\s*\(\s*['"].*(SELECT|INSERT|UPDATE|DELETE).*\+`,
			),
		},
		{
			RuleID:      "SEC006",
			Category:    types.CategoryDeserializing,
			Severity:    types.SevHigh,
			Description: "Potentially unsafe deserialization usage.",
			Patterns: compile(
				`\bpickle\.loads\s*\(`,
				`\byaml\.load\s*\([^,)]*\)`,
				`\bObjectInputStream\b`,
				`\bunserialize\s*\(`,
			),
		},
	}
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// IDs returns the rule identifiers of a set, in order.
func IDs(set []Rule) []string {
	out := make([]string, 0, len(set))
	for _, r := range set {
		out = append(out, r.RuleID)
	}
	return out
}
