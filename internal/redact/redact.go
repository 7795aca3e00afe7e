package redact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/riskgate/riskgate/internal/types"
)

// Placeholder replaces every redacted span. A single fixed marker keeps the
// payload auditable without hinting at the shape of the original value.
const Placeholder = "***REDACTED***"

// rule pairs a trigger regex with its replacement template.
type rule struct {
	re   *regexp.Regexp
	repl string
}

// The builtin set targets generic secret-shaped substrings: key/value
// assignments (quoted and bare), bearer headers, and well-known token
// literals. RE2 has no backreferences, so quoted assignments are split into
// per-quote variants.
var builtinRules = []rule{
	{
		re:   regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?token|auth[_-]?token|secret|password|passwd|private[_-]?key|client[_-]?secret|authorization)\b(\s*[:=]\s*)"([^"]{4,})"`),
		repl: `${1}${2}"` + Placeholder + `"`,
	},
	{
		re:   regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?token|auth[_-]?token|secret|password|passwd|private[_-]?key|client[_-]?secret|authorization)\b(\s*[:=]\s*)'([^']{4,})'`),
		repl: `${1}${2}'` + Placeholder + `'`,
	},
	{
		re:   regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?token|auth[_-]?token|secret|password|passwd|private[_-]?key|client[_-]?secret|authorization)\b(\s*[:=]\s*)([A-Za-z0-9_\-./+=]{6,})`),
		repl: `${1}${2}` + Placeholder,
	},
	{
		re:   regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9\-._~+/]+=*`),
		repl: "Bearer " + Placeholder,
	},
	{re: regexp.MustCompile(`AKIA[0-9A-Z]{16}`), repl: Placeholder},
	{re: regexp.MustCompile(`(?i)ghp_[A-Za-z0-9]{36}`), repl: Placeholder},
	{re: regexp.MustCompile(`(?i)AIza[0-9A-Za-z\-_]{35}`), repl: Placeholder},
}

// fallbackAssignment masks everything right of an assignment operator when a
// secret-like finding slipped past the generic rules.
var fallbackAssignment = regexp.MustCompile(`(?i)(\b(?:api[_-]?key|secret|token|password|authorization)\b\s*[:=]\s*)(.+)$`)

// Redactor scrubs likely-sensitive substrings from text before it leaves the
// process. The zero value is unusable; construct with New.
type Redactor struct {
	enabled bool
	rules   []rule
}

// New builds a Redactor. Extra patterns extend the builtin set; an invalid
// extra pattern is a configuration error and aborts construction.
func New(enabled bool, extraPatterns []string) (*Redactor, error) {
	r := &Redactor{enabled: enabled, rules: builtinRules}
	for i, p := range extraPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %d: %w", i, err)
		}
		r.rules = append(r.rules, rule{re: re, repl: Placeholder})
	}
	return r, nil
}

// Enabled reports whether scrubbing is active.
func (r *Redactor) Enabled() bool { return r.enabled }

// Evidence scrubs one finding's evidence line. Secrets-category findings have
// their entire span replaced regardless of content; everything else gets the
// generic pattern sweep. Returns the scrubbed text and replacement count.
func (r *Redactor) Evidence(f types.Finding) (string, int) {
	if !r.enabled {
		return f.Evidence, 0
	}
	if isSecretFinding(f) {
		return Placeholder, 1
	}
	return r.sweep(f.Evidence, f)
}

// Text scrubs a multi-line snippet (a context window). The sweep runs on the
// whole window; secret-like findings additionally get the assignment-RHS
// fallback so a value never survives just because no generic rule knew its
// shape. On any internal failure the snippet is dropped entirely rather than
// passed through raw.
func (r *Redactor) Text(s string, f types.Finding) (out string, n int) {
	if !r.enabled {
		return s, 0
	}
	defer func() {
		if rec := recover(); rec != nil {
			out, n = Placeholder, 1
		}
	}()
	return r.sweep(s, f)
}

func (r *Redactor) sweep(s string, f types.Finding) (string, int) {
	total := 0
	for _, ru := range r.rules {
		matches := len(ru.re.FindAllStringIndex(s, -1))
		if matches == 0 {
			continue
		}
		s = ru.re.ReplaceAllString(s, ru.repl)
		total += matches
	}
	if total == 0 && isSecretFinding(f) {
		lines := strings.Split(s, "\n")
		for i, line := range lines {
			if fallbackAssignment.MatchString(line) {
				lines[i] = fallbackAssignment.ReplaceAllString(line, `${1}`+Placeholder)
				total++
			}
		}
		s = strings.Join(lines, "\n")
	}
	return s, total
}

// isSecretFinding reports whether a finding denotes secret or credential
// material. Gitleaks output is always secret material by construction.
func isSecretFinding(f types.Finding) bool {
	if f.Category == types.CategorySecrets {
		return true
	}
	if f.SourceEngine == types.EngineGitleaks {
		return true
	}
	text := strings.ToLower(f.RuleID + " " + f.Category + " " + f.Description)
	for _, tok := range []string{"secret", "credential", "token", "api_key", "access_key", "private key"} {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// IsDangerousExecFinding reports whether a finding denotes dynamic code
// evaluation, shell or process invocation, or similar execution sinks.
func IsDangerousExecFinding(f types.Finding) bool {
	if f.Category == types.CategoryUnsafeExec {
		return true
	}
	text := strings.ToLower(f.RuleID + " " + f.Category + " " + f.Description + " " + f.Evidence)
	for _, tok := range []string{"eval(", "exec(", "os.system", "subprocess", "child_process.exec", "runtime.getruntime().exec", "command injection", "dangerous execution"} {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

// IsSecretFinding is the exported form used by fusion.
func IsSecretFinding(f types.Finding) bool { return isSecretFinding(f) }
