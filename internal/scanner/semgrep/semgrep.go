// Package semgrep adapts the external semgrep static-analysis engine to the
// canonical finding model. It shells out to an installed semgrep binary; no
// rules are bundled here.
package semgrep

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/riskgate/riskgate/internal/scanner"
	"github.com/riskgate/riskgate/internal/types"
)

// Adapter invokes semgrep with one or more rule configs.
type Adapter struct {
	// BinaryPath optionally pins the semgrep binary; empty means $PATH.
	BinaryPath string

	// Configs are semgrep --config values ("auto", registry refs, or rule
	// file paths). Empty defaults to "auto".
	Configs []string

	resolved string
}

// Name implements scanner.Adapter.
func (a *Adapter) Name() string { return types.EngineSemgrep }

// Detect implements scanner.Adapter.
func (a *Adapter) Detect() (string, error) {
	path, err := scanner.FindBinary("semgrep", a.BinaryPath)
	if err != nil {
		return "", err
	}
	a.resolved = path

	detail := path
	if v := scanner.BinaryVersion(path, "--version"); v != "" {
		detail = fmt.Sprintf("%s (v%s)", path, v)
	}
	return detail, nil
}

// Invoke implements scanner.Adapter. Exit code 1 means findings were
// reported, which is a successful run for a gate.
func (a *Adapter) Invoke(ctx context.Context, target string) ([]byte, error) {
	if a.resolved == "" {
		return nil, errors.New("semgrep binary not resolved; call Detect first")
	}

	args := []string{"scan", "--json", "--quiet", "--no-git-ignore"}
	configs := a.Configs
	if len(configs) == 0 {
		configs = []string{"auto"}
	}
	for _, c := range configs {
		args = append(args, "--config", c)
	}
	args = append(args, target)

	cmd := exec.CommandContext(ctx, a.resolved, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return stdout.Bytes(), nil
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("semgrep execution failed: %s", msg)
	}
	return stdout.Bytes(), nil
}

type nativeReport struct {
	Results []nativeResult `json:"results"`
}

type nativeResult struct {
	CheckID string `json:"check_id"`
	Path    string `json:"path"`
	Start   struct {
		Line int `json:"line"`
	} `json:"start"`
	Extra struct {
		Message  string `json:"message"`
		Severity string `json:"severity"`
		Lines    string `json:"lines"`
	} `json:"extra"`
}

// Parse implements scanner.Adapter.
func (a *Adapter) Parse(raw []byte, target string) ([]types.Finding, error) {
	var report nativeReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("invalid semgrep JSON: %w", err)
	}

	findings := make([]types.Finding, 0, len(report.Results))
	for _, r := range report.Results {
		evidence := r.Extra.Lines
		if i := strings.IndexByte(evidence, '\n'); i >= 0 {
			evidence = evidence[:i]
		}
		findings = append(findings, types.Finding{
			RuleID:         fmt.Sprintf("SEMGREP:%s", r.CheckID),
			ExternalRuleID: r.CheckID,
			Category:       categoryFor(r.CheckID),
			Severity:       scanner.NormalizeSeverity(r.Extra.Severity, types.SevMed),
			File:           scanner.RelPath(target, r.Path),
			Line:           r.Start.Line,
			Evidence:       scanner.NormalizeEvidence(evidence),
			Description:    r.Extra.Message,
			SourceEngine:   types.EngineSemgrep,
		})
	}
	return findings, nil
}

// categoryFor derives a coarse category from a semgrep check id so fusion
// heuristics treat external findings uniformly with builtin ones.
func categoryFor(checkID string) string {
	id := strings.ToLower(checkID)
	switch {
	case strings.Contains(id, "secret"), strings.Contains(id, "credential"),
		strings.Contains(id, "hardcoded-key"), strings.Contains(id, "password"):
		return types.CategorySecrets
	case strings.Contains(id, "exec"), strings.Contains(id, "eval"),
		strings.Contains(id, "subprocess"), strings.Contains(id, "command-injection"):
		return types.CategoryUnsafeExec
	case strings.Contains(id, "sql"):
		return types.CategorySQLInjection
	case strings.Contains(id, "pickle"), strings.Contains(id, "deserial"),
		strings.Contains(id, "yaml-load"):
		return types.CategoryDeserializing
	default:
		return "Static Analysis"
	}
}
