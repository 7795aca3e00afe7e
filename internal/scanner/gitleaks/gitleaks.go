// Package gitleaks adapts the external gitleaks secret scanner to the
// canonical finding model.
package gitleaks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/riskgate/riskgate/internal/scanner"
	"github.com/riskgate/riskgate/internal/types"
)

// Adapter invokes gitleaks in filesystem mode against the target tree.
type Adapter struct {
	// BinaryPath optionally pins the gitleaks binary; empty means $PATH.
	BinaryPath string

	// ConfigPath optionally points at a gitleaks TOML config.
	ConfigPath string

	resolved string
}

// Name implements scanner.Adapter.
func (a *Adapter) Name() string { return types.EngineGitleaks }

// Detect implements scanner.Adapter.
func (a *Adapter) Detect() (string, error) {
	path, err := scanner.FindBinary("gitleaks", a.BinaryPath)
	if err != nil {
		return "", err
	}
	a.resolved = path

	detail := path
	if v := scanner.BinaryVersion(path, "version"); v != "" {
		detail = fmt.Sprintf("%s (v%s)", path, v)
	}
	return detail, nil
}

// Invoke implements scanner.Adapter. Gitleaks writes its JSON report to a
// file rather than stdout; --exit-code 0 keeps leak detection from being
// reported as a process failure.
func (a *Adapter) Invoke(ctx context.Context, target string) ([]byte, error) {
	if a.resolved == "" {
		return nil, errors.New("gitleaks binary not resolved; call Detect first")
	}

	reportDir, err := os.MkdirTemp("", "riskgate-gitleaks-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	defer os.RemoveAll(reportDir)
	reportPath := filepath.Join(reportDir, "report.json")

	args := []string{
		"dir", target,
		"--report-format", "json",
		"--report-path", reportPath,
		"--exit-code", "0",
		"--no-banner",
	}
	if a.ConfigPath != "" {
		args = append(args, "--config", a.ConfigPath)
	}

	cmd := exec.CommandContext(ctx, a.resolved, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("gitleaks execution failed: %s", msg)
	}

	raw, err := os.ReadFile(reportPath)
	if err != nil {
		return nil, fmt.Errorf("gitleaks produced no report: %w", err)
	}
	return raw, nil
}

type nativeLeak struct {
	RuleID      string `json:"RuleID"`
	Description string `json:"Description"`
	File        string `json:"File"`
	StartLine   int    `json:"StartLine"`
	Match       string `json:"Match"`
}

// Parse implements scanner.Adapter. Every leak is a secrets finding and
// secrets are always High.
func (a *Adapter) Parse(raw []byte, target string) ([]types.Finding, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var leaks []nativeLeak
	if err := json.Unmarshal(raw, &leaks); err != nil {
		return nil, fmt.Errorf("invalid gitleaks JSON: %w", err)
	}

	findings := make([]types.Finding, 0, len(leaks))
	for _, l := range leaks {
		desc := l.Description
		if desc == "" {
			desc = "Secret detected by gitleaks"
		}
		findings = append(findings, types.Finding{
			RuleID:         fmt.Sprintf("GITLEAKS:%s", l.RuleID),
			ExternalRuleID: l.RuleID,
			Category:       types.CategorySecrets,
			Severity:       types.SevHigh,
			File:           scanner.RelPath(target, l.File),
			Line:           l.StartLine,
			Evidence:       scanner.NormalizeEvidence(l.Match),
			Description:    desc,
			SourceEngine:   types.EngineGitleaks,
		})
	}
	return findings, nil
}
