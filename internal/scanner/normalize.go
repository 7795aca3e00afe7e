package scanner

import (
	"path/filepath"
	"strings"

	"github.com/riskgate/riskgate/internal/types"
)

// maxEvidenceRunes caps the verbatim source text carried per finding.
const maxEvidenceRunes = 180

// NormalizeSeverity maps an engine's native severity label onto the canonical
// three-level scale. Unknown labels fall back to def so an unrecognized
// engine vocabulary never drops a finding.
func NormalizeSeverity(raw string, def types.Severity) types.Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error", "critical", "high":
		return types.SevHigh
	case "warning", "warn", "medium", "moderate":
		return types.SevMed
	case "info", "low":
		return types.SevLow
	default:
		return def
	}
}

// NormalizeEvidence trims surrounding whitespace, flattens tabs, and caps the
// evidence span with an ellipsis.
func NormalizeEvidence(line string) string {
	line = strings.ReplaceAll(strings.TrimSpace(line), "\t", " ")
	runes := []rune(line)
	if len(runes) > maxEvidenceRunes {
		return string(runes[:maxEvidenceRunes-3]) + "..."
	}
	return line
}

// RelPath reports path relative to the scan root when it is contained in it,
// otherwise the path unchanged. Engines emit a mix of absolute and relative
// paths; reports always show root-relative ones.
func RelPath(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
