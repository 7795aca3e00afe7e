package policy

import (
	"fmt"
	"sort"

	"github.com/riskgate/riskgate/internal/redact"
	"github.com/riskgate/riskgate/internal/types"
)

// DefaultMaxFindings bounds how many findings travel to the model.
const DefaultMaxFindings = 40

// KeyFinding is one finding as presented to the model, with a stable id the
// verdict can reference in per-finding notes.
type KeyFinding struct {
	ID           string `json:"id"`
	SourceEngine string `json:"source_engine"`
	Category     string `json:"category"`
	Severity     string `json:"severity"`
	File         string `json:"file"`
	Line         int    `json:"line,omitempty"`
	Evidence     string `json:"evidence"`
	Explanation  string `json:"explanation,omitempty"`
	Context      string `json:"context_snippet,omitempty"`
}

// Summary is the per-engine and per-severity count table in the payload.
type Summary struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity"`
	ByEngine   map[string]int `json:"by_engine"`
}

// Input is the full scan payload sent to the model. Everything in it has
// passed through the redactor before marshaling.
type Input struct {
	Mode        types.PolicyMode      `json:"mode"`
	ScannedPath string                `json:"scanned_path"`
	Summary     Summary               `json:"tool_summary"`
	Findings    []KeyFinding          `json:"findings_sample"`
	Redaction   types.RedactionRecord `json:"input_redaction"`
}

// Summarize counts findings by severity and source engine.
func Summarize(findings []types.Finding) Summary {
	s := Summary{
		Total:      len(findings),
		BySeverity: map[string]int{},
		ByEngine:   map[string]int{},
	}
	for _, f := range findings {
		s.BySeverity[string(f.Severity)]++
		s.ByEngine[f.SourceEngine]++
	}
	return s
}

// BuildInput selects the most severe findings up to limit, scrubs each
// evidence span and context window through the redactor, and assembles the
// bounded payload. The returned record is the audit trail of the scrub.
func BuildInput(
	mode types.PolicyMode,
	root string,
	findings []types.Finding,
	r *redact.Redactor,
	limit, contextLines int,
) (Input, types.RedactionRecord) {
	if limit <= 0 {
		limit = DefaultMaxFindings
	}
	if contextLines <= 0 {
		contextLines = redact.DefaultContextLines
	}

	top := make([]types.Finding, len(findings))
	copy(top, findings)
	sort.SliceStable(top, func(i, j int) bool {
		a, b := top[i], top[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	if len(top) > limit {
		top = top[:limit]
	}

	record := types.RedactionRecord{
		Enabled:            r.Enabled(),
		FindingsConsidered: len(top),
		ContextLines:       contextLines,
		ByCategory:         map[string]int{},
	}

	sample := make([]KeyFinding, 0, len(top))
	for i, f := range top {
		evidence, replaced := r.Evidence(f)
		record.ReplacementCount += replaced

		var context string
		if snippet, ok := redact.BuildContext(root, f, contextLines); ok {
			scrubbed, n := r.Text(snippet, f)
			context = scrubbed
			replaced += n
			record.ReplacementCount += n
			record.ContextAttached++
		}
		if replaced > 0 {
			record.FindingsRedacted++
			record.ByCategory[f.Category] += replaced
		}

		sample = append(sample, KeyFinding{
			ID:           fmt.Sprintf("KF-%03d", i+1),
			SourceEngine: f.SourceEngine,
			Category:     f.Category,
			Severity:     string(f.Severity),
			File:         f.File,
			Line:         f.Line,
			Evidence:     evidence,
			Explanation:  f.Description,
			Context:      context,
		})
	}

	for cat := range record.ByCategory {
		record.Categories = append(record.Categories, cat)
	}
	sort.Strings(record.Categories)

	return Input{
		Mode:        mode,
		ScannedPath: root,
		Summary:     Summarize(findings),
		Findings:    sample,
		Redaction:   record,
	}, record
}
