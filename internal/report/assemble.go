// Package report assembles the final scan artifact and renders it. Assembly
// is a pure merge; all risk decisions are made upstream by the fusion step.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/riskgate/riskgate/internal/engine"
	"github.com/riskgate/riskgate/internal/types"
)

// Params collects every upstream output that flows into the report.
type Params struct {
	Root        string
	Mode        types.PolicyMode
	RulesCount  int
	RulesSource string
	Scan        *engine.Result
	Git         *types.GitInfo
	Duration    time.Duration

	GateEnabled  bool
	Model        string
	PolicyStatus string
	PolicyDetail string
	Verdict      *types.PolicyVerdict
	Usage        *types.PolicyUsage
	Redaction    types.RedactionRecord
	Decision     types.FusionDecision
}

var defaultLimitations = []string{
	"Static analysis only; findings were not executed or verified at runtime.",
	"Rule and model fusion is heuristic and may miss context-dependent issues.",
}

// Assemble merges scan output, the fusion decision, and the gate outcome
// into one Report.
func Assemble(p Params) *types.Report {
	findings := p.Scan.Findings
	warnings := append([]string{}, p.Scan.Warnings...)
	if warnings == nil {
		warnings = []string{}
	}

	r := &types.Report{
		RiskLevel:      p.Decision.RiskLevel,
		Recommendation: p.Decision.Recommendation,
		RuleFindings:   findings,
		Limitations:    defaultLimitations,
		Metadata: types.Metadata{
			ScannedPath:   p.Root,
			FilesScanned:  p.Scan.FilesScanned,
			SkippedFiles:  p.Scan.SkippedFiles,
			FindingsCount: len(findings),
			RulesCount:    p.RulesCount,
			RulesSource:   p.RulesSource,
			Engines:       p.Scan.Engines,
			Warnings:      warnings,
			Git:           p.Git,
			AIUsage:       p.Usage,
			DurationMS:    p.Duration.Milliseconds(),
		},
		AIGate: types.AIGate{
			Enabled:        p.GateEnabled,
			PolicyMode:     p.Mode,
			Model:          p.Model,
			AnalysisStatus: p.PolicyStatus,
			AnalysisError:  p.PolicyDetail,
			FusionDecision: p.Decision,
			InputRedaction: p.Redaction,
		},
	}

	if p.Verdict != nil {
		r.AIAnalysis = types.AIAnalysis{
			RiskLevel:   p.Verdict.RiskLevel,
			Summary:     p.Verdict.Summary,
			Explanation: p.Verdict.Rationale,
			Mitigations: p.Verdict.Mitigations,
		}
		if len(p.Verdict.Limitations) > 0 {
			r.Limitations = p.Verdict.Limitations
		}
		r.RuleFindings = append(r.RuleFindings, p.Verdict.AdditionalFindings...)
		r.Metadata.FindingsCount = len(r.RuleFindings)
	} else {
		r.AIAnalysis = heuristicAnalysis(findings)
	}

	return r
}

// Severity weights for the heuristic summary used when no model verdict is
// available.
var severityScore = map[types.Severity]int{
	types.SevLow:  1,
	types.SevMed:  3,
	types.SevHigh: 6,
}

// heuristicAnalysis stands in for the model review when the gate is disabled
// or unavailable. It only summarizes; the fusion decision still governs the
// report's risk level.
func heuristicAnalysis(findings []types.Finding) types.AIAnalysis {
	if len(findings) == 0 {
		return types.AIAnalysis{
			RiskLevel: types.SevLow,
			Summary: "No rule-based findings detected. Validate with deeper " +
				"context-aware analysis before production.",
		}
	}

	score := 0
	hasHigh := false
	counts := map[string]int{}
	for _, f := range findings {
		score += severityScore[f.Severity]
		if f.Severity == types.SevHigh {
			hasHigh = true
		}
		counts[f.Category]++
	}

	risk := types.SevLow
	switch {
	case hasHigh && score >= 12:
		risk = types.SevHigh
	case hasHigh || score >= 6:
		risk = types.SevMed
	}

	return types.AIAnalysis{
		RiskLevel: risk,
		Summary: fmt.Sprintf(
			"Rule scan detected %d finding(s). Top categories: %s. Review data "+
				"flow and exploitability to reduce false positives.",
			len(findings), topCategories(counts, 3)),
	}
}

func topCategories(counts map[string]int, n int) string {
	type kv struct {
		name  string
		count int
	}
	sorted := make([]kv, 0, len(counts))
	for name, count := range counts {
		sorted = append(sorted, kv{name, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].name < sorted[j].name
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := ""
	for i, c := range sorted {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s (%d)", c.name, c.count)
	}
	return out
}
