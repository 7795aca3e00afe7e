package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/riskgate/riskgate/internal/types"
)

// WriteJSON writes the indented report to path, or to w when path is empty.
func WriteJSON(w io.Writer, path string, r *types.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// PrintSummary renders the human-readable verdict and findings table.
// Evidence is masked a second time here: terminals and CI logs are an
// external surface just like the model endpoint.
func PrintSummary(w io.Writer, r *types.Report) {
	fmt.Fprintf(w, "Risk level:     %s\n", r.RiskLevel)
	fmt.Fprintf(w, "Recommendation: %s\n", r.Recommendation)
	fmt.Fprintf(w, "Files scanned:  %d (findings: %d, skipped: %d)\n",
		r.Metadata.FilesScanned, r.Metadata.FindingsCount, len(r.Metadata.SkippedFiles))

	for _, e := range r.Metadata.Engines {
		fmt.Fprintf(w, "Engine %-10s %s", e.Name, e.State)
		if e.State == types.EngineOK {
			fmt.Fprintf(w, " (%d findings)", e.Findings)
		}
		fmt.Fprintln(w)
	}

	if len(r.RuleFindings) > 0 {
		fmt.Fprintln(w)
		table := tablewriter.NewWriter(w)
		table.Header("Severity", "Rule", "Location", "Evidence")
		for _, f := range displayOrder(r.RuleFindings) {
			loc := f.File
			if f.Line > 0 {
				loc += ":" + strconv.Itoa(f.Line)
			}
			_ = table.Append([]string{string(f.Severity), f.RuleID, loc, maskValue(f.Evidence)})
		}
		_ = table.Render()
	}

	if len(r.Metadata.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range r.Metadata.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
	}

	if len(r.AIGate.FusionDecision.DecisionPath) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Decision path:")
		for _, step := range r.AIGate.FusionDecision.DecisionPath {
			fmt.Fprintf(w, "  - %s\n", step)
		}
	}
}

// displayOrder copies findings and sorts them most severe first, then by
// location, then by rule. Report findings themselves stay in discovery order.
func displayOrder(findings []types.Finding) []types.Finding {
	out := make([]types.Finding, len(findings))
	copy(out, findings)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.RuleID < b.RuleID
	})
	return out
}

// maskValue keeps only the edges of an evidence span for display.
func maskValue(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
