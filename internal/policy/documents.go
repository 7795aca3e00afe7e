// Package policy holds the deployment policy documents and the client for
// the remote model review. The documents are the single source of truth for
// mode behavior; both the model instruction text and the fusion engine's
// recommendation tables derive from them.
package policy

import (
	"fmt"
	"strings"

	"github.com/riskgate/riskgate/internal/types"
)

// Document is one deployment policy: how each risk level maps to a deploy
// action under a given mode, plus the escalation rules the reviewer must
// honor.
type Document struct {
	Mode            types.PolicyMode
	Version         string
	Recommendations map[types.Severity]types.Recommendation
	EscalationRules []string
	DowngradeRules  []string
}

// Conservative blocks on High and forces review on Medium. It is the default
// for CI gates.
var Conservative = Document{
	Mode:    types.ModeConservative,
	Version: "2024.2",
	Recommendations: map[types.Severity]types.Recommendation{
		types.SevHigh: types.RecDeployBlocked,
		types.SevMed:  types.RecManualReview,
		types.SevLow:  types.RecAllow,
	},
	EscalationRules: []string{
		"Any detected secret or credential forces High risk.",
		"Any dangerous code execution pattern forces High risk.",
		"Three or more Medium findings escalate to High risk.",
		"If the reviewer is unavailable, risk is floored at Medium.",
	},
	DowngradeRules: []string{
		"No downgrades are permitted in conservative mode.",
	},
}

// Permissive allows deploys with warnings on Medium and admits one narrow
// downgrade for clearly labeled placeholder secrets.
var Permissive = Document{
	Mode:    types.ModePermissive,
	Version: "2024.2",
	Recommendations: map[types.Severity]types.Recommendation{
		types.SevHigh: types.RecDeployBlocked,
		types.SevMed:  types.RecAllowWithWarn,
		types.SevLow:  types.RecAllow,
	},
	EscalationRules: []string{
		"Any detected secret or credential forces High risk.",
		"Any dangerous code execution pattern forces High risk.",
		"Three or more Medium findings escalate to High risk.",
	},
	DowngradeRules: []string{
		"A High risk caused solely by secret findings may be downgraded to " +
			"Medium only when every flagged value is a clearly labeled " +
			"placeholder or test fixture, and the justification must name " +
			"the placeholder convention observed.",
	},
}

// ForMode returns the policy document for a mode. Unknown modes fall back to
// conservative.
func ForMode(mode types.PolicyMode) Document {
	if mode == types.ModePermissive {
		return Permissive
	}
	return Conservative
}

// Render produces the instruction text sent to the model. The text is
// generated from the tables so the prompt can never drift from the policy.
func (d Document) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Deployment policy (mode: %s, version %s).\n\n", d.Mode, d.Version)

	b.WriteString("Risk levels map to deploy actions as follows:\n")
	for _, sev := range []types.Severity{types.SevHigh, types.SevMed, types.SevLow} {
		fmt.Fprintf(&b, "- %s: %s\n", sev, d.Recommendations[sev])
	}

	b.WriteString("\nEscalation rules (mandatory):\n")
	for _, r := range d.EscalationRules {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	b.WriteString("\nDowngrade rules:\n")
	for _, r := range d.DowngradeRules {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	b.WriteString("\nAssess the scan input, honor the rules above, and report " +
		"your own risk level with rationale. You may report additional " +
		"findings the static rules missed. Never report a lower risk level " +
		"than the rules above require.\n")

	return b.String()
}
