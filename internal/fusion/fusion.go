// Package fusion turns findings, engine health, and the optional model
// verdict into one deterministic risk decision. Given identical inputs it
// always produces the identical decision.
package fusion

import (
	"fmt"

	"github.com/riskgate/riskgate/internal/policy"
	"github.com/riskgate/riskgate/internal/redact"
	"github.com/riskgate/riskgate/internal/types"
)

// Override rule identifiers recorded in the decision.
const (
	SecretsAlwaysHigh            = "SECRETS_ALWAYS_HIGH"
	DangerousExecAlwaysHigh      = "DANGEROUS_EXEC_ALWAYS_HIGH"
	HighFindingOverride          = "HIGH_FINDING_OVERRIDE"
	MultiMediumEscalation        = "MULTI_MEDIUM_ESCALATION"
	AIEscalation                 = "AI_ESCALATION"
	PermissiveSecretsDowngrade   = "PERMISSIVE_SECRETS_DOWNGRADE"
	ConservativeModelUnavailable = "CONSERVATIVE_POLICY_UNAVAILABLE"
)

// mediumEscalationThreshold is the fixed, mode-independent count of Medium
// findings that escalates the baseline to High.
const mediumEscalationThreshold = 3

// Input is everything the fusion step consumes.
type Input struct {
	Mode         types.PolicyMode
	Findings     []types.Finding
	PolicyStatus string
	Verdict      *types.PolicyVerdict
}

type baseline struct {
	risk            types.Severity
	secretsOnlyHigh bool
	path            []string
	overrides       []types.Override
}

// computeBaseline derives the severity ceiling from non-model findings.
func computeBaseline(findings []types.Finding) baseline {
	var hasSecret, hasExec bool
	var highCount, mediumCount int
	for _, f := range findings {
		if redact.IsSecretFinding(f) {
			hasSecret = true
		}
		if redact.IsDangerousExecFinding(f) {
			hasExec = true
		}
		switch f.Severity {
		case types.SevHigh:
			highCount++
		case types.SevMed:
			mediumCount++
		}
	}

	b := baseline{risk: types.SevLow}
	switch {
	case hasSecret:
		b.risk = types.SevHigh
		b.path = append(b.path, "Detected secrets/credentials, risk forced to High.")
		b.overrides = append(b.overrides, types.Override{
			Rule:   SecretsAlwaysHigh,
			Reason: "secret or credential findings always carry High risk",
		})
	case hasExec:
		b.risk = types.SevHigh
		b.path = append(b.path, "Detected dangerous execution pattern, risk forced to High.")
		b.overrides = append(b.overrides, types.Override{
			Rule:   DangerousExecAlwaysHigh,
			Reason: "arbitrary code execution findings always carry High risk",
		})
	case highCount > 0:
		b.risk = types.SevHigh
		b.path = append(b.path, fmt.Sprintf("%d High severity finding(s) present, risk is High.", highCount))
		b.overrides = append(b.overrides, types.Override{
			Rule:   HighFindingOverride,
			Reason: "at least one High severity finding",
		})
	case mediumCount >= mediumEscalationThreshold:
		b.risk = types.SevHigh
		b.path = append(b.path, fmt.Sprintf(
			"%d Medium findings meet the %d-Medium escalation threshold, risk escalated to High.",
			mediumCount, mediumEscalationThreshold))
		b.overrides = append(b.overrides, types.Override{
			Rule:   MultiMediumEscalation,
			Reason: fmt.Sprintf("%d or more Medium findings escalate to High", mediumEscalationThreshold),
		})
	case mediumCount > 0:
		b.risk = types.SevMed
		b.path = append(b.path, fmt.Sprintf("%d Medium finding(s) present, risk is Medium.", mediumCount))
	default:
		b.path = append(b.path, "No material findings, risk is Low.")
	}

	if hasSecret {
		// Would the ceiling still be High with every secret finding removed?
		var rest []types.Finding
		for _, f := range findings {
			if !redact.IsSecretFinding(f) {
				rest = append(rest, f)
			}
		}
		b.secretsOnlyHigh = computeBaseline(rest).risk != types.SevHigh
	}
	return b
}

// Fuse produces the final decision. The risk level is the max of the
// baseline ceiling and the model's proposal; the single permitted downgrade
// and the conservative unavailability floor are both recorded as overrides.
func Fuse(in Input) types.FusionDecision {
	b := computeBaseline(in.Findings)
	risk := b.risk
	path := b.path
	overrides := b.overrides

	if in.PolicyStatus == policy.StatusOK && in.Verdict != nil {
		if in.Verdict.RiskLevel.Rank() > risk.Rank() {
			risk = in.Verdict.RiskLevel
			path = append(path, fmt.Sprintf("Model review escalated risk to %s.", risk))
			overrides = append(overrides, types.Override{
				Rule:   AIEscalation,
				Reason: "model review proposed a higher risk level than the baseline",
			})
		} else {
			path = append(path, fmt.Sprintf("Model review proposed %s, baseline retained.", in.Verdict.RiskLevel))
		}

		if in.Mode == types.ModePermissive &&
			risk == types.SevHigh &&
			b.secretsOnlyHigh &&
			in.Verdict.RiskLevel != types.SevHigh &&
			in.Verdict.SecretsDowngrade.Justified &&
			in.Verdict.SecretsDowngrade.Justification != "" {
			risk = types.SevMed
			path = append(path, fmt.Sprintf(
				"Permissive mode: secret findings justified as placeholders (%s), risk lowered to Medium.",
				in.Verdict.SecretsDowngrade.Justification))
			overrides = append(overrides, types.Override{
				Rule:   PermissiveSecretsDowngrade,
				Reason: in.Verdict.SecretsDowngrade.Justification,
			})
		}
	}

	if in.PolicyStatus == policy.StatusUnavailable {
		if in.Mode == types.ModeConservative && risk.Rank() < types.SevMed.Rank() {
			risk = types.SevMed
			path = append(path, "Conservative mode: model review unavailable, risk floored at Medium.")
			overrides = append(overrides, types.Override{
				Rule:   ConservativeModelUnavailable,
				Reason: "an incomplete safety signal must not read as Low",
			})
		} else {
			path = append(path, "Model review unavailable, baseline retained.")
		}
	}

	rec := policy.ForMode(in.Mode).Recommendations[risk]
	path = append(path, fmt.Sprintf("Final risk %s maps to recommendation %q.", risk, rec))

	return types.FusionDecision{
		RiskLevel:      risk,
		Recommendation: rec,
		Overrides:      overrides,
		DecisionPath:   path,
	}
}
