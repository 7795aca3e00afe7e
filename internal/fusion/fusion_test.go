package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskgate/riskgate/internal/policy"
	"github.com/riskgate/riskgate/internal/types"
)

func secretFinding() types.Finding {
	return types.Finding{
		RuleID: "SEC001", Category: types.CategorySecrets, Severity: types.SevHigh,
		File: "settings.py", Line: 3, Evidence: `aws_key = "AKIA..."`,
		SourceEngine: types.EngineLocal,
	}
}

func execFinding() types.Finding {
	return types.Finding{
		RuleID: "SEC002", Category: types.CategoryUnsafeExec, Severity: types.SevHigh,
		File: "run.py", Line: 8, Evidence: "eval(cmd)", SourceEngine: types.EngineLocal,
	}
}

func mediumFinding(file string) types.Finding {
	return types.Finding{
		RuleID: "SEC003", Category: types.CategoryNetwork, Severity: types.SevMed,
		File: file, Line: 1, Evidence: "requests.get(url)", SourceEngine: types.EngineLocal,
	}
}

func overrideRules(d types.FusionDecision) []string {
	var out []string
	for _, o := range d.Overrides {
		out = append(out, o.Rule)
	}
	return out
}

func TestFuse_SecretWithPolicyTimeoutConservative(t *testing.T) {
	d := Fuse(Input{
		Mode:         types.ModeConservative,
		Findings:     []types.Finding{secretFinding()},
		PolicyStatus: policy.StatusUnavailable,
	})

	assert.Equal(t, types.SevHigh, d.RiskLevel)
	assert.Equal(t, types.RecDeployBlocked, d.Recommendation)
	assert.Contains(t, overrideRules(d), SecretsAlwaysHigh)
}

func TestFuse_CleanTreePolicyUnavailablePermissive(t *testing.T) {
	d := Fuse(Input{
		Mode:         types.ModePermissive,
		PolicyStatus: policy.StatusUnavailable,
	})

	assert.Equal(t, types.SevLow, d.RiskLevel)
	assert.Equal(t, types.RecAllow, d.Recommendation)
	assert.Empty(t, d.Overrides)
	assert.Contains(t, d.DecisionPath[len(d.DecisionPath)-2], "unavailable")
}

func TestFuse_ThreeMediumsEscalatePermissive(t *testing.T) {
	d := Fuse(Input{
		Mode: types.ModePermissive,
		Findings: []types.Finding{
			mediumFinding("a.py"), mediumFinding("b.py"), mediumFinding("c.py"),
		},
		PolicyStatus: policy.StatusOK,
		Verdict:      &types.PolicyVerdict{RiskLevel: types.SevLow},
	})

	assert.Equal(t, types.SevHigh, d.RiskLevel)
	assert.Equal(t, types.RecDeployBlocked, d.Recommendation)
	assert.Contains(t, overrideRules(d), MultiMediumEscalation)
}

func TestFuse_TwoMediums(t *testing.T) {
	for _, mode := range []types.PolicyMode{types.ModePermissive, types.ModeConservative} {
		d := Fuse(Input{
			Mode:         mode,
			Findings:     []types.Finding{mediumFinding("a.py"), mediumFinding("b.py")},
			PolicyStatus: policy.StatusDisabled,
		})
		assert.Equal(t, types.SevMed, d.RiskLevel, mode)
		if mode == types.ModePermissive {
			assert.Equal(t, types.RecAllowWithWarn, d.Recommendation)
		} else {
			assert.Equal(t, types.RecManualReview, d.Recommendation)
		}
	}
}

func TestFuse_DangerousExecAlwaysHigh(t *testing.T) {
	d := Fuse(Input{
		Mode:         types.ModePermissive,
		Findings:     []types.Finding{execFinding()},
		PolicyStatus: policy.StatusDisabled,
	})
	assert.Equal(t, types.SevHigh, d.RiskLevel)
	assert.Contains(t, overrideRules(d), DangerousExecAlwaysHigh)
}

func TestFuse_HighFindingOverride(t *testing.T) {
	high := types.Finding{
		RuleID: "SEC005", Category: types.CategorySQLInjection, Severity: types.SevHigh,
		File: "db.py", Line: 2, Evidence: "SELECT * FROM t WHERE id = %s" + " % x",
	}
	d := Fuse(Input{
		Mode:         types.ModeConservative,
		Findings:     []types.Finding{high},
		PolicyStatus: policy.StatusDisabled,
	})
	assert.Equal(t, types.SevHigh, d.RiskLevel)
	assert.Contains(t, overrideRules(d), HighFindingOverride)
}

func TestFuse_ModelEscalationIsMonotonic(t *testing.T) {
	d := Fuse(Input{
		Mode:         types.ModeConservative,
		Findings:     []types.Finding{mediumFinding("a.py")},
		PolicyStatus: policy.StatusOK,
		Verdict:      &types.PolicyVerdict{RiskLevel: types.SevHigh},
	})
	assert.Equal(t, types.SevHigh, d.RiskLevel)
	assert.Contains(t, overrideRules(d), AIEscalation)

	d = Fuse(Input{
		Mode:         types.ModeConservative,
		Findings:     []types.Finding{execFinding()},
		PolicyStatus: policy.StatusOK,
		Verdict:      &types.PolicyVerdict{RiskLevel: types.SevLow},
	})
	assert.Equal(t, types.SevHigh, d.RiskLevel, "a lower model proposal never reduces the baseline")
	assert.NotContains(t, overrideRules(d), AIEscalation)
}

func TestFuse_PermissiveSecretsDowngrade(t *testing.T) {
	verdict := &types.PolicyVerdict{
		RiskLevel: types.SevMed,
		SecretsDowngrade: types.SecretsDowngrade{
			Justified:     true,
			Justification: "All flagged values follow the YOUR_KEY_HERE placeholder convention.",
		},
	}

	d := Fuse(Input{
		Mode:         types.ModePermissive,
		Findings:     []types.Finding{secretFinding()},
		PolicyStatus: policy.StatusOK,
		Verdict:      verdict,
	})
	assert.Equal(t, types.SevMed, d.RiskLevel)
	assert.Equal(t, types.RecAllowWithWarn, d.Recommendation)
	assert.Contains(t, overrideRules(d), PermissiveSecretsDowngrade)

	t.Run("never in conservative mode", func(t *testing.T) {
		d := Fuse(Input{
			Mode:         types.ModeConservative,
			Findings:     []types.Finding{secretFinding()},
			PolicyStatus: policy.StatusOK,
			Verdict:      verdict,
		})
		assert.Equal(t, types.SevHigh, d.RiskLevel)
		assert.Equal(t, types.RecDeployBlocked, d.Recommendation)
	})

	t.Run("not when other High causes exist", func(t *testing.T) {
		d := Fuse(Input{
			Mode:         types.ModePermissive,
			Findings:     []types.Finding{secretFinding(), execFinding()},
			PolicyStatus: policy.StatusOK,
			Verdict:      verdict,
		})
		assert.Equal(t, types.SevHigh, d.RiskLevel)
	})

	t.Run("not without a justification", func(t *testing.T) {
		d := Fuse(Input{
			Mode:         types.ModePermissive,
			Findings:     []types.Finding{secretFinding()},
			PolicyStatus: policy.StatusOK,
			Verdict: &types.PolicyVerdict{
				RiskLevel:        types.SevMed,
				SecretsDowngrade: types.SecretsDowngrade{Justified: true},
			},
		})
		assert.Equal(t, types.SevHigh, d.RiskLevel)
	})

	t.Run("not when the model itself says High", func(t *testing.T) {
		d := Fuse(Input{
			Mode:         types.ModePermissive,
			Findings:     []types.Finding{secretFinding()},
			PolicyStatus: policy.StatusOK,
			Verdict: &types.PolicyVerdict{
				RiskLevel: types.SevHigh,
				SecretsDowngrade: types.SecretsDowngrade{
					Justified:     true,
					Justification: "placeholders",
				},
			},
		})
		assert.Equal(t, types.SevHigh, d.RiskLevel)
	})
}

func TestFuse_ConservativeFloorOnUnavailable(t *testing.T) {
	d := Fuse(Input{
		Mode:         types.ModeConservative,
		PolicyStatus: policy.StatusUnavailable,
	})
	assert.Equal(t, types.SevMed, d.RiskLevel)
	assert.Equal(t, types.RecManualReview, d.Recommendation)
	assert.Contains(t, overrideRules(d), ConservativeModelUnavailable)

	t.Run("no floor when the gate is disabled", func(t *testing.T) {
		d := Fuse(Input{
			Mode:         types.ModeConservative,
			PolicyStatus: policy.StatusDisabled,
		})
		assert.Equal(t, types.SevLow, d.RiskLevel)
		assert.Equal(t, types.RecAllow, d.Recommendation)
	})
}

func TestFuse_Deterministic(t *testing.T) {
	in := Input{
		Mode: types.ModeConservative,
		Findings: []types.Finding{
			secretFinding(), execFinding(), mediumFinding("a.py"),
		},
		PolicyStatus: policy.StatusDisabled,
	}

	first := Fuse(in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Fuse(in))
	}
}

func TestFuse_DecisionPathAlwaysExplainsResult(t *testing.T) {
	d := Fuse(Input{Mode: types.ModePermissive, PolicyStatus: policy.StatusDisabled})
	require.NotEmpty(t, d.DecisionPath)
	assert.Contains(t, d.DecisionPath[len(d.DecisionPath)-1], string(d.Recommendation))
}
