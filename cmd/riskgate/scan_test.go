package riskgate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/engine"
	"github.com/riskgate/riskgate/internal/policy"
	"github.com/riskgate/riskgate/internal/scanner/gitleaks"
	"github.com/riskgate/riskgate/internal/scanner/semgrep"
	"github.com/riskgate/riskgate/internal/types"
)

func strp(s string) *string { return &s }
func intp(n int) *int       { return &n }
func boolp(b bool) *bool    { return &b }

func TestPickHelpers(t *testing.T) {
	assert.Equal(t, "cli", pickString("cli", strp("local"), strp("global")))
	assert.Equal(t, "local", pickString("", strp("local"), strp("global")))
	assert.Equal(t, "global", pickString("", strp(""), strp("global")))
	assert.Equal(t, "", pickString("", nil, nil))

	assert.Equal(t, 7, pickInt(7, intp(3), nil))
	assert.Equal(t, 3, pickInt(0, intp(3), intp(9)))
	assert.Equal(t, 9, pickInt(0, nil, intp(9)))
	assert.Equal(t, 0, pickInt(0, nil, nil))

	assert.True(t, pickBool(true, boolp(false), nil))
	assert.False(t, pickBool(false, boolp(false), boolp(true)))
	assert.True(t, pickBool(false, nil, boolp(true)))
	assert.False(t, pickBool(false, nil, nil))
}

func TestSplitGlobs(t *testing.T) {
	assert.Nil(t, splitGlobs(""))
	assert.Equal(t, []string{"**/*.go"}, splitGlobs("**/*.go"))
	assert.Equal(t, []string{"a", "b"}, splitGlobs(" a, b ,"))
}

func TestResolvePolicyMode(t *testing.T) {
	assert.Equal(t, types.ModeConservative, resolvePolicyMode(config.FileConfig{}, config.FileConfig{}))

	lcfg := config.FileConfig{AI: &config.AIConfig{Mode: strp("permissive")}}
	assert.Equal(t, types.ModePermissive, resolvePolicyMode(lcfg, config.FileConfig{}))

	lcfg = config.FileConfig{AI: &config.AIConfig{Mode: strp("something-else")}}
	assert.Equal(t, types.ModeConservative, resolvePolicyMode(lcfg, config.FileConfig{}))
}

func TestBuildAdapters(t *testing.T) {
	t.Run("all disabled by default", func(t *testing.T) {
		adapters, disabled := buildAdapters(config.FileConfig{}, config.FileConfig{})
		assert.Empty(t, adapters)
		assert.ElementsMatch(t, []string{types.EngineSemgrep, types.EngineGitleaks}, disabled)
	})

	t.Run("enabled via config", func(t *testing.T) {
		lcfg := config.FileConfig{
			Semgrep:  &config.SemgrepConfig{Enabled: boolp(true), Configs: []string{"p/ci"}},
			Gitleaks: &config.GitleaksConfig{Enabled: boolp(true), Binary: strp("/opt/gitleaks")},
		}
		adapters, disabled := buildAdapters(lcfg, config.FileConfig{})
		require.Len(t, adapters, 2)
		assert.Empty(t, disabled)

		sg, ok := adapters[0].(*semgrep.Adapter)
		require.True(t, ok)
		assert.Equal(t, []string{"p/ci"}, sg.Configs)

		gl, ok := adapters[1].(*gitleaks.Adapter)
		require.True(t, ok)
		assert.Equal(t, "/opt/gitleaks", gl.BinaryPath)
	})
}

func TestEmitReport(t *testing.T) {
	rep := &types.Report{
		RiskLevel:      types.SevLow,
		Recommendation: types.RecAllow,
	}

	t.Run("json with out path writes both", func(t *testing.T) {
		outPath := filepath.Join(t.TempDir(), "report.json")
		var stdout, stderr bytes.Buffer

		require.NoError(t, emitReport(rep, outPath, true, &stdout, &stderr))

		assert.Contains(t, stdout.String(), `"risk_level": "Low"`)
		data, err := os.ReadFile(outPath)
		require.NoError(t, err)
		assert.JSONEq(t, stdout.String(), string(data))
		assert.Empty(t, stderr.String())
	})

	t.Run("summary only by default", func(t *testing.T) {
		var stdout, stderr bytes.Buffer

		require.NoError(t, emitReport(rep, "", false, &stdout, &stderr))

		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "Risk level:")
	})
}

func TestRunGate_Disabled(t *testing.T) {
	cmd := &cobra.Command{}
	res := &engine.Result{}

	out := runGate(context.Background(), cmd, discardLogger(), t.TempDir(),
		types.ModeConservative, res, config.FileConfig{}, config.FileConfig{})

	assert.False(t, out.enabled)
	assert.Equal(t, policy.StatusDisabled, out.status)
	assert.Nil(t, out.verdict)
	assert.Empty(t, out.warnings)
}

func TestRunGate_MissingAPIKey(t *testing.T) {
	t.Setenv("RISKGATE_TEST_MISSING_KEY", "")

	cmd := &cobra.Command{}
	res := &engine.Result{}
	lcfg := config.FileConfig{AI: &config.AIConfig{
		Enabled:   boolp(true),
		Model:     strp("test/model"),
		APIKeyEnv: strp("RISKGATE_TEST_MISSING_KEY"),
	}}

	out := runGate(context.Background(), cmd, discardLogger(), t.TempDir(),
		types.ModeConservative, res, lcfg, config.FileConfig{})

	assert.True(t, out.enabled)
	assert.Equal(t, policy.StatusUnavailable, out.status)
	assert.Contains(t, out.detail, "RISKGATE_TEST_MISSING_KEY")
	require.Len(t, out.warnings, 1)
	assert.Contains(t, out.warnings[0], "unavailable")
}
