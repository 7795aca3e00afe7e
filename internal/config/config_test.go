package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
include: "src/**"
max_file_kb: 256
semgrep:
  enabled: true
  configs:
    - p/security-audit
    - rules/custom.yml
gitleaks:
  enabled: true
  binary: /opt/bin/gitleaks
ai:
  enabled: true
  mode: permissive
  model: test-model
  timeout_sec: 45
  redact_input: false
`

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "riskgate.yml")
	require.NoError(t, os.WriteFile(p, []byte(sampleYAML), 0644))

	cfg, err := LoadFile(p)
	require.NoError(t, err)

	require.NotNil(t, cfg.Include)
	assert.Equal(t, "src/**", *cfg.Include)
	require.NotNil(t, cfg.MaxFileKB)
	assert.Equal(t, 256, *cfg.MaxFileKB)
	assert.Nil(t, cfg.Exclude, "unset fields stay nil")

	sg := cfg.GetSemgrep()
	assert.True(t, sg.IsEnabled())
	assert.Equal(t, []string{"p/security-audit", "rules/custom.yml"}, sg.Configs)

	gl := cfg.GetGitleaks()
	assert.True(t, gl.IsEnabled())
	require.NotNil(t, gl.Binary)
	assert.Equal(t, "/opt/bin/gitleaks", *gl.Binary)

	ai := cfg.GetAI()
	assert.True(t, ai.IsEnabled())
	require.NotNil(t, ai.Mode)
	assert.Equal(t, "permissive", *ai.Mode)
	require.NotNil(t, ai.RedactInput)
	assert.False(t, *ai.RedactInput)
}

func TestLoadFile_Invalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(p, []byte("include: [unclosed"), 0644))
	_, err := LoadFile(p)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadLocal(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(root, ".riskgate.yml"), []byte("exclude: \"vendor/**\"\n"), 0644))

	cfg, err := LoadLocal(root)
	require.NoError(t, err)
	require.NotNil(t, cfg.Exclude)
	assert.Equal(t, "vendor/**", *cfg.Exclude)

	_, err = LoadLocal(t.TempDir())
	assert.Error(t, err, "no local config present")
}

func TestLoadGlobal(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	_, err := LoadGlobal()
	assert.Error(t, err)

	dir := filepath.Join(base, "riskgate")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "config.yml"), []byte("max_file_kb: 128\n"), 0644))

	cfg, err := LoadGlobal()
	require.NoError(t, err)
	require.NotNil(t, cfg.MaxFileKB)
	assert.Equal(t, 128, *cfg.MaxFileKB)
}

func TestSectionDefaults(t *testing.T) {
	var cfg FileConfig
	assert.False(t, cfg.GetSemgrep().IsEnabled())
	assert.False(t, cfg.GetGitleaks().IsEnabled())
	assert.False(t, cfg.GetAI().IsEnabled())
}
