package scanner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskgate/riskgate/internal/types"
)

type fakeAdapter struct {
	name      string
	detectErr error
	invokeErr error
	parseErr  error
	findings  []types.Finding
}

func (f *fakeAdapter) Name() string             { return f.name }
func (f *fakeAdapter) Detect() (string, error)  { return "/usr/bin/" + f.name, f.detectErr }
func (f *fakeAdapter) Invoke(ctx context.Context, target string) ([]byte, error) {
	return []byte("raw"), f.invokeErr
}
func (f *fakeAdapter) Parse(raw []byte, target string) ([]types.Finding, error) {
	return f.findings, f.parseErr
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_Success(t *testing.T) {
	a := &fakeAdapter{
		name:     "semgrep",
		findings: []types.Finding{{RuleID: "SEMGREP:x", Severity: types.SevHigh}},
	}

	out := Run(context.Background(), a, "/repo", discard())
	require.Len(t, out.Findings, 1)
	assert.Equal(t, types.EngineOK, out.Status.State)
	assert.Equal(t, "semgrep", out.Status.Name)
	assert.Equal(t, 1, out.Status.Findings)
	assert.Empty(t, out.Warning)
}

func TestRun_Unavailable(t *testing.T) {
	a := &fakeAdapter{name: "gitleaks", detectErr: errors.New("binary not found in PATH")}

	out := Run(context.Background(), a, "/repo", discard())
	assert.Empty(t, out.Findings)
	assert.Equal(t, types.EngineError, out.Status.State)
	assert.Contains(t, out.Status.Detail, "not found")
	assert.Contains(t, out.Warning, "gitleaks is enabled but unavailable")
}

func TestRun_InvokeFailure(t *testing.T) {
	a := &fakeAdapter{name: "semgrep", invokeErr: errors.New("exit status 2")}

	out := Run(context.Background(), a, "/repo", discard())
	assert.Equal(t, types.EngineError, out.Status.State)
	assert.Contains(t, out.Warning, "semgrep is enabled but failed")
}

func TestRun_ParseFailure(t *testing.T) {
	a := &fakeAdapter{name: "semgrep", parseErr: errors.New("invalid JSON")}

	out := Run(context.Background(), a, "/repo", discard())
	assert.Equal(t, types.EngineError, out.Status.State)
	assert.Contains(t, out.Warning, "could not be parsed")
}

func TestSkipped(t *testing.T) {
	out := Skipped("semgrep")
	assert.Equal(t, types.EngineSkipped, out.Status.State)
	assert.Equal(t, "disabled", out.Status.Detail)
}

func TestNormalizeSeverity(t *testing.T) {
	cases := []struct {
		raw  string
		want types.Severity
	}{
		{"ERROR", types.SevHigh},
		{"critical", types.SevHigh},
		{"High", types.SevHigh},
		{"WARNING", types.SevMed},
		{"warn", types.SevMed},
		{"moderate", types.SevMed},
		{"INFO", types.SevLow},
		{"low", types.SevLow},
		{"", types.SevMed},
		{"bogus", types.SevMed},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeSeverity(tc.raw, types.SevMed), tc.raw)
	}
}

func TestNormalizeEvidence(t *testing.T) {
	assert.Equal(t, "x = 1", NormalizeEvidence("   x = 1  \t"))
	assert.Equal(t, "a b", NormalizeEvidence("a\tb"))

	long := make([]rune, 400)
	for i := range long {
		long[i] = 'a'
	}
	capped := NormalizeEvidence(string(long))
	assert.Len(t, []rune(capped), 180)
	assert.True(t, strings.HasSuffix(capped, "..."))
}

func TestRelPath(t *testing.T) {
	assert.Equal(t, "app/main.py", RelPath("/repo", "/repo/app/main.py"))
	assert.Equal(t, "app/main.py", RelPath("/repo", "app/main.py"))
	assert.Equal(t, "/other/main.py", RelPath("/repo", "/other/main.py"))
	assert.Equal(t, "", RelPath("/repo", ""))
}
