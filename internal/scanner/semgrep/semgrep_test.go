package semgrep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskgate/riskgate/internal/types"
)

const sampleReport = `{
  "results": [
    {
      "check_id": "python.lang.security.audit.dangerous-subprocess-use",
      "path": "/repo/app/runner.py",
      "start": {"line": 42},
      "extra": {
        "message": "Detected subprocess call with shell=True",
        "severity": "ERROR",
        "lines": "subprocess.call(cmd, shell=True)\nmore context"
      }
    },
    {
      "check_id": "generic.secrets.security.detected-generic-secret",
      "path": "conf/settings.py",
      "start": {"line": 7},
      "extra": {
        "message": "Generic secret detected",
        "severity": "WARNING",
        "lines": "SECRET = \"hunter2-hunter2\""
      }
    },
    {
      "check_id": "python.sqlalchemy.security.sqlalchemy-execute-raw-query",
      "path": "/elsewhere/db.py",
      "start": {"line": 3},
      "extra": {
        "message": "Raw SQL execution",
        "severity": "BANANA",
        "lines": "db.execute(q)"
      }
    }
  ]
}`

func TestParse(t *testing.T) {
	a := &Adapter{}
	findings, err := a.Parse([]byte(sampleReport), "/repo")
	require.NoError(t, err)
	require.Len(t, findings, 3)

	f := findings[0]
	assert.Equal(t, "SEMGREP:python.lang.security.audit.dangerous-subprocess-use", f.RuleID)
	assert.Equal(t, types.CategoryUnsafeExec, f.Category)
	assert.Equal(t, types.SevHigh, f.Severity)
	assert.Equal(t, "app/runner.py", f.File)
	assert.Equal(t, 42, f.Line)
	assert.Equal(t, "subprocess.call(cmd, shell=True)", f.Evidence, "evidence is first line only")
	assert.Equal(t, types.EngineSemgrep, f.SourceEngine)

	assert.Equal(t, types.CategorySecrets, findings[1].Category)
	assert.Equal(t, types.SevMed, findings[1].Severity)
	assert.Equal(t, "conf/settings.py", findings[1].File)

	assert.Equal(t, types.CategorySQLInjection, findings[2].Category)
	assert.Equal(t, types.SevMed, findings[2].Severity, "unknown severity falls back to Medium")
	assert.Equal(t, "/elsewhere/db.py", findings[2].File, "paths outside the root stay as-is")
}

func TestParse_Malformed(t *testing.T) {
	a := &Adapter{}
	_, err := a.Parse([]byte("not json at all"), "/repo")
	assert.Error(t, err)
}

func TestParse_NoResults(t *testing.T) {
	a := &Adapter{}
	findings, err := a.Parse([]byte(`{"results": []}`), "/repo")
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestCategoryFor(t *testing.T) {
	cases := map[string]string{
		"generic.secrets.detected-password":    types.CategorySecrets,
		"python.lang.security.audit.exec-used": types.CategoryUnsafeExec,
		"python.pickle.avoid-pickle":           types.CategoryDeserializing,
		"go.lang.security.sql-injection":       types.CategorySQLInjection,
		"javascript.react.some-style-rule":     "Static Analysis",
	}
	for id, want := range cases {
		assert.Equal(t, want, categoryFor(id), id)
	}
}

func TestDetect_NotFound(t *testing.T) {
	a := &Adapter{BinaryPath: "/nonexistent/semgrep"}
	_, err := a.Detect()
	assert.Error(t, err)
}
