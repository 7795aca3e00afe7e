package redact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/riskgate/riskgate/internal/types"
)

// DefaultContextLines is the window radius around a finding line.
const DefaultContextLines = 8

// BuildContext reads the ±n lines around a finding and renders them with the
// finding line marked. It refuses paths that resolve outside the scan root and
// returns ok=false when no snippet can be built; callers treat that as
// "no context attached", never as an error.
func BuildContext(root string, f types.Finding, n int) (string, bool) {
	if f.File == "" || f.Line <= 0 || n < 0 {
		return "", false
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	target := filepath.Join(absRoot, filepath.FromSlash(f.File))
	rel, err := filepath.Rel(absRoot, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	raw, err := os.ReadFile(target)
	if err != nil {
		return "", false
	}
	lines := strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")
	if len(lines) == 0 || f.Line > len(lines) {
		return "", false
	}

	start := f.Line - n
	if start < 1 {
		start = 1
	}
	end := f.Line + n
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		marker := "  "
		if i == f.Line {
			marker = ">>"
		}
		fmt.Fprintf(&b, "%s %4d: %s\n", marker, i, lines[i-1])
	}
	return strings.TrimRight(b.String(), "\n"), true
}
