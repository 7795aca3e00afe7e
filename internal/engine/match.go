package engine

import (
	"strings"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/riskgate/riskgate/internal/rules"
	"github.com/riskgate/riskgate/internal/scanner"
	"github.com/riskgate/riskgate/internal/types"
)

// matchFile applies every rule to every line of one file. Within a rule the
// first matching pattern wins per line, so a line triggers each rule at most
// once.
func matchFile(rel string, data []byte, ruleSet []rules.Rule) []types.Finding {
	var findings []types.Finding
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	for idx, line := range lines {
		for _, r := range ruleSet {
			for _, pat := range r.Patterns {
				if pat.MatchString(line) {
					findings = append(findings, types.Finding{
						RuleID:       r.RuleID,
						Category:     r.Category,
						Severity:     r.Severity,
						File:         rel,
						Line:         idx + 1,
						Evidence:     scanner.NormalizeEvidence(line),
						Description:  r.Description,
						SourceEngine: types.EngineLocal,
					})
					break
				}
			}
		}
	}
	return findings
}

// fingerprint hashes the identity of a finding. Two engines reporting the
// same evidence at the same location produce distinct fingerprints because
// the engine participates in the key.
func fingerprint(f types.Finding) uint64 {
	h := xxhash.New()
	for _, part := range []string{f.SourceEngine, f.RuleID, f.File, f.Evidence} {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	var lineBuf [8]byte
	for i := 0; i < 8; i++ {
		lineBuf[i] = byte(f.Line >> (8 * i))
	}
	_, _ = h.Write(lineBuf[:])
	return h.Sum64()
}

// dedupe removes repeated findings while preserving first-seen order.
func dedupe(findings []types.Finding) []types.Finding {
	seen := make(map[uint64]bool, len(findings))
	out := findings[:0]
	for _, f := range findings {
		key := fingerprint(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}
