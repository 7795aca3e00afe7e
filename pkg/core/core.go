package core

import (
	"context"

	"github.com/riskgate/riskgate/internal/engine"
	"github.com/riskgate/riskgate/internal/rules"
	"github.com/riskgate/riskgate/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type Config = engine.Config
type Result = engine.Result
type Finding = types.Finding
type Report = types.Report

// Scan is the stable entrypoint for other programs. A zero Config.Rules
// falls back to the builtin rule set.
func Scan(ctx context.Context, cfg Config) (*Result, error) {
	if len(cfg.Rules) == 0 {
		cfg.Rules = rules.Builtin()
	}
	return engine.Scan(ctx, cfg)
}

// RuleIDs returns the identifiers of the builtin rule set.
// This is exposed for convenience to avoid importing internals directly.
func RuleIDs() []string { return rules.IDs(rules.Builtin()) }
