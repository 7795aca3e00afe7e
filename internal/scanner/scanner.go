package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riskgate/riskgate/internal/types"
)

// Adapter is the contract every external analysis engine implements. New
// engines plug in by implementing these three operations; nothing downstream
// ever branches on a concrete engine type.
type Adapter interface {
	// Name returns the canonical engine identifier used in finding
	// source tags and engine statuses.
	Name() string

	// Detect locates the engine binary and reports a short description of
	// what was found (path, version). An error means the engine is
	// unavailable; the scan continues without it.
	Detect() (string, error)

	// Invoke runs the engine against the target tree and returns its raw
	// native output. The context bounds execution.
	Invoke(ctx context.Context, target string) ([]byte, error)

	// Parse maps raw native output to canonical findings. The target root
	// is provided so paths can be reported relative to it.
	Parse(raw []byte, target string) ([]types.Finding, error)
}

// Outcome is the result of running one adapter: its findings, its health, and
// an optional scan-level warning. A failing engine reduces coverage, never
// correctness, so Outcome is always produced.
type Outcome struct {
	Findings []types.Finding
	Status   types.EngineStatus
	Warning  string
}

// Run drives one adapter through detect, invoke, and parse. Every failure
// path downgrades to an error status with a diagnostic; Run never returns an
// error because engine absence must not abort the gate.
func Run(ctx context.Context, a Adapter, target string, logger *slog.Logger) Outcome {
	name := a.Name()

	detail, err := a.Detect()
	if err != nil {
		logger.Warn("engine unavailable", "engine", name, "error", err)
		return Outcome{
			Status:  types.EngineStatus{Name: name, State: types.EngineError, Detail: err.Error()},
			Warning: fmt.Sprintf("%s is enabled but unavailable: %v", name, err),
		}
	}

	logger.Debug("invoking engine", "engine", name, "detail", detail)
	raw, err := a.Invoke(ctx, target)
	if err != nil {
		logger.Warn("engine failed", "engine", name, "error", err)
		return Outcome{
			Status:  types.EngineStatus{Name: name, State: types.EngineError, Detail: err.Error()},
			Warning: fmt.Sprintf("%s is enabled but failed: %v", name, err),
		}
	}

	findings, err := a.Parse(raw, target)
	if err != nil {
		logger.Warn("engine output unparseable", "engine", name, "error", err)
		return Outcome{
			Status:  types.EngineStatus{Name: name, State: types.EngineError, Detail: err.Error()},
			Warning: fmt.Sprintf("%s output could not be parsed: %v", name, err),
		}
	}

	logger.Debug("engine complete", "engine", name, "findings", len(findings))
	return Outcome{
		Findings: findings,
		Status: types.EngineStatus{
			Name:     name,
			State:    types.EngineOK,
			Detail:   detail,
			Findings: len(findings),
		},
	}
}

// Skipped produces the status for a configured-but-disabled engine so it is
// never silently absent from report metadata.
func Skipped(name string) Outcome {
	return Outcome{
		Status: types.EngineStatus{Name: name, State: types.EngineSkipped, Detail: "disabled"},
	}
}
