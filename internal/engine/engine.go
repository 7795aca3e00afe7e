// Package engine runs the scan itself: walking the target tree, applying
// local rules, and fanning out to external engines. It produces findings and
// engine health, never a risk decision.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/riskgate/riskgate/internal/rules"
	"github.com/riskgate/riskgate/internal/scanner"
	"github.com/riskgate/riskgate/internal/types"
)

// DefaultMaxFileBytes caps per-file reads at 512 KiB unless overridden.
const DefaultMaxFileBytes = 512 * 1024

// Config controls scanning scope and which engines participate.
type Config struct {
	Root         string
	IncludeGlobs []string
	ExcludeGlobs []string
	MaxFileBytes int64

	// Rules drive the local pattern engine.
	Rules []rules.Rule

	// Adapters are the enabled external engines.
	Adapters []scanner.Adapter

	// DisabledEngines are engine names configured off, reported as skipped.
	DisabledEngines []string

	Logger *slog.Logger
}

// Result is everything one scan produced.
type Result struct {
	Findings     []types.Finding
	FilesScanned int
	SkippedFiles []types.SkippedFile
	Engines      []types.EngineStatus
	Warnings     []string
}

// Scan walks the target and runs the local engine plus all enabled adapters
// concurrently. Engine failures become warnings and error statuses; the only
// fatal condition is a target that cannot be scanned at all.
func Scan(ctx context.Context, cfg Config) (*Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MaxFileBytes == 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}

	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("scan target is not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan target is not a directory: %s", cfg.Root)
	}

	res := &Result{}

	var local []types.Finding
	outcomes := make([]scanner.Outcome, len(cfg.Adapters))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scanned, skipped, walkErr := walk(cfg, func(rel string, data []byte) {
			local = append(local, matchFile(rel, data, cfg.Rules)...)
		})
		res.FilesScanned = scanned
		res.SkippedFiles = skipped
		return walkErr
	})
	for i, a := range cfg.Adapters {
		i, a := i, a
		g.Go(func() error {
			outcomes[i] = scanner.Run(gctx, a, cfg.Root, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan target walk failed: %w", err)
	}

	local = dedupe(local)
	res.Engines = append(res.Engines, types.EngineStatus{
		Name:     types.EngineLocal,
		State:    types.EngineOK,
		Detail:   fmt.Sprintf("%d rules", len(cfg.Rules)),
		Findings: len(local),
	})

	merged := local
	for _, out := range outcomes {
		merged = append(merged, out.Findings...)
		res.Engines = append(res.Engines, out.Status)
		if out.Warning != "" {
			res.Warnings = append(res.Warnings, out.Warning)
		}
	}
	for _, name := range cfg.DisabledEngines {
		res.Engines = append(res.Engines, scanner.Skipped(name).Status)
	}

	// Findings keep discovery order: the local engine's traversal order
	// first, then each adapter's output in configured order. Display and
	// payload layers re-sort their own copies.
	res.Findings = dedupe(merged)

	logger.Info("scan complete",
		"files", res.FilesScanned,
		"skipped", len(res.SkippedFiles),
		"findings", len(res.Findings),
		"engines", len(res.Engines))

	return res, nil
}
