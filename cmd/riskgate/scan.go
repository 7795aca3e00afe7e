package riskgate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/engine"
	"github.com/riskgate/riskgate/internal/fusion"
	"github.com/riskgate/riskgate/internal/gitmeta"
	"github.com/riskgate/riskgate/internal/report"
	"github.com/riskgate/riskgate/internal/rules"
	"github.com/riskgate/riskgate/internal/scanner"
	"github.com/riskgate/riskgate/internal/scanner/gitleaks"
	"github.com/riskgate/riskgate/internal/scanner/semgrep"
	"github.com/riskgate/riskgate/internal/types"
)

const (
	defaultMaxFileKB    = 512
	defaultAITimeoutSec = 60
	defaultAIBaseURL    = "https://openrouter.ai/api/v1"
	defaultAIKeyEnv     = "RISKGATE_AI_API_KEY"
)

var (
	flagPath           string
	flagOut            string
	flagInclude        string
	flagExclude        string
	flagMaxFileKB      int
	flagRules          string
	flagFailOnReview   bool
	flagEnableSemgrep  bool
	flagSemgrepBin     string
	flagSemgrepConfigs []string
	flagEnableGitleaks bool
	flagGitleaksBin    string
	flagGitleaksConfig string
	flagEnableAIGate   bool
	flagPolicyMode     string
	flagAIBaseURL      string
	flagAIModel        string
	flagAIKeyEnv       string
	flagAITimeoutSec   int
	flagAIMaxFindings  int
	flagAIContextLines int
	flagRedactInput    bool
	flagAILogPayload   bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a source tree and produce a deploy verdict",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "path to scan")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the JSON report to this file")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().IntVar(&flagMaxFileKB, "max-file-kb", 0, "skip files larger than this many KiB (default 512)")
	cmd.Flags().StringVar(&flagRules, "rules", "", "YAML rule specification file (default: builtin rules)")
	cmd.Flags().BoolVar(&flagFailOnReview, "fail-on-review", true, "exit nonzero when the recommendation is Manual Review Required")

	cmd.Flags().BoolVar(&flagEnableSemgrep, "enable-semgrep", false, "run semgrep as an external engine")
	cmd.Flags().StringVar(&flagSemgrepBin, "semgrep-bin", "", "explicit semgrep binary path")
	cmd.Flags().StringArrayVar(&flagSemgrepConfigs, "semgrep-config", nil, "semgrep --config value (repeatable)")
	cmd.Flags().BoolVar(&flagEnableGitleaks, "enable-gitleaks", false, "run gitleaks as an external engine")
	cmd.Flags().StringVar(&flagGitleaksBin, "gitleaks-bin", "", "explicit gitleaks binary path")
	cmd.Flags().StringVar(&flagGitleaksConfig, "gitleaks-config", "", "gitleaks TOML config path")

	cmd.Flags().BoolVar(&flagEnableAIGate, "enable-ai-gate", false, "run the model-assisted policy review")
	cmd.Flags().StringVar(&flagPolicyMode, "policy-mode", "", "policy mode: permissive|conservative (default conservative)")
	cmd.Flags().StringVar(&flagAIBaseURL, "ai-base-url", "", "OpenAI-compatible endpoint base URL")
	cmd.Flags().StringVar(&flagAIModel, "ai-model", "", "model identifier for the policy review")
	cmd.Flags().StringVar(&flagAIKeyEnv, "ai-api-key-env", "", "environment variable holding the API key (default "+defaultAIKeyEnv+")")
	cmd.Flags().IntVar(&flagAITimeoutSec, "ai-timeout", 0, "policy call timeout in seconds (default 60)")
	cmd.Flags().IntVar(&flagAIMaxFindings, "ai-max-findings", 0, "max findings sent for review (default 40)")
	cmd.Flags().IntVar(&flagAIContextLines, "ai-context-lines", 0, "context lines attached per finding (default 8)")
	cmd.Flags().BoolVar(&flagRedactInput, "redact-input", true, "redact evidence before it is sent for review")
	cmd.Flags().BoolVar(&flagAILogPayload, "ai-log-payload", false, "log the outbound policy request payload")
}

func runScan(cmd *cobra.Command, _ []string) error {
	start := time.Now()
	logger := newLogger()

	abs, err := filepath.Abs(flagPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	// Load configs: CLI > local > global.
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(abs); err == nil {
		lcfg = c
	}

	ruleSet, rulesSource, err := rules.Load(pickString(flagRules, lcfg.Rules, gcfg.Rules))
	if err != nil {
		return err
	}

	maxKB := pickInt(flagMaxFileKB, lcfg.MaxFileKB, gcfg.MaxFileKB)
	if maxKB <= 0 {
		maxKB = defaultMaxFileKB
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	adapters, disabled := buildAdapters(lcfg, gcfg)
	res, err := engine.Scan(ctx, engine.Config{
		Root:            abs,
		IncludeGlobs:    splitGlobs(pickString(flagInclude, lcfg.Include, gcfg.Include)),
		ExcludeGlobs:    splitGlobs(pickString(flagExclude, lcfg.Exclude, gcfg.Exclude)),
		MaxFileBytes:    int64(maxKB) * 1024,
		Rules:           ruleSet,
		Adapters:        adapters,
		DisabledEngines: disabled,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	mode := resolvePolicyMode(lcfg, gcfg)
	gate := runGate(ctx, cmd, logger, abs, mode, res, lcfg, gcfg)
	res.Warnings = append(res.Warnings, gate.warnings...)

	decision := fusion.Fuse(fusion.Input{
		Mode:         mode,
		Findings:     res.Findings,
		PolicyStatus: gate.status,
		Verdict:      gate.verdict,
	})

	rep := report.Assemble(report.Params{
		Root:         abs,
		Mode:         mode,
		RulesCount:   len(ruleSet),
		RulesSource:  rulesSource,
		Scan:         res,
		Git:          gitmeta.Lookup(abs),
		Duration:     time.Since(start),
		GateEnabled:  gate.enabled,
		Model:        gate.model,
		PolicyStatus: gate.status,
		PolicyDetail: gate.detail,
		Verdict:      gate.verdict,
		Usage:        gate.usage,
		Redaction:    gate.redaction,
		Decision:     decision,
	})

	out := pickString(flagOut, lcfg.Out, gcfg.Out)
	if err := emitReport(rep, out, flagJSON, os.Stdout, os.Stderr); err != nil {
		return err
	}

	if code := report.ExitCode(rep.Recommendation, flagFailOnReview); code != 0 {
		os.Exit(code)
	}
	return nil
}

// emitReport routes the report to its surfaces. An --out path gets the JSON
// file, --json gets the JSON on stdout as well, and the human summary goes to
// stderr whenever stdout is not carrying JSON.
func emitReport(rep *types.Report, outPath string, jsonStdout bool, stdout, stderr io.Writer) error {
	if outPath != "" {
		if err := report.WriteJSON(stdout, outPath, rep); err != nil {
			return err
		}
	}
	if jsonStdout {
		if err := report.WriteJSON(stdout, "", rep); err != nil {
			return err
		}
	} else {
		report.PrintSummary(stderr, rep)
	}
	return nil
}

// buildAdapters assembles the enabled external engines and the names of the
// configured-but-disabled ones.
func buildAdapters(lcfg, gcfg config.FileConfig) ([]scanner.Adapter, []string) {
	var adapters []scanner.Adapter
	var disabled []string

	sgLocal, sgGlobal := lcfg.GetSemgrep(), gcfg.GetSemgrep()
	if flagEnableSemgrep || sgLocal.IsEnabled() || sgGlobal.IsEnabled() {
		configs := flagSemgrepConfigs
		if len(configs) == 0 {
			configs = sgLocal.Configs
		}
		if len(configs) == 0 {
			configs = sgGlobal.Configs
		}
		adapters = append(adapters, &semgrep.Adapter{
			BinaryPath: pickString(flagSemgrepBin, sgLocal.Binary, sgGlobal.Binary),
			Configs:    configs,
		})
	} else {
		disabled = append(disabled, types.EngineSemgrep)
	}

	glLocal, glGlobal := lcfg.GetGitleaks(), gcfg.GetGitleaks()
	if flagEnableGitleaks || glLocal.IsEnabled() || glGlobal.IsEnabled() {
		adapters = append(adapters, &gitleaks.Adapter{
			BinaryPath: pickString(flagGitleaksBin, glLocal.Binary, glGlobal.Binary),
			ConfigPath: pickString(flagGitleaksConfig, glLocal.Config, glGlobal.Config),
		})
	} else {
		disabled = append(disabled, types.EngineGitleaks)
	}

	return adapters, disabled
}

func resolvePolicyMode(lcfg, gcfg config.FileConfig) types.PolicyMode {
	aiLocal, aiGlobal := lcfg.GetAI(), gcfg.GetAI()
	switch pickString(flagPolicyMode, aiLocal.Mode, aiGlobal.Mode) {
	case string(types.ModePermissive):
		return types.ModePermissive
	default:
		return types.ModeConservative
	}
}
