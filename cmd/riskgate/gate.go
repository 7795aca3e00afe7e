package riskgate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/engine"
	"github.com/riskgate/riskgate/internal/policy"
	"github.com/riskgate/riskgate/internal/redact"
	"github.com/riskgate/riskgate/internal/types"
)

// gateOutcome carries everything the policy step produced, including the
// degenerate disabled and unavailable cases.
type gateOutcome struct {
	enabled   bool
	model     string
	status    string
	detail    string
	verdict   *types.PolicyVerdict
	usage     *types.PolicyUsage
	redaction types.RedactionRecord
	warnings  []string
}

// runGate executes the model-assisted policy review when enabled. Every
// failure path degrades to an unavailable outcome; fusion decides what that
// means under the active mode.
func runGate(
	ctx context.Context,
	cmd *cobra.Command,
	logger *slog.Logger,
	root string,
	mode types.PolicyMode,
	res *engine.Result,
	lcfg, gcfg config.FileConfig,
) gateOutcome {
	aiLocal, aiGlobal := lcfg.GetAI(), gcfg.GetAI()

	enabled := flagEnableAIGate || aiLocal.IsEnabled() || aiGlobal.IsEnabled()
	if !enabled {
		return gateOutcome{status: policy.StatusDisabled}
	}

	out := gateOutcome{enabled: true, status: policy.StatusUnavailable}

	redactEnabled := true
	switch {
	case cmd.Flags().Changed("redact-input"):
		redactEnabled = flagRedactInput
	case aiLocal.RedactInput != nil:
		redactEnabled = *aiLocal.RedactInput
	case aiGlobal.RedactInput != nil:
		redactEnabled = *aiGlobal.RedactInput
	}
	if !redactEnabled {
		logger.Warn("input redaction is disabled; raw evidence will be sent to the model endpoint")
		out.warnings = append(out.warnings,
			"input redaction disabled: raw finding evidence leaves the process")
		if flagAILogPayload {
			out.warnings = append(out.warnings,
				"payload logging combined with disabled redaction writes raw evidence to logs")
		}
	}

	redactor, err := redact.New(redactEnabled, nil)
	if err != nil {
		out.detail = fmt.Sprintf("redactor init: %v", err)
		out.warnings = append(out.warnings, "model policy review unavailable: "+out.detail)
		return out
	}

	out.model = pickString(flagAIModel, aiLocal.Model, aiGlobal.Model)
	if out.model == "" {
		out.model = "openrouter/auto"
	}
	baseURL := pickString(flagAIBaseURL, aiLocal.BaseURL, aiGlobal.BaseURL)
	if baseURL == "" {
		baseURL = defaultAIBaseURL
	}
	keyEnv := pickString(flagAIKeyEnv, aiLocal.APIKeyEnv, aiGlobal.APIKeyEnv)
	if keyEnv == "" {
		keyEnv = defaultAIKeyEnv
	}
	timeoutSec := pickInt(flagAITimeoutSec, aiLocal.TimeoutSec, aiGlobal.TimeoutSec)
	if timeoutSec <= 0 {
		timeoutSec = defaultAITimeoutSec
	}
	maxFindings := pickInt(flagAIMaxFindings, aiLocal.MaxFindings, aiGlobal.MaxFindings)
	contextLines := pickInt(flagAIContextLines, aiLocal.ContextLines, aiGlobal.ContextLines)

	input, record := policy.BuildInput(mode, root, res.Findings, redactor, maxFindings, contextLines)
	out.redaction = record

	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		out.detail = fmt.Sprintf("API key environment variable %s is not set", keyEnv)
		out.warnings = append(out.warnings, "model policy review unavailable: "+out.detail)
		return out
	}

	client, err := policy.New(baseURL, apiKey, out.model,
		policy.WithLogger(logger),
		policy.WithTimeout(time.Duration(timeoutSec)*time.Second),
		policy.WithPayloadLogging(flagAILogPayload),
	)
	if err != nil {
		out.detail = err.Error()
		out.warnings = append(out.warnings, "model policy review unavailable: "+out.detail)
		return out
	}

	pres := client.Evaluate(ctx, policy.ForMode(mode), input)
	out.status = pres.Status
	out.detail = pres.Detail
	out.verdict = pres.Verdict
	out.usage = pres.Usage
	if pres.Status == policy.StatusUnavailable {
		out.warnings = append(out.warnings, "model policy review unavailable: "+pres.Detail)
	}
	return out
}
