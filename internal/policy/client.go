package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/riskgate/riskgate/internal/types"
)

// Analysis status values recorded in the report's gate section.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
	StatusDisabled    = "disabled"
)

// Client talks to an OpenAI-compatible chat-completions endpoint. One call
// per scan, no retries; any failure degrades to an unavailable result.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
	logPayload bool
}

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
	logPayload bool
}

// New creates a policy client for the given endpoint. The apiKey is sent as
// a bearer token on every request.
func New(baseURL, apiKey, model string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("policy: baseURL is required")
	}
	if model == "" {
		return nil, fmt.Errorf("policy: model is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &clientConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{}
	if cfg.httpClient != nil {
		// Shallow copy so the timeout never mutates the caller's client.
		c := *cfg.httpClient
		httpClient = &c
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
		logPayload: cfg.logPayload,
	}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		cfg.timeout = d
		return nil
	}
}

// WithPayloadLogging dumps the outbound request body through the logger.
// Debug aid; the payload is already redacted by the time it reaches the
// client, but operators should still treat these logs as sensitive.
func WithPayloadLogging(enabled bool) Option {
	return func(cfg *clientConfig) error {
		cfg.logPayload = enabled
		return nil
	}
}

// Result is the tri-state outcome of one policy call. Status is never fatal
// to the scan; callers fold an unavailable result into the fusion step.
type Result struct {
	Status  string
	Detail  string
	Verdict *types.PolicyVerdict
	Usage   *types.PolicyUsage
}

func unavailable(detail string) Result {
	return Result{Status: StatusUnavailable, Detail: detail}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int     `json:"prompt_tokens"`
		CompletionTokens int     `json:"completion_tokens"`
		TotalTokens      int     `json:"total_tokens"`
		Cost             float64 `json:"cost"`
	} `json:"usage"`
}

const systemPrompt = "You are a security reviewer for a deployment gate. " +
	"Return only a valid JSON object. Do not include markdown fences."

const responseSchema = `Respond with a JSON object holding exactly these fields:
risk_level ("High"|"Medium"|"Low"), summary, rationale,
per_finding_notes (list of strings referencing KF ids),
limitations (list of strings), mitigations (list of strings),
additional_findings (list of {category, severity, file, line, evidence, explanation}),
secrets_downgrade ({justified: bool, justification: string}).`

// Evaluate sends one redacted scan payload for review under the given policy
// document. The only error-shaped outputs are unavailable Results; transport,
// HTTP, and parse failures all land there with a detail string.
func (c *Client) Evaluate(ctx context.Context, doc Document, in Input) Result {
	inputJSON, err := json.Marshal(in)
	if err != nil {
		return unavailable(fmt.Sprintf("encode payload: %v", err))
	}

	userPrompt := fmt.Sprintf(
		"%s\n\nPolicy instruction:\n%s\nScan input JSON:\n%s",
		responseSchema, doc.Render(), inputJSON,
	)
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return unavailable(fmt.Sprintf("encode request: %v", err))
	}

	c.logger.InfoContext(ctx, "policy request prepared",
		"model", c.model,
		"findings_sample", len(in.Findings),
		"redaction_enabled", in.Redaction.Enabled,
		"redacted_findings", in.Redaction.FindingsRedacted,
		"replacements", in.Redaction.ReplacementCount)
	if c.logPayload {
		c.logger.WarnContext(ctx, "policy request payload", "body", string(body))
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return unavailable(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return unavailable(fmt.Sprintf("do request: %v", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return unavailable(fmt.Sprintf("read response: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return unavailable(fmt.Sprintf("provider returned HTTP %d: %s",
			resp.StatusCode, truncate(string(respBody), 200)))
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return unavailable(fmt.Sprintf("decode response: %v", err))
	}
	if len(chat.Choices) == 0 {
		return unavailable("provider returned no choices")
	}

	text, err := contentText(chat.Choices[0].Message.Content)
	if err != nil {
		return unavailable(err.Error())
	}

	verdict, err := parseVerdict(text)
	if err != nil {
		return unavailable(err.Error())
	}

	res := Result{Status: StatusOK, Verdict: verdict}
	if chat.Usage != nil {
		res.Usage = &types.PolicyUsage{
			PromptTokens:     chat.Usage.PromptTokens,
			CompletionTokens: chat.Usage.CompletionTokens,
			TotalTokens:      chat.Usage.TotalTokens,
			Cost:             chat.Usage.Cost,
		}
	}
	c.logger.DebugContext(ctx, "policy verdict received",
		"risk_level", verdict.RiskLevel,
		"additional_findings", len(verdict.AdditionalFindings))
	return res
}

// contentText handles both content shapes providers emit: a plain string or
// a list of typed text parts.
func contentText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			if p.Text != "" {
				b.WriteString(p.Text)
				b.WriteByte('\n')
			}
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("unrecognized message content shape")
}

type wireVerdict struct {
	RiskLevel          string   `json:"risk_level"`
	Summary            string   `json:"summary"`
	Rationale          string   `json:"rationale"`
	PerFindingNotes    []string `json:"per_finding_notes"`
	Limitations        []string `json:"limitations"`
	Mitigations        []string `json:"mitigations"`
	AdditionalFindings []struct {
		Category    string `json:"category"`
		Severity    string `json:"severity"`
		File        string `json:"file"`
		Line        int    `json:"line"`
		Evidence    string `json:"evidence"`
		Explanation string `json:"explanation"`
	} `json:"additional_findings"`
	SecretsDowngrade struct {
		Justified     bool   `json:"justified"`
		Justification string `json:"justification"`
	} `json:"secrets_downgrade"`
}

func parseVerdict(text string) (*types.PolicyVerdict, error) {
	obj, ok := ExtractJSONObject(text)
	if !ok {
		return nil, fmt.Errorf("model output contained no JSON object")
	}

	var w wireVerdict
	if err := json.Unmarshal([]byte(obj), &w); err != nil {
		return nil, fmt.Errorf("model output was not a valid verdict: %w", err)
	}

	v := &types.PolicyVerdict{
		RiskLevel:       normalizeRisk(w.RiskLevel),
		Summary:         strings.TrimSpace(w.Summary),
		Rationale:       strings.TrimSpace(w.Rationale),
		PerFindingNotes: w.PerFindingNotes,
		Limitations:     w.Limitations,
		Mitigations:     w.Mitigations,
		SecretsDowngrade: types.SecretsDowngrade{
			Justified:     w.SecretsDowngrade.Justified,
			Justification: strings.TrimSpace(w.SecretsDowngrade.Justification),
		},
	}
	for i, af := range w.AdditionalFindings {
		category := af.Category
		if category == "" {
			category = "AI Insight"
		}
		v.AdditionalFindings = append(v.AdditionalFindings, types.Finding{
			RuleID:       fmt.Sprintf("AI-%03d", i+1),
			Category:     category,
			Severity:     normalizeRisk(af.Severity),
			File:         af.File,
			Line:         af.Line,
			Evidence:     af.Evidence,
			Description:  af.Explanation,
			SourceEngine: types.EngineAI,
		})
	}
	return v, nil
}

// normalizeRisk folds the model's label vocabulary onto the canonical scale,
// defaulting unknowns to Low so a malformed verdict can only ever fail to
// escalate, never to downgrade the deterministic baseline.
func normalizeRisk(raw string) types.Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high", "critical", "error":
		return types.SevHigh
	case "medium", "moderate", "warning", "warn":
		return types.SevMed
	default:
		return types.SevLow
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
