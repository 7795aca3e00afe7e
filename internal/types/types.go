package types

// Severity is the three-level risk classification shared by findings and the
// final verdict.
type Severity string

const (
	SevLow  Severity = "Low"
	SevMed  Severity = "Medium"
	SevHigh Severity = "High"
)

// Rank orders severities for comparison: Low < Medium < High. Unknown values
// rank below Low so they can never raise a verdict.
func (s Severity) Rank() int {
	switch s {
	case SevHigh:
		return 3
	case SevMed:
		return 2
	case SevLow:
		return 1
	}
	return 0
}

// Valid reports whether s is one of the three enumerated levels.
func (s Severity) Valid() bool {
	return s == SevLow || s == SevMed || s == SevHigh
}

// MaxSeverity returns the higher-ranked of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Recommendation is the deploy action derived from the final risk level.
type Recommendation string

const (
	RecAllow         Recommendation = "Auto-Deploy Allowed"
	RecAllowWithWarn Recommendation = "Auto-Deploy Allowed (With Warning)"
	RecManualReview  Recommendation = "Manual Review Required"
	RecDeployBlocked Recommendation = "Deployment Blocked"
)

// PolicyMode selects how aggressively findings escalate the verdict.
type PolicyMode string

const (
	ModePermissive   PolicyMode = "permissive"
	ModeConservative PolicyMode = "conservative"
)

// Finding categories produced by the builtin rule set and the adapters.
// Custom rule specifications may introduce additional categories; only these
// first two carry special escalation semantics in fusion.
const (
	CategorySecrets       = "Secrets"
	CategoryUnsafeExec    = "Unsafe Code Execution"
	CategoryNetwork       = "External Network Call"
	CategoryDataExposure  = "Potential Data Exposure"
	CategorySQLInjection  = "SQL Injection Risk"
	CategoryDeserializing = "Insecure Deserialization"
)

// Engine identifiers used in Finding.SourceEngine and EngineStatus.Name.
const (
	EngineLocal    = "local"
	EngineSemgrep  = "semgrep"
	EngineGitleaks = "gitleaks"
	EngineAI       = "ai"
)

// Finding is one flagged issue at a specific location. It is immutable once
// created; later pipeline stages copy rather than mutate.
type Finding struct {
	RuleID         string   `json:"rule_id"`
	Category       string   `json:"category"`
	Severity       Severity `json:"severity"`
	File           string   `json:"file"`
	Line           int      `json:"line,omitempty"`
	Evidence       string   `json:"evidence"`
	Description    string   `json:"description"`
	SourceEngine   string   `json:"source_engine"`
	ExternalRuleID string   `json:"external_rule_id,omitempty"`
}

// EngineState is the health of one detection engine after a scan.
type EngineState string

const (
	EngineOK      EngineState = "ok"
	EngineSkipped EngineState = "skipped"
	EngineError   EngineState = "error"
)

// EngineStatus reports per-engine health. One is present in the report for
// every configured engine, including disabled ones.
type EngineStatus struct {
	Name     string      `json:"name"`
	State    EngineState `json:"state"`
	Detail   string      `json:"detail,omitempty"`
	Findings int         `json:"findings"`
}

// RedactionRecord is the audit trail of what was scrubbed from the payload
// before it left the process for the policy call.
type RedactionRecord struct {
	Enabled            bool           `json:"enabled"`
	FindingsConsidered int            `json:"findings_considered"`
	FindingsRedacted   int            `json:"findings_redacted"`
	ReplacementCount   int            `json:"replacement_count"`
	Categories         []string       `json:"categories,omitempty"`
	ByCategory         map[string]int `json:"by_category,omitempty"`
	ContextLines       int            `json:"context_lines"`
	ContextAttached    int            `json:"context_attached"`
}

// SecretsDowngrade carries the model's explicit claim that a secret finding is
// a clearly-labeled placeholder. Fusion honors it only in permissive mode.
type SecretsDowngrade struct {
	Justified     bool   `json:"justified"`
	Justification string `json:"justification,omitempty"`
}

// PolicyVerdict is the structured output of the remote model call.
type PolicyVerdict struct {
	RiskLevel          Severity         `json:"risk_level"`
	Summary            string           `json:"summary"`
	Rationale          string           `json:"rationale"`
	PerFindingNotes    []string         `json:"per_finding_notes,omitempty"`
	Limitations        []string         `json:"limitations,omitempty"`
	Mitigations        []string         `json:"mitigations,omitempty"`
	AdditionalFindings []Finding        `json:"additional_findings,omitempty"`
	SecretsDowngrade   SecretsDowngrade `json:"secrets_downgrade"`
}

// PolicyUsage is provider-side token and cost telemetry for one policy call.
type PolicyUsage struct {
	PromptTokens     int     `json:"prompt_tokens,omitempty"`
	CompletionTokens int     `json:"completion_tokens,omitempty"`
	TotalTokens      int     `json:"total_tokens,omitempty"`
	Cost             float64 `json:"cost,omitempty"`
}

// Override records one deviation from the default severity-to-recommendation
// mapping, with the rule that caused it.
type Override struct {
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

// FusionDecision is the deterministic output of the fusion engine.
type FusionDecision struct {
	RiskLevel      Severity       `json:"risk_level"`
	Recommendation Recommendation `json:"recommendation"`
	Overrides      []Override     `json:"overrides"`
	DecisionPath   []string       `json:"decision_path"`
}

// SkippedFile marks a file excluded from local scanning with the reason.
// Skipped files are never treated as clean.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// GitInfo is best-effort repository metadata for the scanned tree.
type GitInfo struct {
	Branch string `json:"branch,omitempty"`
	Commit string `json:"commit,omitempty"`
}

// Metadata aggregates scan-level context and every non-fatal warning.
type Metadata struct {
	ScannedPath   string         `json:"scanned_path"`
	FilesScanned  int            `json:"files_scanned"`
	SkippedFiles  []SkippedFile  `json:"skipped_files,omitempty"`
	FindingsCount int            `json:"findings_count"`
	RulesCount    int            `json:"rules_count"`
	RulesSource   string         `json:"rules_source,omitempty"`
	Engines       []EngineStatus `json:"engines"`
	Warnings      []string       `json:"warnings"`
	Git           *GitInfo       `json:"git,omitempty"`
	AIUsage       *PolicyUsage   `json:"ai_usage,omitempty"`
	DurationMS    int64          `json:"duration_ms,omitempty"`
}

// AIAnalysis summarizes the model-assisted review (or the heuristic summary
// when the gate is disabled or unavailable).
type AIAnalysis struct {
	RiskLevel   Severity `json:"ai_risk_level"`
	Summary     string   `json:"ai_summary"`
	Explanation string   `json:"explanation_for_decision,omitempty"`
	Mitigations []string `json:"mitigation_suggestions,omitempty"`
}

// AIGate describes the policy gate's configuration and outcome for this scan.
type AIGate struct {
	Enabled        bool            `json:"enabled"`
	PolicyMode     PolicyMode      `json:"policy_mode"`
	Model          string          `json:"model,omitempty"`
	AnalysisStatus string          `json:"analysis_status"`
	AnalysisError  string          `json:"analysis_error,omitempty"`
	FusionDecision FusionDecision  `json:"fusion_decision"`
	InputRedaction RedactionRecord `json:"input_redaction"`
}

// Report is the single aggregate artifact returned to callers. It is
// immutable once assembled.
type Report struct {
	RiskLevel      Severity       `json:"risk_level"`
	Recommendation Recommendation `json:"recommendation"`
	RuleFindings   []Finding      `json:"rule_findings"`
	AIAnalysis     AIAnalysis     `json:"ai_analysis"`
	Limitations    []string       `json:"limitations"`
	Metadata       Metadata       `json:"metadata"`
	AIGate         AIGate         `json:"ai_gate"`
}
