package workflow

import (
	"arogya/internal/diagnostic"
)

// Severity is the triage tier attached to every response. Escalation is
// one-directional within a run: once RED, later steps cannot downgrade it.
type Severity string

const (
	SeverityGreen   Severity = "GREEN"
	SeverityYellow  Severity = "YELLOW"
	SeverityRed     Severity = "RED"
	SeverityUnknown Severity = "UNKNOWN"
)

var severityRank = map[Severity]int{
	SeverityUnknown: 0,
	SeverityGreen:   1,
	SeverityYellow:  2,
	SeverityRed:     3,
}

// escalate keeps the higher of the two tiers. RED is sticky.
func escalate(current, proposed Severity) Severity {
	if current == SeverityRed {
		return current
	}
	if severityRank[proposed] > severityRank[current] {
		return proposed
	}
	return current
}

// urgencyToSeverity maps the diagnostic urgency vocabulary onto the triage
// tiers the caller understands.
func urgencyToSeverity(urgency string) Severity {
	switch urgency {
	case "LOW":
		return SeverityGreen
	case "MEDIUM":
		return SeverityYellow
	case "HIGH", "CRITICAL":
		return SeverityRed
	}
	return SeverityUnknown
}

// Check types accepted by the workflow.
const (
	CheckGeneral     = "general"
	CheckRisk        = "risk"
	CheckRetinopathy = "retinopathy"
	CheckFoot        = "foot"
	CheckDiet        = "diet"
	CheckFull        = "full"
	CheckDiagnostic  = "diagnostic"
)

// State is one workflow invocation. Each per-step result field is written by
// exactly one node; the state is discarded after summarize except the
// referenced diagnostic session, which outlives the call.
type State struct {
	Query      string
	Lang       string
	Age        int
	ImageBytes []byte
	CheckType  string

	RiskResult string
	EyeResult  string
	FootResult string
	DietResult string

	Severity Severity

	DiagnosticMode bool
	AMIESessionID  string
	AMIEState      *diagnostic.State

	Final string
	Error string
}

// Request is the conceptual workflow invocation of the external interface.
type Request struct {
	Query          string            `json:"query"`
	Lang           string            `json:"lang"`
	Age            int               `json:"age"`
	ImageBytes     []byte            `json:"image_bytes,omitempty"`
	CheckType      string            `json:"check_type"`
	DiagnosticMode bool              `json:"diagnostic_mode"`
	AMIESessionID  string            `json:"amie_session_id,omitempty"`
	AMIEAnswers    map[string]string `json:"amie_answers,omitempty"`
}

// Response is what the caller sees. Severity is empty only on the fatal
// aggregation-failure path.
type Response struct {
	Success       bool              `json:"success"`
	Response      string            `json:"response"`
	Severity      Severity          `json:"severity,omitempty"`
	AMIEState     *diagnostic.State `json:"amie_state,omitempty"`
	AMIESessionID string            `json:"amie_session_id,omitempty"`
}
