package workflow

import (
	"context"
	"log"
	"strings"

	"arogya/internal/diagnostic"
	"arogya/internal/gateway"
	"arogya/internal/store"
	"arogya/internal/translate"
)

// Disclaimer appended to every aggregated response.
const Disclaimer = "\n\nAI guidance only. " +
	"Please consult a qualified doctor for diagnosis and treatment. " +
	"In an emergency call 108 immediately."

const unavailableResponse = "Diabetes assessment unavailable. Please try again."

// Keywords in the combined English summary that force severity to RED no
// matter what earlier steps produced.
var emergencyKeywords = []string{"proliferative", "stage 4", "stage 5", "emergency"}

// Engine drives the fixed clinical step graph:
//
//	risk_screen -> {eye_check | foot_check | diet_advice | summarize}
//	eye_check -> foot_check -> diet_advice -> amie_diagnostic -> summarize
//
// Nodes run strictly in order because later nodes read fields written by
// earlier ones. Runs on separate requests share nothing but the diagnostic
// session store.
type Engine struct {
	Gateway    gateway.Provider
	Diagnostic *diagnostic.Agent
	Translator translate.Translator
	Runs       *store.Store // optional run log, nil disables persistence
}

func NewEngine(provider gateway.Provider, agent *diagnostic.Agent, translator translate.Translator) *Engine {
	if translator == nil {
		translator = translate.Passthrough{}
	}
	return &Engine{Gateway: provider, Diagnostic: agent, Translator: translator}
}

// RouteAfterRisk picks the node following risk_screen. Pure and total over
// any check type string.
func RouteAfterRisk(checkType string) string {
	switch checkType {
	case CheckRetinopathy, CheckFull:
		return NodeEyeCheck
	case CheckFoot:
		return NodeFootCheck
	case CheckDiet:
		return NodeDietAdvice
	}
	return NodeSummarize
}

// Execute is the caller-facing entry point. A pending diagnostic
// continuation runs before the graph so amie_diagnostic sees the session as
// already continuing. Aggregation panics degrade to a fixed unavailable
// response with severity omitted; no caller ever sees a crash.
func (e *Engine) Execute(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("workflow panic recovered: %v", r)
			resp = Response{Success: false, Response: unavailableResponse}
		}
	}()

	state := State{
		Query:          req.Query,
		Lang:           req.Lang,
		Age:            req.Age,
		ImageBytes:     req.ImageBytes,
		CheckType:      req.CheckType,
		Severity:       SeverityGreen,
		DiagnosticMode: req.DiagnosticMode,
		AMIESessionID:  req.AMIESessionID,
	}
	if state.CheckType == "" {
		state.CheckType = CheckGeneral
	}
	if state.Lang == "" {
		state.Lang = "te"
	}

	if req.AMIESessionID != "" && len(req.AMIEAnswers) > 0 && e.Diagnostic != nil {
		continued, err := e.Diagnostic.Continue(ctx, req.AMIESessionID, req.AMIEAnswers, state.Lang)
		if err != nil {
			log.Printf("diagnostic continuation failed session_id=%s err=%v", req.AMIESessionID, err)
		} else {
			state.AMIEState = &continued
		}
	}

	final := e.Run(ctx, state)

	resp = Response{
		Success:  true,
		Response: final.Final,
		Severity: final.Severity,
	}
	if final.DiagnosticMode && final.AMIEState != nil {
		resp.AMIEState = final.AMIEState
		resp.AMIESessionID = final.AMIESessionID
	}

	e.record(ctx, final)
	return resp
}

// Run executes the graph over an initial state and returns the final state.
func (e *Engine) Run(ctx context.Context, state State) State {
	state = e.merge(state, NodeRiskScreen, e.riskScreen(ctx, state))

	switch RouteAfterRisk(state.CheckType) {
	case NodeEyeCheck:
		state = e.merge(state, NodeEyeCheck, e.eyeCheck(ctx, state))
		fallthrough
	case NodeFootCheck:
		state = e.merge(state, NodeFootCheck, e.footCheck(ctx, state))
		fallthrough
	case NodeDietAdvice:
		state = e.merge(state, NodeDietAdvice, e.dietAdvice(ctx, state))
		state = e.amieDiagnostic(ctx, state)
	}

	return e.summarize(ctx, state)
}

// merge applies one node's result to the field that node owns. This is the
// engine's whole non-abort policy: errors are recorded, fallback text is
// kept, routing continues.
func (e *Engine) merge(state State, node string, res stepResult) State {
	switch node {
	case NodeRiskScreen:
		state.RiskResult = res.text
		if res.severity != "" {
			// risk_screen seeds the severity; later nodes may only raise it.
			state.Severity = res.severity
		}
	case NodeEyeCheck:
		state.EyeResult = res.text
	case NodeFootCheck:
		state.FootResult = res.text
	case NodeDietAdvice:
		state.DietResult = res.text
	}
	if res.err != nil {
		state.Error = res.err.Error()
	}
	return state
}

// amieDiagnostic starts a diagnostic conversation for complex cases. No-op
// outside diagnostic mode; a session seeded before the run passes through
// unchanged.
func (e *Engine) amieDiagnostic(ctx context.Context, state State) State {
	if !state.DiagnosticMode || e.Diagnostic == nil {
		return state
	}
	if state.AMIESessionID != "" {
		return state
	}
	started := e.Diagnostic.Start(ctx, state.Query, diagnostic.PatientContext{
		Age:            state.Age,
		MedicalHistory: "Diabetes patient",
	}, state.Lang)
	state.AMIESessionID = started.SessionID
	state.AMIEState = &started
	return state
}

func (e *Engine) summarize(ctx context.Context, state State) State {
	if state.DiagnosticMode && state.AMIEState != nil {
		sessionID := state.AMIESessionID
		if sessionID == "" {
			sessionID = state.AMIEState.SessionID
			state.AMIESessionID = sessionID
		}
		summary, err := e.Diagnostic.Summarize(ctx, sessionID, state.Lang)
		if err != nil {
			log.Printf("diagnostic summary lookup failed session_id=%s err=%v", sessionID, err)
			summary = unavailableResponse
		}
		state.Final = summary
		state.Severity = escalate(state.Severity, urgencyToSeverity(state.AMIEState.Urgency))
		return state
	}

	var parts []string
	for _, section := range []struct {
		heading string
		text    string
	}{
		{"**Risk Assessment:**", state.RiskResult},
		{"**Eye Health:**", state.EyeResult},
		{"**Foot Health:**", state.FootResult},
		{"**Diet Guidance:**", state.DietResult},
	} {
		if section.text != "" {
			parts = append(parts, section.heading+"\n"+section.text)
		}
	}

	combined := "Unable to complete assessment."
	if len(parts) > 0 {
		combined = strings.Join(parts, "\n\n")
	}

	// Emergency keyword scan runs on the combined English step results,
	// before the disclaimer (which mentions emergencies itself) and before
	// translation.
	lower := strings.ToLower(combined)
	for _, keyword := range emergencyKeywords {
		if strings.Contains(lower, keyword) {
			state.Severity = SeverityRed
			break
		}
	}

	state.Final = e.Translator.ToLocal(ctx, combined+Disclaimer, state.Lang)
	return state
}

// record persists a completed run when a run store is configured. Best
// effort: persistence failures never change the response.
func (e *Engine) record(ctx context.Context, state State) {
	if e.Runs == nil {
		return
	}
	err := e.Runs.InsertTriageRun(ctx, store.TriageRun{
		Lang:          state.Lang,
		Age:           state.Age,
		CheckType:     state.CheckType,
		Severity:      string(state.Severity),
		Response:      state.Final,
		StepError:     state.Error,
		AMIESessionID: state.AMIESessionID,
	})
	if err != nil {
		log.Printf("triage run persist failed err=%v", err)
	}
}
