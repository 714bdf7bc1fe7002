package diagnostic

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"arogya/internal/gateway"
)

// Fallback summaries keyed by language, used when the model cannot produce
// one.
var summaryFallbacks = map[string]string{
	"te": "రోగ నిర్ధారణ సారాంశం రూపొందించడంలో లోపం. దయచేసి వైద్యుడిని సంప్రదించండి.",
	"hi": "निदान सारांश बनाने में त्रुटि। कृपया डॉक्टर से परामर्श करें।",
	"en": "Error generating diagnostic summary. Please consult a doctor.",
}

var startFallbacks = map[string]string{
	"te": "రోగ నిర్ధారణ ప్రారంభించడంలో లోపం. దయచేసి వైద్యుడిని సంప్రదించండి.",
	"hi": "निदान शुरू करने में त्रुटि। कृपया डॉक्टर से परामर्श करें।",
	"en": "Error starting diagnostic conversation. Please consult a doctor.",
}

// Agent runs iterative differential-diagnosis conversations over the model
// gateway, keeping all session state in the Store.
type Agent struct {
	Gateway  gateway.Provider
	Sessions Store
	locks    *keyedMutex
}

func NewAgent(provider gateway.Provider, sessions Store) *Agent {
	return &Agent{Gateway: provider, Sessions: sessions, locks: newKeyedMutex()}
}

// Start opens a new conversation around the initial complaint. It never
// returns an error to the caller: when the model response cannot be used the
// returned state carries a language-specific Error and MEDIUM urgency.
func (a *Agent) Start(ctx context.Context, complaint string, patient PatientContext, lang string) State {
	sessionID := uuid.NewString()

	raw, err := a.Gateway.GenerateText(ctx, startPrompt(complaint, patient), gateway.Options{MaxTokens: 1200})
	if err != nil {
		log.Printf("diagnostic start failed session_id=%s err=%v", sessionID, err)
		return fallbackState(sessionID, lang)
	}

	state, err := parseState(raw)
	if err != nil {
		log.Printf("diagnostic start parse failed session_id=%s err=%v", sessionID, err)
		return fallbackState(sessionID, lang)
	}

	state.SessionID = sessionID
	state.ConversationHistory = []Turn{{Role: "patient", Message: complaint}}
	state.Iteration = 1

	if err := a.Sessions.Put(ctx, sessionID, state); err != nil {
		log.Printf("diagnostic session persist failed session_id=%s err=%v", sessionID, err)
		return fallbackState(sessionID, lang)
	}
	return state
}

// Continue revises the differential with the patient's answers. Unknown ids
// surface ErrSessionNotFound as a value. When the model response cannot be
// parsed the stored state is returned unchanged with the iteration counter
// untouched: fail safe to last known good state.
func (a *Agent) Continue(ctx context.Context, sessionID string, answers map[string]string, lang string) (State, error) {
	lock := a.locks.lock(sessionID)
	defer lock.Unlock()

	prior, err := a.Sessions.Get(ctx, sessionID)
	if err != nil {
		return State{}, err
	}

	history := append([]Turn(nil), prior.ConversationHistory...)
	for _, question := range sortedKeys(answers) {
		history = append(history,
			Turn{Role: "physician", Message: question},
			Turn{Role: "patient", Message: answers[question]},
		)
	}

	raw, err := a.Gateway.GenerateText(ctx, continuePrompt(prior, answers), gateway.Options{MaxTokens: 1200})
	if err != nil {
		log.Printf("diagnostic continue failed session_id=%s err=%v", sessionID, err)
		return prior, nil
	}

	updated, err := parseState(raw)
	if err != nil {
		log.Printf("diagnostic continue parse failed session_id=%s err=%v", sessionID, err)
		return prior, nil
	}

	updated.SessionID = sessionID
	updated.ConversationHistory = history
	updated.Iteration = prior.Iteration + 1

	if err := a.Sessions.Put(ctx, sessionID, updated); err != nil {
		log.Printf("diagnostic session persist failed session_id=%s err=%v", sessionID, err)
		return prior, nil
	}
	return updated, nil
}

// Summarize produces a plain-language explanation of the current state for
// the patient, or a fixed per-language redirect when the model fails.
func (a *Agent) Summarize(ctx context.Context, sessionID string, lang string) (string, error) {
	lock := a.locks.lock(sessionID)
	defer lock.Unlock()

	state, err := a.Sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}

	summary, err := a.Gateway.GenerateText(ctx, summaryPrompt(state, lang), gateway.Options{MaxTokens: 400})
	if err != nil || summary == "" {
		log.Printf("diagnostic summary failed session_id=%s err=%v", sessionID, err)
		return localized(summaryFallbacks, lang), nil
	}
	return summary, nil
}

func fallbackState(sessionID string, lang string) State {
	return State{
		SessionID:             sessionID,
		Error:                 localized(startFallbacks, lang),
		DifferentialDiagnoses: []Diagnosis{},
		NextQuestions:         []Question{},
		Urgency:               "MEDIUM",
		RecommendedTests:      []string{},
		ImmediateActions:      []string{"Consult a healthcare provider"},
	}
}

func localized(table map[string]string, lang string) string {
	if msg, ok := table[lang]; ok {
		return msg
	}
	return table["en"]
}

func sortedKeys(answers map[string]string) []string {
	keys := make([]string, 0, len(answers))
	for key := range answers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func startPrompt(complaint string, patient PatientContext) string {
	return fmt.Sprintf(`You are an expert diagnostic physician running an iterative diagnostic conversation.

Patient Context:
- Age: %d
- Gender: %s
- Pregnant: %t
- Medical History: %s

Initial Complaint: %s

Your task:
1. Generate a differential diagnosis list (top 5 most likely conditions)
2. For each diagnosis, assign a probability (0-100%%)
3. Identify the most critical questions to ask next (3-5 questions)
4. Determine urgency level (LOW/MEDIUM/HIGH/CRITICAL)

Return ONLY valid JSON:
{
  "differential_diagnoses": [
    {"condition": "...", "probability": 75, "reasoning": "...", "red_flags": ["..."], "typical_presentation": "..."}
  ],
  "next_questions": [
    {"question_english": "...", "question_telugu": "...", "question_hindi": "...", "purpose": "...", "expected_answers": ["..."]}
  ],
  "urgency": "MEDIUM",
  "reasoning": "...",
  "recommended_tests": ["..."],
  "immediate_actions": ["..."]
}

Use Indian medical context and guidelines (IMNCI, WHO India).`,
		patient.Age, orUnknown(patient.Gender), patient.Pregnant,
		orUnknown(patient.MedicalHistory), complaint)
}

func continuePrompt(prior State, answers map[string]string) string {
	priorJSON, _ := json.MarshalIndent(prior, "", "  ")
	answersJSON, _ := json.MarshalIndent(answers, "", "  ")
	return fmt.Sprintf(`You are continuing a diagnostic conversation.

Previous State:
%s

New Information (Patient's Answers):
%s

Based on the new information:
1. Update differential diagnosis probabilities
2. Add or remove diagnoses as needed
3. Generate next set of questions (if diagnosis not clear)
4. If diagnosis is clear (>80%% confidence), provide final diagnosis
5. Update urgency level

Return ONLY valid JSON with the same structure as before, plus:
"diagnosis_clear": true/false, "final_diagnosis": "...", "confidence": 0-100, "treatment_plan": "..."`,
		priorJSON, answersJSON)
}

func summaryPrompt(state State, lang string) string {
	stateJSON, _ := json.MarshalIndent(state, "", "  ")
	return fmt.Sprintf(`Generate a clear, empathetic diagnostic summary in %s language.

Diagnostic State:
%s

Create a summary that:
1. Explains the most likely diagnosis in simple terms
2. Lists key symptoms that led to this conclusion
3. Explains recommended tests/treatment
4. Provides reassurance and next steps
5. Mentions when to seek immediate care

Keep it under 200 words, use simple language suitable for rural patients.`,
		lang, stateJSON)
}

func orUnknown(value string) string {
	if value == "" {
		return "Unknown"
	}
	return value
}
