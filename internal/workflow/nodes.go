package workflow

import (
	"context"
	"fmt"
	"log"
	"strings"

	"arogya/internal/gateway"
	"arogya/internal/safety"
	"arogya/internal/sanitize"
)

// Node names. Each node owns exactly one state field.
const (
	NodeRiskScreen     = "risk_screen"
	NodeEyeCheck       = "eye_check"
	NodeFootCheck      = "foot_check"
	NodeDietAdvice     = "diet_advice"
	NodeAMIEDiagnostic = "amie_diagnostic"
	NodeSummarize      = "summarize"
)

// Static fallback strings substituted when a node's model call fails. Node
// failures degrade, they never abort the run.
const (
	riskUnavailable = "Risk screening unavailable. Please visit PHC for blood sugar test."
	eyeUnavailable  = "Eye analysis unavailable."
	footUnavailable = "Foot analysis unavailable."
	dietUnavailable = "Diet advice unavailable."

	eyeNoPhoto = "Eye photo not provided. " +
		"Recommend annual retinal screening for all diabetic patients. " +
		"Visit PHC or eye camp for free screening."
	footNoPhoto = "Foot photo not provided. " +
		"Daily foot inspection recommended for all diabetic patients. " +
		"Check for: cuts, blisters, redness, swelling, numbness."
)

// stepResult is the explicit outcome of one node. The engine merges it into
// the state instead of letting nodes mutate shared fields.
type stepResult struct {
	text     string
	severity Severity
	err      error
}

func (e *Engine) riskScreen(ctx context.Context, state State) stepResult {
	clean := sanitize.UserInput(state.Query)
	en := e.Translator.ToEnglish(ctx, clean, state.Lang)

	prompt := fmt.Sprintf(`Diabetes risk screening for rural India patient.
Patient info: %s, Age: %d

STRICT RULES:
- Use "may suggest" / "could indicate" language, never definitive
- NEVER say "you have diabetes"
- NEVER suggest specific insulin doses
- If unclear, say "please get blood sugar test at PHC"

Assess risk: LOW / MEDIUM / HIGH
Consider: family history, weight, thirst, urination, fatigue.
Recommend: NPCDCS free screening if MEDIUM/HIGH.
Max 80 words.`, en, state.Age)

	raw, err := e.Gateway.GenerateText(ctx, prompt, gateway.Options{MaxTokens: 300})
	if err != nil {
		log.Printf("node=%s gateway failed err=%v", NodeRiskScreen, err)
		return stepResult{text: riskUnavailable, severity: SeverityUnknown, err: err}
	}

	// Coarse severity seed from the raw pre-validation text. Deliberately
	// crude; the aggregation step can only raise it.
	lower := strings.ToLower(raw)
	severity := SeverityGreen
	switch {
	case strings.Contains(lower, "high"):
		severity = SeverityRed
	case strings.Contains(lower, "medium"):
		severity = SeverityYellow
	}

	return stepResult{text: safety.Validate(raw, NodeRiskScreen), severity: severity}
}

func (e *Engine) eyeCheck(ctx context.Context, state State) stepResult {
	wantImage := state.CheckType == CheckRetinopathy || state.CheckType == CheckFull
	if len(state.ImageBytes) == 0 || !wantImage {
		// No model call at all: cost and latency, not an error path.
		return stepResult{text: eyeNoPhoto}
	}

	prompt := `Analyze this retinal image for diabetic retinopathy.

STRICT RULES:
- If image quality poor, say "cannot assess, better image needed"
- Use "appears to show" / "possible" language
- NEVER give definitive grading without clear image
- Grade only if confident: No DR / Mild / Moderate / Severe / Proliferative

Describe: What you observe, urgency of ophthalmologist visit.
Simple language for rural patient.`

	raw, err := e.Gateway.GenerateFromImage(ctx, state.ImageBytes, prompt)
	if err != nil {
		log.Printf("node=%s gateway failed err=%v", NodeEyeCheck, err)
		return stepResult{text: eyeUnavailable, err: err}
	}
	return stepResult{text: safety.Validate(raw, NodeEyeCheck)}
}

func (e *Engine) footCheck(ctx context.Context, state State) stepResult {
	wantImage := state.CheckType == CheckFoot || state.CheckType == CheckFull
	if len(state.ImageBytes) == 0 || !wantImage {
		return stepResult{text: footNoPhoto}
	}

	prompt := `Analyze this diabetic foot image.

STRICT RULES:
- Wagner scale (0-5), state if uncertain
- Infection signs: look carefully, do not assume absent
- Be direct about urgency, diabetic foot worsens rapidly
- Action: home care / PHC / hospital / emergency 108

If image quality is poor, say "cannot assess clearly, visit PHC immediately to be safe".`

	raw, err := e.Gateway.GenerateFromImage(ctx, state.ImageBytes, prompt)
	if err != nil {
		log.Printf("node=%s gateway failed err=%v", NodeFootCheck, err)
		return stepResult{text: footUnavailable, err: err}
	}
	return stepResult{text: safety.Validate(raw, NodeFootCheck)}
}

func (e *Engine) dietAdvice(ctx context.Context, state State) stepResult {
	clean := sanitize.UserInput(state.Query)
	en := e.Translator.ToEnglish(ctx, clean, state.Lang)

	prompt := fmt.Sprintf(`Diabetes diet advice for Indian rural patient.
Query context: %s

STRICT RULES:
- Practical, affordable Indian foods only
- NEVER suggest supplements or specific medicine doses
- Keep advice realistic for rural household budget

Guidance:
- Eat more: ragi, vegetables, bitter gourd, drumstick
- Reduce: white rice, sugar, maida, fried food
- Simple affordable meal plan example
- Local foods that help control blood sugar
Max 80 words.`, en)

	raw, err := e.Gateway.GenerateText(ctx, prompt, gateway.Options{MaxTokens: 300})
	if err != nil {
		log.Printf("node=%s gateway failed err=%v", NodeDietAdvice, err)
		return stepResult{text: dietUnavailable, err: err}
	}
	return stepResult{text: safety.Validate(raw, NodeDietAdvice)}
}
