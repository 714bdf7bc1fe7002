package safety

import (
	"strings"
)

// Fixed replacement strings. The validator prefers a generic safe answer over
// passing model text through unchanged when trust in it is lost.
const (
	shortInputFallback = "Unable to assess. Please visit nearest PHC for proper examination."

	overconfidenceFallback = "Based on the information provided, a proper medical assessment " +
		"is needed. Please visit your nearest PHC or qualified doctor. " +
		"If this is an emergency, call 108 immediately."

	dosageNote = "Note: Dosage shown is AI-generated. " +
		"Always follow your doctor's prescription for exact dosage."

	uncertaintyNote = "Note: This is AI guidance only. " +
		"Please confirm with a qualified doctor before taking any action."
)

// overconfidentPhrases indicate the model asserted unwarranted certainty.
// Any hit discards the whole response.
var overconfidentPhrases = []string{
	"you definitely have",
	"you certainly have",
	"100% sure",
	"guaranteed",
	"no doubt",
	"i am certain",
	"confirmed diagnosis",
}

// dangerousClaims are definitive diagnoses the model must not make. Each hit
// appends the paired corrective note instead of replacing the text.
var dangerousClaims = []struct {
	phrase string
	note   string
}{
	{"you have cancer", "Please visit a doctor for proper diagnosis."},
	{"you have diabetes", "Please get a blood sugar test at your nearest PHC."},
	{"you have tuberculosis", "Please visit DOTS center for free TB test."},
	{"you have hiv", "Please visit PHC for confidential testing."},
	{"you have heart disease", "Please visit a cardiologist for proper evaluation."},
	{"you have kidney failure", "Please visit a doctor immediately for evaluation."},
	{"you are diabetic", "Please get a blood sugar test at your nearest PHC."},
}

// dosagePatterns flag concrete drug-dosage instructions.
var dosagePatterns = []string{
	"mg twice daily",
	"mg once daily",
	"mg three times",
	"inject insulin",
	"take 500mg",
	"take 250mg",
	"take 1000mg",
}

// uncertaintyTokens must appear in long clinical answers; their absence means
// the model skipped hedging language.
var uncertaintyTokens = []string{
	"consult", "doctor", "phc", "may", "could", "possible",
	"suggest", "visit", "check", "monitor", "unclear",
}

// clinicalNodes are the workflow nodes whose output must carry uncertainty
// language.
var clinicalNodes = map[string]bool{
	"risk_screen":       true,
	"eye_check":         true,
	"foot_check":        true,
	"triage_symptoms":   true,
	"analyze_scan":      true,
	"maternal_guidance": true,
}

// Validate inspects one piece of generated text before it reaches the user.
// It is pure: fixed keyword tables, no I/O, same input same output.
func Validate(text string, nodeName string) string {
	if len(strings.TrimSpace(text)) < 10 {
		return shortInputFallback
	}

	lower := strings.ToLower(text)

	for _, phrase := range overconfidentPhrases {
		if strings.Contains(lower, phrase) {
			return overconfidenceFallback
		}
	}

	var notes []string
	for _, claim := range dangerousClaims {
		if strings.Contains(lower, claim.phrase) {
			notes = append(notes, "Note: "+claim.note)
		}
	}

	for _, pattern := range dosagePatterns {
		if strings.Contains(lower, pattern) {
			notes = append(notes, dosageNote)
			break
		}
	}

	if clinicalNodes[nodeName] && len(text) > 100 {
		hedged := false
		for _, token := range uncertaintyTokens {
			if strings.Contains(lower, token) {
				hedged = true
				break
			}
		}
		if !hedged {
			notes = append(notes, uncertaintyNote)
		}
	}

	if len(notes) > 0 {
		return text + "\n\n" + strings.Join(notes, "\n")
	}
	return text
}
