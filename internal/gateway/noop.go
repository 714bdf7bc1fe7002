package gateway

import (
	"context"
	"strings"
)

// Noop is a deterministic offline provider for dev mode and tests. It keys
// canned guidance off a few prompt keywords so workflow runs stay realistic
// without a model endpoint.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Name() string  { return "noop" }
func (n *Noop) Model() string { return "noop" }

func (n *Noop) GenerateText(_ context.Context, prompt string, _ Options) (string, error) {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "risk screening"):
		return "Your symptoms may suggest a MEDIUM diabetes risk. " +
			"Please get a blood sugar test at your nearest PHC to check. " +
			"NPCDCS screening camps offer this for free.", nil
	case strings.Contains(lower, "diet advice"):
		return "You could eat more ragi, vegetables and bitter gourd, and " +
			"reduce white rice, sugar and fried food. A doctor or dietician " +
			"at the PHC can suggest a fuller plan.", nil
	case strings.Contains(lower, "differential diagnosis"),
		strings.Contains(lower, "diagnostic conversation"):
		return `{"differential_diagnoses":[{"condition":"Type 2 diabetes mellitus","probability":55,"reasoning":"Classic osmotic symptoms","red_flags":["confusion","vomiting"],"typical_presentation":"Thirst, frequent urination, fatigue"}],"next_questions":[{"question_english":"How long have you had these symptoms?","question_telugu":"ఈ లక్షణాలు ఎంతకాలంగా ఉన్నాయి?","question_hindi":"ये लक्षण कब से हैं?","purpose":"Establish onset","expected_answers":["days","weeks","months"]}],"urgency":"MEDIUM","reasoning":"Pattern consistent with hyperglycemia"}`, nil
	case strings.Contains(lower, "diagnostic summary"):
		return "Your answers may point to high blood sugar. A blood test at " +
			"the PHC can confirm this. Please visit within the next few days, " +
			"and sooner if you feel drowsy or confused.", nil
	}
	return "Please monitor your symptoms and visit the PHC if they continue. " +
		"A doctor there can examine you properly.", nil
}

func (n *Noop) GenerateFromImage(_ context.Context, _ []byte, prompt string) (string, error) {
	lower := strings.ToLower(prompt)
	if strings.Contains(lower, "retinal") || strings.Contains(lower, "retinopathy") {
		return "The image appears to show mild changes that could indicate early " +
			"retinopathy. An ophthalmologist visit within a month is suggested.", nil
	}
	return "The image could not be assessed clearly. Please visit the PHC to be safe.", nil
}
