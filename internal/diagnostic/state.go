package diagnostic

// Diagnosis is one candidate condition in the ranked differential. The
// probability comes from the model and is informational only: values are
// recorded as returned and are not normalized to sum to 100.
type Diagnosis struct {
	Condition           string   `json:"condition"`
	Probability         int      `json:"probability"`
	Reasoning           string   `json:"reasoning"`
	RedFlags            []string `json:"red_flags"`
	TypicalPresentation string   `json:"typical_presentation"`
}

// Question is a follow-up the physician role should ask next, carried in the
// three languages the assistant serves.
type Question struct {
	QuestionEnglish string   `json:"question_english"`
	QuestionTelugu  string   `json:"question_telugu"`
	QuestionHindi   string   `json:"question_hindi"`
	Purpose         string   `json:"purpose"`
	ExpectedAnswers []string `json:"expected_answers"`
}

// Turn is one entry in the append-only conversation history.
type Turn struct {
	Role    string `json:"role"` // "patient" or "physician"
	Message string `json:"message"`
}

// State is a continuable diagnostic conversation. It outlives the workflow
// run that created it and is owned by the session store.
type State struct {
	SessionID             string      `json:"session_id"`
	DifferentialDiagnoses []Diagnosis `json:"differential_diagnoses"`
	NextQuestions         []Question  `json:"next_questions"`
	Urgency               string      `json:"urgency"` // LOW / MEDIUM / HIGH / CRITICAL
	Reasoning             string      `json:"reasoning,omitempty"`
	RecommendedTests      []string    `json:"recommended_tests,omitempty"`
	ImmediateActions      []string    `json:"immediate_actions,omitempty"`
	ConversationHistory   []Turn      `json:"conversation_history"`
	Iteration             int         `json:"iteration"`
	DiagnosisClear        bool        `json:"diagnosis_clear,omitempty"`
	FinalDiagnosis        string      `json:"final_diagnosis,omitempty"`
	Confidence            int         `json:"confidence,omitempty"`
	TreatmentPlan         string      `json:"treatment_plan,omitempty"`
	Error                 string      `json:"error,omitempty"`
}

// PatientContext seeds a new conversation.
type PatientContext struct {
	Age            int
	Gender         string
	Pregnant       bool
	MedicalHistory string
}
