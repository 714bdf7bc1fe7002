package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"arogya/internal/diagnostic"
	"arogya/internal/gateway"
	"arogya/internal/translate"
)

const diagnosticPayload = `{
	"differential_diagnoses": [
		{"condition": "Type 2 diabetes mellitus", "probability": 60,
		 "reasoning": "Osmotic symptoms", "red_flags": ["confusion"],
		 "typical_presentation": "Thirst, polyuria"}
	],
	"next_questions": [],
	"urgency": "HIGH"
}`

// fakeGateway answers by prompt keyword and counts text vs image calls.
type fakeGateway struct {
	textCalls  int
	imageCalls int
	riskText   string
	dietText   string
	imageText  string
	failText   error
	failImage  error
}

func (f *fakeGateway) Name() string  { return "fake" }
func (f *fakeGateway) Model() string { return "fake" }

func (f *fakeGateway) GenerateText(_ context.Context, prompt string, _ gateway.Options) (string, error) {
	f.textCalls++
	if f.failText != nil {
		return "", f.failText
	}
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "risk screening"):
		return f.riskText, nil
	case strings.Contains(lower, "diet advice"):
		return f.dietText, nil
	case strings.Contains(lower, "diagnostic physician"), strings.Contains(lower, "continuing a diagnostic"):
		return diagnosticPayload, nil
	case strings.Contains(lower, "diagnostic summary"):
		return "Your answers may point to high blood sugar. Please visit the PHC for a confirmatory test.", nil
	}
	return "General guidance: monitor symptoms, consult the PHC doctor if unsure.", nil
}

func (f *fakeGateway) GenerateFromImage(_ context.Context, _ []byte, _ string) (string, error) {
	f.imageCalls++
	if f.failImage != nil {
		return "", f.failImage
	}
	return f.imageText, nil
}

func defaultFake() *fakeGateway {
	return &fakeGateway{
		riskText:  "Your answers may suggest LOW risk. Monitor and visit the PHC yearly for a check.",
		dietText:  "You could eat more ragi and vegetables, and reduce white rice and sugar. Consult the PHC dietician.",
		imageText: "The image appears to show mild changes. An ophthalmologist visit may be needed, please check at the PHC.",
	}
}

func newTestEngine(gw gateway.Provider) (*Engine, *diagnostic.MemoryStore) {
	sessions := diagnostic.NewMemoryStore(time.Hour)
	agent := diagnostic.NewAgent(gw, sessions)
	return NewEngine(gw, agent, translate.Passthrough{}), sessions
}

func TestRouteAfterRiskIsTotal(t *testing.T) {
	cases := map[string]string{
		CheckRetinopathy: NodeEyeCheck,
		CheckFull:        NodeEyeCheck,
		CheckFoot:        NodeFootCheck,
		CheckDiet:        NodeDietAdvice,
		CheckGeneral:     NodeSummarize,
		CheckRisk:        NodeSummarize,
		"":               NodeSummarize,
		"made-up-value":  NodeSummarize,
	}
	for input, want := range cases {
		if got := RouteAfterRisk(input); got != want {
			t.Fatalf("RouteAfterRisk(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDietRouteVisitsOnlyRiskAndDiet(t *testing.T) {
	gw := defaultFake()
	engine, sessions := newTestEngine(gw)
	defer sessions.Close()

	resp := engine.Execute(context.Background(), Request{
		Query: "what should I eat", Lang: "en", Age: 50, CheckType: CheckDiet,
	})
	if !resp.Success {
		t.Fatalf("expected success")
	}
	if gw.textCalls != 2 {
		t.Fatalf("diet route must make exactly risk + diet calls, got %d", gw.textCalls)
	}
	if gw.imageCalls != 0 {
		t.Fatalf("diet route must never call the image model")
	}
	if resp.Severity != SeverityGreen {
		t.Fatalf("severity should default to the risk seed, got %s", resp.Severity)
	}
	if !strings.Contains(resp.Response, "**Diet Guidance:**") {
		t.Fatalf("missing diet section: %q", resp.Response)
	}
	if strings.Contains(resp.Response, "**Eye Health:**") {
		t.Fatalf("eye section must not appear on diet route")
	}
}

func TestRiskSeverityKeywordSeed(t *testing.T) {
	gw := defaultFake()
	gw.riskText = "This pattern could indicate HIGH risk. Please get a blood sugar test at the PHC."
	engine, sessions := newTestEngine(gw)
	defer sessions.Close()

	resp := engine.Execute(context.Background(), Request{Query: "very thirsty", Lang: "en", CheckType: CheckRisk})
	if resp.Severity != SeverityRed {
		t.Fatalf("high keyword must seed RED, got %s", resp.Severity)
	}
}

func TestSeverityStaysRedAcrossLaterSteps(t *testing.T) {
	gw := defaultFake()
	gw.riskText = "HIGH risk indicators present. A doctor visit is suggested soon."
	engine, sessions := newTestEngine(gw)
	defer sessions.Close()

	resp := engine.Execute(context.Background(), Request{Query: "thirst", Lang: "en", CheckType: CheckFull})
	if resp.Severity != SeverityRed {
		t.Fatalf("RED must survive later steps, got %s", resp.Severity)
	}
}

func TestEmergencyKeywordOverridesSeverity(t *testing.T) {
	gw := defaultFake()
	gw.imageText = "The image appears to show possible proliferative changes. Please visit an ophthalmologist."
	engine, sessions := newTestEngine(gw)
	defer sessions.Close()

	req := Request{Query: "eye trouble", Lang: "en", CheckType: CheckRetinopathy, ImageBytes: []byte{0xFF}}
	resp := engine.Execute(context.Background(), req)
	if resp.Severity != SeverityRed {
		t.Fatalf("proliferative keyword must force RED, got %s", resp.Severity)
	}
}

func TestImageModelSkippedWithoutPhoto(t *testing.T) {
	gw := defaultFake()
	engine, sessions := newTestEngine(gw)
	defer sessions.Close()

	resp := engine.Execute(context.Background(), Request{Query: "eye check please", Lang: "en", CheckType: CheckRetinopathy})
	if gw.imageCalls != 0 {
		t.Fatalf("image model must not run without a photo")
	}
	if !strings.Contains(resp.Response, "Eye photo not provided") {
		t.Fatalf("expected generic eye guidance: %q", resp.Response)
	}
}

func TestImageModelSkippedForMismatchedCheckType(t *testing.T) {
	gw := defaultFake()
	engine, sessions := newTestEngine(gw)
	defer sessions.Close()

	// A photo is present but the check type does not ask for foot analysis.
	state := State{Query: "foot pain", Lang: "en", CheckType: CheckDiet, ImageBytes: []byte{0x01}, Severity: SeverityGreen}
	res := engine.footCheck(context.Background(), state)
	if gw.imageCalls != 0 {
		t.Fatalf("foot image must be ignored for check type %q", CheckDiet)
	}
	if res.text != footNoPhoto {
		t.Fatalf("expected generic foot guidance, got %q", res.text)
	}
}

func TestGatewayFailureDegradesWithoutAborting(t *testing.T) {
	gw := defaultFake()
	gw.failText = gateway.ErrUnavailable
	engine, sessions := newTestEngine(gw)
	defer sessions.Close()

	resp := engine.Execute(context.Background(), Request{Query: "thirst", Lang: "en", CheckType: CheckDiet})
	if !resp.Success {
		t.Fatalf("node failures must not fail the run")
	}
	if !strings.Contains(resp.Response, riskUnavailable) {
		t.Fatalf("expected risk fallback text: %q", resp.Response)
	}
	if !strings.Contains(resp.Response, dietUnavailable) {
		t.Fatalf("expected diet fallback text: %q", resp.Response)
	}
	if resp.Severity != SeverityUnknown {
		t.Fatalf("failed risk screen must report UNKNOWN, got %s", resp.Severity)
	}
	if !strings.Contains(resp.Response, "AI guidance only") {
		t.Fatalf("disclaimer must still be attached")
	}
}

func TestDiagnosticModeStartsSessionAndSummarizes(t *testing.T) {
	gw := defaultFake()
	engine, sessions := newTestEngine(gw)
	defer sessions.Close()

	resp := engine.Execute(context.Background(), Request{
		Query: "fever and weight loss", Lang: "en", Age: 40,
		CheckType: CheckFull, DiagnosticMode: true,
	})
	if resp.AMIESessionID == "" {
		t.Fatalf("diagnostic mode must surface a session id")
	}
	if resp.AMIEState == nil {
		t.Fatalf("diagnostic mode must surface session state")
	}
	if resp.Severity != SeverityRed {
		t.Fatalf("HIGH urgency must map to RED, got %s", resp.Severity)
	}
	if !strings.Contains(resp.Response, "high blood sugar") {
		t.Fatalf("expected diagnostic summary, got %q", resp.Response)
	}
}

func TestContinuationRunsBeforeGraph(t *testing.T) {
	gw := defaultFake()
	engine, sessions := newTestEngine(gw)
	defer sessions.Close()

	first := engine.Execute(context.Background(), Request{
		Query: "fever", Lang: "en", Age: 40, CheckType: CheckFull, DiagnosticMode: true,
	})

	second := engine.Execute(context.Background(), Request{
		Query: "fever", Lang: "en", Age: 40, CheckType: CheckFull, DiagnosticMode: true,
		AMIESessionID: first.AMIESessionID,
		AMIEAnswers:   map[string]string{"How long?": "two weeks"},
	})
	if second.AMIEState == nil {
		t.Fatalf("continuation must carry session state")
	}
	if second.AMIEState.Iteration != 2 {
		t.Fatalf("continuation must increment iteration, got %d", second.AMIEState.Iteration)
	}
	if second.AMIESessionID != first.AMIESessionID {
		t.Fatalf("continuation must not mint a new session")
	}
}

func TestEscalateIsMonotonic(t *testing.T) {
	if got := escalate(SeverityRed, SeverityGreen); got != SeverityRed {
		t.Fatalf("RED downgraded to %s", got)
	}
	if got := escalate(SeverityGreen, SeverityYellow); got != SeverityYellow {
		t.Fatalf("expected YELLOW, got %s", got)
	}
	if got := escalate(SeverityYellow, SeverityGreen); got != SeverityYellow {
		t.Fatalf("YELLOW downgraded to %s", got)
	}
}
