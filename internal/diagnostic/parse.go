package diagnostic

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedResponse means the model returned text that could not be read
// as a diagnostic payload even after salvage. Callers fall back per call site.
var ErrMalformedResponse = errors.New("malformed diagnostic response")

// payloadSchema is the minimal shape a diagnostic payload must satisfy.
// Anything looser is treated the same as unparseable text.
const payloadSchema = `{
	"type": "object",
	"properties": {
		"differential_diagnoses": {"type": "array"},
		"next_questions": {"type": "array"},
		"urgency": {"type": "string", "enum": ["LOW", "MEDIUM", "HIGH", "CRITICAL"]}
	},
	"required": ["differential_diagnoses", "urgency"]
}`

var compiledSchema = jsonschema.MustCompileString("diagnostic_payload.json", payloadSchema)

// Greedy: first '{' through last '}', so nested objects survive the salvage.
var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)

// parseState reads a JSON-shaped model response into a State using the
// two-tier strategy applied to every structured response in the system:
// strict parse first, then salvage the first balanced object substring,
// then hard error.
func parseState(raw string) (State, error) {
	var parsed State
	candidate := strings.TrimSpace(raw)

	if err := decodeAndValidate(candidate, &parsed); err == nil {
		return parsed, nil
	}

	block := jsonBlockPattern.FindString(candidate)
	if block == "" {
		return State{}, ErrMalformedResponse
	}
	if err := decodeAndValidate(block, &parsed); err != nil {
		return State{}, ErrMalformedResponse
	}
	return parsed, nil
}

func decodeAndValidate(text string, out *State) error {
	var generic any
	if err := json.Unmarshal([]byte(text), &generic); err != nil {
		return err
	}
	if err := compiledSchema.Validate(generic); err != nil {
		return err
	}
	return json.Unmarshal([]byte(text), out)
}
