package audit

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Result carries the audited payload plus everything a caller needs to decide
// how much to trust it. ValidatedData is never nil: on irrecoverable input the
// original payload comes back with repairs applied and a low-confidence
// disclaimer attached.
type Result struct {
	ValidationPassed   bool           `json:"validation_passed"`
	IssuesFound        []string       `json:"issues_found"`
	CorrectionsApplied []string       `json:"corrections_applied"`
	ConfidenceScore    float64        `json:"confidence_score"`
	ConfidenceLevel    string         `json:"confidence_level"`
	Disclaimer         string         `json:"disclaimer"`
	ValidatedData      map[string]any `json:"validated_data"`
}

const (
	disclaimerLow = "Low confidence analysis. Please verify all information " +
		"with a healthcare professional."
	disclaimerMedium = "This is AI-assisted analysis. Please confirm important " +
		"details with your doctor."
	disclaimerHigh = "This is AI-assisted analysis. Always consult healthcare " +
		"professionals for medical decisions."
)

// Single overconfident words, distinct from the phrase table in the safety
// validator: extractions are scanned word-wise so repairs can substitute
// in place.
var overconfidentWords = []string{
	"definitely", "100%", "guaranteed", "certainly", "absolutely",
	"without doubt", "for sure", "no question", "undoubtedly",
}

var billFields = []string{"hospital_name", "bill_number", "bill_date", "items", "total"}
var policyFields = []string{"policy_number", "insurance_company", "sum_insured"}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`), // DD/MM/YYYY
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`), // YYYY-MM-DD
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}`), // DD-MM-YYYY
}

// Audit runs the five-stage validation pipeline over one structured
// extraction. Confidence starts at 1.0 and is only ever multiplied downward;
// every stage records its findings independently of the others.
func Audit(data map[string]any) Result {
	res := Result{
		ValidationPassed: true,
		ConfidenceScore:  1.0,
	}
	if data == nil {
		data = map[string]any{}
	}

	// Stage 1: structure.
	if issues := checkStructure(data); len(issues) > 0 {
		res.ValidationPassed = false
		res.IssuesFound = append(res.IssuesFound, issues...)
		res.ConfidenceScore *= 0.5
		data = repairStructure(data)
		res.CorrectionsApplied = append(res.CorrectionsApplied, "structural_repair")
	}

	// Stage 2: hallucination.
	if issues := detectHallucination(data); len(issues) > 0 {
		res.ValidationPassed = false
		res.IssuesFound = append(res.IssuesFound, issues...)
		res.ConfidenceScore *= 0.7
		data = repairHallucination(data)
		res.CorrectionsApplied = append(res.CorrectionsApplied, "hallucination_repair")
	}

	// Stage 3: completeness. Multiplies by the fraction present rather than a
	// fixed penalty.
	score, missing := completeness(data)
	if score < 0.7 {
		res.IssuesFound = append(res.IssuesFound,
			fmt.Sprintf("Incomplete data: %s", strings.Join(missing, ", ")))
		res.ConfidenceScore *= score
	}

	// Stage 4: consistency. No repair.
	if issues := checkConsistency(data); len(issues) > 0 {
		res.IssuesFound = append(res.IssuesFound, issues...)
		res.ConfidenceScore *= 0.8
	}

	// Stage 5: disclaimer, always attached.
	res.ConfidenceScore = math.Round(res.ConfidenceScore*100) / 100
	switch {
	case res.ConfidenceScore < 0.5:
		res.ConfidenceLevel = "low"
		res.Disclaimer = disclaimerLow
	case res.ConfidenceScore < 0.7:
		res.ConfidenceLevel = "medium"
		res.Disclaimer = disclaimerMedium
	default:
		res.ConfidenceLevel = "high"
		res.Disclaimer = disclaimerHigh
	}

	res.ValidatedData = data
	return res
}

func isBill(data map[string]any) bool {
	_, ok := data["items"]
	return ok
}

func checkStructure(data map[string]any) []string {
	var issues []string
	if isBill(data) {
		for _, field := range []string{"items", "total"} {
			if v, ok := data[field]; !ok || v == nil {
				issues = append(issues, "Missing required field: "+field)
			}
		}
		if _, ok := data["items"].([]any); data["items"] != nil && !ok {
			issues = append(issues, "'items' field is not a list")
		}
		if items, ok := data["items"].([]any); ok && len(items) == 0 {
			issues = append(issues, "No items extracted")
		}
	}
	return issues
}

func repairStructure(data map[string]any) map[string]any {
	if isBill(data) {
		if _, ok := data["items"].([]any); !ok {
			data["items"] = []any{}
		}
		if v, ok := data["total"]; !ok || v == nil {
			data["total"] = itemsTotal(data)
		}
	}
	return data
}

func detectHallucination(data map[string]any) []string {
	var issues []string
	flat := strings.ToLower(fmt.Sprintf("%v", data))
	for _, word := range overconfidentWords {
		if strings.Contains(flat, word) {
			issues = append(issues, fmt.Sprintf("Overconfident language detected: '%s'", word))
		}
	}

	for _, item := range billItems(data) {
		price, ok := toFloat(item["total_price"])
		if !ok {
			continue
		}
		if price > 1000000 {
			issues = append(issues, fmt.Sprintf("Unrealistic price detected: %v", price))
		}
		if price < 0 {
			issues = append(issues, fmt.Sprintf("Negative price detected: %v", price))
		}
	}

	if isBill(data) {
		if declared, ok := toFloat(data["total"]); ok {
			sum := itemsTotal(data)
			if math.Abs(sum-declared) > declared*0.2 {
				issues = append(issues, fmt.Sprintf(
					"Total mismatch: items sum to %v but total is %v", sum, declared))
			}
		}
	}
	return issues
}

// repairHallucination rewrites overconfident words to "likely" in every
// top-level string field, keeping capitalization of the first letter.
func repairHallucination(data map[string]any) map[string]any {
	for key, value := range data {
		text, ok := value.(string)
		if !ok {
			continue
		}
		for _, word := range overconfidentWords {
			text = strings.ReplaceAll(text, word, "likely")
			text = strings.ReplaceAll(text, capitalize(word), "Likely")
		}
		data[key] = text
	}
	return data
}

func completeness(data map[string]any) (float64, []string) {
	var expected []string
	switch {
	case isBill(data):
		expected = billFields
	case hasKey(data, "policy_number"):
		expected = policyFields
	default:
		if len(data) == 0 {
			return 0, nil
		}
		present := 0
		for _, v := range data {
			if fieldPresent(v) {
				present++
			}
		}
		return float64(present) / float64(len(data)), nil
	}

	present := 0
	var missing []string
	for _, field := range expected {
		if v, ok := data[field]; ok && fieldPresent(v) {
			present++
		} else {
			missing = append(missing, field)
		}
	}
	return float64(present) / float64(len(expected)), missing
}

func checkConsistency(data map[string]any) []string {
	var issues []string

	if raw, ok := data["bill_date"]; ok {
		date := fmt.Sprintf("%v", raw)
		if date != "" && date != "Not available" && !dateRecognized(date) {
			issues = append(issues, "Invalid date format: "+date)
		}
	}

	for idx, item := range billItems(data) {
		quantity, qok := toFloat(item["quantity"])
		if !qok {
			quantity = 1
		}
		unit, _ := toFloat(item["unit_price"])
		total, _ := toFloat(item["total_price"])
		if math.Abs(total-quantity*unit) > 1 {
			issues = append(issues, fmt.Sprintf(
				"Item %d: price inconsistency (qty=%v, unit=%v, total=%v)",
				idx, quantity, unit, total))
		}
	}
	return issues
}

func dateRecognized(date string) bool {
	for _, pattern := range datePatterns {
		if pattern.MatchString(date) {
			return true
		}
	}
	return false
}

func billItems(data map[string]any) []map[string]any {
	raw, ok := data["items"].([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, entry := range raw {
		if item, ok := entry.(map[string]any); ok {
			out = append(out, item)
		}
	}
	return out
}

func itemsTotal(data map[string]any) float64 {
	var sum float64
	for _, item := range billItems(data) {
		if price, ok := toFloat(item["total_price"]); ok {
			sum += price
		}
	}
	return sum
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func hasKey(data map[string]any, key string) bool {
	_, ok := data[key]
	return ok
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

func fieldPresent(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return value != "" && value != "Not available"
	case []any:
		return len(value) > 0
	}
	return true
}
