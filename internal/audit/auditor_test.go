package audit

import (
	"strings"
	"testing"
)

func cleanBill() map[string]any {
	return map[string]any{
		"hospital_name": "Area Hospital Kurnool",
		"bill_number":   "KNL-2024-1187",
		"bill_date":     "12/03/2024",
		"items": []any{
			map[string]any{"name": "CBC test", "quantity": float64(1), "unit_price": float64(300), "total_price": float64(300)},
			map[string]any{"name": "Metformin", "quantity": float64(2), "unit_price": float64(50), "total_price": float64(100)},
		},
		"total": float64(400),
	}
}

func TestAuditCleanBillHighConfidence(t *testing.T) {
	res := Audit(cleanBill())
	if !res.ValidationPassed {
		t.Fatalf("clean bill should pass: %v", res.IssuesFound)
	}
	if res.ConfidenceScore != 1.0 {
		t.Fatalf("expected full confidence, got %v", res.ConfidenceScore)
	}
	if res.ConfidenceLevel != "high" {
		t.Fatalf("expected high level, got %s", res.ConfidenceLevel)
	}
	if res.Disclaimer == "" {
		t.Fatalf("disclaimer must always be attached")
	}
}

func TestAuditConfidenceNeverIncreases(t *testing.T) {
	bill := cleanBill()
	bill["notes"] = "This is definitely the final amount"
	res := Audit(bill)
	if res.ConfidenceScore > 1.0 {
		t.Fatalf("confidence exceeded 1.0: %v", res.ConfidenceScore)
	}
	if res.ConfidenceScore >= 1.0 {
		t.Fatalf("stage recorded an issue but confidence did not drop")
	}
}

func TestAuditItemPriceInconsistency(t *testing.T) {
	bill := cleanBill()
	bill["items"] = []any{
		map[string]any{"quantity": float64(2), "unit_price": float64(100), "total_price": float64(250)},
	}
	bill["total"] = float64(250)
	res := Audit(bill)

	found := false
	for _, issue := range res.IssuesFound {
		if strings.Contains(issue, "price inconsistency") {
			found = true
		}
	}
	if !found {
		t.Fatalf("qty=2 unit=100 total=250 must be flagged: %v", res.IssuesFound)
	}
}

func TestAuditTotalMismatchBeyondTolerance(t *testing.T) {
	bill := cleanBill()
	bill["items"] = []any{
		map[string]any{"quantity": float64(1), "unit_price": float64(900), "total_price": float64(900)},
	}
	bill["total"] = float64(1200) // tolerance 240, diff 300
	res := Audit(bill)

	found := false
	for _, issue := range res.IssuesFound {
		if strings.Contains(issue, "Total mismatch") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected total mismatch flag: %v", res.IssuesFound)
	}
}

func TestAuditTotalMismatchWithinTolerance(t *testing.T) {
	bill := cleanBill()
	bill["items"] = []any{
		map[string]any{"quantity": float64(1), "unit_price": float64(1000), "total_price": float64(1000)},
	}
	bill["total"] = float64(1150) // tolerance 230, diff 150
	res := Audit(bill)
	for _, issue := range res.IssuesFound {
		if strings.Contains(issue, "Total mismatch") {
			t.Fatalf("diff within 20%% tolerance must not be flagged")
		}
	}
}

func TestAuditStructuralRepairRecomputesTotal(t *testing.T) {
	bill := map[string]any{
		"hospital_name": "PHC Anantapur",
		"bill_number":   "ATP-55",
		"bill_date":     "2024-06-01",
		"items": []any{
			map[string]any{"quantity": float64(1), "unit_price": float64(150), "total_price": float64(150)},
		},
	}
	res := Audit(bill)
	if res.ValidationPassed {
		t.Fatalf("missing total must fail structural stage")
	}
	total, ok := res.ValidatedData["total"].(float64)
	if !ok || total != 150 {
		t.Fatalf("expected recomputed total 150, got %v", res.ValidatedData["total"])
	}
	if len(res.CorrectionsApplied) == 0 || res.CorrectionsApplied[0] != "structural_repair" {
		t.Fatalf("expected structural repair recorded: %v", res.CorrectionsApplied)
	}
}

func TestAuditItemsCoercedToList(t *testing.T) {
	bill := map[string]any{"items": "not a list", "total": float64(0)}
	res := Audit(bill)
	if _, ok := res.ValidatedData["items"].([]any); !ok {
		t.Fatalf("items must be coerced to a list, got %T", res.ValidatedData["items"])
	}
	if res.ValidatedData == nil {
		t.Fatalf("validated data must never be nil")
	}
}

func TestAuditHallucinationRepairPreservesCase(t *testing.T) {
	bill := cleanBill()
	bill["notes"] = "Definitely covered, and certainly payable"
	res := Audit(bill)
	notes := res.ValidatedData["notes"].(string)
	if !strings.Contains(notes, "Likely covered") {
		t.Fatalf("capitalized overconfidence not rewritten: %q", notes)
	}
	if !strings.Contains(notes, "likely payable") {
		t.Fatalf("lowercase overconfidence not rewritten: %q", notes)
	}
}

func TestAuditUnrealisticAndNegativePrices(t *testing.T) {
	bill := cleanBill()
	bill["items"] = []any{
		map[string]any{"quantity": float64(1), "unit_price": float64(2000000), "total_price": float64(2000000)},
		map[string]any{"quantity": float64(1), "unit_price": float64(-10), "total_price": float64(-10)},
	}
	bill["total"] = float64(1999990)
	res := Audit(bill)

	var unrealistic, negative bool
	for _, issue := range res.IssuesFound {
		if strings.Contains(issue, "Unrealistic price") {
			unrealistic = true
		}
		if strings.Contains(issue, "Negative price") {
			negative = true
		}
	}
	if !unrealistic || !negative {
		t.Fatalf("price bounds not enforced: %v", res.IssuesFound)
	}
}

func TestAuditPolicyCompleteness(t *testing.T) {
	policy := map[string]any{
		"policy_number":     "LIC-99881",
		"insurance_company": "",
		"sum_insured":       "Not available",
	}
	res := Audit(policy)
	// 1 of 3 fields present: structural passes, completeness drops to 1/3.
	if res.ConfidenceScore > 0.34 {
		t.Fatalf("expected completeness to dominate, got %v", res.ConfidenceScore)
	}
	if res.ConfidenceLevel != "low" {
		t.Fatalf("expected low confidence, got %s", res.ConfidenceLevel)
	}
	if res.Disclaimer != disclaimerLow {
		t.Fatalf("expected low-confidence disclaimer")
	}
}

func TestAuditInvalidDateFormat(t *testing.T) {
	bill := cleanBill()
	bill["bill_date"] = "March 12th 2024"
	res := Audit(bill)
	found := false
	for _, issue := range res.IssuesFound {
		if strings.Contains(issue, "Invalid date format") {
			found = true
		}
	}
	if !found {
		t.Fatalf("unrecognized date must be flagged: %v", res.IssuesFound)
	}
}
