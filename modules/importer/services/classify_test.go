package services

import "testing"

func TestCostCodeCategories_FirstRuleWins(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Clearing and framing":        "Site Work",
		"Framing lumber":              "Structure",
		"Exterior door":               "Structure",
		"Interior trim":               "Interior Finishes",
		"Building permit":             "Pre-Construction",
		"Water heater":                "MEP",
		"LVP flooring":                "Flooring",
		"Kitchen cabinets":            "Fixtures & Finishes",
		"Gas fireplace":               "Specialty",
		"Miscellaneous contingencies": "General",
	}
	for in, want := range cases {
		for i := 0; i < 3; i++ {
			if got := costCodeCategories.Classify(in); got != want {
				t.Fatalf("Classify(%q) = %q, want %q", in, got, want)
			}
		}
	}
}

func TestRecurringFrequencies(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Bi-Weekly": "biweekly",
		"Weekly":    "weekly",
		"Monthly":   "monthly",
		"Quarterly": "quarterly",
		"Annual":    "annually",
		"Once":      "",
	}
	for in, want := range cases {
		if got := recurringFrequencies.Classify(in); got != want {
			t.Fatalf("Classify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractProjectCode(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                                 "UNKNOWN",
		"Walnut Grove - LOT 2 (WG2)":       "WG2",
		"KA1 -- 203 Kerr Ave Remodel":      "KA1",
		"CS 1 — 2145 Cason Lane":           "CS1",
		"205 Kerr Ave - Spec":              "KA2",
		"Rockvale Rd":                      "RV1",
		"Veterans Lot 1":                   "VET1",
		"Maplewood Subdivision Phase Two":  "MAPLEWOO",
		"Walnut Grove Lot 3 -- punch list": "WG3",
	}
	for in, want := range cases {
		if got := ExtractProjectCode(in); got != want {
			t.Fatalf("ExtractProjectCode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsStructuralLabel(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"TOTAL", "TOTAL WG1", "=SUM(A1)", "~~~"} {
		if !isStructuralLabel(s) {
			t.Fatalf("isStructuralLabel(%q) = false", s)
		}
	}
	for _, s := range []string{"Total", "Framing", "PROJECT: WG1"} {
		if isStructuralLabel(s) {
			t.Fatalf("isStructuralLabel(%q) = true", s)
		}
	}
}
