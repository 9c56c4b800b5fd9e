package extract

import (
	"context"
	"math"
	"strings"
	"testing"
)

const sampleForm = `FOREST RIGHTS CLAIM FORM
Claim ID: CG-KDG-001-2024
Name: Ram Kumar
Village: Kondagaon
Area: 2.5 Hectare
Type: Individual Forest Right`

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func extractText(t *testing.T, text string) Entities {
	t.Helper()
	return NewRegexExtractor(nil).ExtractText(text)
}

func TestRegex_SampleForm(t *testing.T) {
	e := extractText(t, sampleForm)

	if e.ClaimID != "CG-KDG-001-2024" {
		t.Errorf("ClaimID: got %q", e.ClaimID)
	}
	if e.ClaimantName != "Ram Kumar" {
		t.Errorf("ClaimantName: got %q", e.ClaimantName)
	}
	if e.Village != "Kondagaon" {
		t.Errorf("Village: got %q", e.Village)
	}
	if e.Area == nil || !almostEqual(*e.Area, 2.5) {
		t.Errorf("Area: got %v, want 2.5", e.Area)
	}
	if e.ClaimType != ClaimTypeIFR {
		t.Errorf("ClaimType: got %q, want IFR", e.ClaimType)
	}
	if !almostEqual(e.Confidence, MaxRegexConfidence) {
		t.Errorf("Confidence: got %v, want 0.9", e.Confidence)
	}
}

func TestRegex_ClaimID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled dashed", "CLAIM ID: CG-KDG-001-2024", "CG-KDG-001-2024"},
		{"lower case source", "claim id: cg-kdg-001-2024", "CG-KDG-001-2024"},
		{"slashed", "Ref CG/2024/17 dated", "CG/2024/17"},
		{"dashed wins over slashed", "CG/2024/17 and OD-KPT-123-2023", "OD-KPT-123-2023"},
		{"labeled number", "Claim No: 4521", "4521"},
		{"labeled number with period", "Claim No. 4521", "4521"},
		{"labeled id with period", "CLAIM ID.: FRA-9", "FRA-9"},
		{"labeled with colon spacing", "CLAIM NUMBER : FRA-77", "FRA-77"},
		{"claimant is not a claim label", "Claimant: Ram Kumar", ""},
		{"label without digits", "FOREST RIGHTS CLAIM FORM", ""},
		{"none", "no identifier here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(t, tt.text).ClaimID; got != tt.want {
				t.Errorf("ClaimID: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegex_Claimant(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled", "Name: Sita Devi Markam", "Sita Devi Markam"},
		{"claimant label", "CLAIMANT Sita Devi", "Sita Devi"},
		{"label line runs into next label", "Name: Ram Kumar Village: Kondagaon", "Ram Kumar"},
		{"runs into two word label", "Name: Ram Kumar Gram Panchayat: Dhanora", "Ram Kumar"},
		{"name of claimant label", "Name of Claimant: Ram Kumar Village: Kondagaon", "Ram Kumar"},
		{"single word rejected", "Name: Ram", ""},
		{"unlabeled before keyword", "Ram Kumar has filed a CLAIM", "Ram Kumar"},
		{"unlabeled keyword any case", "Ram Kumar files for forest rights", "Ram Kumar"},
		{"unlabeled without keyword", "Ram Kumar lives here", ""},
		{"unlabeled keyword only before", "CLAIM by Ram Kumar", ""},
		{"village word rejected", "Name: Kondagaon Village", ""},
		{"forest word rejected", "Name: Forest Rights", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(t, tt.text).ClaimantName; got != tt.want {
				t.Errorf("ClaimantName: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegex_NeverAcceptsVillageAsName(t *testing.T) {
	texts := []string{
		"Kondagaon Village FOREST RIGHTS CLAIM",
		"Name: Village Office CLAIM",
		"Gram Panchayat Village Sabha FOREST",
		"VILLAGE: Kondagaon CLAIM",
	}
	for _, text := range texts {
		name := extractText(t, text).ClaimantName
		if nameReject.MatchString(strings.ToUpper(name)) {
			t.Errorf("text %q produced name %q", text, name)
		}
	}
}

func TestRegex_ClaimType(t *testing.T) {
	tests := []struct {
		text string
		want ClaimType
	}{
		{"Individual Forest Right claim", ClaimTypeIFR},
		{"Type: IFR", ClaimTypeIFR},
		{"Community Forest Right", ClaimTypeCFR},
		{"type cfr", ClaimTypeCFR},
		{"Community Right over grazing", ClaimTypeCR},
		{"type CR only", ClaimTypeCR},
		{"IFR and CFR both", ClaimTypeIFR},
		{"CRAFT and SCRIPT", ""},
		{"IFRS standard", ""},
		{"nothing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := extractText(t, tt.text).ClaimType; got != tt.want {
				t.Errorf("ClaimType: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegex_Village(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labeled", "Village: Kondagaon, Bastar", "Kondagaon"},
		{"gram label", "GRAM Dhanora", "Dhanora"},
		{"multi word", "Village: Bada Dongar, Bastar", "Bada Dongar"},
		{"runs into next label", "Village: Kondagaon District: Bastar", "Kondagaon"},
		{"runs into two word label", "Village: Kondagaon Gram Panchayat: Dhanora", "Kondagaon"},
		{"gram panchayat is not a village label", "Gram Panchayat: Dhanora Village: Kondagaon", "Kondagaon"},
		{"suffixed", "resident of Dhanora Village in Bastar", "Dhanora"},
		{"short rejected", "Village: Ab, Bastar", ""},
		{"short labeled falls through", "Village: Ab, near Dhanora Village", "Dhanora"},
		{"none", "no place", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(t, tt.text).Village; got != tt.want {
				t.Errorf("Village: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegex_GramPanchayatForm(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		village string
	}{
		{"panchayat after village", "Name of Claimant: Ram Kumar\nVillage: Kondagaon\nGram Panchayat: Dhanora\nIFR", "Kondagaon"},
		{"panchayat before village", "Name: Ram Kumar\nGram Panchayat: Dhanora\nVillage: Kondagaon\nIFR", "Kondagaon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := extractText(t, tt.text)
			if e.ClaimantName != "Ram Kumar" {
				t.Errorf("ClaimantName: got %q, want %q", e.ClaimantName, "Ram Kumar")
			}
			if e.Village != tt.village {
				t.Errorf("Village: got %q, want %q", e.Village, tt.village)
			}
			if e.ClaimType != ClaimTypeIFR {
				t.Errorf("ClaimType: got %q, want IFR", e.ClaimType)
			}
		})
	}
}

func TestRegex_Area(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		ok   bool
	}{
		{"acre converted", "Area 5 ACRE", 2.02, true},
		{"acres plural", "3 acres of land", 1.21, true},
		{"hectare", "2.5 HECTARE", 2.5, true},
		{"hectares plural", "1.234 hectares", 1.23, true},
		{"ha", "10 HA", 10, true},
		{"labeled no unit", "AREA: 4.75", 4.75, true},
		{"unit wins over label", "Area: 7 total 5 ACRE", 2.02, true},
		{"none", "no measurement", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := extractText(t, tt.text).Area
			if !tt.ok {
				if a != nil {
					t.Errorf("Area: got %v, want nil", *a)
				}
				return
			}
			if a == nil {
				t.Fatalf("Area: got nil, want %v", tt.want)
			}
			if !almostEqual(*a, tt.want) {
				t.Errorf("Area: got %v, want %v", *a, tt.want)
			}
		})
	}
}

func TestRegex_Confidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"nothing", "illegible scan", 0.4},
		{"id only", "CG-KDG-001-2024", 0.55},
		{"id and type", "CG-KDG-001-2024 IFR", 0.7},
		{"everything capped", sampleForm, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(t, tt.text).Confidence; !almostEqual(got, tt.want) {
				t.Errorf("Confidence: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegex_Deterministic(t *testing.T) {
	x := NewRegexExtractor(nil)
	first := x.Extract(context.Background(), sampleForm)
	second := x.Extract(context.Background(), sampleForm)

	if first.ClaimID != second.ClaimID || first.ClaimantName != second.ClaimantName ||
		first.Village != second.Village || first.ClaimType != second.ClaimType ||
		*first.Area != *second.Area || first.Confidence != second.Confidence {
		t.Errorf("repeated extraction differs: %+v vs %+v", first, second)
	}
}

func TestRegex_FaultKeepsFields(t *testing.T) {
	x := NewRegexExtractor(nil)
	x.steps[2].fn = func(text, *Entities) { panic("bad pattern") }

	e := x.ExtractText(sampleForm)

	if !almostEqual(e.Confidence, FaultConfidence) {
		t.Errorf("Confidence: got %v, want %v", e.Confidence, FaultConfidence)
	}
	if e.ClaimID != "CG-KDG-001-2024" || e.ClaimantName != "Ram Kumar" {
		t.Errorf("fields found before the fault were lost: %+v", e)
	}
	if e.Village != "" || e.Area != nil {
		t.Errorf("fields after the fault should be empty: %+v", e)
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{5 * acreToHectare, 2.02},
		{2.5, 2.5},
		{1.005, 1.0},
		{0.7000000000000001, 0.7},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
