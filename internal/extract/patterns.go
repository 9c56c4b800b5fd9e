package extract

import "regexp"

// Field names used in the pattern table, logs and metrics.
const (
	FieldClaimID   = "claim_id"
	FieldClaimant  = "claimant_name"
	FieldClaimType = "claim_type"
	FieldVillage   = "village"
	FieldArea      = "area"
)

// acreToHectare converts acres to hectares.
const acreToHectare = 0.4047

// Rule is one entry of the field pattern table. Rules of a field are tried in
// order and the first accepted match wins; rules are never combined.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp

	// Upper selects the uppercased text; otherwise the original casing is matched.
	Upper bool
}

// ClaimIDRules locate the claim identifier.
var ClaimIDRules = []Rule{
	{Name: "state-district-serial", Pattern: regexp.MustCompile(`\b([A-Z]{2}-[A-Z]{3}-\d{3}-\d{4})\b`), Upper: true},
	{Name: "state-year-serial", Pattern: regexp.MustCompile(`\b([A-Z]{2}/\d{4}/\d+)\b`), Upper: true},
	{Name: "labeled", Pattern: regexp.MustCompile(`\bCLAIM\b\s*(?:(?:ID|NO|NUMBER)\.?)?\s*:?\s*([A-Z0-9\-/]*\d[A-Z0-9\-/]*)\b`), Upper: true},
}

// ClaimantRules locate the claimant name. The unlabeled rule additionally
// requires a claim keyword later in the text (see nameKeywords).
var ClaimantRules = []Rule{
	{Name: "labeled", Pattern: regexp.MustCompile(`\b(?i:NAME|CLAIMANT)\s*:?\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\b`)},
	{Name: "two-words", Pattern: regexp.MustCompile(`\b([A-Z][a-z]+\s+[A-Z][a-z]+)\b`)},
}

// VillageRules locate the village name.
var VillageRules = []Rule{
	{Name: "labeled", Pattern: regexp.MustCompile(`\b(?i:VILLAGE|GRAM)\s*:?\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]*)*)\b`)},
	{Name: "suffixed", Pattern: regexp.MustCompile(`\b([A-Z][a-z]+)\s+(?i:VILLAGE)\b`)},
}

// AreaRules locate the claimed area. The first rule captures the unit in group 2.
var AreaRules = []Rule{
	{Name: "with-unit", Pattern: regexp.MustCompile(`\b(\d+\.?\d*)\s*(HECTARES?|HA|ACRES?)\b`), Upper: true},
	{Name: "labeled", Pattern: regexp.MustCompile(`\bAREA\s*:?\s*(\d+\.?\d*)\b`), Upper: true},
}

var (
	// nameKeywords must follow an unlabeled name candidate.
	nameKeywords = []string{"CLAIM", "FOREST", "RIGHT"}

	// nameReject marks a candidate that swallowed a form label.
	nameReject = regexp.MustCompile(`\b(?:FOREST|RIGHTS|CLAIM|VILLAGE)\b`)

	// placeReject marks model locations that are larger than a village.
	placeReject = regexp.MustCompile(`\b(?:INDIA|STATE|DISTRICT|COUNTRY)\b`)

	ifrToken = regexp.MustCompile(`\bIFR\b`)
	cfrToken = regexp.MustCompile(`\bCFR\b`)
)

// labelWords are form field labels. A name or village capture ends at the
// first of them, so "Ram Kumar Gram Panchayat: ..." yields "Ram Kumar".
var labelWords = map[string]bool{
	"VILLAGE": true, "GRAM": true, "PANCHAYAT": true, "TEHSIL": true,
	"TALUKA": true, "BLOCK": true, "DISTRICT": true, "STATE": true,
	"TYPE": true, "AREA": true, "NAME": true, "CLAIMANT": true,
	"CLAIM": true, "SURVEY": true, "KHASRA": true, "FATHER": true,
	"HUSBAND": true, "ADDRESS": true, "DATE": true,
}

// minVillageLen is the shortest accepted village name, in runes.
const minVillageLen = 3
