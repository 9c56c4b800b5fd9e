package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/fra-claim-ocr/internal/metrics"
)

// text holds the two views of a document the rules match against.
type text struct {
	orig  string // whitespace-collapsed, original casing
	upper string
}

func newText(raw string) text {
	orig := strings.Join(strings.Fields(raw), " ")
	return text{orig: orig, upper: strings.ToUpper(orig)}
}

func (t text) view(r Rule) string {
	if r.Upper {
		return t.upper
	}
	return t.orig
}

// fieldStep fills one field of e from t.
type fieldStep struct {
	field string
	fn    func(t text, e *Entities)
}

// RegexExtractor extracts entities with the field pattern table. Its output
// depends only on the input text.
type RegexExtractor struct {
	steps  []fieldStep
	logger *zap.Logger
}

// NewRegexExtractor creates the pattern-table extractor.
func NewRegexExtractor(logger *zap.Logger) *RegexExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegexExtractor{
		steps: []fieldStep{
			{FieldClaimID, extractClaimID},
			{FieldClaimant, extractClaimant},
			{FieldClaimType, extractClaimType},
			{FieldVillage, extractVillage},
			{FieldArea, extractArea},
		},
		logger: logger,
	}
}

// Extract implements Extractor.
func (x *RegexExtractor) Extract(_ context.Context, raw string) Entities {
	return x.ExtractText(raw)
}

// ExtractText runs every field rule over raw and scores the result:
// 0.4 plus 0.15 per populated field, capped at 0.9. A fault in any field
// leaves the fields found so far and sets the confidence to 0.1.
func (x *RegexExtractor) ExtractText(raw string) (e Entities) {
	var current string
	defer func() {
		if r := recover(); r != nil {
			x.logger.Error("regex extraction fault",
				zap.String("field", current),
				zap.Error(fmt.Errorf("panic: %v", r)),
			)
			metrics.DegradedTotal.WithLabelValues("regex", "fault").Inc()
			e.Confidence = FaultConfidence
		}
	}()

	t := newText(raw)
	for _, s := range x.steps {
		current = s.field
		s.fn(t, &e)
	}

	e.Confidence = round2(min(BaseConfidence+FieldConfidence*float64(e.found()), MaxRegexConfidence))
	return e
}

func extractClaimID(t text, e *Entities) {
	for _, r := range ClaimIDRules {
		if m := r.Pattern.FindStringSubmatch(t.view(r)); m != nil {
			e.ClaimID = m[1]
			return
		}
	}
}

func extractClaimant(t text, e *Entities) {
	for i, r := range ClaimantRules {
		s := t.view(r)
		for _, loc := range r.Pattern.FindAllStringSubmatchIndex(s, -1) {
			name := capture(s, loc)
			if len(strings.Fields(name)) < 2 || nameReject.MatchString(strings.ToUpper(name)) {
				continue
			}
			// Unlabeled candidates must precede a claim keyword.
			if i > 0 && !hasKeyword(strings.ToUpper(s[loc[1]:]), nameKeywords) {
				continue
			}
			e.ClaimantName = name
			return
		}
	}
}

// capture returns group 1 of a match, cut at the first label word. A match
// that still runs into an unknown "Label:" loses that last word.
func capture(s string, loc []int) string {
	words := strings.Fields(s[loc[2]:loc[3]])
	for i, w := range words {
		if labelWords[strings.ToUpper(w)] {
			return strings.Join(words[:i], " ")
		}
	}
	if loc[3] == loc[1] && strings.HasPrefix(strings.TrimLeft(s[loc[1]:], " "), ":") && len(words) > 0 {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func hasKeyword(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func extractClaimType(t text, e *Entities) {
	u := t.upper
	switch {
	case strings.Contains(u, "INDIVIDUAL FOREST RIGHT") || ifrToken.MatchString(u):
		e.ClaimType = ClaimTypeIFR
	case strings.Contains(u, "COMMUNITY FOREST RIGHT") || cfrToken.MatchString(u):
		e.ClaimType = ClaimTypeCFR
	case strings.Contains(u, "COMMUNITY RIGHT") || strings.Contains(u, " CR "):
		e.ClaimType = ClaimTypeCR
	}
}

func extractVillage(t text, e *Entities) {
	for _, r := range VillageRules {
		s := t.view(r)
		for _, loc := range r.Pattern.FindAllStringSubmatchIndex(s, -1) {
			if v := capture(s, loc); len([]rune(v)) >= minVillageLen {
				e.Village = v
				return
			}
		}
	}
}

func extractArea(t text, e *Entities) {
	for _, r := range AreaRules {
		m := r.Pattern.FindStringSubmatch(t.view(r))
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if len(m) > 2 && strings.HasPrefix(m[2], "ACRE") {
			v *= acreToHectare
		}
		v = round2(v)
		e.Area = &v
		return
	}
}
