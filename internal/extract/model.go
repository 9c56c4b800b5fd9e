package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ironsheep/fra-claim-ocr/internal/metrics"
	"github.com/ironsheep/fra-claim-ocr/internal/ner"
)

// Word limits for model entities.
const (
	minPersonWords = 2
	maxPlaceWords  = 3
)

// ModelExtractor augments the regex baseline with a named-entity model.
type ModelExtractor struct {
	base   *RegexExtractor
	model  ner.Recognizer
	logger *zap.Logger
}

// NewExtractor returns the extractor for rec. When rec is nil or unavailable
// the regex extractor is returned as is.
func NewExtractor(rec ner.Recognizer, logger *zap.Logger) Extractor {
	base := NewRegexExtractor(logger)
	if rec == nil || !rec.Available() {
		return base
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelExtractor{base: base, model: rec, logger: logger}
}

// Extract implements Extractor. Any model fault returns the regex baseline unchanged.
func (x *ModelExtractor) Extract(ctx context.Context, raw string) Entities {
	baseline := x.base.ExtractText(raw)
	if baseline.ClaimantName != "" && baseline.Village != "" {
		return baseline
	}

	out, err := x.augment(ctx, raw, baseline)
	if err != nil {
		x.logger.Warn("model extraction failed, using regex result",
			zap.String("model", x.model.Name()),
			zap.Error(err),
		)
		metrics.DegradedTotal.WithLabelValues("ner", "fault").Inc()
		return baseline
	}
	return out
}

func (x *ModelExtractor) augment(ctx context.Context, raw string, e Entities) (out Entities, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ents, err := x.model.Entities(ctx, raw)
	if err != nil {
		return e, err
	}

	filled := false
	if e.ClaimantName == "" {
		if name, ok := firstPerson(ents); ok {
			e.ClaimantName = name
			filled = true
		}
	}
	if e.Village == "" {
		if place, ok := firstPlace(ents); ok {
			e.Village = place
			filled = true
		}
	}
	if filled {
		e.Confidence = round2(min(e.Confidence+ModelBoost, MaxConfidence))
	}
	return e, nil
}

func firstPerson(ents []ner.Entity) (string, bool) {
	for _, ent := range ents {
		if ent.Label == ner.LabelPerson && len(strings.Fields(ent.Text)) >= minPersonWords {
			return ent.Text, true
		}
	}
	return "", false
}

func firstPlace(ents []ner.Entity) (string, bool) {
	for _, ent := range ents {
		if ent.Label != ner.LabelGPE && ent.Label != ner.LabelLoc {
			continue
		}
		if len(strings.Fields(ent.Text)) > maxPlaceWords || placeReject.MatchString(strings.ToUpper(ent.Text)) {
			continue
		}
		return ent.Text, true
	}
	return "", false
}
