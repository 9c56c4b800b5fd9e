// Package extract turns OCR text into claim fields.
//
// Extraction runs in three steps. RegexExtractor applies the field pattern
// table and computes a baseline confidence. ModelExtractor, when a model is
// available, fills the claimant and village from labeled entities. Normalize
// guarantees that a claim id and claimant name are always present.
package extract

import (
	"context"
	"strconv"
)

// ClaimType is the Forest Rights Act claim category.
type ClaimType string

// Claim categories.
const (
	ClaimTypeIFR ClaimType = "IFR" // individual forest right
	ClaimTypeCFR ClaimType = "CFR" // community forest resource right
	ClaimTypeCR  ClaimType = "CR"  // community right
)

// Confidence bounds.
const (
	BaseConfidence     = 0.4
	FieldConfidence    = 0.15
	MaxRegexConfidence = 0.9
	FaultConfidence    = 0.1
	ModelBoost         = 0.2
	MaxConfidence      = 0.95
	NamePenalty        = 0.3
	MinConfidence      = 0.1
)

// Entities is the set of claim fields found in one document. Empty strings
// and a nil Area mean "not found".
type Entities struct {
	ClaimID      string
	ClaimantName string
	ClaimType    ClaimType
	Village      string
	Area         *float64 // hectares
	Confidence   float64
}

// found counts the populated fields.
func (e Entities) found() int {
	n := 0
	for _, ok := range []bool{e.ClaimID != "", e.ClaimantName != "", e.ClaimType != "", e.Village != "", e.Area != nil} {
		if ok {
			n++
		}
	}
	return n
}

// Extractor produces entities from OCR text.
type Extractor interface {
	Extract(ctx context.Context, text string) Entities
}

// round2 rounds to two decimal places from the exact binary value, so
// 5 acres (5 × 0.4047, stored just below 2.0235) becomes 2.02.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
