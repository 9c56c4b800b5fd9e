package pipeline

import (
	"github.com/ironsheep/fra-claim-ocr/internal/extract"
)

// Client-facing failure messages.
const (
	MsgNoText         = "No text could be extracted from the image"
	MsgPDFUnsupported = "PDF processing not implemented in this version. Please convert to image format."
	MsgUnsupported    = "Only image and PDF files are supported"
)

// ExtractionResult is the terminal record for one document. Exactly one of
// Success and Error is set. It is never modified after Process returns it.
type ExtractionResult struct {
	Success      bool     `json:"success"`
	ClaimID      *string  `json:"claim_id"`
	ClaimantName *string  `json:"claimant_name"`
	ClaimType    *string  `json:"claim_type"`
	Village      *string  `json:"village"`
	Area         *float64 `json:"area"`
	Confidence   float64  `json:"confidence"`
	RawText      *string  `json:"raw_text"`
	Error        *string  `json:"error"`
}

// BatchItem pairs a batch result with the uploaded file name.
type BatchItem struct {
	Filename string           `json:"filename"`
	Result   ExtractionResult `json:"result"`
}

func failure(msg string, rawText *string) ExtractionResult {
	return ExtractionResult{Success: false, Confidence: 0, RawText: rawText, Error: &msg}
}

func success(e extract.Entities, rawText string) ExtractionResult {
	r := ExtractionResult{
		Success:      true,
		ClaimID:      optional(e.ClaimID),
		ClaimantName: optional(e.ClaimantName),
		ClaimType:    optional(string(e.ClaimType)),
		Village:      optional(e.Village),
		Confidence:   e.Confidence,
		RawText:      &rawText,
	}
	if e.Area != nil {
		area := *e.Area
		r.Area = &area
	}
	return r
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Truncate caps s at limit runes, appending "..." when it was cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
