package extract

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/ironsheep/fra-claim-ocr/internal/metrics"
)

// NameNotFound replaces a missing claimant name.
const NameNotFound = "Name Not Found"

// fallbackPrefixRunes is how much of the text feeds the fallback id.
const fallbackPrefixRunes = 50

// FallbackClaimID derives a stable identifier from the first 50 characters of
// text: "TEMP-" and five digits of XXH64 over their UTF-8 bytes, modulo 100000.
func FallbackClaimID(text string) string {
	runes := []rune(text)
	if len(runes) > fallbackPrefixRunes {
		runes = runes[:fallbackPrefixRunes]
	}
	return fmt.Sprintf("TEMP-%05d", xxhash.Sum64String(string(runes))%100000)
}

// Normalize guarantees a claim id and claimant name. A missing name costs 0.3
// confidence, floored at 0.1.
func Normalize(e Entities, rawText string) Entities {
	if e.ClaimID == "" {
		e.ClaimID = FallbackClaimID(rawText)
		metrics.FallbacksTotal.WithLabelValues(FieldClaimID).Inc()
	}
	if e.ClaimantName == "" {
		e.ClaimantName = NameNotFound
		e.Confidence = round2(max(e.Confidence-NamePenalty, MinConfidence))
		metrics.FallbacksTotal.WithLabelValues(FieldClaimant).Inc()
	}
	return e
}
