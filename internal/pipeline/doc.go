// Package pipeline runs one claim document through the extraction stages and
// assembles the ExtractionResult returned to clients.
//
// # States
//
// Each document moves through
//
//	received -> preprocessed -> text_extracted -> entity_extracted -> normalized -> done
//
// and may move to failed from any state before done. A failure is always an
// explicit StageError naming the stage; a panic inside a stage is recovered at
// the stage boundary and becomes a StageError as well, so Process never panics
// and never returns a Go error. Callers only ever see an ExtractionResult.
//
// # Degradation
//
// Several stages degrade instead of failing:
//   - preprocessing keeps the best image obtained so far
//   - an unavailable or failing OCR engine yields diagnostic text
//   - an unavailable or failing entity model leaves the regex result
//
// Degradations are logged and counted in metrics but do not fail the document.
//
// # Batches
//
// ProcessBatch accepts at most MaxBatchSize documents, runs them on a bounded
// worker pool and returns results in input order. One document's failure is
// reported in its own slot and does not affect the others.
package pipeline
