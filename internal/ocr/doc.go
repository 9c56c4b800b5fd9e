// Package ocr provides the text extraction boundary of the claim pipeline.
//
// An Engine is the OCR capability; Adapter wraps one and converts every kind of
// failure into diagnostic text so the pipeline never sees an engine error.
//
// # Engines
//
//   - gosseract: Tesseract linked in-process via gosseract/v2 (cgo builds only)
//   - cli: the tesseract binary, run once per image on a temporary PNG
//   - none: always unavailable
//
// Open constructs the configured engine and probes it once with a blank page.
// If construction or the probe fails, the unavailable variant is returned and
// kept for the rest of the process lifetime; nothing re-probes per request.
//
// # Prerequisites
//
// Tesseract and its English language data must be installed for the
// gosseract and cli engines:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng libtesseract-dev
//   - macOS: brew install tesseract
//
// # Recognition Settings
//
// Recognition is restricted to Whitelist (digits, Latin letters, space and
// "/-()."), uses page segmentation mode 6 (a single uniform block of text)
// and the "eng" language unless configured otherwise.
//
// # Diagnostics
//
// Adapter.Extract returns:
//   - DiagnosticUnavailable when the engine is not available
//   - DiagnosticPrefix + message when the engine fails, panics or times out
//
// Result.Diagnostic distinguishes these from recognized text.
package ocr
