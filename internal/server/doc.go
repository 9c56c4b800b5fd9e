// Package server exposes the claim extraction pipeline over HTTP.
//
// # Endpoints
//
//	GET  /            service health
//	GET  /health      service health
//	POST /ocr         one document, multipart field "file"
//	POST /ocr/batch   up to 10 documents, multipart field "files" (repeated)
//	GET  /metrics     Prometheus metrics
//
// Health responses report whether the OCR engine and the entity model were
// found available at start-up:
//
//	{"status":"healthy","ocr_engine_available":true,"ner_model_available":false,"version":"1.0.0"}
//
// # Input Errors
//
// Requests rejected before the pipeline runs get HTTP 400 with a short detail:
//
//	{"detail":"No file provided"}
//	{"detail":"Only image and PDF files are supported"}
//	{"detail":"Maximum 10 files allowed in batch"}
//
// Everything that happens after the pipeline starts, including decode errors
// and unsupported PDF uploads, is reported with HTTP 200 in the result body
// (success=false and an error message).
//
// # Uploads
//
// Each uploaded file is staged to a temporary file whose suffix matches the
// original file name, and the file is removed when the request finishes on
// every path.
//
// # Middleware
//
// Requests pass through a JSON panic recoverer, request-id assignment, one
// canonical "http_request" log line, permissive CORS and Prometheus request
// metrics.
package server
