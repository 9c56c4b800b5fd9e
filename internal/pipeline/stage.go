package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Stage is a pipeline state.
type Stage string

// Pipeline states, in order.
const (
	StageReceived        Stage = "received"
	StagePreprocessed    Stage = "preprocessed"
	StageTextExtracted   Stage = "text_extracted"
	StageEntityExtracted Stage = "entity_extracted"
	StageNormalized      Stage = "normalized"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// Sentinel errors.
var (
	// ErrNoText means OCR produced no text.
	ErrNoText = errors.New("no text extracted")

	// ErrBatchTooLarge rejects a batch before any document runs.
	ErrBatchTooLarge = fmt.Errorf("maximum %d files allowed in batch", MaxBatchSize)

	// ErrUnsupportedType marks an upload that is neither an image nor a PDF.
	ErrUnsupportedType = errors.New("unsupported content type")
)

// StageError is a failed transition into Stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// shortMessage keeps the first line of an error message.
func shortMessage(err error) string {
	return firstLine(err.Error())
}

func firstLine(msg string) string {
	if i := strings.IndexAny(msg, "\r\n"); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}

// IsPDF reports whether contentType names a PDF.
func IsPDF(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "application/pdf")
}

// CheckContentType accepts images and PDFs.
func CheckContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(ct, "image/") || IsPDF(ct) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
}
