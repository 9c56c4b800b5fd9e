package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Diagnostic strings returned in place of recognized text.
const (
	DiagnosticUnavailable = "OCR service not available - Tesseract not installed"
	DiagnosticPrefix      = "OCR extraction failed: "
)

// Result is the outcome of one adapter call.
type Result struct {
	// Text is the recognized text, trimmed, or a diagnostic string.
	Text string

	// Diagnostic is true when Text describes a failure rather than document content.
	Diagnostic bool

	// Err is the underlying failure behind a diagnostic, nil otherwise.
	Err error
}

// Adapter is the boundary between the pipeline and the OCR engine. It never
// returns an error: unavailability, engine faults, panics and timeouts all
// become diagnostic text.
type Adapter struct {
	engine    Engine
	whitelist string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewAdapter wraps engine. timeout <= 0 disables the adapter deadline.
func NewAdapter(engine Engine, timeout time.Duration, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{engine: engine, whitelist: Whitelist, timeout: timeout, logger: logger}
}

// Available reports whether the wrapped engine is usable.
func (a *Adapter) Available() bool { return a.engine.Available() }

// EngineName returns the wrapped engine's name.
func (a *Adapter) EngineName() string { return a.engine.Name() }

// Extract recognizes the text in img.
func (a *Adapter) Extract(ctx context.Context, img image.Image) Result {
	if !a.engine.Available() {
		return Result{Text: DiagnosticUnavailable, Diagnostic: true, Err: ErrEngineUnavailable}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("engine panic: %v", r)}
			}
		}()
		text, err := a.engine.Recognize(ctx, img, a.whitelist)
		done <- outcome{text: text, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
		if res.err != nil && errors.Is(res.err, context.DeadlineExceeded) {
			res.err = fmt.Errorf("timeout: %w", res.err)
		}
	case <-ctx.Done():
		res = outcome{err: fmt.Errorf("timeout: %w", ctx.Err())}
	}

	if res.err != nil {
		if errors.Is(res.err, ErrEngineUnavailable) {
			return Result{Text: DiagnosticUnavailable, Diagnostic: true, Err: res.err}
		}
		a.logger.Error("ocr extraction failed",
			zap.String("engine", a.engine.Name()),
			zap.Error(res.err),
		)
		return Result{Text: DiagnosticPrefix + res.err.Error(), Diagnostic: true, Err: res.err}
	}

	return Result{Text: strings.TrimSpace(res.text)}
}
