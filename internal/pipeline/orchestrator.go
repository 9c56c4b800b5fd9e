package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ironsheep/fra-claim-ocr/internal/extract"
	"github.com/ironsheep/fra-claim-ocr/internal/imaging"
	"github.com/ironsheep/fra-claim-ocr/internal/logger"
	"github.com/ironsheep/fra-claim-ocr/internal/metrics"
	"github.com/ironsheep/fra-claim-ocr/internal/ocr"
)

// Outcome labels for metrics.DocumentsTotal.
const (
	outcomeSuccess     = "success"
	outcomeFailed      = "failed"
	outcomeUnsupported = "unsupported"
)

// Document is one uploaded file.
type Document struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Preprocessor prepares an image for OCR.
type Preprocessor interface {
	Process(img image.Image) (image.Image, imaging.PreprocessReport)
}

// TextExtractor runs OCR.
type TextExtractor interface {
	Extract(ctx context.Context, img image.Image) ocr.Result
}

// Options tunes the orchestrator.
type Options struct {
	// RawTextLimit caps raw_text in results, in characters.
	RawTextLimit int

	// BatchWorkers bounds concurrent documents in ProcessBatch.
	BatchWorkers int
}

// Orchestrator drives documents through the pipeline. It holds no per-document
// state and is safe for concurrent use.
type Orchestrator struct {
	pre       Preprocessor
	ocr       TextExtractor
	extractor extract.Extractor
	opts      Options
	logger    *zap.Logger
}

// New creates an orchestrator.
func New(pre Preprocessor, text TextExtractor, extractor extract.Extractor, opts Options, logger *zap.Logger) *Orchestrator {
	if opts.RawTextLimit <= 0 {
		opts.RawTextLimit = 500
	}
	if opts.BatchWorkers <= 0 {
		opts.BatchWorkers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{pre: pre, ocr: text, extractor: extractor, opts: opts, logger: logger}
}

// run is the state of one document.
type run struct {
	stage   Stage
	img     image.Image
	text    string
	hasText bool
	ents    extract.Entities
	log     *zap.Logger
}

// Process runs doc through every stage and returns its result.
func (o *Orchestrator) Process(ctx context.Context, doc Document) ExtractionResult {
	log := logger.FromContextOr(ctx, o.logger)
	r := &run{
		stage: StageReceived,
		log: log.With(
			zap.String("document", uuid.NewString()),
			zap.String("filename", doc.Filename),
		),
	}

	if err := CheckContentType(doc.ContentType); err != nil {
		metrics.DocumentsTotal.WithLabelValues(outcomeUnsupported).Inc()
		r.log.Warn("unsupported content type", zap.String("content_type", doc.ContentType))
		return failure(MsgUnsupported, nil)
	}
	if IsPDF(doc.ContentType) {
		metrics.DocumentsTotal.WithLabelValues(outcomeUnsupported).Inc()
		r.log.Info("pdf upload rejected")
		return failure(MsgPDFUnsupported, nil)
	}

	transitions := []struct {
		to Stage
		fn func(context.Context, *run, Document) error
	}{
		{StagePreprocessed, o.preprocess},
		{StageTextExtracted, o.extractText},
		{StageEntityExtracted, o.extractEntities},
		{StageNormalized, o.normalize},
	}

	for _, t := range transitions {
		if err := o.step(ctx, r, t.to, doc, t.fn); err != nil {
			return o.fail(r, err)
		}
	}

	r.stage = StageDone
	res := success(r.ents, Truncate(r.text, o.opts.RawTextLimit))
	metrics.DocumentsTotal.WithLabelValues(outcomeSuccess).Inc()
	metrics.Confidence.Observe(res.Confidence)
	r.log.Info("document processed",
		zap.Stringp("claim_id", res.ClaimID),
		zap.Float64("confidence", res.Confidence),
	)
	return res
}

// step performs one transition. A panic is recovered here and reported as a
// StageError for the target stage.
func (o *Orchestrator) step(ctx context.Context, r *run, to Stage, doc Document, fn func(context.Context, *run, Document) error) (err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = &StageError{Stage: to, Err: fmt.Errorf("panic: %v", rec)}
		}
		metrics.StageDuration.WithLabelValues(string(to)).Observe(time.Since(start).Seconds())
	}()

	if err := fn(ctx, r, doc); err != nil {
		return &StageError{Stage: to, Err: err}
	}
	r.log.Debug("stage complete",
		zap.String("from", string(r.stage)),
		zap.String("to", string(to)),
		zap.Duration("latency", time.Since(start)),
	)
	r.stage = to
	return nil
}

func (o *Orchestrator) fail(r *run, err error) ExtractionResult {
	failedAt := Stage("unknown")
	var se *StageError
	if errors.As(err, &se) {
		failedAt = se.Stage
		err = se.Err
	}
	metrics.StageFailuresTotal.WithLabelValues(string(failedAt)).Inc()
	metrics.DocumentsTotal.WithLabelValues(outcomeFailed).Inc()
	r.log.Warn("document failed",
		zap.String("stage", string(failedAt)),
		zap.String("reached", string(r.stage)),
		zap.Error(err),
	)
	r.stage = StageFailed

	if errors.Is(err, ErrNoText) {
		empty := ""
		return failure(MsgNoText, &empty)
	}

	var raw *string
	if r.hasText {
		t := Truncate(r.text, o.opts.RawTextLimit)
		raw = &t
	}
	return failure("Image processing failed: "+shortMessage(err), raw)
}

func (o *Orchestrator) preprocess(_ context.Context, r *run, doc Document) error {
	if doc.Body == nil {
		return fmt.Errorf("%w: no content", imaging.ErrDecode)
	}
	img, info, err := imaging.Decode(doc.Body)
	if err != nil {
		return err
	}
	r.log.Debug("image decoded",
		zap.String("format", info.Format),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
	)

	out, report := o.pre.Process(img)
	if report.FailedStep != "" {
		metrics.DegradedTotal.WithLabelValues("preprocess", report.FailedStep).Inc()
	}
	r.img = out
	return nil
}

func (o *Orchestrator) extractText(ctx context.Context, r *run, _ Document) error {
	res := o.ocr.Extract(ctx, r.img)
	if res.Diagnostic {
		reason := "error"
		if res.Text == ocr.DiagnosticUnavailable {
			reason = "unavailable"
		}
		metrics.DegradedTotal.WithLabelValues("ocr", reason).Inc()
		r.log.Warn("ocr returned a diagnostic", zap.String("diagnostic", res.Text))
	}
	if strings.TrimSpace(res.Text) == "" {
		return ErrNoText
	}
	r.text = res.Text
	r.hasText = true
	return nil
}

func (o *Orchestrator) extractEntities(ctx context.Context, r *run, _ Document) error {
	r.ents = o.extractor.Extract(ctx, r.text)
	return nil
}

func (o *Orchestrator) normalize(_ context.Context, r *run, _ Document) error {
	r.ents = extract.Normalize(r.ents, r.text)
	return nil
}
