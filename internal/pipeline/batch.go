package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/fra-claim-ocr/internal/logger"
	"github.com/ironsheep/fra-claim-ocr/internal/metrics"
)

// MaxBatchSize is the largest accepted batch.
const MaxBatchSize = 10

// ProcessBatch runs every document and returns one item per document in input
// order. A batch larger than MaxBatchSize is rejected with ErrBatchTooLarge
// before any document runs.
func (o *Orchestrator) ProcessBatch(ctx context.Context, docs []Document) ([]BatchItem, error) {
	if len(docs) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	items := make([]BatchItem, len(docs))

	var g errgroup.Group
	g.SetLimit(o.opts.BatchWorkers)

	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			items[i] = BatchItem{Filename: doc.Filename, Result: o.processIsolated(ctx, doc)}
			return nil
		})
	}
	_ = g.Wait()

	return items, nil
}

// processIsolated converts anything escaping Process into a failed result for
// this document only.
func (o *Orchestrator) processIsolated(ctx context.Context, doc Document) (res ExtractionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContextOr(ctx, o.logger).Error("batch item fault",
				zap.String("filename", doc.Filename),
				zap.Any("panic", r),
			)
			metrics.DocumentsTotal.WithLabelValues(outcomeFailed).Inc()
			res = failure(firstLine(fmt.Sprintf("Processing failed: %v", r)), nil)
		}
	}()
	return o.Process(ctx, doc)
}
