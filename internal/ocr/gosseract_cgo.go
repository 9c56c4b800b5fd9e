//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"
)

// gosseractEngine runs Tesseract in-process through the gosseract bindings.
// A fresh client is created per call; clients are not safe for concurrent use.
type gosseractEngine struct {
	opts Options
}

func newGosseractEngine(opts Options) Engine {
	return &gosseractEngine{opts: opts}
}

func (e *gosseractEngine) Name() string    { return "gosseract" }
func (e *gosseractEngine) Available() bool { return true }

// Recognize performs OCR on img.
//
// gosseract has no cancellation hook; the Adapter enforces ctx deadlines around
// this call. ctx is checked once before the engine starts.
func (e *gosseractEngine) Recognize(ctx context.Context, img image.Image, whitelist string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.opts.TessdataDir != "" {
		if err := client.SetTessdataPrefix(e.opts.TessdataDir); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(e.opts.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(e.opts.PageSegMode)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if whitelist != "" {
		if err := client.SetWhitelist(whitelist); err != nil {
			return "", fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Version returns the linked Tesseract version.
func (e *gosseractEngine) Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}
