package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"
)

// Whitelist is the recognition character set. Everything outside it is treated
// as scan noise by the engine.
const Whitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz /-()."

// ErrEngineUnavailable is returned by engines that are not installed or failed their probe.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Engine is the OCR capability. Implementations are selected once at start-up.
type Engine interface {
	// Name identifies the backend ("gosseract", "cli", "none").
	Name() string

	// Available reports whether Recognize can succeed at all.
	Available() bool

	// Recognize returns the text in img, restricted to the whitelist characters.
	Recognize(ctx context.Context, img image.Image, whitelist string) (string, error)
}

// Options configures a Tesseract-backed engine.
type Options struct {
	// Language is the Tesseract language code, "eng" by default.
	Language string

	// PageSegMode is the Tesseract --psm value; 6 treats the page as one uniform block.
	PageSegMode int

	// TessdataDir overrides the traineddata location when non-empty.
	TessdataDir string

	// TesseractPath is the binary used by the cli engine.
	TesseractPath string
}

func (o Options) withDefaults() Options {
	if o.Language == "" {
		o.Language = "eng"
	}
	if o.PageSegMode <= 0 {
		o.PageSegMode = 6
	}
	if o.TesseractPath == "" {
		o.TesseractPath = "tesseract"
	}
	return o
}

// unavailableEngine is the variant used when no OCR backend could be loaded.
type unavailableEngine struct {
	name   string
	reason string
}

// Unavailable returns an engine that always reports ErrEngineUnavailable.
func Unavailable(name, reason string) Engine {
	return &unavailableEngine{name: name, reason: reason}
}

func (u *unavailableEngine) Name() string    { return u.name }
func (u *unavailableEngine) Available() bool { return false }

func (u *unavailableEngine) Recognize(context.Context, image.Image, string) (string, error) {
	return "", fmt.Errorf("%s: %s: %w", u.name, u.reason, ErrEngineUnavailable)
}

// Reason explains why the engine is unavailable.
func (u *unavailableEngine) Reason() string { return u.reason }

// Open builds the engine named by kind and probes it once.
//
// A backend that cannot be constructed or fails the probe is replaced by the
// unavailable variant; the caller keeps that decision for the process lifetime.
func Open(ctx context.Context, kind string, opts Options) Engine {
	opts = opts.withDefaults()

	var engine Engine
	switch kind {
	case "gosseract":
		engine = newGosseractEngine(opts)
	case "cli":
		engine = NewCLIEngine(opts, nil)
	case "none", "":
		return Unavailable("none", "ocr disabled by configuration")
	default:
		return Unavailable(kind, "unknown ocr engine")
	}

	return Probe(ctx, engine)
}

// probeTimeout bounds the start-up recognition attempt.
const probeTimeout = 15 * time.Second

// Probe runs one recognition on a blank page. Any error marks the engine unavailable.
func Probe(ctx context.Context, engine Engine) Engine {
	if !engine.Available() {
		return engine
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	if _, err := engine.Recognize(ctx, blank, Whitelist); err != nil {
		return Unavailable(engine.Name(), fmt.Sprintf("probe failed: %v", err))
	}
	return engine
}

// encodePNG serializes img for backends that consume encoded bytes.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveImageToTemp saves an image to a uniquely named temporary PNG file and returns its path.
//
// The caller is responsible for deleting the file with os.Remove().
func SaveImageToTemp(img image.Image, prefix string) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", prefix+"-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close temp image: %w", err)
	}
	return path, nil
}
