package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
)

// PreprocessOptions tunes the OCR preprocessing chain.
type PreprocessOptions struct {
	// ContrastFactor scales each pixel's distance from the mean gray level.
	ContrastFactor float64

	// SharpnessFactor extrapolates each pixel away from its smoothed neighbourhood.
	SharpnessFactor float64

	// BlurSigma is the Gaussian blur radius applied to suppress scan noise.
	BlurSigma float64

	// MinDimension is the floor both sides must reach; smaller images are upscaled.
	MinDimension int
}

// DefaultPreprocessOptions returns the settings tuned for scanned claim forms.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		ContrastFactor:  2.0,
		SharpnessFactor: 2.0,
		BlurSigma:       0.5,
		MinDimension:    800,
	}
}

// Step names, in application order.
const (
	StepGrayscale = "grayscale"
	StepContrast  = "contrast"
	StepSharpen   = "sharpen"
	StepBlur      = "blur"
	StepUpscale   = "upscale"
)

// PreprocessReport describes what happened to one image.
type PreprocessReport struct {
	// Applied lists the steps that completed, in order.
	Applied []string `json:"applied"`

	// FailedStep names the step that failed, empty when every step succeeded.
	FailedStep string `json:"failed_step,omitempty"`

	// Err is the failure of FailedStep.
	Err error `json:"-"`

	// NeutralSource is true when a colour-encoded source carried no chroma
	// (a gray scan saved as RGB) and was packed without luma weighting.
	NeutralSource bool `json:"neutral_source"`

	// Upscaled reports whether the minimum-dimension floor triggered a resize.
	Upscaled bool `json:"upscaled"`
}

type step struct {
	name string
	fn   func(image.Image) image.Image
}

// Preprocessor applies a fixed chain of transforms that improves OCR accuracy.
//
// The chain never fails as a whole: when a transform fails, Process returns the
// output of the last successful step (the original image if the first step fails).
type Preprocessor struct {
	opts   PreprocessOptions
	steps  []step
	logger *zap.Logger
}

// NewPreprocessor builds the chain grayscale -> contrast -> sharpen -> blur -> upscale.
func NewPreprocessor(opts PreprocessOptions, logger *zap.Logger) *Preprocessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Preprocessor{opts: opts, logger: logger}
	p.steps = []step{
		{StepGrayscale, toGray},
		{StepContrast, func(img image.Image) image.Image { return enhanceContrast(img, opts.ContrastFactor) }},
		{StepSharpen, func(img image.Image) image.Image { return enhanceSharpness(img, opts.SharpnessFactor) }},
		{StepBlur, func(img image.Image) image.Image { return imaging.Blur(img, opts.BlurSigma) }},
		{StepUpscale, func(img image.Image) image.Image { return upscaleToFloor(img, opts.MinDimension) }},
	}
	return p
}

// Process runs the chain on img.
//
// The returned image is single-channel (*image.Gray) whenever the grayscale step
// succeeded. Process itself never panics and never returns a nil image.
func (p *Preprocessor) Process(img image.Image) (image.Image, PreprocessReport) {
	report := PreprocessReport{Applied: make([]string, 0, len(p.steps))}
	if img == nil {
		report.FailedStep = StepGrayscale
		report.Err = fmt.Errorf("%s: nil image", StepGrayscale)
		return img, report
	}

	if _, ok := img.(*image.Gray); !ok {
		report.NeutralSource = isNeutral(img)
	}
	b := img.Bounds()
	report.Upscaled = b.Dx() < p.opts.MinDimension || b.Dy() < p.opts.MinDimension

	best := img
	for _, s := range p.steps {
		out, err := runStep(s, best)
		if err != nil {
			report.FailedStep = s.name
			report.Err = err
			if s.name == StepUpscale {
				report.Upscaled = false
			}
			p.logger.Warn("preprocess step failed, keeping previous image",
				zap.String("step", s.name),
				zap.Error(err),
			)
			return best, report
		}
		best = out
		report.Applied = append(report.Applied, s.name)
	}

	// Every step after grayscale keeps R=G=B, so repacking is lossless.
	if gray, err := runStep(step{"pack", packGray}, best); err == nil {
		best = gray
	}

	p.logger.Debug("preprocess complete",
		zap.Strings("applied", report.Applied),
		zap.Bool("neutral_source", report.NeutralSource),
		zap.Bool("upscaled", report.Upscaled),
		zap.Int("width", best.Bounds().Dx()),
		zap.Int("height", best.Bounds().Dy()),
	)
	return best, report
}

// runStep executes one transform, converting a panic or an empty output into an error.
func runStep(s step, img image.Image) (out image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%s: %v", s.name, r)
		}
	}()

	out = s.fn(img)
	if out == nil || out.Bounds().Empty() {
		return nil, fmt.Errorf("%s: empty output", s.name)
	}
	return out, nil
}

// toGray converts to a single-channel image using ITU-R 601 luma weights.
// Already-gray images pass through unchanged.
func toGray(img image.Image) image.Image {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	if isNeutral(img) {
		return effect.Grayscale(img)
	}
	// imaging.Grayscale leaves R=G=B with 601 weights; bild packs that into one channel.
	return effect.Grayscale(imaging.Grayscale(img))
}

// packGray repacks an image whose channels are equal into *image.Gray.
func packGray(img image.Image) image.Image {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	return effect.Grayscale(img)
}

// neutralChromaLimit is the HCL chroma below which a pixel counts as gray.
const neutralChromaLimit = 0.02

// neutralSampleGrid bounds the number of pixels inspected per axis.
const neutralSampleGrid = 64

// isNeutral samples a grid of pixels and reports whether none carries chroma.
func isNeutral(img image.Image) bool {
	b := img.Bounds()
	if b.Empty() {
		return false
	}
	stepX := max(1, b.Dx()/neutralSampleGrid)
	stepY := max(1, b.Dy()/neutralSampleGrid)

	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue // fully transparent
			}
			if _, chroma, _ := c.Hcl(); chroma > neutralChromaLimit {
				return false
			}
		}
	}
	return true
}

// meanGray returns the rounded mean luma of img.
func meanGray(img image.Image) uint8 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum uint64
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Dy(); y++ {
			row := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
			for _, v := range row {
				sum += uint64(v)
			}
		}
	} else {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				sum += uint64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			}
		}
	}
	return uint8(float64(sum)/float64(n) + 0.5)
}

// enhanceContrast scales every channel's distance from the image mean by factor.
func enhanceContrast(img image.Image, factor float64) image.Image {
	mean := float64(meanGray(img))
	scale := func(v uint8) uint8 {
		return clampByte(mean + factor*(float64(v)-mean))
	}
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
	})
}

// enhanceSharpness blends img away from its smoothed version:
// out = smooth + factor*(img - smooth), folded into one 3x3 kernel.
func enhanceSharpness(img image.Image, factor float64) image.Image {
	// Smoothing kernel [1 1 1; 1 5 1; 1 1 1] / 13.
	k := convolution.NewKernel(3, 3)
	for i := range k.Matrix {
		smooth := 1.0 / 13.0
		if i == 4 {
			smooth = 5.0 / 13.0
		}
		k.Matrix[i] = (1 - factor) * smooth
	}
	k.Matrix[4] += factor

	return convolution.Convolve(img, k, &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true})
}

// upscaleToFloor resizes img so its smaller side reaches floor, preserving aspect ratio.
// The smaller side becomes exactly floor and the other side is truncated.
// Images already at or above the floor on both sides are returned unchanged.
func upscaleToFloor(img image.Image, floor int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w >= floor && h >= floor {
		return img
	}
	newW, newH := floor, h*floor/w
	if h < w {
		newW, newH = w*floor/h, floor
	}
	return imaging.Resize(img, newW, newH, imaging.Lanczos)
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
