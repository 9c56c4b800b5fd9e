//go:build cgo

package ocr

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// createImageWithText renders text with basicfont and scales it up for Tesseract.
func createImageWithText(t *testing.T, text string, scale int) image.Image {
	t.Helper()

	width := len(text)*7 + 40
	height := 40

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(20), Y: fixed.I(25)},
	}
	d.DrawString(text)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

func TestGosseract_RealText(t *testing.T) {
	engine := Open(context.Background(), "gosseract", Options{})
	if !engine.Available() {
		t.Skip("Tesseract not available")
	}

	img := createImageWithText(t, "CLAIM 2024", 4)
	text, err := engine.Recognize(context.Background(), img, Whitelist)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if !strings.Contains(strings.ToUpper(text), "CLAIM") {
		t.Errorf("expected CLAIM in OCR output, got %q", text)
	}
}

func TestGosseract_WhitelistDropsSymbols(t *testing.T) {
	engine := Open(context.Background(), "gosseract", Options{})
	if !engine.Available() {
		t.Skip("Tesseract not available")
	}

	img := createImageWithText(t, "AREA # 5 @", 4)
	text, err := engine.Recognize(context.Background(), img, Whitelist)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if strings.ContainsAny(text, "#@") {
		t.Errorf("whitelisted output contains excluded symbols: %q", text)
	}
}
