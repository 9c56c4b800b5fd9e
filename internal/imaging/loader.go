package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder (common scanner output)
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrDecode marks a corrupt or unreadable image.
var ErrDecode = errors.New("cannot identify image file")

// ImageInfo contains metadata about a decoded document image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format name reported by the registered decoder
	// ("png", "jpeg", "gif", "tiff", "bmp", "webp").
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// Grayscale is true when the decoded image is already single-channel.
	Grayscale bool `json:"grayscale"`
}

// Decode reads and decodes a document image.
//
// Any failure, including an empty reader, is returned wrapped in ErrDecode so the
// caller can map it to a DecodeError result without inspecting decoder internals.
func Decode(r io.Reader) (image.Image, *ImageInfo, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, nil, fmt.Errorf("%w: empty image", ErrDecode)
	}

	info := &ImageInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     format,
		ColorDepth: "8-bit",
	}

	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		info.HasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		info.HasAlpha = true
		info.ColorDepth = "16-bit"
	case *image.Gray:
		info.Grayscale = true
	case *image.Gray16:
		info.Grayscale = true
		info.ColorDepth = "16-bit"
	}

	return img, info, nil
}
