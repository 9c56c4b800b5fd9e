// Package imaging decodes document scans and prepares them for OCR.
//
// Two operations live here: Decode, the boundary at which unreadable uploads
// become ErrDecode, and Preprocessor, the fixed transform chain that raises
// the chance of a clean OCR read.
//
// # Supported Formats
//
// PNG, JPEG and GIF through the standard library decoders, plus TIFF, BMP and
// WebP through golang.org/x/image. Scanners commonly emit TIFF.
//
// # Preprocessing Chain
//
// Applied in this order:
//
//  1. Grayscale: single-channel luma (ITU-R 601 weights). Sources that are
//     already *image.Gray pass through; colour-encoded gray scans are detected
//     by sampling HCL chroma and packed directly.
//  2. Contrast: each pixel's distance from the image mean scaled by 2.0.
//  3. Sharpness: each pixel pushed away from its 3x3 smoothed value by 2.0.
//  4. Blur: Gaussian, sigma 0.5, to suppress scan speckle.
//  5. Upscale: if either side is under 800 px, Lanczos resize so the smaller
//     side reaches 800 px with aspect ratio preserved.
//
// # Error Handling
//
// The chain never fails. A step that panics or produces an empty image stops
// the chain and Process returns the last good image together with a
// PreprocessReport naming the failed step.
//
// # Thread Safety
//
// A Preprocessor holds no mutable state after construction and can be shared
// by concurrent pipeline runs.
package imaging
