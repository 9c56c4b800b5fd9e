//go:build !cgo

package ocr

// Without cgo the Tesseract bindings cannot be linked; the cli engine still works.
func newGosseractEngine(Options) Engine {
	return Unavailable("gosseract", "built without cgo; use the cli engine")
}
