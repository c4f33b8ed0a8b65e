//go:build !cgo

package ocr

import "image"

// Available reports whether this build can run Tesseract.
const Available = false

func (t *Tesseract) RecognizeText(image.Image) (string, error) {
	return "", ErrUnavailable
}

func Version() string { return "" }
