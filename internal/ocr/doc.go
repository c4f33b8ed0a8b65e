// Package ocr recognizes text in images with Tesseract through gosseract.
//
// Tesseract and its language data must be installed on the host and the
// binary must be built with cgo. Without cgo every recognition fails with
// ErrUnavailable.
package ocr
