package ocr

import "errors"

// ErrUnavailable is returned when the binary was built without cgo.
var ErrUnavailable = errors.New("ocr: tesseract support not compiled in (cgo disabled)")

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// Tesseract recognizes text in one configured language.
type Tesseract struct {
	language       string
	tessdataPrefix string
}

// Option configures a Tesseract.
type Option func(*Tesseract)

// WithTessdataPrefix points Tesseract at a non-default tessdata directory.
func WithTessdataPrefix(dir string) Option {
	return func(t *Tesseract) { t.tessdataPrefix = dir }
}

// NewTesseract creates a recognizer for language, "eng" when empty.
func NewTesseract(language string, opts ...Option) *Tesseract {
	if language == "" {
		language = DefaultLanguage
	}
	t := &Tesseract{language: language}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Language returns the configured Tesseract language.
func (t *Tesseract) Language() string { return t.language }
