package processor

import (
	"image"
	"strings"
)

// ResultKind is the populated variant of a Result.
type ResultKind int

const (
	ResultImage ResultKind = iota
	ResultText
)

func (k ResultKind) String() string {
	switch k {
	case ResultImage:
		return "image"
	case ResultText:
		return "text"
	default:
		return "unknown"
	}
}

// Result is the output of a comparator: either an image or an HTML/plain
// text report, never both.
type Result struct {
	kind  ResultKind
	image *image.NRGBA
	text  string
}

func NewImageResult(img *image.NRGBA) Result {
	return Result{kind: ResultImage, image: img}
}

func NewTextResult(text string) Result {
	return Result{kind: ResultText, text: text}
}

func (r Result) Kind() ResultKind { return r.kind }

// Image returns the rendered result, nil for text results.
func (r Result) Image() *image.NRGBA {
	if r.kind != ResultImage {
		return nil
	}
	return r.image
}

// Text returns the report, "" for image results.
func (r Result) Text() string {
	if r.kind != ResultText {
		return ""
	}
	return r.text
}

// Empty reports whether the populated variant carries no usable output.
func (r Result) Empty() bool {
	switch r.kind {
	case ResultImage:
		return r.image == nil || r.image.Bounds().Empty()
	case ResultText:
		return strings.TrimSpace(r.text) == ""
	default:
		return true
	}
}
