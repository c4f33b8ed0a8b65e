package ocr

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTesseract(t *testing.T) {
	assert.Equal(t, "eng", NewTesseract("").Language())
	assert.Equal(t, "deu", NewTesseract("deu").Language())
	assert.Equal(t, "/opt/tessdata", NewTesseract("eng", WithTessdataPrefix("/opt/tessdata")).tessdataPrefix)
}

func TestRecognizeTextRejectsEmptyImage(t *testing.T) {
	_, err := NewTesseract("").RecognizeText(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)
	if !Available {
		assert.ErrorIs(t, err, ErrUnavailable)
	}
}
