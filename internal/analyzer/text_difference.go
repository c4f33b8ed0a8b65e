package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
	"github.com/anime-shed/image-compare-go/internal/processor"
)

// TextDifference recognises the text in both images and reports the
// character and word error rates of the second against the first.
type TextDifference struct {
	comparatorBase
	recognizer TextRecognizer
}

// NewTextDifference is not part of batch reporting: recognition is slow and
// depends on a native OCR engine.
func NewTextDifference(recognizer TextRecognizer) *TextDifference {
	return &TextDifference{
		comparatorBase: newComparatorBase(processor.Base{
			Short: "Text Difference",
			Full:  "OCR Text Difference",
			Key:   "X",
			Desc:  "Recognises text in both images and compares it.",
		}, processor.ResultText, false),
		recognizer: recognizer,
	}
}

func (c *TextDifference) Compare(first, second processor.Image) (processor.Result, error) {
	if err := processor.ValidateImages(first, second); err != nil {
		return processor.Result{}, err
	}
	if c.recognizer == nil {
		return processor.Result{}, apperrors.NewProcessingError("text recognition is not available", nil)
	}
	ref, err := c.recognizer.RecognizeText(first.Pixels)
	if err != nil {
		return processor.Result{}, apperrors.NewProcessingError("failed to recognise text in "+first.DisplayName(), err)
	}
	hyp, err := c.recognizer.RecognizeText(second.Pixels)
	if err != nil {
		return processor.Result{}, apperrors.NewProcessingError("failed to recognise text in "+second.DisplayName(), err)
	}

	cer, wordErr := TextErrorRates(ref, hyp)
	t := newHTMLTable(c.FullName(), "Measure", "Value")
	t.row("Text in "+cell(first.DisplayName()), "<pre>"+cell(ref)+"</pre>")
	t.row("Text in "+cell(second.DisplayName()), "<pre>"+cell(hyp)+"</pre>")
	t.row("Character error rate", fmt.Sprintf("%.4f", cer))
	t.row("Word error rate", fmt.Sprintf("%.4f", wordErr))
	return processor.NewTextResult(t.String()), nil
}

// TextErrorRates returns the character and word error rates of hyp measured
// against ref. An empty reference scores 0 against an empty hypothesis and 1
// otherwise.
func TextErrorRates(ref, hyp string) (cer, wordErr float64) {
	ref, hyp = strings.TrimSpace(ref), strings.TrimSpace(hyp)

	if n := utf8.RuneCountInString(ref); n > 0 {
		cer = float64(levenshtein.Distance(ref, hyp)) / float64(n)
	} else if hyp != "" {
		cer = 1
	}

	refWords, hypWords := strings.Fields(ref), strings.Fields(hyp)
	if len(refWords) > 0 {
		wordErr, _ = wer.WER(refWords, hypWords)
	} else if len(hypWords) > 0 {
		wordErr = 1
	}
	return cer, wordErr
}
