package analyzer

import "image"

// MetricsCalculator computes the statistics behind the numeric comparators.
type MetricsCalculator interface {
	CalculateImageStats(img *image.NRGBA) ImageStats
	CalculatePairStats(first, second *image.NRGBA) PairStats
}

// TextRecognizer extracts text from an image for the text difference comparator.
type TextRecognizer interface {
	RecognizeText(img image.Image) (string, error)
}
