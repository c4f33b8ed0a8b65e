package analyzer

// ImageStats holds per-image aggregates. All values are unrounded.
type ImageStats struct {
	Pixels int

	// Mean channel values in 0..255.
	MeanR, MeanG, MeanB float64

	// Saturation is the mean HSV saturation in 0..1.
	Saturation float64
	// Brightness is the mean luma in 0..255.
	Brightness float64
	// Contrast is the population standard deviation of luma; Variance its square.
	Contrast float64
	Variance float64
	// Sharpness is the mean forward-difference gradient magnitude of luma.
	Sharpness float64
	// Proximity is the distance of the mean color from black.
	Proximity float64
}

// ProximityPercent expresses Proximity relative to the white point.
func (s ImageStats) ProximityPercent() float64 {
	return s.Proximity / maxProximity * 100
}

// PairStats holds aggregates computed across an image pair.
type PairStats struct {
	Pixels int
	// MAE and RMSE are over every RGB channel difference, in 0..255.
	MAE  float64
	RMSE float64
	// DeltaE is the mean CIEDE2000 color difference.
	DeltaE float64
	// MaxDeltaE is the largest per-pixel CIEDE2000 difference.
	MaxDeltaE float64
}
