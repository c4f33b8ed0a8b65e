package analyzer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"

	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/property"
)

// comparatorBase supplies the parts of processor.Comparator shared by every
// built-in comparator. Comparators without properties use its no-op
// configuration methods.
type comparatorBase struct {
	processor.Base
	processor.Toggle
	result     processor.ResultKind
	autoReport bool
}

func newComparatorBase(base processor.Base, result processor.ResultKind, autoReport bool) comparatorBase {
	return comparatorBase{Base: base, Toggle: processor.NewToggle(), result: result, autoReport: autoReport}
}

func (c *comparatorBase) Kind() processor.Kind                    { return processor.KindComparator }
func (c *comparatorBase) ResultKind() processor.ResultKind        { return c.result }
func (c *comparatorBase) PartOfAutoReporting() bool               { return c.autoReport }
func (c *comparatorBase) DefaultProperties() []property.Property  { return nil }
func (c *comparatorBase) SetProperties(props []property.Property) {}
func (c *comparatorBase) Reset()                                  {}

// ---- Difference banding ----

const (
	modeSimple   = "Simple"
	modeAdvanced = "Advanced"
)

func modeProperty() property.Property {
	return property.NewAlternatives("Mode", "Difference scale", []string{modeSimple, modeAdvanced}, 1)
}

// bandMode holds the Simple/Advanced choice shared by the report and map comparators.
type bandMode struct {
	mode property.Property
}

func (m *bandMode) DefaultProperties() []property.Property {
	return []property.Property{modeProperty()}
}

func (m *bandMode) SetProperties(props []property.Property) {
	if !property.SameShape(props, m.DefaultProperties()) {
		return
	}
	m.mode = props[0]
}

func (m *bandMode) Reset() { m.mode = modeProperty() }

func (m *bandMode) bands() *Bands {
	if m.mode.Selected() == modeSimple {
		return SimpleBands()
	}
	return AdvancedBands()
}

// DifferenceReport counts pixels per difference band.
type DifferenceReport struct {
	comparatorBase
	bandMode
}

func NewDifferenceReport() *DifferenceReport {
	c := &DifferenceReport{comparatorBase: newComparatorBase(processor.Base{
		Short: "Difference Report",
		Full:  "Pixel Difference Report",
		Key:   "T",
		Desc:  "Counts how many pixels fall into each difference range.",
	}, processor.ResultText, true)}
	c.Reset()
	return c
}

func (c *DifferenceReport) DefaultProperties() []property.Property {
	return c.bandMode.DefaultProperties()
}
func (c *DifferenceReport) SetProperties(p []property.Property) { c.bandMode.SetProperties(p) }
func (c *DifferenceReport) Reset()                              { c.bandMode.Reset() }

func (c *DifferenceReport) Compare(first, second processor.Image) (processor.Result, error) {
	if err := processor.ValidateImages(first, second); err != nil {
		return processor.Result{}, err
	}
	bands := c.bands()
	counts := bands.Histogram(first.Pixels, second.Pixels)
	total := first.Bounds().Dx() * first.Bounds().Dy()

	t := newHTMLTable(fmt.Sprintf("%s (%s)", c.FullName(), c.mode.Selected()), "Range", "Color", "Label", "Pixels", "Percent")
	for i, r := range bands.Ranges() {
		t.row(r.String(), swatch(r), cell(r.Label), fmt.Sprintf("%d", counts[i]), fmt.Sprintf("%.2f%%", percent(counts[i], total)))
	}
	return processor.NewTextResult(pairCaption(first, second) + t.String()), nil
}

// DifferenceMap paints every pixel with its difference band color.
type DifferenceMap struct {
	comparatorBase
	bandMode
}

func NewDifferenceMap() *DifferenceMap {
	c := &DifferenceMap{comparatorBase: newComparatorBase(processor.Base{
		Short: "Difference Map",
		Full:  "Pixel Difference Map",
		Key:   "M",
		Desc:  "Colors every pixel by the range its difference falls into.",
	}, processor.ResultImage, true)}
	c.Reset()
	return c
}

func (c *DifferenceMap) DefaultProperties() []property.Property {
	return c.bandMode.DefaultProperties()
}
func (c *DifferenceMap) SetProperties(p []property.Property) { c.bandMode.SetProperties(p) }
func (c *DifferenceMap) Reset()                              { c.bandMode.Reset() }

func (c *DifferenceMap) Compare(first, second processor.Image) (processor.Result, error) {
	if err := processor.ValidateImages(first, second); err != nil {
		return processor.Result{}, err
	}
	return processor.NewImageResult(c.bands().Render(first.Pixels, second.Pixels)), nil
}

// CustomRangeDifference maps pixels onto four user-defined bands.
type CustomRangeDifference struct {
	comparatorBase
	low, medium, high int
}

const (
	defaultLow    = 10
	defaultMedium = 30
	defaultHigh   = 80
)

func NewCustomRangeDifference() *CustomRangeDifference {
	c := &CustomRangeDifference{comparatorBase: newComparatorBase(processor.Base{
		Short: "Custom Range Difference",
		Key:   "C",
		Desc:  "Colors pixels by three user-defined difference thresholds.",
	}, processor.ResultImage, true)}
	c.Reset()
	return c
}

func (c *CustomRangeDifference) DefaultProperties() []property.Property {
	return []property.Property{
		property.NewIntRange("Low", "Upper bound of the low range", defaultLow, 0, MaxDifference-1),
		property.NewIntRange("Medium", "Upper bound of the medium range", defaultMedium, 0, MaxDifference-1),
		property.NewIntRange("High", "Upper bound of the high range", defaultHigh, 0, MaxDifference-1),
	}
}

// SetProperties ignores thresholds that are not strictly increasing.
func (c *CustomRangeDifference) SetProperties(props []property.Property) {
	if !property.SameShape(props, c.DefaultProperties()) {
		return
	}
	low, medium, high := props[0].Int(), props[1].Int(), props[2].Int()
	if _, err := CustomBands(low, medium, high); err != nil {
		return
	}
	c.low, c.medium, c.high = low, medium, high
}

func (c *CustomRangeDifference) Reset() {
	c.low, c.medium, c.high = defaultLow, defaultMedium, defaultHigh
}

// Thresholds returns the active low, medium and high bounds.
func (c *CustomRangeDifference) Thresholds() (int, int, int) {
	return c.low, c.medium, c.high
}

func (c *CustomRangeDifference) Compare(first, second processor.Image) (processor.Result, error) {
	if err := processor.ValidateImages(first, second); err != nil {
		return processor.Result{}, err
	}
	bands, err := CustomBands(c.low, c.medium, c.high)
	if err != nil {
		return processor.Result{}, err
	}
	return processor.NewImageResult(bands.Render(first.Pixels, second.Pixels)), nil
}

// ---- Mono difference ----

var markerColors = []struct {
	name  string
	color color.NRGBA
}{
	{"Red", color.NRGBA{255, 0, 0, 255}},
	{"Green", color.NRGBA{0, 255, 0, 255}},
	{"Blue", color.NRGBA{0, 0, 255, 255}},
	{"Magenta", color.NRGBA{255, 0, 255, 255}},
}

// MonoDifference highlights pixels above a threshold over a dimmed copy of
// the first image.
type MonoDifference struct {
	comparatorBase
	threshold int
	marker    int
}

func NewMonoDifference() *MonoDifference {
	c := &MonoDifference{comparatorBase: newComparatorBase(processor.Base{
		Short: "Mono Difference",
		Key:   "D",
		Desc:  "Marks every pixel whose difference exceeds the threshold.",
	}, processor.ResultImage, true)}
	c.Reset()
	return c
}

func (c *MonoDifference) DefaultProperties() []property.Property {
	names := make([]string, len(markerColors))
	for i, m := range markerColors {
		names[i] = m.name
	}
	return []property.Property{
		property.NewIntRange("Threshold", "Differences above this value are marked", 0, 0, MaxDifference-1),
		property.NewAlternatives("Marker color", "Color used for differing pixels", names, 0),
	}
}

// SetProperties ignores a threshold outside 0..254 and an unknown marker.
func (c *MonoDifference) SetProperties(props []property.Property) {
	if !property.SameShape(props, c.DefaultProperties()) {
		return
	}
	threshold, marker := props[0].Int(), props[1].Index()
	if threshold < 0 || threshold >= MaxDifference || marker < 0 || marker >= len(markerColors) {
		return
	}
	c.threshold, c.marker = threshold, marker
}

func (c *MonoDifference) Reset() {
	c.threshold = 0
	c.marker = 0
}

func (c *MonoDifference) Compare(first, second processor.Image) (processor.Result, error) {
	if err := processor.ValidateImages(first, second); err != nil {
		return processor.Result{}, err
	}
	marker := markerColors[c.marker].color
	threshold := uint8(c.threshold)
	out := image.NewNRGBA(image.Rect(0, 0, first.Bounds().Dx(), first.Bounds().Dy()))
	forEachDifference(first.Pixels, second.Pixels, func(x, y int, d uint8) {
		if d > threshold {
			out.SetNRGBA(x, y, marker)
			return
		}
		p := rowPix(first.Pixels, y)[x*4:]
		l := uint8(math.Round((lumaR*float64(p[0]) + lumaG*float64(p[1]) + lumaB*float64(p[2])) * 0.4))
		out.SetNRGBA(x, y, color.NRGBA{l, l, l, 255})
	})
	return processor.NewImageResult(out), nil
}

// ---- Absolute difference ----

// AbsoluteDifference renders |first - second| per channel.
type AbsoluteDifference struct {
	comparatorBase
}

func NewAbsoluteDifference() *AbsoluteDifference {
	return &AbsoluteDifference{comparatorBase: newComparatorBase(processor.Base{
		Short: "Absolute Difference",
		Key:   "A",
		Desc:  "Shows the absolute per-channel difference of the two images.",
	}, processor.ResultImage, true)}
}

func (c *AbsoluteDifference) Compare(first, second processor.Image) (processor.Result, error) {
	if err := processor.ValidateImages(first, second); err != nil {
		return processor.Result{}, err
	}
	diff := blend.Difference(first.Pixels, second.Pixels)
	out := imaging.Clone(diff)
	// Fully opaque so the difference is visible regardless of source alpha.
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return processor.NewImageResult(out), nil
}

// ---- Per-image statistics ----

type statRow struct {
	label  string
	format string
	value  func(ImageStats) float64
}

// StatComparator reports side-by-side per-image statistics.
type StatComparator struct {
	comparatorBase
	calc MetricsCalculator
	rows []statRow
}

func newStatComparator(base processor.Base, calc MetricsCalculator, rows ...statRow) *StatComparator {
	return &StatComparator{
		comparatorBase: newComparatorBase(base, processor.ResultText, true),
		calc:           calc,
		rows:           rows,
	}
}

// Stats computes the per-image statistics for both images.
func (c *StatComparator) Stats(first, second processor.Image) (ImageStats, ImageStats) {
	return c.calc.CalculateImageStats(first.Pixels), c.calc.CalculateImageStats(second.Pixels)
}

func (c *StatComparator) Compare(first, second processor.Image) (processor.Result, error) {
	if err := processor.ValidateImages(first, second); err != nil {
		return processor.Result{}, err
	}
	a, b := c.Stats(first, second)
	t := newHTMLTable(c.FullName(), "Metric", first.DisplayName(), second.DisplayName())
	for _, r := range c.rows {
		t.row(cell(r.label), fmt.Sprintf(r.format, r.value(a)), fmt.Sprintf(r.format, r.value(b)))
	}
	return processor.NewTextResult(t.String()), nil
}

func NewSaturationComparator(calc MetricsCalculator) *StatComparator {
	return newStatComparator(processor.Base{
		Short: "Saturation",
		Key:   "S",
		Desc:  "Average HSV saturation of each image.",
	}, calc,
		statRow{"Average saturation", "%.4f", func(s ImageStats) float64 { return s.Saturation }},
		statRow{"Average saturation (%)", "%.2f%%", func(s ImageStats) float64 { return s.Saturation * 100 }},
	)
}

func NewSharpnessComparator(calc MetricsCalculator) *StatComparator {
	return newStatComparator(processor.Base{
		Short: "Sharpness",
		Key:   "H",
		Desc:  "Average luma gradient magnitude; higher means sharper.",
	}, calc,
		statRow{"Average gradient magnitude", "%.4f", func(s ImageStats) float64 { return s.Sharpness }},
	)
}

func NewBrightnessComparator(calc MetricsCalculator) *StatComparator {
	return newStatComparator(processor.Base{
		Short: "Brightness",
		Key:   "L",
		Desc:  "Average luma of each image.",
	}, calc,
		statRow{"Average luma (0-255)", "%.3f", func(s ImageStats) float64 { return s.Brightness }},
		statRow{"Average luma (%)", "%.2f%%", func(s ImageStats) float64 { return s.Brightness / 255 * 100 }},
	)
}

func NewContrastComparator(calc MetricsCalculator) *StatComparator {
	return newStatComparator(processor.Base{
		Short: "Contrast",
		Key:   "K",
		Desc:  "RMS contrast: standard deviation of luma.",
	}, calc,
		statRow{"RMS contrast", "%.4f", func(s ImageStats) float64 { return s.Contrast }},
		statRow{"Luma variance", "%.4f", func(s ImageStats) float64 { return s.Variance }},
	)
}

func NewProximityComparator(calc MetricsCalculator) *StatComparator {
	return newStatComparator(processor.Base{
		Short: "Proximity To Origin",
		Key:   "O",
		Desc:  "Distance of the mean color from black in RGB space.",
	}, calc,
		statRow{"Mean color (R)", "%.3f", func(s ImageStats) float64 { return s.MeanR }},
		statRow{"Mean color (G)", "%.3f", func(s ImageStats) float64 { return s.MeanG }},
		statRow{"Mean color (B)", "%.3f", func(s ImageStats) float64 { return s.MeanB }},
		statRow{"Distance from black", "%.4f", func(s ImageStats) float64 { return s.Proximity }},
		statRow{"Distance from black (%)", "%.2f%%", func(s ImageStats) float64 { return s.ProximityPercent() }},
	)
}

// ---- Linear vs non-linear ----

// LinearNonLinearDifference contrasts channel error with perceptual difference.
type LinearNonLinearDifference struct {
	comparatorBase
	calc MetricsCalculator
}

func NewLinearNonLinearDifference(calc MetricsCalculator) *LinearNonLinearDifference {
	return &LinearNonLinearDifference{
		comparatorBase: newComparatorBase(processor.Base{
			Short: "Linear vs Non-linear Difference",
			Key:   "N",
			Desc:  "Mean absolute and RMS channel error next to the mean CIEDE2000 difference.",
		}, processor.ResultText, true),
		calc: calc,
	}
}

func (c *LinearNonLinearDifference) Compare(first, second processor.Image) (processor.Result, error) {
	if err := processor.ValidateImages(first, second); err != nil {
		return processor.Result{}, err
	}
	s := c.calc.CalculatePairStats(first.Pixels, second.Pixels)
	t := newHTMLTable(c.FullName(), "Measure", "Kind", "Value")
	t.row("Mean absolute error", "linear", fmt.Sprintf("%.4f", s.MAE))
	t.row("Root mean square error", "linear", fmt.Sprintf("%.4f", s.RMSE))
	t.row("Mean CIEDE2000", "non-linear", fmt.Sprintf("%.4f", s.DeltaE))
	t.row("Max CIEDE2000", "non-linear", fmt.Sprintf("%.4f", s.MaxDeltaE))
	return processor.NewTextResult(pairCaption(first, second) + t.String()), nil
}
