package analyzer

import (
	"fmt"
	"image"
	"image/color"
)

// MaxDifference is the largest per-pixel difference value.
const MaxDifference = 255

// DifferenceRange is an inclusive band of pixel difference values.
type DifferenceRange struct {
	Min   int
	Max   int
	Color color.NRGBA
	Label string
}

func (r DifferenceRange) String() string {
	if r.Min == r.Max {
		return fmt.Sprintf("%d", r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Bands partitions [0, MaxDifference] into ordered ranges.
type Bands struct {
	ranges []DifferenceRange
	lookup [MaxDifference + 1]uint8
}

// NewBands validates that ranges cover 0..MaxDifference in order with no gap
// and no overlap.
func NewBands(ranges []DifferenceRange) (*Bands, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("at least one difference range is required")
	}
	if len(ranges) > 256 {
		return nil, fmt.Errorf("too many difference ranges: %d", len(ranges))
	}
	b := &Bands{ranges: make([]DifferenceRange, len(ranges))}
	copy(b.ranges, ranges)

	next := 0
	for i, r := range b.ranges {
		if r.Min != next {
			return nil, fmt.Errorf("range %d starts at %d, expected %d", i, r.Min, next)
		}
		if r.Max < r.Min {
			return nil, fmt.Errorf("range %d is inverted: %d > %d", i, r.Min, r.Max)
		}
		if r.Max > MaxDifference {
			return nil, fmt.Errorf("range %d ends past %d", i, MaxDifference)
		}
		for v := r.Min; v <= r.Max; v++ {
			b.lookup[v] = uint8(i)
		}
		next = r.Max + 1
	}
	if next != MaxDifference+1 {
		return nil, fmt.Errorf("ranges end at %d, expected %d", next-1, MaxDifference)
	}
	return b, nil
}

func mustBands(ranges []DifferenceRange) *Bands {
	b, err := NewBands(ranges)
	if err != nil {
		panic(err)
	}
	return b
}

var (
	simpleBands = mustBands([]DifferenceRange{
		{Min: 0, Max: 0, Color: color.NRGBA{0, 0, 0, 255}, Label: "Identical"},
		{Min: 1, Max: 10, Color: color.NRGBA{0, 200, 0, 255}, Label: "Slight"},
		{Min: 11, Max: 50, Color: color.NRGBA{255, 220, 0, 255}, Label: "Noticeable"},
		{Min: 51, Max: 255, Color: color.NRGBA{255, 0, 0, 255}, Label: "Strong"},
	})

	advancedBands = mustBands([]DifferenceRange{
		{Min: 0, Max: 0, Color: color.NRGBA{0, 0, 0, 255}, Label: "Identical"},
		{Min: 1, Max: 2, Color: color.NRGBA{0, 0, 128, 255}, Label: "Negligible"},
		{Min: 3, Max: 5, Color: color.NRGBA{0, 0, 255, 255}, Label: "Very slight"},
		{Min: 6, Max: 10, Color: color.NRGBA{0, 160, 255, 255}, Label: "Slight"},
		{Min: 11, Max: 20, Color: color.NRGBA{0, 200, 120, 255}, Label: "Mild"},
		{Min: 21, Max: 35, Color: color.NRGBA{0, 230, 0, 255}, Label: "Moderate"},
		{Min: 36, Max: 60, Color: color.NRGBA{200, 230, 0, 255}, Label: "Noticeable"},
		{Min: 61, Max: 100, Color: color.NRGBA{255, 170, 0, 255}, Label: "Large"},
		{Min: 101, Max: 160, Color: color.NRGBA{255, 80, 0, 255}, Label: "Very large"},
		{Min: 161, Max: 255, Color: color.NRGBA{255, 0, 0, 255}, Label: "Extreme"},
	})
)

// SimpleBands returns the four-band scale.
func SimpleBands() *Bands { return simpleBands }

// AdvancedBands returns the ten-band scale.
func AdvancedBands() *Bands { return advancedBands }

var customBandColors = [4]color.NRGBA{
	{0, 0, 0, 255},
	{0, 200, 0, 255},
	{255, 220, 0, 255},
	{255, 0, 0, 255},
}

// CustomBands builds four bands split after low, medium and high. The
// thresholds must be strictly increasing and below MaxDifference.
func CustomBands(low, medium, high int) (*Bands, error) {
	if low < 0 || !(low < medium && medium < high) || high >= MaxDifference {
		return nil, fmt.Errorf("thresholds must satisfy 0 <= low < medium < high < %d (got %d, %d, %d)",
			MaxDifference, low, medium, high)
	}
	return NewBands([]DifferenceRange{
		{Min: 0, Max: low, Color: customBandColors[0], Label: "Low"},
		{Min: low + 1, Max: medium, Color: customBandColors[1], Label: "Medium"},
		{Min: medium + 1, Max: high, Color: customBandColors[2], Label: "High"},
		{Min: high + 1, Max: MaxDifference, Color: customBandColors[3], Label: "Above high"},
	})
}

// Ranges returns a copy of the bands in ascending order.
func (b *Bands) Ranges() []DifferenceRange {
	out := make([]DifferenceRange, len(b.ranges))
	copy(out, b.ranges)
	return out
}

// Index returns the band claiming difference value d.
func (b *Bands) Index(d uint8) int {
	return int(b.lookup[d])
}

// Histogram counts the pixels falling in each band.
func (b *Bands) Histogram(first, second *image.NRGBA) []int {
	counts := make([]int, len(b.ranges))
	forEachDifference(first, second, func(_, _ int, d uint8) {
		counts[b.lookup[d]]++
	})
	return counts
}

// Render paints every pixel with the color of its band.
func (b *Bands) Render(first, second *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, first.Bounds().Dx(), first.Bounds().Dy()))
	forEachDifference(first, second, func(x, y int, d uint8) {
		out.SetNRGBA(x, y, b.ranges[b.lookup[d]].Color)
	})
	return out
}

// PixelDifference is the largest absolute RGB channel difference. Alpha is
// ignored.
func PixelDifference(a, b color.NRGBA) uint8 {
	return max(absDiff(a.R, b.R), absDiff(a.G, b.G), absDiff(a.B, b.B))
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// forEachDifference visits every pixel position with zero-based coordinates.
func forEachDifference(first, second *image.NRGBA, fn func(x, y int, d uint8)) {
	width, height := first.Bounds().Dx(), first.Bounds().Dy()
	for y := 0; y < height; y++ {
		ra, rb := rowPix(first, y), rowPix(second, y)
		for x := 0; x < width; x++ {
			i := x * 4
			d := max(absDiff(ra[i], rb[i]), absDiff(ra[i+1], rb[i+1]), absDiff(ra[i+2], rb[i+2]))
			fn(x, y, d)
		}
	}
}
