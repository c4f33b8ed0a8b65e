package analyzer

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinBandsPartitionDomain(t *testing.T) {
	for name, bands := range map[string]*Bands{"simple": SimpleBands(), "advanced": AdvancedBands()} {
		t.Run(name, func(t *testing.T) {
			ranges := bands.Ranges()
			for v := 0; v <= MaxDifference; v++ {
				claimed := 0
				for _, r := range ranges {
					if v >= r.Min && v <= r.Max {
						claimed++
					}
				}
				assert.Equal(t, 1, claimed, "value %d", v)
				idx := bands.Index(uint8(v))
				assert.True(t, v >= ranges[idx].Min && v <= ranges[idx].Max, "lookup for %d", v)
			}
			assert.Equal(t, MaxDifference, ranges[len(ranges)-1].Max)
		})
	}
}

func TestBandColorsAreDistinct(t *testing.T) {
	for _, bands := range []*Bands{SimpleBands(), AdvancedBands()} {
		seen := map[color.NRGBA]bool{}
		for _, r := range bands.Ranges() {
			assert.False(t, seen[r.Color], "duplicate color for %s", r)
			seen[r.Color] = true
		}
	}
}

func TestNewBandsRejectsInvalidPartitions(t *testing.T) {
	tests := []struct {
		name   string
		ranges []DifferenceRange
	}{
		{"empty", nil},
		{"gap", []DifferenceRange{{Min: 0, Max: 10}, {Min: 12, Max: 255}}},
		{"overlap", []DifferenceRange{{Min: 0, Max: 10}, {Min: 10, Max: 255}}},
		{"short", []DifferenceRange{{Min: 0, Max: 254}}},
		{"past max", []DifferenceRange{{Min: 0, Max: 256}}},
		{"inverted", []DifferenceRange{{Min: 0, Max: 5}, {Min: 6, Max: 3}}},
		{"not starting at zero", []DifferenceRange{{Min: 1, Max: 255}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBands(tt.ranges)
			assert.Error(t, err)
		})
	}
}

func TestCustomBands(t *testing.T) {
	bands, err := CustomBands(10, 30, 80)
	require.NoError(t, err)
	assert.Equal(t, 0, bands.Index(10))
	assert.Equal(t, 1, bands.Index(11))
	assert.Equal(t, 2, bands.Index(80))
	assert.Equal(t, 3, bands.Index(255))

	for _, th := range [][3]int{{30, 10, 80}, {10, 10, 80}, {-1, 5, 9}, {10, 30, 255}} {
		_, err := CustomBands(th[0], th[1], th[2])
		assert.Error(t, err, "thresholds %v", th)
	}
}

func TestPixelDifference(t *testing.T) {
	a := color.NRGBA{10, 200, 30, 255}
	b := color.NRGBA{15, 100, 30, 0}
	assert.Equal(t, uint8(100), PixelDifference(a, b))
	assert.Equal(t, uint8(100), PixelDifference(b, a))
	assert.Equal(t, uint8(0), PixelDifference(a, color.NRGBA{10, 200, 30, 0}))
}

func TestHistogramConstantChannelOffset(t *testing.T) {
	first := gradientImage(16, 16)
	second := gradientImage(16, 16)
	for i := 2; i < len(second.Pix); i += 4 {
		second.Pix[i] += 7
	}

	for _, bands := range []*Bands{SimpleBands(), AdvancedBands()} {
		counts := bands.Histogram(first, second)
		want := bands.Index(7)
		for i, c := range counts {
			if i == want {
				assert.Equal(t, 256, c)
			} else {
				assert.Zero(t, c)
			}
		}
	}
}

func TestRenderPaintsBandColors(t *testing.T) {
	first := solidImage(3, 2, color.NRGBA{100, 100, 100, 255})
	second := solidImage(3, 2, color.NRGBA{100, 100, 100, 255})
	second.SetNRGBA(2, 1, color.NRGBA{255, 100, 100, 255})

	out := SimpleBands().Render(first, second)
	ranges := SimpleBands().Ranges()
	assert.Equal(t, ranges[0].Color, out.NRGBAAt(0, 0))
	assert.Equal(t, ranges[3].Color, out.NRGBAAt(2, 1))
}
