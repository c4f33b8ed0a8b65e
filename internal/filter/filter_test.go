package filter

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/property"
)

func sampleImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(40 * x), uint8(70 * y), 200, uint8(100 + 30*x)})
		}
	}
	return img
}

func grayscaleMode(t *testing.T, f processor.Filter) []property.Property {
	t.Helper()
	p, ok := f.DefaultProperties()[0].WithChoice("Grayscale")
	require.True(t, ok)
	return []property.Property{p}
}

func TestChannelFilterIdentity(t *testing.T) {
	tests := []struct {
		ch     Channel
		name   string
		hotkey string
	}{
		{Red, "Show Red Channel", "R"},
		{Green, "Show Green Channel", "G"},
		{Blue, "Show Blue Channel", "B"},
	}
	for _, tt := range tests {
		f := NewChannelFilter(tt.ch)
		assert.Equal(t, tt.name, f.ShortName())
		assert.Equal(t, tt.hotkey, f.Hotkey())
		assert.Equal(t, processor.KindFilter, f.Kind())
		assert.Contains(t, f.Description(), tt.ch.String())
	}
}

func TestChannelFilterColored(t *testing.T) {
	src := sampleImage()
	out, err := NewChannelFilter(Green).Filter(src)
	require.NoError(t, err)

	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			in, got := src.NRGBAAt(x, y), out.NRGBAAt(x, y)
			assert.Equal(t, color.NRGBA{0, in.G, 0, in.A}, got)
		}
	}
}

func TestChannelFilterGrayscaleMode(t *testing.T) {
	f := NewChannelFilter(Blue)
	f.SetProperties(grayscaleMode(t, f))
	assert.False(t, f.Colored())

	src := sampleImage()
	out, err := f.Filter(src)
	require.NoError(t, err)
	px := out.NRGBAAt(2, 1)
	assert.Equal(t, color.NRGBA{200, 200, 200, src.NRGBAAt(2, 1).A}, px)

	f.Reset()
	assert.True(t, f.Colored())
}

func TestChannelFilterDoesNotMutateInput(t *testing.T) {
	src := sampleImage()
	before := append([]uint8(nil), src.Pix...)
	_, err := NewChannelFilter(Red).Filter(src)
	require.NoError(t, err)
	assert.Equal(t, before, src.Pix)
}

func TestFiltersAreIdempotent(t *testing.T) {
	gray := NewChannelFilter(Red)
	gray.SetProperties(grayscaleMode(t, gray))

	for name, f := range map[string]processor.Filter{
		"red colored":    NewChannelFilter(Red),
		"green colored":  NewChannelFilter(Green),
		"red grayscale":  gray,
		"luma grayscale": NewGrayscale(),
	} {
		t.Run(name, func(t *testing.T) {
			once, err := f.Filter(sampleImage())
			require.NoError(t, err)
			twice, err := f.Filter(once)
			require.NoError(t, err)
			assert.Equal(t, once.Pix, twice.Pix)
		})
	}
}

func TestChannelFilterIgnoresUnexpectedProperties(t *testing.T) {
	f := NewChannelFilter(Red)
	f.SetProperties(nil)
	f.SetProperties([]property.Property{property.NewIntRange("Color mode", "", 1, 0, 1)})
	f.SetProperties([]property.Property{property.NewAlternatives("Mode", "", []string{"Colored", "Grayscale"}, 1)})
	assert.True(t, f.Colored())
}

func TestGrayscaleFilter(t *testing.T) {
	src := sampleImage()
	out, err := NewGrayscale().Filter(src)
	require.NoError(t, err)

	px := out.NRGBAAt(1, 2)
	assert.Equal(t, px.R, px.G)
	assert.Equal(t, px.G, px.B)
	assert.Equal(t, src.NRGBAAt(1, 2).A, px.A)
}

func TestFilterRejectsEmptyImage(t *testing.T) {
	for _, f := range []processor.Filter{NewChannelFilter(Red), NewGrayscale()} {
		_, err := f.Filter(nil)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		_, err = f.Filter(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	}
}
