package processor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
	"github.com/anime-shed/image-compare-go/internal/property"
)

func createTestImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNewImageCopiesPixels(t *testing.T) {
	src := createTestImage(2, 2, color.NRGBA{R: 10, A: 255})
	img := NewImage(src, "/data/shots/before.png")

	src.SetNRGBA(0, 0, color.NRGBA{G: 99, A: 255})
	assert.Equal(t, uint8(10), img.Pixels.NRGBAAt(0, 0).R)
	assert.Equal(t, "before.png", img.Name)
	assert.Equal(t, "before", img.BaseName())
}

func TestNewImageFromRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 8, 7))
	img := NewImage(src, "x.png")
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}

func TestNewPairValidation(t *testing.T) {
	a := NewImage(createTestImage(4, 3, color.NRGBA{A: 255}), "a.png")
	b := NewImage(createTestImage(4, 3, color.NRGBA{A: 255}), "b.png")
	c := NewImage(createTestImage(3, 4, color.NRGBA{A: 255}), "c.png")

	tests := []struct {
		name    string
		first   Image
		second  Image
		wantErr bool
	}{
		{"matching", a, b, false},
		{"mismatched dimensions", a, c, true},
		{"empty first", Image{}, b, true},
		{"zero area", NewImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)), "z.png"), b, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPair(tt.first, tt.second)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPairCrop(t *testing.T) {
	first := createTestImage(10, 10, color.NRGBA{R: 200, A: 255})
	first.SetNRGBA(3, 4, color.NRGBA{B: 255, A: 255})
	pair, err := NewPair(NewImage(first, "a.png"), NewImage(createTestImage(10, 10, color.NRGBA{A: 255}), "b.png"))
	require.NoError(t, err)

	area, err := pair.Crop(image.Rect(3, 4, 6, 8))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(3, 4), area.Size())
	assert.Equal(t, uint8(255), area.First.Pixels.NRGBAAt(0, 0).B)
	assert.Equal(t, "a.png", area.First.Name)

	clipped, err := pair.Crop(image.Rect(8, 8, 20, 20))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(2, 2), clipped.Size())

	_, err = pair.Crop(image.Rect(20, 20, 30, 30))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestPairNames(t *testing.T) {
	pair := Pair{
		First:  NewImage(createTestImage(1, 1, color.NRGBA{}), "/tmp/left.jpg"),
		Second: NewImage(createTestImage(1, 1, color.NRGBA{}), "/tmp/right.png"),
	}
	assert.Equal(t, "left_vs_right_comparison_report", pair.ReportDirName())
	assert.Equal(t, "left_vs_right_comparison", pair.ResultFileName(false))
	assert.Equal(t, "left_vs_right_comparison_area", pair.ResultFileName(true))
}

func TestResultVariants(t *testing.T) {
	img := NewImageResult(createTestImage(1, 1, color.NRGBA{}))
	assert.Equal(t, ResultImage, img.Kind())
	assert.Empty(t, img.Text())
	assert.False(t, img.Empty())

	txt := NewTextResult("<p>ok</p>")
	assert.Equal(t, ResultText, txt.Kind())
	assert.Nil(t, txt.Image())
	assert.False(t, txt.Empty())

	assert.True(t, NewTextResult("  \n").Empty())
	assert.True(t, NewImageResult(nil).Empty())
	assert.True(t, Result{}.Empty())
}

type stubComparator struct {
	Base
	Toggle
}

func (s *stubComparator) Kind() Kind                              { return KindComparator }
func (s *stubComparator) ResultKind() ResultKind                  { return ResultText }
func (s *stubComparator) DefaultProperties() []property.Property  { return nil }
func (s *stubComparator) SetProperties(props []property.Property) {}
func (s *stubComparator) Reset()                                  {}
func (s *stubComparator) PartOfAutoReporting() bool               { return true }

func (s *stubComparator) Compare(first, second Image) (Result, error) {
	return NewTextResult("x"), nil
}

func TestDescribe(t *testing.T) {
	c := &stubComparator{Base: Base{Short: "Stub", Key: "Z", Desc: "stub comparator"}, Toggle: NewToggle()}
	c.SetEnabled(false)

	info := Describe(c)
	assert.Equal(t, "Stub", info.ShortName)
	assert.Equal(t, "Stub", info.FullName)
	assert.Equal(t, "comparator", info.Kind)
	assert.Equal(t, "text", info.ResultKind)
	assert.True(t, info.PartOfAutoReporting)
	assert.False(t, info.Enabled)
}
