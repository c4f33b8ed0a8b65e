package processor

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
)

// Image is an immutable 8-bit RGBA raster with a display identity.
type Image struct {
	Pixels *image.NRGBA
	Path   string
	Name   string
}

// NewImage copies img into an NRGBA raster. The display name defaults to the
// base name of path.
func NewImage(img image.Image, path string) Image {
	var px *image.NRGBA
	if img != nil {
		px = imaging.Clone(img)
	}
	return Image{Pixels: px, Path: path, Name: filepath.Base(path)}
}

// WithPixels returns an image sharing this identity but holding px.
func (i Image) WithPixels(px *image.NRGBA) Image {
	i.Pixels = px
	return i
}

// Empty reports whether the image holds no pixels.
func (i Image) Empty() bool {
	return i.Pixels == nil || i.Pixels.Bounds().Empty()
}

// Bounds returns the pixel bounds, or an empty rectangle.
func (i Image) Bounds() image.Rectangle {
	if i.Pixels == nil {
		return image.Rectangle{}
	}
	return i.Pixels.Bounds()
}

// DisplayName returns Name, falling back to the path.
func (i Image) DisplayName() string {
	if i.Name != "" && i.Name != "." {
		return i.Name
	}
	return i.Path
}

// BaseName is the display name without its extension.
func (i Image) BaseName() string {
	name := i.DisplayName()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Pair holds two images of identical dimensions.
type Pair struct {
	First  Image
	Second Image
}

// NewPair validates that both images are non-empty and equally sized.
func NewPair(first, second Image) (Pair, error) {
	if err := ValidateImages(first, second); err != nil {
		return Pair{}, err
	}
	return Pair{First: first, Second: second}, nil
}

// ValidateImages reports a validation error for empty or mismatched images.
func ValidateImages(first, second Image) error {
	if first.Empty() || second.Empty() {
		return apperrors.NewValidationError("both images must be non-empty", nil)
	}
	a, b := first.Bounds().Size(), second.Bounds().Size()
	if a != b {
		return apperrors.NewValidationError(
			fmt.Sprintf("image dimensions differ: %dx%d vs %dx%d", a.X, a.Y, b.X, b.Y), nil)
	}
	return nil
}

// Empty reports whether the pair has not been loaded.
func (p Pair) Empty() bool {
	return p.First.Empty() || p.Second.Empty()
}

// Size returns the shared dimensions.
func (p Pair) Size() image.Point {
	return p.First.Bounds().Size()
}

// Crop returns the sub-region rect of both images. rect is in the pair's
// pixel coordinates and is intersected with the image bounds.
func (p Pair) Crop(rect image.Rectangle) (Pair, error) {
	if p.Empty() {
		return Pair{}, apperrors.NewValidationError("no images loaded", nil)
	}
	area := rect.Canon().Intersect(p.First.Bounds())
	if area.Empty() {
		return Pair{}, apperrors.NewValidationError(
			fmt.Sprintf("selected area %v lies outside the images", rect), nil)
	}
	return Pair{
		First:  p.First.WithPixels(imaging.Crop(p.First.Pixels, area)),
		Second: p.Second.WithPixels(imaging.Crop(p.Second.Pixels, area)),
	}, nil
}

// ReportDirName names the batch report output directory for the pair.
func (p Pair) ReportDirName() string {
	return fmt.Sprintf("%s_vs_%s_comparison_report", p.First.BaseName(), p.Second.BaseName())
}

// ResultFileName names a saved comparison image for the pair.
func (p Pair) ResultFileName(area bool) string {
	name := fmt.Sprintf("%s_vs_%s_comparison", p.First.BaseName(), p.Second.BaseName())
	if area {
		name += "_area"
	}
	return name
}
