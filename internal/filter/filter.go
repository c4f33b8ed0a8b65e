// Package filter implements single-image transforms applied to both images
// of the displayed pair.
package filter

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/property"
)

// Channel selects one of the RGB channels.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

func (c Channel) String() string {
	switch c {
	case Red:
		return "Red"
	case Green:
		return "Green"
	case Blue:
		return "Blue"
	default:
		return "Unknown"
	}
}

func (c Channel) hotkey() string {
	return c.String()[:1]
}

const (
	colorModeName = "Color mode"
	modeColored   = "Colored"
	modeGrayscale = "Grayscale"
)

type filterBase struct {
	processor.Base
}

func (filterBase) Kind() processor.Kind { return processor.KindFilter }

func validate(img *image.NRGBA) error {
	if img == nil || img.Bounds().Empty() {
		return apperrors.NewValidationError("cannot filter an empty image", nil)
	}
	return nil
}

// ChannelFilter keeps a single RGB channel. In grayscale mode the channel's
// intensity is copied onto all three channels.
type ChannelFilter struct {
	filterBase
	channel Channel
	colored bool
}

func NewChannelFilter(ch Channel) *ChannelFilter {
	f := &ChannelFilter{
		filterBase: filterBase{processor.Base{
			Short: fmt.Sprintf("Show %s Channel", ch),
			Key:   ch.hotkey(),
			Desc:  fmt.Sprintf("Leaves only the %s channel on the RGB image.", ch),
		}},
		channel: ch,
	}
	f.Reset()
	return f
}

func (f *ChannelFilter) DefaultProperties() []property.Property {
	return []property.Property{
		property.NewAlternatives(colorModeName, "How the isolated channel is shown", []string{modeColored, modeGrayscale}, 0),
	}
}

// SetProperties accepts exactly one "Color mode" alternatives property.
func (f *ChannelFilter) SetProperties(props []property.Property) {
	if !property.SameShape(props, f.DefaultProperties()) {
		return
	}
	f.colored = props[0].Selected() == modeColored
}

func (f *ChannelFilter) Reset() { f.colored = true }

// Colored reports whether the filter is in colored mode.
func (f *ChannelFilter) Colored() bool { return f.colored }

func (f *ChannelFilter) Filter(img *image.NRGBA) (*image.NRGBA, error) {
	if err := validate(img); err != nil {
		return nil, err
	}
	out := imaging.Clone(img)
	c := int(f.channel)
	for i := 0; i < len(out.Pix); i += 4 {
		v := out.Pix[i+c]
		if f.colored {
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = 0, 0, 0
			out.Pix[i+c] = v
		} else {
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = v, v, v
		}
	}
	return out, nil
}

// Grayscale converts with BT.601 luma weights, preserving alpha.
type Grayscale struct {
	filterBase
}

func NewGrayscale() *Grayscale {
	return &Grayscale{filterBase{processor.Base{
		Short: "Grayscale",
		Key:   "Y",
		Desc:  "Converts the image to grayscale using luma weights.",
	}}}
}

func (f *Grayscale) DefaultProperties() []property.Property  { return nil }
func (f *Grayscale) SetProperties(props []property.Property) {}
func (f *Grayscale) Reset()                                  {}

func (f *Grayscale) Filter(img *image.NRGBA) (*image.NRGBA, error) {
	if err := validate(img); err != nil {
		return nil, err
	}
	return imaging.Grayscale(img), nil
}
