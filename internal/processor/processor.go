// Package processor defines the contract shared by every comparison
// algorithm and image filter.
//
// The set of processor variants is closed: a Processor is either a
// Comparator or a Filter, and callers dispatch with a type switch over those
// two interfaces.
package processor

import (
	"image"

	"github.com/anime-shed/image-compare-go/internal/property"
)

// Kind tags a processor as a comparator or a filter.
type Kind int

const (
	KindComparator Kind = iota
	KindFilter
)

func (k Kind) String() string {
	switch k {
	case KindComparator:
		return "comparator"
	case KindFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// Processor is the identity and configuration surface shared by all variants.
type Processor interface {
	ShortName() string
	FullName() string
	// Hotkey is a single character, or "" when the processor has no shortcut.
	Hotkey() string
	Description() string
	Kind() Kind
	DefaultProperties() []property.Property
	// SetProperties replaces the current configuration. A list whose shape
	// the processor does not recognise is ignored.
	SetProperties(props []property.Property)
	// Reset discards per-run state, including any property override.
	Reset()
}

// Comparator analyses two images.
type Comparator interface {
	Processor
	ResultKind() ResultKind
	Compare(first, second Image) (Result, error)
	// PartOfAutoReporting is fixed per algorithm type.
	PartOfAutoReporting() bool
	Enabled() bool
	SetEnabled(enabled bool)
}

// Filter transforms a single image.
type Filter interface {
	Processor
	Filter(img *image.NRGBA) (*image.NRGBA, error)
}

// Info is a read-only snapshot of a processor for listings.
type Info struct {
	ShortName           string              `json:"short_name"`
	FullName            string              `json:"full_name"`
	Hotkey              string              `json:"hotkey,omitempty"`
	Description         string              `json:"description"`
	Kind                string              `json:"kind"`
	ResultKind          string              `json:"result_kind,omitempty"`
	PartOfAutoReporting bool                `json:"part_of_auto_reporting"`
	Enabled             bool                `json:"enabled"`
	Properties          []property.Property `json:"-"`
}

// Describe builds an Info snapshot for p.
func Describe(p Processor) Info {
	info := Info{
		ShortName:   p.ShortName(),
		FullName:    p.FullName(),
		Hotkey:      p.Hotkey(),
		Description: p.Description(),
		Kind:        p.Kind().String(),
		Properties:  p.DefaultProperties(),
	}
	if c, ok := p.(Comparator); ok {
		info.ResultKind = c.ResultKind().String()
		info.PartOfAutoReporting = c.PartOfAutoReporting()
		info.Enabled = c.Enabled()
	}
	return info
}

// Base carries the identity fields common to all built-in processors.
type Base struct {
	Short string
	Full  string
	Key   string
	Desc  string
}

func (b Base) ShortName() string { return b.Short }

func (b Base) FullName() string {
	if b.Full == "" {
		return b.Short
	}
	return b.Full
}

func (b Base) Hotkey() string      { return b.Key }
func (b Base) Description() string { return b.Desc }

// Toggle holds the batch-report enablement of a comparator.
type Toggle struct {
	enabled bool
}

// NewToggle returns a toggle that starts enabled.
func NewToggle() Toggle { return Toggle{enabled: true} }

func (t *Toggle) Enabled() bool           { return t.enabled }
func (t *Toggle) SetEnabled(enabled bool) { t.enabled = enabled }
