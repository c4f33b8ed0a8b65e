package factory

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/image-compare-go/internal/analyzer"
	"github.com/anime-shed/image-compare-go/internal/filter"
	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/registry"
)

// AlgorithmID identifies a built-in processor
type AlgorithmID int

const (
	MonoDifference AlgorithmID = iota
	DifferenceReport
	DifferenceMap
	CustomRangeDifference
	AbsoluteDifference
	Saturation
	Sharpness
	Brightness
	Contrast
	ProximityToOrigin
	LinearNonLinearDifference
	TextDifference
	ShowRedChannel
	ShowGreenChannel
	ShowBlueChannel
	Grayscale
)

var algorithmNames = map[AlgorithmID]string{
	MonoDifference:            "mono_difference",
	DifferenceReport:          "difference_report",
	DifferenceMap:             "difference_map",
	CustomRangeDifference:     "custom_range_difference",
	AbsoluteDifference:        "absolute_difference",
	Saturation:                "saturation",
	Sharpness:                 "sharpness",
	Brightness:                "brightness",
	Contrast:                  "contrast",
	ProximityToOrigin:         "proximity_to_origin",
	LinearNonLinearDifference: "linear_non_linear_difference",
	TextDifference:            "text_difference",
	ShowRedChannel:            "show_red_channel",
	ShowGreenChannel:          "show_green_channel",
	ShowBlueChannel:           "show_blue_channel",
	Grayscale:                 "grayscale",
}

func (id AlgorithmID) String() string {
	if name, ok := algorithmNames[id]; ok {
		return name
	}
	return fmt.Sprintf("algorithm(%d)", int(id))
}

// Dependencies are the collaborators some built-ins need.
type Dependencies struct {
	Metrics    analyzer.MetricsCalculator
	Recognizer analyzer.TextRecognizer
}

// Catalog is the registration table of built-in processors in menu order.
// TextDifference is only included when OCR is available.
func Catalog(withOCR bool) []AlgorithmID {
	ids := []AlgorithmID{
		MonoDifference,
		DifferenceReport,
		DifferenceMap,
		CustomRangeDifference,
		AbsoluteDifference,
		Saturation,
		Sharpness,
		Brightness,
		Contrast,
		ProximityToOrigin,
		LinearNonLinearDifference,
	}
	if withOCR {
		ids = append(ids, TextDifference)
	}
	return append(ids, ShowRedChannel, ShowGreenChannel, ShowBlueChannel, Grayscale)
}

// NewProcessor constructs the built-in identified by id.
func NewProcessor(id AlgorithmID, deps Dependencies) (processor.Processor, error) {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = analyzer.NewMetricsCalculator()
	}

	switch id {
	case MonoDifference:
		return analyzer.NewMonoDifference(), nil
	case DifferenceReport:
		return analyzer.NewDifferenceReport(), nil
	case DifferenceMap:
		return analyzer.NewDifferenceMap(), nil
	case CustomRangeDifference:
		return analyzer.NewCustomRangeDifference(), nil
	case AbsoluteDifference:
		return analyzer.NewAbsoluteDifference(), nil
	case Saturation:
		return analyzer.NewSaturationComparator(metrics), nil
	case Sharpness:
		return analyzer.NewSharpnessComparator(metrics), nil
	case Brightness:
		return analyzer.NewBrightnessComparator(metrics), nil
	case Contrast:
		return analyzer.NewContrastComparator(metrics), nil
	case ProximityToOrigin:
		return analyzer.NewProximityComparator(metrics), nil
	case LinearNonLinearDifference:
		return analyzer.NewLinearNonLinearDifference(metrics), nil
	case TextDifference:
		if deps.Recognizer == nil {
			return nil, fmt.Errorf("%s needs a text recognizer", id)
		}
		return analyzer.NewTextDifference(deps.Recognizer), nil
	case ShowRedChannel:
		return filter.NewChannelFilter(filter.Red), nil
	case ShowGreenChannel:
		return filter.NewChannelFilter(filter.Green), nil
	case ShowBlueChannel:
		return filter.NewChannelFilter(filter.Blue), nil
	case Grayscale:
		return filter.NewGrayscale(), nil
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", id)
	}
}

// NewRegistry builds a registry holding the processors in ids, in order.
func NewRegistry(ids []AlgorithmID, deps Dependencies, store registry.EnablementStore, logger logrus.FieldLogger) (*registry.Registry, error) {
	reg := registry.New(store, logger)
	for _, id := range ids {
		p, err := NewProcessor(id, deps)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(p); err != nil {
			return nil, fmt.Errorf("register %s: %w", id, err)
		}
	}
	return reg, nil
}
