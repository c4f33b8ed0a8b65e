package service

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/image-compare-go/internal/analyzer"
	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
	"github.com/anime-shed/image-compare-go/internal/filter"
	"github.com/anime-shed/image-compare-go/internal/observer"
	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/property"
	"github.com/anime-shed/image-compare-go/internal/registry"
	"github.com/anime-shed/image-compare-go/internal/strategy"
)

// scriptedComparator returns whatever its compare function produces and
// counts lifecycle calls.
type scriptedComparator struct {
	processor.Base
	processor.Toggle
	kind     processor.ResultKind
	props    []property.Property
	compare  func(first, second processor.Image) (processor.Result, error)
	resets   int
	setCalls int
	lastSet  []property.Property
}

func (s *scriptedComparator) Kind() processor.Kind                   { return processor.KindComparator }
func (s *scriptedComparator) ResultKind() processor.ResultKind       { return s.kind }
func (s *scriptedComparator) DefaultProperties() []property.Property { return s.props }
func (s *scriptedComparator) PartOfAutoReporting() bool              { return true }
func (s *scriptedComparator) Reset()                                 { s.resets++ }

func (s *scriptedComparator) SetProperties(props []property.Property) {
	s.setCalls++
	s.lastSet = props
}

func (s *scriptedComparator) Compare(first, second processor.Image) (processor.Result, error) {
	return s.compare(first, second)
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func testPair(t *testing.T) processor.Pair {
	t.Helper()
	pair, err := processor.NewPair(
		processor.NewImage(solid(8, 6, color.NRGBA{200, 40, 10, 255}), "/shots/before.png"),
		processor.NewImage(solid(8, 6, color.NRGBA{190, 60, 10, 255}), "/shots/after.png"),
	)
	require.NoError(t, err)
	return pair
}

type fixture struct {
	svc      ProcessingService
	registry *registry.Registry
	events   *observer.Recorder
	prompt   *strategy.ValuesStrategy
}

func newFixture(t *testing.T, procs ...processor.Processor) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	reg := registry.New(nil, logger)
	for _, p := range procs {
		require.NoError(t, reg.Add(p))
	}
	prompt := strategy.NewValuesStrategy(nil, logger)
	svc := NewProcessingService(reg, prompt, observer.NewEventPublisher(logger), logger)
	events := observer.NewRecorder("test")
	require.True(t, svc.Subscribe(context.Background(), events))
	events.Reset()
	return &fixture{svc: svc, registry: reg, events: events, prompt: prompt}
}

func eventTypes(events []observer.ProcessingEvent) []observer.EventType {
	out := make([]observer.EventType, len(events))
	for i, e := range events {
		out[i] = e.EventType
	}
	return out
}

func TestRunUnknownProcessor(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Load(context.Background(), testPair(t)))
	f.events.Reset()

	_, err := f.svc.Run(context.Background(), "Nope")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeResolution))

	e, ok := f.events.Last(observer.ProcessingFailed)
	require.True(t, ok)
	assert.Contains(t, e.ErrorMessage, "Nope")
}

func TestRunWithoutImages(t *testing.T) {
	f := newFixture(t, analyzer.NewDifferenceMap())
	_, err := f.svc.Run(context.Background(), "Difference Map")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestLoadRejectsMismatchedPair(t *testing.T) {
	f := newFixture(t)
	bad := processor.Pair{
		First:  processor.NewImage(solid(2, 2, color.NRGBA{A: 255}), "a.png"),
		Second: processor.NewImage(solid(3, 2, color.NRGBA{A: 255}), "b.png"),
	}
	err := f.svc.Load(context.Background(), bad)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.True(t, f.svc.Original().Empty())
}

func TestRunTextComparator(t *testing.T) {
	f := newFixture(t, analyzer.NewBrightnessComparator(analyzer.NewMetricsCalculator()))
	pair := testPair(t)
	require.NoError(t, f.svc.Load(context.Background(), pair))
	f.events.Reset()

	out, err := f.svc.Run(context.Background(), "Brightness")
	require.NoError(t, err)
	assert.Equal(t, RouteText, out.Route)
	assert.NotEmpty(t, out.Text)
	assert.Nil(t, out.Image)

	e, ok := f.events.Last(observer.TextResultLoaded)
	require.True(t, ok)
	assert.Equal(t, "/shots/before.png", e.FirstImagePath)
	assert.Equal(t, "/shots/after.png", e.SecondImagePath)
	assert.Equal(t, out.Text, e.Text)
	assert.False(t, f.svc.ShowLastComparisonResult(context.Background()))
}

func TestRunImageComparatorInPlace(t *testing.T) {
	f := newFixture(t, analyzer.NewDifferenceMap())
	ctx := context.Background()
	require.NoError(t, f.svc.Load(ctx, testPair(t)))
	f.events.Reset()

	out, err := f.svc.Run(ctx, "Difference Map")
	require.NoError(t, err)
	assert.Equal(t, RouteInPlace, out.Route)
	assert.Equal(t, []observer.EventType{observer.ImageResultLoaded, observer.QuickReopenChanged}, eventTypes(f.events.Events()))

	last, ok := f.svc.LastComparisonResult()
	require.True(t, ok)
	assert.Same(t, out.Image, last)

	f.events.Reset()
	assert.True(t, f.svc.ShowLastComparisonResult(ctx))
	e, ok := f.events.Last(observer.ImageResultLoaded)
	require.True(t, ok)
	assert.Same(t, out.Image, e.Image)
	assert.Equal(t, "Pixel Difference Map", e.Processor)
}

func TestRunImageOfDifferentSizeGoesToExternalViewer(t *testing.T) {
	stub := &scriptedComparator{
		Base: processor.Base{Short: "Thumbnail", Key: "Q"},
		kind: processor.ResultImage,
		compare: func(first, second processor.Image) (processor.Result, error) {
			return processor.NewImageResult(solid(2, 2, color.NRGBA{A: 255})), nil
		},
	}
	f := newFixture(t, stub)
	require.NoError(t, f.svc.Load(context.Background(), testPair(t)))
	f.events.Reset()

	out, err := f.svc.Run(context.Background(), "Thumbnail")
	require.NoError(t, err)
	assert.Equal(t, RouteExternalViewer, out.Route)
	assert.Equal(t, []observer.EventType{observer.ExternalImageResult}, eventTypes(f.events.Events()))
	_, ok := f.svc.LastComparisonResult()
	assert.False(t, ok)
}

func TestRunRejectsEmptyAndMismatchedResults(t *testing.T) {
	tests := []struct {
		name   string
		kind   processor.ResultKind
		result processor.Result
	}{
		{"blank text", processor.ResultText, processor.NewTextResult("   ")},
		{"nil image", processor.ResultImage, processor.NewImageResult(nil)},
		{"text declared image returned", processor.ResultText, processor.NewImageResult(solid(8, 6, color.NRGBA{}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.result
			stub := &scriptedComparator{
				Base: processor.Base{Short: "Stub", Key: "Q"},
				kind: tt.kind,
				compare: func(processor.Image, processor.Image) (processor.Result, error) {
					return res, nil
				},
			}
			f := newFixture(t, stub)
			require.NoError(t, f.svc.Load(context.Background(), testPair(t)))

			_, err := f.svc.Run(context.Background(), "Stub")
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeEmptyResult))
			_, ok := f.events.Last(observer.ProcessingFailed)
			assert.True(t, ok)
		})
	}
}

func TestRunWrapsCompareFailuresAndPanics(t *testing.T) {
	failing := &scriptedComparator{
		Base: processor.Base{Short: "Failing", Key: "F"},
		kind: processor.ResultText,
		compare: func(processor.Image, processor.Image) (processor.Result, error) {
			return processor.Result{}, errors.New("kernel exploded")
		},
	}
	panicking := &scriptedComparator{
		Base: processor.Base{Short: "Panicking", Key: "P"},
		kind: processor.ResultText,
		compare: func(processor.Image, processor.Image) (processor.Result, error) {
			panic("index out of range")
		},
	}
	f := newFixture(t, failing, panicking)
	require.NoError(t, f.svc.Load(context.Background(), testPair(t)))

	_, err := f.svc.Run(context.Background(), "Failing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProcessing))
	assert.ErrorContains(t, err, "kernel exploded")

	_, err = f.svc.Run(context.Background(), "Panicking")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProcessing))

	var failures int
	for _, e := range f.events.Events() {
		if e.EventType == observer.ProcessingFailed {
			failures++
		}
	}
	assert.Equal(t, 2, failures)
}

func TestRunResetsAndConfigures(t *testing.T) {
	stub := &scriptedComparator{
		Base:  processor.Base{Short: "Configurable", Key: "Q"},
		kind:  processor.ResultText,
		props: []property.Property{property.NewIntRange("Threshold", "", 4, 0, 10)},
		compare: func(processor.Image, processor.Image) (processor.Result, error) {
			return processor.NewTextResult("ok"), nil
		},
	}
	f := newFixture(t, stub)
	require.NoError(t, f.svc.Load(context.Background(), testPair(t)))

	_, err := f.svc.Run(context.Background(), "Configurable")
	require.NoError(t, err)
	assert.Equal(t, 1, stub.resets)
	assert.Equal(t, 0, stub.setCalls, "empty prompt answer keeps defaults")

	f.prompt.Set(map[string]string{"Threshold": "9"})
	_, err = f.svc.Run(context.Background(), "Configurable")
	require.NoError(t, err)
	assert.Equal(t, 2, stub.resets)
	require.Equal(t, 1, stub.setCalls)
	assert.Equal(t, 9, stub.lastSet[0].Int())
}

func TestResetClearsPreviousOverride(t *testing.T) {
	custom := analyzer.NewCustomRangeDifference()
	f := newFixture(t, custom)
	require.NoError(t, f.svc.Load(context.Background(), testPair(t)))

	f.prompt.Set(map[string]string{"Low": "1", "Medium": "2", "High": "3"})
	_, err := f.svc.Run(context.Background(), "Custom Range Difference")
	require.NoError(t, err)
	low, medium, high := custom.Thresholds()
	assert.Equal(t, []int{1, 2, 3}, []int{low, medium, high})

	f.prompt.Set(nil)
	_, err = f.svc.Run(context.Background(), "Custom Range Difference")
	require.NoError(t, err)
	low, medium, high = custom.Thresholds()
	assert.Equal(t, []int{10, 30, 80}, []int{low, medium, high})
}

func TestFilterReplacesDisplayedPairAndRestore(t *testing.T) {
	f := newFixture(t, filter.NewChannelFilter(filter.Red), analyzer.NewDifferenceMap())
	ctx := context.Background()
	pair := testPair(t)
	require.NoError(t, f.svc.Load(ctx, pair))

	_, err := f.svc.Run(ctx, "Difference Map")
	require.NoError(t, err)
	f.events.Reset()

	out, err := f.svc.Run(ctx, "Show Red Channel")
	require.NoError(t, err)
	assert.Equal(t, RouteFiltered, out.Route)
	assert.Equal(t, color.NRGBA{200, 0, 0, 255}, f.svc.Displayed().First.Pixels.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{200, 40, 10, 255}, f.svc.Original().First.Pixels.NRGBAAt(0, 0))
	assert.Equal(t, "before.png", f.svc.Displayed().First.Name)

	assert.Equal(t, []observer.EventType{observer.FilteredResultLoaded, observer.QuickReopenChanged}, eventTypes(f.events.Events()))
	reopen, _ := f.events.Last(observer.QuickReopenChanged)
	assert.False(t, reopen.QuickReopenAvailable)
	assert.False(t, f.svc.ShowLastComparisonResult(ctx))

	assert.True(t, f.svc.RestoreOriginal(ctx))
	assert.Equal(t, color.NRGBA{200, 40, 10, 255}, f.svc.Displayed().First.Pixels.NRGBAAt(0, 0))
}

func TestRestoreOriginalWithoutImages(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.svc.RestoreOriginal(context.Background()))
}

func TestAnalyzeSelectedArea(t *testing.T) {
	f := newFixture(t,
		analyzer.NewDifferenceMap(),
		analyzer.NewSaturationComparator(analyzer.NewMetricsCalculator()),
		filter.NewGrayscale(),
	)
	ctx := context.Background()
	require.NoError(t, f.svc.Load(ctx, testPair(t)))
	area, err := f.svc.Displayed().Crop(image.Rect(1, 1, 4, 3))
	require.NoError(t, err)
	f.events.Reset()

	out, ok, err := f.svc.AnalyzeSelectedArea(ctx, area, "?")
	assert.Nil(t, out)
	assert.False(t, ok)
	assert.NoError(t, err)

	_, ok, err = f.svc.AnalyzeSelectedArea(ctx, area, "Y")
	assert.False(t, ok, "filters are ignored on the selected-area path")
	assert.NoError(t, err)
	assert.Empty(t, f.events.Events())

	out, ok, err = f.svc.AnalyzeSelectedArea(ctx, area, "M")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, RouteExternalViewer, out.Route)
	assert.Equal(t, image.Pt(3, 2), out.Image.Bounds().Size())

	out, ok, err = f.svc.AnalyzeSelectedRect(ctx, image.Rect(0, 0, 2, 2), "S")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, RouteText, out.Route)

	_, ok, err = f.svc.AnalyzeSelectedRect(ctx, image.Rect(50, 50, 60, 60), "S")
	assert.True(t, ok)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSubscribeNotifiesQuickReopenStatus(t *testing.T) {
	f := newFixture(t, analyzer.NewDifferenceMap())
	ctx := context.Background()

	late := observer.NewRecorder("late")
	require.NoError(t, f.svc.Load(ctx, testPair(t)))
	_, err := f.svc.Run(ctx, "Difference Map")
	require.NoError(t, err)
	f.events.Reset()

	assert.True(t, f.svc.Subscribe(ctx, late))
	require.Len(t, late.Events(), 1)
	assert.True(t, late.Events()[0].QuickReopenAvailable)
	assert.Empty(t, f.events.Events(), "existing observers are not re-notified")

	assert.False(t, f.svc.Subscribe(ctx, observer.NewRecorder("late")))
	assert.False(t, f.svc.Subscribe(ctx, nil))
	assert.True(t, f.svc.Unsubscribe(late))
}

func TestSamplePixel(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SamplePixel(0, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	require.NoError(t, f.svc.Load(context.Background(), testPair(t)))
	s, err := f.svc.SamplePixel(3, 2)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{200, 40, 10, 255}, s.First)
	assert.Equal(t, color.NRGBA{190, 60, 10, 255}, s.Second)
	assert.Equal(t, uint8(20), s.Difference)

	_, err = f.svc.SamplePixel(8, 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestProcessorsInfo(t *testing.T) {
	f := newFixture(t, analyzer.NewDifferenceMap(), filter.NewGrayscale())
	info := f.svc.ProcessorsInfo()
	require.Len(t, info, 2)
	assert.Equal(t, "Difference Map", info[0].ShortName)
	assert.Equal(t, "filter", info[1].Kind)
}
