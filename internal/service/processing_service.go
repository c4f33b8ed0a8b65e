package service

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/image-compare-go/internal/analyzer"
	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
	"github.com/anime-shed/image-compare-go/internal/observer"
	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/registry"
	"github.com/anime-shed/image-compare-go/internal/strategy"
)

// ProcessingService runs processors against the loaded image pair and routes
// their results to observers. It holds the state of a single session and is
// not safe for concurrent use; callers serialise access.
type ProcessingService interface {
	// Load replaces the original and displayed pair.
	Load(ctx context.Context, pair processor.Pair) error
	// Run executes the processor with the given short name on the displayed pair.
	Run(ctx context.Context, name string) (*Outcome, error)
	// AnalyzeSelectedArea runs the comparator bound to hotkey on area. It
	// returns false without error when the hotkey does not resolve to a
	// comparator.
	AnalyzeSelectedArea(ctx context.Context, area processor.Pair, hotkey string) (*Outcome, bool, error)
	// AnalyzeSelectedRect crops the displayed pair to rect and behaves like
	// AnalyzeSelectedArea.
	AnalyzeSelectedRect(ctx context.Context, rect image.Rectangle, hotkey string) (*Outcome, bool, error)
	RestoreOriginal(ctx context.Context) bool
	ShowLastComparisonResult(ctx context.Context) bool
	Original() processor.Pair
	Displayed() processor.Pair
	LastComparisonResult() (*image.NRGBA, bool)
	SamplePixel(x, y int) (PixelSample, error)
	ProcessorsInfo() []processor.Info
	Subscribe(ctx context.Context, o observer.Observer) bool
	Unsubscribe(o observer.Observer) bool
}

// Route tells where a processing outcome was delivered.
type Route string

const (
	RouteInPlace        Route = "in_place"
	RouteExternalViewer Route = "external_viewer"
	RouteText           Route = "text"
	RouteFiltered       Route = "filtered"
)

// Outcome describes a completed processing request.
type Outcome struct {
	Processor string
	Route     Route
	Image     *image.NRGBA
	Text      string
	// Pair is the new displayed pair after a filter.
	Pair    processor.Pair
	Elapsed time.Duration
}

// PixelSample reports the color of both displayed images at one point.
type PixelSample struct {
	X          int         `json:"x"`
	Y          int         `json:"y"`
	First      color.NRGBA `json:"first"`
	Second     color.NRGBA `json:"second"`
	Difference uint8       `json:"difference"`
}

// stage names the orchestrator step in logs.
type stage string

const (
	stageResolving   stage = "resolving"
	stageConfiguring stage = "configuring"
	stageExecuting   stage = "executing"
	stageDispatching stage = "dispatching"
)

type processingService struct {
	registry  *registry.Registry
	prompt    strategy.PromptStrategy
	publisher *observer.EventPublisher
	logger    logrus.FieldLogger

	original  processor.Pair
	displayed processor.Pair
	last      *image.NRGBA
	lastName  string
}

// NewProcessingService creates a new processing service
func NewProcessingService(
	reg *registry.Registry,
	prompt strategy.PromptStrategy,
	publisher *observer.EventPublisher,
	logger logrus.FieldLogger,
) ProcessingService {
	if prompt == nil {
		prompt = strategy.NewKeepDefaultsStrategy()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if publisher == nil {
		publisher = observer.NewEventPublisher(logger)
	}
	return &processingService{
		registry:  reg,
		prompt:    prompt,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *processingService) Load(ctx context.Context, pair processor.Pair) error {
	if err := processor.ValidateImages(pair.First, pair.Second); err != nil {
		s.fail(ctx, "", stageResolving, err)
		return err
	}
	s.original = pair
	s.displayed = pair
	s.publish(ctx, observer.ProcessingEvent{
		EventType: observer.FilteredResultLoaded,
		First:     pair.First.Pixels,
		Second:    pair.Second.Pixels,
	})
	s.clearLast(ctx)
	return nil
}

func (s *processingService) Run(ctx context.Context, name string) (*Outcome, error) {
	p, ok := s.registry.FindByShortName(name)
	if !ok {
		err := apperrors.NewResolutionError(fmt.Sprintf("unknown processor %q", name), nil)
		s.fail(ctx, name, stageResolving, err)
		return nil, err
	}
	if s.displayed.Empty() {
		err := apperrors.NewValidationError("no images loaded", nil)
		s.fail(ctx, name, stageResolving, err)
		return nil, err
	}
	return s.execute(ctx, p, s.displayed)
}

func (s *processingService) AnalyzeSelectedArea(ctx context.Context, area processor.Pair, hotkey string) (*Outcome, bool, error) {
	c, ok := s.comparatorForHotkey(hotkey)
	if !ok {
		return nil, false, nil
	}
	if err := processor.ValidateImages(area.First, area.Second); err != nil {
		s.fail(ctx, c.ShortName(), stageResolving, err)
		return nil, true, err
	}
	out, err := s.execute(ctx, c, area)
	return out, true, err
}

func (s *processingService) AnalyzeSelectedRect(ctx context.Context, rect image.Rectangle, hotkey string) (*Outcome, bool, error) {
	c, ok := s.comparatorForHotkey(hotkey)
	if !ok {
		return nil, false, nil
	}
	area, err := s.displayed.Crop(rect)
	if err != nil {
		s.fail(ctx, c.ShortName(), stageResolving, err)
		return nil, true, err
	}
	return s.AnalyzeSelectedArea(ctx, area, hotkey)
}

func (s *processingService) comparatorForHotkey(hotkey string) (processor.Comparator, bool) {
	p, ok := s.registry.FindByHotkey(hotkey)
	if !ok {
		s.logger.WithField("hotkey", hotkey).Debug("Selected area hotkey not bound")
		return nil, false
	}
	c, ok := p.(processor.Comparator)
	if !ok {
		s.logger.WithFields(logrus.Fields{"hotkey": hotkey, "processor": p.ShortName()}).
			Debug("Selected area hotkey is not a comparator")
		return nil, false
	}
	return c, true
}

// execute resets and configures p, runs it on pair and dispatches the result.
func (s *processingService) execute(ctx context.Context, p processor.Processor, pair processor.Pair) (out *Outcome, err error) {
	start := time.Now()
	name := p.ShortName()
	current := stageConfiguring

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewProcessingError(fmt.Sprintf("%s panicked", name), fmt.Errorf("%v", r))
			out = nil
		}
		if err != nil {
			s.fail(ctx, name, current, err)
		}
	}()

	s.configure(p)

	current = stageExecuting
	switch proc := p.(type) {
	case processor.Comparator:
		res, cerr := proc.Compare(pair.First, pair.Second)
		if cerr != nil {
			return nil, asProcessingError(name, cerr)
		}
		current = stageDispatching
		return s.dispatchComparison(ctx, proc, res, time.Since(start))

	case processor.Filter:
		first, ferr := proc.Filter(pair.First.Pixels)
		if ferr != nil {
			return nil, asProcessingError(name, ferr)
		}
		second, ferr := proc.Filter(pair.Second.Pixels)
		if ferr != nil {
			return nil, asProcessingError(name, ferr)
		}
		if first == nil || second == nil {
			return nil, apperrors.NewEmptyResultError(name+" produced no image", nil)
		}
		current = stageDispatching
		return s.dispatchFilter(ctx, proc, first, second, time.Since(start)), nil

	default:
		return nil, apperrors.NewInternalError(fmt.Sprintf("processor %q has unsupported kind %s", name, p.Kind()), nil)
	}
}

// configure always resets p, then asks the prompt for values when p has
// properties. An empty answer keeps the defaults.
func (s *processingService) configure(p processor.Processor) {
	p.Reset()
	defaults := p.DefaultProperties()
	if len(defaults) == 0 {
		return
	}
	props := s.prompt.PromptProperties(p.FullName(), p.Description(), defaults)
	if len(props) == 0 {
		return
	}
	p.SetProperties(props)
	s.logger.WithFields(logrus.Fields{
		"processor":  p.ShortName(),
		"properties": strategy.Describe(props),
	}).Debug("Processor configured")
}

func (s *processingService) dispatchComparison(ctx context.Context, c processor.Comparator, res processor.Result, elapsed time.Duration) (*Outcome, error) {
	name := c.ShortName()
	if res.Kind() != c.ResultKind() {
		return nil, apperrors.NewEmptyResultError(
			fmt.Sprintf("%s returned a %s result, expected %s", name, res.Kind(), c.ResultKind()), nil)
	}
	if res.Empty() {
		return nil, apperrors.NewEmptyResultError(name+" produced an empty result", nil)
	}

	out := &Outcome{Processor: name, Elapsed: elapsed}
	switch res.Kind() {
	case processor.ResultText:
		out.Route = RouteText
		out.Text = res.Text()
		s.publish(ctx, observer.ProcessingEvent{
			EventType:       observer.TextResultLoaded,
			Processor:       c.FullName(),
			ProcessingTime:  elapsed,
			Text:            out.Text,
			FirstImagePath:  s.displayed.First.Path,
			SecondImagePath: s.displayed.Second.Path,
		})

	case processor.ResultImage:
		out.Image = res.Image()
		if out.Image.Bounds().Size() != s.original.Size() {
			out.Route = RouteExternalViewer
			s.publish(ctx, observer.ProcessingEvent{
				EventType:      observer.ExternalImageResult,
				Processor:      c.FullName(),
				ProcessingTime: elapsed,
				Image:          out.Image,
			})
			break
		}
		out.Route = RouteInPlace
		s.last = out.Image
		s.lastName = c.FullName()
		s.publish(ctx, observer.ProcessingEvent{
			EventType:      observer.ImageResultLoaded,
			Processor:      c.FullName(),
			ProcessingTime: elapsed,
			Image:          out.Image,
		})
		s.publish(ctx, observer.ProcessingEvent{
			EventType:            observer.QuickReopenChanged,
			Processor:            c.FullName(),
			QuickReopenAvailable: true,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"processor":  name,
		"route":      out.Route,
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("Comparison completed")
	return out, nil
}

func (s *processingService) dispatchFilter(ctx context.Context, f processor.Filter, first, second *image.NRGBA, elapsed time.Duration) *Outcome {
	s.displayed = processor.Pair{
		First:  s.displayed.First.WithPixels(first),
		Second: s.displayed.Second.WithPixels(second),
	}
	s.publish(ctx, observer.ProcessingEvent{
		EventType:      observer.FilteredResultLoaded,
		Processor:      f.FullName(),
		ProcessingTime: elapsed,
		First:          first,
		Second:         second,
	})
	s.clearLast(ctx)

	s.logger.WithFields(logrus.Fields{
		"processor":  f.ShortName(),
		"route":      RouteFiltered,
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("Filter applied")
	return &Outcome{Processor: f.ShortName(), Route: RouteFiltered, Pair: s.displayed, Elapsed: elapsed}
}

func (s *processingService) RestoreOriginal(ctx context.Context) bool {
	if s.original.Empty() {
		return false
	}
	s.displayed = s.original
	s.publish(ctx, observer.ProcessingEvent{
		EventType: observer.FilteredResultLoaded,
		First:     s.original.First.Pixels,
		Second:    s.original.Second.Pixels,
	})
	s.clearLast(ctx)
	return true
}

func (s *processingService) ShowLastComparisonResult(ctx context.Context) bool {
	if s.last == nil {
		return false
	}
	s.publish(ctx, observer.ProcessingEvent{
		EventType: observer.ImageResultLoaded,
		Processor: s.lastName,
		Image:     s.last,
	})
	return true
}

func (s *processingService) Original() processor.Pair  { return s.original }
func (s *processingService) Displayed() processor.Pair { return s.displayed }

func (s *processingService) LastComparisonResult() (*image.NRGBA, bool) {
	return s.last, s.last != nil
}

func (s *processingService) SamplePixel(x, y int) (PixelSample, error) {
	if s.displayed.Empty() {
		return PixelSample{}, apperrors.NewValidationError("no images loaded", nil)
	}
	pt := image.Pt(x, y)
	if !pt.In(s.displayed.First.Bounds()) {
		return PixelSample{}, apperrors.NewValidationError(
			fmt.Sprintf("point (%d,%d) is outside the %v images", x, y, s.displayed.Size()), nil)
	}
	a := s.displayed.First.Pixels.NRGBAAt(x, y)
	b := s.displayed.Second.Pixels.NRGBAAt(x, y)
	return PixelSample{X: x, Y: y, First: a, Second: b, Difference: analyzer.PixelDifference(a, b)}, nil
}

func (s *processingService) ProcessorsInfo() []processor.Info {
	return s.registry.Info()
}

// Subscribe registers o and immediately tells it whether a last comparison
// result can be reopened.
func (s *processingService) Subscribe(ctx context.Context, o observer.Observer) bool {
	if !s.publisher.Subscribe(o) {
		return false
	}
	s.publisher.Notify(ctx, o, observer.ProcessingEvent{
		EventType:            observer.QuickReopenChanged,
		QuickReopenAvailable: s.last != nil,
	})
	return true
}

func (s *processingService) Unsubscribe(o observer.Observer) bool {
	return s.publisher.Unsubscribe(o)
}

func (s *processingService) clearLast(ctx context.Context) {
	s.last = nil
	s.lastName = ""
	s.publish(ctx, observer.ProcessingEvent{
		EventType:            observer.QuickReopenChanged,
		QuickReopenAvailable: false,
	})
}

func (s *processingService) fail(ctx context.Context, name string, at stage, err error) {
	s.logger.WithFields(logrus.Fields{
		"processor": name,
		"stage":     at,
	}).WithError(err).Warn("Processing request failed")
	s.publish(ctx, observer.ProcessingEvent{
		EventType:    observer.ProcessingFailed,
		Processor:    name,
		ErrorMessage: err.Error(),
	})
}

func (s *processingService) publish(ctx context.Context, e observer.ProcessingEvent) {
	s.publisher.NotifyObservers(ctx, e)
}

func asProcessingError(name string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewProcessingError(name+" failed", err)
}
