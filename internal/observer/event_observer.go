package observer

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ProcessingEvent is delivered to observers after each orchestrator step.
type ProcessingEvent struct {
	EventType      EventType     `json:"event_type"`
	Timestamp      time.Time     `json:"timestamp"`
	Processor      string        `json:"processor,omitempty"`
	ProcessingTime time.Duration `json:"processing_time"`
	ErrorMessage   string        `json:"error_message,omitempty"`

	// Image is set for image and external image results.
	Image *image.NRGBA `json:"-"`
	// Text and the two paths are set for text results.
	Text            string `json:"-"`
	FirstImagePath  string `json:"first_image_path,omitempty"`
	SecondImagePath string `json:"second_image_path,omitempty"`
	// First and Second carry the new displayed pair for filtered results.
	First  *image.NRGBA `json:"-"`
	Second *image.NRGBA `json:"-"`

	QuickReopenAvailable bool `json:"quick_reopen_available"`
}

// EventType represents the type of processing event
type EventType string

const (
	// ImageResultLoaded when a comparison image is shown in place
	ImageResultLoaded EventType = "image_result_loaded"
	// ExternalImageResult when a comparison image has different dimensions than the pair
	ExternalImageResult EventType = "external_image_result"
	// TextResultLoaded when a text or HTML report is produced
	TextResultLoaded EventType = "text_result_loaded"
	// FilteredResultLoaded when the displayed pair is replaced
	FilteredResultLoaded EventType = "filtered_result_loaded"
	// ProcessingFailed when a single processing request fails
	ProcessingFailed EventType = "processing_failed"
	// QuickReopenChanged when the last comparison result becomes (un)available
	QuickReopenChanged EventType = "quick_reopen_changed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event ProcessingEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	// Subscribe returns false for a nil observer or a name already subscribed.
	Subscribe(observer Observer) bool
	Unsubscribe(observer Observer) bool
	NotifyObservers(ctx context.Context, event ProcessingEvent)
}

// LoggingObserver logs processing events
type LoggingObserver struct {
	logger logrus.FieldLogger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger logrus.FieldLogger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles processing events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event ProcessingEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"processor":       event.Processor,
		"processing_time": event.ProcessingTime,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	if event.Image != nil {
		fields["result_size"] = event.Image.Bounds().Size().String()
	}

	switch event.EventType {
	case ImageResultLoaded:
		o.logger.WithFields(fields).Info("Comparison image ready")
	case ExternalImageResult:
		o.logger.WithFields(fields).Info("Comparison image sent to external viewer")
	case TextResultLoaded:
		fields["first_image"] = event.FirstImagePath
		fields["second_image"] = event.SecondImagePath
		o.logger.WithFields(fields).Info("Comparison report ready")
	case FilteredResultLoaded:
		o.logger.WithFields(fields).Info("Displayed images replaced")
	case ProcessingFailed:
		o.logger.WithFields(fields).Error("Processing failed")
	case QuickReopenChanged:
		fields["available"] = event.QuickReopenAvailable
		o.logger.WithFields(fields).Debug("Quick reopen availability changed")
	default:
		o.logger.WithFields(fields).Info("Processing event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from processing events
type MetricsObserver struct {
	mu                  sync.RWMutex
	counts              map[EventType]int64
	successful          int64
	failed              int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{counts: make(map[EventType]int64)}
}

// OnEvent handles processing events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event ProcessingEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.counts[event.EventType]++
	switch event.EventType {
	case ImageResultLoaded, ExternalImageResult, TextResultLoaded:
		o.successful++
		o.totalProcessingTime += event.ProcessingTime
	case FilteredResultLoaded:
		if event.Processor != "" {
			o.successful++
			o.totalProcessingTime += event.ProcessingTime
		}
	case ProcessingFailed:
		o.failed++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successful > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successful)
	}

	events := make(map[string]int64, len(o.counts))
	for k, v := range o.counts {
		events[string(k)] = v
	}

	return map[string]interface{}{
		"successful_runs":       o.successful,
		"failed_runs":           o.failed,
		"events":                events,
		"total_processing_time": o.totalProcessingTime.String(),
		"avg_processing_time":   avgProcessingTime.String(),
	}
}

// FuncObserver adapts a function to the Observer interface.
type FuncObserver struct {
	Name string
	Fn   func(ctx context.Context, event ProcessingEvent)
}

func (f FuncObserver) OnEvent(ctx context.Context, event ProcessingEvent) { f.Fn(ctx, event) }
func (f FuncObserver) GetObserverName() string                            { return f.Name }

// Recorder keeps every event it receives.
type Recorder struct {
	name   string
	mu     sync.Mutex
	events []ProcessingEvent
}

func NewRecorder(name string) *Recorder {
	return &Recorder{name: name}
}

func (r *Recorder) OnEvent(ctx context.Context, event ProcessingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) GetObserverName() string { return r.name }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []ProcessingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ProcessingEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent event of type t.
func (r *Recorder) Last(t EventType) (ProcessingEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].EventType == t {
			return r.events[i], true
		}
	}
	return ProcessingEvent{}, false
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	logger    logrus.FieldLogger
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(logger logrus.FieldLogger) *EventPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EventPublisher{
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) bool {
	if observer == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			return false
		}
	}
	p.observers = append(p.observers, observer)
	return true
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) bool {
	if observer == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i:i], p.observers[i+1:]...)
			return true
		}
	}
	return false
}

// NotifyObservers delivers the event to every observer in subscription order
// on the calling goroutine.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event ProcessingEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.notify(ctx, observer, event)
	}
}

// Notify delivers the event to a single observer.
func (p *EventPublisher) Notify(ctx context.Context, observer Observer, event ProcessingEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.notify(ctx, observer, event)
}

func (p *EventPublisher) notify(ctx context.Context, obs Observer, event ProcessingEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			p.logger.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
