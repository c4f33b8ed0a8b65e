package observer

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeRejectsNilAndDuplicates(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewEventPublisher(logger)

	assert.False(t, p.Subscribe(nil))
	assert.True(t, p.Subscribe(NewRecorder("ui")))
	assert.False(t, p.Subscribe(NewRecorder("ui")), "same name is a duplicate")
	assert.True(t, p.Subscribe(NewRecorder("report")))

	assert.True(t, p.Unsubscribe(NewRecorder("ui")))
	assert.False(t, p.Unsubscribe(NewRecorder("ui")))
	assert.True(t, p.Subscribe(NewRecorder("ui")))
}

func TestNotifyIsSynchronousAndOrdered(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewEventPublisher(logger)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		require.True(t, p.Subscribe(FuncObserver{Name: name, Fn: func(ctx context.Context, e ProcessingEvent) {
			order = append(order, name+":"+string(e.EventType))
		}}))
	}

	p.NotifyObservers(context.Background(), ProcessingEvent{EventType: TextResultLoaded})
	assert.Equal(t, []string{"first:text_result_loaded", "second:text_result_loaded", "third:text_result_loaded"}, order)
}

func TestNotifyRecoversObserverPanic(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := NewEventPublisher(logger)
	rec := NewRecorder("after")

	p.Subscribe(FuncObserver{Name: "broken", Fn: func(context.Context, ProcessingEvent) { panic("boom") }})
	p.Subscribe(rec)

	p.NotifyObservers(context.Background(), ProcessingEvent{EventType: ProcessingFailed})
	require.Len(t, rec.Events(), 1)
	assert.False(t, rec.Events()[0].Timestamp.IsZero())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "broken", hook.LastEntry().Data["observer"])
}

func TestRecorderLast(t *testing.T) {
	rec := NewRecorder("r")
	ctx := context.Background()
	rec.OnEvent(ctx, ProcessingEvent{EventType: QuickReopenChanged, QuickReopenAvailable: false})
	rec.OnEvent(ctx, ProcessingEvent{EventType: ImageResultLoaded})
	rec.OnEvent(ctx, ProcessingEvent{EventType: QuickReopenChanged, QuickReopenAvailable: true})

	e, ok := rec.Last(QuickReopenChanged)
	require.True(t, ok)
	assert.True(t, e.QuickReopenAvailable)
	_, ok = rec.Last(ProcessingFailed)
	assert.False(t, ok)

	rec.Reset()
	assert.Empty(t, rec.Events())
}

func TestLoggingObserver(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	o := NewLoggingObserver(logger)
	ctx := context.Background()

	o.OnEvent(ctx, ProcessingEvent{EventType: ProcessingFailed, Processor: "Saturation", ErrorMessage: "bad pair"})
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "bad pair", hook.LastEntry().Data["error"])

	o.OnEvent(ctx, ProcessingEvent{EventType: TextResultLoaded, FirstImagePath: "a.png", SecondImagePath: "b.png"})
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "a.png", hook.LastEntry().Data["first_image"])

	o.OnEvent(ctx, ProcessingEvent{EventType: QuickReopenChanged, QuickReopenAvailable: true})
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
	assert.Equal(t, "logging_observer", o.GetObserverName())
}

func TestMetricsObserver(t *testing.T) {
	o := NewMetricsObserver()
	ctx := context.Background()

	o.OnEvent(ctx, ProcessingEvent{EventType: ImageResultLoaded, ProcessingTime: 20 * time.Millisecond})
	o.OnEvent(ctx, ProcessingEvent{EventType: TextResultLoaded, ProcessingTime: 40 * time.Millisecond})
	o.OnEvent(ctx, ProcessingEvent{EventType: FilteredResultLoaded})
	o.OnEvent(ctx, ProcessingEvent{EventType: FilteredResultLoaded, Processor: "Grayscale", ProcessingTime: 30 * time.Millisecond})
	o.OnEvent(ctx, ProcessingEvent{EventType: ProcessingFailed})

	m := o.GetMetrics()
	assert.Equal(t, int64(3), m["successful_runs"])
	assert.Equal(t, int64(1), m["failed_runs"])
	assert.Equal(t, "30ms", m["avg_processing_time"])
	assert.Equal(t, int64(2), m["events"].(map[string]int64)["filtered_result_loaded"])
}
