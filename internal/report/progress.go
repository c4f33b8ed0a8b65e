package report

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ProgressSink receives batch progress. Cancelled is polled between
// comparators only.
type ProgressSink interface {
	Begin(caption string, total int)
	Advance(step int)
	Cancelled() bool
	Message(text string)
	Error(text string)
}

// NopProgress discards all progress.
type NopProgress struct{}

func (NopProgress) Begin(string, int) {}
func (NopProgress) Advance(int)       {}
func (NopProgress) Cancelled() bool   { return false }
func (NopProgress) Message(string)    {}
func (NopProgress) Error(string)      {}

// LogProgress writes progress to a logger and can be cancelled from another
// goroutine.
type LogProgress struct {
	logger    logrus.FieldLogger
	caption   string
	total     int
	cancelled atomic.Bool
}

// NewLogProgress creates a progress sink that logs every step
func NewLogProgress(logger logrus.FieldLogger) *LogProgress {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogProgress{logger: logger}
}

func (p *LogProgress) Begin(caption string, total int) {
	p.caption, p.total = caption, total
	p.logger.WithFields(logrus.Fields{"caption": caption, "total": total}).Info("Batch started")
}

func (p *LogProgress) Advance(step int) {
	p.logger.WithFields(logrus.Fields{
		"caption": p.caption,
		"step":    step,
		"total":   p.total,
	}).Info("Batch progress")
}

func (p *LogProgress) Cancelled() bool { return p.cancelled.Load() }

// Cancel asks the batch to stop before the next comparator.
func (p *LogProgress) Cancel() { p.cancelled.Store(true) }

func (p *LogProgress) Message(text string) {
	p.logger.WithField("caption", p.caption).Info(text)
}

func (p *LogProgress) Error(text string) {
	p.logger.WithField("caption", p.caption).Error(text)
}
