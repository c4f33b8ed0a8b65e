package report

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/anime-shed/image-compare-go/internal/errors"
	"github.com/anime-shed/image-compare-go/internal/processor"
	"github.com/anime-shed/image-compare-go/internal/registry"
)

// Outcome summarises how many comparators of a batch succeeded.
type Outcome string

const (
	OutcomeAll  Outcome = "all"
	OutcomeSome Outcome = "some"
	OutcomeNone Outcome = "none"
)

// Entry records one comparator of a batch run.
type Entry struct {
	Processor string
	Kind      processor.ResultKind
	// Artifact is the written image file name, empty for text results.
	Artifact string
	Err      error
	Elapsed  time.Duration
}

// Succeeded reports whether the comparator produced and wrote its result.
func (e Entry) Succeeded() bool { return e.Err == nil }

// Summary is the result of a batch run in catalog order.
type Summary struct {
	Location  string
	Total     int
	Entries   []Entry
	Cancelled bool
}

func (s *Summary) Succeeded() int {
	n := 0
	for _, e := range s.Entries {
		if e.Succeeded() {
			n++
		}
	}
	return n
}

func (s *Summary) Failed() int {
	return len(s.Entries) - s.Succeeded()
}

// Outcome is all only when every eligible comparator ran and succeeded.
func (s *Summary) Outcome() Outcome {
	ok := s.Succeeded()
	switch {
	case ok == 0:
		return OutcomeNone
	case ok == s.Total:
		return OutcomeAll
	default:
		return OutcomeSome
	}
}

// Failures returns the failed entries.
func (s *Summary) Failures() []Entry {
	var out []Entry
	for _, e := range s.Entries {
		if !e.Succeeded() {
			out = append(out, e)
		}
	}
	return out
}

// Pipeline runs every enabled batch comparator of a registry over one pair.
type Pipeline struct {
	registry *registry.Registry
	logger   logrus.FieldLogger
	workers  int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers computes up to n comparators concurrently. Results are still
// written in catalog order.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewPipeline creates a batch pipeline over reg
func NewPipeline(reg *registry.Registry, logger logrus.FieldLogger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	p := &Pipeline{registry: reg, logger: logger, workers: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// computed is a comparator result waiting to be written.
type computed struct {
	result  processor.Result
	err     error
	elapsed time.Duration
	skipped bool
}

// Run compares pair with every eligible comparator and writes the results.
// Comparator failures are recorded in the summary; the returned error is
// reserved for invalid input and for failing to finalise the report, which
// is written even after cancellation.
func (p *Pipeline) Run(ctx context.Context, pair processor.Pair, w Writer, sink ProgressSink) (*Summary, error) {
	if err := processor.ValidateImages(pair.First, pair.Second); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = NopProgress{}
	}

	comparators := p.registry.ReportComparators()
	summary := &Summary{Location: w.Location(), Total: len(comparators)}
	sink.Begin(fmt.Sprintf("Comparing %s and %s", pair.First.DisplayName(), pair.Second.DisplayName()), len(comparators))

	var results []computed
	if p.workers > 1 && len(comparators) > 1 {
		results = p.computeConcurrently(ctx, comparators, pair, sink)
	}

	for i, c := range comparators {
		if ctx.Err() != nil || sink.Cancelled() {
			summary.Cancelled = true
			sink.Message(fmt.Sprintf("Cancelled after %d of %d comparators", i, len(comparators)))
			break
		}

		var res computed
		if results != nil {
			res = results[i]
			if res.skipped {
				summary.Cancelled = true
				break
			}
		} else {
			res = compute(c, pair)
		}

		entry := p.write(ctx, c, res, w)
		summary.Entries = append(summary.Entries, entry)
		if entry.Err != nil {
			sink.Error(fmt.Sprintf("%s: %v", c.ShortName(), entry.Err))
		}
		sink.Advance(i + 1)
	}

	fields := logrus.Fields{
		"location":  summary.Location,
		"total":     summary.Total,
		"succeeded": summary.Succeeded(),
		"failed":    summary.Failed(),
		"outcome":   summary.Outcome(),
		"cancelled": summary.Cancelled,
	}
	if err := w.Close(context.WithoutCancel(ctx), summary); err != nil {
		p.logger.WithFields(fields).WithError(err).Error("Failed to finalise batch report")
		return summary, err
	}
	p.logger.WithFields(fields).Info("Batch report completed")
	return summary, nil
}

// computeConcurrently runs the comparators on a worker pool. Jobs that start
// after ctx or sink is cancelled are marked skipped.
func (p *Pipeline) computeConcurrently(ctx context.Context, comparators []processor.Comparator, pair processor.Pair, sink ProgressSink) []computed {
	results := make([]computed, len(comparators))
	pool := NewWorkerPool(p.workers)
	pool.Start()
	defer pool.Close()

	for i, c := range comparators {
		i, c := i, c
		pool.Submit(func() {
			if ctx.Err() != nil || sink.Cancelled() {
				results[i] = computed{skipped: true}
				return
			}
			results[i] = compute(c, pair)
		})
	}
	pool.Wait()
	return results
}

// compute resets c to its defaults and runs it, converting panics to errors.
func compute(c processor.Comparator, pair processor.Pair) (out computed) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = computed{err: apperrors.NewProcessingError(fmt.Sprintf("%s panicked", c.ShortName()), fmt.Errorf("%v", r))}
		}
		out.elapsed = time.Since(start)
	}()

	c.Reset()
	res, err := c.Compare(pair.First, pair.Second)
	if err != nil {
		return computed{err: err}
	}
	if res.Kind() != c.ResultKind() || res.Empty() {
		return computed{err: apperrors.NewEmptyResultError(c.ShortName()+" produced no usable result", nil)}
	}
	return computed{result: res}
}

func (p *Pipeline) write(ctx context.Context, c processor.Comparator, res computed, w Writer) Entry {
	entry := Entry{Processor: c.ShortName(), Kind: c.ResultKind(), Elapsed: res.elapsed, Err: res.err}
	if res.err != nil {
		p.logger.WithField("processor", c.ShortName()).WithError(res.err).Warn("Batch comparator failed")
		return entry
	}

	switch res.result.Kind() {
	case processor.ResultImage:
		file, err := w.WriteImage(ctx, ArtifactName(c.ShortName()), res.result.Image())
		if err == nil {
			entry.Artifact = file
			err = w.AppendText(c.FullName(), fmt.Sprintf("<img src=\"%s\" alt=\"%s\">\n", file, file))
		}
		entry.Err = err
	case processor.ResultText:
		entry.Err = w.AppendText(c.FullName(), res.result.Text())
	}

	if entry.Err != nil {
		p.logger.WithField("processor", c.ShortName()).WithError(entry.Err).Warn("Failed to write batch result")
	} else {
		p.logger.WithFields(logrus.Fields{
			"processor":  c.ShortName(),
			"elapsed_ms": res.elapsed.Milliseconds(),
		}).Debug("Batch comparator completed")
	}
	return entry
}
